package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"csf-data/internal/domain"
	"csf-data/internal/repository"
)

var ErrNotFound = fmt.Errorf("not found")

// PeopleService 人员目录管理
// CRUD over the people directory. Deleting a person cascades: every row
// referencing it as owner, auditor or stakeholder is cleared, so no
// dangling ids are left behind.
type PeopleService struct {
	people      *repository.PeopleRepo
	assessments *repository.AssessmentsRepo
	links       *LinkService
	logger      *zap.Logger
}

func NewPeopleService(people *repository.PeopleRepo, assessments *repository.AssessmentsRepo, links *LinkService, logger *zap.Logger) *PeopleService {
	return &PeopleService{
		people:      people,
		assessments: assessments,
		links:       links,
		logger:      logger,
	}
}

// PersonRequest is the manual-entry form payload.
type PersonRequest struct {
	Name  string `json:"name" validate:"required"`
	Title string `json:"title" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// List returns the directory, optionally filtered by a case-insensitive
// substring over name, title and email. Any email repair done on load is
// persisted before returning.
func (s *PeopleService) List(ctx context.Context, search string) ([]domain.Person, error) {
	people, rev, repaired, err := s.people.Load(ctx)
	if err != nil {
		return nil, err
	}
	if repaired {
		if _, err := s.people.Save(ctx, people, rev); err != nil {
			s.logger.Warn("persisting repaired emails failed", zap.Error(err))
		} else {
			s.logger.Info("repaired duplicated email domains in people directory")
		}
	}

	if search == "" {
		return people, nil
	}
	q := strings.ToLower(search)
	out := make([]domain.Person, 0, len(people))
	for _, p := range people {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Email), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *PeopleService) Create(ctx context.Context, req PersonRequest) (*domain.Person, error) {
	people, rev, _, err := s.people.Load(ctx)
	if err != nil {
		return nil, err
	}

	p := domain.Person{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(req.Name),
		Title: strings.TrimSpace(req.Title),
		Email: strings.TrimSpace(req.Email),
	}
	people = append(people, p)
	if _, err := s.people.Save(ctx, people, rev); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PeopleService) Update(ctx context.Context, id string, req PersonRequest) (*domain.Person, error) {
	people, rev, _, err := s.people.Load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range people {
		if people[i].ID == id {
			people[i].Name = strings.TrimSpace(req.Name)
			people[i].Title = strings.TrimSpace(req.Title)
			people[i].Email = strings.TrimSpace(req.Email)
			if _, err := s.people.Save(ctx, people, rev); err != nil {
				return nil, err
			}
			p := people[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("person %s: %w", id, ErrNotFound)
}

// Merge folds one directory entry into another: every row reference to
// sourceID is re-pointed at targetID and the source entry is removed.
// The explicit escape hatch for near-duplicates the import heuristics
// could not tell apart.
func (s *PeopleService) Merge(ctx context.Context, targetID, sourceID string) (*domain.Person, error) {
	if targetID == sourceID {
		return nil, fmt.Errorf("cannot merge a person into itself")
	}
	people, rev, _, err := s.people.Load(ctx)
	if err != nil {
		return nil, err
	}

	var target *domain.Person
	sourceIdx := -1
	for i := range people {
		switch people[i].ID {
		case targetID:
			target = &people[i]
		case sourceID:
			sourceIdx = i
		}
	}
	if target == nil {
		return nil, fmt.Errorf("person %s: %w", targetID, ErrNotFound)
	}
	if sourceIdx < 0 {
		return nil, fmt.Errorf("person %s: %w", sourceID, ErrNotFound)
	}

	merged := *target
	people = append(people[:sourceIdx], people[sourceIdx+1:]...)
	if _, err := s.people.Save(ctx, people, rev); err != nil {
		return nil, err
	}

	rows, rowsRev, err := s.assessments.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s.links.CascadePersonMerge(rows, sourceID, targetID) {
		if _, err := s.assessments.Save(ctx, rows, rowsRev); err != nil {
			return nil, err
		}
	}
	s.logger.Info("merged person",
		zap.String("source_id", sourceID),
		zap.String("target_id", targetID))
	return &merged, nil
}

func (s *PeopleService) Delete(ctx context.Context, id string) error {
	people, rev, _, err := s.people.Load(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range people {
		if people[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("person %s: %w", id, ErrNotFound)
	}
	people = append(people[:idx], people[idx+1:]...)
	if _, err := s.people.Save(ctx, people, rev); err != nil {
		return err
	}

	rows, rowsRev, err := s.assessments.Load(ctx)
	if err != nil {
		return err
	}
	if s.links.CascadePersonDelete(rows, id) {
		if _, err := s.assessments.Save(ctx, rows, rowsRev); err != nil {
			return err
		}
	}
	return nil
}
