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

// ArtifactService 证据目录管理
// CRUD over the artifact directory with bidirectional link maintenance:
// edits to an artifact's subcategory set propagate to the affected rows,
// and deletion strips the artifact's name from every row that listed it.
type ArtifactService struct {
	artifacts   *repository.ArtifactsRepo
	assessments *repository.AssessmentsRepo
	links       *LinkService
	logger      *zap.Logger
}

func NewArtifactService(artifacts *repository.ArtifactsRepo, assessments *repository.AssessmentsRepo, links *LinkService, logger *zap.Logger) *ArtifactService {
	return &ArtifactService{
		artifacts:   artifacts,
		assessments: assessments,
		links:       links,
		logger:      logger,
	}
}

// ArtifactRequest is the manual-entry form payload.
type ArtifactRequest struct {
	ArtifactID           string   `json:"artifact_id"`
	Name                 string   `json:"name" validate:"required"`
	Description          string   `json:"description" validate:"required"`
	Link                 string   `json:"link" validate:"omitempty,url"`
	LinkedSubcategoryIDs []string `json:"linked_subcategory_ids"`
}

func (s *ArtifactService) List(ctx context.Context, search string) ([]domain.Artifact, error) {
	dir, _, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, err
	}
	if search == "" {
		return dir.Items, nil
	}
	q := strings.ToLower(search)
	out := make([]domain.Artifact, 0, len(dir.Items))
	for _, a := range dir.Items {
		if strings.Contains(strings.ToLower(a.Name), q) ||
			strings.Contains(strings.ToLower(a.Description), q) ||
			strings.Contains(strings.ToLower(a.ArtifactID), q) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *ArtifactService) Create(ctx context.Context, req ArtifactRequest) (*domain.Artifact, error) {
	dir, rev, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, err
	}
	if dir.FindByName(req.Name) != nil {
		return nil, fmt.Errorf("artifact named %q already exists", req.Name)
	}

	displayCode := strings.TrimSpace(req.ArtifactID)
	if displayCode == "" {
		displayCode = domain.DisplayCode(dir.NextSeq)
	}
	a := domain.Artifact{
		ID:                   uuid.NewString(),
		ArtifactID:           displayCode,
		Name:                 strings.TrimSpace(req.Name),
		Description:          strings.TrimSpace(req.Description),
		Link:                 strings.TrimSpace(req.Link),
		LinkedSubcategoryIDs: req.LinkedSubcategoryIDs,
	}
	dir.NextSeq++
	dir.Items = append(dir.Items, a)
	if _, err := s.artifacts.Save(ctx, dir, rev); err != nil {
		return nil, err
	}

	if len(a.LinkedSubcategoryIDs) > 0 {
		if err := s.reconcileRows(ctx, &a, nil); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

func (s *ArtifactService) Update(ctx context.Context, id string, req ArtifactRequest) (*domain.Artifact, error) {
	dir, rev, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, err
	}

	var target *domain.Artifact
	for i := range dir.Items {
		if dir.Items[i].ID == id {
			target = &dir.Items[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("artifact %s: %w", id, ErrNotFound)
	}

	oldIDs := append([]string(nil), target.LinkedSubcategoryIDs...)
	if req.ArtifactID != "" {
		target.ArtifactID = strings.TrimSpace(req.ArtifactID)
	}
	target.Name = strings.TrimSpace(req.Name)
	target.Description = strings.TrimSpace(req.Description)
	target.Link = strings.TrimSpace(req.Link)
	target.LinkedSubcategoryIDs = req.LinkedSubcategoryIDs

	if _, err := s.artifacts.Save(ctx, dir, rev); err != nil {
		return nil, err
	}
	if err := s.reconcileRows(ctx, target, oldIDs); err != nil {
		return nil, err
	}
	a := *target
	return &a, nil
}

// Merge folds one artifact into another: the target gains the union of
// both back-reference sets, rows listing the source name are rewritten
// to the target name, and the source entry is removed. The display code
// of the removed artifact is never reissued.
func (s *ArtifactService) Merge(ctx context.Context, targetID, sourceID string) (*domain.Artifact, error) {
	if targetID == sourceID {
		return nil, fmt.Errorf("cannot merge an artifact into itself")
	}
	dir, rev, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, err
	}

	var target *domain.Artifact
	sourceIdx := -1
	for i := range dir.Items {
		switch dir.Items[i].ID {
		case targetID:
			target = &dir.Items[i]
		case sourceID:
			sourceIdx = i
		}
	}
	if target == nil {
		return nil, fmt.Errorf("artifact %s: %w", targetID, ErrNotFound)
	}
	if sourceIdx < 0 {
		return nil, fmt.Errorf("artifact %s: %w", sourceID, ErrNotFound)
	}

	source := dir.Items[sourceIdx]
	for _, id := range source.LinkedSubcategoryIDs {
		target.AddSubcategory(id)
	}
	merged := *target
	dir.Items = append(dir.Items[:sourceIdx], dir.Items[sourceIdx+1:]...)
	if _, err := s.artifacts.Save(ctx, dir, rev); err != nil {
		return nil, err
	}

	rows, rowsRev, err := s.assessments.Load(ctx)
	if err != nil {
		return nil, err
	}
	changed := s.links.MergeArtifactRefs(rows, source.Name, merged.Name)
	// Rows the source referenced but the target did not yet list also
	// need the surviving name.
	if s.links.ApplyArtifactEdit(rows, &merged, nil) {
		changed = true
	}
	if changed {
		if _, err := s.assessments.Save(ctx, rows, rowsRev); err != nil {
			return nil, err
		}
	}
	s.logger.Info("merged artifact",
		zap.String("source", source.Name),
		zap.String("target", merged.Name))
	return &merged, nil
}

func (s *ArtifactService) Delete(ctx context.Context, id string) error {
	dir, rev, err := s.artifacts.Load(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range dir.Items {
		if dir.Items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("artifact %s: %w", id, ErrNotFound)
	}
	deleted := dir.Items[idx]
	dir.Items = append(dir.Items[:idx], dir.Items[idx+1:]...)
	if _, err := s.artifacts.Save(ctx, dir, rev); err != nil {
		return err
	}

	rows, rowsRev, err := s.assessments.Load(ctx)
	if err != nil {
		return err
	}
	if s.links.StripArtifact(rows, &deleted) {
		if _, err := s.assessments.Save(ctx, rows, rowsRev); err != nil {
			return err
		}
	}
	return nil
}

// reconcileRows pushes an artifact's link changes into the row set and
// persists the rows when anything moved.
func (s *ArtifactService) reconcileRows(ctx context.Context, art *domain.Artifact, oldIDs []string) error {
	rows, rev, err := s.assessments.Load(ctx)
	if err != nil {
		return err
	}
	if s.links.ApplyArtifactEdit(rows, art, oldIDs) {
		if _, err := s.assessments.Save(ctx, rows, rev); err != nil {
			return err
		}
	}
	return nil
}
