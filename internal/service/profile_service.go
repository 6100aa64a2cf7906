package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"csf-data/internal/domain"
	"csf-data/internal/export"
	"csf-data/internal/ingest"
	"csf-data/internal/repository"
	"csf-data/internal/sample"
	"csf-data/internal/store"
)

// Sources 参考文件地址配置
// Where the seed profile, artifacts reference, and scoring legend come
// from. URL takes precedence over Path; when both are empty the built-in
// sample data is used.
type Sources struct {
	SeedURL  string
	SeedPath string

	ArtifactRefsURL string

	LegendURL  string
	LegendPath string
}

// ProfileService 评估档案主服务
// Owns the assessment row set: bootstrap, import, export, row edits,
// scope toggles, dashboard aggregation, and the scoring legend.
type ProfileService struct {
	assessments *repository.AssessmentsRepo
	people      *repository.PeopleRepo
	artifacts   *repository.ArtifactsRepo
	bootstrap   *repository.BootstrapRepo
	links       *LinkService
	refs        *ingest.ReferenceClient
	sources     Sources
	logger      *zap.Logger
}

func NewProfileService(
	assessments *repository.AssessmentsRepo,
	people *repository.PeopleRepo,
	artifacts *repository.ArtifactsRepo,
	bootstrap *repository.BootstrapRepo,
	links *LinkService,
	refs *ingest.ReferenceClient,
	sources Sources,
	logger *zap.Logger,
) *ProfileService {
	return &ProfileService{
		assessments: assessments,
		people:      people,
		artifacts:   artifacts,
		bootstrap:   bootstrap,
		links:       links,
		refs:        refs,
		sources:     sources,
		logger:      logger,
	}
}

// ImportSummary reports what one import run did.
type ImportSummary struct {
	Rows             int            `json:"rows"`
	PeopleCreated    int            `json:"people_created"`
	ArtifactsCreated int            `json:"artifacts_created"`
	Enriched         int            `json:"enriched"`
	Warnings         []string       `json:"warnings,omitempty"`
	People           []domain.Person `json:"new_people,omitempty"`
}

// Bootstrap seeds the store on first run. If the bootstrap marker is
// already set this is a no-op. The seed profile is fetched from the
// configured URL or path; on any failure the built-in sample data is
// loaded instead so the service always starts with a working profile.
func (s *ProfileService) Bootstrap(ctx context.Context) error {
	done, err := s.bootstrap.Done(ctx)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	data, err := s.readSeed(ctx)
	if err == nil {
		if _, importErr := s.Import(ctx, data, "csv"); importErr == nil {
			s.logger.Info("bootstrap: seed profile imported")
			return nil
		} else {
			err = importErr
		}
	}
	s.logger.Warn("bootstrap: seed unavailable, loading sample data", zap.Error(err))

	if _, err := s.people.Save(ctx, sample.People(), store.RevAny); err != nil {
		return err
	}
	if _, err := s.artifacts.Save(ctx, sample.Artifacts(), store.RevAny); err != nil {
		return err
	}
	if _, err := s.assessments.Save(ctx, sample.Rows(), store.RevAny); err != nil {
		return err
	}
	return s.bootstrap.MarkDone(ctx)
}

func (s *ProfileService) readSeed(ctx context.Context) ([]byte, error) {
	if s.sources.SeedURL != "" {
		return s.refs.FetchCSV(ctx, s.sources.SeedURL)
	}
	if s.sources.SeedPath != "" {
		return os.ReadFile(s.sources.SeedPath)
	}
	return nil, fmt.Errorf("no seed profile source configured")
}

// Import replaces the row set from an uploaded file. The parse phase
// runs first and aborts the whole import on failure, leaving the store
// untouched. Normalization then runs against a working copy of both
// directories, and the three blobs are persisted together. Finally the
// enrichment phase patches artifacts created by this batch with their
// published display code and link from the artifacts reference file;
// enrichment failures are logged, not fatal.
func (s *ProfileService) Import(ctx context.Context, data []byte, format string) (*ImportSummary, error) {
	var parsed *ingest.ParseResult
	var err error
	switch format {
	case "xlsx":
		parsed, err = ingest.ParseXLSX(data)
	default:
		parsed, err = ingest.Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}

	people, peopleRev, _, err := s.people.Load(ctx)
	if err != nil {
		return nil, err
	}
	artifacts, artifactsRev, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, err
	}
	_, rowsRev, err := s.assessments.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	dirs := &ingest.Directories{People: people, Artifacts: artifacts}
	batch := ingest.NormalizeBatch(parsed.Records, dirs, now)

	enriched := s.enrichArtifacts(ctx, batch.Dirs)

	if _, err := s.people.Save(ctx, batch.Dirs.People, peopleRev); err != nil {
		return nil, err
	}
	if _, err := s.artifacts.Save(ctx, batch.Dirs.Artifacts, artifactsRev); err != nil {
		return nil, err
	}
	if _, err := s.assessments.Save(ctx, batch.Rows, rowsRev); err != nil {
		return nil, err
	}
	if err := s.bootstrap.MarkDone(ctx); err != nil {
		return nil, err
	}

	summary := &ImportSummary{
		Rows:             len(batch.Rows),
		PeopleCreated:    len(batch.Dirs.PeopleCreated),
		ArtifactsCreated: len(batch.Dirs.ArtifactsCreated),
		Enriched:         enriched,
		People:           batch.Dirs.PeopleCreated,
	}
	for _, w := range parsed.Warnings {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("row %d: %s", w.Row, w.Message))
	}
	for _, w := range batch.Warnings {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("row %d: %s", w.Row, w.Message))
	}
	s.logger.Info("profile imported",
		zap.Int("rows", summary.Rows),
		zap.Int("people_created", summary.PeopleCreated),
		zap.Int("artifacts_created", summary.ArtifactsCreated),
		zap.Int("enriched", enriched))
	return summary, nil
}

// enrichArtifacts patches artifacts this batch created with their
// display code and link from the artifacts reference file. Runs before
// the batch is persisted so the enriched values land in the same write.
func (s *ProfileService) enrichArtifacts(ctx context.Context, dirs *ingest.Directories) int {
	if len(dirs.ArtifactsCreated) == 0 || s.sources.ArtifactRefsURL == "" {
		return 0
	}
	refs, err := s.refs.FetchArtifactRefs(ctx, s.sources.ArtifactRefsURL)
	if err != nil {
		s.logger.Warn("artifact enrichment skipped", zap.Error(err))
		return 0
	}

	created := make(map[string]bool, len(dirs.ArtifactsCreated))
	for _, name := range dirs.ArtifactsCreated {
		created[name] = true
	}
	enriched := 0
	for i := range dirs.Artifacts.Items {
		a := &dirs.Artifacts.Items[i]
		if !created[a.Name] {
			continue
		}
		ref, ok := refs[a.Name]
		if !ok {
			continue
		}
		if ref.ArtifactID != "" {
			a.ArtifactID = ref.ArtifactID
		}
		if ref.Link != "" {
			a.Link = ref.Link
		}
		enriched++
	}
	return enriched
}

// ExportCSV renders the current profile as CSV, returning the bytes and
// the dated download filename.
func (s *ProfileService) ExportCSV(ctx context.Context) ([]byte, string, error) {
	rows, people, err := s.loadForExport(ctx)
	if err != nil {
		return nil, "", err
	}
	data, err := export.ProfileCSV(rows, people)
	if err != nil {
		return nil, "", err
	}
	return data, export.Filename(time.Now(), "csv"), nil
}

// ExportXLSX renders the current profile as a styled Excel workbook.
func (s *ProfileService) ExportXLSX(ctx context.Context) ([]byte, string, error) {
	rows, people, err := s.loadForExport(ctx)
	if err != nil {
		return nil, "", err
	}
	data, err := export.ProfileXLSX(rows, people)
	if err != nil {
		return nil, "", err
	}
	return data, export.Filename(time.Now(), "xlsx"), nil
}

func (s *ProfileService) loadForExport(ctx context.Context) ([]domain.AssessmentRow, []domain.Person, error) {
	rows, _, err := s.assessments.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	people, _, _, err := s.people.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return rows, people, nil
}

// RowFilter narrows a row listing.
type RowFilter struct {
	Search     string
	Function   string
	CategoryID string
	InScope    string
	Page       int
	PageSize   int
}

// RowPage is one page of filtered rows.
type RowPage struct {
	Rows     []domain.AssessmentRow `json:"rows"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

func (s *ProfileService) ListRows(ctx context.Context, filter RowFilter) (*RowPage, error) {
	rows, _, err := s.assessments.Load(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.AssessmentRow, 0, len(rows))
	q := strings.ToLower(filter.Search)
	for _, r := range rows {
		if filter.Function != "" && !strings.EqualFold(r.Function, filter.Function) {
			continue
		}
		if filter.CategoryID != "" && !strings.EqualFold(r.CategoryID, filter.CategoryID) {
			continue
		}
		if filter.InScope != "" && !strings.EqualFold(r.InScope, filter.InScope) {
			continue
		}
		if q != "" && !rowMatches(&r, q) {
			continue
		}
		filtered = append(filtered, r)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 {
		size = 50
	}
	if size > 500 {
		size = 500
	}
	start := (page - 1) * size
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + size
	if end > len(filtered) {
		end = len(filtered)
	}
	return &RowPage{
		Rows:     filtered[start:end],
		Total:    len(filtered),
		Page:     page,
		PageSize: size,
	}, nil
}

func rowMatches(r *domain.AssessmentRow, q string) bool {
	for _, field := range []string{
		r.ID, r.SubcategoryID, r.SubcategoryDescription,
		r.Category, r.CategoryID, r.Observations, r.ControlRef,
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func (s *ProfileService) GetRow(ctx context.Context, id string) (*domain.AssessmentRow, error) {
	rows, _, err := s.assessments.Load(ctx)
	if err != nil {
		return nil, err
	}
	row := findRow(rows, id)
	if row == nil {
		return nil, fmt.Errorf("row %s: %w", id, ErrNotFound)
	}
	r := *row
	return &r, nil
}

// RowPatch is a partial row edit: nil fields are left untouched.
type RowPatch struct {
	TestingStatus       *string   `json:"testing_status"`
	Observations        *string   `json:"observations"`
	ObservationDate     *string   `json:"observation_date"`
	TestProcedures      *string   `json:"test_procedures"`
	ActionPlan          *string   `json:"action_plan"`
	ControlRef          *string   `json:"control_ref"`
	CurrentStateScore   *int      `json:"current_state_score"`
	DesiredStateScore   *int      `json:"desired_state_score"`
	MinimumTarget       *int      `json:"minimum_target"`
	InScope             *string   `json:"in_scope"`
	OwnerID             *string   `json:"owner_id"`
	AuditorID           *string   `json:"auditor_id"`
	StakeholderIDs      *[]string `json:"stakeholder_ids"`
	LinkedArtifactNames *[]string `json:"linked_artifact_names"`
	LinkedArtifactURL   *string   `json:"linked_artifact_url"`
}

// UpdateRow applies a partial edit. The score gap is recomputed, the
// testing status is normalized, and a linked-artifact change is synced
// back into the artifact directory so both sides stay consistent.
func (s *ProfileService) UpdateRow(ctx context.Context, id string, patch RowPatch) (*domain.AssessmentRow, error) {
	rows, rev, err := s.assessments.Load(ctx)
	if err != nil {
		return nil, err
	}
	row := findRow(rows, id)
	if row == nil {
		return nil, fmt.Errorf("row %s: %w", id, ErrNotFound)
	}

	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setStr(&row.Observations, patch.Observations)
	setStr(&row.ObservationDate, patch.ObservationDate)
	setStr(&row.TestProcedures, patch.TestProcedures)
	setStr(&row.ActionPlan, patch.ActionPlan)
	setStr(&row.ControlRef, patch.ControlRef)
	setStr(&row.OwnerID, patch.OwnerID)
	setStr(&row.AuditorID, patch.AuditorID)
	setStr(&row.LinkedArtifactURL, patch.LinkedArtifactURL)
	if patch.TestingStatus != nil {
		row.TestingStatus = domain.NormalizeTestingStatus(*patch.TestingStatus)
	}
	if patch.InScope != nil {
		if strings.EqualFold(*patch.InScope, domain.ScopeYes) {
			row.InScope = domain.ScopeYes
		} else {
			row.InScope = domain.ScopeNo
		}
	}
	if patch.CurrentStateScore != nil {
		row.CurrentStateScore = *patch.CurrentStateScore
	}
	if patch.DesiredStateScore != nil {
		row.DesiredStateScore = *patch.DesiredStateScore
	}
	if patch.MinimumTarget != nil {
		row.MinimumTarget = *patch.MinimumTarget
	}
	if patch.StakeholderIDs != nil {
		row.StakeholderIDs = *patch.StakeholderIDs
	}
	row.RecomputeGap()

	linksChanged := false
	if patch.LinkedArtifactNames != nil {
		row.LinkedArtifactNames = *patch.LinkedArtifactNames
		linksChanged = true
	}

	if _, err := s.assessments.Save(ctx, rows, rev); err != nil {
		return nil, err
	}

	if linksChanged {
		dir, dirRev, err := s.artifacts.Load(ctx)
		if err != nil {
			return nil, err
		}
		if s.links.SyncRowArtifacts(&dir, row) {
			if _, err := s.artifacts.Save(ctx, dir, dirRev); err != nil {
				return nil, err
			}
		}
	}
	r := *row
	return &r, nil
}

// ToggleScope flips one row between in scope and out of scope.
func (s *ProfileService) ToggleScope(ctx context.Context, id string) (*domain.AssessmentRow, error) {
	rows, rev, err := s.assessments.Load(ctx)
	if err != nil {
		return nil, err
	}
	row := findRow(rows, id)
	if row == nil {
		return nil, fmt.Errorf("row %s: %w", id, ErrNotFound)
	}
	if row.InScope == domain.ScopeYes {
		row.InScope = domain.ScopeNo
	} else {
		row.InScope = domain.ScopeYes
	}
	if _, err := s.assessments.Save(ctx, rows, rev); err != nil {
		return nil, err
	}
	r := *row
	return &r, nil
}

// ClearScope marks every row out of scope in one write.
func (s *ProfileService) ClearScope(ctx context.Context) (int, error) {
	rows, rev, err := s.assessments.Load(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for i := range rows {
		if rows[i].InScope != domain.ScopeNo {
			rows[i].InScope = domain.ScopeNo
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if _, err := s.assessments.Save(ctx, rows, rev); err != nil {
		return 0, err
	}
	return changed, nil
}

// DashboardStats is the aggregate view of the profile.
type DashboardStats struct {
	TotalRows    int            `json:"total_rows"`
	InScope      int            `json:"in_scope"`
	OutOfScope   int            `json:"out_of_scope"`
	ByStatus     map[string]int `json:"by_status"`
	ByFunction   map[string]int `json:"by_function"`
	AvgCurrent   float64        `json:"avg_current_score"`
	AvgDesired   float64        `json:"avg_desired_score"`
	AvgGap       float64        `json:"avg_gap"`
	PeopleCount  int            `json:"people_count"`
	ArtifactsNum int            `json:"artifacts_count"`
}

// Dashboard computes status and scope distributions plus average scores
// over the in-scope rows.
func (s *ProfileService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	rows, _, err := s.assessments.Load(ctx)
	if err != nil {
		return nil, err
	}
	people, _, _, err := s.people.Load(ctx)
	if err != nil {
		return nil, err
	}
	artifacts, _, err := s.artifacts.Load(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalRows:    len(rows),
		ByStatus:     map[string]int{},
		ByFunction:   map[string]int{},
		PeopleCount:  len(people),
		ArtifactsNum: len(artifacts.Items),
	}
	var sumCurrent, sumDesired, sumGap int
	for i := range rows {
		r := &rows[i]
		stats.ByFunction[r.Function]++
		if r.InScope != domain.ScopeYes {
			stats.OutOfScope++
			continue
		}
		stats.InScope++
		stats.ByStatus[r.TestingStatus]++
		sumCurrent += r.CurrentStateScore
		sumDesired += r.DesiredStateScore
		sumGap += r.GapToMinimumTarget
	}
	if stats.InScope > 0 {
		n := float64(stats.InScope)
		stats.AvgCurrent = float64(sumCurrent) / n
		stats.AvgDesired = float64(sumDesired) / n
		stats.AvgGap = float64(sumGap) / n
	}
	return stats, nil
}

// Legend column headers in the reference file.
const (
	colLegendScore       = "Score"
	colLegendDescription = "Description"
	colLegendCriteria    = "Evaluation Criteria"
	colLegendHowSecure   = "How Secure (Resilient)?"
)

// Legend returns the read-only scoring legend, fetched from the
// configured source with the built-in entries as fallback.
func (s *ProfileService) Legend(ctx context.Context) ([]sample.LegendEntry, error) {
	data, err := s.readLegend(ctx)
	if err != nil {
		s.logger.Debug("legend source unavailable, using built-in", zap.Error(err))
		return sample.Legend(), nil
	}
	parsed, err := ingest.Parse(data)
	if err != nil {
		s.logger.Warn("legend file unreadable, using built-in", zap.Error(err))
		return sample.Legend(), nil
	}
	entries := make([]sample.LegendEntry, 0, len(parsed.Records))
	for _, rec := range parsed.Records {
		if rec.Str(colLegendScore) == "" {
			continue
		}
		entries = append(entries, sample.LegendEntry{
			Score:              rec.Str(colLegendScore),
			Description:        rec.Str(colLegendDescription),
			EvaluationCriteria: rec.Str(colLegendCriteria),
			HowSecure:          rec.Str(colLegendHowSecure),
		})
	}
	if len(entries) == 0 {
		return sample.Legend(), nil
	}
	return entries, nil
}

func (s *ProfileService) readLegend(ctx context.Context) ([]byte, error) {
	if s.sources.LegendURL != "" {
		return s.refs.FetchCSV(ctx, s.sources.LegendURL)
	}
	if s.sources.LegendPath != "" {
		return os.ReadFile(s.sources.LegendPath)
	}
	return nil, fmt.Errorf("no legend source configured")
}
