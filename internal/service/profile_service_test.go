package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"csf-data/internal/domain"
	"csf-data/internal/ingest"
	"csf-data/internal/repository"
	"csf-data/internal/store"
)

type testEnv struct {
	kv        store.KV
	profile   *ProfileService
	people    *PeopleService
	artifacts *ArtifactService

	assessmentsRepo *repository.AssessmentsRepo
	peopleRepo      *repository.PeopleRepo
	artifactsRepo   *repository.ArtifactsRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	kv := store.NewMemoryKV()
	log := zap.NewNop()

	assessmentsRepo := repository.NewAssessmentsRepo(kv)
	peopleRepo := repository.NewPeopleRepo(kv)
	artifactsRepo := repository.NewArtifactsRepo(kv)
	bootstrapRepo := repository.NewBootstrapRepo(kv)
	links := NewLinkService(log)

	return &testEnv{
		kv: kv,
		profile: NewProfileService(
			assessmentsRepo, peopleRepo, artifactsRepo, bootstrapRepo,
			links, ingest.NewReferenceClient(log), Sources{}, log,
		),
		people:          NewPeopleService(peopleRepo, assessmentsRepo, links, log),
		artifacts:       NewArtifactService(artifactsRepo, assessmentsRepo, links, log),
		assessmentsRepo: assessmentsRepo,
		peopleRepo:      peopleRepo,
		artifactsRepo:   artifactsRepo,
	}
}

func TestBootstrapFallsBackToSample(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// No seed source configured: the built-in sample is loaded.
	require.NoError(t, env.profile.Bootstrap(ctx))

	rows, _, err := env.assessmentsRepo.Load(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	people, _, _, err := env.peopleRepo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, people, 3)

	dir, _, err := env.artifactsRepo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, dir.Items, 2)

	// Second bootstrap is a no-op: the sample is not re-seeded over
	// whatever the user has since changed.
	_, err = env.assessmentsRepo.Save(ctx, nil, store.RevAny)
	require.NoError(t, err)
	require.NoError(t, env.profile.Bootstrap(ctx))
	rows, _, err = env.assessmentsRepo.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestBootstrapFromSeedFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seed.csv")
	require.NoError(t, os.WriteFile(path, []byte(importCSV), 0o600))

	kv := store.NewMemoryKV()
	log := zap.NewNop()
	assessmentsRepo := repository.NewAssessmentsRepo(kv)
	profile := NewProfileService(
		assessmentsRepo, repository.NewPeopleRepo(kv),
		repository.NewArtifactsRepo(kv), repository.NewBootstrapRepo(kv),
		NewLinkService(log), ingest.NewReferenceClient(log),
		Sources{SeedPath: path}, log,
	)

	require.NoError(t, profile.Bootstrap(ctx))
	rows, _, err := assessmentsRepo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "GV.OC-01 Ex1", rows[0].ID)
}

const importCSV ="ID,Function,Category,Subcategory ID,In Scope? ,Owner,Artifact Name,Actual Score,Minimum Target,Desired Target,Testing Status\n" +
	"GV.OC-01 Ex1,GOVERN,Organizational Context (GV.OC),GV.OC-01,Yes,Jane Doe <jane@example.com>,\"Ticket-1, Ticket-2\",4,6,8,Completed\n" +
	"GV.OC-02 Ex1,GOVERN,Organizational Context (GV.OC),GV.OC-02,No,Jane Doe,Ticket-1,2,6,8,\n"

func TestImportCSV(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	summary, err := env.profile.Import(ctx, []byte(importCSV), "csv")
	require.NoError(t, err)
	require.Equal(t, 2, summary.Rows)
	require.Equal(t, 1, summary.PeopleCreated)
	require.Equal(t, 2, summary.ArtifactsCreated)

	rows, _, err := env.assessmentsRepo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "GV.OC", rows[0].CategoryID)
	require.Equal(t, domain.StatusComplete, rows[0].TestingStatus)
	require.Equal(t, 2, rows[0].GapToMinimumTarget)
	require.Equal(t, rows[0].OwnerID, rows[1].OwnerID)

	dir, _, err := env.artifactsRepo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, dir.Items, 2)
	require.Equal(t, "A1", dir.Items[0].ArtifactID)
	require.ElementsMatch(t, []string{"GV.OC-01 Ex1", "GV.OC-02 Ex1"}, dir.Items[0].LinkedSubcategoryIDs)
}

func TestImportBadFileLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.profile.Import(ctx, nil, "csv")
	require.Error(t, err)

	rows, _, err := env.assessmentsRepo.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestReimportKeepsDirectoryIdentity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.profile.Import(ctx, []byte(importCSV), "csv")
	require.NoError(t, err)
	peopleBefore, _, _, err := env.peopleRepo.Load(ctx)
	require.NoError(t, err)

	summary, err := env.profile.Import(ctx, []byte(importCSV), "csv")
	require.NoError(t, err)
	require.Zero(t, summary.PeopleCreated)
	require.Zero(t, summary.ArtifactsCreated)

	peopleAfter, _, _, err := env.peopleRepo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, peopleBefore, peopleAfter)
}

func TestExportCSVRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.profile.Import(ctx, []byte(importCSV), "csv")
	require.NoError(t, err)

	data, filename, err := env.profile.ExportCSV(ctx)
	require.NoError(t, err)
	require.Contains(t, filename, "_CSF_Profile.csv")

	summary, err := env.profile.Import(ctx, data, "csv")
	require.NoError(t, err)
	require.Equal(t, 2, summary.Rows)
	require.Zero(t, summary.PeopleCreated)
	require.Zero(t, summary.ArtifactsCreated)
}

func TestListRowsFilters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, err := env.profile.Import(ctx, []byte(importCSV), "csv")
	require.NoError(t, err)

	page, err := env.profile.ListRows(ctx, RowFilter{InScope: "Yes"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, "GV.OC-01 Ex1", page.Rows[0].ID)

	page, err = env.profile.ListRows(ctx, RowFilter{Search: "gv.oc-02"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	page, err = env.profile.ListRows(ctx, RowFilter{Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Len(t, page.Rows, 1)
	require.Equal(t, "GV.OC-02 Ex1", page.Rows[0].ID)
}

func TestUpdateRowSyncsArtifacts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, err := env.profile.Import(ctx, []byte(importCSV), "csv")
	require.NoError(t, err)

	names := []string{"Ticket-2"}
	score := 6
	row, err := env.profile.UpdateRow(ctx, "GV.OC-01 Ex1", RowPatch{
		CurrentStateScore:   &score,
		LinkedArtifactNames: &names,
	})
	require.NoError(t, err)
	require.Equal(t, 0, row.GapToMinimumTarget)
	require.Equal(t, []string{"Ticket-2"}, row.LinkedArtifactNames)

	// Ticket-1 lost the back-reference, Ticket-2 kept it.
	dir, _, err := env.artifactsRepo.Load(ctx)
	require.NoError(t, err)
	t1 := dir.FindByName("Ticket-1")
	require.NotNil(t, t1)
	require.NotContains(t, t1.LinkedSubcategoryIDs, "GV.OC-01 Ex1")
	t2 := dir.FindByName("Ticket-2")
	require.NotNil(t, t2)
	require.Contains(t, t2.LinkedSubcategoryIDs, "GV.OC-01 Ex1")
}

func TestUpdateRowNotFound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, err := env.profile.UpdateRow(ctx, "nope", RowPatch{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestToggleAndClearScope(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, err := env.profile.Import(ctx, []byte(importCSV), "csv")
	require.NoError(t, err)

	row, err := env.profile.ToggleScope(ctx, "GV.OC-01 Ex1")
	require.NoError(t, err)
	require.Equal(t, domain.ScopeNo, row.InScope)

	row, err = env.profile.ToggleScope(ctx, "GV.OC-01 Ex1")
	require.NoError(t, err)
	require.Equal(t, domain.ScopeYes, row.InScope)

	changed, err := env.profile.ClearScope(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, changed)

	page, err := env.profile.ListRows(ctx, RowFilter{InScope: "Yes"})
	require.NoError(t, err)
	require.Zero(t, page.Total)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, err := env.profile.Import(ctx, []byte(importCSV), "csv")
	require.NoError(t, err)

	stats, err := env.profile.Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalRows)
	require.Equal(t, 1, stats.InScope)
	require.Equal(t, 1, stats.OutOfScope)
	require.Equal(t, 2, stats.ByFunction["GOVERN"])
	require.Equal(t, 1, stats.ByStatus[domain.StatusComplete])
	require.InDelta(t, 4.0, stats.AvgCurrent, 0.001)
	require.Equal(t, 1, stats.PeopleCount)
	require.Equal(t, 2, stats.ArtifactsNum)
}

func TestImportEnrichesCreatedArtifacts(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Artifact Name,Artifact ID,Artifact Link\n" +
			"Ticket-1,EXT-77,https://example.com/t1\n"))
	}))
	defer srv.Close()

	kv := store.NewMemoryKV()
	log := zap.NewNop()
	assessmentsRepo := repository.NewAssessmentsRepo(kv)
	peopleRepo := repository.NewPeopleRepo(kv)
	artifactsRepo := repository.NewArtifactsRepo(kv)
	profile := NewProfileService(
		assessmentsRepo, peopleRepo, artifactsRepo, repository.NewBootstrapRepo(kv),
		NewLinkService(log), ingest.NewReferenceClient(log),
		Sources{ArtifactRefsURL: srv.URL}, log,
	)

	summary, err := profile.Import(ctx, []byte(importCSV), "csv")
	require.NoError(t, err)
	require.Equal(t, 1, summary.Enriched)

	dir, _, err := artifactsRepo.Load(ctx)
	require.NoError(t, err)
	t1 := dir.FindByName("Ticket-1")
	require.NotNil(t, t1)
	require.Equal(t, "EXT-77", t1.ArtifactID)
	require.Equal(t, "https://example.com/t1", t1.Link)
	// Ticket-2 had no reference entry and keeps its generated code.
	require.Equal(t, "A2", dir.FindByName("Ticket-2").ArtifactID)
}

func TestLegendLoadsFromFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legend.csv")
	legendCSV := "Score,Description,Evaluation Criteria,How Secure (Resilient)?\n" +
		"0,Not Performed,No evidence.,Not Secure\n" +
		"10,Optimized,Continuously improving.,Highly Secure\n"
	require.NoError(t, os.WriteFile(path, []byte(legendCSV), 0o600))

	kv := store.NewMemoryKV()
	log := zap.NewNop()
	profile := NewProfileService(
		repository.NewAssessmentsRepo(kv), repository.NewPeopleRepo(kv),
		repository.NewArtifactsRepo(kv), repository.NewBootstrapRepo(kv),
		NewLinkService(log), ingest.NewReferenceClient(log),
		Sources{LegendPath: path}, log,
	)

	legend, err := profile.Legend(ctx)
	require.NoError(t, err)
	require.Len(t, legend, 2)
	require.Equal(t, "Optimized", legend[1].Description)
	require.Equal(t, "Highly Secure", legend[1].HowSecure)
}

func TestLegendFallsBackToBuiltin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	legend, err := env.profile.Legend(ctx)
	require.NoError(t, err)
	require.Len(t, legend, 6)
	require.Equal(t, "0", legend[0].Score)
	require.Equal(t, "10", legend[5].Score)
}
