package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"csf-data/internal/domain"
	"csf-data/internal/repository"
)

func TestApplyArtifactEdit(t *testing.T) {
	links := NewLinkService(zap.NewNop())
	rows := []domain.AssessmentRow{
		{ID: "r1", SubcategoryID: "GV.OC-01"},
		{ID: "r2", SubcategoryID: "GV.OC-02", LinkedArtifactNames: []string{"Ticket-1"}},
	}
	art := &domain.Artifact{Name: "Ticket-1", LinkedSubcategoryIDs: []string{"r1"}}

	// r2 was linked before the edit, r1 after: r1 gains, r2 loses.
	changed := links.ApplyArtifactEdit(rows, art, []string{"r2"})
	require.True(t, changed)
	require.Equal(t, []string{"Ticket-1"}, rows[0].LinkedArtifactNames)
	require.Empty(t, rows[1].LinkedArtifactNames)

	// Re-applying the same state is a no-op.
	require.False(t, links.ApplyArtifactEdit(rows, art, []string{"r1"}))
}

func TestApplyArtifactEditSubcategoryFallback(t *testing.T) {
	links := NewLinkService(zap.NewNop())
	rows := []domain.AssessmentRow{{ID: "GV.OC-01 Ex1", SubcategoryID: "GV.OC-01"}}
	art := &domain.Artifact{Name: "Ticket-1", LinkedSubcategoryIDs: []string{"GV.OC-01"}}

	require.True(t, links.ApplyArtifactEdit(rows, art, nil))
	require.Equal(t, []string{"Ticket-1"}, rows[0].LinkedArtifactNames)
}

func TestApplyArtifactEditUnknownRow(t *testing.T) {
	links := NewLinkService(zap.NewNop())
	rows := []domain.AssessmentRow{{ID: "r1"}}
	art := &domain.Artifact{Name: "Ticket-1", LinkedSubcategoryIDs: []string{"missing"}}

	require.False(t, links.ApplyArtifactEdit(rows, art, nil))
	require.Empty(t, rows[0].LinkedArtifactNames)
}

func TestSyncRowArtifacts(t *testing.T) {
	links := NewLinkService(zap.NewNop())
	dir := repository.ArtifactDirectory{
		NextSeq: 3,
		Items: []domain.Artifact{
			{Name: "Ticket-1", LinkedSubcategoryIDs: []string{"r1"}},
			{Name: "Ticket-2"},
		},
	}
	row := domain.AssessmentRow{ID: "r1", LinkedArtifactNames: []string{"Ticket-2"}}

	// The row dropped Ticket-1 and picked up Ticket-2.
	require.True(t, links.SyncRowArtifacts(&dir, &row))
	require.Empty(t, dir.Items[0].LinkedSubcategoryIDs)
	require.Equal(t, []string{"r1"}, dir.Items[1].LinkedSubcategoryIDs)

	require.False(t, links.SyncRowArtifacts(&dir, &row))
}

func TestStripArtifact(t *testing.T) {
	links := NewLinkService(zap.NewNop())
	rows := []domain.AssessmentRow{
		{ID: "r1", LinkedArtifactNames: []string{"Ticket-1", "Ticket-2"}},
		{ID: "r2", LinkedArtifactNames: []string{"Ticket-1"}},
		{ID: "r3"},
	}
	art := &domain.Artifact{Name: "Ticket-1", LinkedSubcategoryIDs: []string{"r1", "r2"}}

	require.True(t, links.StripArtifact(rows, art))
	require.Equal(t, []string{"Ticket-2"}, rows[0].LinkedArtifactNames)
	require.Empty(t, rows[1].LinkedArtifactNames)
}

func TestCascadePersonDelete(t *testing.T) {
	links := NewLinkService(zap.NewNop())
	rows := []domain.AssessmentRow{
		{ID: "r1", OwnerID: "p1", AuditorID: "p2", StakeholderIDs: []string{"p1", "p3"}},
		{ID: "r2", OwnerID: "p2"},
	}

	require.True(t, links.CascadePersonDelete(rows, "p1"))
	require.Empty(t, rows[0].OwnerID)
	require.Equal(t, "p2", rows[0].AuditorID)
	require.Equal(t, []string{"p3"}, rows[0].StakeholderIDs)
	require.Equal(t, "p2", rows[1].OwnerID)

	require.False(t, links.CascadePersonDelete(rows, "p1"))
}

func TestCascadePersonMerge(t *testing.T) {
	links := NewLinkService(zap.NewNop())
	rows := []domain.AssessmentRow{
		{ID: "r1", OwnerID: "p1", StakeholderIDs: []string{"p1", "p2"}},
		{ID: "r2", AuditorID: "p1", StakeholderIDs: []string{"p1"}},
		{ID: "r3", OwnerID: "p3"},
	}

	require.True(t, links.CascadePersonMerge(rows, "p1", "p2"))
	require.Equal(t, "p2", rows[0].OwnerID)
	// p2 was already a stakeholder on r1, so no duplicate appears.
	require.Equal(t, []string{"p2"}, rows[0].StakeholderIDs)
	require.Equal(t, "p2", rows[1].AuditorID)
	require.Equal(t, []string{"p2"}, rows[1].StakeholderIDs)
	require.Equal(t, "p3", rows[2].OwnerID)

	require.False(t, links.CascadePersonMerge(rows, "p1", "p2"))
}

func TestMergeArtifactRefs(t *testing.T) {
	links := NewLinkService(zap.NewNop())
	rows := []domain.AssessmentRow{
		{ID: "r1", LinkedArtifactNames: []string{"Ticket-1", "Ticket-2"}},
		{ID: "r2", LinkedArtifactNames: []string{"Ticket-2"}},
		{ID: "r3"},
	}

	require.True(t, links.MergeArtifactRefs(rows, "Ticket-1", "Ticket-2"))
	// r1 referenced both: the surviving name is kept once.
	require.Equal(t, []string{"Ticket-2"}, rows[0].LinkedArtifactNames)
	require.Equal(t, []string{"Ticket-2"}, rows[1].LinkedArtifactNames)
	require.Empty(t, rows[2].LinkedArtifactNames)

	require.False(t, links.MergeArtifactRefs(rows, "Ticket-1", "Ticket-2"))
}
