package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"csf-data/internal/domain"
	"csf-data/internal/repository"
)

func testNow() time.Time {
	return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
}

func TestNormalizeRowFull(t *testing.T) {
	rec := Record{
		ColID:              "GV.OC-01 Ex1",
		ColFunction:        "GOVERN",
		ColCategory:        "Organizational Context (GV.OC)",
		ColSubcategoryID:   "GV.OC-01",
		ColInScope:         "Yes",
		ColOwner:           "Jane Doe <jane@example.com>",
		ColAuditor:         "Steve",
		ColStakeholders:    "Jane Doe <jane@example.com>; Bob Smith",
		ColActualScore:     "4",
		ColMinimumTarget:   "6",
		ColDesiredTarget:   "8",
		ColTestingStatus:   "Completed",
		ColArtifactName:    "Ticket-1, Ticket-2",
		ColArtifactURL:     "https://example.com/evidence",
	}
	dirs := &Directories{Artifacts: repository.ArtifactDirectory{NextSeq: 1}}
	row := NormalizeRow(rec, dirs, testNow())

	require.Equal(t, "GV.OC", row.CategoryID)
	require.Equal(t, domain.StatusComplete, row.TestingStatus)
	require.Equal(t, 2, row.GapToMinimumTarget)
	require.Equal(t, 8, row.DesiredStateScore)

	// Owner, auditor and two stakeholders; Jane appears once in the
	// directory even though she is owner and stakeholder.
	require.Len(t, dirs.People, 3)
	require.Len(t, dirs.PeopleCreated, 3)
	require.NotEmpty(t, row.OwnerID)
	require.Equal(t, row.OwnerID, row.StakeholderIDs[0])

	jane := dirs.People[0]
	require.Equal(t, "Jane Doe", jane.Name)
	require.Equal(t, "jane@example.com", jane.Email)
	require.Equal(t, domain.DefaultImportedTitle, jane.Title)

	steve := dirs.People[1]
	require.Equal(t, "steve@almasecurity.com", steve.Email)

	// Both artifacts created with sequential display codes and the row
	// id seeded as a back-reference.
	require.Equal(t, []string{"Ticket-1", "Ticket-2"}, row.LinkedArtifactNames)
	require.Equal(t, []string{"Ticket-1", "Ticket-2"}, dirs.ArtifactsCreated)
	require.Equal(t, 3, dirs.Artifacts.NextSeq)
	require.Equal(t, "A1", dirs.Artifacts.Items[0].ArtifactID)
	require.Equal(t, "A2", dirs.Artifacts.Items[1].ArtifactID)
	require.Equal(t, []string{"GV.OC-01 Ex1"}, dirs.Artifacts.Items[0].LinkedSubcategoryIDs)
	require.Equal(t, "Imported from CSV on 2026-03-15", dirs.Artifacts.Items[0].Description)
}

func TestNormalizeRowDefaults(t *testing.T) {
	rec := Record{ColID: "r1"}
	dirs := &Directories{Artifacts: repository.ArtifactDirectory{NextSeq: 1}}
	row := NormalizeRow(rec, dirs, testNow())

	require.Equal(t, domain.ScopeNo, row.InScope)
	require.Equal(t, domain.StatusNotStarted, row.TestingStatus)
	require.Empty(t, row.OwnerID)
	require.Empty(t, dirs.PeopleCreated)
}

func TestNormalizeRowLegacyAliases(t *testing.T) {
	rec := Record{
		ColID:                    "r1",
		ColCurrentScoreAlias:     "3",
		ColDesiredScoreAlias:     "7",
		ColControlImplAlias:      "AC-2 narrative",
		ColStakeholdersLegacy:    "Ann; Ben",
		ColLinkedArtifactsLegacy: "Legacy-Evidence",
	}
	dirs := &Directories{Artifacts: repository.ArtifactDirectory{NextSeq: 1}}
	row := NormalizeRow(rec, dirs, testNow())

	require.Equal(t, 3, row.CurrentStateScore)
	require.Equal(t, 7, row.DesiredStateScore)
	require.Equal(t, "AC-2 narrative", row.ControlRef)
	require.Len(t, row.StakeholderIDs, 2)
	require.Equal(t, []string{"Legacy-Evidence"}, row.LinkedArtifactNames)
}

func TestResolvePersonIdempotent(t *testing.T) {
	dirs := &Directories{}

	id1 := dirs.ResolvePerson(ParsePersonToken("Jane Doe <jane@example.com>"))
	// Email match wins even when the name differs.
	id2 := dirs.ResolvePerson(ParsePersonToken("J. Doe <JANE@EXAMPLE.COM>"))
	// Name-only token falls back to the (case-insensitive) name match.
	id3 := dirs.ResolvePerson(ParsePersonToken("jane doe"))

	require.Equal(t, id1, id2)
	require.Equal(t, id1, id3)
	require.Len(t, dirs.People, 1)
}

func TestResolveArtifactIdempotent(t *testing.T) {
	dirs := &Directories{Artifacts: repository.ArtifactDirectory{NextSeq: 1}}

	a1 := dirs.ResolveArtifact("Ticket-1", "r1", "", testNow())
	a2 := dirs.ResolveArtifact("Ticket-1", "r2", "", testNow())

	require.Equal(t, a1.ID, a2.ID)
	require.Len(t, dirs.Artifacts.Items, 1)
	require.Equal(t, []string{"r1", "r2"}, dirs.Artifacts.Items[0].LinkedSubcategoryIDs)
	require.Equal(t, 2, dirs.Artifacts.NextSeq)
	require.Equal(t, []string{"Ticket-1"}, dirs.ArtifactsCreated)
}

func TestNormalizeBatchSharesDirectory(t *testing.T) {
	recs := []Record{
		{ColID: "r1", ColOwner: "Jane Doe", ColArtifactName: "Ticket-1"},
		{ColID: "r2", ColOwner: "Jane Doe", ColArtifactName: "Ticket-1"},
	}
	dirs := &Directories{Artifacts: repository.ArtifactDirectory{NextSeq: 1}}
	batch := NormalizeBatch(recs, dirs, testNow())

	require.Len(t, batch.Rows, 2)
	require.Equal(t, batch.Rows[0].OwnerID, batch.Rows[1].OwnerID)
	require.Len(t, dirs.People, 1)
	require.Len(t, dirs.Artifacts.Items, 1)
	require.Equal(t, []string{"r1", "r2"}, dirs.Artifacts.Items[0].LinkedSubcategoryIDs)
}
