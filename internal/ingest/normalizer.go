package ingest

import (
	"strings"
	"time"

	"csf-data/internal/domain"
)

// Profile template column names. "In Scope? " carries a trailing space
// in the source spreadsheet; the legacy names are honored as aliases on
// import.
const (
	ColID              = "ID"
	ColFunction        = "Function"
	ColFunctionDesc    = "Function Description"
	ColCategoryID      = "Category ID"
	ColCategory        = "Category"
	ColCategoryDesc    = "Category Description"
	ColSubcategoryID   = "Subcategory ID"
	ColSubcategoryDesc = "Subcategory Description"
	ColImplExample     = "Implementation Example"
	ColInScope         = "In Scope? "
	ColOwner           = "Owner"
	ColAuditor         = "Auditor"
	ColStakeholders    = "Stakeholder(s)"
	ColControlRef      = "NIST 800-53 Control Ref"
	ColTestProcedures  = "Test Procedure(s)"
	ColObservationDate = "Observation Date"
	ColObservations    = "Observations"
	ColActualScore     = "Actual Score"
	ColMinimumTarget   = "Minimum Target"
	ColDesiredTarget   = "Desired Target"
	ColTestingStatus   = "Testing Status"
	ColActionPlan      = "Action Plan"
	ColArtifactName    = "Artifact Name"
	ColArtifactURL     = "Linked Artifact URL"

	// Legacy aliases from older template revisions.
	ColStakeholdersLegacy    = "Stakeholders"
	ColLinkedArtifactsLegacy = "Linked Artifacts"
	ColCurrentScoreAlias     = "Current State Score"
	ColDesiredScoreAlias     = "Desired State Score"
	ColControlImplAlias      = "Control Implementation Description"
)

// BatchResult is what one normalization pass produced. Rows replace the
// stored row set wholesale; Dirs carries the updated directories plus
// the created-entry log the caller persists (and the enrichment phase
// patches).
type BatchResult struct {
	Rows     []domain.AssessmentRow
	Dirs     *Directories
	Warnings []ParseWarning
}

// NormalizeBatch runs every record through NormalizeRow against one
// shared working directory set. Both the first-run seed and a manual
// re-import go through this single path, so legacy field aliases behave
// identically in either.
func NormalizeBatch(records []Record, dirs *Directories, now time.Time) *BatchResult {
	rows := make([]domain.AssessmentRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, NormalizeRow(rec, dirs, now))
	}
	return &BatchResult{Rows: rows, Dirs: dirs}
}

// NormalizeRow maps one raw record to the canonical row shape and
// resolves its person and artifact references against the working
// directories, creating entries as needed.
func NormalizeRow(rec Record, dirs *Directories, now time.Time) domain.AssessmentRow {
	row := domain.AssessmentRow{
		ID:                     rec.Str(ColID),
		Function:               rec.Str(ColFunction),
		FunctionDescription:    rec.Str(ColFunctionDesc),
		Category:               rec.Str(ColCategory),
		CategoryDescription:    rec.Str(ColCategoryDesc),
		SubcategoryID:          rec.Str(ColSubcategoryID),
		SubcategoryDescription: rec.Str(ColSubcategoryDesc),
		ImplementationExample:  rec.Str(ColImplExample),
		Observations:           rec.Str(ColObservations),
		ObservationDate:        rec.Str(ColObservationDate),
		TestProcedures:         rec.Str(ColTestProcedures),
		ActionPlan:             rec.Str(ColActionPlan),
		LinkedArtifactURL:      rec.Str(ColArtifactURL),
	}

	row.CategoryID = domain.ExtractCategoryID(row.Category)

	row.InScope = rec.Str(ColInScope)
	if row.InScope == "" {
		row.InScope = domain.ScopeNo
	}
	row.TestingStatus = domain.NormalizeTestingStatus(rec.Str(ColTestingStatus))

	row.ControlRef = strAlias(rec, ColControlRef, ColControlImplAlias)
	row.CurrentStateScore = intAlias(rec, ColActualScore, ColCurrentScoreAlias)
	row.DesiredStateScore = intAlias(rec, ColDesiredTarget, ColDesiredScoreAlias)
	row.MinimumTarget, _ = rec.Int(ColMinimumTarget)
	row.RecomputeGap()

	row.OwnerID = dirs.ResolvePerson(ParsePersonToken(rec.Str(ColOwner)))
	row.AuditorID = dirs.ResolvePerson(ParsePersonToken(rec.Str(ColAuditor)))

	stakeholders := rec.Str(ColStakeholders)
	if stakeholders == "" {
		stakeholders = rec.Str(ColStakeholdersLegacy)
	}
	for _, tok := range splitList(stakeholders, ";") {
		if id := dirs.ResolvePerson(ParsePersonToken(tok)); id != "" {
			row.StakeholderIDs = append(row.StakeholderIDs, id)
		}
	}

	// Artifact names: the primary column splits on commas and
	// semicolons, the legacy column on semicolons only.
	var names []string
	if v := rec.Str(ColArtifactName); v != "" {
		names = splitList(v, ",;")
	} else if v := rec.Str(ColLinkedArtifactsLegacy); v != "" {
		names = splitList(v, ";")
	}
	for _, name := range names {
		row.LinkedArtifactNames = append(row.LinkedArtifactNames, name)
		dirs.ResolveArtifact(name, row.ID, row.LinkedArtifactURL, now)
	}

	return row
}

// strAlias returns the first non-empty value among the column aliases.
func strAlias(rec Record, cols ...string) string {
	for _, c := range cols {
		if v := rec.Str(c); v != "" {
			return v
		}
	}
	return ""
}

// intAlias returns the first parseable numeric value among the column
// aliases, 0 when none parses.
func intAlias(rec Record, cols ...string) int {
	for _, c := range cols {
		if n, ok := rec.Int(c); ok {
			return n
		}
	}
	return 0
}

// splitList splits on any of the separator characters, trims each entry,
// and drops blanks.
func splitList(s, seps string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
