package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"csf-data/internal/domain"
	"csf-data/internal/ingest"
)

// ProfileHeader is the fixed column order of the profile template. The
// computed gap column is deliberately absent: the downstream spreadsheet
// recomputes it with its own formula.
var ProfileHeader = []string{
	ingest.ColID,
	ingest.ColFunction,
	ingest.ColFunctionDesc,
	ingest.ColCategoryID,
	ingest.ColCategory,
	ingest.ColCategoryDesc,
	ingest.ColSubcategoryID,
	ingest.ColSubcategoryDesc,
	ingest.ColImplExample,
	ingest.ColInScope,
	ingest.ColOwner,
	ingest.ColStakeholders,
	ingest.ColAuditor,
	ingest.ColControlRef,
	ingest.ColTestProcedures,
	ingest.ColObservationDate,
	ingest.ColObservations,
	ingest.ColActualScore,
	ingest.ColMinimumTarget,
	ingest.ColDesiredTarget,
	ingest.ColTestingStatus,
	ingest.ColActionPlan,
	ingest.ColArtifactName,
	ingest.ColArtifactURL,
}

// Filename stamps the export with the current date:
// "2026-08-28_CSF_Profile.csv".
func Filename(now time.Time, ext string) string {
	return fmt.Sprintf("%s_CSF_Profile.%s", now.Format("2006-01-02"), ext)
}

// FormatPerson resolves a person id back to the template's
// "Name <email>" form. No email stored: name alone. Unknown id: the raw
// id, so the reference is not silently lost. Empty id: "".
func FormatPerson(id string, people []domain.Person) string {
	if id == "" {
		return ""
	}
	for i := range people {
		if people[i].ID == id {
			if people[i].Email == "" {
				return people[i].Name
			}
			return fmt.Sprintf("%s <%s>", people[i].Name, people[i].Email)
		}
	}
	return id
}

// FormatPeople resolves a list of person ids to a "; "-joined list,
// dropping unresolvable-to-empty entries.
func FormatPeople(ids []string, people []domain.Person) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if s := FormatPerson(id, people); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "; ")
}

// RowValues flattens one row into the ProfileHeader column order.
func RowValues(row *domain.AssessmentRow, people []domain.Person) []string {
	return []string{
		row.ID,
		row.Function,
		row.FunctionDescription,
		domain.ExtractCategoryID(row.Category),
		row.Category,
		row.CategoryDescription,
		row.SubcategoryID,
		row.SubcategoryDescription,
		row.ImplementationExample,
		row.InScope,
		FormatPerson(row.OwnerID, people),
		FormatPeople(row.StakeholderIDs, people),
		FormatPerson(row.AuditorID, people),
		row.ControlRef,
		row.TestProcedures,
		row.ObservationDate,
		row.Observations,
		strconv.Itoa(row.CurrentStateScore),
		strconv.Itoa(row.MinimumTarget),
		strconv.Itoa(row.DesiredStateScore),
		row.TestingStatus,
		row.ActionPlan,
		strings.Join(row.LinkedArtifactNames, "; "),
		row.LinkedArtifactURL,
	}
}

// ProfileCSV serializes the full row set in template order.
func ProfileCSV(rows []domain.AssessmentRow, people []domain.Person) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ProfileHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i := range rows {
		if err := w.Write(RowValues(&rows[i], people)); err != nil {
			return nil, fmt.Errorf("write row %s: %w", rows[i].ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
