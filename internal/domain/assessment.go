package domain

import (
	"regexp"
	"strings"
)

// Testing status values. "Completed" and "Issues Found" appear in older
// profile exports; "Completed" is folded into "Complete" on normalization,
// "Issues Found" is kept as-is so historical rows stay readable.
const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusSubmitted  = "Submitted"
	StatusComplete   = "Complete"

	LegacyStatusCompleted   = "Completed"
	LegacyStatusIssuesFound = "Issues Found"
)

// In-scope values are the spreadsheet's Yes/No strings, not booleans.
const (
	ScopeYes = "Yes"
	ScopeNo  = "No"
)

var categoryIDRe = regexp.MustCompile(`\(([^)]+)\)`)

// AssessmentRow 一条 NIST CSF 子类别的评估状态
// One subcategory line item of the CSF profile. OwnerID/AuditorID/
// StakeholderIDs reference the people directory by surrogate id;
// LinkedArtifactNames reference the artifact directory by name.
type AssessmentRow struct {
	ID string `json:"id"`

	// Framework taxonomy
	Function               string `json:"function"`
	FunctionDescription    string `json:"function_description"`
	Category               string `json:"category"`
	CategoryID             string `json:"category_id"`
	CategoryDescription    string `json:"category_description"`
	SubcategoryID          string `json:"subcategory_id"`
	SubcategoryDescription string `json:"subcategory_description"`
	ImplementationExample  string `json:"implementation_example"`

	// Scope and audit fields
	InScope         string `json:"in_scope"`
	TestingStatus   string `json:"testing_status"`
	Observations    string `json:"observations"`
	ObservationDate string `json:"observation_date"`
	TestProcedures  string `json:"test_procedures"`
	ActionPlan      string `json:"action_plan"`
	ControlRef      string `json:"control_ref"`

	// Scoring
	CurrentStateScore  int `json:"current_state_score"`
	DesiredStateScore  int `json:"desired_state_score"`
	MinimumTarget      int `json:"minimum_target"`
	GapToMinimumTarget int `json:"gap_to_minimum_target"`

	// Directory references
	OwnerID             string   `json:"owner_id,omitempty"`
	AuditorID           string   `json:"auditor_id,omitempty"`
	StakeholderIDs      []string `json:"stakeholder_ids"`
	LinkedArtifactNames []string `json:"linked_artifact_names"`
	LinkedArtifactURL   string   `json:"linked_artifact_url,omitempty"`
}

// ExtractCategoryID pulls the parenthesized code out of a Category value,
// e.g. "Organizational Context (GV.OC)" -> "GV.OC". Returns "" when the
// field carries no parenthesized token.
func ExtractCategoryID(category string) string {
	m := categoryIDRe.FindStringSubmatch(category)
	if m == nil {
		return ""
	}
	return m[1]
}

// NormalizeTestingStatus maps a raw status value to its canonical form.
// Empty input defaults to "Not Started".
func NormalizeTestingStatus(s string) string {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return StatusNotStarted
	case LegacyStatusCompleted:
		return StatusComplete
	default:
		return s
	}
}

// RecomputeGap refreshes the derived gap field.
func (r *AssessmentRow) RecomputeGap() {
	r.GapToMinimumTarget = r.MinimumTarget - r.CurrentStateScore
}

// HasLinkedArtifact reports whether the row already references the
// artifact by name.
func (r *AssessmentRow) HasLinkedArtifact(name string) bool {
	for _, n := range r.LinkedArtifactNames {
		if n == name {
			return true
		}
	}
	return false
}

// AddLinkedArtifact appends the artifact name if not already present.
func (r *AssessmentRow) AddLinkedArtifact(name string) bool {
	if r.HasLinkedArtifact(name) {
		return false
	}
	r.LinkedArtifactNames = append(r.LinkedArtifactNames, name)
	return true
}

// RemoveLinkedArtifact drops the artifact name if present.
func (r *AssessmentRow) RemoveLinkedArtifact(name string) bool {
	for i, n := range r.LinkedArtifactNames {
		if n == name {
			r.LinkedArtifactNames = append(r.LinkedArtifactNames[:i], r.LinkedArtifactNames[i+1:]...)
			return true
		}
	}
	return false
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (r *AssessmentRow) ToJSON() map[string]any {
	m := map[string]any{
		"id":                      r.ID,
		"function":                r.Function,
		"function_description":    r.FunctionDescription,
		"category":                r.Category,
		"category_id":             r.CategoryID,
		"category_description":    r.CategoryDescription,
		"subcategory_id":          r.SubcategoryID,
		"subcategory_description": r.SubcategoryDescription,
		"implementation_example":  r.ImplementationExample,
		"in_scope":                r.InScope,
		"testing_status":          r.TestingStatus,
		"observations":            r.Observations,
		"observation_date":        r.ObservationDate,
		"test_procedures":         r.TestProcedures,
		"action_plan":             r.ActionPlan,
		"control_ref":             r.ControlRef,
		"current_state_score":     r.CurrentStateScore,
		"desired_state_score":     r.DesiredStateScore,
		"minimum_target":          r.MinimumTarget,
		"gap_to_minimum_target":   r.GapToMinimumTarget,
		"stakeholder_ids":         emptyIfNil(r.StakeholderIDs),
		"linked_artifact_names":   emptyIfNil(r.LinkedArtifactNames),
	}
	if r.OwnerID != "" {
		m["owner_id"] = r.OwnerID
	}
	if r.AuditorID != "" {
		m["auditor_id"] = r.AuditorID
	}
	if r.LinkedArtifactURL != "" {
		m["linked_artifact_url"] = r.LinkedArtifactURL
	}
	return m
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
