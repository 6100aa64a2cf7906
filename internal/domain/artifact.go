package domain

import (
	"fmt"
	"time"
)

// Artifact 审计证据目录条目
// A piece of audit evidence (ticket, document, link). Name is the
// de-duplication key; LinkedSubcategoryIDs is the back-reference list of
// assessment row ids.
type Artifact struct {
	ID                   string   `json:"id"`
	ArtifactID           string   `json:"artifact_id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Link                 string   `json:"link,omitempty"`
	LinkedSubcategoryIDs []string `json:"linked_subcategory_ids"`
}

// ImportedDescription is the defaulted description for artifacts created
// during a CSV import.
func ImportedDescription(now time.Time) string {
	return fmt.Sprintf("Imported from CSV on %s", now.Format("2006-01-02"))
}

// DisplayCode formats the sequential display id, e.g. "A7".
func DisplayCode(seq int) string {
	return fmt.Sprintf("A%d", seq)
}

// HasSubcategory reports whether the artifact already links the row id.
func (a *Artifact) HasSubcategory(rowID string) bool {
	for _, id := range a.LinkedSubcategoryIDs {
		if id == rowID {
			return true
		}
	}
	return false
}

// AddSubcategory appends the row id if not already present.
func (a *Artifact) AddSubcategory(rowID string) bool {
	if a.HasSubcategory(rowID) {
		return false
	}
	a.LinkedSubcategoryIDs = append(a.LinkedSubcategoryIDs, rowID)
	return true
}

// RemoveSubcategory drops the row id if present.
func (a *Artifact) RemoveSubcategory(rowID string) bool {
	for i, id := range a.LinkedSubcategoryIDs {
		if id == rowID {
			a.LinkedSubcategoryIDs = append(a.LinkedSubcategoryIDs[:i], a.LinkedSubcategoryIDs[i+1:]...)
			return true
		}
	}
	return false
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (a *Artifact) ToJSON() map[string]any {
	m := map[string]any{
		"id":                     a.ID,
		"artifact_id":            a.ArtifactID,
		"name":                   a.Name,
		"description":            a.Description,
		"linked_subcategory_ids": emptyIfNil(a.LinkedSubcategoryIDs),
	}
	if a.Link != "" {
		m["link"] = a.Link
	}
	return m
}
