package service

import (
	"go.uber.org/zap"

	"csf-data/internal/domain"
	"csf-data/internal/repository"
)

// LinkService 证据与评估行之间双向引用的一致性维护
// Keeps Artifact.LinkedSubcategoryIDs and AssessmentRow.LinkedArtifactNames
// mutually consistent when either side is edited. A reference to a row or
// artifact that no longer exists is logged and skipped; link maintenance
// never fails the enclosing edit.
type LinkService struct {
	logger *zap.Logger
}

func NewLinkService(logger *zap.Logger) *LinkService {
	return &LinkService{logger: logger}
}

// ApplyArtifactEdit reconciles rows after an artifact's subcategory set
// changed from oldIDs to art.LinkedSubcategoryIDs: rows newly in the set
// gain the artifact name, rows removed from it lose the name. Returns
// whether any row changed.
func (s *LinkService) ApplyArtifactEdit(rows []domain.AssessmentRow, art *domain.Artifact, oldIDs []string) bool {
	changed := false

	for _, id := range art.LinkedSubcategoryIDs {
		row := findRow(rows, id)
		if row == nil {
			s.logger.Warn("artifact links unknown row, skipping",
				zap.String("artifact", art.Name),
				zap.String("row_id", id),
			)
			continue
		}
		if row.AddLinkedArtifact(art.Name) {
			changed = true
		}
	}

	for _, id := range oldIDs {
		if art.HasSubcategory(id) {
			continue
		}
		row := findRow(rows, id)
		if row == nil {
			s.logger.Warn("artifact unlink target row not found, skipping",
				zap.String("artifact", art.Name),
				zap.String("row_id", id),
			)
			continue
		}
		if row.RemoveLinkedArtifact(art.Name) {
			changed = true
		}
	}

	return changed
}

// SyncRowArtifacts reconciles the artifact directory after a row's
// linked-artifact list was edited: every artifact's back-reference set
// gains or loses the row id per the row's new membership. Returns
// whether any artifact changed.
func (s *LinkService) SyncRowArtifacts(dir *repository.ArtifactDirectory, row *domain.AssessmentRow) bool {
	changed := false
	for i := range dir.Items {
		art := &dir.Items[i]
		if row.HasLinkedArtifact(art.Name) {
			if art.AddSubcategory(row.ID) {
				changed = true
			}
		} else {
			if art.RemoveSubcategory(row.ID) {
				changed = true
			}
		}
	}
	return changed
}

// StripArtifact removes the artifact's name from every row that listed
// it, used when the artifact is deleted outright.
func (s *LinkService) StripArtifact(rows []domain.AssessmentRow, art *domain.Artifact) bool {
	changed := false
	for _, id := range art.LinkedSubcategoryIDs {
		row := findRow(rows, id)
		if row == nil {
			s.logger.Warn("deleted artifact referenced unknown row",
				zap.String("artifact", art.Name),
				zap.String("row_id", id),
			)
			continue
		}
		if row.RemoveLinkedArtifact(art.Name) {
			changed = true
		}
	}
	return changed
}

// CascadePersonDelete clears every reference a deleted person left
// behind: owner, auditor, and stakeholder entries. Returns whether any
// row changed.
func (s *LinkService) CascadePersonDelete(rows []domain.AssessmentRow, personID string) bool {
	changed := false
	for i := range rows {
		row := &rows[i]
		if row.OwnerID == personID {
			row.OwnerID = ""
			changed = true
		}
		if row.AuditorID == personID {
			row.AuditorID = ""
			changed = true
		}
		for j, id := range row.StakeholderIDs {
			if id == personID {
				row.StakeholderIDs = append(row.StakeholderIDs[:j], row.StakeholderIDs[j+1:]...)
				changed = true
				break
			}
		}
	}
	return changed
}

// CascadePersonMerge re-points every reference from one person to
// another, de-duplicating stakeholder lists that referenced both.
// Returns whether any row changed.
func (s *LinkService) CascadePersonMerge(rows []domain.AssessmentRow, fromID, toID string) bool {
	changed := false
	for i := range rows {
		row := &rows[i]
		if row.OwnerID == fromID {
			row.OwnerID = toID
			changed = true
		}
		if row.AuditorID == fromID {
			row.AuditorID = toID
			changed = true
		}
		for j, id := range row.StakeholderIDs {
			if id != fromID {
				continue
			}
			row.StakeholderIDs = append(row.StakeholderIDs[:j], row.StakeholderIDs[j+1:]...)
			changed = true
			if !containsString(row.StakeholderIDs, toID) {
				row.StakeholderIDs = append(row.StakeholderIDs, toID)
			}
			break
		}
	}
	return changed
}

// MergeArtifactRefs rewrites row references from a merged-away artifact
// to the surviving one. Returns whether any row changed.
func (s *LinkService) MergeArtifactRefs(rows []domain.AssessmentRow, fromName, toName string) bool {
	changed := false
	for i := range rows {
		row := &rows[i]
		if row.RemoveLinkedArtifact(fromName) {
			row.AddLinkedArtifact(toName)
			changed = true
		}
	}
	return changed
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// findRow matches by row id first, then by subcategory id, the same
// fallback the original link editor used for older artifact records.
func findRow(rows []domain.AssessmentRow, id string) *domain.AssessmentRow {
	for i := range rows {
		if rows[i].ID == id {
			return &rows[i]
		}
	}
	for i := range rows {
		if rows[i].SubcategoryID == id {
			return &rows[i]
		}
	}
	return nil
}
