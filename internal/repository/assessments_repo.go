package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"csf-data/internal/domain"
	"csf-data/internal/store"
)

// AssessmentsRepo 评估行集合的快照仓库
// Loads and saves the full assessment row set as one revisioned blob.
// Rows are replaced wholesale on import; individual edits go through
// Load/mutate/Save with the loaded revision.
type AssessmentsRepo struct {
	kv store.KV
}

func NewAssessmentsRepo(kv store.KV) *AssessmentsRepo {
	return &AssessmentsRepo{kv: kv}
}

// Load returns the row set and the blob revision. A missing blob is not
// an error: it returns an empty set at revision 0.
func (r *AssessmentsRepo) Load(ctx context.Context) ([]domain.AssessmentRow, int64, error) {
	blob, err := r.kv.Get(ctx, KeyProfile)
	if err != nil {
		if err == store.ErrMiss {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("load profile: %w", err)
	}
	var rows []domain.AssessmentRow
	if err := json.Unmarshal(blob.Data, &rows); err != nil {
		return nil, 0, fmt.Errorf("decode profile: %w", err)
	}
	return rows, blob.Rev, nil
}

// Save writes the row set, rejecting the write when the blob moved past
// expectRev.
func (r *AssessmentsRepo) Save(ctx context.Context, rows []domain.AssessmentRow, expectRev int64) (int64, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return 0, fmt.Errorf("encode profile: %w", err)
	}
	rev, err := r.kv.Put(ctx, KeyProfile, data, expectRev)
	if err != nil {
		return 0, fmt.Errorf("save profile: %w", err)
	}
	return rev, nil
}
