package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"csf-data/internal/domain"
	"csf-data/internal/store"
)

// ArtifactDirectory is the persisted artifact collection. NextSeq is the
// monotonic display-code counter; it only ever grows, so deleting an
// artifact never causes a code like "A3" to be reissued.
type ArtifactDirectory struct {
	NextSeq int               `json:"next_seq"`
	Items   []domain.Artifact `json:"items"`
}

// FindByName returns a pointer into Items by exact name match, nil on
// miss.
func (d *ArtifactDirectory) FindByName(name string) *domain.Artifact {
	for i := range d.Items {
		if d.Items[i].Name == name {
			return &d.Items[i]
		}
	}
	return nil
}

// ArtifactsRepo 证据目录的快照仓库
type ArtifactsRepo struct {
	kv store.KV
}

func NewArtifactsRepo(kv store.KV) *ArtifactsRepo {
	return &ArtifactsRepo{kv: kv}
}

func (r *ArtifactsRepo) Load(ctx context.Context) (ArtifactDirectory, int64, error) {
	blob, err := r.kv.Get(ctx, KeyArtifacts)
	if err != nil {
		if err == store.ErrMiss {
			return ArtifactDirectory{NextSeq: 1}, 0, nil
		}
		return ArtifactDirectory{}, 0, fmt.Errorf("load artifacts: %w", err)
	}
	var dir ArtifactDirectory
	if err := json.Unmarshal(blob.Data, &dir); err != nil {
		return ArtifactDirectory{}, 0, fmt.Errorf("decode artifacts: %w", err)
	}
	if dir.NextSeq < len(dir.Items)+1 {
		// Older blobs predate the counter; seed it past every stored item.
		dir.NextSeq = len(dir.Items) + 1
	}
	return dir, blob.Rev, nil
}

func (r *ArtifactsRepo) Save(ctx context.Context, dir ArtifactDirectory, expectRev int64) (int64, error) {
	data, err := json.Marshal(dir)
	if err != nil {
		return 0, fmt.Errorf("encode artifacts: %w", err)
	}
	rev, err := r.kv.Put(ctx, KeyArtifacts, data, expectRev)
	if err != nil {
		return 0, fmt.Errorf("save artifacts: %w", err)
	}
	return rev, nil
}
