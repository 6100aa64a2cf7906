package repository

import (
	"context"

	"csf-data/internal/store"
)

// BootstrapRepo tracks the one-time first-run marker that gates seeding
// from the reference profile vs. loading persisted state.
type BootstrapRepo struct {
	kv store.KV
}

func NewBootstrapRepo(kv store.KV) *BootstrapRepo {
	return &BootstrapRepo{kv: kv}
}

func (r *BootstrapRepo) Done(ctx context.Context) (bool, error) {
	_, err := r.kv.Get(ctx, KeyBootstrapped)
	if err == store.ErrMiss {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *BootstrapRepo) MarkDone(ctx context.Context) error {
	_, err := r.kv.Put(ctx, KeyBootstrapped, []byte(`true`), store.RevAny)
	return err
}
