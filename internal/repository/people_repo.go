package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"csf-data/internal/domain"
	"csf-data/internal/store"
)

// PeopleRepo 人员目录的快照仓库
// The directory is one blob. Load runs the duplicated-domain email
// repair over every entry and reports whether anything was fixed so the
// caller can persist the repair.
type PeopleRepo struct {
	kv store.KV
}

func NewPeopleRepo(kv store.KV) *PeopleRepo {
	return &PeopleRepo{kv: kv}
}

func (r *PeopleRepo) Load(ctx context.Context) ([]domain.Person, int64, bool, error) {
	blob, err := r.kv.Get(ctx, KeyPeople)
	if err != nil {
		if err == store.ErrMiss {
			return nil, 0, false, nil
		}
		return nil, 0, false, fmt.Errorf("load people: %w", err)
	}
	var people []domain.Person
	if err := json.Unmarshal(blob.Data, &people); err != nil {
		return nil, 0, false, fmt.Errorf("decode people: %w", err)
	}

	repaired := false
	for i := range people {
		if fixed, changed := domain.RepairEmail(people[i].Email); changed {
			people[i].Email = fixed
			repaired = true
		}
	}
	return people, blob.Rev, repaired, nil
}

func (r *PeopleRepo) Save(ctx context.Context, people []domain.Person, expectRev int64) (int64, error) {
	data, err := json.Marshal(people)
	if err != nil {
		return 0, fmt.Errorf("encode people: %w", err)
	}
	rev, err := r.kv.Put(ctx, KeyPeople, data, expectRev)
	if err != nil {
		return 0, fmt.Errorf("save people: %w", err)
	}
	return rev, nil
}
