package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"csf-data/internal/domain"
	"csf-data/internal/store"
)

func TestPeopleCRUD(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p, err := env.people.Create(ctx, PersonRequest{Name: " Jane Doe ", Title: "CISO", Email: "jane@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	require.Equal(t, "Jane Doe", p.Name)

	list, err := env.people.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = env.people.List(ctx, "ciso")
	require.NoError(t, err)
	require.Len(t, list, 1)
	list, err = env.people.List(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, list)

	updated, err := env.people.Update(ctx, p.ID, PersonRequest{Name: "Jane Doe", Title: "CIO", Email: "jane@example.com"})
	require.NoError(t, err)
	require.Equal(t, "CIO", updated.Title)

	_, err = env.people.Update(ctx, "nope", PersonRequest{Name: "x", Title: "y", Email: "z@example.com"})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, env.people.Delete(ctx, p.ID))
	require.ErrorIs(t, env.people.Delete(ctx, p.ID), ErrNotFound)
}

func TestPeopleDeleteCascades(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p, err := env.people.Create(ctx, PersonRequest{Name: "Jane", Title: "CISO", Email: "jane@example.com"})
	require.NoError(t, err)

	rows := []domain.AssessmentRow{
		{ID: "r1", OwnerID: p.ID, StakeholderIDs: []string{p.ID}},
		{ID: "r2", AuditorID: p.ID},
	}
	_, err = env.assessmentsRepo.Save(ctx, rows, store.RevAny)
	require.NoError(t, err)

	require.NoError(t, env.people.Delete(ctx, p.ID))

	rows, _, err = env.assessmentsRepo.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, rows[0].OwnerID)
	require.Empty(t, rows[0].StakeholderIDs)
	require.Empty(t, rows[1].AuditorID)
}

func TestPeopleMerge(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	keep, err := env.people.Create(ctx, PersonRequest{Name: "Jane Doe", Title: "CISO", Email: "jane@example.com"})
	require.NoError(t, err)
	dup, err := env.people.Create(ctx, PersonRequest{Name: "J. Doe", Title: "Imported User", Email: "j.doe@almasecurity.com"})
	require.NoError(t, err)

	rows := []domain.AssessmentRow{
		{ID: "r1", OwnerID: dup.ID, StakeholderIDs: []string{keep.ID, dup.ID}},
		{ID: "r2", AuditorID: dup.ID},
	}
	_, err = env.assessmentsRepo.Save(ctx, rows, store.RevAny)
	require.NoError(t, err)

	merged, err := env.people.Merge(ctx, keep.ID, dup.ID)
	require.NoError(t, err)
	require.Equal(t, keep.ID, merged.ID)

	list, err := env.people.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)

	rows, _, err = env.assessmentsRepo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, keep.ID, rows[0].OwnerID)
	// keep.ID already a stakeholder: not duplicated.
	require.Equal(t, []string{keep.ID}, rows[0].StakeholderIDs)
	require.Equal(t, keep.ID, rows[1].AuditorID)

	_, err = env.people.Merge(ctx, keep.ID, keep.ID)
	require.Error(t, err)
	_, err = env.people.Merge(ctx, keep.ID, "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPeopleListPersistsEmailRepair(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	broken := []domain.Person{{ID: "p1", Name: "Jane", Title: "CISO", Email: "jane@x.com@x.com"}}
	_, err := env.peopleRepo.Save(ctx, broken, store.RevAny)
	require.NoError(t, err)

	list, err := env.people.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "jane@x.com", list[0].Email)

	// The repair was written back, not just applied in memory.
	stored, _, repaired, err := env.peopleRepo.Load(ctx)
	require.NoError(t, err)
	require.False(t, repaired)
	require.Equal(t, "jane@x.com", stored[0].Email)
}
