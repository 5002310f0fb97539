package plafonds

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nusalend/nusalend/internal/masterdata/shared"
)

type fakeRepo struct {
	nextID int64
	items  map[int64]Plafond
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[int64]Plafond)}
}

func (f *fakeRepo) List(_ context.Context, _ shared.ListFilters) ([]Plafond, int, error) {
	var out []Plafond
	for _, p := range f.items {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (Plafond, error) {
	p, ok := f.items[id]
	if !ok {
		return Plafond{}, shared.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) Create(_ context.Context, p Plafond) (Plafond, error) {
	f.nextID++
	p.ID = f.nextID
	f.items[p.ID] = p
	return p, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, p Plafond) error {
	if _, ok := f.items[id]; !ok {
		return shared.ErrNotFound
	}
	p.ID = id
	f.items[id] = p
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), Plafond{Name: " ", MaxAmount: 1000, MaxTenor: 12})
	require.ErrorIs(t, err, shared.ErrRequiredField)

	_, err = svc.Create(context.Background(), Plafond{Name: "Silver", MaxAmount: 0, MaxTenor: 12})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), Plafond{Name: "Silver", MaxAmount: 1000, MaxTenor: 0})
	require.ErrorIs(t, err, shared.ErrValidation)

	p, err := svc.Create(context.Background(), Plafond{Name: "Silver", MaxAmount: 10_000_000, MaxTenor: 12})
	require.NoError(t, err)
	require.NotZero(t, p.ID)
}

func TestUpdateAndDelete(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), Plafond{Name: "Silver", MaxAmount: 10_000_000, MaxTenor: 12})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Update(context.Background(), 0, p), shared.ErrInvalidID)
	p.MaxTenor = 24
	require.NoError(t, svc.Update(context.Background(), p.ID, p))

	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, 24, got.MaxTenor)

	require.NoError(t, svc.Delete(context.Background(), p.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), p.ID), shared.ErrNotFound)
}
