package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scentlog/scentlog-server/internal/domain"
)

func TestMemory_EmptyLoad(t *testing.T) {
	m := NewMemory(nil)

	snap, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Perfumes)
}

func TestMemory_SaveIsolatesCaller(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	snap := &domain.Snapshot{Perfumes: []*domain.Perfume{{ID: "pf-1", Name: "Aventus", TagIDs: []string{"tg-1"}}}}
	require.NoError(t, m.Save(ctx, snap))

	snap.Perfumes[0].Name = "mutated"
	snap.Perfumes[0].TagIDs[0] = "tg-2"

	loaded, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Aventus", loaded.Perfumes[0].Name)
	assert.Equal(t, []string{"tg-1"}, loaded.Perfumes[0].TagIDs)
	assert.Equal(t, 1, m.Saves())
}

func TestMemory_FailNextSave(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(&domain.Snapshot{Perfumes: []*domain.Perfume{{ID: "pf-1"}}})

	boom := errors.New("disk full")
	m.FailNextSave(boom)

	err := m.Save(ctx, &domain.Snapshot{})
	assert.ErrorIs(t, err, boom)

	loaded, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Perfumes, 1)

	require.NoError(t, m.Save(ctx, &domain.Snapshot{}))
	assert.Equal(t, 1, m.Saves())
}

func TestMemory_Closed(t *testing.T) {
	m := NewMemory(nil)
	require.NoError(t, m.Close())

	_, err := m.Load(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Save(context.Background(), &domain.Snapshot{}), ErrClosed)
}
