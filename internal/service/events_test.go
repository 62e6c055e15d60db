package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scentlog/scentlog-server/internal/domain"
	domainerrors "github.com/scentlog/scentlog-server/internal/errors"
)

func TestAddEvent_Testing(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	p := env.create(t, PerfumeInput{Name: "Aventus"})

	first, err := env.svc.AddEvent(ctx, p.ID, EventInput{Type: "smell", Location: " Harrods ", EventDate: "2026-02-14"})
	require.NoError(t, err)
	assert.Equal(t, "Harrods", first.Location)
	assert.Equal(t, testNow, first.Timestamp)
	assert.Nil(t, first.VolumeDelta)

	// A skin test without a location inherits the previous one.
	second, err := env.svc.AddEvent(ctx, p.ID, EventInput{Type: "skin", EventDate: "  "})
	require.NoError(t, err)
	assert.Equal(t, "Harrods", second.Location)
	assert.Empty(t, second.EventDate)

	detail, err := env.svc.GetPerfume(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tested | On-skin", detail.State.Label)
	require.Len(t, detail.Events, 2)
	assert.Equal(t, first.ID, detail.Events[0].ID)

	// The location became an outlet without being attached to the perfume.
	outlets, err := env.svc.ListReferences(ctx, "outlet")
	require.NoError(t, err)
	require.Len(t, outlets, 1)
	assert.Equal(t, "Harrods", outlets[0].Name)
	assert.Empty(t, detail.Outlets)
}

func TestAddEvent_Transactions(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	p := env.create(t, PerfumeInput{Name: "Aventus"})

	buy, err := env.svc.AddEvent(ctx, p.ID, EventInput{
		Type: "buy", Volume: ptr(50.0), Price: ptr(120.0), PurchaseType: "decant",
	})
	require.NoError(t, err)
	require.NotNil(t, buy.VolumeDelta)
	assert.InDelta(t, 50.0, *buy.VolumeDelta, 1e-9)
	require.NotNil(t, buy.Price)
	assert.Equal(t, "decant", buy.PurchaseType)

	sell, err := env.svc.AddEvent(ctx, p.ID, EventInput{Type: "sell", Volume: ptr(12.5), Price: ptr(0.0)})
	require.NoError(t, err)
	require.NotNil(t, sell.VolumeDelta)
	assert.InDelta(t, -12.5, *sell.VolumeDelta, 1e-9)
	assert.Nil(t, sell.Price)
	assert.Empty(t, sell.PurchaseTypeID)

	zero, err := env.svc.AddEvent(ctx, p.ID, EventInput{Type: "buy", Volume: ptr(0.0)})
	require.NoError(t, err)
	assert.Nil(t, zero.VolumeDelta)

	detail, err := env.svc.GetPerfume(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Owned 37.5ml", detail.State.Label)
	assert.InDelta(t, 37.5, detail.State.OwnedVolume, 1e-9)

	purchaseTypes, err := env.svc.ListReferences(ctx, "purchase_type")
	require.NoError(t, err)
	assert.Len(t, purchaseTypes, len(domain.DefaultPurchaseTypes))
}

func TestAddEvent_Validation(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	p := env.create(t, PerfumeInput{Name: "Aventus"})

	tests := []struct {
		name  string
		in    EventInput
		field string
	}{
		{"unknown type", EventInput{Type: "spray"}, "type"},
		{"missing type", EventInput{}, "type"},
		{"bad date", EventInput{Type: "smell", EventDate: "14/02/2026"}, "event_date"},
		{"negative volume", EventInput{Type: "buy", Volume: ptr(-5.0)}, "volume"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.AddEvent(ctx, p.ID, tt.in)
			require.Error(t, err)

			var derr *domainerrors.Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, domainerrors.CodeValidation, derr.Code)
			assert.Contains(t, derr.Details, tt.field)
		})
	}

	_, err := env.svc.AddEvent(ctx, "pf-missing", EventInput{Type: "smell"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestUpdateAndDeleteEvent(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	p := env.create(t, PerfumeInput{Name: "Aventus"})

	e, err := env.svc.AddEvent(ctx, p.ID, EventInput{Type: "smell", Note: "too sweet"})
	require.NoError(t, err)

	updated, err := env.svc.UpdateEvent(ctx, p.ID, e.ID, EventPatch{
		EventDate: ptr("2026-01-05"),
		Location:  ptr("Liberty"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-01-05", updated.EventDate)
	assert.Equal(t, "Liberty", updated.Location)
	assert.Equal(t, "too sweet", updated.Note)

	_, err = env.svc.UpdateEvent(ctx, p.ID, "ev-missing", EventPatch{Note: ptr("x")})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	require.NoError(t, env.svc.DeleteEvent(ctx, p.ID, e.ID))
	detail, err := env.svc.GetPerfume(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Events)
	assert.Equal(t, "New", detail.State.Label)

	assert.ErrorIs(t, env.svc.DeleteEvent(ctx, p.ID, e.ID), domainerrors.ErrNotFound)
}

func TestEvents_ChronologicalOrder(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	p := env.create(t, PerfumeInput{Name: "Aventus"})

	late, err := env.svc.AddEvent(ctx, p.ID, EventInput{Type: "smell", EventDate: "2026-02-01"})
	require.NoError(t, err)

	env.svc.now = func() time.Time { return testNow.Add(time.Minute) }
	early, err := env.svc.AddEvent(ctx, p.ID, EventInput{Type: "smell", EventDate: "2025-12-24"})
	require.NoError(t, err)

	detail, err := env.svc.GetPerfume(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, detail.Events, 2)
	assert.Equal(t, early.ID, detail.Events[0].ID)
	assert.Equal(t, late.ID, detail.Events[1].ID)
}

func TestNotes(t *testing.T) {
	env := newTestService(t, nil)
	ctx := context.Background()
	p := env.create(t, PerfumeInput{Name: "Aventus"})

	n, err := env.svc.AddNote(ctx, p.ID, NoteInput{Content: "pineapple and birch smoke"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultNoteTitle, n.Title)
	assert.Equal(t, testNow, n.CreatedAt)

	updated, err := env.svc.UpdateNote(ctx, p.ID, n.ID, NoteInput{Title: "Drydown", Content: "musky"})
	require.NoError(t, err)
	assert.Equal(t, "Drydown", updated.Title)
	assert.Equal(t, "musky", updated.Content)

	// Note text is searchable.
	res, err := env.svc.Query(ctx, QueryInput{Text: "MUSKY"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	_, err = env.svc.UpdateNote(ctx, p.ID, "nt-missing", NoteInput{Title: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	require.NoError(t, env.svc.DeleteNote(ctx, p.ID, n.ID))
	assert.ErrorIs(t, env.svc.DeleteNote(ctx, p.ID, n.ID), domainerrors.ErrNotFound)
}
