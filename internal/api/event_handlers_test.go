package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scentlog/scentlog-server/internal/domain"
	"github.com/scentlog/scentlog-server/internal/service"
)

func TestEvents_Lifecycle(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	p := createPerfume(t, ts, map[string]any{"name": "Aventus"})
	base := "/api/v1/perfumes/" + p.ID

	resp := ts.api.Post(base+"/events", map[string]any{
		"type":          "buy",
		"event_date":    "2026-02-14",
		"volume":        50,
		"price":         120,
		"purchase_type": "decant",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	buy := decodeData[service.EventView](t, resp)
	assert.Equal(t, domain.EventBuy, buy.Type)
	assert.Equal(t, "decant", buy.PurchaseType)
	require.NotNil(t, buy.VolumeDelta)
	assert.InDelta(t, 50.0, *buy.VolumeDelta, 1e-9)

	resp = ts.api.Post(base+"/events", map[string]any{"type": "sell", "volume": 12.5})
	require.Equal(t, http.StatusCreated, resp.Code)

	detail := decodeData[service.PerfumeDetail](t, ts.api.Get(base))
	assert.Equal(t, "Owned 37.5ml", detail.State.Label)

	resp = ts.api.Patch(base+"/events/"+buy.ID, map[string]any{"location": "Harrods"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Harrods", decodeData[service.EventView](t, resp).Location)

	assert.Equal(t, http.StatusNoContent, ts.api.Delete(base+"/events/"+buy.ID).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Delete(base+"/events/"+buy.ID).Code)
}

func TestEvents_Validation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"unknown type", map[string]any{"type": "borrow"}},
		{"bad date", map[string]any{"type": "smell", "event_date": "14/02/2026"}},
		{"negative volume", map[string]any{"type": "buy", "volume": -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t)
			defer ts.cleanup()

			p := createPerfume(t, ts, map[string]any{"name": "Aventus"})
			resp := ts.api.Post("/api/v1/perfumes/"+p.ID+"/events", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, "VALIDATION", decodeEnvelope(t, resp).Code)
		})
	}
}

func TestNotes_Lifecycle(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	p := createPerfume(t, ts, map[string]any{"name": "Aventus"})
	base := "/api/v1/perfumes/" + p.ID + "/notes"

	resp := ts.api.Post(base, map[string]any{"content": "smoky birch on the drydown"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	note := decodeData[domain.Note](t, resp)
	assert.Equal(t, "Note", note.Title)

	resp = ts.api.Patch(base+"/"+note.ID, map[string]any{"title": "Drydown", "content": "birch"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Drydown", decodeData[domain.Note](t, resp).Title)

	assert.Equal(t, http.StatusNoContent, ts.api.Delete(base+"/"+note.ID).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Patch(base+"/"+note.ID, map[string]any{"content": "x"}).Code)
}
