package preset

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/persona-chat/backend/internal/model/preset"
)

func serve(store preset.Store) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	New(store).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/presets", nil))
	return rec
}

func TestListPresets(t *testing.T) {
	rec := serve(preset.NewMemoryStore(preset.Seed()))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []preset.Preset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, len(preset.Seed()))
	assert.Equal(t, "coffee-roaster", got[0].ID)
}

func TestListPresetsEmpty(t *testing.T) {
	rec := serve(preset.NewMemoryStore(nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
