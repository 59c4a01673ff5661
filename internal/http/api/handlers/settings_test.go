package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dataround/link/internal/models"
	"github.com/dataround/link/internal/settings"
)

func TestSettingsUpdateAndList(t *testing.T) {
	db := setupHandlerTestDB(t)
	r, _ := newTestRouter(t, db)

	w := doJSON(t, r, http.MethodPut, "/api/v1/settings", map[string]any{
		"settings": map[string]any{
			settings.SiteNameKey:          "Link Console",
			settings.SchedulerPoolSizeKey: 20,
		},
	})
	assertStatus(t, w, http.StatusOK)

	if got := settings.StringValue(settings.SiteNameKey, ""); got != "Link Console" {
		t.Fatalf("snapshot site name = %q", got)
	}
	if got := settings.IntValue(settings.SchedulerPoolSizeKey, 0); got != 20 {
		t.Fatalf("snapshot pool size = %d", got)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/settings", nil)
	assertStatus(t, w, http.StatusOK)
	var resp struct {
		Settings map[string]json.RawMessage `json:"settings"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Settings) != 2 {
		t.Fatalf("settings = %v", resp.Settings)
	}

	// Upsert replaces the stored value.
	w = doJSON(t, r, http.MethodPut, "/api/v1/settings", map[string]any{
		"settings": map[string]any{settings.SchedulerPoolSizeKey: 5},
	})
	assertStatus(t, w, http.StatusOK)

	var row models.Setting
	if err := db.Where("key = ?", settings.SchedulerPoolSizeKey).First(&row).Error; err != nil {
		t.Fatalf("load setting: %v", err)
	}
	if string(row.Value) != "5" {
		t.Fatalf("stored value = %s", row.Value)
	}
}

func TestSettingsUpdateRejectsEmpty(t *testing.T) {
	db := setupHandlerTestDB(t)
	r, _ := newTestRouter(t, db)

	w := doJSON(t, r, http.MethodPut, "/api/v1/settings", map[string]any{"settings": map[string]any{}})
	assertStatus(t, w, http.StatusBadRequest)
}
