package handlers

import (
	"net/http"
	"testing"

	"github.com/dataround/link/internal/models"
)

func TestVirtualTableCreateRequiresConnection(t *testing.T) {
	db := setupHandlerTestDB(t)
	r, _ := newTestRouter(t, db)

	w := doJSON(t, r, http.MethodPost, "/api/v1/virtual-tables", map[string]any{
		"connectionId": 99, "tableName": "clicks",
		"tableConfig": map[string]any{"fields": []any{}},
	})
	assertStatus(t, w, http.StatusBadRequest)
}

func TestVirtualTableCRUD(t *testing.T) {
	db := setupHandlerTestDB(t)
	r, _ := newTestRouter(t, db)
	conn := seedKafkaConnection(t, db)

	w := doJSON(t, r, http.MethodPost, "/api/v1/virtual-tables", map[string]any{
		"connectionId": conn.ID, "database": "events", "tableName": "clicks",
		"tableConfig": map[string]any{"fields": []map[string]any{{"name": "id", "type": "bigint"}}},
	})
	assertStatus(t, w, http.StatusCreated)
	var created models.VirtualTable
	decodeBody(t, w, &created)
	if created.ID == 0 || created.TableName != "clicks" {
		t.Fatalf("created = %+v", created)
	}

	w = doJSON(t, r, http.MethodPut, "/api/v1/virtual-tables/1", map[string]any{
		"connectionId": conn.ID, "database": "events", "tableName": "clicks_v2",
		"tableConfig": map[string]any{"fields": []map[string]any{{"name": "id", "type": "bigint"}}},
	})
	assertStatus(t, w, http.StatusOK)

	w = doJSON(t, r, http.MethodDelete, "/api/v1/virtual-tables/1", nil)
	assertStatus(t, w, http.StatusNoContent)

	// Soft delete: the row survives but the list no longer shows it.
	var stored models.VirtualTable
	if err := db.First(&stored, created.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if !stored.Deleted {
		t.Fatalf("row not soft-deleted: %+v", stored)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/virtual-tables", nil)
	assertStatus(t, w, http.StatusOK)
	var resp struct {
		Total int64 `json:"total"`
	}
	decodeBody(t, w, &resp)
	if resp.Total != 0 {
		t.Fatalf("deleted table still listed, total = %d", resp.Total)
	}
}
