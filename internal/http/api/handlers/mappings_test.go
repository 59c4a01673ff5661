package handlers

import (
	"net/http"
	"testing"

	"github.com/dataround/link/internal/mapping"
)

type resolveResponse struct {
	SourceColumns []mapping.Column       `json:"sourceColumns"`
	TargetColumns []mapping.Column       `json:"targetColumns"`
	FieldMapping  []mapping.FieldMapping `json:"fieldMapping"`
}

func TestMappingResolveByName(t *testing.T) {
	db := setupHandlerTestDB(t)
	r, _ := newTestRouter(t, db)
	conn := seedKafkaConnection(t, db)
	seedVirtualTable(t, db, conn.ID, "events", "clicks",
		`[{"name":"ID","type":"bigint","primaryKey":true},{"name":"url","type":"string"}]`)
	seedVirtualTable(t, db, conn.ID, "events", "clicks_copy",
		`[{"name":"id","type":"bigint","primaryKey":true},{"name":"referrer","type":"string"}]`)

	w := doJSON(t, r, http.MethodPost, "/api/v1/mappings/resolve", map[string]any{
		"sourceConnId": conn.ID, "targetConnId": conn.ID,
		"sourceDbName": "events", "targetDbName": "events",
		"sourceTable": "clicks", "targetTable": "clicks_copy",
		"matchMethod": int(mapping.MatchByName),
	})
	assertStatus(t, w, http.StatusOK)

	var resp resolveResponse
	decodeBody(t, w, &resp)
	if len(resp.FieldMapping) != 2 {
		t.Fatalf("rows = %+v", resp.FieldMapping)
	}
	// "id" matches "ID" ignoring case; "referrer" has no source.
	if resp.FieldMapping[0].SourceFieldName != "ID" {
		t.Fatalf("row 0 = %+v", resp.FieldMapping[0])
	}
	if resp.FieldMapping[1].SourceFieldName != "" {
		t.Fatalf("row 1 = %+v", resp.FieldMapping[1])
	}
}

func TestMappingResolveCachesUntilRefresh(t *testing.T) {
	db := setupHandlerTestDB(t)
	r, _ := newTestRouter(t, db)
	conn := seedKafkaConnection(t, db)
	src := seedVirtualTable(t, db, conn.ID, "events", "clicks", `[{"name":"id","type":"bigint"}]`)
	seedVirtualTable(t, db, conn.ID, "events", "clicks_copy", `[{"name":"id","type":"bigint"}]`)

	body := map[string]any{
		"sourceConnId": conn.ID, "targetConnId": conn.ID,
		"sourceDbName": "events", "targetDbName": "events",
		"sourceTable": "clicks", "targetTable": "clicks_copy",
		"matchMethod": int(mapping.MatchByName),
	}
	w := doJSON(t, r, http.MethodPost, "/api/v1/mappings/resolve", body)
	assertStatus(t, w, http.StatusOK)

	// Add a column behind the cache's back.
	src.TableConfig = []byte(`{"fields":[{"name":"id","type":"bigint"},{"name":"ts","type":"timestamp"}]}`)
	if err := db.Save(&src).Error; err != nil {
		t.Fatalf("update virtual table: %v", err)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/mappings/resolve", body)
	assertStatus(t, w, http.StatusOK)
	var cached resolveResponse
	decodeBody(t, w, &cached)
	if len(cached.SourceColumns) != 1 {
		t.Fatalf("expected cached columns, got %+v", cached.SourceColumns)
	}

	body["refresh"] = true
	w = doJSON(t, r, http.MethodPost, "/api/v1/mappings/resolve", body)
	assertStatus(t, w, http.StatusOK)
	var fresh resolveResponse
	decodeBody(t, w, &fresh)
	if len(fresh.SourceColumns) != 2 {
		t.Fatalf("refresh did not refetch, got %+v", fresh.SourceColumns)
	}
}

func TestMappingResolveRejectsBadMethod(t *testing.T) {
	db := setupHandlerTestDB(t)
	r, _ := newTestRouter(t, db)

	w := doJSON(t, r, http.MethodPost, "/api/v1/mappings/resolve", map[string]any{
		"sourceTable": "a", "targetTable": "b", "matchMethod": 9,
	})
	assertStatus(t, w, http.StatusBadRequest)
}

func TestMappingReassignEndpoint(t *testing.T) {
	db := setupHandlerTestDB(t)
	r, _ := newTestRouter(t, db)

	rows := []mapping.FieldMapping{{SourceFieldName: "a", TargetFieldName: "x"}}
	cols := []mapping.Column{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}}

	w := doJSON(t, r, http.MethodPost, "/api/v1/mappings/reassign", map[string]any{
		"rows": rows, "targetFieldName": "x", "sourceFieldName": "b", "sourceColumns": cols,
	})
	assertStatus(t, w, http.StatusOK)
	var resp struct {
		FieldMapping []mapping.FieldMapping `json:"fieldMapping"`
	}
	decodeBody(t, w, &resp)
	if resp.FieldMapping[0].SourceFieldName != "b" {
		t.Fatalf("rows = %+v", resp.FieldMapping)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/mappings/reassign", map[string]any{
		"rows": rows, "targetFieldName": "missing", "sourceFieldName": "b", "sourceColumns": cols,
	})
	assertStatus(t, w, http.StatusBadRequest)
}

func TestMappingDeleteRowEndpoint(t *testing.T) {
	db := setupHandlerTestDB(t)
	r, _ := newTestRouter(t, db)

	rows := []mapping.FieldMapping{
		{SourceFieldName: "a", TargetFieldName: "x"},
		{SourceFieldName: "b", TargetFieldName: "y"},
	}
	w := doJSON(t, r, http.MethodPost, "/api/v1/mappings/delete-row", map[string]any{
		"rows": rows, "targetFieldName": "x",
	})
	assertStatus(t, w, http.StatusOK)
	var resp struct {
		FieldMapping []mapping.FieldMapping `json:"fieldMapping"`
	}
	decodeBody(t, w, &resp)
	if len(resp.FieldMapping) != 1 || resp.FieldMapping[0].TargetFieldName != "y" {
		t.Fatalf("rows = %+v", resp.FieldMapping)
	}
}

func TestMappingValidateEndpoint(t *testing.T) {
	db := setupHandlerTestDB(t)
	r, _ := newTestRouter(t, db)

	w := doJSON(t, r, http.MethodPost, "/api/v1/mappings/validate", map[string]any{
		"tableMapping": []mapping.TableMapping{
			{TargetTable: "empty"},
			{TargetTable: "partial", FieldMapping: []mapping.FieldMapping{
				{SourceFieldName: "", TargetFieldName: "col"},
			}},
		},
	})
	assertStatus(t, w, http.StatusOK)

	var result mapping.ValidationResult
	decodeBody(t, w, &result)
	if result.Valid {
		t.Fatalf("incomplete mapping validated")
	}
	if len(result.InvalidTables) != 2 || len(result.InvalidFields) != 1 {
		t.Fatalf("result = %+v", result)
	}
}
