package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dataround/link/internal/mapping"
	"github.com/dataround/link/internal/models"
	"github.com/dataround/link/internal/schema"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MappingHandler serves the field-mapping step of the job wizard: resolving
// proposals for a table pair, editing rows, and validating the result.
type MappingHandler struct {
	db      *gorm.DB
	schemas *mapping.SchemaCache
}

// NewMappingHandler constructs a MappingHandler.
func NewMappingHandler(db *gorm.DB, schemas *mapping.SchemaCache) *MappingHandler {
	return &MappingHandler{db: db, schemas: schemas}
}

// resolveRequest identifies a table pair and the match method to resolve
// with. Refresh forces a schema refetch, discarding the cached columns.
type resolveRequest struct {
	SourceConnID uint64              `json:"sourceConnId"`
	TargetConnID uint64              `json:"targetConnId"`
	SourceDbName string              `json:"sourceDbName"`
	TargetDbName string              `json:"targetDbName"`
	SourceTable  string              `json:"sourceTable"`
	TargetTable  string              `json:"targetTable"`
	MatchMethod  mapping.MatchMethod `json:"matchMethod"`
	Refresh      bool                `json:"refresh"`
}

// cacheKey qualifies a table name with its connection and database so
// same-named tables on different endpoints never collide in the cache.
func cacheKey(connID uint64, database, table string) string {
	return fmt.Sprintf("%d.%s.%s", connID, database, table)
}

// Resolve fetches (or reuses) the column lists for the pair and returns a
// fresh mapping proposal. Changing the match method re-resolves from the
// columns; manual edits to the previous proposal are not carried over.
func (h *MappingHandler) Resolve(c *gin.Context) {
	var body resolveRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.SourceTable == "" || body.TargetTable == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing table names"})
		return
	}
	if body.MatchMethod != mapping.MatchByName && body.MatchMethod != mapping.MatchByOrder {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match method"})
		return
	}

	sourceKey := cacheKey(body.SourceConnID, body.SourceDbName, body.SourceTable)
	targetKey := cacheKey(body.TargetConnID, body.TargetDbName, body.TargetTable)
	if body.Refresh {
		h.schemas.Invalidate(sourceKey, targetKey)
	}

	cols, ok := h.schemas.Get(sourceKey, targetKey)
	if !ok {
		sourceCols, errSource := h.fetchColumns(c, body.SourceConnID, body.SourceDbName, body.SourceTable)
		if errSource != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": errSource.Error()})
			return
		}
		targetCols, errTarget := h.fetchColumns(c, body.TargetConnID, body.TargetDbName, body.TargetTable)
		if errTarget != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": errTarget.Error()})
			return
		}
		cols = mapping.PairColumns{SourceColumns: sourceCols, TargetColumns: targetCols}
		h.schemas.Put(sourceKey, targetKey, cols)
	}

	rows := mapping.Resolve(cols.SourceColumns, cols.TargetColumns, body.MatchMethod)
	c.JSON(http.StatusOK, gin.H{
		"sourceColumns": cols.SourceColumns,
		"targetColumns": cols.TargetColumns,
		"fieldMapping":  rows,
	})
}

// fetchColumns introspects one table's columns through the connection's
// introspector.
func (h *MappingHandler) fetchColumns(c *gin.Context, connID uint64, database, table string) ([]mapping.Column, error) {
	ctx := c.Request.Context()
	var conn models.Connection
	if errFind := h.db.WithContext(ctx).First(&conn, connID).Error; errFind != nil {
		return nil, fmt.Errorf("connection %d: %w", connID, errFind)
	}
	var connector models.Connector
	if errFind := h.db.WithContext(ctx).Where("name = ?", conn.Connector).First(&connector).Error; errFind != nil {
		return nil, fmt.Errorf("connector %q: %w", conn.Connector, errFind)
	}

	introspector, errOpen := schema.ForConnection(ctx, h.db, &conn, &connector)
	if errOpen != nil {
		return nil, errOpen
	}
	defer introspector.Close()
	return introspector.Columns(ctx, database, table)
}

// reassignRequest edits one row of a proposal: point targetFieldName at a
// different source column.
type reassignRequest struct {
	Rows            []mapping.FieldMapping `json:"rows"`
	TargetFieldName string                 `json:"targetFieldName"`
	SourceFieldName string                 `json:"sourceFieldName"`
	SourceColumns   []mapping.Column       `json:"sourceColumns"`
}

// Reassign applies a manual source-field override to the submitted rows.
func (h *MappingHandler) Reassign(c *gin.Context) {
	var body reassignRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	rows, err := mapping.Reassign(body.Rows, body.TargetFieldName, body.SourceFieldName, body.SourceColumns)
	if err != nil {
		var lookupErr *mapping.LookupError
		if errors.As(err, &lookupErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": lookupErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reassign failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fieldMapping": rows})
}

// deleteRowRequest removes the row for targetFieldName from a proposal.
type deleteRowRequest struct {
	Rows            []mapping.FieldMapping `json:"rows"`
	TargetFieldName string                 `json:"targetFieldName"`
}

// DeleteRow removes a row from the submitted proposal.
func (h *MappingHandler) DeleteRow(c *gin.Context) {
	var body deleteRowRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fieldMapping": mapping.Delete(body.Rows, body.TargetFieldName)})
}

// validateRequest checks a full set of table mappings before job save.
type validateRequest struct {
	TableMapping []mapping.TableMapping `json:"tableMapping"`
}

// Validate reports every table and field that blocks saving the job.
func (h *MappingHandler) Validate(c *gin.Context) {
	var body validateRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	result := mapping.ValidateCompleteness(body.TableMapping)
	c.JSON(http.StatusOK, result)
}
