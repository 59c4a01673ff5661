package handlers

import (
	"net/http"
	"strings"

	"github.com/dataround/link/internal/db"
	"github.com/dataround/link/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VirtualTableHandler handles virtual table endpoints.
type VirtualTableHandler struct {
	db *gorm.DB
}

// NewVirtualTableHandler constructs a VirtualTableHandler.
func NewVirtualTableHandler(db *gorm.DB) *VirtualTableHandler {
	return &VirtualTableHandler{db: db}
}

// listVirtualTablesQuery defines query parameters for listing virtual tables.
type listVirtualTablesQuery struct {
	Page         int    `form:"page,default=1"`
	Limit        int    `form:"limit,default=20"`
	ConnectionID uint64 `form:"connectionId"`
	Search       string `form:"search"`
}

// List returns a paginated list of virtual tables.
func (h *VirtualTableHandler) List(c *gin.Context) {
	var q listVirtualTablesQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	query := h.db.WithContext(c.Request.Context()).Model(&models.VirtualTable{}).
		Where("project_id = ? AND deleted = ?", projectID(c), false)
	if q.ConnectionID != 0 {
		query = query.Where("connection_id = ?", q.ConnectionID)
	}
	if q.Search != "" {
		query = query.Where(db.CaseInsensitiveLikeExpr(h.db, "table_name"), db.NormalizeLikePattern(h.db, "%"+q.Search+"%"))
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	var rows []models.VirtualTable
	offset := (q.Page - 1) * q.Limit
	if errFind := query.Order("created_at DESC").Offset(offset).Limit(q.Limit).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list virtual tables failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"virtualTables": rows,
		"total":         total,
		"page":          q.Page,
		"limit":         q.Limit,
	})
}

// Get returns one virtual table.
func (h *VirtualTableHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var row models.VirtualTable
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("project_id = ? AND deleted = ?", projectID(c), false).
		First(&row, id).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, row)
}

// saveVirtualTableRequest defines the body for creating or updating a
// virtual table.
type saveVirtualTableRequest struct {
	ConnectionID uint64         `json:"connectionId"`
	Database     string         `json:"database"`
	TableName    string         `json:"tableName"`
	TableConfig  datatypes.JSON `json:"tableConfig"`
	Description  string         `json:"description"`
}

func (r *saveVirtualTableRequest) validate() string {
	if r.ConnectionID == 0 {
		return "missing connection"
	}
	if strings.TrimSpace(r.TableName) == "" {
		return "missing table name"
	}
	if len(r.TableConfig) == 0 {
		return "missing table config"
	}
	return ""
}

// Create creates a virtual table.
func (h *VirtualTableHandler) Create(c *gin.Context) {
	var body saveVirtualTableRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if msg := body.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	ctx := c.Request.Context()
	var conn models.Connection
	if errFind := h.db.WithContext(ctx).First(&conn, body.ConnectionID).Error; errFind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown connection"})
		return
	}

	userID := operatorID(c)
	row := models.VirtualTable{
		ConnectionID: body.ConnectionID,
		ProjectID:    projectID(c),
		Database:     body.Database,
		TableName:    strings.TrimSpace(body.TableName),
		TableConfig:  body.TableConfig,
		Description:  body.Description,
		CreateBy:     userID,
		UpdateBy:     userID,
	}
	if errCreate := h.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create virtual table failed"})
		return
	}
	c.JSON(http.StatusCreated, row)
}

// Update updates a virtual table.
func (h *VirtualTableHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body saveVirtualTableRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if msg := body.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	ctx := c.Request.Context()
	var row models.VirtualTable
	if errFind := h.db.WithContext(ctx).
		Where("project_id = ? AND deleted = ?", projectID(c), false).
		First(&row, id).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	row.ConnectionID = body.ConnectionID
	row.Database = body.Database
	row.TableName = strings.TrimSpace(body.TableName)
	row.TableConfig = body.TableConfig
	row.Description = body.Description
	row.UpdateBy = operatorID(c)

	if errSave := h.db.WithContext(ctx).Save(&row).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update virtual table failed"})
		return
	}
	c.JSON(http.StatusOK, row)
}

// Delete soft-deletes a virtual table so saved jobs keep resolving against
// its declared schema until re-edited.
func (h *VirtualTableHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.VirtualTable{}).
		Where("id = ? AND project_id = ? AND deleted = ?", id, projectID(c), false).
		Update("deleted", true)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete virtual table failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
