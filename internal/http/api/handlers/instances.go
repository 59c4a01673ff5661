package handlers

import (
	"net/http"

	"github.com/dataround/link/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InstanceHandler serves job execution history.
type InstanceHandler struct {
	db *gorm.DB
}

// NewInstanceHandler constructs an InstanceHandler.
func NewInstanceHandler(db *gorm.DB) *InstanceHandler {
	return &InstanceHandler{db: db}
}

// listInstancesQuery defines query parameters for listing instances.
type listInstancesQuery struct {
	Page   int  `form:"page,default=1"`
	Limit  int  `form:"limit,default=20"`
	JobID  int  `form:"jobId"`
	Status *int `form:"status"`
}

// List returns a paginated execution history, newest first.
func (h *InstanceHandler) List(c *gin.Context) {
	var q listInstancesQuery
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

	query := h.db.WithContext(c.Request.Context()).Model(&models.JobInstance{}).
		Where("project_id = ?", projectID(c))
	if q.JobID != 0 {
		query = query.Where("job_id = ?", q.JobID)
	}
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	var rows []models.JobInstance
	offset := (q.Page - 1) * q.Limit
	if errFind := query.Order("created_at DESC").Offset(offset).Limit(q.Limit).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list instances failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"instances": rows,
		"total":     total,
		"page":      q.Page,
		"limit":     q.Limit,
	})
}

// Get returns one instance, including the submitted config and captured log.
func (h *InstanceHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var row models.JobInstance
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("project_id = ?", projectID(c)).
		First(&row, id).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, row)
}
