package handlers

import (
	"net/http"

	"github.com/dataround/link/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ConnectorHandler serves the connector catalog.
type ConnectorHandler struct {
	db *gorm.DB
}

// NewConnectorHandler constructs a ConnectorHandler.
func NewConnectorHandler(db *gorm.DB) *ConnectorHandler {
	return &ConnectorHandler{db: db}
}

// listConnectorsQuery defines query parameters for listing connectors.
type listConnectorsQuery struct {
	Kind string `form:"kind"` // source, sink or empty for all
}

// List returns the connector catalog grouped by type, optionally restricted
// to connectors usable at one end of a job.
func (h *ConnectorHandler) List(c *gin.Context) {
	var q listConnectorsQuery
	if errBind := c.ShouldBindQuery(&q); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}

	query := h.db.WithContext(c.Request.Context()).Model(&models.Connector{})
	switch q.Kind {
	case "source":
		query = query.Where("support_source = ?", true)
	case "sink":
		query = query.Where("support_sink = ?", true)
	case "":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
		return
	}

	var rows []models.Connector
	if errFind := query.Order("type ASC, name ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list connectors failed"})
		return
	}

	grouped := make(map[string][]models.Connector)
	for _, row := range rows {
		grouped[row.Type] = append(grouped[row.Type], row)
	}
	c.JSON(http.StatusOK, gin.H{"connectors": grouped, "total": len(rows)})
}
