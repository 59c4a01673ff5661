package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dataround/link/internal/cache"
	"github.com/dataround/link/internal/db"
	"github.com/dataround/link/internal/models"
	"github.com/dataround/link/internal/schema"
	"github.com/dataround/link/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// uploadTTL bounds how long an uploaded connector config file stays cached
// before the wizard must re-upload it.
const uploadTTL = time.Hour

// ConnectionHandler handles connection endpoints.
type ConnectionHandler struct {
	db    *gorm.DB
	cache cache.Cache
}

// NewConnectionHandler constructs a ConnectionHandler.
func NewConnectionHandler(db *gorm.DB, fileCache cache.Cache) *ConnectionHandler {
	return &ConnectionHandler{db: db, cache: fileCache}
}

// listConnectionsQuery defines query parameters for listing connections.
type listConnectionsQuery struct {
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=20"`
	Search    string `form:"search"`
	Connector string `form:"connector"`
}

// List returns a paginated list of connections for the active project.
func (h *ConnectionHandler) List(c *gin.Context) {
	var q listConnectionsQuery
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

	query := h.db.WithContext(c.Request.Context()).Model(&models.Connection{}).
		Where("project_id = ?", projectID(c))
	if q.Search != "" {
		query = query.Where(db.CaseInsensitiveLikeExpr(h.db, "name"), db.NormalizeLikePattern(h.db, "%"+q.Search+"%"))
	}
	if q.Connector != "" {
		query = query.Where("connector = ?", q.Connector)
	}

	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	var rows []models.Connection
	offset := (q.Page - 1) * q.Limit
	if errFind := query.Order("created_at DESC").Offset(offset).Limit(q.Limit).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list connections failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connections": rows,
		"total":       total,
		"page":        q.Page,
		"limit":       q.Limit,
	})
}

// Get returns one connection.
func (h *ConnectionHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var row models.Connection
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("project_id = ?", projectID(c)).
		First(&row, id).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, row)
}

// saveConnectionRequest defines the body for creating or updating a
// connection. Passwd is optional on update; an empty value keeps the stored
// password.
type saveConnectionRequest struct {
	Name        string            `json:"name"`
	Connector   string            `json:"connector"`
	Host        string            `json:"host"`
	Port        int               `json:"port"`
	User        string            `json:"user"`
	Passwd      string            `json:"passwd"`
	Config      datatypes.JSONMap `json:"config"`
	Description string            `json:"description"`
}

func (r *saveConnectionRequest) validate() string {
	if strings.TrimSpace(r.Name) == "" {
		return "missing name"
	}
	if strings.TrimSpace(r.Connector) == "" {
		return "missing connector"
	}
	return ""
}

// Create creates a new connection.
func (h *ConnectionHandler) Create(c *gin.Context) {
	var body saveConnectionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if msg := body.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	ctx := c.Request.Context()
	var connector models.Connector
	if errFind := h.db.WithContext(ctx).Where("name = ?", body.Connector).First(&connector).Error; errFind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown connector"})
		return
	}

	userID := operatorID(c)
	row := models.Connection{
		ProjectID:   projectID(c),
		Name:        strings.TrimSpace(body.Name),
		Connector:   connector.Name,
		Host:        body.Host,
		Port:        body.Port,
		User:        body.User,
		Passwd:      body.Passwd,
		Config:      body.Config,
		Description: body.Description,
		CreateBy:    userID,
		UpdateBy:    userID,
	}
	if errCreate := h.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create connection failed"})
		return
	}
	c.JSON(http.StatusCreated, row)
}

// Update updates an existing connection.
func (h *ConnectionHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body saveConnectionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if msg := body.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	ctx := c.Request.Context()
	var row models.Connection
	if errFind := h.db.WithContext(ctx).Where("project_id = ?", projectID(c)).First(&row, id).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	row.Name = strings.TrimSpace(body.Name)
	row.Connector = body.Connector
	row.Host = body.Host
	row.Port = body.Port
	row.User = body.User
	if body.Passwd != "" {
		row.Passwd = body.Passwd
	}
	row.Config = body.Config
	row.Description = body.Description
	row.UpdateBy = operatorID(c)

	if errSave := h.db.WithContext(ctx).Save(&row).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update connection failed"})
		return
	}
	c.JSON(http.StatusOK, row)
}

// Delete removes a connection. Connections referenced by jobs cannot be
// removed; virtual tables of the connection go with it.
func (h *ConnectionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	ctx := c.Request.Context()
	var referencing int64
	if errCount := h.db.WithContext(ctx).Model(&models.Job{}).
		Where(datatypes.JSONQuery("config").Equals(id, "sourceConnId")).
		Or(datatypes.JSONQuery("config").Equals(id, "targetConnId")).
		Count(&referencing).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "check references failed"})
		return
	}
	if referencing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "connection is used by jobs"})
		return
	}

	res := h.db.WithContext(ctx).Where("project_id = ?", projectID(c)).Delete(&models.Connection{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete connection failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.db.WithContext(ctx).Where("connection_id = ?", id).Delete(&models.VirtualTable{})
	c.Status(http.StatusNoContent)
}

// Test verifies a connection definition by opening it and listing databases.
// The body is the same shape as create, so unsaved wizard input can be
// tested.
func (h *ConnectionHandler) Test(c *gin.Context) {
	var body saveConnectionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	var connector models.Connector
	if errFind := h.db.WithContext(ctx).Where("name = ?", body.Connector).First(&connector).Error; errFind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown connector"})
		return
	}

	log.WithFields(log.Fields{
		"connector": connector.Name,
		"host":      body.Host,
		"user":      body.User,
		"passwd":    util.MaskSecret(body.Passwd),
	}).Debug("testing connection")

	conn := models.Connection{
		Connector: connector.Name,
		Host:      body.Host,
		Port:      body.Port,
		User:      body.User,
		Passwd:    body.Passwd,
		Config:    body.Config,
	}
	introspector, errOpen := schema.ForConnection(ctx, h.db, &conn, &connector)
	if errOpen != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": errOpen.Error()})
		return
	}
	defer introspector.Close()

	if _, errList := introspector.Databases(ctx); errList != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": errList.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Databases lists the databases of a stored connection.
func (h *ConnectionHandler) Databases(c *gin.Context) {
	h.introspect(c, func(ctx *gin.Context, in schema.Introspector) (any, error) {
		return in.Databases(ctx.Request.Context())
	})
}

// Tables lists the tables of one database of a stored connection.
func (h *ConnectionHandler) Tables(c *gin.Context) {
	database := strings.TrimSpace(c.Query("database"))
	if database == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing database"})
		return
	}
	h.introspect(c, func(ctx *gin.Context, in schema.Introspector) (any, error) {
		return in.Tables(ctx.Request.Context(), database)
	})
}

// Columns lists the columns of one table of a stored connection.
func (h *ConnectionHandler) Columns(c *gin.Context) {
	database := strings.TrimSpace(c.Query("database"))
	table := strings.TrimSpace(c.Query("table"))
	if database == "" || table == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing database or table"})
		return
	}
	h.introspect(c, func(ctx *gin.Context, in schema.Introspector) (any, error) {
		return in.Columns(ctx.Request.Context(), database, table)
	})
}

// introspect opens the connection's introspector and serves one lookup.
func (h *ConnectionHandler) introspect(c *gin.Context, lookup func(*gin.Context, schema.Introspector) (any, error)) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	ctx := c.Request.Context()
	var conn models.Connection
	if errFind := h.db.WithContext(ctx).Where("project_id = ?", projectID(c)).First(&conn, id).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	var connector models.Connector
	if errFind := h.db.WithContext(ctx).Where("name = ?", conn.Connector).First(&connector).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "connector missing"})
		return
	}

	introspector, errOpen := schema.ForConnection(ctx, h.db, &conn, &connector)
	if errOpen != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": errOpen.Error()})
		return
	}
	defer introspector.Close()

	result, errLookup := lookup(c, introspector)
	if errLookup != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": errLookup.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// UploadConfig stores an uploaded connector config file (certificates,
// schema files) in the shared cache and returns the key the save request
// references.
func (h *ConnectionHandler) UploadConfig(c *gin.Context) {
	file, errForm := c.FormFile("file")
	if errForm != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	if file.Size > 1<<20 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}

	src, errOpen := file.Open()
	if errOpen != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read upload failed"})
		return
	}
	defer src.Close()
	content, errRead := io.ReadAll(src)
	if errRead != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read upload failed"})
		return
	}

	key := "upload:" + uuid.NewString()
	if errPut := h.cache.Put(c.Request.Context(), key, string(content), uploadTTL); errPut != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "name": file.Filename, "size": file.Size})
}
