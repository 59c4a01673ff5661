package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dataround/link/internal/cache"
	"github.com/dataround/link/internal/mapping"
	"github.com/dataround/link/internal/models"
	"github.com/dataround/link/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(
		&models.Connector{},
		&models.Connection{},
		&models.VirtualTable{},
		&models.Job{},
		&models.JobInstance{},
		&models.Setting{},
	); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

// stubExecutor records executions without contacting an engine.
type stubExecutor struct {
	calls int
	err   error
}

func (e *stubExecutor) Execute(_ context.Context, _ *models.Job, _ *models.JobInstance) error {
	e.calls++
	return e.err
}

// newTestRouter builds a router with every handler registered the way the
// server does.
func newTestRouter(t *testing.T, db *gorm.DB) (*gin.Engine, *stubExecutor) {
	t.Helper()
	exec := &stubExecutor{}
	sched := scheduler.New(db, exec)
	schemas := mapping.NewSchemaCache()
	fileCache := cache.NewMemory()

	r := gin.New()
	v1 := r.Group("/api/v1")

	connectorHandler := NewConnectorHandler(db)
	v1.GET("/connectors", connectorHandler.List)

	connectionHandler := NewConnectionHandler(db, fileCache)
	v1.GET("/connections", connectionHandler.List)
	v1.GET("/connections/:id", connectionHandler.Get)
	v1.POST("/connections", connectionHandler.Create)
	v1.PUT("/connections/:id", connectionHandler.Update)
	v1.DELETE("/connections/:id", connectionHandler.Delete)
	v1.GET("/connections/:id/databases", connectionHandler.Databases)
	v1.GET("/connections/:id/tables", connectionHandler.Tables)
	v1.GET("/connections/:id/columns", connectionHandler.Columns)
	v1.POST("/connections/upload", connectionHandler.UploadConfig)

	mappingHandler := NewMappingHandler(db, schemas)
	v1.POST("/mappings/resolve", mappingHandler.Resolve)
	v1.POST("/mappings/reassign", mappingHandler.Reassign)
	v1.POST("/mappings/delete-row", mappingHandler.DeleteRow)
	v1.POST("/mappings/validate", mappingHandler.Validate)

	virtualTableHandler := NewVirtualTableHandler(db)
	v1.GET("/virtual-tables", virtualTableHandler.List)
	v1.GET("/virtual-tables/:id", virtualTableHandler.Get)
	v1.POST("/virtual-tables", virtualTableHandler.Create)
	v1.PUT("/virtual-tables/:id", virtualTableHandler.Update)
	v1.DELETE("/virtual-tables/:id", virtualTableHandler.Delete)

	jobHandler := NewJobHandler(db, sched)
	v1.GET("/jobs", jobHandler.List)
	v1.GET("/jobs/:id", jobHandler.Get)
	v1.POST("/jobs", jobHandler.Save)
	v1.DELETE("/jobs/:id", jobHandler.Delete)
	v1.POST("/jobs/:id/execute", jobHandler.Execute)
	v1.POST("/cron/decode", jobHandler.DecodeCron)
	v1.POST("/cron/encode", jobHandler.EncodeCron)

	instanceHandler := NewInstanceHandler(db)
	v1.GET("/instances", instanceHandler.List)
	v1.GET("/instances/:id", instanceHandler.Get)

	settingHandler := NewSettingHandler(db)
	v1.GET("/settings", settingHandler.List)
	v1.PUT("/settings", settingHandler.Update)

	return r, exec
}

// doJSON performs a request with a JSON body and returns the recorder.
func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a response body into out.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// seedConnector inserts one connector row.
func seedConnector(t *testing.T, db *gorm.DB, connector models.Connector) models.Connector {
	t.Helper()
	if err := db.Create(&connector).Error; err != nil {
		t.Fatalf("seed connector: %v", err)
	}
	return connector
}

// seedKafkaConnection inserts a virtual-table connector and a connection
// using it, so schema lookups resolve against the metadata database.
func seedKafkaConnection(t *testing.T, db *gorm.DB) models.Connection {
	t.Helper()
	seedConnector(t, db, models.Connector{
		Name: "Kafka", Type: "mq", PluginName: "KAFKA",
		SupportSource: true, SupportSink: true, IsStream: true, VirtualTable: true,
	})
	conn := models.Connection{ProjectID: 1, Name: "bus", Connector: "Kafka", Host: "broker", Port: 9092}
	if err := db.Create(&conn).Error; err != nil {
		t.Fatalf("seed connection: %v", err)
	}
	return conn
}

// seedVirtualTable declares a virtual table with the given fields.
func seedVirtualTable(t *testing.T, db *gorm.DB, connID uint64, database, table string, fields string) models.VirtualTable {
	t.Helper()
	vt := models.VirtualTable{
		ConnectionID: connID,
		ProjectID:    1,
		Database:     database,
		TableName:    table,
		TableConfig:  []byte(`{"fields":` + fields + `}`),
	}
	if err := db.Create(&vt).Error; err != nil {
		t.Fatalf("seed virtual table: %v", err)
	}
	return vt
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body %s", w.Code, want, w.Body.String())
	}
}
