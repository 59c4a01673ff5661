// Package api wires the console REST routes.
package api

import (
	"github.com/dataround/link/internal/cache"
	"github.com/dataround/link/internal/http/api/handlers"
	"github.com/dataround/link/internal/mapping"
	"github.com/dataround/link/internal/scheduler"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps collects the shared services the handlers need.
type Deps struct {
	DB        *gorm.DB
	Scheduler *scheduler.Scheduler
	Schemas   *mapping.SchemaCache
	Cache     cache.Cache
}

// RegisterRoutes registers all console routes under /api/v1.
func RegisterRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil {
		return
	}

	v1 := r.Group("/api/v1")

	healthHandler := handlers.NewHealthHandler(deps.DB)
	v1.GET("/healthz", healthHandler.Healthz)

	connectorHandler := handlers.NewConnectorHandler(deps.DB)
	v1.GET("/connectors", connectorHandler.List)

	connectionHandler := handlers.NewConnectionHandler(deps.DB, deps.Cache)
	v1.GET("/connections", connectionHandler.List)
	v1.GET("/connections/:id", connectionHandler.Get)
	v1.POST("/connections", connectionHandler.Create)
	v1.PUT("/connections/:id", connectionHandler.Update)
	v1.DELETE("/connections/:id", connectionHandler.Delete)
	v1.POST("/connections/test", connectionHandler.Test)
	v1.GET("/connections/:id/databases", connectionHandler.Databases)
	v1.GET("/connections/:id/tables", connectionHandler.Tables)
	v1.GET("/connections/:id/columns", connectionHandler.Columns)
	v1.POST("/connections/upload", connectionHandler.UploadConfig)

	mappingHandler := handlers.NewMappingHandler(deps.DB, deps.Schemas)
	v1.POST("/mappings/resolve", mappingHandler.Resolve)
	v1.POST("/mappings/reassign", mappingHandler.Reassign)
	v1.POST("/mappings/delete-row", mappingHandler.DeleteRow)
	v1.POST("/mappings/validate", mappingHandler.Validate)

	virtualTableHandler := handlers.NewVirtualTableHandler(deps.DB)
	v1.GET("/virtual-tables", virtualTableHandler.List)
	v1.GET("/virtual-tables/:id", virtualTableHandler.Get)
	v1.POST("/virtual-tables", virtualTableHandler.Create)
	v1.PUT("/virtual-tables/:id", virtualTableHandler.Update)
	v1.DELETE("/virtual-tables/:id", virtualTableHandler.Delete)

	jobHandler := handlers.NewJobHandler(deps.DB, deps.Scheduler)
	v1.GET("/jobs", jobHandler.List)
	v1.GET("/jobs/:id", jobHandler.Get)
	v1.POST("/jobs", jobHandler.Save)
	v1.DELETE("/jobs/:id", jobHandler.Delete)
	v1.POST("/jobs/:id/execute", jobHandler.Execute)
	v1.POST("/cron/decode", jobHandler.DecodeCron)
	v1.POST("/cron/encode", jobHandler.EncodeCron)

	instanceHandler := handlers.NewInstanceHandler(deps.DB)
	v1.GET("/instances", instanceHandler.List)
	v1.GET("/instances/:id", instanceHandler.Get)

	settingHandler := handlers.NewSettingHandler(deps.DB)
	v1.GET("/settings", settingHandler.List)
	v1.PUT("/settings", settingHandler.Update)
}
