package db

import (
	"fmt"

	"github.com/dataround/link/internal/models"
	"gorm.io/gorm"
)

// Migrate applies schema migrations for all console tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.Connector{},
		&models.Connection{},
		&models.VirtualTable{},
		&models.Job{},
		&models.JobInstance{},
		&models.Setting{},
	)
}

// connectorCatalog is the built-in connector set, inserted on first start.
var connectorCatalog = []models.Connector{
	{Name: "MySQL", Type: "database", PluginName: "JDBC-MySQL", SupportSource: true, SupportSink: true},
	{Name: "PostgreSQL", Type: "database", PluginName: "JDBC-PostgreSQL", SupportSource: true, SupportSink: true},
	{Name: "Oracle", Type: "database", PluginName: "JDBC-Oracle", SupportSource: true, SupportSink: true},
	{Name: "SQLServer", Type: "database", PluginName: "JDBC-SQLServer", SupportSource: true, SupportSink: true},
	{Name: "Kafka", Type: "mq", PluginName: "KAFKA", SupportSource: true, SupportSink: true, IsStream: true, VirtualTable: true},
	{Name: "LocalFile", Type: "file", PluginName: "File-Local", SupportSource: true, SupportSink: true},
}

// SeedConnectors inserts any missing built-in connectors. Existing rows are
// left untouched so operators can adjust capabilities.
func SeedConnectors(conn *gorm.DB) error {
	for _, connector := range connectorCatalog {
		row := connector
		if err := conn.Where("name = ?", connector.Name).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("db: seed connector %s: %w", connector.Name, err)
		}
	}
	return nil
}
