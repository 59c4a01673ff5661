package schema

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dataround/link/internal/mapping"
	"github.com/dataround/link/internal/models"
	"gorm.io/gorm"
)

// virtualTableConfig is the declared-schema part of VirtualTable.TableConfig.
type virtualTableConfig struct {
	Fields []virtualField `json:"fields"`
}

type virtualField struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"primaryKey"`
	Nullable   bool   `json:"nullable"`
}

// VirtualIntrospector serves schema lookups from virtual table definitions
// stored in the metadata database, for connectors without introspectable
// schemas.
type VirtualIntrospector struct {
	db           *gorm.DB
	connectionID uint64
}

// NewVirtual constructs an introspector over the virtual tables of one
// connection.
func NewVirtual(db *gorm.DB, connectionID uint64) *VirtualIntrospector {
	return &VirtualIntrospector{db: db, connectionID: connectionID}
}

// Databases lists the distinct logical database names declared on the
// connection's virtual tables.
func (v *VirtualIntrospector) Databases(ctx context.Context) ([]string, error) {
	var names []string
	err := v.db.WithContext(ctx).
		Model(&models.VirtualTable{}).
		Where("connection_id = ? AND deleted = ?", v.connectionID, false).
		Distinct("database_name").
		Order("database_name ASC").
		Pluck("database_name", &names).Error
	return names, err
}

// Tables lists virtual table names within a logical database.
func (v *VirtualIntrospector) Tables(ctx context.Context, database string) ([]string, error) {
	var names []string
	err := v.db.WithContext(ctx).
		Model(&models.VirtualTable{}).
		Where("connection_id = ? AND database_name = ? AND deleted = ?", v.connectionID, database, false).
		Order("table_name ASC").
		Pluck("table_name", &names).Error
	return names, err
}

// Columns returns the declared fields of a virtual table.
func (v *VirtualIntrospector) Columns(ctx context.Context, database, table string) ([]mapping.Column, error) {
	var vt models.VirtualTable
	err := v.db.WithContext(ctx).
		Where("connection_id = ? AND database_name = ? AND table_name = ? AND deleted = ?",
			v.connectionID, database, table, false).
		First(&vt).Error
	if err != nil {
		return nil, fmt.Errorf("schema: virtual table %s.%s: %w", database, table, err)
	}

	var cfg virtualTableConfig
	if len(vt.TableConfig) > 0 {
		if errParse := json.Unmarshal(vt.TableConfig, &cfg); errParse != nil {
			return nil, fmt.Errorf("schema: virtual table %s.%s config: %w", database, table, errParse)
		}
	}

	cols := make([]mapping.Column, 0, len(cfg.Fields))
	for _, f := range cfg.Fields {
		cols = append(cols, mapping.Column{
			Name:       f.Name,
			Type:       f.Type,
			PrimaryKey: f.PrimaryKey,
			Nullable:   f.Nullable,
		})
	}
	return cols, nil
}

// Close is a no-op; the metadata connection is shared.
func (v *VirtualIntrospector) Close() error { return nil }
