package schema

import (
	"context"

	"github.com/dataround/link/internal/models"
	"gorm.io/gorm"
)

// ForConnection picks the introspector for a connection: virtual-table
// connectors resolve against declared schemas in the metadata database,
// everything else is introspected live.
func ForConnection(ctx context.Context, metaDB *gorm.DB, conn *models.Connection, connector *models.Connector) (Introspector, error) {
	if connector != nil && connector.VirtualTable {
		return NewVirtual(metaDB, conn.ID), nil
	}
	return OpenSQL(ctx, conn)
}
