// Package schema introspects source and target systems for the databases,
// tables and columns the job wizard offers. JDBC-style connections are
// introspected live; message-queue and file connections resolve through
// their virtual table definitions.
package schema

import (
	"context"

	"github.com/dataround/link/internal/mapping"
)

// Introspector lists the schema objects of one connection.
type Introspector interface {
	// Databases lists database (or namespace) names.
	Databases(ctx context.Context) ([]string, error)
	// Tables lists table names within a database.
	Tables(ctx context.Context, database string) ([]string, error)
	// Columns lists the columns of a table in declaration order.
	Columns(ctx context.Context, database, table string) ([]mapping.Column, error)
	// Close releases any held resources.
	Close() error
}
