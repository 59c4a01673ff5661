package schema

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/dataround/link/internal/mapping"
	"github.com/dataround/link/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// SQLIntrospector introspects PostgreSQL-family connections through
// information_schema.
type SQLIntrospector struct {
	db *sql.DB
}

// OpenSQL connects to the endpoint described by the connection record.
func OpenSQL(ctx context.Context, conn *models.Connection) (*SQLIntrospector, error) {
	dsn := postgresDSN(conn)
	cfg, errParse := pgx.ParseConfig(dsn)
	if errParse != nil {
		return nil, fmt.Errorf("schema: parse dsn for connection %d: %w", conn.ID, errParse)
	}
	sqlDB := stdlib.OpenDB(*cfg)
	if errPing := sqlDB.PingContext(ctx); errPing != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("schema: connect %s: %w", conn.Name, errPing)
	}
	return &SQLIntrospector{db: sqlDB}, nil
}

// Databases lists non-template databases.
func (s *SQLIntrospector) Databases(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname`)
	if err != nil {
		return nil, fmt.Errorf("schema: list databases: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if errScan := rows.Scan(&name); errScan != nil {
			return nil, errScan
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Tables lists tables in the public schema of the connected database. The
// database argument is informational; JDBC endpoints scope the session to
// one database at connect time.
func (s *SQLIntrospector) Tables(ctx context.Context, _ string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename`)
	if err != nil {
		return nil, fmt.Errorf("schema: list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if errScan := rows.Scan(&name); errScan != nil {
			return nil, errScan
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Columns lists a table's columns in ordinal order with primary key flags.
func (s *SQLIntrospector) Columns(ctx context.Context, _ string, table string) ([]mapping.Column, error) {
	const query = `
		SELECT c.column_name,
		       c.data_type,
		       c.is_nullable = 'YES',
		       c.column_default,
		       EXISTS (
		           SELECT 1
		           FROM information_schema.table_constraints tc
		           JOIN information_schema.key_column_usage kcu
		             ON kcu.constraint_name = tc.constraint_name
		            AND kcu.table_schema = tc.table_schema
		           WHERE tc.constraint_type = 'PRIMARY KEY'
		             AND tc.table_name = c.table_name
		             AND kcu.column_name = c.column_name
		       ) AS is_primary
		FROM information_schema.columns c
		WHERE c.table_schema = 'public' AND c.table_name = $1
		ORDER BY c.ordinal_position`

	rows, err := s.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("schema: list columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []mapping.Column
	for rows.Next() {
		var col mapping.Column
		var defaultValue sql.NullString
		if errScan := rows.Scan(&col.Name, &col.Type, &col.Nullable, &defaultValue, &col.PrimaryKey); errScan != nil {
			return nil, errScan
		}
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// Close releases the underlying pool.
func (s *SQLIntrospector) Close() error {
	return s.db.Close()
}

// postgresDSN builds a DSN from the connection record. Database selection
// defaults to the user name per PostgreSQL convention; callers that need a
// specific database append it through the connection config.
func postgresDSN(conn *models.Connection) string {
	dbName := ""
	if raw, ok := conn.Config["database"]; ok {
		if s, okStr := raw.(string); okStr {
			dbName = s
		}
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(conn.User, conn.Passwd),
		Host:   fmt.Sprintf("%s:%d", conn.Host, conn.Port),
		Path:   "/" + dbName,
	}
	q := u.Query()
	q.Set("sslmode", "prefer")
	u.RawQuery = q.Encode()
	return u.String()
}
