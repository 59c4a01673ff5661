// Package jobconfig renders the engine submission document for a job: an
// env section plus per-table source and sink blocks, generated by the
// connector family at each end.
package jobconfig

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dataround/link/internal/mapping"
	"github.com/dataround/link/internal/models"
)

// Context carries everything generation needs, pre-fetched by the caller.
type Context struct {
	Job             *models.Job
	Payload         models.JobConfigPayload
	SourceConn      *models.Connection
	TargetConn      *models.Connection
	SourceConnector *models.Connector
	TargetConnector *models.Connector
}

// Generator produces the source and sink blocks for one connector family.
type Generator interface {
	// Supports reports whether this generator handles the connector.
	Supports(connector *models.Connector) bool
	// SourceBlocks renders one source block per table mapping.
	SourceBlocks(ctx Context) []map[string]any
	// SinkBlocks renders one sink block per table mapping.
	SinkBlocks(ctx Context) []map[string]any
}

// generators is the fixed registry, checked in order.
var generators = []Generator{
	&jdbcGenerator{},
	&kafkaGenerator{},
}

// Build renders the full submission document as JSON.
func Build(ctx Context) ([]byte, error) {
	sourceGen, err := generatorFor(ctx.SourceConnector)
	if err != nil {
		return nil, fmt.Errorf("jobconfig: source: %w", err)
	}
	sinkGen, err := generatorFor(ctx.TargetConnector)
	if err != nil {
		return nil, fmt.Errorf("jobconfig: sink: %w", err)
	}

	mode := "BATCH"
	if ctx.Job.JobType == models.JobTypeStream {
		mode = "STREAMING"
	}
	doc := map[string]any{
		"env": map[string]any{
			"job.mode": mode,
			"job.name": fmt.Sprintf("%d_%s", ctx.Job.ID, ctx.Job.Name),
		},
		"source":    sourceGen.SourceBlocks(ctx),
		"transform": []any{},
		"sink":      sinkGen.SinkBlocks(ctx),
	}
	return json.Marshal(doc)
}

func generatorFor(connector *models.Connector) (Generator, error) {
	if connector == nil {
		return nil, fmt.Errorf("nil connector")
	}
	for _, g := range generators {
		if g.Supports(connector) {
			return g, nil
		}
	}
	return nil, fmt.Errorf("no generator for plugin %q", connector.PluginName)
}

// connectionProps flattens a connection record into engine properties.
func connectionProps(conn *models.Connection) map[string]any {
	props := map[string]any{}
	for k, v := range conn.Config {
		props[k] = v
	}
	if conn.Host != "" {
		props["host"] = conn.Host
	}
	if conn.Port != 0 {
		props["port"] = conn.Port
	}
	if conn.User != "" {
		props["user"] = conn.User
	}
	if conn.Passwd != "" {
		props["password"] = conn.Passwd
	}
	return props
}

// tmpTableName names the intermediate result table tying a source block to
// its sink block.
func tmpTableName(table string, jobID uint64) string {
	return fmt.Sprintf("Table_%s_%d", table, jobID)
}

// sourceQuery builds the extraction query from the mapped source fields,
// falling back to SELECT * when nothing is mapped.
func sourceQuery(table mapping.TableMapping) string {
	var fields []string
	for _, row := range table.FieldMapping {
		if row.SourceFieldName != "" {
			fields = append(fields, row.SourceFieldName)
		}
	}
	query := "SELECT * FROM " + table.SourceTable
	if len(fields) > 0 {
		query = "SELECT " + strings.Join(fields, ",") + " FROM " + table.SourceTable
	}
	where := strings.TrimSpace(table.WhereClause)
	if where == "" {
		return query
	}
	if !strings.HasPrefix(strings.ToUpper(where), "WHERE") {
		where = "WHERE " + where
	}
	return query + " " + where
}
