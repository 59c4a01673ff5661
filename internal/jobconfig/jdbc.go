package jobconfig

import (
	"strings"

	"github.com/dataround/link/internal/mapping"
	"github.com/dataround/link/internal/models"
)

// jdbcGenerator renders blocks for JDBC-family connectors (MySQL, Oracle,
// PostgreSQL, SQL Server and friends).
type jdbcGenerator struct{}

func (g *jdbcGenerator) Supports(connector *models.Connector) bool {
	return strings.HasPrefix(connector.PluginName, "JDBC")
}

func (g *jdbcGenerator) SourceBlocks(ctx Context) []map[string]any {
	props := connectionProps(ctx.SourceConn)
	blocks := make([]map[string]any, 0, len(ctx.Payload.TableMapping))
	for _, table := range ctx.Payload.TableMapping {
		block := map[string]any{
			"plugin_name":                  "Jdbc",
			"connection_check_timeout_sec": 30,
			"parallelism":                  1,
			"result_table_name":            tmpTableName(table.SourceTable, ctx.Job.ID),
			"query":                        sourceQuery(table),
		}
		for k, v := range props {
			block[k] = v
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func (g *jdbcGenerator) SinkBlocks(ctx Context) []map[string]any {
	props := connectionProps(ctx.TargetConn)
	blocks := make([]map[string]any, 0, len(ctx.Payload.TableMapping))
	for _, table := range ctx.Payload.TableMapping {
		block := map[string]any{
			"plugin_name":                  "Jdbc",
			"connection_check_timeout_sec": 30,
			"batch_size":                   1000,
			"max_commit_attempts":          3,
			"max_retries":                  1,
			"source_table_name":            tmpTableName(table.SourceTable, ctx.Job.ID),
			"database":                     table.TargetDbName,
			"table":                        table.TargetTable,
			"generate_sink_sql":            true,
			"support_upsert_by_query_primary_key_exist": table.WriteType == mapping.WriteUpsert,
		}
		for k, v := range props {
			block[k] = v
		}
		blocks = append(blocks, block)
	}
	return blocks
}
