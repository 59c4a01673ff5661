package jobconfig

import (
	"strings"

	"github.com/dataround/link/internal/models"
)

// kafkaGenerator renders blocks for Kafka connections. Topic schemas come
// from virtual tables, so blocks carry the connection properties plus the
// topic name; the engine reads the parse format from the connection config.
type kafkaGenerator struct{}

func (g *kafkaGenerator) Supports(connector *models.Connector) bool {
	return strings.EqualFold(connector.PluginName, "KAFKA")
}

func (g *kafkaGenerator) SourceBlocks(ctx Context) []map[string]any {
	props := connectionProps(ctx.SourceConn)
	blocks := make([]map[string]any, 0, len(ctx.Payload.TableMapping))
	for _, table := range ctx.Payload.TableMapping {
		block := map[string]any{
			"plugin_name":       "Kafka",
			"topic":             table.SourceTable,
			"result_table_name": tmpTableName(table.SourceTable, ctx.Job.ID),
		}
		for k, v := range props {
			block[k] = v
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func (g *kafkaGenerator) SinkBlocks(ctx Context) []map[string]any {
	props := connectionProps(ctx.TargetConn)
	blocks := make([]map[string]any, 0, len(ctx.Payload.TableMapping))
	for _, table := range ctx.Payload.TableMapping {
		block := map[string]any{
			"plugin_name":       "Kafka",
			"topic":             table.TargetTable,
			"source_table_name": tmpTableName(table.SourceTable, ctx.Job.ID),
		}
		for k, v := range props {
			block[k] = v
		}
		blocks = append(blocks, block)
	}
	return blocks
}
