// Package mapping reconciles source and target table schemas into the field
// mapping rows edited in the job wizard. All operations are pure over their
// inputs; the only state is the per-session schema cache.
package mapping

import (
	"fmt"
	"strings"
)

// Column describes one table column as reported by schema introspection.
type Column struct {
	Name         string  `json:"name"`         // Column name.
	Type         string  `json:"type"`         // Connector-reported type name.
	PrimaryKey   bool    `json:"primaryKey"`   // Part of the primary key.
	Nullable     bool    `json:"nullable"`     // Accepts NULL.
	DefaultValue *string `json:"defaultValue"` // Column default, nil when absent.
}

// WriteType selects target write semantics.
type WriteType int

const (
	// WriteInsert appends rows to the target table.
	WriteInsert WriteType = 1
	// WriteUpsert inserts or updates by primary key.
	WriteUpsert WriteType = 2
)

// MatchMethod selects the column pairing strategy.
type MatchMethod int

const (
	// MatchByName pairs columns by case-insensitive name equality.
	MatchByName MatchMethod = 1
	// MatchByOrder pairs columns by ordinal position.
	MatchByOrder MatchMethod = 2
)

// FieldMapping is one row of the mapping table: a target column and the
// source column feeding it. An empty SourceFieldName means unmapped.
type FieldMapping struct {
	SourceFieldName  string `json:"sourceFieldName"`
	SourceFieldType  string `json:"sourceFieldType"`
	SourcePrimaryKey bool   `json:"sourcePrimaryKey"`
	SourceNullable   bool   `json:"sourceNullable"`
	TargetFieldName  string `json:"targetFieldName"`
	TargetFieldType  string `json:"targetFieldType"`
	TargetPrimaryKey bool   `json:"targetPrimaryKey"`
	TargetNullable   bool   `json:"targetNullable"`
}

// TableMapping pairs one source table with one target table inside a job.
type TableMapping struct {
	SourceDbName string         `json:"sourceDbName"`
	SourceTable  string         `json:"sourceTable"`
	WhereClause  string         `json:"whereClause"`
	TargetDbName string         `json:"targetDbName"`
	TargetTable  string         `json:"targetTable"`
	WriteType    WriteType      `json:"writeType"`
	MatchMethod  MatchMethod    `json:"matchMethod"`
	FieldMapping []FieldMapping `json:"fieldMapping"`
}

// LookupError reports a reassignment that referenced a field the engine does
// not know about.
type LookupError struct {
	Kind  string // "source" or "target"
	Field string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("mapping: unknown %s field %q", e.Kind, e.Field)
}

// Resolve builds one FieldMapping row per target column, in target order.
// MatchByName takes the first source column whose name matches case
// insensitively; MatchByOrder takes the source column at the same index.
// Target columns without a counterpart stay unmapped (empty source name,
// nullable true).
func Resolve(sourceCols, targetCols []Column, method MatchMethod) []FieldMapping {
	rows := make([]FieldMapping, 0, len(targetCols))
	for i, target := range targetCols {
		row := FieldMapping{
			SourceNullable:   true,
			TargetFieldName:  target.Name,
			TargetFieldType:  target.Type,
			TargetPrimaryKey: target.PrimaryKey,
			TargetNullable:   target.Nullable,
		}
		switch method {
		case MatchByOrder:
			if i < len(sourceCols) {
				applySource(&row, sourceCols[i])
			}
		default:
			if source, ok := findByName(sourceCols, target.Name); ok {
				applySource(&row, source)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Reassign points the row identified by targetField at a different source
// column and returns the updated rows. The input slice is not modified.
// Unknown target or source fields yield a *LookupError.
func Reassign(rows []FieldMapping, targetField, newSourceField string, sourceCols []Column) ([]FieldMapping, error) {
	idx := -1
	for i := range rows {
		if rows[i].TargetFieldName == targetField {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &LookupError{Kind: "target", Field: targetField}
	}
	source, ok := findByName(sourceCols, newSourceField)
	if !ok {
		return nil, &LookupError{Kind: "source", Field: newSourceField}
	}

	out := make([]FieldMapping, len(rows))
	copy(out, rows)
	applySource(&out[idx], source)
	return out, nil
}

// Delete removes the row for targetField and returns the remaining rows.
// Deleting a row leaves that target column without any mapping at all, which
// completeness validation treats the same as an unmapped row.
func Delete(rows []FieldMapping, targetField string) []FieldMapping {
	out := make([]FieldMapping, 0, len(rows))
	for _, row := range rows {
		if row.TargetFieldName == targetField {
			continue
		}
		out = append(out, row)
	}
	return out
}

// findByName returns the first source column matching name case
// insensitively. Reassign matches exactly the way Resolve does so a name
// offered by the editor always resolves to the same column.
func findByName(cols []Column, name string) (Column, bool) {
	lower := strings.ToLower(name)
	for _, col := range cols {
		if strings.ToLower(col.Name) == lower {
			return col, true
		}
	}
	return Column{}, false
}

func applySource(row *FieldMapping, col Column) {
	row.SourceFieldName = col.Name
	row.SourceFieldType = col.Type
	row.SourcePrimaryKey = col.PrimaryKey
	row.SourceNullable = col.Nullable
}
