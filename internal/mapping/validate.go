package mapping

// InvalidField names one incomplete target field inside a table mapping.
type InvalidField struct {
	Table string `json:"table"`
	Field string `json:"field"`
}

// ValidationResult describes every incomplete table/field in a job's table
// mappings. It is computed in full so the console can highlight all problems
// at once instead of stopping at the first.
type ValidationResult struct {
	Valid         bool           `json:"valid"`
	InvalidTables []string       `json:"invalidTables,omitempty"`
	InvalidFields []InvalidField `json:"invalidFields,omitempty"`
}

// ValidateCompleteness checks that every table mapping has at least one row
// and that every row has a source field assigned. A table with zero rows is
// invalid on its own; rows whose source is empty are reported per field.
func ValidateCompleteness(tables []TableMapping) ValidationResult {
	result := ValidationResult{Valid: true}
	seenTable := make(map[string]bool)

	markTable := func(name string) {
		if !seenTable[name] {
			seenTable[name] = true
			result.InvalidTables = append(result.InvalidTables, name)
		}
		result.Valid = false
	}

	for _, table := range tables {
		if len(table.FieldMapping) == 0 {
			markTable(table.TargetTable)
			continue
		}
		for _, row := range table.FieldMapping {
			if row.SourceFieldName == "" {
				markTable(table.TargetTable)
				result.InvalidFields = append(result.InvalidFields, InvalidField{
					Table: table.TargetTable,
					Field: row.TargetFieldName,
				})
			}
		}
	}
	return result
}
