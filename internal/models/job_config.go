package models

import (
	"encoding/json"

	"github.com/dataround/link/internal/mapping"
	"gorm.io/datatypes"
)

// JobConfigPayload is the JSON document stored in Job.Config: the two
// connection endpoints plus the table/field mappings the wizard produced.
// File-sync jobs carry paths and a file pattern instead of table mappings.
type JobConfigPayload struct {
	SourceConnID uint64                 `json:"sourceConnId"`
	TargetConnID uint64                 `json:"targetConnId"`
	SourceDbName string                 `json:"sourceDbName,omitempty"`
	TargetDbName string                 `json:"targetDbName,omitempty"`
	TableMapping []mapping.TableMapping `json:"tableMapping,omitempty"`

	SourcePath            string `json:"sourcePath,omitempty"`
	TargetPath            string `json:"targetPath,omitempty"`
	FilePattern           string `json:"filePattern,omitempty"`
	IncludeSubdirectories bool   `json:"includeSubdirectories,omitempty"`
}

// ConfigPayload decodes the stored job config. An empty config decodes to
// the zero payload.
func (j *Job) ConfigPayload() (JobConfigPayload, error) {
	var payload JobConfigPayload
	if len(j.Config) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(j.Config, &payload); err != nil {
		return JobConfigPayload{}, err
	}
	return payload, nil
}

// SetConfigPayload encodes and stores the job config.
func (j *Job) SetConfigPayload(payload JobConfigPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	j.Config = datatypes.JSON(raw)
	return nil
}
