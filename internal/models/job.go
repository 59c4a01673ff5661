package models

import (
	"time"

	"gorm.io/datatypes"
)

// JobType distinguishes batch, streaming and file-sync jobs.
type JobType int

const (
	// JobTypeBatch runs to completion over a bounded dataset.
	JobTypeBatch JobType = 1
	// JobTypeStream runs continuously over an unbounded source.
	JobTypeStream JobType = 2
	// JobTypeFileSync copies files between file connections instead of
	// moving table rows through the engine.
	JobTypeFileSync JobType = 3
)

// ScheduleType selects how a job is triggered.
type ScheduleType int

const (
	// ScheduleRunNow triggers a single immediate run on save.
	ScheduleRunNow ScheduleType = 1
	// ScheduleCron triggers runs from the job's cron expression.
	ScheduleCron ScheduleType = 2
	// ScheduleNone stores the job without any trigger.
	ScheduleNone ScheduleType = 3
)

// Job is a saved integration job: connections at both ends, table/field
// mappings, and a schedule. The mapping payload lives in Config as JSON,
// mirroring the shape the wizard submits.
type Job struct {
	ID           uint64         `gorm:"primaryKey;autoIncrement" json:"id"`        // Primary key.
	ProjectID    uint64         `gorm:"not null;index" json:"projectId"`           // Owning project.
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`    // Display name.
	Description  string         `gorm:"type:text" json:"description"`              // Free-form description.
	JobType      JobType        `gorm:"not null" json:"jobType"`                   // Batch or streaming.
	ScheduleType ScheduleType   `gorm:"not null" json:"scheduleType"`              // Trigger mode.
	Cron         string         `gorm:"type:varchar(128)" json:"cron"`             // 6-field cron, ScheduleCron only.
	StartTime    *time.Time     `json:"startTime"`                                 // Validity window start.
	EndTime      *time.Time     `json:"endTime"`                                   // Validity window end.
	Config       datatypes.JSON `json:"config"`                                    // Connections, db names, table mappings.

	CreateBy  uint64    `json:"createBy"`                                  // Creating user.
	UpdateBy  uint64    `json:"updateBy"`                                  // Last updating user.
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updateTime"` // Last update timestamp.
}
