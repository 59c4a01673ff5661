package models

import "time"

// InstanceStatus tracks a job execution through its lifecycle.
type InstanceStatus int

const (
	// InstanceWaiting is queued but not yet submitted to the engine.
	InstanceWaiting InstanceStatus = 0
	// InstanceSubmitted has been handed to the execution engine.
	InstanceSubmitted InstanceStatus = 1
	// InstanceRunning is executing.
	InstanceRunning InstanceStatus = 2
	// InstanceSuccess finished without error.
	InstanceSuccess InstanceStatus = 3
	// InstanceFailure finished with an error.
	InstanceFailure InstanceStatus = 4
)

// JobInstance is one execution of a job, with the metrics the engine
// reports back while it runs.
type JobInstance struct {
	ID          uint64         `gorm:"primaryKey;autoIncrement" json:"id"`       // Primary key.
	JobID       uint64         `gorm:"not null;index" json:"jobId"`              // Executed job.
	ProjectID   uint64         `gorm:"not null;index" json:"projectId"`          // Owning project.
	Status      InstanceStatus `gorm:"not null;default:0;index" json:"status"`   // Lifecycle status.
	JobConfig   string         `gorm:"type:text" json:"jobConfig"`               // Submitted engine config document.
	EngineJobID string         `gorm:"type:varchar(128)" json:"engineJobId"`     // Engine-side job identifier.
	StartTime   *time.Time     `json:"startTime"`                                // Execution start.
	EndTime     *time.Time     `json:"endTime"`                                  // Execution end.
	ReadCount   int64          `gorm:"not null;default:0" json:"readCount"`      // Rows read.
	WriteCount  int64          `gorm:"not null;default:0" json:"writeCount"`     // Rows written.
	ReadQPS     float64        `gorm:"not null;default:0" json:"readQps"`        // Read rows per second.
	WriteQPS    float64        `gorm:"not null;default:0" json:"writeQps"`       // Written rows per second.
	ReadBytes   int64          `gorm:"not null;default:0" json:"readBytes"`      // Bytes read.
	WriteBytes  int64          `gorm:"not null;default:0" json:"writeBytes"`     // Bytes written.
	LogContent  string         `gorm:"type:text" json:"logContent"`              // Captured failure output.

	UpdateBy  uint64    `json:"updateBy"`                                  // Triggering user.
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updateTime"` // Last update timestamp.
}
