package models

import (
	"time"

	"gorm.io/datatypes"
)

// Connection stores a configured endpoint (database, message queue, file
// store) that jobs read from or write to.
type Connection struct {
	ID        uint64            `gorm:"primaryKey;autoIncrement" json:"id"`               // Primary key.
	ProjectID uint64            `gorm:"not null;index" json:"projectId"`                  // Owning project.
	Name      string            `gorm:"type:varchar(255);not null" json:"name"`           // Display name.
	Connector string            `gorm:"type:varchar(255);not null;index" json:"connector"` // Connector name (e.g. MySQL, Kafka).
	Host      string            `gorm:"type:varchar(255)" json:"host"`                    // Endpoint host.
	Port      int               `json:"port"`                                             // Endpoint port.
	User      string            `gorm:"column:user_name;type:varchar(255)" json:"user"`   // Login user.
	Passwd    string            `gorm:"type:varchar(255)" json:"-"`                       // Login password, never serialized.
	Config    datatypes.JSONMap `json:"config"`                                           // Connector-specific properties.

	Description string `gorm:"type:text" json:"description"` // Free-form description.

	CreateBy  uint64    `json:"createBy"`                              // Creating user.
	UpdateBy  uint64    `json:"updateBy"`                              // Last updating user.
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updateTime"` // Last update timestamp.
}
