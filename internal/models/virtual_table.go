package models

import (
	"time"

	"gorm.io/datatypes"
)

// VirtualTable is a user-defined table for connectors without introspectable
// schemas (message queues, plain files): the operator declares the fields
// and the parsing config by hand.
type VirtualTable struct {
	ID           uint64         `gorm:"primaryKey;autoIncrement" json:"id"`                // Primary key.
	ConnectionID uint64         `gorm:"not null;index" json:"connectionId"`                // Owning connection.
	ProjectID    uint64         `gorm:"not null;index" json:"projectId"`                   // Owning project.
	Database     string         `gorm:"column:database_name;type:varchar(255)" json:"database"` // Logical database name.
	TableName    string         `gorm:"type:varchar(255);not null" json:"tableName"`       // Table name.
	TableConfig  datatypes.JSON `json:"tableConfig"`                                       // Declared fields and parse options.
	Description  string         `gorm:"type:text" json:"description"`                      // Free-form description.
	Deleted      bool           `gorm:"not null;default:false" json:"deleted"`             // Soft-delete flag.

	CreateBy  uint64    `json:"createBy"`                                  // Creating user.
	UpdateBy  uint64    `json:"updateBy"`                                  // Last updating user.
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updateTime"` // Last update timestamp.
}
