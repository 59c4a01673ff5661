package models

import (
	"time"

	"gorm.io/datatypes"
)

// Connector describes an available connector plugin and its capabilities.
type Connector struct {
	ID           uint64            `gorm:"primaryKey;autoIncrement" json:"id"`           // Primary key.
	Name         string            `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"` // Connector name.
	Type         string            `gorm:"type:varchar(64);not null;index" json:"type"`  // Category: database, mq, file.
	PluginName   string            `gorm:"type:varchar(255);not null" json:"pluginName"` // Engine plugin identifier.
	SupportSource bool             `gorm:"not null;default:true" json:"supportSource"`   // Usable as a job source.
	SupportSink  bool              `gorm:"not null;default:true" json:"supportSink"`     // Usable as a job sink.
	IsStream     bool              `gorm:"not null;default:false" json:"isStream"`       // Supports streaming jobs.
	VirtualTable bool              `gorm:"not null;default:false" json:"virtualTable"`   // Schema comes from virtual tables.
	Properties   datatypes.JSONMap `json:"properties"`                                   // Extra plugin properties.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updateTime"` // Last update timestamp.
}
