package models

import "time"

// MetricConfig represents a monitored KPI: what is measured, the denominator
// used for percentage computation, and where the card appears on the public
// dashboard. Configs are never hard-deleted, only deactivated.
type MetricConfig struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:200;not null" json:"name"`
	Description  string    `gorm:"size:500" json:"description"`
	MaxValue     float64   `gorm:"not null" json:"max_value"` // denominator, must be > 0
	Unit         string    `gorm:"size:50" json:"unit"`
	Icon         string    `gorm:"size:50" json:"icon"`
	PageNumber   int       `gorm:"default:1;index" json:"page_number"` // 1 or 2
	DisplayOrder int       `gorm:"default:0" json:"display_order"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	IsRealtime   bool      `gorm:"default:true" json:"is_realtime"` // display hint only
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (MetricConfig) TableName() string { return "metric_configs" }
