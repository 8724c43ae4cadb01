package models

import "time"

// DataPoint is one quarter's recorded value for a metric. The composite
// unique index guarantees at most one row per (metric, year, quarter);
// writes go through an upsert that overwrites values and recomputes the
// persisted percentage.
type DataPoint struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	MetricID     uint          `gorm:"uniqueIndex:idx_metric_period;not null" json:"metric_id"`
	Metric       *MetricConfig `gorm:"foreignKey:MetricID" json:"metric,omitempty"`
	Year         int           `gorm:"uniqueIndex:idx_metric_period;not null" json:"year"`
	Quarter      int           `gorm:"uniqueIndex:idx_metric_period;not null" json:"quarter"` // 1-4
	CurrentValue float64       `json:"current_value"`
	TargetValue  float64       `json:"target_value"`
	Percentage   float64       `json:"percentage"` // derived at write time, stored raw (not clamped)
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (DataPoint) TableName() string { return "data_points" }
