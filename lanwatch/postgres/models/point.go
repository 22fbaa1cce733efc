package models

import (
	"time"
)

// MetricPoint is one time-series sample. Measurement plus timestamp is the
// query axis; tags and fields are free-form.
type MetricPoint struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Measurement string    `gorm:"not null;size:64;index:idx_points_measurement_ts,priority:1"`
	Timestamp   time.Time `gorm:"not null;index:idx_points_measurement_ts,priority:2"`
	Tags        JSONB     `gorm:"type:jsonb"`
	Fields      JSONB     `gorm:"type:jsonb;not null"`
}

// TableName specifies the table name for the MetricPoint model.
func (MetricPoint) TableName() string {
	return "metric_points"
}
