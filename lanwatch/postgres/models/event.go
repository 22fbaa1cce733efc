package models

import (
	"time"
)

// Event is a persisted security event. The table is append-only; rows are
// written by the analyzer and collectors and are never updated.
type Event struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID    string    `gorm:"uniqueIndex;not null;size:64" json:"event_id"`
	Timestamp  time.Time `gorm:"not null;index:idx_events_timestamp,sort:desc" json:"timestamp"`
	EventType  string    `gorm:"not null;size:50;index:idx_events_type" json:"event_type"`
	Severity   string    `gorm:"not null;size:20;index:idx_events_severity" json:"severity"`
	SourceIP   string    `gorm:"size:45" json:"source_ip,omitempty"`
	SourceMAC  string    `gorm:"size:17;index:idx_events_source_mac" json:"source_mac,omitempty"`
	TargetIP   string    `gorm:"size:45" json:"target_ip,omitempty"`
	TargetPort int       `json:"target_port,omitempty"`
	Message    string    `gorm:"size:512" json:"message"`
	Details    JSONB     `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for the Event model.
func (Event) TableName() string {
	return "events"
}
