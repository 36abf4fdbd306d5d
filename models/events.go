package models

import (
	"time"

	"gorm.io/gorm"
)

// Event is one observed domain event in the journal.
type Event struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	EventID       string         `gorm:"uniqueIndex" json:"event_id"`
	Domain        string         `gorm:"index:idx_events_stream" json:"domain"`
	Root          string         `gorm:"index:idx_events_stream" json:"root"`
	EventType     string         `json:"event_type"`
	Sequence      uint32         `json:"sequence"`
	Data          []byte         `json:"data"`
	CorrelationID string         `json:"correlation_id"`
	Timestamp     time.Time      `json:"timestamp"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// Stream tracks the next unused sequence number per aggregate instance. It
// advances both when events are journaled and when outgoing command sequence
// numbers are reserved.
type Stream struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Domain       string    `gorm:"uniqueIndex:idx_streams_key" json:"domain"`
	Root         string    `gorm:"uniqueIndex:idx_streams_key" json:"root"`
	NextSequence uint32    `json:"next_sequence"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
