package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncRunReport records the outcome of one entity job within a run; the
// status endpoint reads the latest rows per account. Stats keeps the raw
// job report alongside the flat columns, so new counters show up in the
// status endpoint without a migration.
type SyncRunReport struct {
	ID         uint    `gorm:"primaryKey;autoIncrement"`
	RunID      string  `gorm:"type:text;index"`
	AccountKey string  `gorm:"type:text;index"`
	Entity     string  `gorm:"type:text"`
	Pages      int     `gorm:"not null;default:0"`
	Records    int     `gorm:"not null;default:0"`
	Events     int     `gorm:"not null;default:0"`
	Skipped    int     `gorm:"not null;default:0"`
	Watermark  *time.Time
	LastError  *string `gorm:"type:text"`
	Stats      datatypes.JSON
	StartedAt  time.Time
	FinishedAt time.Time
}

func (SyncRunReport) TableName() string {
	return "sync_run_reports"
}
