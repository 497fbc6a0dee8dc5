package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImportRun is an audit row recorded after each ingestion or split call.
// Details holds the pipeline's own result payload as JSON.
type ImportRun struct {
	ID            int            `gorm:"primaryKey" json:"id"`
	Kind          string         `gorm:"size:10;not null;index" json:"kind"` // "csv" or "pdf"
	Filename      string         `gorm:"size:255" json:"filename"`
	ImportedCount int            `json:"imported_count"`
	SkippedCount  int            `json:"skipped_count"`
	ErrorCount    int            `json:"error_count"`
	Details       datatypes.JSON `json:"details"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (ImportRun) TableName() string { return "import_runs" }
