package models

import "time"

// Batch is a named grouping of slips, keyed by a 4-digit zero-padded code.
// Rows are maintained by the seeding process; the pipelines only read them.
type Batch struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Batch) TableName() string { return "batches" }
