package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Slip is a payment-slip record. The batch is referenced by id only; batch
// details are always resolved through an explicit query, never a preloaded
// association.
type Slip struct {
	ID         int             `gorm:"primaryKey" json:"id"`
	DebtorName string          `gorm:"size:255;not null;index" json:"debtor_name"`
	BatchID    int             `gorm:"not null" json:"batch_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Code       string          `gorm:"size:255;not null" json:"code"`
	Active     bool            `gorm:"not null" json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Slip) TableName() string { return "slips" }

// SlipCreation is the input record for a bulk insert. A nil Active is
// defaulted to true by the repository.
type SlipCreation struct {
	DebtorName string
	BatchID    int
	Amount     decimal.Decimal
	Code       string
	Active     *bool
}
