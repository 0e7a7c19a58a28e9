package models

import (
	"time"

	"github.com/google/uuid"
)

type StatementStatus string

const (
	StatementStatusOpen         StatementStatus = "open"
	StatementStatusAcknowledged StatementStatus = "acknowledged"
)

// Statement is the reconciliation case: one vendor statement of account being
// reconciled against the company ledger. All lines, matches, issues and debit
// notes hang off a statement and share its vendor/company scope.
type Statement struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	VendorID         uuid.UUID `gorm:"type:uuid;index"`
	CompanyID        uuid.UUID `gorm:"type:uuid;index"`
	StatementNo      string
	SourceFilename   string
	PeriodStart      time.Time
	PeriodEnd        time.Time
	TotalLines       int
	MatchedCount     int
	DiscrepancyCount int
	Status           StatementStatus `gorm:"type:varchar(15);index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Statement) TableName() string {
	return "soa_statements"
}
