package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchAuditLog records every match action on a statement: system proposals,
// confirms, rejects and manual matches all append a row.
type MatchAuditLog struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	StatementID     uuid.UUID `gorm:"type:uuid;index"`
	SOALineID       uuid.UUID `gorm:"type:uuid;index"`
	Action          string
	PreviousInvoice *uuid.UUID `gorm:"type:uuid"`
	NewInvoice      *uuid.UUID `gorm:"type:uuid"`
	PerformedBy     string
	Reason          string
	CreatedAt       time.Time
}

func (MatchAuditLog) TableName() string {
	return "soa_match_audit_logs"
}
