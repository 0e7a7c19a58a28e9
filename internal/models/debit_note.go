package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DebitNoteStatus string

const (
	DebitNoteStatusDraft    DebitNoteStatus = "draft"
	DebitNoteStatusApproved DebitNoteStatus = "approved"
	DebitNoteStatusPosted   DebitNoteStatus = "posted"
)

func (s DebitNoteStatus) IsValid() bool {
	switch s {
	case DebitNoteStatusDraft, DebitNoteStatusApproved, DebitNoteStatusPosted:
		return true
	}
	return false
}

// CanApprove reports whether the note may move to approved.
func (s DebitNoteStatus) CanApprove() bool {
	return s == DebitNoteStatusDraft
}

// CanPost reports whether the note may move to posted.
func (s DebitNoteStatus) CanPost() bool {
	return s == DebitNoteStatusApproved
}

// DebitNote is a corrective instrument proposed against a statement. The
// state machine is strictly draft -> approved -> posted, no reverse moves.
type DebitNote struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	DNNo          string     `gorm:"uniqueIndex"`
	StatementID   uuid.UUID  `gorm:"type:uuid;index"`
	SOAIssueID    *uuid.UUID `gorm:"type:uuid;index"`
	VendorID      uuid.UUID  `gorm:"type:uuid;index"`
	CompanyID     uuid.UUID  `gorm:"type:uuid"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4)"`
	ReasonCode    string
	Notes         string
	Status        DebitNoteStatus `gorm:"type:varchar(10);index"`
	LedgerEntryID *uuid.UUID      `gorm:"type:uuid"`
	ProposedBy    uuid.UUID       `gorm:"type:uuid"`
	ApprovedBy    *uuid.UUID      `gorm:"type:uuid"`
	ApprovedAt    *time.Time
	PostedBy      *uuid.UUID `gorm:"type:uuid"`
	PostedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (DebitNote) TableName() string {
	return "debit_notes"
}
