package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// MatchType records which path produced the pairing. Deterministic and
// probabilistic come from the engine passes; manual marks a reviewer-asserted
// pairing, which carries confidence 1.0 by convention and is never an exact
// match in the engine's sense.
type MatchType string

const (
	MatchTypeDeterministic MatchType = "deterministic"
	MatchTypeProbabilistic MatchType = "probabilistic"
	MatchTypeManual        MatchType = "manual"
)

type MatchStatus string

const (
	MatchStatusProposed  MatchStatus = "proposed"
	MatchStatusConfirmed MatchStatus = "confirmed"
	MatchStatusRejected  MatchStatus = "rejected"
)

func (s MatchStatus) IsValid() bool {
	switch s {
	case MatchStatusProposed, MatchStatusConfirmed, MatchStatusRejected:
		return true
	}
	return false
}

type MatchedBy string

const (
	MatchedBySystem MatchedBy = "system"
	MatchedByManual MatchedBy = "manual"
)

// SOAMatch associates one SOA line with one ledger invoice. At most one
// confirmed match may exist per line, and per invoice within a statement.
type SOAMatch struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	StatementID   uuid.UUID `gorm:"type:uuid;index"`
	VendorID      uuid.UUID `gorm:"type:uuid;index"`
	SOALineID     uuid.UUID `gorm:"type:uuid;index"`
	InvoiceID     uuid.UUID `gorm:"type:uuid;index"`
	MatchType     MatchType `gorm:"type:varchar(15)"`
	IsExactMatch  bool
	Confidence    float64
	MatchScore    int
	MatchCriteria string          // comma-joined fields that agreed
	SOAAmount     decimal.Decimal `gorm:"type:decimal(18,4)"`
	InvoiceAmount decimal.Decimal `gorm:"type:decimal(18,4)"`
	MatchedBy     MatchedBy       `gorm:"type:varchar(10)"`
	Status        MatchStatus     `gorm:"type:varchar(10);index"`
	RejectReason  string
	Metadata      datatypes.JSON
	ConfirmedAt   *time.Time
	RejectedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (SOAMatch) TableName() string {
	return "soa_matches"
}

// AmountDelta is the signed difference the confirmed match contributes to the
// statement variance (claimed minus ledger, document-type sign applied).
func (m *SOAMatch) AmountDelta(docType DocumentType) decimal.Decimal {
	return m.SOAAmount.Sub(m.InvoiceAmount).Mul(docType.Sign())
}
