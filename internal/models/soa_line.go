package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType is the kind of document a vendor claims on a statement line.
type DocumentType string

const (
	DocumentTypeInvoice    DocumentType = "INV"
	DocumentTypeCreditNote DocumentType = "CN"
	DocumentTypeDebitNote  DocumentType = "DN"
)

func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeInvoice, DocumentTypeCreditNote, DocumentTypeDebitNote:
		return true
	}
	return false
}

// Sign returns the direction the line contributes to the statement variance.
// Credit and debit notes offset the invoice total.
func (t DocumentType) Sign() decimal.Decimal {
	if t == DocumentTypeCreditNote || t == DocumentTypeDebitNote {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// SOALineStatus is derived from the line's match and issue records, never set
// independently of them.
type SOALineStatus string

const (
	SOALineStatusExtracted   SOALineStatus = "extracted"
	SOALineStatusMatched     SOALineStatus = "matched"
	SOALineStatusDiscrepancy SOALineStatus = "discrepancy"
	SOALineStatusResolved    SOALineStatus = "resolved"
)

func (s SOALineStatus) IsValid() bool {
	switch s {
	case SOALineStatusExtracted, SOALineStatusMatched, SOALineStatusDiscrepancy, SOALineStatusResolved:
		return true
	}
	return false
}

type SOALine struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	StatementID    uuid.UUID `gorm:"type:uuid;index"`
	VendorID       uuid.UUID `gorm:"type:uuid;index"`
	CompanyID      uuid.UUID `gorm:"type:uuid;index"`
	DocumentNumber string
	DocumentType   DocumentType    `gorm:"type:varchar(4)"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,4)"`
	Currency       string          `gorm:"type:varchar(3)"`
	DocumentDate   time.Time
	Description    string
	Status         SOALineStatus `gorm:"type:varchar(20);index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (SOALine) TableName() string {
	return "soa_lines"
}

// SignedAmount is the line amount with the document-type sign applied.
func (l *SOALine) SignedAmount() decimal.Decimal {
	return l.Amount.Mul(l.DocumentType.Sign())
}
