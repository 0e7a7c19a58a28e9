package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerInvoiceStatus tracks the internal ledger document, not the SOA line.
type LedgerInvoiceStatus string

const (
	LedgerInvoiceStatusOpen LedgerInvoiceStatus = "open"
	LedgerInvoiceStatusPaid LedgerInvoiceStatus = "paid"
	LedgerInvoiceStatusVoid LedgerInvoiceStatus = "void"
)

// LedgerInvoice is a read-only candidate from the company's invoice ledger.
// The reconciliation core never mutates these rows.
type LedgerInvoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	VendorID      uuid.UUID `gorm:"type:uuid;index"`
	CompanyID     uuid.UUID `gorm:"type:uuid;index"`
	InvoiceNumber string    `gorm:"index"`
	DocumentType  DocumentType    `gorm:"type:varchar(4)"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4)"`
	Currency      string          `gorm:"type:varchar(3)"`
	InvoiceDate   time.Time
	Status        LedgerInvoiceStatus `gorm:"type:varchar(10);index"`
	CreatedAt     time.Time
}

func (LedgerInvoice) TableName() string {
	return "ledger_invoices"
}
