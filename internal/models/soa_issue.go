package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type IssueType string

const (
	IssueTypeMissingGRN     IssueType = "missing_grn"
	IssueTypeAmountMismatch IssueType = "amount_mismatch"
	IssueTypeDateMismatch   IssueType = "date_mismatch"
	IssueTypeMissingPO      IssueType = "missing_po"
	IssueTypePOStatus       IssueType = "po_status"
	IssueTypeGRNStatus      IssueType = "grn_status"
)

func (t IssueType) IsValid() bool {
	switch t {
	case IssueTypeMissingGRN, IssueTypeAmountMismatch, IssueTypeDateMismatch,
		IssueTypeMissingPO, IssueTypePOStatus, IssueTypeGRNStatus:
		return true
	}
	return false
}

type IssueSeverity string

const (
	IssueSeverityLow    IssueSeverity = "low"
	IssueSeverityMedium IssueSeverity = "medium"
	IssueSeverityHigh   IssueSeverity = "high"
)

type IssueStatus string

const (
	IssueStatusOpen     IssueStatus = "open"
	IssueStatusResolved IssueStatus = "resolved"
)

type DetectedBy string

const (
	DetectedBySystem DetectedBy = "system"
	DetectedByManual DetectedBy = "manual"
)

// SOAIssue is a tracked discrepancy against one SOA line.
type SOAIssue struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	StatementID      uuid.UUID `gorm:"type:uuid;index"`
	VendorID         uuid.UUID `gorm:"type:uuid;index"`
	SOAItemID        uuid.UUID `gorm:"type:uuid;index"`
	IssueType        IssueType `gorm:"type:varchar(20)"`
	Severity         IssueSeverity `gorm:"type:varchar(10)"`
	Description      string
	AmountDelta      decimal.Decimal `gorm:"type:decimal(18,4)"`
	DetectedBy       DetectedBy      `gorm:"type:varchar(10)"`
	ExpectedValue    string
	ActualValue      string
	Status           IssueStatus `gorm:"type:varchar(10);index"`
	ResolutionAction string
	ResolutionNotes  string
	ResolvedBy       *uuid.UUID `gorm:"type:uuid"`
	ResolvedAt       *time.Time
	DetectedAt       time.Time `gorm:"index"`
	CreatedAt        time.Time
}

func (SOAIssue) TableName() string {
	return "soa_issues"
}
