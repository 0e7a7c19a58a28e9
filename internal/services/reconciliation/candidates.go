package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"soa-reconciliation-backend/internal/apperrors"
	"soa-reconciliation-backend/internal/models"
)

type InvoiceInput struct {
	InvoiceNumber string
	DocumentType  models.DocumentType
	TotalAmount   decimal.Decimal
	Currency      string
	InvoiceDate   time.Time
}

// SeedInvoice loads one ledger document into the candidate pool. This is the
// only write path for ledger invoices; the reconciliation flow itself treats
// the pool as read-only.
func (s *Service) SeedInvoice(ctx context.Context, scope models.Scope, input InvoiceInput) (*models.LedgerInvoice, error) {
	if input.InvoiceNumber == "" {
		return nil, apperrors.NewValidationError("invoice_number", "invoice number is required")
	}
	if !input.DocumentType.IsValid() {
		return nil, apperrors.NewValidationError("document_type", "document type must be INV, CN or DN")
	}
	if len(input.Currency) != 3 {
		return nil, apperrors.NewValidationError("currency", "currency must be a 3-letter ISO code")
	}

	inv := &models.LedgerInvoice{
		ID:            uuid.New(),
		VendorID:      scope.VendorID,
		CompanyID:     scope.CompanyID,
		InvoiceNumber: input.InvoiceNumber,
		DocumentType:  input.DocumentType,
		TotalAmount:   input.TotalAmount,
		Currency:      input.Currency,
		InvoiceDate:   input.InvoiceDate,
		Status:        models.LedgerInvoiceStatusOpen,
		CreatedAt:     time.Now(),
	}
	if err := s.store.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListMatches returns every match on the statement, any status, for review.
func (s *Service) ListMatches(ctx context.Context, scope models.Scope, statementID uuid.UUID) ([]models.SOAMatch, error) {
	if _, err := s.GetStatement(ctx, scope, statementID); err != nil {
		return nil, err
	}
	return s.store.MatchesByStatement(ctx, statementID, scope.VendorID)
}
