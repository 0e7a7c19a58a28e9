package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"soa-reconciliation-backend/internal/models"
)

// The ledger invoice pool is the candidate store: read-only during a
// reconciliation run. CreateInvoice exists only to seed the pool from the
// accounting system; nothing in the matching flow mutates invoices.

func (s *Store) CreateInvoice(ctx context.Context, inv *models.LedgerInvoice) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(inv).Error
}

func (s *Store) GetInvoice(ctx context.Context, id, vendorID uuid.UUID) (*models.LedgerInvoice, error) {
	var inv models.LedgerInvoice
	err := s.db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindCandidates returns the open ledger documents a statement line can match
// against: same vendor and company, same currency, not paid or voided.
// Ordered by id so repeated runs see an identical pool.
func (s *Store) FindCandidates(ctx context.Context, vendorID, companyID uuid.UUID, currency string) ([]models.LedgerInvoice, error) {
	var invoices []models.LedgerInvoice
	err := s.db.WithContext(ctx).
		Where("vendor_id = ? AND company_id = ? AND currency = ? AND status = ?",
			vendorID, companyID, currency, models.LedgerInvoiceStatusOpen).
		Order("id ASC").
		Find(&invoices).Error
	return invoices, err
}
