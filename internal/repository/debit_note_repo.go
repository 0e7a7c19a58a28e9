package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"soa-reconciliation-backend/internal/models"
)

func (s *Store) CreateDebitNote(ctx context.Context, dn *models.DebitNote) error {
	return s.db.WithContext(ctx).Create(dn).Error
}

func (s *Store) GetDebitNote(ctx context.Context, id, vendorID uuid.UUID) (*models.DebitNote, error) {
	var dn models.DebitNote
	err := s.db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		First(&dn).Error
	if err != nil {
		return nil, err
	}
	return &dn, nil
}

func (s *Store) UpdateDebitNote(ctx context.Context, dn *models.DebitNote) error {
	return s.db.WithContext(ctx).Save(dn).Error
}

func (s *Store) DebitNotesByStatement(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.DebitNote, error) {
	var notes []models.DebitNote
	err := s.db.WithContext(ctx).
		Where("statement_id = ? AND vendor_id = ?", statementID, vendorID).
		Order("created_at ASC, id ASC").
		Find(&notes).Error
	return notes, err
}

// SumPostedDebitNotes totals the posted corrections for a statement; the
// variance aggregator subtracts this from the raw variance.
func (s *Store) SumPostedDebitNotes(ctx context.Context, statementID, vendorID uuid.UUID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := s.db.WithContext(ctx).Model(&models.DebitNote{}).
		Where("statement_id = ? AND vendor_id = ? AND status = ?",
			statementID, vendorID, models.DebitNoteStatusPosted).
		Select("COALESCE(SUM(amount), 0) as total").
		Scan(&row).Error
	return row.Total, err
}

// NextDNNo assigns the next debit note number in the vendor's sequence. The
// statement lock callers hold does not serialize proposals on different
// statements of the same vendor, so the count is guarded by its own
// vendor-keyed advisory lock, released with the surrounding transaction.
func (s *Store) NextDNNo(ctx context.Context, vendorID uuid.UUID) (string, error) {
	lockKey := fmt.Sprintf("soa_vendor_dn:%s", vendorID)
	if err := s.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", lockKey).Error; err != nil {
		return "", fmt.Errorf("could not acquire vendor sequence lock for %s: %w", vendorID, err)
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.DebitNote{}).
		Where("vendor_id = ?", vendorID).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("DN-%06d", count+1), nil
}
