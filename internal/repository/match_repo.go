package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"soa-reconciliation-backend/internal/models"
)

func (s *Store) CreateMatch(ctx context.Context, m *models.SOAMatch) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *Store) GetMatch(ctx context.Context, id, vendorID uuid.UUID) (*models.SOAMatch, error) {
	var m models.SOAMatch
	err := s.db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) UpdateMatch(ctx context.Context, m *models.SOAMatch) error {
	return s.db.WithContext(ctx).Save(m).Error
}

// ConfirmedMatchByLine returns the line's confirmed match, or nil when none.
func (s *Store) ConfirmedMatchByLine(ctx context.Context, lineID uuid.UUID) (*models.SOAMatch, error) {
	var m models.SOAMatch
	err := s.db.WithContext(ctx).
		Where("soa_line_id = ? AND status = ?", lineID, models.MatchStatusConfirmed).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ConfirmedMatchByInvoice returns the confirmed match claiming the invoice
// within the statement, or nil when none. Checked transactionally on every
// confirm so no invoice is double-claimed.
func (s *Store) ConfirmedMatchByInvoice(ctx context.Context, statementID, invoiceID uuid.UUID) (*models.SOAMatch, error) {
	var m models.SOAMatch
	err := s.db.WithContext(ctx).
		Where("statement_id = ? AND invoice_id = ? AND status = ?",
			statementID, invoiceID, models.MatchStatusConfirmed).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) MatchesByStatement(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOAMatch, error) {
	var matches []models.SOAMatch
	err := s.db.WithContext(ctx).
		Where("statement_id = ? AND vendor_id = ?", statementID, vendorID).
		Order("created_at ASC, id ASC").
		Find(&matches).Error
	return matches, err
}

// ProposedExactSystemMatches returns the statement's pending system matches
// that agreed exactly, for bulk confirmation.
func (s *Store) ProposedExactSystemMatches(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOAMatch, error) {
	var matches []models.SOAMatch
	err := s.db.WithContext(ctx).
		Where("statement_id = ? AND vendor_id = ? AND status = ? AND matched_by = ? AND is_exact_match = ?",
			statementID, vendorID, models.MatchStatusProposed, models.MatchedBySystem, true).
		Order("created_at ASC, id ASC").
		Find(&matches).Error
	return matches, err
}
