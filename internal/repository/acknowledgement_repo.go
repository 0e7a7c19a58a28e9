package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"soa-reconciliation-backend/internal/models"
)

func (s *Store) CreateAcknowledgement(ctx context.Context, ack *models.Acknowledgement) error {
	return s.db.WithContext(ctx).Create(ack).Error
}

// AcknowledgementByStatement returns the statement's sign-off record, or nil
// when the statement has not been signed off.
func (s *Store) AcknowledgementByStatement(ctx context.Context, statementID, vendorID uuid.UUID) (*models.Acknowledgement, error) {
	var ack models.Acknowledgement
	err := s.db.WithContext(ctx).
		Where("statement_id = ? AND vendor_id = ?", statementID, vendorID).
		First(&ack).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ack, nil
}
