package repository

import (
	"context"

	"github.com/google/uuid"

	"soa-reconciliation-backend/internal/models"
)

func (s *Store) CreateStatement(ctx context.Context, stmt *models.Statement) error {
	return s.db.WithContext(ctx).Create(stmt).Error
}

func (s *Store) GetStatement(ctx context.Context, id, vendorID uuid.UUID) (*models.Statement, error) {
	var stmt models.Statement
	err := s.db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		First(&stmt).Error
	if err != nil {
		return nil, err
	}
	return &stmt, nil
}

func (s *Store) UpdateStatement(ctx context.Context, stmt *models.Statement) error {
	return s.db.WithContext(ctx).Save(stmt).Error
}
