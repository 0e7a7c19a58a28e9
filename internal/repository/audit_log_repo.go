package repository

import (
	"context"

	"github.com/google/uuid"

	"soa-reconciliation-backend/internal/models"
)

func (s *Store) AppendAuditLog(ctx context.Context, entry *models.MatchAuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *Store) AuditLogsByLine(ctx context.Context, lineID uuid.UUID) ([]models.MatchAuditLog, error) {
	var logs []models.MatchAuditLog
	err := s.db.WithContext(ctx).
		Where("soa_line_id = ?", lineID).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	return logs, err
}
