package repository

import (
	"context"

	"github.com/google/uuid"

	"soa-reconciliation-backend/internal/models"
)

func (s *Store) CreateIssue(ctx context.Context, issue *models.SOAIssue) error {
	return s.db.WithContext(ctx).Create(issue).Error
}

func (s *Store) GetIssue(ctx context.Context, id, vendorID uuid.UUID) (*models.SOAIssue, error) {
	var issue models.SOAIssue
	err := s.db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		First(&issue).Error
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (s *Store) UpdateIssue(ctx context.Context, issue *models.SOAIssue) error {
	return s.db.WithContext(ctx).Save(issue).Error
}

// IssuesByStatement returns every issue regardless of status, ordered by
// detection time, for audit and UI display.
func (s *Store) IssuesByStatement(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOAIssue, error) {
	var issues []models.SOAIssue
	err := s.db.WithContext(ctx).
		Where("statement_id = ? AND vendor_id = ?", statementID, vendorID).
		Order("detected_at ASC, id ASC").
		Find(&issues).Error
	return issues, err
}

func (s *Store) CountOpenIssuesByLine(ctx context.Context, lineID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.SOAIssue{}).
		Where("soa_item_id = ? AND status = ?", lineID, models.IssueStatusOpen).
		Count(&count).Error
	return count, err
}

func (s *Store) CountIssuesByLine(ctx context.Context, lineID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.SOAIssue{}).
		Where("soa_item_id = ?", lineID).
		Count(&count).Error
	return count, err
}
