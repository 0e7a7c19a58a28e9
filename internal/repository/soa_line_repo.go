package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"soa-reconciliation-backend/internal/models"
)

func (s *Store) CreateLines(ctx context.Context, lines []*models.SOALine) error {
	if len(lines) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(lines).Error
}

func (s *Store) GetLine(ctx context.Context, id, vendorID uuid.UUID) (*models.SOALine, error) {
	var line models.SOALine
	err := s.db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (s *Store) UpdateLine(ctx context.Context, line *models.SOALine) error {
	return s.db.WithContext(ctx).Save(line).Error
}

// LinesByStatement returns every line on the statement, for summary math.
func (s *Store) LinesByStatement(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOALine, error) {
	var lines []models.SOALine
	err := s.db.WithContext(ctx).
		Where("statement_id = ? AND vendor_id = ?", statementID, vendorID).
		Order("created_at ASC, id ASC").
		Find(&lines).Error
	return lines, err
}

// ExtractedLines returns the lines still eligible for a matching pass.
func (s *Store) ExtractedLines(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOALine, error) {
	var lines []models.SOALine
	err := s.db.WithContext(ctx).
		Where("statement_id = ? AND vendor_id = ? AND status = ?",
			statementID, vendorID, models.SOALineStatusExtracted).
		Order("created_at ASC, id ASC").
		Find(&lines).Error
	return lines, err
}

// ListLines returns a cursor-paginated page of statement lines with optional
// status and search filters.
func (s *Store) ListLines(
	ctx context.Context,
	statementID, vendorID uuid.UUID,
	status string,
	cursor string,
	limit int,
	search string,
) ([]models.SOALine, string, bool, error) {
	var lines []models.SOALine
	query := s.db.WithContext(ctx).
		Where("statement_id = ? AND vendor_id = ?", statementID, vendorID).
		Order("id ASC").
		Limit(limit + 1)

	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	if cursor != "" {
		query = query.Where("id > ?", cursor)
	}
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(document_number) LIKE ? OR LOWER(description) LIKE ?",
			like, like,
		)
	}

	if err := query.Find(&lines).Error; err != nil {
		return nil, "", false, err
	}

	hasMore := false
	var nextCursor string
	if len(lines) > limit {
		hasMore = true
		nextCursor = lines[limit-1].ID.String()
		lines = lines[:limit]
	}
	return lines, nextCursor, hasMore, nil
}

// CountLinesByStatus groups the statement's lines by status.
func (s *Store) CountLinesByStatus(ctx context.Context, statementID, vendorID uuid.UUID) (map[models.SOALineStatus]int, error) {
	type row struct {
		Status models.SOALineStatus
		Count  int
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&models.SOALine{}).
		Where("statement_id = ? AND vendor_id = ?", statementID, vendorID).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.SOALineStatus]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
