package reconciliation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"soa-reconciliation-backend/internal/apperrors"
	"soa-reconciliation-backend/internal/models"
)

type IssueInput struct {
	SOAItemID     uuid.UUID
	IssueType     models.IssueType
	Severity      models.IssueSeverity
	Description   string
	AmountDelta   decimal.Decimal
	DetectedBy    models.DetectedBy
	ExpectedValue string
	ActualValue   string
}

// CreateIssue records a discrepancy against a statement line. Issues always
// start open.
func (s *Service) CreateIssue(ctx context.Context, scope models.Scope, statementID uuid.UUID, input IssueInput) (*models.SOAIssue, error) {
	if !input.IssueType.IsValid() {
		return nil, apperrors.NewValidationError("issue_type", "unknown issue type")
	}
	if _, err := s.GetStatement(ctx, scope, statementID); err != nil {
		return nil, err
	}
	line, err := s.store.GetLine(ctx, input.SOAItemID, scope.VendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewValidationError("soa_item_id", "line does not belong to the caller's vendor scope")
		}
		return nil, err
	}
	if line.StatementID != statementID {
		return nil, apperrors.NewValidationError("soa_item_id", "line belongs to a different statement")
	}

	severity := input.Severity
	if severity == "" {
		severity = models.IssueSeverityMedium
	}
	detectedBy := input.DetectedBy
	if detectedBy == "" {
		detectedBy = models.DetectedByManual
	}

	var issue *models.SOAIssue
	err = s.store.WithStatementLock(ctx, statementID, func(tx Store) error {
		now := time.Now()
		issue = &models.SOAIssue{
			ID:            uuid.New(),
			StatementID:   statementID,
			VendorID:      scope.VendorID,
			SOAItemID:     input.SOAItemID,
			IssueType:     input.IssueType,
			Severity:      severity,
			Description:   input.Description,
			AmountDelta:   input.AmountDelta,
			DetectedBy:    detectedBy,
			ExpectedValue: input.ExpectedValue,
			ActualValue:   input.ActualValue,
			Status:        models.IssueStatusOpen,
			DetectedAt:    now,
			CreatedAt:     now,
		}
		if err := tx.CreateIssue(ctx, issue); err != nil {
			return err
		}
		return s.syncLineStatus(ctx, tx, line)
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

type ResolutionInput struct {
	Action string
	Notes  string
}

// ResolveIssue closes an issue with its resolution note. When it was the
// line's last open issue and no confirmed match exists, the line advances to
// resolved.
func (s *Service) ResolveIssue(ctx context.Context, scope models.Scope, issueID uuid.UUID, input ResolutionInput) (*models.SOAIssue, error) {
	if input.Action == "" {
		return nil, apperrors.NewValidationError("action", "a resolution action is required")
	}
	issue, err := s.store.GetIssue(ctx, issueID, scope.VendorID)
	if err != nil {
		return nil, notFoundOr(err, "issue", issueID)
	}

	err = s.store.WithStatementLock(ctx, issue.StatementID, func(tx Store) error {
		issue, err = tx.GetIssue(ctx, issueID, scope.VendorID)
		if err != nil {
			return notFoundOr(err, "issue", issueID)
		}
		if issue.Status == models.IssueStatusResolved {
			return apperrors.NewStateError("issue", issueID, "issue is already resolved")
		}

		now := time.Now()
		issue.Status = models.IssueStatusResolved
		issue.ResolutionAction = input.Action
		issue.ResolutionNotes = input.Notes
		issue.ResolvedBy = &scope.ActorID
		issue.ResolvedAt = &now
		if err := tx.UpdateIssue(ctx, issue); err != nil {
			return err
		}

		line, err := tx.GetLine(ctx, issue.SOAItemID, scope.VendorID)
		if err != nil {
			return err
		}
		return s.syncLineStatus(ctx, tx, line)
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// ListIssues returns all of a statement's issues regardless of status,
// ordered by detection time.
func (s *Service) ListIssues(ctx context.Context, scope models.Scope, statementID uuid.UUID) ([]models.SOAIssue, error) {
	if _, err := s.GetStatement(ctx, scope, statementID); err != nil {
		return nil, err
	}
	return s.store.IssuesByStatement(ctx, statementID, scope.VendorID)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
