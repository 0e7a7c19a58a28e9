package reconciliation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"soa-reconciliation-backend/internal/apperrors"
	"soa-reconciliation-backend/internal/models"
)

const (
	auditActionPropose = "propose"
	auditActionConfirm = "confirm"
	auditActionReject  = "reject"
	auditActionManual  = "manual_match"
)

// CreateMatch records a manual association between a line and a ledger
// invoice in proposed state. System proposals go through RunMatching instead.
func (s *Service) CreateMatch(ctx context.Context, scope models.Scope, lineID, invoiceID uuid.UUID) (*models.SOAMatch, error) {
	line, err := s.store.GetLine(ctx, lineID, scope.VendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewValidationError("soa_line_id", "line does not belong to the caller's vendor scope")
		}
		return nil, err
	}
	invoice, err := s.store.GetInvoice(ctx, invoiceID, scope.VendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewValidationError("invoice_id", "invoice does not belong to the caller's vendor scope")
		}
		return nil, err
	}

	var match *models.SOAMatch
	err = s.store.WithStatementLock(ctx, line.StatementID, func(tx Store) error {
		existing, err := tx.ConfirmedMatchByLine(ctx, line.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.InvoiceID == invoiceID {
				match = existing
				return nil
			}
			return apperrors.NewStateError("soa_line", line.ID, "line already has a confirmed match")
		}

		match = &models.SOAMatch{
			ID:            uuid.New(),
			StatementID:   line.StatementID,
			VendorID:      scope.VendorID,
			SOALineID:     line.ID,
			InvoiceID:     invoice.ID,
			MatchType:     models.MatchTypeManual,
			IsExactMatch:  false,
			Confidence:    1.0,
			MatchScore:    100,
			MatchCriteria: "manual",
			SOAAmount:     line.Amount,
			InvoiceAmount: invoice.TotalAmount,
			MatchedBy:     models.MatchedByManual,
			Status:        models.MatchStatusProposed,
			CreatedAt:     time.Now(),
		}
		if err := tx.CreateMatch(ctx, match); err != nil {
			return err
		}
		return s.audit(ctx, tx, line.StatementID, line.ID, auditActionPropose, nil, &invoice.ID, scope, "manual proposal")
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// ConfirmMatch moves a proposed match to confirmed, re-checking the invoice
// uniqueness invariant against persisted state inside the statement lock.
func (s *Service) ConfirmMatch(ctx context.Context, scope models.Scope, matchID uuid.UUID) (*models.SOAMatch, error) {
	match, err := s.store.GetMatch(ctx, matchID, scope.VendorID)
	if err != nil {
		return nil, notFoundOr(err, "match", matchID)
	}

	err = s.store.WithStatementLock(ctx, match.StatementID, func(tx Store) error {
		// Re-read under the lock; a concurrent request may have moved it.
		match, err = tx.GetMatch(ctx, matchID, scope.VendorID)
		if err != nil {
			return notFoundOr(err, "match", matchID)
		}
		return s.confirmLocked(ctx, tx, scope, match)
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// confirmLocked performs the actual transition. Callers hold the statement
// lock.
func (s *Service) confirmLocked(ctx context.Context, tx Store, scope models.Scope, match *models.SOAMatch) error {
	switch match.Status {
	case models.MatchStatusConfirmed:
		return nil
	case models.MatchStatusRejected:
		return apperrors.NewStateError("match", match.ID, "match is already rejected")
	}

	claimer, err := tx.ConfirmedMatchByInvoice(ctx, match.StatementID, match.InvoiceID)
	if err != nil {
		return err
	}
	if claimer != nil && claimer.ID != match.ID {
		return apperrors.NewStateError("match", match.ID, "invoice is already claimed by another confirmed match")
	}
	other, err := tx.ConfirmedMatchByLine(ctx, match.SOALineID)
	if err != nil {
		return err
	}
	if other != nil && other.ID != match.ID {
		return apperrors.NewStateError("match", match.ID, "line already has a confirmed match")
	}

	now := time.Now()
	match.Status = models.MatchStatusConfirmed
	match.ConfirmedAt = &now
	if err := tx.UpdateMatch(ctx, match); err != nil {
		return err
	}

	line, err := tx.GetLine(ctx, match.SOALineID, match.VendorID)
	if err != nil {
		return err
	}
	if err := s.syncLineStatus(ctx, tx, line); err != nil {
		return err
	}
	return s.audit(ctx, tx, match.StatementID, match.SOALineID, auditActionConfirm, nil, &match.InvoiceID, scope, "")
}

// RejectMatch moves a proposed or confirmed match to rejected and, in the
// same transaction, opens the issue the rejection implies.
func (s *Service) RejectMatch(ctx context.Context, scope models.Scope, matchID uuid.UUID, reason string) (*models.SOAMatch, error) {
	if reason == "" {
		return nil, apperrors.NewValidationError("reason", "a rejection reason is required")
	}
	match, err := s.store.GetMatch(ctx, matchID, scope.VendorID)
	if err != nil {
		return nil, notFoundOr(err, "match", matchID)
	}

	err = s.store.WithStatementLock(ctx, match.StatementID, func(tx Store) error {
		match, err = tx.GetMatch(ctx, matchID, scope.VendorID)
		if err != nil {
			return notFoundOr(err, "match", matchID)
		}
		if match.Status == models.MatchStatusRejected {
			return nil
		}

		now := time.Now()
		match.Status = models.MatchStatusRejected
		match.RejectReason = reason
		match.RejectedAt = &now
		if err := tx.UpdateMatch(ctx, match); err != nil {
			return err
		}

		line, err := tx.GetLine(ctx, match.SOALineID, match.VendorID)
		if err != nil {
			return err
		}
		issue := &models.SOAIssue{
			ID:          uuid.New(),
			StatementID: match.StatementID,
			VendorID:    match.VendorID,
			SOAItemID:   match.SOALineID,
			IssueType:   issueTypeForRejection(reason),
			Severity:    models.IssueSeverityMedium,
			Description: "match rejected: " + reason,
			AmountDelta: match.AmountDelta(line.DocumentType),
			DetectedBy:  models.DetectedByManual,
			Status:      models.IssueStatusOpen,
			DetectedAt:  now,
			CreatedAt:   now,
		}
		if err := tx.CreateIssue(ctx, issue); err != nil {
			return err
		}
		if err := s.syncLineStatus(ctx, tx, line); err != nil {
			return err
		}
		return s.audit(ctx, tx, match.StatementID, match.SOALineID, auditActionReject, &match.InvoiceID, nil, scope, reason)
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// ManualMatch is the reviewer shortcut: propose and confirm in one step.
func (s *Service) ManualMatch(ctx context.Context, scope models.Scope, lineID, invoiceID uuid.UUID) (*models.SOAMatch, error) {
	match, err := s.CreateMatch(ctx, scope, lineID, invoiceID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusConfirmed {
		return match, nil
	}

	matchID := match.ID
	err = s.store.WithStatementLock(ctx, match.StatementID, func(tx Store) error {
		// Re-read under the lock; the proposal may have moved since
		// CreateMatch released it.
		match, err = tx.GetMatch(ctx, matchID, scope.VendorID)
		if err != nil {
			return notFoundOr(err, "match", matchID)
		}
		if err := s.confirmLocked(ctx, tx, scope, match); err != nil {
			return err
		}
		return s.audit(ctx, tx, match.StatementID, match.SOALineID, auditActionManual, nil, &match.InvoiceID, scope, "")
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// BulkConfirmExact confirms every pending exact system match on the
// statement. Each confirm re-checks the uniqueness invariant, so a bulk run
// can partially skip rather than double-claim.
func (s *Service) BulkConfirmExact(ctx context.Context, scope models.Scope, statementID uuid.UUID) (int, error) {
	if _, err := s.GetStatement(ctx, scope, statementID); err != nil {
		return 0, err
	}

	confirmed := 0
	err := s.store.WithStatementLock(ctx, statementID, func(tx Store) error {
		matches, err := tx.ProposedExactSystemMatches(ctx, statementID, scope.VendorID)
		if err != nil {
			return err
		}
		for i := range matches {
			if err := s.confirmLocked(ctx, tx, scope, &matches[i]); err != nil {
				var stateErr *apperrors.StateError
				if errors.As(err, &stateErr) {
					logrus.WithField("match_id", matches[i].ID).WithError(err).
						Warn("skipping match in bulk confirm")
					continue
				}
				return err
			}
			confirmed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return confirmed, nil
}

// persistProposal stores one engine proposal, applying the auto-confirm
// policy. Idempotent against re-runs: an existing confirmed match for the
// same pairing is reused, never duplicated.
func (s *Service) persistProposal(ctx context.Context, tx Store, scope models.Scope, match *models.SOAMatch) (bool, error) {
	existing, err := tx.ConfirmedMatchByLine(ctx, match.SOALineID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	// An invoice already claimed in a previous run stays off limits; the
	// proposal is still recorded for review, just never auto-confirmed.
	claimer, err := tx.ConfirmedMatchByInvoice(ctx, match.StatementID, match.InvoiceID)
	if err != nil {
		return false, err
	}

	match.CreatedAt = time.Now()
	if err := tx.CreateMatch(ctx, match); err != nil {
		return false, err
	}
	if err := s.audit(ctx, tx, match.StatementID, match.SOALineID, auditActionPropose, nil, &match.InvoiceID, scope, match.MatchCriteria); err != nil {
		return false, err
	}

	if claimer == nil && s.policy.AutoConfirmExact && match.MatchedBy == models.MatchedBySystem && match.IsExactMatch {
		if err := s.confirmLocked(ctx, tx, scope, match); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func issueTypeForRejection(reason string) models.IssueType {
	switch {
	case containsFold(reason, "date"):
		return models.IssueTypeDateMismatch
	case containsFold(reason, "grn"):
		return models.IssueTypeGRNStatus
	case containsFold(reason, "po"):
		return models.IssueTypePOStatus
	default:
		return models.IssueTypeAmountMismatch
	}
}
