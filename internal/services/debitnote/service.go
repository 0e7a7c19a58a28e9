package debitnote

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"soa-reconciliation-backend/internal/apperrors"
	"soa-reconciliation-backend/internal/models"
	"soa-reconciliation-backend/internal/services/reconciliation"
)

// SummarySource recomputes a statement's variance after a posting. The
// reconciliation service implements it.
type SummarySource interface {
	GetSummary(ctx context.Context, scope models.Scope, statementID uuid.UUID) (models.Summary, error)
}

// Service drives the debit note correction workflow: a strict
// draft -> approved -> posted machine, with approval and posting gated on the
// finance capability.
type Service struct {
	store     reconciliation.Store
	summaries SummarySource
}

func NewService(store reconciliation.Store, summaries SummarySource) *Service {
	return &Service{store: store, summaries: summaries}
}

type ProposeInput struct {
	StatementID uuid.UUID
	SOAIssueID  *uuid.UUID
	Amount      decimal.Decimal
	ReasonCode  string
	Notes       string
}

// Propose drafts a debit note against a statement, optionally tied to the
// issue it corrects. Amount and reason code are mandatory.
func (s *Service) Propose(ctx context.Context, scope models.Scope, input ProposeInput) (*models.DebitNote, error) {
	if input.ReasonCode == "" {
		return nil, apperrors.NewValidationError("reason_code", "a reason code is required")
	}
	if input.Amount.IsZero() {
		return nil, apperrors.NewValidationError("amount", "a non-zero amount is required")
	}

	stmt, err := s.store.GetStatement(ctx, input.StatementID, scope.VendorID)
	if err != nil {
		return nil, notFoundOr(err, "statement", input.StatementID)
	}
	if stmt.Status == models.StatementStatusAcknowledged {
		return nil, apperrors.NewStateError("statement", stmt.ID, "statement is already acknowledged")
	}
	if input.SOAIssueID != nil {
		issue, err := s.store.GetIssue(ctx, *input.SOAIssueID, scope.VendorID)
		if err != nil {
			return nil, notFoundOr(err, "issue", *input.SOAIssueID)
		}
		if issue.StatementID != input.StatementID {
			return nil, apperrors.NewValidationError("soa_issue_id", "issue belongs to a different statement")
		}
	}

	var dn *models.DebitNote
	err = s.store.WithStatementLock(ctx, input.StatementID, func(tx reconciliation.Store) error {
		dnNo, err := tx.NextDNNo(ctx, scope.VendorID)
		if err != nil {
			return err
		}
		dn = &models.DebitNote{
			ID:          uuid.New(),
			DNNo:        dnNo,
			StatementID: input.StatementID,
			SOAIssueID:  input.SOAIssueID,
			VendorID:    scope.VendorID,
			CompanyID:   scope.CompanyID,
			Amount:      input.Amount,
			ReasonCode:  input.ReasonCode,
			Notes:       input.Notes,
			Status:      models.DebitNoteStatusDraft,
			ProposedBy:  scope.ActorID,
			CreatedAt:   time.Now(),
		}
		return tx.CreateDebitNote(ctx, dn)
	})
	if err != nil {
		return nil, err
	}
	return dn, nil
}

// Approve moves a draft to approved. Internal finance actors only.
func (s *Service) Approve(ctx context.Context, scope models.Scope, dnID uuid.UUID) (*models.DebitNote, error) {
	if !scope.HasCapability(models.CapabilityFinance) {
		return nil, apperrors.NewAuthorizationError(scope.ActorID, models.CapabilityFinance)
	}
	dn, err := s.store.GetDebitNote(ctx, dnID, scope.VendorID)
	if err != nil {
		return nil, notFoundOr(err, "debit_note", dnID)
	}

	err = s.store.WithStatementLock(ctx, dn.StatementID, func(tx reconciliation.Store) error {
		dn, err = tx.GetDebitNote(ctx, dnID, scope.VendorID)
		if err != nil {
			return notFoundOr(err, "debit_note", dnID)
		}
		if !dn.Status.CanApprove() {
			return apperrors.NewStateError("debit_note", dnID, "only a draft debit note can be approved")
		}
		now := time.Now()
		dn.Status = models.DebitNoteStatusApproved
		dn.ApprovedBy = &scope.ActorID
		dn.ApprovedAt = &now
		return tx.UpdateDebitNote(ctx, dn)
	})
	if err != nil {
		return nil, err
	}
	return dn, nil
}

// Post moves an approved note to posted, optionally linking the ledger entry
// that carried the correction, then recomputes the statement's variance.
func (s *Service) Post(ctx context.Context, scope models.Scope, dnID uuid.UUID, ledgerEntryID *uuid.UUID) (*models.DebitNote, error) {
	if !scope.HasCapability(models.CapabilityFinance) {
		return nil, apperrors.NewAuthorizationError(scope.ActorID, models.CapabilityFinance)
	}
	dn, err := s.store.GetDebitNote(ctx, dnID, scope.VendorID)
	if err != nil {
		return nil, notFoundOr(err, "debit_note", dnID)
	}

	err = s.store.WithStatementLock(ctx, dn.StatementID, func(tx reconciliation.Store) error {
		dn, err = tx.GetDebitNote(ctx, dnID, scope.VendorID)
		if err != nil {
			return notFoundOr(err, "debit_note", dnID)
		}
		if !dn.Status.CanPost() {
			return apperrors.NewStateError("debit_note", dnID, "only an approved debit note can be posted")
		}
		now := time.Now()
		dn.Status = models.DebitNoteStatusPosted
		dn.PostedBy = &scope.ActorID
		dn.PostedAt = &now
		dn.LedgerEntryID = ledgerEntryID
		return tx.UpdateDebitNote(ctx, dn)
	})
	if err != nil {
		return nil, err
	}

	// Posting is how a variance gets corrected without a re-match, so the
	// summary is recomputed right away. The note is durably posted at this
	// point; a failed recompute must not mask that.
	summary, err := s.summaries.GetSummary(ctx, scope, dn.StatementID)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"statement_id": dn.StatementID,
			"dn_no":        dn.DNNo,
		}).Warn("variance recompute failed after posting")
		return dn, nil
	}
	logrus.WithFields(logrus.Fields{
		"statement_id": dn.StatementID,
		"dn_no":        dn.DNNo,
		"net_variance": summary.NetVariance.String(),
	}).Info("debit note posted, variance recomputed")
	return dn, nil
}

// List returns the statement's debit notes in proposal order.
func (s *Service) List(ctx context.Context, scope models.Scope, statementID uuid.UUID) ([]models.DebitNote, error) {
	if _, err := s.store.GetStatement(ctx, statementID, scope.VendorID); err != nil {
		return nil, notFoundOr(err, "statement", statementID)
	}
	return s.store.DebitNotesByStatement(ctx, statementID, scope.VendorID)
}

func notFoundOr(err error, resource string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFoundError(resource, id)
	}
	return err
}
