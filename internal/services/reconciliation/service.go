package reconciliation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"soa-reconciliation-backend/internal/apperrors"
	"soa-reconciliation-backend/internal/config"
	"soa-reconciliation-backend/internal/models"
	"soa-reconciliation-backend/internal/services/matching"
)

// Service owns the match ledger, issue tracker, variance aggregator and
// sign-off gate for vendor statements.
type Service struct {
	store  Store
	engine *matching.Engine
	policy config.Policy
}

func NewService(store Store, policy config.Policy) *Service {
	return &Service{
		store:  store,
		engine: matching.NewEngine(store, policy),
		policy: policy,
	}
}

type CreateStatementInput struct {
	StatementNo    string
	SourceFilename string
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

func (s *Service) CreateStatement(ctx context.Context, scope models.Scope, input CreateStatementInput) (*models.Statement, error) {
	if input.StatementNo == "" {
		return nil, apperrors.NewValidationError("statement_no", "statement number is required")
	}
	stmt := &models.Statement{
		ID:             uuid.New(),
		VendorID:       scope.VendorID,
		CompanyID:      scope.CompanyID,
		StatementNo:    input.StatementNo,
		SourceFilename: input.SourceFilename,
		PeriodStart:    input.PeriodStart,
		PeriodEnd:      input.PeriodEnd,
		Status:         models.StatementStatusOpen,
		CreatedAt:      time.Now(),
	}
	if err := s.store.CreateStatement(ctx, stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (s *Service) GetStatement(ctx context.Context, scope models.Scope, statementID uuid.UUID) (*models.Statement, error) {
	stmt, err := s.store.GetStatement(ctx, statementID, scope.VendorID)
	if err != nil {
		return nil, notFoundOr(err, "statement", statementID)
	}
	return stmt, nil
}

// StatementStats is the progress view for a statement: the per-status line
// breakdown the review UI polls.
type StatementStats struct {
	Statement        *models.Statement `json:"statement"`
	TotalLines       int               `json:"total_lines"`
	ExtractedLines   int               `json:"extracted_lines"`
	MatchedLines     int               `json:"matched_lines"`
	DiscrepancyLines int               `json:"discrepancy_lines"`
	ResolvedLines    int               `json:"resolved_lines"`
}

func (s *Service) GetStatementStats(ctx context.Context, scope models.Scope, statementID uuid.UUID) (*StatementStats, error) {
	stmt, err := s.GetStatement(ctx, scope, statementID)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.CountLinesByStatus(ctx, statementID, scope.VendorID)
	if err != nil {
		return nil, err
	}
	stats := &StatementStats{
		Statement:        stmt,
		ExtractedLines:   counts[models.SOALineStatusExtracted],
		MatchedLines:     counts[models.SOALineStatusMatched],
		DiscrepancyLines: counts[models.SOALineStatusDiscrepancy],
		ResolvedLines:    counts[models.SOALineStatusResolved],
	}
	stats.TotalLines = stats.ExtractedLines + stats.MatchedLines + stats.DiscrepancyLines + stats.ResolvedLines
	return stats, nil
}

// LineInput is one normalized SOA line from the ingestion layer. Parsing raw
// statement files happens upstream; this service never sees them.
type LineInput struct {
	DocumentNumber string
	DocumentType   models.DocumentType
	Amount         decimal.Decimal
	Currency       string
	DocumentDate   time.Time
	Description    string
}

func (s *Service) IngestLines(ctx context.Context, scope models.Scope, statementID uuid.UUID, inputs []LineInput) ([]models.SOALine, error) {
	stmt, err := s.GetStatement(ctx, scope, statementID)
	if err != nil {
		return nil, err
	}
	if stmt.Status == models.StatementStatusAcknowledged {
		return nil, apperrors.NewStateError("statement", statementID, "statement is already acknowledged")
	}
	if len(inputs) == 0 {
		return nil, apperrors.NewValidationError("lines", "at least one line is required")
	}

	lines := make([]*models.SOALine, 0, len(inputs))
	for _, in := range inputs {
		if in.DocumentNumber == "" {
			return nil, apperrors.NewValidationError("document_number", "document number is required")
		}
		if !in.DocumentType.IsValid() {
			return nil, apperrors.NewValidationError("document_type", "document type must be INV, CN or DN")
		}
		if len(in.Currency) != 3 {
			return nil, apperrors.NewValidationError("currency", "currency must be a 3-letter ISO code")
		}
		lines = append(lines, &models.SOALine{
			ID:             uuid.New(),
			StatementID:    statementID,
			VendorID:       scope.VendorID,
			CompanyID:      scope.CompanyID,
			DocumentNumber: in.DocumentNumber,
			DocumentType:   in.DocumentType,
			Amount:         in.Amount,
			Currency:       in.Currency,
			DocumentDate:   in.DocumentDate,
			Description:    in.Description,
			Status:         models.SOALineStatusExtracted,
			CreatedAt:      time.Now(),
		})
	}
	if err := s.store.CreateLines(ctx, lines); err != nil {
		return nil, err
	}

	stmt.TotalLines += len(lines)
	if err := s.store.UpdateStatement(ctx, stmt); err != nil {
		return nil, err
	}

	out := make([]models.SOALine, len(lines))
	for i, l := range lines {
		out[i] = *l
	}
	return out, nil
}

func (s *Service) ListLines(ctx context.Context, scope models.Scope, statementID uuid.UUID, status, cursor string, limit int, search string) ([]models.SOALine, string, bool, error) {
	if _, err := s.GetStatement(ctx, scope, statementID); err != nil {
		return nil, "", false, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListLines(ctx, statementID, scope.VendorID, status, cursor, limit, search)
}

// RunSummary reports what a matching run produced.
type RunSummary struct {
	LinesConsidered int `json:"lines_considered"`
	Proposed        int `json:"proposed"`
	AutoConfirmed   int `json:"auto_confirmed"`
	Unmatched       int `json:"unmatched"`
}

// RunMatching feeds the statement's extracted lines through the engine and
// persists each proposal. The engine itself is pure; all writes happen here,
// under the statement lock.
func (s *Service) RunMatching(ctx context.Context, scope models.Scope, statementID uuid.UUID) (*RunSummary, error) {
	stmt, err := s.GetStatement(ctx, scope, statementID)
	if err != nil {
		return nil, err
	}
	if stmt.Status == models.StatementStatusAcknowledged {
		return nil, apperrors.NewStateError("statement", statementID, "statement is already acknowledged")
	}

	lines, err := s.store.ExtractedLines(ctx, statementID, scope.VendorID)
	if err != nil {
		return nil, err
	}

	results := s.engine.BatchMatch(ctx, lines, scope.VendorID, scope.CompanyID)

	summary := &RunSummary{LinesConsidered: len(results)}
	err = s.store.WithStatementLock(ctx, statementID, func(tx Store) error {
		for _, res := range results {
			if res.Match == nil {
				summary.Unmatched++
				continue
			}
			confirmed, err := s.persistProposal(ctx, tx, scope, res.Match)
			if err != nil {
				return err
			}
			summary.Proposed++
			if confirmed {
				summary.AutoConfirmed++
			}
		}
		return s.refreshStatementCounts(ctx, tx, stmt)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"statement_id":   statementID,
		"lines":          summary.LinesConsidered,
		"proposed":       summary.Proposed,
		"auto_confirmed": summary.AutoConfirmed,
		"unmatched":      summary.Unmatched,
	}).Info("matching run finished")
	return summary, nil
}

func (s *Service) refreshStatementCounts(ctx context.Context, tx Store, stmt *models.Statement) error {
	counts, err := tx.CountLinesByStatus(ctx, stmt.ID, stmt.VendorID)
	if err != nil {
		return err
	}
	stmt.MatchedCount = counts[models.SOALineStatusMatched]
	stmt.DiscrepancyCount = counts[models.SOALineStatusDiscrepancy]
	return tx.UpdateStatement(ctx, stmt)
}

// syncLineStatus re-derives the line status from its match and issue records.
// The status column is never written from anywhere else.
func (s *Service) syncLineStatus(ctx context.Context, tx Store, line *models.SOALine) error {
	open, err := tx.CountOpenIssuesByLine(ctx, line.ID)
	if err != nil {
		return err
	}
	confirmed, err := tx.ConfirmedMatchByLine(ctx, line.ID)
	if err != nil {
		return err
	}

	status := models.SOALineStatusExtracted
	switch {
	case open > 0:
		status = models.SOALineStatusDiscrepancy
	case confirmed != nil:
		status = models.SOALineStatusMatched
	default:
		total, err := tx.CountIssuesByLine(ctx, line.ID)
		if err != nil {
			return err
		}
		if total > 0 {
			status = models.SOALineStatusResolved
		}
	}

	if line.Status == status {
		return nil
	}
	line.Status = status
	return tx.UpdateLine(ctx, line)
}

func (s *Service) audit(ctx context.Context, tx Store, statementID, lineID uuid.UUID, action string, prev, next *uuid.UUID, actor models.Scope, reason string) error {
	return tx.AppendAuditLog(ctx, &models.MatchAuditLog{
		ID:              uuid.New(),
		StatementID:     statementID,
		SOALineID:       lineID,
		Action:          action,
		PreviousInvoice: prev,
		NewInvoice:      next,
		PerformedBy:     actor.ActorID.String(),
		Reason:          reason,
		CreatedAt:       time.Now(),
	})
}

func notFoundOr(err error, resource string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NewNotFoundError(resource, id)
	}
	return err
}
