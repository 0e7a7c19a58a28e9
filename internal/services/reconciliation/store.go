package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"soa-reconciliation-backend/internal/models"
)

// Store is the persistence port for the reconciliation core. The repository
// package provides the gorm implementation; tests use an in-memory fake.
type Store interface {
	// WithStatementLock runs fn transactionally while holding the
	// per-statement advisory lock. Every confirm, reject, resolution,
	// sign-off and debit note transition goes through it.
	WithStatementLock(ctx context.Context, statementID uuid.UUID, fn func(tx Store) error) error

	CreateStatement(ctx context.Context, stmt *models.Statement) error
	GetStatement(ctx context.Context, id, vendorID uuid.UUID) (*models.Statement, error)
	UpdateStatement(ctx context.Context, stmt *models.Statement) error

	CreateLines(ctx context.Context, lines []*models.SOALine) error
	GetLine(ctx context.Context, id, vendorID uuid.UUID) (*models.SOALine, error)
	UpdateLine(ctx context.Context, line *models.SOALine) error
	LinesByStatement(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOALine, error)
	ExtractedLines(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOALine, error)
	ListLines(ctx context.Context, statementID, vendorID uuid.UUID, status, cursor string, limit int, search string) ([]models.SOALine, string, bool, error)
	CountLinesByStatus(ctx context.Context, statementID, vendorID uuid.UUID) (map[models.SOALineStatus]int, error)

	CreateInvoice(ctx context.Context, inv *models.LedgerInvoice) error
	GetInvoice(ctx context.Context, id, vendorID uuid.UUID) (*models.LedgerInvoice, error)
	FindCandidates(ctx context.Context, vendorID, companyID uuid.UUID, currency string) ([]models.LedgerInvoice, error)

	CreateMatch(ctx context.Context, m *models.SOAMatch) error
	GetMatch(ctx context.Context, id, vendorID uuid.UUID) (*models.SOAMatch, error)
	UpdateMatch(ctx context.Context, m *models.SOAMatch) error
	ConfirmedMatchByLine(ctx context.Context, lineID uuid.UUID) (*models.SOAMatch, error)
	ConfirmedMatchByInvoice(ctx context.Context, statementID, invoiceID uuid.UUID) (*models.SOAMatch, error)
	MatchesByStatement(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOAMatch, error)
	ProposedExactSystemMatches(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOAMatch, error)

	CreateIssue(ctx context.Context, issue *models.SOAIssue) error
	GetIssue(ctx context.Context, id, vendorID uuid.UUID) (*models.SOAIssue, error)
	UpdateIssue(ctx context.Context, issue *models.SOAIssue) error
	IssuesByStatement(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOAIssue, error)
	CountOpenIssuesByLine(ctx context.Context, lineID uuid.UUID) (int64, error)
	CountIssuesByLine(ctx context.Context, lineID uuid.UUID) (int64, error)

	CreateDebitNote(ctx context.Context, dn *models.DebitNote) error
	GetDebitNote(ctx context.Context, id, vendorID uuid.UUID) (*models.DebitNote, error)
	UpdateDebitNote(ctx context.Context, dn *models.DebitNote) error
	DebitNotesByStatement(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.DebitNote, error)
	SumPostedDebitNotes(ctx context.Context, statementID, vendorID uuid.UUID) (decimal.Decimal, error)
	NextDNNo(ctx context.Context, vendorID uuid.UUID) (string, error)

	CreateAcknowledgement(ctx context.Context, ack *models.Acknowledgement) error
	AcknowledgementByStatement(ctx context.Context, statementID, vendorID uuid.UUID) (*models.Acknowledgement, error)

	AppendAuditLog(ctx context.Context, entry *models.MatchAuditLog) error
	AuditLogsByLine(ctx context.Context, lineID uuid.UUID) ([]models.MatchAuditLog, error)
}
