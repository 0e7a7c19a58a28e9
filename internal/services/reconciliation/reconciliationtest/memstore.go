// Package reconciliationtest provides an in-memory Store for service tests.
package reconciliationtest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"soa-reconciliation-backend/internal/models"
	"soa-reconciliation-backend/internal/services/reconciliation"
)

// MemStore keeps everything in slices in insertion order. It is not safe for
// concurrent use; tests drive it from one goroutine.
type MemStore struct {
	Statements []*models.Statement
	Lines      []*models.SOALine
	Invoices   []*models.LedgerInvoice
	Matches    []*models.SOAMatch
	Issues     []*models.SOAIssue
	DebitNotes []*models.DebitNote
	Acks       []*models.Acknowledgement
	AuditLogs  []*models.MatchAuditLog

	// LockCount counts WithStatementLock acquisitions, so tests can assert a
	// mutation went through the lock.
	LockCount int

	// BeforeLock, when set, runs at every lock acquisition before the locked
	// function. Tests use it to interleave a mutation between two lock
	// sections of the same operation.
	BeforeLock func(m *MemStore)
}

var _ reconciliation.Store = (*MemStore)(nil)

func New() *MemStore {
	return &MemStore{}
}

func (m *MemStore) WithStatementLock(ctx context.Context, statementID uuid.UUID, fn func(tx reconciliation.Store) error) error {
	m.LockCount++
	if m.BeforeLock != nil {
		m.BeforeLock(m)
	}
	return fn(m)
}

func (m *MemStore) CreateStatement(ctx context.Context, stmt *models.Statement) error {
	m.Statements = append(m.Statements, stmt)
	return nil
}

func (m *MemStore) GetStatement(ctx context.Context, id, vendorID uuid.UUID) (*models.Statement, error) {
	for _, s := range m.Statements {
		if s.ID == id && s.VendorID == vendorID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemStore) UpdateStatement(ctx context.Context, stmt *models.Statement) error {
	for i, s := range m.Statements {
		if s.ID == stmt.ID {
			m.Statements[i] = stmt
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *MemStore) CreateLines(ctx context.Context, lines []*models.SOALine) error {
	m.Lines = append(m.Lines, lines...)
	return nil
}

func (m *MemStore) GetLine(ctx context.Context, id, vendorID uuid.UUID) (*models.SOALine, error) {
	for _, l := range m.Lines {
		if l.ID == id && l.VendorID == vendorID {
			return l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemStore) UpdateLine(ctx context.Context, line *models.SOALine) error {
	for i, l := range m.Lines {
		if l.ID == line.ID {
			m.Lines[i] = line
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *MemStore) LinesByStatement(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOALine, error) {
	var out []models.SOALine
	for _, l := range m.Lines {
		if l.StatementID == statementID && l.VendorID == vendorID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *MemStore) ExtractedLines(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOALine, error) {
	var out []models.SOALine
	for _, l := range m.Lines {
		if l.StatementID == statementID && l.VendorID == vendorID && l.Status == models.SOALineStatusExtracted {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *MemStore) ListLines(ctx context.Context, statementID, vendorID uuid.UUID, status, cursor string, limit int, search string) ([]models.SOALine, string, bool, error) {
	var all []models.SOALine
	for _, l := range m.Lines {
		if l.StatementID != statementID || l.VendorID != vendorID {
			continue
		}
		if status != "" && string(l.Status) != status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(l.DocumentNumber), strings.ToLower(search)) {
			continue
		}
		all = append(all, *l)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })

	start := 0
	if cursor != "" {
		for i, l := range all {
			if l.ID.String() > cursor {
				start = i
				break
			}
			start = i + 1
		}
	}
	all = all[start:]

	hasMore := len(all) > limit
	if hasMore {
		all = all[:limit]
	}
	next := ""
	if hasMore && len(all) > 0 {
		next = all[len(all)-1].ID.String()
	}
	return all, next, hasMore, nil
}

func (m *MemStore) CountLinesByStatus(ctx context.Context, statementID, vendorID uuid.UUID) (map[models.SOALineStatus]int, error) {
	counts := make(map[models.SOALineStatus]int)
	for _, l := range m.Lines {
		if l.StatementID == statementID && l.VendorID == vendorID {
			counts[l.Status]++
		}
	}
	return counts, nil
}

func (m *MemStore) CreateInvoice(ctx context.Context, inv *models.LedgerInvoice) error {
	m.Invoices = append(m.Invoices, inv)
	return nil
}

func (m *MemStore) GetInvoice(ctx context.Context, id, vendorID uuid.UUID) (*models.LedgerInvoice, error) {
	for _, inv := range m.Invoices {
		if inv.ID == id && inv.VendorID == vendorID {
			return inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemStore) FindCandidates(ctx context.Context, vendorID, companyID uuid.UUID, currency string) ([]models.LedgerInvoice, error) {
	var out []models.LedgerInvoice
	for _, inv := range m.Invoices {
		if inv.VendorID == vendorID && inv.CompanyID == companyID &&
			inv.Currency == currency && inv.Status == models.LedgerInvoiceStatusOpen {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *MemStore) CreateMatch(ctx context.Context, match *models.SOAMatch) error {
	m.Matches = append(m.Matches, match)
	return nil
}

func (m *MemStore) GetMatch(ctx context.Context, id, vendorID uuid.UUID) (*models.SOAMatch, error) {
	for _, match := range m.Matches {
		if match.ID == id && match.VendorID == vendorID {
			return match, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemStore) UpdateMatch(ctx context.Context, match *models.SOAMatch) error {
	for i, existing := range m.Matches {
		if existing.ID == match.ID {
			m.Matches[i] = match
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *MemStore) ConfirmedMatchByLine(ctx context.Context, lineID uuid.UUID) (*models.SOAMatch, error) {
	for _, match := range m.Matches {
		if match.SOALineID == lineID && match.Status == models.MatchStatusConfirmed {
			return match, nil
		}
	}
	return nil, nil
}

func (m *MemStore) ConfirmedMatchByInvoice(ctx context.Context, statementID, invoiceID uuid.UUID) (*models.SOAMatch, error) {
	for _, match := range m.Matches {
		if match.StatementID == statementID && match.InvoiceID == invoiceID &&
			match.Status == models.MatchStatusConfirmed {
			return match, nil
		}
	}
	return nil, nil
}

func (m *MemStore) MatchesByStatement(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOAMatch, error) {
	var out []models.SOAMatch
	for _, match := range m.Matches {
		if match.StatementID == statementID && match.VendorID == vendorID {
			out = append(out, *match)
		}
	}
	return out, nil
}

func (m *MemStore) ProposedExactSystemMatches(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOAMatch, error) {
	var out []models.SOAMatch
	for _, match := range m.Matches {
		if match.StatementID == statementID && match.VendorID == vendorID &&
			match.Status == models.MatchStatusProposed &&
			match.MatchedBy == models.MatchedBySystem && match.IsExactMatch {
			out = append(out, *match)
		}
	}
	return out, nil
}

func (m *MemStore) CreateIssue(ctx context.Context, issue *models.SOAIssue) error {
	m.Issues = append(m.Issues, issue)
	return nil
}

func (m *MemStore) GetIssue(ctx context.Context, id, vendorID uuid.UUID) (*models.SOAIssue, error) {
	for _, issue := range m.Issues {
		if issue.ID == id && issue.VendorID == vendorID {
			return issue, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemStore) UpdateIssue(ctx context.Context, issue *models.SOAIssue) error {
	for i, existing := range m.Issues {
		if existing.ID == issue.ID {
			m.Issues[i] = issue
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *MemStore) IssuesByStatement(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.SOAIssue, error) {
	var out []models.SOAIssue
	for _, issue := range m.Issues {
		if issue.StatementID == statementID && issue.VendorID == vendorID {
			out = append(out, *issue)
		}
	}
	return out, nil
}

func (m *MemStore) CountOpenIssuesByLine(ctx context.Context, lineID uuid.UUID) (int64, error) {
	var n int64
	for _, issue := range m.Issues {
		if issue.SOAItemID == lineID && issue.Status == models.IssueStatusOpen {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) CountIssuesByLine(ctx context.Context, lineID uuid.UUID) (int64, error) {
	var n int64
	for _, issue := range m.Issues {
		if issue.SOAItemID == lineID {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) CreateDebitNote(ctx context.Context, dn *models.DebitNote) error {
	m.DebitNotes = append(m.DebitNotes, dn)
	return nil
}

func (m *MemStore) GetDebitNote(ctx context.Context, id, vendorID uuid.UUID) (*models.DebitNote, error) {
	for _, dn := range m.DebitNotes {
		if dn.ID == id && dn.VendorID == vendorID {
			return dn, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemStore) UpdateDebitNote(ctx context.Context, dn *models.DebitNote) error {
	for i, existing := range m.DebitNotes {
		if existing.ID == dn.ID {
			m.DebitNotes[i] = dn
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *MemStore) DebitNotesByStatement(ctx context.Context, statementID, vendorID uuid.UUID) ([]models.DebitNote, error) {
	var out []models.DebitNote
	for _, dn := range m.DebitNotes {
		if dn.StatementID == statementID && dn.VendorID == vendorID {
			out = append(out, *dn)
		}
	}
	return out, nil
}

func (m *MemStore) SumPostedDebitNotes(ctx context.Context, statementID, vendorID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, dn := range m.DebitNotes {
		if dn.StatementID == statementID && dn.VendorID == vendorID &&
			dn.Status == models.DebitNoteStatusPosted {
			sum = sum.Add(dn.Amount)
		}
	}
	return sum, nil
}

func (m *MemStore) NextDNNo(ctx context.Context, vendorID uuid.UUID) (string, error) {
	n := 0
	for _, dn := range m.DebitNotes {
		if dn.VendorID == vendorID {
			n++
		}
	}
	return fmt.Sprintf("DN-%06d", n+1), nil
}

func (m *MemStore) CreateAcknowledgement(ctx context.Context, ack *models.Acknowledgement) error {
	m.Acks = append(m.Acks, ack)
	return nil
}

func (m *MemStore) AcknowledgementByStatement(ctx context.Context, statementID, vendorID uuid.UUID) (*models.Acknowledgement, error) {
	for _, ack := range m.Acks {
		if ack.StatementID == statementID && ack.VendorID == vendorID {
			return ack, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MemStore) AppendAuditLog(ctx context.Context, entry *models.MatchAuditLog) error {
	m.AuditLogs = append(m.AuditLogs, entry)
	return nil
}

func (m *MemStore) AuditLogsByLine(ctx context.Context, lineID uuid.UUID) ([]models.MatchAuditLog, error) {
	var out []models.MatchAuditLog
	for _, entry := range m.AuditLogs {
		if entry.SOALineID == lineID {
			out = append(out, *entry)
		}
	}
	return out, nil
}
