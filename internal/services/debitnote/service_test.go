package debitnote_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soa-reconciliation-backend/internal/apperrors"
	"soa-reconciliation-backend/internal/config"
	"soa-reconciliation-backend/internal/models"
	"soa-reconciliation-backend/internal/services/debitnote"
	"soa-reconciliation-backend/internal/services/reconciliation"
	"soa-reconciliation-backend/internal/services/reconciliation/reconciliationtest"
)

var (
	ctx     = context.Background()
	docDate = time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)

	vendorScope = models.Scope{
		VendorID:  uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		CompanyID: uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		ActorID:   uuid.MustParse("33333333-3333-3333-3333-333333333333"),
	}
	financeScope = models.Scope{
		VendorID:     vendorScope.VendorID,
		CompanyID:    vendorScope.CompanyID,
		ActorID:      uuid.MustParse("44444444-4444-4444-4444-444444444444"),
		Capabilities: []string{models.CapabilityFinance},
	}
)

type fixture struct {
	recon *reconciliation.Service
	dn    *debitnote.Service
	store *reconciliationtest.MemStore
	stmt  *models.Statement
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := reconciliationtest.New()
	recon := reconciliation.NewService(store, config.DefaultPolicy())
	stmt, err := recon.CreateStatement(ctx, vendorScope, reconciliation.CreateStatementInput{
		StatementNo: "SOA-2026-02",
	})
	require.NoError(t, err)
	return &fixture{
		recon: recon,
		dn:    debitnote.NewService(store, recon),
		store: store,
		stmt:  stmt,
	}
}

func (f *fixture) propose(t *testing.T, amount float64) *models.DebitNote {
	t.Helper()
	dn, err := f.dn.Propose(ctx, vendorScope, debitnote.ProposeInput{
		StatementID: f.stmt.ID,
		Amount:      decimal.NewFromFloat(amount),
		ReasonCode:  "PRICE_DIFF",
	})
	require.NoError(t, err)
	return dn
}

func TestProposeValidation(t *testing.T) {
	f := newFixture(t)

	var vErr *apperrors.ValidationError
	_, err := f.dn.Propose(ctx, vendorScope, debitnote.ProposeInput{
		StatementID: f.stmt.ID,
		Amount:      decimal.NewFromInt(50),
	})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "reason_code", vErr.Field)

	_, err = f.dn.Propose(ctx, vendorScope, debitnote.ProposeInput{
		StatementID: f.stmt.ID,
		ReasonCode:  "PRICE_DIFF",
	})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "amount", vErr.Field)
}

func TestProposeDraftsWithSequentialNumber(t *testing.T) {
	f := newFixture(t)

	first := f.propose(t, 50)
	assert.Equal(t, "DN-000001", first.DNNo)
	assert.Equal(t, models.DebitNoteStatusDraft, first.Status)
	assert.Equal(t, vendorScope.ActorID, first.ProposedBy)

	second := f.propose(t, 25)
	assert.Equal(t, "DN-000002", second.DNNo)

	// The sequence is per vendor, not per statement: a proposal on another
	// statement of the same vendor continues it rather than restarting.
	other, err := f.recon.CreateStatement(ctx, vendorScope, reconciliation.CreateStatementInput{
		StatementNo: "SOA-2026-03",
	})
	require.NoError(t, err)
	third, err := f.dn.Propose(ctx, vendorScope, debitnote.ProposeInput{
		StatementID: other.ID,
		Amount:      decimal.NewFromInt(10),
		ReasonCode:  "PRICE_DIFF",
	})
	require.NoError(t, err)
	assert.Equal(t, "DN-000003", third.DNNo)
}

func TestProposeRejectsForeignIssue(t *testing.T) {
	f := newFixture(t)

	other, err := f.recon.CreateStatement(ctx, vendorScope, reconciliation.CreateStatementInput{
		StatementNo: "SOA-2026-03",
	})
	require.NoError(t, err)
	lines, err := f.recon.IngestLines(ctx, vendorScope, other.ID, []reconciliation.LineInput{{
		DocumentNumber: "INV-009",
		DocumentType:   models.DocumentTypeInvoice,
		Amount:         decimal.NewFromInt(10),
		Currency:       "USD",
		DocumentDate:   docDate,
	}})
	require.NoError(t, err)
	issue, err := f.recon.CreateIssue(ctx, vendorScope, other.ID, reconciliation.IssueInput{
		SOAItemID: lines[0].ID,
		IssueType: models.IssueTypeAmountMismatch,
	})
	require.NoError(t, err)

	var vErr *apperrors.ValidationError
	_, err = f.dn.Propose(ctx, vendorScope, debitnote.ProposeInput{
		StatementID: f.stmt.ID,
		SOAIssueID:  &issue.ID,
		Amount:      decimal.NewFromInt(50),
		ReasonCode:  "PRICE_DIFF",
	})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "soa_issue_id", vErr.Field)
}

func TestApproveRequiresFinanceCapability(t *testing.T) {
	f := newFixture(t)
	dn := f.propose(t, 50)

	var authErr *apperrors.AuthorizationError
	_, err := f.dn.Approve(ctx, vendorScope, dn.ID)
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, models.CapabilityFinance, authErr.Capability)

	_, err = f.dn.Post(ctx, vendorScope, dn.ID, nil)
	require.ErrorAs(t, err, &authErr)
}

func TestPostRequiresApprovedState(t *testing.T) {
	f := newFixture(t)
	dn := f.propose(t, 50)

	var stErr *apperrors.StateError
	_, err := f.dn.Post(ctx, financeScope, dn.ID, nil)
	require.ErrorAs(t, err, &stErr)
}

func TestDebitNoteLifecycle(t *testing.T) {
	f := newFixture(t)
	dn := f.propose(t, 50)

	approved, err := f.dn.Approve(ctx, financeScope, dn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DebitNoteStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, &financeScope.ActorID, approved.ApprovedBy)

	// No second approval, no reverse moves.
	var stErr *apperrors.StateError
	_, err = f.dn.Approve(ctx, financeScope, dn.ID)
	require.ErrorAs(t, err, &stErr)

	entryID := uuid.New()
	posted, err := f.dn.Post(ctx, financeScope, dn.ID, &entryID)
	require.NoError(t, err)
	assert.Equal(t, models.DebitNoteStatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)
	assert.Equal(t, &entryID, posted.LedgerEntryID)

	_, err = f.dn.Post(ctx, financeScope, dn.ID, nil)
	require.ErrorAs(t, err, &stErr)

	notes, err := f.dn.List(ctx, vendorScope, f.stmt.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.DebitNoteStatusPosted, notes[0].Status)
}

type failingSummaries struct{}

func (failingSummaries) GetSummary(ctx context.Context, scope models.Scope, statementID uuid.UUID) (models.Summary, error) {
	return models.Summary{}, errors.New("summary backend unavailable")
}

func TestPostSucceedsWhenRecomputeFails(t *testing.T) {
	f := newFixture(t)
	svc := debitnote.NewService(f.store, failingSummaries{})

	dn, err := svc.Propose(ctx, vendorScope, debitnote.ProposeInput{
		StatementID: f.stmt.ID,
		Amount:      decimal.NewFromInt(50),
		ReasonCode:  "PRICE_DIFF",
	})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, financeScope, dn.ID)
	require.NoError(t, err)

	// The note is durably posted before the recompute runs; its failure is
	// logged, not surfaced.
	posted, err := svc.Post(ctx, financeScope, dn.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, posted)
	assert.Equal(t, models.DebitNoteStatusPosted, posted.Status)

	stored, err := f.store.GetDebitNote(ctx, dn.ID, vendorScope.VendorID)
	require.NoError(t, err)
	assert.Equal(t, models.DebitNoteStatusPosted, stored.Status)
}

func TestPostedDebitNoteDrivesVarianceToZero(t *testing.T) {
	f := newFixture(t)

	// A confirmed match with a 50 delta keeps the statement open.
	inv, err := f.recon.SeedInvoice(ctx, vendorScope, reconciliation.InvoiceInput{
		InvoiceNumber: "INV-001",
		DocumentType:  models.DocumentTypeInvoice,
		TotalAmount:   decimal.NewFromInt(950),
		Currency:      "USD",
		InvoiceDate:   docDate,
	})
	require.NoError(t, err)
	lines, err := f.recon.IngestLines(ctx, vendorScope, f.stmt.ID, []reconciliation.LineInput{{
		DocumentNumber: "INV-001",
		DocumentType:   models.DocumentTypeInvoice,
		Amount:         decimal.NewFromInt(1000),
		Currency:       "USD",
		DocumentDate:   docDate,
	}})
	require.NoError(t, err)
	_, err = f.recon.ManualMatch(ctx, vendorScope, lines[0].ID, inv.ID)
	require.NoError(t, err)

	summary, err := f.recon.GetSummary(ctx, vendorScope, f.stmt.ID)
	require.NoError(t, err)
	require.True(t, summary.NetVariance.Equal(decimal.NewFromInt(50)), "got %s", summary.NetVariance)

	var stErr *apperrors.StateError
	_, err = f.recon.SignOff(ctx, vendorScope, f.stmt.ID, reconciliation.AcknowledgementInput{AckType: "full"})
	require.ErrorAs(t, err, &stErr)

	// Draft and approved notes change nothing; only posting counts.
	dn := f.propose(t, 50)
	summary, err = f.recon.GetSummary(ctx, vendorScope, f.stmt.ID)
	require.NoError(t, err)
	require.True(t, summary.NetVariance.Equal(decimal.NewFromInt(50)))

	_, err = f.dn.Approve(ctx, financeScope, dn.ID)
	require.NoError(t, err)
	_, err = f.dn.Post(ctx, financeScope, dn.ID, nil)
	require.NoError(t, err)

	summary, err = f.recon.GetSummary(ctx, vendorScope, f.stmt.ID)
	require.NoError(t, err)
	assert.True(t, summary.NetVariance.IsZero(), "got %s", summary.NetVariance)
	assert.True(t, summary.IsClean())

	// The corrected statement now signs off.
	_, err = f.recon.SignOff(ctx, vendorScope, f.stmt.ID, reconciliation.AcknowledgementInput{AckType: "full"})
	require.NoError(t, err)

	// And an acknowledged statement takes no further corrections.
	_, err = f.dn.Propose(ctx, vendorScope, debitnote.ProposeInput{
		StatementID: f.stmt.ID,
		Amount:      decimal.NewFromInt(1),
		ReasonCode:  "PRICE_DIFF",
	})
	require.ErrorAs(t, err, &stErr)
}
