package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soa-reconciliation-backend/internal/config"
	"soa-reconciliation-backend/internal/models"
)

type fakeSource struct {
	invoices []models.LedgerInvoice
	failFor  map[string]bool // by currency
}

func (f *fakeSource) FindCandidates(ctx context.Context, vendorID, companyID uuid.UUID, currency string) ([]models.LedgerInvoice, error) {
	if f.failFor[currency] {
		return nil, errors.New("ledger unavailable")
	}
	var out []models.LedgerInvoice
	for _, inv := range f.invoices {
		if inv.Currency == currency {
			out = append(out, inv)
		}
	}
	return out, nil
}

var (
	testVendor  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testCompany = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	baseDate    = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
)

func makeLine(docNo string, amount float64, date time.Time) models.SOALine {
	return models.SOALine{
		ID:             uuid.New(),
		StatementID:    uuid.New(),
		VendorID:       testVendor,
		CompanyID:      testCompany,
		DocumentNumber: docNo,
		DocumentType:   models.DocumentTypeInvoice,
		Amount:         decimal.NewFromFloat(amount),
		Currency:       "USD",
		DocumentDate:   date,
		Status:         models.SOALineStatusExtracted,
	}
}

func makeInvoice(id, invNo string, amount float64, date time.Time) models.LedgerInvoice {
	return models.LedgerInvoice{
		ID:            uuid.MustParse(id),
		VendorID:      testVendor,
		CompanyID:     testCompany,
		InvoiceNumber: invNo,
		DocumentType:  models.DocumentTypeInvoice,
		TotalAmount:   decimal.NewFromFloat(amount),
		Currency:      "USD",
		InvoiceDate:   date,
		Status:        models.LedgerInvoiceStatusOpen,
	}
}

func TestBatchMatchExact(t *testing.T) {
	src := &fakeSource{invoices: []models.LedgerInvoice{
		makeInvoice("aaaaaaaa-0000-0000-0000-000000000001", "INV-001", 1000, baseDate),
	}}
	engine := NewEngine(src, config.DefaultPolicy())

	line := makeLine("INV-001", 1000, baseDate)
	results := engine.BatchMatch(context.Background(), []models.SOALine{line}, testVendor, testCompany)

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Match)
	m := results[0].Match
	assert.Equal(t, models.MatchTypeDeterministic, m.MatchType)
	assert.True(t, m.IsExactMatch)
	assert.Equal(t, 1.0, m.Confidence)
	assert.Equal(t, 100, m.MatchScore)
	assert.Equal(t, models.MatchStatusProposed, m.Status)
	assert.Equal(t, models.MatchedBySystem, m.MatchedBy)
	assert.Contains(t, m.MatchCriteria, "document_number")
	assert.Contains(t, m.MatchCriteria, "date")
}

func TestBatchMatchNormalizesDocumentNumbers(t *testing.T) {
	src := &fakeSource{invoices: []models.LedgerInvoice{
		makeInvoice("aaaaaaaa-0000-0000-0000-000000000001", "inv-001", 1000, baseDate),
	}}
	engine := NewEngine(src, config.DefaultPolicy())

	line := makeLine("INV 001 ", 1000, baseDate)
	results := engine.BatchMatch(context.Background(), []models.SOALine{line}, testVendor, testCompany)

	require.NotNil(t, results[0].Match)
	assert.Equal(t, models.MatchTypeDeterministic, results[0].Match.MatchType)
	assert.Equal(t, 1.0, results[0].Match.Confidence)
}

func TestBatchMatchAmountMismatchFallsToProbabilistic(t *testing.T) {
	src := &fakeSource{invoices: []models.LedgerInvoice{
		makeInvoice("aaaaaaaa-0000-0000-0000-000000000001", "INV-001", 950, baseDate),
	}}
	engine := NewEngine(src, config.DefaultPolicy())

	line := makeLine("INV-001", 1000, baseDate)
	results := engine.BatchMatch(context.Background(), []models.SOALine{line}, testVendor, testCompany)

	require.NotNil(t, results[0].Match)
	m := results[0].Match
	assert.Equal(t, models.MatchTypeProbabilistic, m.MatchType)
	assert.False(t, m.IsExactMatch)
	assert.Less(t, m.Confidence, 1.0)
	assert.LessOrEqual(t, m.Confidence, config.DefaultPolicy().ProbabilisticCeiling)
}

func TestBatchMatchAmountOutsideToleranceUnmatched(t *testing.T) {
	src := &fakeSource{invoices: []models.LedgerInvoice{
		makeInvoice("aaaaaaaa-0000-0000-0000-000000000001", "INV-001", 900, baseDate),
	}}
	engine := NewEngine(src, config.DefaultPolicy())

	line := makeLine("INV-001", 1000, baseDate)
	results := engine.BatchMatch(context.Background(), []models.SOALine{line}, testVendor, testCompany)

	require.Len(t, results, 1)
	assert.Nil(t, results[0].Match)
}

func TestBatchMatchCurrencyMustAgree(t *testing.T) {
	inv := makeInvoice("aaaaaaaa-0000-0000-0000-000000000001", "INV-001", 1000, baseDate)
	inv.Currency = "EUR"
	src := &fakeSource{invoices: []models.LedgerInvoice{inv}}
	engine := NewEngine(src, config.DefaultPolicy())

	line := makeLine("INV-001", 1000, baseDate)
	results := engine.BatchMatch(context.Background(), []models.SOALine{line}, testVendor, testCompany)

	assert.Nil(t, results[0].Match)
}

func TestBatchMatchNoInvoiceClaimedTwice(t *testing.T) {
	src := &fakeSource{invoices: []models.LedgerInvoice{
		makeInvoice("aaaaaaaa-0000-0000-0000-000000000001", "INV-001", 1000, baseDate),
	}}
	engine := NewEngine(src, config.DefaultPolicy())

	lines := []models.SOALine{
		makeLine("INV-001", 1000, baseDate),
		makeLine("INV-001", 1000, baseDate),
	}
	results := engine.BatchMatch(context.Background(), lines, testVendor, testCompany)

	require.Len(t, results, 2)
	require.NotNil(t, results[0].Match)
	assert.Nil(t, results[1].Match)
}

func TestBatchMatchDeterministicBeatsProbabilisticForThePool(t *testing.T) {
	// A later line with an exact claim wins the invoice over an earlier line
	// that would only match it probabilistically.
	src := &fakeSource{invoices: []models.LedgerInvoice{
		makeInvoice("aaaaaaaa-0000-0000-0000-000000000001", "INV-100", 500, baseDate),
	}}
	engine := NewEngine(src, config.DefaultPolicy())

	fuzzy := makeLine("INV-1000", 510, baseDate) // containment + tolerance only
	exact := makeLine("INV-100", 500, baseDate)
	results := engine.BatchMatch(context.Background(), []models.SOALine{fuzzy, exact}, testVendor, testCompany)

	require.NotNil(t, results[1].Match)
	assert.Equal(t, models.MatchTypeDeterministic, results[1].Match.MatchType)
	assert.Nil(t, results[0].Match)
}

func TestBatchMatchTieBreakClosestDateThenLowestID(t *testing.T) {
	far := makeInvoice("aaaaaaaa-0000-0000-0000-000000000002", "INV-001", 1000, baseDate.AddDate(0, 0, 20))
	near := makeInvoice("aaaaaaaa-0000-0000-0000-000000000009", "INV-001", 1000, baseDate.AddDate(0, 0, 1))
	src := &fakeSource{invoices: []models.LedgerInvoice{far, near}}
	engine := NewEngine(src, config.DefaultPolicy())

	line := makeLine("INV-001", 1000, baseDate)
	results := engine.BatchMatch(context.Background(), []models.SOALine{line}, testVendor, testCompany)

	require.NotNil(t, results[0].Match)
	assert.Equal(t, near.ID, results[0].Match.InvoiceID)

	// Same date distance: lowest id wins.
	tied := makeInvoice("aaaaaaaa-0000-0000-0000-000000000001", "INV-001", 1000, baseDate.AddDate(0, 0, 1))
	src.invoices = []models.LedgerInvoice{near, tied}
	results = engine.BatchMatch(context.Background(), []models.SOALine{makeLine("INV-001", 1000, baseDate)}, testVendor, testCompany)
	require.NotNil(t, results[0].Match)
	assert.Equal(t, tied.ID, results[0].Match.InvoiceID)
}

func TestBatchMatchDeterministicOutput(t *testing.T) {
	invoices := []models.LedgerInvoice{
		makeInvoice("aaaaaaaa-0000-0000-0000-000000000003", "INV-003", 300, baseDate),
		makeInvoice("aaaaaaaa-0000-0000-0000-000000000001", "INV-001", 100, baseDate),
		makeInvoice("aaaaaaaa-0000-0000-0000-000000000002", "INV-002", 200, baseDate),
	}
	lines := []models.SOALine{
		makeLine("INV-002", 200, baseDate),
		makeLine("INV-001", 100, baseDate),
		makeLine("INV-003", 300, baseDate),
	}

	first := NewEngine(&fakeSource{invoices: invoices}, config.DefaultPolicy()).
		BatchMatch(context.Background(), lines, testVendor, testCompany)

	// Reversed pool order must not change the assignment.
	reversed := []models.LedgerInvoice{invoices[2], invoices[1], invoices[0]}
	second := NewEngine(&fakeSource{invoices: reversed}, config.DefaultPolicy()).
		BatchMatch(context.Background(), lines, testVendor, testCompany)

	require.Len(t, second, len(first))
	for i := range first {
		require.NotNil(t, first[i].Match)
		require.NotNil(t, second[i].Match)
		assert.Equal(t, first[i].Line.ID, second[i].Line.ID)
		assert.Equal(t, first[i].Match.InvoiceID, second[i].Match.InvoiceID)
	}
}

func TestBatchMatchLookupFailureIsolatedToLine(t *testing.T) {
	src := &fakeSource{
		invoices: []models.LedgerInvoice{
			makeInvoice("aaaaaaaa-0000-0000-0000-000000000001", "INV-001", 1000, baseDate),
		},
		failFor: map[string]bool{"EUR": true},
	}
	engine := NewEngine(src, config.DefaultPolicy())

	broken := makeLine("INV-002", 500, baseDate)
	broken.Currency = "EUR"
	lines := []models.SOALine{broken, makeLine("INV-001", 1000, baseDate)}

	results := engine.BatchMatch(context.Background(), lines, testVendor, testCompany)

	require.Len(t, results, 2)
	assert.Nil(t, results[0].Match)
	require.NotNil(t, results[1].Match)
	assert.Equal(t, 1.0, results[1].Match.Confidence)
}

func TestNormalizeDocNumber(t *testing.T) {
	cases := map[string]string{
		"INV-001":   "INV001",
		"inv 001 ":  "INV001",
		" i/n:v911": "INV911",
		"":          "",
		"---":       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeDocNumber(in), "input %q", in)
	}
}

func TestAmountCloseness(t *testing.T) {
	score, within := amountCloseness(decimal.NewFromInt(1000), decimal.NewFromInt(1000), 0.05)
	assert.True(t, within)
	assert.Equal(t, 1.0, score)

	_, within = amountCloseness(decimal.NewFromInt(1000), decimal.NewFromInt(900), 0.05)
	assert.False(t, within)

	score, within = amountCloseness(decimal.NewFromInt(1000), decimal.NewFromInt(960), 0.05)
	assert.True(t, within)
	assert.InDelta(t, 0.96, score, 1e-9)
}

func TestDateProximityTiers(t *testing.T) {
	assert.Equal(t, 1.0, dateProximity(baseDate, baseDate.AddDate(0, 0, 2)))
	assert.Equal(t, 0.8, dateProximity(baseDate, baseDate.AddDate(0, 0, 6)))
	assert.Equal(t, 0.6, dateProximity(baseDate, baseDate.AddDate(0, 0, 10)))
	assert.Equal(t, 0.4, dateProximity(baseDate, baseDate.AddDate(0, 0, 25)))
	assert.Equal(t, 0.2, dateProximity(baseDate, baseDate.AddDate(0, 0, 90)))
}
