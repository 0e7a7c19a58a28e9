package matching

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"soa-reconciliation-backend/internal/config"
	"soa-reconciliation-backend/internal/models"
)

// CandidateSource looks up the open ledger documents a line can match
// against. Implemented by the repository; tests supply fakes.
type CandidateSource interface {
	FindCandidates(ctx context.Context, vendorID, companyID uuid.UUID, currency string) ([]models.LedgerInvoice, error)
}

// MatchResult pairs an input line with its proposed match. Match is nil when
// neither pass found a candidate or the candidate lookup failed.
type MatchResult struct {
	Line  models.SOALine
	Match *models.SOAMatch
}

// Engine assigns SOA lines to ledger invoices in two ordered passes:
// deterministic (normalized number + amount + currency agree exactly) then
// probabilistic (partial agreement, capped confidence). It has no side
// effects; persisting the proposals is the caller's job.
type Engine struct {
	candidates CandidateSource
	policy     config.Policy
}

func NewEngine(candidates CandidateSource, policy config.Policy) *Engine {
	return &Engine{candidates: candidates, policy: policy}
}

// BatchMatch matches every line against the vendor's open ledger pool.
// Guarantees: every input line appears exactly once in the output, in input
// order, and no invoice id appears in more than one non-nil result. A failed
// candidate lookup yields a nil match for that line only, never an abort.
func (e *Engine) BatchMatch(ctx context.Context, lines []models.SOALine, vendorID, companyID uuid.UUID) []MatchResult {
	results := make([]MatchResult, len(lines))
	candidatesByLine := make([][]models.LedgerInvoice, len(lines))
	failed := make([]bool, len(lines))

	for i, line := range lines {
		results[i] = MatchResult{Line: line}

		lookupCtx, cancel := context.WithTimeout(ctx, e.policy.CandidateLookupTimeout)
		cands, err := e.candidates.FindCandidates(lookupCtx, vendorID, companyID, line.Currency)
		cancel()
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"statement_id": line.StatementID,
				"line_id":      line.ID,
			}).Warn("candidate lookup failed, leaving line unmatched")
			failed[i] = true
			continue
		}
		// Stable pool order regardless of source ordering.
		sort.Slice(cands, func(a, b int) bool {
			return cands[a].ID.String() < cands[b].ID.String()
		})
		candidatesByLine[i] = cands
	}

	// Once an invoice is proposed it leaves the pool for the rest of the run,
	// including the probabilistic pass.
	claimed := make(map[uuid.UUID]bool)

	// Pass 1: deterministic.
	for i, line := range lines {
		if failed[i] {
			continue
		}
		if inv, tied, ok := deterministicCandidate(line, candidatesByLine[i], claimed, e.policy.AmountEpsilon); ok {
			claimed[inv.ID] = true
			results[i].Match = buildMatch(line, inv, proposal{
				pass:       1,
				matchType:  models.MatchTypeDeterministic,
				isExact:    true,
				confidence: 1.0,
				criteria:   deterministicCriteria(line, inv),
				tiedWith:   tied,
			})
		}
	}

	// Pass 2: probabilistic, only over lines pass 1 left unmatched.
	for i, line := range lines {
		if failed[i] || results[i].Match != nil {
			continue
		}
		if inv, sc, ok := probabilisticCandidate(line, candidatesByLine[i], claimed, e.policy); ok {
			claimed[inv.ID] = true
			results[i].Match = buildMatch(line, inv, proposal{
				pass:       2,
				matchType:  models.MatchTypeProbabilistic,
				isExact:    false,
				confidence: sc.total,
				criteria:   "document_number_partial,amount_tolerance,currency",
				scores:     &sc,
			})
		}
	}

	return results
}

type proposal struct {
	pass       int
	matchType  models.MatchType
	isExact    bool
	confidence float64
	criteria   string
	tiedWith   int
	scores     *scoreBreakdown
}

type scoreBreakdown struct {
	number float64
	amount float64
	date   float64
	total  float64
}

func buildMatch(line models.SOALine, inv *models.LedgerInvoice, p proposal) *models.SOAMatch {
	meta := map[string]interface{}{
		"pass":           p.pass,
		"invoice_number": inv.InvoiceNumber,
	}
	if p.tiedWith > 0 {
		meta["tie_break"] = "closest_date_then_lowest_id"
		meta["tied_candidates"] = p.tiedWith
	}
	if p.scores != nil {
		meta["number_score"] = p.scores.number
		meta["amount_score"] = p.scores.amount
		meta["date_score"] = p.scores.date
	}
	metaJSON, _ := json.Marshal(meta)

	return &models.SOAMatch{
		ID:            uuid.New(),
		StatementID:   line.StatementID,
		VendorID:      line.VendorID,
		SOALineID:     line.ID,
		InvoiceID:     inv.ID,
		MatchType:     p.matchType,
		IsExactMatch:  p.isExact,
		Confidence:    p.confidence,
		MatchScore:    int(math.Round(p.confidence * 100)),
		MatchCriteria: p.criteria,
		SOAAmount:     line.Amount,
		InvoiceAmount: inv.TotalAmount,
		MatchedBy:     models.MatchedBySystem,
		Status:        models.MatchStatusProposed,
		Metadata:      datatypes.JSON(metaJSON),
	}
}

// deterministicCandidate finds the unclaimed invoice whose normalized number,
// amount (within epsilon) and currency all agree with the line. Several
// equally valid candidates are split by closest document date, then lowest id.
func deterministicCandidate(line models.SOALine, cands []models.LedgerInvoice, claimed map[uuid.UUID]bool, epsilon float64) (*models.LedgerInvoice, int, bool) {
	lineNo := NormalizeDocNumber(line.DocumentNumber)
	if lineNo == "" {
		return nil, 0, false
	}
	eps := decimal.NewFromFloat(epsilon)

	var exact []*models.LedgerInvoice
	for i := range cands {
		inv := &cands[i]
		if claimed[inv.ID] || inv.Currency != line.Currency {
			continue
		}
		if NormalizeDocNumber(inv.InvoiceNumber) != lineNo {
			continue
		}
		if line.Amount.Sub(inv.TotalAmount).Abs().GreaterThan(eps) {
			continue
		}
		exact = append(exact, inv)
	}
	if len(exact) == 0 {
		return nil, 0, false
	}

	best := exact[0]
	for _, inv := range exact[1:] {
		bd := dateDistance(line.DocumentDate, best.InvoiceDate)
		cd := dateDistance(line.DocumentDate, inv.InvoiceDate)
		if cd < bd || (cd == bd && inv.ID.String() < best.ID.String()) {
			best = inv
		}
	}
	return best, len(exact) - 1, true
}

// probabilisticCandidate scores the remaining pool on partial number
// agreement and amount within a relative tolerance. The blended score is
// capped below 1.0 so probabilistic matches never look exact.
func probabilisticCandidate(line models.SOALine, cands []models.LedgerInvoice, claimed map[uuid.UUID]bool, policy config.Policy) (*models.LedgerInvoice, scoreBreakdown, bool) {
	lineNo := NormalizeDocNumber(line.DocumentNumber)
	if lineNo == "" {
		return nil, scoreBreakdown{}, false
	}

	var best *models.LedgerInvoice
	var bestScore scoreBreakdown
	for i := range cands {
		inv := &cands[i]
		if claimed[inv.ID] || inv.Currency != line.Currency {
			continue
		}
		invNo := NormalizeDocNumber(inv.InvoiceNumber)
		if invNo == "" || !(strings.Contains(invNo, lineNo) || strings.Contains(lineNo, invNo)) {
			continue
		}
		closeness, within := amountCloseness(line.Amount, inv.TotalAmount, policy.AmountTolerancePct)
		if !within {
			continue
		}

		sc := scoreBreakdown{
			number: numberSimilarity(lineNo, invNo),
			amount: closeness,
			date:   dateProximity(line.DocumentDate, inv.InvoiceDate),
		}
		sc.total = 0.5*sc.number + 0.3*sc.amount + 0.2*sc.date
		if sc.total > policy.ProbabilisticCeiling {
			sc.total = policy.ProbabilisticCeiling
		}

		if best == nil || better(sc, bestScore, line.DocumentDate, inv, best) {
			best = inv
			bestScore = sc
		}
	}
	if best == nil {
		return nil, scoreBreakdown{}, false
	}
	return best, bestScore, true
}

func better(sc, bestSc scoreBreakdown, lineDate time.Time, inv, best *models.LedgerInvoice) bool {
	if sc.total != bestSc.total {
		return sc.total > bestSc.total
	}
	d := dateDistance(lineDate, inv.InvoiceDate)
	bd := dateDistance(lineDate, best.InvoiceDate)
	if d != bd {
		return d < bd
	}
	return inv.ID.String() < best.ID.String()
}

// NormalizeDocNumber strips whitespace, punctuation and case so "INV 001 "
// and "inv-001" compare equal.
func NormalizeDocNumber(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// numberSimilarity is a levenshtein ratio over normalized numbers.
func numberSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := math.Max(float64(len(a)), float64(len(b)))
	if maxLen == 0 {
		return 0
	}
	return 1 - float64(levenshtein(a, b))/maxLen
}

// amountCloseness reports how near the two amounts are (1.0 = equal) and
// whether the relative difference stays inside the configured tolerance.
func amountCloseness(a, b decimal.Decimal, tolerancePct float64) (float64, bool) {
	diff := a.Sub(b).Abs()
	base := decimal.Max(a.Abs(), b.Abs())
	if base.IsZero() {
		return 1, true
	}
	rel, _ := diff.Div(base).Float64()
	if rel > tolerancePct {
		return 0, false
	}
	return 1 - rel, true
}

func dateDistance(a, b time.Time) float64 {
	return math.Abs(a.Sub(b).Hours())
}

// dateProximity tiers document date distance into a 0..1 score.
func dateProximity(lineDate, invDate time.Time) float64 {
	days := math.Abs(lineDate.Sub(invDate).Hours() / 24)
	switch {
	case days <= 3:
		return 1.0
	case days <= 7:
		return 0.8
	case days <= 15:
		return 0.6
	case days <= 30:
		return 0.4
	default:
		return 0.2
	}
}

func deterministicCriteria(line models.SOALine, inv *models.LedgerInvoice) string {
	criteria := "document_number,amount,currency"
	if sameDay(line.DocumentDate, inv.InvoiceDate) {
		criteria += ",date"
	}
	return criteria
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	for i := 0; i <= len(a); i++ {
		dp[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		dp[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			dp[i][j] = minOf(
				dp[i-1][j]+1,
				dp[i][j-1]+1,
				dp[i-1][j-1]+cost,
			)
		}
	}
	return dp[len(a)][len(b)]
}

func minOf(a, b, c int) int {
	if a < b && a < c {
		return a
	}
	if b < c {
		return b
	}
	return c
}
