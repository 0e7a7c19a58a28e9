package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"soa-reconciliation-backend/internal/models"
)

// GetSummary derives the statement's variance view from the current match,
// issue and debit note state. It is computed on demand every time; nothing
// here is cached, so it can never go stale relative to those tables.
func (s *Service) GetSummary(ctx context.Context, scope models.Scope, statementID uuid.UUID) (models.Summary, error) {
	if _, err := s.GetStatement(ctx, scope, statementID); err != nil {
		return models.Summary{}, err
	}
	return s.computeSummary(ctx, s.store, scope, statementID)
}

// computeSummary is shared with the sign-off gate, which runs it inside the
// statement lock so the gate decision and the acknowledgement write see the
// same state.
//
// net variance = confirmed-match deltas + claims with no confirmed match and
// no open issue, minus posted debit notes. Lines under an open issue are
// excluded: the issue tracks that part of the gap until it is resolved.
func (s *Service) computeSummary(ctx context.Context, store Store, scope models.Scope, statementID uuid.UUID) (models.Summary, error) {
	summary := models.Summary{
		StatementID: statementID,
		VendorID:    scope.VendorID,
		NetVariance: decimal.Zero,
	}

	lines, err := store.LinesByStatement(ctx, statementID, scope.VendorID)
	if err != nil {
		return summary, err
	}

	for i := range lines {
		line := &lines[i]
		if line.Status == models.SOALineStatusExtracted {
			summary.UnmatchedLines++
		}

		confirmed, err := store.ConfirmedMatchByLine(ctx, line.ID)
		if err != nil {
			return summary, err
		}
		if confirmed != nil {
			summary.NetVariance = summary.NetVariance.Add(confirmed.AmountDelta(line.DocumentType))
			continue
		}

		openIssues, err := store.CountOpenIssuesByLine(ctx, line.ID)
		if err != nil {
			return summary, err
		}
		if openIssues > 0 {
			summary.DiscrepancyLines++
			continue
		}

		// Unexplained claim: the full signed amount stands as variance until
		// a match is confirmed or a debit note corrects it.
		summary.NetVariance = summary.NetVariance.Add(line.SignedAmount())
	}

	posted, err := store.SumPostedDebitNotes(ctx, statementID, scope.VendorID)
	if err != nil {
		return summary, err
	}
	summary.NetVariance = summary.NetVariance.Sub(posted)

	return summary, nil
}
