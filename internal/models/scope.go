package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CapabilityFinance gates debit note approval and posting.
const CapabilityFinance = "finance"

// Scope is the vendor/company/actor context the calling layer supplies with
// every operation. It replaces any ambient "current vendor" state: no read or
// write trusts a bare statement id without the vendor filter from here.
type Scope struct {
	VendorID     uuid.UUID
	CompanyID    uuid.UUID
	ActorID      uuid.UUID
	Capabilities []string
}

func (s Scope) HasCapability(cap string) bool {
	for _, c := range s.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// Summary is the derived variance view for a statement. It is recomputed on
// demand from the match and issue tables and never cached.
type Summary struct {
	StatementID      uuid.UUID       `json:"statement_id"`
	VendorID         uuid.UUID       `json:"vendor_id"`
	NetVariance      decimal.Decimal `json:"net_variance"`
	UnmatchedLines   int             `json:"unmatched_lines"`
	DiscrepancyLines int             `json:"discrepancy_lines"`
}

// IsClean reports whether the statement satisfies the sign-off gate.
func (s Summary) IsClean() bool {
	return s.NetVariance.IsZero() && s.UnmatchedLines == 0
}
