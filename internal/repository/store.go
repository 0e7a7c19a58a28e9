package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"soa-reconciliation-backend/internal/services/reconciliation"
)

// Store is the persistence layer for the reconciliation core. All reads are
// vendor scoped; a statement id alone is never trusted.
type Store struct {
	db *gorm.DB
}

var _ reconciliation.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migration wiring.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// WithStatementLock runs fn in a transaction holding the per-statement
// advisory lock. Confirm, reject, issue resolution, sign-off and debit note
// posting all go through here so concurrent requests for the same statement
// serialize against persisted state, not in-memory batch results.
//
// NOTE: pg_advisory_xact_lock is transaction scoped and releases on
// commit/rollback, so no explicit unlock is needed.
func (s *Store) WithStatementLock(ctx context.Context, statementID uuid.UUID, fn func(tx reconciliation.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lockKey := fmt.Sprintf("soa_statement:%s", statementID)
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", lockKey).Error; err != nil {
			return fmt.Errorf("could not acquire statement lock for %s: %w", statementID, err)
		}
		return fn(&Store{db: tx})
	})
}
