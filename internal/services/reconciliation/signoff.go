package reconciliation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"soa-reconciliation-backend/internal/apperrors"
	"soa-reconciliation-backend/internal/models"
)

type AcknowledgementInput struct {
	AckType string
	Notes   string
}

// SignOff closes the statement once the variance is fully driven to zero.
// The gate recomputes the summary inside the statement lock immediately
// before persisting, so no mutation can slip between the check and the
// acknowledgement. There is no partial sign-off.
func (s *Service) SignOff(ctx context.Context, scope models.Scope, statementID uuid.UUID, input AcknowledgementInput) (*models.Acknowledgement, error) {
	if input.AckType == "" {
		return nil, apperrors.NewValidationError("ack_type", "acknowledgement type is required")
	}
	stmt, err := s.GetStatement(ctx, scope, statementID)
	if err != nil {
		return nil, err
	}

	var ack *models.Acknowledgement
	err = s.store.WithStatementLock(ctx, statementID, func(tx Store) error {
		stmt, err = tx.GetStatement(ctx, statementID, scope.VendorID)
		if err != nil {
			return notFoundOr(err, "statement", statementID)
		}
		if stmt.Status == models.StatementStatusAcknowledged {
			return apperrors.NewStateError("statement", statementID, "statement is already acknowledged")
		}

		summary, err := s.computeSummary(ctx, tx, scope, statementID)
		if err != nil {
			return err
		}
		if !summary.NetVariance.IsZero() {
			return apperrors.NewStateError("statement", statementID,
				"sign-off blocked: net variance is "+summary.NetVariance.String()+", must be zero")
		}
		if summary.UnmatchedLines > 0 {
			return apperrors.NewStateError("statement", statementID,
				"sign-off blocked: statement still has unmatched lines")
		}

		snapshot, _ := json.Marshal(summary)
		now := time.Now()
		ack = &models.Acknowledgement{
			ID:              uuid.New(),
			StatementID:     statementID,
			VendorID:        scope.VendorID,
			AckType:         input.AckType,
			Notes:           input.Notes,
			ActorID:         scope.ActorID,
			SummarySnapshot: datatypes.JSON(snapshot),
			SignedAt:        now,
			CreatedAt:       now,
		}
		if err := tx.CreateAcknowledgement(ctx, ack); err != nil {
			return err
		}

		stmt.Status = models.StatementStatusAcknowledged
		return tx.UpdateStatement(ctx, stmt)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"statement_id": statementID,
		"actor_id":     scope.ActorID,
	}).Info("statement signed off")
	return ack, nil
}
