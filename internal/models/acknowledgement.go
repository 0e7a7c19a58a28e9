package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Acknowledgement is the immutable sign-off record for a statement. Rows are
// append-only; nothing in the service updates or deletes them.
type Acknowledgement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	StatementID uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	VendorID    uuid.UUID `gorm:"type:uuid;index"`
	AckType     string
	Notes       string
	ActorID     uuid.UUID `gorm:"type:uuid"`
	// Summary captured at the moment of sign-off, for audit.
	SummarySnapshot datatypes.JSON
	SignedAt        time.Time
	CreatedAt       time.Time
}

func (Acknowledgement) TableName() string {
	return "soa_acknowledgements"
}
