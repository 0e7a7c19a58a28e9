package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB opens the Postgres connection from environment variables.
// DATABASE_URL wins; otherwise the connection is assembled from DB_* parts.
func InitDB() *gorm.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			envOr("DB_HOST", "localhost"),
			envOr("DB_USER", "postgres"),
			envOr("DB_PASSWORD", "postgres"),
			envOr("DB_NAME", "soa_reconciliation"),
			envOr("DB_PORT", "5432"),
		)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	return db
}

// Policy holds the reconciliation tunables. The auto-confirm flag decides
// whether a system-proposed exact match is confirmed immediately or left
// pending manual review.
type Policy struct {
	AutoConfirmExact       bool
	ProbabilisticCeiling   float64
	AmountEpsilon          float64
	AmountTolerancePct     float64
	CandidateLookupTimeout time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		AutoConfirmExact:       true,
		ProbabilisticCeiling:   0.85,
		AmountEpsilon:          0.01,
		AmountTolerancePct:     0.05,
		CandidateLookupTimeout: 3 * time.Second,
	}
}

// LoadPolicy reads policy overrides from the environment, falling back to
// defaults for anything unset or unparsable.
func LoadPolicy() Policy {
	p := DefaultPolicy()
	if v := os.Getenv("RECON_AUTO_CONFIRM_EXACT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			p.AutoConfirmExact = b
		}
	}
	if v := os.Getenv("RECON_PROBABILISTIC_CEILING"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f < 1 {
			p.ProbabilisticCeiling = f
		}
	}
	if v := os.Getenv("RECON_AMOUNT_EPSILON"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			p.AmountEpsilon = f
		}
	}
	if v := os.Getenv("RECON_AMOUNT_TOLERANCE_PCT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			p.AmountTolerancePct = f
		}
	}
	if v := os.Getenv("RECON_LOOKUP_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.CandidateLookupTimeout = time.Duration(n) * time.Second
		}
	}
	return p
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
