package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sawpanic/eventguard/internal/domain"
)

// Store keeps an audit trail of emitted assessments in Postgres. Writes are
// idempotent on (symbol, as_of_date), so a wholesale cycle retry overwrites
// its own rows instead of duplicating them.
type Store struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS risk_assessments (
    symbol            TEXT        NOT NULL,
    as_of_date        DATE        NOT NULL,
    risk_score        DOUBLE PRECISION NOT NULL,
    haircut_tier      TEXT        NOT NULL,
    haircut_fraction  DOUBLE PRECISION NOT NULL,
    skip_trading      BOOLEAN     NOT NULL,
    sit_out_start     DATE,
    sit_out_end       DATE,
    days_to_event     INTEGER,
    nearest_event     JSONB,
    snapshot          JSONB       NOT NULL,
    degraded          BOOLEAN     NOT NULL,
    degraded_reasons  JSONB,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (symbol, as_of_date)
)`

// Open connects and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect assessment store: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure assessment schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

const upsert = `
INSERT INTO risk_assessments (
    symbol, as_of_date, risk_score, haircut_tier, haircut_fraction,
    skip_trading, sit_out_start, sit_out_end, days_to_event,
    nearest_event, snapshot, degraded, degraded_reasons
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (symbol, as_of_date) DO UPDATE SET
    risk_score = EXCLUDED.risk_score,
    haircut_tier = EXCLUDED.haircut_tier,
    haircut_fraction = EXCLUDED.haircut_fraction,
    skip_trading = EXCLUDED.skip_trading,
    sit_out_start = EXCLUDED.sit_out_start,
    sit_out_end = EXCLUDED.sit_out_end,
    days_to_event = EXCLUDED.days_to_event,
    nearest_event = EXCLUDED.nearest_event,
    snapshot = EXCLUDED.snapshot,
    degraded = EXCLUDED.degraded,
    degraded_reasons = EXCLUDED.degraded_reasons`

// SaveCycle upserts every assessment of a cycle in one transaction.
func (s *Store) SaveCycle(ctx context.Context, assessments []domain.RiskAssessment) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assessment tx: %w", err)
	}
	defer tx.Rollback()

	for _, ra := range assessments {
		var nearest []byte
		var daysTo *int
		if ra.NearestEvent != nil {
			nearest, _ = json.Marshal(ra.NearestEvent)
			d := ra.DaysToEvent
			daysTo = &d
		}
		snapshot, err := json.Marshal(ra.Snapshot)
		if err != nil {
			return fmt.Errorf("marshal snapshot for %s: %w", ra.Symbol, err)
		}
		reasons, _ := json.Marshal(ra.DegradedReason)

		var sitStart, sitEnd *time.Time
		if ra.SkipTrading {
			sitStart, sitEnd = &ra.SitOutStart, &ra.SitOutEnd
		}

		if _, err := tx.ExecContext(ctx, upsert,
			ra.Symbol, ra.AsOf, ra.RiskScore, ra.Tier, ra.HaircutFraction,
			ra.SkipTrading, sitStart, sitEnd, daysTo,
			nearest, snapshot, ra.Degraded, reasons,
		); err != nil {
			return fmt.Errorf("upsert assessment %s: %w", ra.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assessment tx: %w", err)
	}
	return nil
}
