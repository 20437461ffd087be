package curve

import (
	"context"
	"fmt"
	"time"

	"spreadwatch/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel/trace"
)

// maxHistoryDays bounds any history read regardless of what the caller asks
// for.
const maxHistoryDays = 365

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS term_spread_snapshots (
    snapshot_date   DATE           PRIMARY KEY,
    term_spread     NUMERIC(12,4)  NOT NULL,
    front_month_apy NUMERIC(12,4)  NOT NULL,
    back_month_apy  NUMERIC(12,4)  NOT NULL,
    front_expiry    DATE           NOT NULL,
    back_expiry     DATE           NOT NULL,
    underlying_apy  NUMERIC(12,4)  NOT NULL,
    markets_count   INT            NOT NULL,
    created_at      TIMESTAMPTZ    NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ    NOT NULL DEFAULT NOW()
);
`

// StoreError marks a persistence failure, carrying the upstream diagnostic.
// Callers decide whether it is terminal (daily job) or user-visible (read
// path).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("snapshot store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository persists one SpreadSnapshot row per calendar day.
type Repository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewRepository(pool PgxPool, tracer trace.Tracer) *Repository {
	return &Repository{pool: pool, tracer: tracer}
}

func (r *Repository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "snapshot-repo.run-migrations")
	defer span.End()

	if _, err := r.pool.Exec(ctx, createSnapshotsTable); err != nil {
		return &StoreError{Op: "migrate", Err: err}
	}
	return nil
}

// UpsertSnapshot writes the snapshot keyed by date. An existing row for the
// same date is fully replaced, so re-running the daily job is safe: identical
// inputs are idempotent, fresher inputs win. Conflict resolution is a single
// row and atomic at the database.
func (r *Repository) UpsertSnapshot(ctx context.Context, snapshot domain.SpreadSnapshot) error {
	_, span := r.tracer.Start(ctx, "snapshot-repo.upsert-snapshot")
	defer span.End()

	date, err := time.Parse(dateLayout, snapshot.Date)
	if err != nil {
		return &StoreError{Op: "upsert", Err: fmt.Errorf("bad snapshot date %q: %w", snapshot.Date, err)}
	}
	frontExpiry, err := time.Parse(dateLayout, snapshot.FrontExpiry)
	if err != nil {
		return &StoreError{Op: "upsert", Err: fmt.Errorf("bad front expiry %q: %w", snapshot.FrontExpiry, err)}
	}
	backExpiry, err := time.Parse(dateLayout, snapshot.BackExpiry)
	if err != nil {
		return &StoreError{Op: "upsert", Err: fmt.Errorf("bad back expiry %q: %w", snapshot.BackExpiry, err)}
	}

	_, err = r.pool.Exec(ctx, `
INSERT INTO term_spread_snapshots (
    snapshot_date, term_spread, front_month_apy, back_month_apy,
    front_expiry, back_expiry, underlying_apy, markets_count
) VALUES (
    $1, $2, $3, $4,
    $5, $6, $7, $8
)
ON CONFLICT (snapshot_date) DO UPDATE SET
    term_spread = EXCLUDED.term_spread,
    front_month_apy = EXCLUDED.front_month_apy,
    back_month_apy = EXCLUDED.back_month_apy,
    front_expiry = EXCLUDED.front_expiry,
    back_expiry = EXCLUDED.back_expiry,
    underlying_apy = EXCLUDED.underlying_apy,
    markets_count = EXCLUDED.markets_count,
    updated_at = NOW()`,
		date, snapshot.TermSpread, snapshot.FrontMonthAPY, snapshot.BackMonthAPY,
		frontExpiry, backExpiry, snapshot.UnderlyingAPY, snapshot.MarketsCount,
	)
	if err != nil {
		return &StoreError{Op: "upsert", Err: err}
	}
	return nil
}

// GetHistory returns at most maxDays snapshots in ascending date order. The
// storage-native read is newest-first; the reversal to chronological order
// happens here, not in callers.
func (r *Repository) GetHistory(ctx context.Context, maxDays int) ([]domain.SpreadSnapshot, error) {
	_, span := r.tracer.Start(ctx, "snapshot-repo.get-history")
	defer span.End()

	if maxDays <= 0 {
		return []domain.SpreadSnapshot{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT snapshot_date, term_spread, front_month_apy, back_month_apy,
       front_expiry, back_expiry, underlying_apy, markets_count
FROM term_spread_snapshots
ORDER BY snapshot_date DESC
LIMIT $1`, clampDays(maxDays))
	if err != nil {
		return nil, &StoreError{Op: "get-history", Err: err}
	}
	defer rows.Close()

	snapshots := make([]domain.SpreadSnapshot, 0, clampDays(maxDays))
	for rows.Next() {
		snapshot, err := scanSnapshotRow(rows)
		if err != nil {
			return nil, &StoreError{Op: "get-history", Err: err}
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "get-history", Err: err}
	}
	reverseSnapshots(snapshots)
	return snapshots, nil
}

func scanSnapshotRow(s interface{ Scan(dest ...any) error }) (domain.SpreadSnapshot, error) {
	var out domain.SpreadSnapshot
	var date pgtype.Date
	var frontExpiry pgtype.Date
	var backExpiry pgtype.Date

	if err := s.Scan(
		&date,
		&out.TermSpread,
		&out.FrontMonthAPY,
		&out.BackMonthAPY,
		&frontExpiry,
		&backExpiry,
		&out.UnderlyingAPY,
		&out.MarketsCount,
	); err != nil {
		return domain.SpreadSnapshot{}, err
	}

	out.Date = date.Time.UTC().Format(dateLayout)
	out.FrontExpiry = frontExpiry.Time.UTC().Format(dateLayout)
	out.BackExpiry = backExpiry.Time.UTC().Format(dateLayout)
	return out, nil
}

func clampDays(days int) int {
	if days > maxHistoryDays {
		return maxHistoryDays
	}
	return days
}

func reverseSnapshots(snapshots []domain.SpreadSnapshot) {
	for i, j := 0, len(snapshots)-1; i < j; i, j = i+1, j-1 {
		snapshots[i], snapshots[j] = snapshots[j], snapshots[i]
	}
}
