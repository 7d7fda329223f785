package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"freightpulse/pkg/contracts/domain"
)

// Ledger is the read/guarded-write surface of the historical store. There
// is deliberately no update or delete: the history is an append-only audit
// trail and corrections happen out of band.
type Ledger interface {
	PeriodExists(ctx context.Context, period string) (bool, error)
	Insert(ctx context.Context, record domain.HistoricalRecord) (bool, error)
	MostRecentPeriod(ctx context.Context) (string, error)
	AllRecords(ctx context.Context) ([]domain.HistoricalRecord, error)
}

// Store implements Ledger on SQLite. One Store is constructed per process
// and shared by reference; the underlying pool hands out connections per
// operation, so no handle is held open across a processing run.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens (or creates) the ledger database at the given path and ensures
// the schema exists. Use ":memory:" for tests. WAL mode keeps readers
// unblocked while the single writer commits.
func New(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}

	store := &Store{db: db, logger: logger.With(slog.String("component", "history_store"))}
	if err := store.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable. Used by health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the history table if it does not exist yet. It is
// idempotent and safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS history (
		period             TEXT PRIMARY KEY,  -- e.g. "2024-05"
		median_represented REAL NOT NULL,
		median_other       REAL NOT NULL,
		mean_represented   REAL NOT NULL,
		mean_other         REAL NOT NULL,
		participation_pct  REAL NOT NULL
	);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

// PeriodExists reports whether a record for the exact period is stored.
func (s *Store) PeriodExists(ctx context.Context, period string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history WHERE period = ?`, period).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check period %s: %w", period, err)
	}
	return count > 0, nil
}

// Insert stores the record iff its period is not present yet and reports
// whether a row was written. Uniqueness rides on the period primary key
// with INSERT OR IGNORE, so the insert-if-absent is atomic inside the
// storage engine rather than a racy check-then-act at this layer.
func (s *Store) Insert(ctx context.Context, record domain.HistoricalRecord) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO history
			(period, median_represented, median_other, mean_represented, mean_other, participation_pct)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.Period,
		record.MedianRepresented,
		record.MedianOther,
		record.MeanRepresented,
		record.MeanOther,
		record.ParticipationPct,
	)
	if err != nil {
		return false, fmt.Errorf("insert period %s: %w", record.Period, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert period %s: %w", record.Period, err)
	}

	inserted := affected > 0
	if inserted {
		s.logger.InfoContext(ctx, "period committed to history",
			slog.String("period", record.Period),
			slog.Float64("participation_pct", record.ParticipationPct))
	} else {
		s.logger.InfoContext(ctx, "period already recorded, insert ignored",
			slog.String("period", record.Period))
	}
	return inserted, nil
}

// MostRecentPeriod returns the lexicographically maximal period string,
// which for zero-padded YYYY-MM coincides with chronological order. An
// empty ledger yields the empty string and no error.
func (s *Store) MostRecentPeriod(ctx context.Context) (string, error) {
	var period sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(period) FROM history`).Scan(&period)
	if err != nil {
		return "", fmt.Errorf("query most recent period: %w", err)
	}
	if !period.Valid {
		return "", nil
	}
	return period.String, nil
}

// AllRecords returns every historical record in ascending period order,
// the shape time-series consumers expect.
func (s *Store) AllRecords(ctx context.Context) ([]domain.HistoricalRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT period, median_represented, median_other, mean_represented, mean_other, participation_pct
		FROM history
		ORDER BY period`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []domain.HistoricalRecord
	for rows.Next() {
		var r domain.HistoricalRecord
		if err := rows.Scan(
			&r.Period,
			&r.MedianRepresented,
			&r.MedianOther,
			&r.MeanRepresented,
			&r.MeanOther,
			&r.ParticipationPct,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	return records, nil
}
