// Package history persists classification results in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)

	"github.com/muliwe/go-triangle-classifier/internal/classifier"
	"github.com/muliwe/go-triangle-classifier/internal/triangle"
)

// DefaultLimit caps Recent when the caller passes a non-positive limit
const DefaultLimit = 50

// MaxLimit is the largest page Recent returns
const MaxLimit = 1000

// timeLayout is fixed width so created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store provides SQLite persistence for classification results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and runs migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	// busy_timeout avoids "database locked" errors
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	// sides are stored as text so NaN and Inf survive a round trip
	schema := `
	CREATE TABLE IF NOT EXISTS classifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		side_a TEXT NOT NULL,
		side_b TEXT NOT NULL,
		side_c TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT '' CHECK(kind IN ('', 'equilateral', 'isosceles', 'scalene')),
		error_kind TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_classifications_created ON classifications(created_at);
	CREATE INDEX IF NOT EXISTS idx_classifications_request ON classifications(request_id);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	// databases created before the error column existed
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info('classifications') WHERE name = 'error'`).Scan(&n); err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if n == 0 {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE classifications ADD COLUMN error TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("add error column: %w", err)
		}
	}
	return nil
}

// Record stores one result.
func (s *Store) Record(ctx context.Context, r classifier.Result) error {
	query := `
	INSERT INTO classifications (request_id, created_at, side_a, side_b, side_c, kind, error_kind, error, reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.RequestID,
		r.Timestamp.UTC().Format(timeLayout),
		formatFloat(r.Sides.A),
		formatFloat(r.Sides.B),
		formatFloat(r.Sides.C),
		r.Classification,
		r.ErrorKind,
		r.Error,
		r.Reason,
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", r.RequestID, err)
	}
	return nil
}

// Recent returns up to limit results, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]classifier.Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	query := `
	SELECT request_id, created_at, side_a, side_b, side_c, kind, error_kind, error, reason
	FROM classifications
	ORDER BY created_at DESC, id DESC
	LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]classifier.Result, 0, limit)
	for rows.Next() {
		var (
			r         classifier.Result
			createdAt string
			a, b, c   string
		)
		if err := rows.Scan(&r.RequestID, &createdAt, &a, &b, &c, &r.Classification, &r.ErrorKind, &r.Error, &r.Reason); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if r.Timestamp, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		if r.Sides, err = parseSides(a, b, c); err != nil {
			return nil, err
		}
		r.Valid = r.Classification != ""
		results = append(results, r)
	}
	return results, rows.Err()
}

// Counts returns the number of stored results per kind. Rejections are
// counted under their error kind.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	query := `
	SELECT CASE WHEN kind = '' THEN error_kind ELSE kind END AS label, COUNT(*)
	FROM classifications
	GROUP BY label
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for _, k := range triangle.Kinds {
		counts[k.String()] = 0
	}
	for rows.Next() {
		var (
			label string
			n     int
		)
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[label] = n
	}
	return counts, rows.Err()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseSides(a, b, c string) (triangle.Sides, error) {
	var v [3]float64
	for i, raw := range [3]string{a, b, c} {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return triangle.Sides{}, fmt.Errorf("parse stored side %q: %w", raw, err)
		}
		v[i] = f
	}
	return triangle.Sides{A: v[0], B: v[1], C: v[2]}, nil
}
