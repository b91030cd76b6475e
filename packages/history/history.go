// Package history records classify runs in a SQLite database so that runs
// can be listed later and notifications can detect recoveries.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/runner"
	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// timeLayout has fixed width so that started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	suite        TEXT NOT NULL,
	endpoint     TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	duration_ms  INTEGER NOT NULL,
	total        INTEGER NOT NULL,
	passed       INTEGER NOT NULL,
	failed       INTEGER NOT NULL,
	inconclusive INTEGER NOT NULL,
	skipped      INTEGER NOT NULL,
	aborted      INTEGER NOT NULL,
	abort_reason TEXT NOT NULL DEFAULT '',
	success      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
CREATE TABLE IF NOT EXISTS verdicts (
	run_id        TEXT NOT NULL REFERENCES runs (id) ON DELETE CASCADE,
	idx           INTEGER NOT NULL,
	name          TEXT NOT NULL,
	business_name TEXT NOT NULL,
	request_id    TEXT NOT NULL DEFAULT '',
	outcome       TEXT NOT NULL,
	reason        TEXT NOT NULL DEFAULT '',
	status_code   INTEGER NOT NULL DEFAULT 0,
	duration_ms   INTEGER NOT NULL DEFAULT 0,
	business_type TEXT NOT NULL DEFAULT '',
	is_match      INTEGER,
	match_score   REAL,
	message       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, idx)
);
`

// RunRecord is a stored run.
type RunRecord struct {
	ID           string        `json:"id"`
	Suite        string        `json:"suite"`
	Endpoint     string        `json:"endpoint"`
	StartedAt    time.Time     `json:"startedAt"`
	Duration     time.Duration `json:"duration"`
	Total        int           `json:"total"`
	Passed       int           `json:"passed"`
	Failed       int           `json:"failed"`
	Inconclusive int           `json:"inconclusive"`
	Skipped      int           `json:"skipped"`
	Aborted      bool          `json:"aborted"`
	AbortReason  string        `json:"abortReason,omitempty"`
	Success      bool          `json:"success"`
}

// VerdictRecord is a stored case verdict.
type VerdictRecord struct {
	Index        int           `json:"index"`
	Name         string        `json:"name"`
	BusinessName string        `json:"businessName"`
	RequestID    string        `json:"requestId,omitempty"`
	Outcome      string        `json:"outcome"`
	Reason       string        `json:"reason,omitempty"`
	StatusCode   int           `json:"statusCode,omitempty"`
	Duration     time.Duration `json:"duration"`
	BusinessType string        `json:"businessType,omitempty"`
	IsMatch      *bool         `json:"isMatch,omitempty"`
	MatchScore   *float64      `json:"matchScore,omitempty"`
	Message      string        `json:"message,omitempty"`
}

// Store is a history database.
type Store struct {
	db           *sql.DB
	path         string
	queryTimeout time.Duration
	newID        func() string
}

// Open opens (creating if needed) the database named by connStr and
// ensures its schema. connStr is "sqlite://path", "sqlite:path" or a bare
// file path.
func Open(connStr string) (*Store, error) {
	path, err := parseConnectionString(connStr)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	s := &Store{
		db:           db,
		path:         path,
		queryTimeout: 30 * time.Second,
		newID:        func() string { return uuid.NewString() },
	}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// RecordRun stores the run and its verdicts in one transaction and returns
// the new run id.
func (s *Store) RecordRun(ctx context.Context, result *runner.RunResult) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := s.newID()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, suite, endpoint, started_at, duration_ms, total, passed,
			failed, inconclusive, skipped, aborted, abort_reason, success)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, result.Suite, result.Endpoint.BaseURL(),
		result.StartedAt.UTC().Format(timeLayout), result.Duration.Milliseconds(),
		result.Total(), result.Passed, result.Failed, result.Inconclusive, result.Skipped,
		result.Aborted, string(result.AbortReason), result.Success,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO verdicts (run_id, idx, name, business_name, request_id, outcome, reason,
			status_code, duration_ms, business_type, is_match, match_score, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare verdict insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range result.Verdicts {
		var isMatch sql.NullBool
		var score sql.NullFloat64
		if c := v.Comparison; c != nil {
			if c.IsMatch != nil {
				isMatch = sql.NullBool{Bool: *c.IsMatch, Valid: true}
			}
			if c.MatchScore != nil {
				score = sql.NullFloat64{Float64: *c.MatchScore, Valid: true}
			}
		}
		_, err := stmt.ExecContext(ctx,
			id, v.Index, v.Name, v.BusinessName, v.RequestID, string(v.Outcome), string(v.Reason),
			v.StatusCode, v.Duration.Milliseconds(), v.BusinessType, isMatch, score, v.Message,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert verdict %d: %w", v.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// LastRunSuccess reports whether the most recent run of suite against
// endpoint succeeded. found is false when no such run exists.
func (s *Store) LastRunSuccess(ctx context.Context, suite, endpoint string) (success, found bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	err = s.db.QueryRowContext(ctx, `
		SELECT success FROM runs
		WHERE suite = ? AND endpoint = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT 1`, suite, endpoint).Scan(&success)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("query failed: %w", err)
	}
	return success, true, nil
}

// RecentRuns returns up to limit runs, newest first. An empty suite matches
// every suite.
func (s *Store) RecentRuns(ctx context.Context, suite string, limit int) ([]RunRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, suite, endpoint, started_at, duration_ms, total, passed, failed,
		inconclusive, skipped, aborted, abort_reason, success FROM runs`
	args := []any{}
	if suite != "" {
		query += " WHERE suite = ?"
		args = append(args, suite)
	}
	query += " ORDER BY started_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started string
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.Suite, &r.Endpoint, &started, &durationMs, &r.Total,
			&r.Passed, &r.Failed, &r.Inconclusive, &r.Skipped, &r.Aborted, &r.AbortReason, &r.Success); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// Verdicts returns the stored verdicts of a run in case order. A unique id
// prefix is accepted.
func (s *Store) Verdicts(ctx context.Context, runID string) ([]VerdictRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	id, err := s.resolveID(ctx, runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, name, business_name, request_id, outcome, reason, status_code,
			duration_ms, business_type, is_match, match_score, message
		FROM verdicts WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []VerdictRecord
	for rows.Next() {
		var v VerdictRecord
		var durationMs int64
		var isMatch sql.NullBool
		var score sql.NullFloat64
		if err := rows.Scan(&v.Index, &v.Name, &v.BusinessName, &v.RequestID, &v.Outcome, &v.Reason,
			&v.StatusCode, &durationMs, &v.BusinessType, &isMatch, &score, &v.Message); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		v.Duration = time.Duration(durationMs) * time.Millisecond
		if isMatch.Valid {
			b := isMatch.Bool
			v.IsMatch = &b
		}
		if score.Valid {
			f := score.Float64
			v.MatchScore = &f
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (s *Store) resolveID(ctx context.Context, prefix string) (string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs WHERE id LIKE ? || '%' LIMIT 2`, prefix)
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan row: %w", err)
		}
		ids = append(ids, id)
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("no run with id %q", prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("run id %q is ambiguous", prefix)
	}
}

// parseConnectionString accepts sqlite://path, sqlite:path or a bare path.
// Other schemes are rejected.
func parseConnectionString(connStr string) (string, error) {
	connStr = strings.TrimSpace(connStr)
	switch {
	case connStr == "":
		return "", fmt.Errorf("empty history connection string")
	case strings.HasPrefix(connStr, "sqlite://"):
		return strings.TrimPrefix(connStr, "sqlite://"), nil
	case strings.HasPrefix(connStr, "sqlite:"):
		return strings.TrimPrefix(connStr, "sqlite:"), nil
	case strings.Contains(connStr, "://"):
		scheme, _, _ := strings.Cut(connStr, "://")
		return "", fmt.Errorf("unsupported history database scheme: %s", scheme)
	default:
		return connStr, nil
	}
}
