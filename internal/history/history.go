// Package history records the outcome of every citation check in a local
// SQLite database.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"citecheck/internal/behavior"
	"citecheck/internal/content"
)

// Store is an append-only log of check results.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS checks (
	run_id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	target TEXT NOT NULL,
	same INTEGER NOT NULL,
	level TEXT NOT NULL,
	should_fail INTEGER NOT NULL,
	should_report INTEGER NOT NULL,
	checked_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checks_source ON checks(source_id);
CREATE INDEX IF NOT EXISTS idx_checks_time ON checks(checked_at);
`

// Entry is one recorded check.
type Entry struct {
	RunID     string          `json:"runId"`
	SourceID  content.ID      `json:"sourceId"`
	Kind      string          `json:"kind"`
	Target    string          `json:"target"`
	Same      bool            `json:"same"`
	Result    behavior.Result `json:"result"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record appends a check result and returns the stored entry.
func (s *Store) Record(sourceID content.ID, kind, target string, same bool, result behavior.Result) (*Entry, error) {
	e := &Entry{
		RunID:     uuid.NewString(),
		SourceID:  sourceID,
		Kind:      kind,
		Target:    target,
		Same:      same,
		Result:    result,
		CheckedAt: time.Now().UTC(),
	}

	level := ""
	if !result.Valid {
		level = result.Level.String()
	}

	_, err := s.db.Exec(
		`INSERT INTO checks (run_id, source_id, kind, target, same, level, should_fail, should_report, checked_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, string(sourceID), kind, target, boolInt(same), level,
		boolInt(result.ShouldFail), boolInt(result.ShouldReport), e.CheckedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("recording check: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first. A non-empty sourceID
// filters to that source.
func (s *Store) Recent(sourceID content.ID, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT run_id, source_id, kind, target, same, level, should_fail, should_report, checked_at
		FROM checks`
	args := []interface{}{}
	if sourceID != "" {
		query += ` WHERE source_id = ?`
		args = append(args, string(sourceID))
	}
	query += ` ORDER BY checked_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			e                            Entry
			sid, level                   string
			same, shouldFail, shouldRept int
			checkedAt                    int64
		)
		if err := rows.Scan(&e.RunID, &sid, &e.Kind, &e.Target, &same, &level, &shouldFail, &shouldRept, &checkedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.SourceID = content.ID(sid)
		e.Same = same != 0
		e.Result = behavior.Result{
			Valid:        level == "",
			ShouldFail:   shouldFail != 0,
			ShouldReport: shouldRept != 0,
		}
		if level != "" {
			l, err := behavior.ParseLevel(level)
			if err != nil {
				return nil, fmt.Errorf("decoding history row %s: %w", e.RunID, err)
			}
			e.Result.Level = l
		}
		e.CheckedAt = time.UnixMilli(checkedAt).UTC()
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Stats summarizes the store.
type Stats struct {
	TotalChecks int64
	Failures    int64
}

func (s *Store) Stats() (*Stats, error) {
	var st Stats
	err := s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(should_fail), 0) FROM checks",
	).Scan(&st.TotalChecks, &st.Failures)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
