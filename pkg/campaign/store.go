package campaign

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ja7ad/simcampaign/pkg/types"
)

// DatabaseName is the store file inside the results folder.
const DatabaseName = "campaign.db"

// Store persists campaign metadata and run results in sqlite.
type Store struct {
	db *sql.DB
}

type resultKey struct {
	key string
	rep int
}

// OpenStore creates or opens the database at path.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("campaign: open store: %w", err)
	}
	// sqlite has a single writer; concurrent runs queue here.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("campaign: init schema: %w", err)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS campaign (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		program TEXT NOT NULL,
		script TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		params_key TEXT NOT NULL,
		params_json TEXT NOT NULL,
		repetition INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		stdout TEXT NOT NULL,
		stderr TEXT NOT NULL,
		exit_status INTEGER NOT NULL,
		elapsed_ns INTEGER NOT NULL,
		user_ns INTEGER NOT NULL,
		system_ns INTEGER NOT NULL,
		max_rss INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE (params_key, repetition)
	);
	CREATE INDEX IF NOT EXISTS idx_results_key ON results(params_key);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Meta returns the program and script the store was created for. ok is false
// for a fresh store.
func (s *Store) Meta(ctx context.Context) (program, script string, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT program, script FROM campaign WHERE id = 1`)
	switch err := row.Scan(&program, &script); {
	case errors.Is(err, sql.ErrNoRows):
		return "", "", false, nil
	case err != nil:
		return "", "", false, err
	}
	return program, script, true, nil
}

// SetMeta binds the store to a program and script.
func (s *Store) SetMeta(ctx context.Context, program, script string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO campaign (id, program, script, created_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET program = excluded.program, script = excluded.script`,
		program, script, time.Now().UnixNano())
	return err
}

// Reset deletes every result and the campaign binding.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM results`); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM campaign`); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Insert stores a finished run.
func (s *Store) Insert(ctx context.Context, r Record) error {
	params, err := json.Marshal(r.Params)
	if err != nil {
		return fmt.Errorf("campaign: encode params: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO results (id, params_key, params_json, repetition, seed, stdout, stderr,
			exit_status, elapsed_ns, user_ns, system_ns, max_rss, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Key, string(params), r.Repetition, r.Seed, r.Stdout, r.Stderr,
		r.ExitStatus, int64(r.Elapsed), int64(r.UserTime), int64(r.SystemTime),
		int64(r.MaxRSS), r.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("campaign: insert result %s: %w", r.ID, err)
	}
	return nil
}

// existing returns the set of stored (configuration key, repetition) pairs.
func (s *Store) existing(ctx context.Context) (map[resultKey]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT params_key, repetition FROM results`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[resultKey]struct{})
	for rows.Next() {
		var k resultKey
		if err := rows.Scan(&k.key, &k.rep); err != nil {
			return nil, err
		}
		out[k] = struct{}{}
	}
	return out, rows.Err()
}

const selectRecord = `SELECT id, params_key, params_json, repetition, seed, stdout, stderr,
	exit_status, elapsed_ns, user_ns, system_ns, max_rss, created_at FROM results`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		r       Record
		params  string
		created int64
	)
	var elapsed, user, sys, rss int64
	if err := sc.Scan(&r.ID, &r.Key, &params, &r.Repetition, &r.Seed, &r.Stdout, &r.Stderr,
		&r.ExitStatus, &elapsed, &user, &sys, &rss, &created); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
		return Record{}, fmt.Errorf("campaign: decode params of %s: %w", r.ID, err)
	}
	r.Elapsed = time.Duration(elapsed)
	r.UserTime = time.Duration(user)
	r.SystemTime = time.Duration(sys)
	r.MaxRSS = types.Bytes(rss)
	r.CreatedAt = time.Unix(0, created)
	return r, nil
}

// Get returns the result of one (configuration, repetition) pair.
func (s *Store) Get(ctx context.Context, key string, rep int) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+` WHERE params_key = ? AND repetition = ?`, key, rep)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrMissingResult
	}
	return r, err
}

// All returns every stored record ordered by creation time.
func (s *Store) All(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecord+` ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of stored results.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&n)
	return n, err
}
