package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	document_uri TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT,
	status       TEXT NOT NULL,
	outputs_json TEXT,
	error_text   TEXT
);
`

// sqlStore persists run history in a modernc.org/sqlite (pure-Go, no cgo)
// database, the durable counterpart memStore has no disk backing for.
// `flowy serve` always uses one; `flowy run` uses one when given
// --history, so its history survives across CLI invocations.
type sqlStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if absent) a sqlite-backed Store at path.
func OpenSQLite(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening run-history database %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers anyway; avoids SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run-history schema: %w", err)
	}
	return &sqlStore{db: db}, nil
}

func (s *sqlStore) CreateRun(ctx context.Context, runID, documentURI string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, document_uri, started_at, status) VALUES (?, ?, ?, ?)`,
		runID, documentURI, time.Now().UTC().Format(time.RFC3339Nano), string(Pending))
	return err
}

func (s *sqlStore) MarkRunning(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ? WHERE run_id = ?`, string(Running), runID)
	return checkRowsAffected(res, err, runID)
}

func (s *sqlStore) CompleteRun(ctx context.Context, runID string, outputs map[string]any) error {
	payload, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Errorf("marshaling outputs for run %q: %w", runID, err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, outputs_json = ?, finished_at = ? WHERE run_id = ?`,
		string(Succeeded), string(payload), time.Now().UTC().Format(time.RFC3339Nano), runID)
	return checkRowsAffected(res, err, runID)
}

func (s *sqlStore) FailRun(ctx context.Context, runID string, errText string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_text = ?, finished_at = ? WHERE run_id = ?`,
		string(Failed), errText, time.Now().UTC().Format(time.RFC3339Nano), runID)
	return checkRowsAffected(res, err, runID)
}

func (s *sqlStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, document_uri, started_at, finished_at, status, outputs_json, error_text FROM runs WHERE run_id = ?`,
		runID)
	r, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("run %q not found: %w", runID, err)
	}
	return r, nil
}

func (s *sqlStore) ListRuns(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, document_uri, started_at, finished_at, status, outputs_json, error_text FROM runs ORDER BY started_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqlStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r          Run
		startedAt  string
		finishedAt sql.NullString
		outputsJSON sql.NullString
		errText    sql.NullString
		status     sql.NullString
	)
	if err := row.Scan(&r.RunID, &r.DocumentURI, &startedAt, &finishedAt, &status, &outputsJSON, &errText); err != nil {
		return nil, err
	}
	r.Status = Status(status.String)
	if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
		r.StartedAt = t
	}
	if finishedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, finishedAt.String); err == nil {
			r.FinishedAt = t
		}
	}
	if outputsJSON.Valid && outputsJSON.String != "" {
		if err := json.Unmarshal([]byte(outputsJSON.String), &r.Outputs); err != nil {
			return nil, fmt.Errorf("decoding outputs_json: %w", err)
		}
	}
	r.ErrorText = errText.String
	return &r, nil
}

func checkRowsAffected(res sql.Result, err error, runID string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %q not found", runID)
	}
	return nil
}
