// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records export jobs in a local SQLite database, so
// finished exports stay auditable after the CSV leaves the machine.
// Implements: prd005-history (R1-R3);
//
//	docs/ARCHITECTURE § History.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/h5cruncher/internal/export"
)

// DefaultPath is where the database lives unless configured away.
const DefaultPath = ".h5cruncher/history.db"

// timeLayout is RFC 3339 at fixed nanosecond width, so the TEXT
// column sorts chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Status values for recorded jobs.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Job is one recorded export run.
type Job struct {
	ID          string        `json:"id"`
	StartedAt   time.Time     `json:"started_at"`
	Source      string        `json:"source_file"`
	Dataset     string        `json:"dataset"`
	Columns     []string      `json:"columns,omitempty"`
	RowSpec     string        `json:"row_spec,omitempty"`
	MatchColumn string        `json:"match_column,omitempty"`
	MatchValue  string        `json:"match_value,omitempty"`
	Output      string        `json:"output_path,omitempty"`
	Rows        uint64        `json:"rows_written"`
	Bytes       uint64        `json:"bytes_written"`
	Checksum    string        `json:"checksum,omitempty"`
	Duration    time.Duration `json:"duration_ms"`
	Status      string        `json:"status"`
	Error       string        `json:"error,omitempty"`
}

// NewJob builds the record for one finished or failed export. A nil
// result (the run never got far enough to produce one) records the
// request as given.
func NewJob(source, dataset string, res *export.Result, runErr error) Job {
	job := Job{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Source:    source,
		Dataset:   dataset,
		Status:    StatusOK,
	}
	if res != nil {
		job.ID = res.ID
		job.StartedAt = time.Now().UTC().Add(-res.Duration)
		job.Source = res.Source
		job.Dataset = res.Dataset
		job.Columns = res.Columns
		job.RowSpec = res.RowSpec
		job.MatchColumn = res.MatchColumn
		job.MatchValue = res.MatchValue
		job.Output = res.Output
		job.Rows = res.Rows
		job.Bytes = res.Bytes
		job.Checksum = res.Checksum
		job.Duration = res.Duration
	}
	if runErr != nil {
		job.Status = StatusFailed
		job.Error = runErr.Error()
	}
	return job
}

// Store manages the job history SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path, creating the
// schema if it does not exist. An empty path uses DefaultPath.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			source_file TEXT NOT NULL,
			dataset TEXT NOT NULL,
			columns TEXT,
			row_spec TEXT,
			match_column TEXT,
			match_value TEXT,
			output_path TEXT,
			rows_written INTEGER NOT NULL DEFAULT 0,
			bytes_written INTEGER NOT NULL DEFAULT 0,
			checksum TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_started_at ON jobs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_dataset ON jobs(dataset)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record upserts one job.
func (s *Store) Record(ctx context.Context, job Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now().UTC()
	}
	columnsJSON, _ := json.Marshal(job.Columns)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, started_at, source_file, dataset, columns, row_spec,
			match_column, match_value, output_path, rows_written, bytes_written,
			checksum, duration_ms, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			started_at=excluded.started_at, source_file=excluded.source_file,
			dataset=excluded.dataset, columns=excluded.columns,
			row_spec=excluded.row_spec, match_column=excluded.match_column,
			match_value=excluded.match_value, output_path=excluded.output_path,
			rows_written=excluded.rows_written, bytes_written=excluded.bytes_written,
			checksum=excluded.checksum, duration_ms=excluded.duration_ms,
			status=excluded.status, error=excluded.error`,
		job.ID, job.StartedAt.UTC().Format(timeLayout), job.Source, job.Dataset,
		string(columnsJSON), job.RowSpec, job.MatchColumn, job.MatchValue, job.Output,
		int64(job.Rows), int64(job.Bytes), job.Checksum, job.Duration.Milliseconds(),
		job.Status, job.Error,
	)
	if err != nil {
		return fmt.Errorf("recording job: %w", err)
	}
	return nil
}

// QueryOptions filters a history listing.
type QueryOptions struct {
	// Dataset and Source match as substrings.
	Dataset string
	Source  string
	// Status matches exactly.
	Status string
	// Limit caps the result count. Zero uses the default of 20.
	Limit int
}

// List returns recorded jobs, newest first.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]Job, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT id, started_at, source_file, dataset, columns, row_spec,
			match_column, match_value, output_path, rows_written, bytes_written,
			checksum, duration_ms, status, error
		FROM jobs
		WHERE 1=1`)

	if opts.Dataset != "" {
		qb.WriteString(` AND dataset LIKE ?`)
		args = append(args, "%"+opts.Dataset+"%")
	}
	if opts.Source != "" {
		qb.WriteString(` AND source_file LIKE ?`)
		args = append(args, "%"+opts.Source+"%")
	}
	if opts.Status != "" {
		qb.WriteString(` AND status = ?`)
		args = append(args, opts.Status)
	}

	qb.WriteString(` ORDER BY started_at DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var (
			job         Job
			startedAt   string
			columnsJSON sql.NullString
			rowSpec     sql.NullString
			matchCol    sql.NullString
			matchVal    sql.NullString
			output      sql.NullString
			rowsWritten int64
			bytes       int64
			checksum    sql.NullString
			durationMS  int64
			errText     sql.NullString
		)
		if err := rows.Scan(
			&job.ID, &startedAt, &job.Source, &job.Dataset, &columnsJSON, &rowSpec,
			&matchCol, &matchVal, &output, &rowsWritten, &bytes,
			&checksum, &durationMS, &job.Status, &errText,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if ts, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			job.StartedAt = ts
		}
		if columnsJSON.Valid {
			json.Unmarshal([]byte(columnsJSON.String), &job.Columns)
		}
		job.RowSpec = rowSpec.String
		job.MatchColumn = matchCol.String
		job.MatchValue = matchVal.String
		job.Output = output.String
		job.Rows = uint64(rowsWritten)
		job.Bytes = uint64(bytes)
		job.Checksum = checksum.String
		job.Duration = time.Duration(durationMS) * time.Millisecond
		job.Error = errText.String

		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Prune deletes all but the newest keep jobs and reports how many
// went away.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE id NOT IN
			(SELECT id FROM jobs ORDER BY started_at DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned jobs: %w", err)
	}
	return int(n), nil
}
