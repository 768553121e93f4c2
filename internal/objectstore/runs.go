package objectstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StatusRunning marks a run that has started but not yet finished.
const StatusRunning = "running"

// Run summarises one curation run.
type Run struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at,omitzero"`
	Status       string    `json:"status"`
	Matched      int       `json:"matched"`
	Sampled      int       `json:"sampled"`
	Downloaded   int       `json:"downloaded"`
	Failed       int       `json:"failed"`
	Selected     int       `json:"selected"`
	ManifestPath string    `json:"manifest_path,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// BeginRun records a run in the running state.
func (s *Store) BeginRun(ctx context.Context, id string, startedAt time.Time) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("objectstore: run id is empty")
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, started_at, status) VALUES (?, ?, ?)`,
		id, formatTime(startedAt), StatusRunning,
	); err != nil {
		return fmt.Errorf("begin run %s: %w", id, err)
	}
	return nil
}

// FinishRun stores the final counts and status of a run started with BeginRun.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, matched = ?, sampled = ?, downloaded = ?,
            failed = ?, selected = ?, manifest_path = ?, error_message = ?
         WHERE id = ?`,
		nullableTime(run.FinishedAt), run.Status, run.Matched, run.Sampled, run.Downloaded,
		run.Failed, run.Selected, nullableString(run.ManifestPath), nullableString(run.Error),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", run.ID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("finish run %s: run not found", run.ID)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, finished_at, status, matched, sampled, downloaded, failed,
                selected, manifest_path, error_message
              FROM runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                   Run
			startedAt             string
			finishedAt            sql.NullString
			manifestPath, message sql.NullString
		)
		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &run.Status, &run.Matched, &run.Sampled,
			&run.Downloaded, &run.Failed, &run.Selected, &manifestPath, &message); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if ts, err := parseTimeString(startedAt); err == nil {
			run.StartedAt = ts
		}
		if finishedAt.Valid {
			if ts, err := parseTimeString(finishedAt.String); err == nil {
				run.FinishedAt = ts
			}
		}
		run.ManifestPath = manifestPath.String
		run.Error = message.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
