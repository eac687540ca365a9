package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sydlexius/wantsync/internal/wantlist"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("import run not found")

// Service stores import runs and their line outcomes.
type Service struct {
	db  *sql.DB
	now func() time.Time
}

// NewService creates a history service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// StartRun inserts a running import and returns it with its new id.
func (s *Service) StartRun(ctx context.Context, r *Run) error {
	if r.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if r.Direction == "" {
		r.Direction = wantlist.DirectionAdd
	}
	r.ID = uuid.New().String()
	r.Status = StatusRunning
	r.StartedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_runs (id, input_path, direction, format, delimiter, username, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.InputPath, string(r.Direction), r.Format, r.Delimiter, r.Username, r.Status,
		r.StartedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting import run: %w", err)
	}
	return nil
}

// FinishRun stores the run totals. A non-nil runErr marks the run failed.
func (s *Service) FinishRun(ctx context.Context, id string, sum wantlist.Summary, runErr error) error {
	status := StatusCompleted
	if runErr != nil {
		status = StatusFailed
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE import_runs SET status = ?, lines_read = ?, lines_skipped = ?, lines_resolved = ?,
			entries_applied = ?, entries_failed = ?, finished_at = ?
		WHERE id = ?
	`, status, sum.LinesRead, sum.LinesSkipped, sum.LinesResolved,
		sum.EntriesApplied, sum.EntriesFailed, s.now().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("finishing import run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// RecordLine stores one line outcome for a run.
func (s *Service) RecordLine(ctx context.Context, runID string, r wantlist.LineResult) error {
	l := lineFromResult(runID, r)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_lines (run_id, line_no, raw, artist, title, release_id, tier, release_ids, applied, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, line_no) DO UPDATE SET
			raw = excluded.raw, artist = excluded.artist, title = excluded.title,
			release_id = excluded.release_id, tier = excluded.tier, release_ids = excluded.release_ids,
			applied = excluded.applied, failed = excluded.failed
	`, l.RunID, l.LineNo, l.Raw, l.Artist, l.Title, l.ReleaseID, string(l.Tier),
		joinIDs(l.ReleaseIDs), l.Applied, l.Failed)
	if err != nil {
		return fmt.Errorf("recording line %d: %w", l.LineNo, err)
	}
	return nil
}

// Recorder binds the service to one run so it can be handed to a
// wantlist.Pipeline.
func (s *Service) Recorder(runID string) wantlist.Recorder {
	return runRecorder{svc: s, runID: runID}
}

type runRecorder struct {
	svc   *Service
	runID string
}

func (r runRecorder) RecordLine(ctx context.Context, res wantlist.LineResult) error {
	return r.svc.RecordLine(ctx, r.runID, res)
}

const runColumns = `id, input_path, direction, format, delimiter, username, status,
	lines_read, lines_skipped, lines_resolved, entries_applied, entries_failed, started_at, finished_at`

// GetRun returns a run by id.
func (s *Service) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM import_runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return r, err
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM import_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing import runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// ListLines returns the recorded lines of a run in input order.
func (s *Service) ListLines(ctx context.Context, runID string) ([]Line, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, line_no, raw, artist, title, release_id, tier, release_ids, applied, failed
		FROM import_lines WHERE run_id = ? ORDER BY line_no
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing import lines: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var lines []Line
	for rows.Next() {
		var l Line
		var tier, ids string
		if err := rows.Scan(&l.RunID, &l.LineNo, &l.Raw, &l.Artist, &l.Title, &l.ReleaseID,
			&tier, &ids, &l.Applied, &l.Failed); err != nil {
			return nil, fmt.Errorf("scanning import line: %w", err)
		}
		l.Tier = wantlist.Tier(tier)
		l.ReleaseIDs = splitIDs(ids)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// DeleteRun removes a run and its lines.
func (s *Service) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM import_lines WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("deleting import lines: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM import_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting import run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}
	return tx.Commit()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var direction, startedAt string
	var finishedAt sql.NullString
	if err := s.Scan(&r.ID, &r.InputPath, &direction, &r.Format, &r.Delimiter, &r.Username, &r.Status,
		&r.LinesRead, &r.LinesSkipped, &r.LinesResolved, &r.EntriesApplied, &r.EntriesFailed,
		&startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning import run: %w", err)
	}
	r.Direction = wantlist.Direction(direction)
	r.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		t := parseTime(finishedAt.String)
		r.FinishedAt = &t
	}
	return &r, nil
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
