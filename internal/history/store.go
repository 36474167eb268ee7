package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"newsreel/internal/config"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Begin records the start of a pipeline run.
func (s *Store) Begin(ctx context.Context, runID string, topicCount int, script string) (*Run, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, status, created_at, topic_count, script)
         VALUES (?, ?, ?, ?, ?)`,
		runID,
		StatusRunning,
		now.Format(time.RFC3339Nano),
		topicCount,
		script,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.GetByID(ctx, runID)
}

// Complete marks a run successful and records its artifact paths.
func (s *Store) Complete(ctx context.Context, runID, audioPath, imagePath, videoPath string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, finished_at = ?, audio_path = ?, image_path = ?, video_path = ?
         WHERE id = ?`,
		StatusCompleted,
		now.Format(time.RFC3339Nano),
		audioPath,
		imagePath,
		videoPath,
		runID,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return requireRowAffected(res, runID)
}

// Fail marks a run failed with its error classification and message. Any
// artifact paths already produced are recorded so partial output can be
// inspected.
func (s *Store) Fail(ctx context.Context, runID, errorKind, errorMsg, audioPath, imagePath string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error_kind = ?, error_message = ?,
                audio_path = ?, image_path = ?
         WHERE id = ?`,
		StatusFailed,
		now.Format(time.RFC3339Nano),
		errorKind,
		errorMsg,
		audioPath,
		imagePath,
		runID,
	)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return requireRowAffected(res, runID)
}

// GetByID returns a single run.
func (s *Store) GetByID(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM runs WHERE id = ?", runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return run, err
}

// List returns runs newest-first, bounded by limit (0 means all).
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := selectColumns + " FROM runs ORDER BY created_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Clear removes all runs and returns the number deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs")
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

// Summarize returns aggregate run counts per lifecycle state.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM runs GROUP BY status")
	if err != nil {
		return Summary{}, fmt.Errorf("summarize runs: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch status {
		case StatusRunning:
			summary.Running = count
		case StatusCompleted:
			summary.Completed = count
		case StatusFailed:
			summary.Failed = count
		}
	}
	return summary, rows.Err()
}

const selectColumns = `SELECT id, status, created_at, finished_at, topic_count, script,
       audio_path, image_path, video_path, error_kind, error_message`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var createdAt string
	var finishedAt sql.NullString
	if err := row.Scan(
		&run.ID,
		&run.Status,
		&createdAt,
		&finishedAt,
		&run.TopicCount,
		&run.Script,
		&run.AudioPath,
		&run.ImagePath,
		&run.VideoPath,
		&run.ErrorKind,
		&run.ErrorMsg,
	); err != nil {
		return nil, err
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	run.CreatedAt = created

	if finishedAt.Valid && finishedAt.String != "" {
		finished, err := time.Parse(time.RFC3339Nano, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at %q: %w", finishedAt.String, err)
		}
		run.FinishedAt = &finished
	}
	return &run, nil
}

func requireRowAffected(res sql.Result, runID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}
