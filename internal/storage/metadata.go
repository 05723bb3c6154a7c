package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// MetadataDB handles SQLite database operations
type MetadataDB struct {
	db *sql.DB
}

// NewMetadataDB creates a new metadata database
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; job workers share this handle.
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS transcripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		request_name TEXT NOT NULL,
		source_type TEXT NOT NULL,
		status TEXT NOT NULL,
		gdrive_url TEXT NOT NULL DEFAULT '',
		local_path TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		duration REAL NOT NULL DEFAULT 0,
		word_count INTEGER NOT NULL DEFAULT 0,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		failed_chunks INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_created_at ON transcripts(created_at);
	CREATE INDEX IF NOT EXISTS idx_request_name ON transcripts(request_name);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MetadataDB{db: db}, nil
}

// CreateJob records a newly queued job
func (mdb *MetadataDB) CreateJob(ctx context.Context, jobID, requestName, sourceType string) error {
	query := `
	INSERT INTO transcripts (job_id, request_name, source_type, status, created_at)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err := mdb.db.ExecContext(ctx, query, jobID, requestName, sourceType, types.StatusQueued, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}
	return nil
}

// UpdateStatus moves a job to status. errMsg is stored for failed jobs.
func (mdb *MetadataDB) UpdateStatus(ctx context.Context, jobID, status, errMsg string) error {
	res, err := mdb.db.ExecContext(ctx,
		`UPDATE transcripts SET status = ?, error = ? WHERE job_id = ?`,
		status, errMsg, jobID)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return expectOneRow(res, jobID)
}

// SaveResult stores the outcome of a finished transcription
func (mdb *MetadataDB) SaveResult(ctx context.Context, status string, result *types.TranscriptionResult) error {
	query := `
	UPDATE transcripts
	SET status = ?, gdrive_url = ?, local_path = ?, duration = ?, word_count = ?, chunk_count = ?, failed_chunks = ?, error = ''
	WHERE job_id = ?
	`

	res, err := mdb.db.ExecContext(ctx, query,
		status, result.GDriveURL, result.OutputPath, result.Duration,
		result.WordCount, result.ChunkCount, len(result.FailedChunks), result.JobID)
	if err != nil {
		return fmt.Errorf("failed to save transcript metadata: %w", err)
	}
	return expectOneRow(res, result.JobID)
}

const selectColumns = `
	SELECT job_id, request_name, source_type, status, gdrive_url, local_path, created_at,
	       duration, word_count, chunk_count, failed_chunks, error
	FROM transcripts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*types.TranscriptRecord, error) {
	var rec types.TranscriptRecord
	err := row.Scan(&rec.JobID, &rec.RequestName, &rec.SourceType, &rec.Status, &rec.GDriveURL,
		&rec.LocalPath, &rec.CreatedAt, &rec.Duration, &rec.WordCount, &rec.ChunkCount,
		&rec.FailedChunks, &rec.Error)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetTranscript retrieves transcript metadata by job ID
func (mdb *MetadataDB) GetTranscript(ctx context.Context, jobID string) (*types.TranscriptRecord, error) {
	row := mdb.db.QueryRowContext(ctx, selectColumns+` WHERE job_id = ?`, jobID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transcript %s", types.ErrNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return rec, nil
}

// ListTranscripts returns the newest transcripts first
func (mdb *MetadataDB) ListTranscripts(ctx context.Context, limit int) ([]types.TranscriptRecord, error) {
	rows, err := mdb.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	transcripts := make([]types.TranscriptRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}
		transcripts = append(transcripts, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}

	return transcripts, nil
}

// Close closes the database connection
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}

func expectOneRow(res sql.Result, jobID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: job %s", types.ErrNotFound, jobID)
	}
	return nil
}
