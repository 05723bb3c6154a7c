package types

import "time"

// Job status constants
const (
	StatusQueued     = "QUEUED"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusPartial    = "PARTIAL"
	StatusFailed     = "FAILED"
)

// Source type constants
const (
	SourceUpload = "upload"
	SourceGDrive = "gdrive"
	SourceCLI    = "cli"
)

// ChunkResult is the outcome of transcribing a single chunk.
// Exactly one of Text or Err is meaningful.
type ChunkResult struct {
	Index int
	Text  string
	Err   error
}

// OK reports whether the chunk was transcribed successfully.
func (r ChunkResult) OK() bool {
	return r.Err == nil
}

// TranscriptionResult describes a finished pipeline run
type TranscriptionResult struct {
	JobID        string    `json:"job_id,omitempty"`
	InputPath    string    `json:"input_path"`
	OutputPath   string    `json:"output_path"`
	RecapPath    string    `json:"recap_path,omitempty"`
	Model        string    `json:"model"`
	Duration     float64   `json:"duration_seconds"`
	ChunkCount   int       `json:"chunk_count"`
	FailedChunks []int     `json:"failed_chunks,omitempty"`
	WordCount    int       `json:"word_count"`
	ProcessedAt  time.Time `json:"processed_at"`
	GDriveURL    string    `json:"gdrive_url,omitempty"`
}

// Partial reports whether some chunks were dropped from the transcript.
func (r *TranscriptionResult) Partial() bool {
	return len(r.FailedChunks) > 0
}

// TranscriptRecord is a row of the transcripts metadata table
type TranscriptRecord struct {
	JobID        string    `json:"job_id"`
	RequestName  string    `json:"request_name"`
	SourceType   string    `json:"source_type"`
	Status       string    `json:"status"`
	GDriveURL    string    `json:"gdrive_url"`
	LocalPath    string    `json:"local_path"`
	CreatedAt    time.Time `json:"created_at"`
	Duration     float64   `json:"duration"`
	WordCount    int       `json:"word_count"`
	ChunkCount   int       `json:"chunk_count"`
	FailedChunks int       `json:"failed_chunks"`
	Error        string    `json:"error,omitempty"`
}
