package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

const (
	transcriptExt = ".txt"
	metaSuffix    = "_meta.json"
	recapExt      = ".md"
)

// LocalStorage handles saving transcripts to the local filesystem
type LocalStorage struct {
	outputDir string
}

// NewLocalStorage creates a new local storage handler
func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{
		outputDir: outputDir,
	}
}

// OutputDir returns the directory transcripts are written to
func (ls *LocalStorage) OutputDir() string {
	return ls.outputDir
}

// TranscriptPath derives the transcript location for an input file by
// swapping its extension for .txt: "meeting.mp3" -> "<output>/meeting.txt".
func (ls *LocalStorage) TranscriptPath(inputName string) string {
	return filepath.Join(ls.outputDir, Stem(inputName)+transcriptExt)
}

// MetadataPath returns the sidecar path for a transcript
func MetadataPath(transcriptPath string) string {
	return strings.TrimSuffix(transcriptPath, transcriptExt) + metaSuffix
}

// RecapPath returns the meeting recap path for a transcript
func RecapPath(transcriptPath string) string {
	return strings.TrimSuffix(transcriptPath, transcriptExt) + recapExt
}

// Stem strips directories and the final extension from name.
func Stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SaveTranscript writes text to path as UTF-8. The write goes through a
// temp file in the same directory and a rename, so path either holds the
// complete transcript or does not exist.
func (ls *LocalStorage) SaveTranscript(path, text string) error {
	if err := WriteFileAtomic(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

// SaveMetadata writes the JSON sidecar for a finished transcript and
// returns its path.
func (ls *LocalStorage) SaveMetadata(requestName string, result *types.TranscriptionResult) (string, error) {
	metaPath := MetadataPath(result.OutputPath)

	metadata := map[string]interface{}{
		"job_id":           result.JobID,
		"request_name":     requestName,
		"input_path":       result.InputPath,
		"local_path":       result.OutputPath,
		"duration_seconds": result.Duration,
		"word_count":       result.WordCount,
		"chunk_count":      result.ChunkCount,
		"failed_chunks":    result.FailedChunks,
		"model_used":       result.Model,
		"created_at":       result.ProcessedAt,
		"gdrive_url":       result.GDriveURL,
	}

	metaJSON, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := WriteFileAtomic(metaPath, metaJSON, 0o644); err != nil {
		return "", fmt.Errorf("failed to save metadata: %w", err)
	}

	return metaPath, nil
}

// WriteFileAtomic writes data to a sibling temp file and renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// SanitizeFilename reduces an uploaded name to a safe base name
func SanitizeFilename(name string) string {
	// Normalise Windows separators before taking the base
	result := filepath.Base(strings.ReplaceAll(name, "\\", "/"))

	result = strings.Map(func(r rune) rune {
		switch r {
		case '/', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, result)

	result = strings.TrimLeft(result, ".")
	if result == "" {
		result = "audio"
	}

	if len(result) > 100 {
		ext := filepath.Ext(result)
		if len(ext) > 10 {
			ext = ""
		}
		result = result[:100-len(ext)] + ext // Limit length, keep the extension
	}
	return result
}
