package types

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the input audio file does not exist.
var ErrNotFound = errors.New("audio file not found")

// ErrUnsupportedFormat indicates the input extension is not in the supported set.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// ErrDecode indicates the audio file could not be decoded.
var ErrDecode = errors.New("audio decode failed")

// ErrConfig indicates an invalid configuration value.
var ErrConfig = errors.New("invalid configuration")

// ErrExport indicates a chunk could not be written to its temporary file.
var ErrExport = errors.New("chunk export failed")

// ErrTranscriptionService indicates the remote transcription call failed.
var ErrTranscriptionService = errors.New("transcription service error")

// ErrIncompleteResult indicates reassembly was attempted with missing chunk indices.
var ErrIncompleteResult = errors.New("incomplete chunk results")

// ChunkError attributes a failure to the chunk that produced it.
type ChunkError struct {
	Index int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d: %v", e.Index, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}
