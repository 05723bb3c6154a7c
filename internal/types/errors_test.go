package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestChunkErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("%w: rate limited", ErrTranscriptionService)
	err := fmt.Errorf("batch aborted: %w", &ChunkError{Index: 4, Err: inner})

	if !errors.Is(err, ErrTranscriptionService) {
		t.Errorf("expected errors.Is to find ErrTranscriptionService in %v", err)
	}

	var ce *ChunkError
	if !errors.As(err, &ce) {
		t.Fatalf("expected a ChunkError in %v", err)
	}
	if ce.Index != 4 {
		t.Errorf("expected index 4, got %d", ce.Index)
	}
	if got := ce.Error(); got != "chunk 4: transcription service error: rate limited" {
		t.Errorf("unexpected message %q", got)
	}
}
