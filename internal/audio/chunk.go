package audio

import (
	"fmt"
	"time"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// Chunk is a fixed-length, non-overlapping slice of the source audio.
type Chunk struct {
	Index   int   // Zero-based position in the source.
	StartMs int64 // Inclusive start in the source audio.
	EndMs   int64 // Exclusive end in the source audio.
	Audio   *Handle
}

// Duration returns the length of this chunk.
func (c Chunk) Duration() time.Duration {
	return time.Duration(c.EndMs-c.StartMs) * time.Millisecond
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %s-%s",
		c.Index,
		time.Duration(c.StartMs)*time.Millisecond,
		time.Duration(c.EndMs)*time.Millisecond)
}

// Split partitions h into ceil(duration/chunkLengthMs) contiguous chunks.
// Chunk i covers [i*L, min((i+1)*L, duration)). Zero-length audio yields no chunks.
func Split(h *Handle, chunkLengthMs int64) ([]Chunk, error) {
	if chunkLengthMs <= 0 {
		return nil, fmt.Errorf("%w: chunk length must be positive, got %dms", types.ErrConfig, chunkLengthMs)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: nil audio handle", types.ErrDecode)
	}

	total := h.DurationMs()
	count := (total + chunkLengthMs - 1) / chunkLengthMs

	chunks := make([]Chunk, 0, count)
	for i := int64(0); i < count; i++ {
		start := i * chunkLengthMs
		end := min(start+chunkLengthMs, total)
		chunks = append(chunks, Chunk{
			Index:   int(i),
			StartMs: start,
			EndMs:   end,
			Audio:   h.Slice(start, end),
		})
	}
	return chunks, nil
}
