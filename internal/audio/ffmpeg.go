package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// DefaultSampleRate is what Whisper resamples to anyway.
const DefaultSampleRate = 16000

// FFmpegDecoder decodes any container ffmpeg understands into 16kHz mono PCM
type FFmpegDecoder struct {
	ffmpegPath string
	sampleRate int
}

// NewFFmpegDecoder creates a decoder. Empty path means "ffmpeg" on $PATH.
func NewFFmpegDecoder(ffmpegPath string, sampleRate int) *FFmpegDecoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &FFmpegDecoder{ffmpegPath: ffmpegPath, sampleRate: sampleRate}
}

// Decode runs ffmpeg and captures raw PCM from stdout
func (d *FFmpegDecoder) Decode(ctx context.Context, path string) (*Handle, error) {
	// ffmpeg -v error -i input -f s16le -acodec pcm_s16le -ac 1 -ar 16000 -
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-v", "error",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.sampleRate),
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg failed: %v\nOutput: %s", types.ErrDecode, err, stderr.String())
	}

	return NewHandle(d.sampleRate, 1, stdout.Bytes()), nil
}
