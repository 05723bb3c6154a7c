package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// DefaultFormats is the supported extension set when none is configured.
var DefaultFormats = []string{"mp3", "wav", "m4a", "ogg", "flac"}

// Decoder turns an audio file into an in-memory Handle.
type Decoder interface {
	Decode(ctx context.Context, path string) (*Handle, error)
}

// Loader validates and decodes source audio files.
type Loader struct {
	decoder Decoder
	formats map[string]struct{}
}

// NewLoader creates a loader accepting the given extensions (with or without
// the leading dot, case-insensitive). An empty list means DefaultFormats.
func NewLoader(decoder Decoder, formats []string) *Loader {
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	set := make(map[string]struct{}, len(formats))
	for _, f := range formats {
		set[normalizeExt(f)] = struct{}{}
	}
	return &Loader{decoder: decoder, formats: set}
}

// Formats returns the supported extensions, sorted.
func (l *Loader) Formats() []string {
	out := make([]string, 0, len(l.formats))
	for f := range l.formats {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// SupportsFormat checks the extension of filename against the supported set
func (l *Loader) SupportsFormat(filename string) bool {
	_, ok := l.formats[normalizeExt(filepath.Ext(filename))]
	return ok
}

// Validate checks the extension and then existence of path. The extension
// check needs no I/O and runs first.
func (l *Loader) Validate(path string) error {
	if !l.SupportsFormat(path) {
		return fmt.Errorf("%w: %q (supported: %s)",
			types.ErrUnsupportedFormat, filepath.Ext(path), strings.Join(l.Formats(), ", "))
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", types.ErrNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", types.ErrNotFound, path)
	}
	return nil
}

// Load validates path and decodes it.
func (l *Loader) Load(ctx context.Context, path string) (*Handle, error) {
	if err := l.Validate(path); err != nil {
		return nil, err
	}

	h, err := l.decoder.Decode(ctx, path)
	if err != nil {
		if errors.Is(err, types.ErrDecode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", types.ErrDecode, path, err)
	}
	if h == nil || h.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s: decoder returned no audio", types.ErrDecode, path)
	}
	if h.Channels <= 0 {
		return nil, fmt.Errorf("%w: %s: decoder reported %d channels", types.ErrDecode, path, h.Channels)
	}
	return h, nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
