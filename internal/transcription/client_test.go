package transcription

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/audio"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/transcription/mocks"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

func testChunk(index int) audio.Chunk {
	h := audio.NewHandle(16000, 1, make([]byte, 3200)) // 100ms
	return audio.Chunk{Index: index, StartMs: 0, EndMs: 100, Audio: h}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	for _, e := range entries {
		t.Errorf("leftover file %s", e.Name())
	}
}

func TestChunkTranscriberSuccessRemovesExport(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	dir := t.TempDir()

	var seen string
	svc.EXPECT().Transcribe(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, path string) (string, error) {
			seen = path
			info, err := os.Stat(path)
			if err != nil {
				t.Errorf("export should exist during the call: %v", err)
			} else if info.Size() != 44+3200 {
				t.Errorf("expected a %d byte wav, got %d", 44+3200, info.Size())
			}
			return "hello there", nil
		})

	ct := NewChunkTranscriber(svc, dir, zap.NewNop().Sugar())
	text, err := ct.Transcribe(context.Background(), testChunk(3))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello there" {
		t.Errorf("expected text passthrough, got %q", text)
	}
	if base := filepath.Base(seen); !strings.HasPrefix(base, TempChunkPrefix+"3_") || filepath.Dir(seen) != dir {
		t.Errorf("unexpected export path %s", seen)
	}
	assertEmptyDir(t, dir)
}

func TestChunkTranscriberServiceFailureRemovesExport(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	dir := t.TempDir()

	svc.EXPECT().Transcribe(gomock.Any(), gomock.Any()).Return("", errors.New("connection reset by peer"))

	ct := NewChunkTranscriber(svc, dir, zap.NewNop().Sugar())
	_, err := ct.Transcribe(context.Background(), testChunk(0))
	if !errors.Is(err, types.ErrTranscriptionService) {
		t.Errorf("expected ErrTranscriptionService, got %v", err)
	}
	assertEmptyDir(t, dir)
}

func TestChunkTranscriberKeepsTypedServiceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	typed := errors.Join(types.ErrTranscriptionService, errors.New("429"))
	svc.EXPECT().Transcribe(gomock.Any(), gomock.Any()).Return("", typed)

	ct := NewChunkTranscriber(svc, t.TempDir(), zap.NewNop().Sugar())
	if _, err := ct.Transcribe(context.Background(), testChunk(1)); err != typed {
		t.Errorf("expected the service error unchanged, got %v", err)
	}
}

func TestChunkTranscriberExportFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl) // no calls expected

	missing := filepath.Join(t.TempDir(), "does-not-exist")
	ct := NewChunkTranscriber(svc, missing, zap.NewNop().Sugar())
	if _, err := ct.Transcribe(context.Background(), testChunk(0)); !errors.Is(err, types.ErrExport) {
		t.Errorf("expected ErrExport, got %v", err)
	}

	dir := t.TempDir()
	ct = NewChunkTranscriber(svc, dir, zap.NewNop().Sugar())
	bad := audio.Chunk{Index: 2} // no audio to encode
	if _, err := ct.Transcribe(context.Background(), bad); !errors.Is(err, types.ErrExport) {
		t.Errorf("expected ErrExport, got %v", err)
	}
	assertEmptyDir(t, dir)
}

func TestChunkTranscriberUniqueNames(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	paths := map[string]bool{}
	svc.EXPECT().Transcribe(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, path string) (string, error) {
			paths[path] = true
			return "x", nil
		}).Times(5)

	ct := NewChunkTranscriber(svc, t.TempDir(), zap.NewNop().Sugar())
	for i := 0; i < 5; i++ {
		if _, err := ct.Transcribe(context.Background(), testChunk(7)); err != nil {
			t.Fatalf("Transcribe: %v", err)
		}
	}
	if len(paths) != 5 {
		t.Errorf("expected 5 distinct export names for the same index, got %d", len(paths))
	}
}

func TestChunkTranscriberCancelledCallLogsAtDebug(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc.EXPECT().Transcribe(gomock.Any(), gomock.Any()).Return("", context.Canceled)

	core, logs := observer.New(zapcore.DebugLevel)
	ct := NewChunkTranscriber(svc, t.TempDir(), zap.New(core).Sugar())
	if _, err := ct.Transcribe(ctx, testChunk(2)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected the cancellation to be wrapped, got %v", err)
	}

	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 0 {
		t.Errorf("cancellation should not log errors, got %d", n)
	}
	if n := logs.FilterMessage("Chunk cancelled").Len(); n != 1 {
		t.Errorf("expected one debug entry, got %d", n)
	}
}
