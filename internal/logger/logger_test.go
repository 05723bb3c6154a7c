package logger

import (
	"fmt"
	"strings"
	"testing"
)

func TestLogBufferKeepsLastLines(t *testing.T) {
	buf := NewLogBuffer(3)
	for i := 0; i < 5; i++ {
		fmt.Fprintf(buf, "line %d\n", i)
	}

	logs := buf.GetLogs()
	if len(logs) != 3 || logs[0] != "line 2" || logs[2] != "line 4" {
		t.Errorf("expected the last three lines, got %v", logs)
	}
}

func TestLogBufferSplitsMultilineWrites(t *testing.T) {
	buf := NewLogBuffer(0)
	buf.Write([]byte("a\nb\n"))
	if logs := buf.GetLogs(); len(logs) != 2 || logs[1] != "b" {
		t.Errorf("expected two lines, got %v", logs)
	}
}

func TestBuildTeesIntoBuffer(t *testing.T) {
	buf := NewLogBuffer(10)
	log := Build(false, buf)
	log.Infow("Job queued", "job_id", "abc")
	log.Debugw("hidden at info level")

	logs := buf.GetLogs()
	if len(logs) != 1 {
		t.Fatalf("expected one buffered entry, got %v", logs)
	}
	if !strings.Contains(logs[0], "Job queued") || !strings.Contains(logs[0], "abc") {
		t.Errorf("entry missing message or fields: %q", logs[0])
	}
}
