package logger

import (
	"strings"
	"sync"
)

// DefaultBufferLines is how many log lines the server keeps for GET /logs.
const DefaultBufferLines = 1000

// LogBuffer captures logs in memory
type LogBuffer struct {
	mu    sync.Mutex
	lines []string
	max   int
}

// NewLogBuffer keeps at most max lines; max <= 0 means DefaultBufferLines.
func NewLogBuffer(max int) *LogBuffer {
	if max <= 0 {
		max = DefaultBufferLines
	}
	return &LogBuffer{
		lines: make([]string, 0, max),
		max:   max,
	}
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		lb.lines = append(lb.lines, line)
	}

	// Keep the last max lines
	if len(lb.lines) > lb.max {
		lb.lines = append(lb.lines[:0:0], lb.lines[len(lb.lines)-lb.max:]...)
	}

	return len(p), nil
}

// Sync satisfies zapcore.WriteSyncer
func (lb *LogBuffer) Sync() error { return nil }

// GetLogs returns a copy of the buffered lines, oldest first.
func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}
