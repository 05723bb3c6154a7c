// Package cleanup sweeps temporary artifacts that outlived the process that
// created them.
package cleanup

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/transcription"
)

// Scheduler handles cleanup of orphaned chunk exports and half-written
// output files.
type Scheduler struct {
	dir      string
	interval time.Duration
	maxAge   time.Duration
	logger   *zap.SugaredLogger
	stopChan chan struct{}
}

// NewScheduler creates a new cleanup scheduler for dir
func NewScheduler(dir string, intervalMinutes, maxAgeHours int, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		dir:      dir,
		interval: time.Duration(intervalMinutes) * time.Minute,
		maxAge:   time.Duration(maxAgeHours) * time.Hour,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start runs one sweep immediately, then one per interval.
func (s *Scheduler) Start() {
	s.logger.Infow("Running initial temp file cleanup", "dir", s.dir)
	s.Sweep(time.Now())

	ticker := time.NewTicker(s.interval)
	go func() {
		for {
			select {
			case now := <-ticker.C:
				s.Sweep(now)
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	s.logger.Infow("Cleanup scheduler started", "interval", s.interval, "max_age", s.maxAge)
}

// Stop stops the cleanup scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.logger.Info("Cleanup scheduler stopped")
}

// IsTempArtifact reports whether name is a chunk export or an unfinished
// atomic write.
func IsTempArtifact(name string) bool {
	if strings.HasPrefix(name, transcription.TempChunkPrefix) {
		return true
	}
	return strings.HasPrefix(name, ".") && strings.Contains(name, ".tmp-")
}

// Sweep removes temp artifacts directly under the directory that are older
// than the max age at now. It returns how many files were removed.
func (s *Scheduler) Sweep(now time.Time) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warnw("Error during cleanup", "dir", s.dir, "error", err)
		}
		return 0
	}

	var deletedCount int
	var deletedSize int64

	for _, entry := range entries {
		if entry.IsDir() || !IsTempArtifact(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // removed concurrently
		}

		age := now.Sub(info.ModTime())
		if age <= s.maxAge {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warnw("Failed to delete old file", "path", path, "error", err)
			continue
		}
		deletedCount++
		deletedSize += info.Size()
		s.logger.Debugw("Deleted old temp file", "file", entry.Name(), "age", age.Round(time.Minute))
	}

	if deletedCount > 0 {
		s.logger.Infow("Cleanup complete",
			"files_deleted", deletedCount,
			"freed_mb", float64(deletedSize)/(1024*1024))
	}
	return deletedCount
}
