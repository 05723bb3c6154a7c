// Package scheduler fans chunk transcription out over a bounded set of
// workers and gathers the per-chunk results as they complete.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/audio"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

// DefaultConcurrency is the worker count used when none is configured.
const DefaultConcurrency = 3

// Policy decides what a chunk failure does to the rest of the batch.
type Policy int

const (
	// FailFast aborts the batch on the first failure and returns only that error.
	FailFast Policy = iota
	// CollectAll runs every chunk and reports failures alongside successes.
	CollectAll
)

// ParsePolicy maps a config value onto a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail_fast", "fail-fast":
		return FailFast, nil
	case "collect_all", "collect-all":
		return CollectAll, nil
	default:
		return FailFast, fmt.Errorf("%w: unknown failure policy %q", types.ErrConfig, s)
	}
}

func (p Policy) String() string {
	if p == CollectAll {
		return "collect_all"
	}
	return "fail_fast"
}

// ChunkTranscriber performs one transcription attempt for one chunk.
type ChunkTranscriber interface {
	Transcribe(ctx context.Context, chunk audio.Chunk) (string, error)
}

// ProgressFunc receives the completed and total chunk counts after every completion.
type ProgressFunc func(completed, total int)

// Scheduler runs chunk batches with at most Concurrency calls in flight.
type Scheduler struct {
	concurrency int
	policy      Policy
	logger      *zap.SugaredLogger
}

// New creates a scheduler. concurrency must be positive.
func New(concurrency int, policy Policy, logger *zap.SugaredLogger) (*Scheduler, error) {
	if concurrency <= 0 {
		return nil, fmt.Errorf("%w: worker concurrency must be positive, got %d", types.ErrConfig, concurrency)
	}
	return &Scheduler{
		concurrency: concurrency,
		policy:      policy,
		logger:      logger,
	}, nil
}

// Concurrency returns the worker bound
func (s *Scheduler) Concurrency() int { return s.concurrency }

// Policy returns the failure policy
func (s *Scheduler) Policy() Policy { return s.policy }

// RunAll transcribes every chunk and returns results keyed by chunk index.
//
// Under FailFast the first failure cancels the shared context, no further
// chunks are started, and that failure (as a *types.ChunkError) is the only
// error returned. Under CollectAll every chunk runs; the map holds successes
// and failures and the error combines every chunk failure.
func (s *Scheduler) RunAll(ctx context.Context, chunks []audio.Chunk, t ChunkTranscriber, tracker *Tracker) (map[int]types.ChunkResult, error) {
	if tracker == nil {
		tracker = NewTracker(nil)
	}
	tracker.reset(len(chunks))

	var (
		mu      sync.Mutex
		results = make(map[int]types.ChunkResult, len(chunks))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, chunk := range chunks {
		// Stop dispatching once a fail-fast error or caller cancel lands.
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// A slot can free up after cancellation; never start new work then.
			if gctx.Err() != nil {
				return nil
			}

			res := s.runOne(gctx, chunk, t)

			mu.Lock()
			if _, dup := results[res.Index]; dup {
				mu.Unlock()
				return fmt.Errorf("chunk index %d produced twice", res.Index)
			}
			results[res.Index] = res
			mu.Unlock()

			tracker.complete(res.OK())

			if !res.OK() && s.policy == FailFast {
				return &types.ChunkError{Index: res.Index, Err: res.Err}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Errorw("Chunk batch aborted", "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.policy == CollectAll {
		return results, collectErrors(results)
	}
	return results, nil
}

// runOne executes a single chunk, turning panics into failures
func (s *Scheduler) runOne(ctx context.Context, chunk audio.Chunk, t ChunkTranscriber) (res types.ChunkResult) {
	res.Index = chunk.Index
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("PANIC processing chunk", "chunk", chunk.Index, "panic", r, "stack", string(debug.Stack()))
			res.Text = ""
			res.Err = fmt.Errorf("worker panic: %v", r)
		}
	}()

	s.logger.Debugw("Transcribing", "chunk", chunk.String())
	res.Text, res.Err = t.Transcribe(ctx, chunk)
	switch {
	case res.Err == nil:
	case ctx.Err() != nil:
		s.logger.Debugw("Chunk cancelled", "chunk", chunk.Index, "error", res.Err)
	default:
		s.logger.Errorw("Chunk failed", "chunk", chunk.Index, "error", res.Err)
	}
	return res
}

// collectErrors combines chunk failures in index order.
func collectErrors(results map[int]types.ChunkResult) error {
	indices := FailedIndices(results)
	var err error
	for _, i := range indices {
		err = multierr.Append(err, &types.ChunkError{Index: i, Err: results[i].Err})
	}
	return err
}

// FailedIndices lists the indices of failed results in ascending order.
func FailedIndices(results map[int]types.ChunkResult) []int {
	var failed []int
	for i, r := range results {
		if !r.OK() {
			failed = append(failed, i)
		}
	}
	sort.Ints(failed)
	return failed
}
