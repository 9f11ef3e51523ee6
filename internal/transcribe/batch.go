package transcribe

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/splitscribe/internal/audio"
)

// Status is the terminal outcome of one chunk.
type Status int

const (
	// StatusSucceeded means the chunk transcribed successfully.
	StatusSucceeded Status = iota

	// StatusFailed means the chunk failed terminally: a permanent API error,
	// or transient errors that exhausted the retry bound.
	StatusFailed

	// StatusSkipped means the chunk was never dispatched because an earlier
	// chunk failed terminally.
	StatusSkipped
)

// String returns the status name for progress output and error messages.
func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ChunkResult is the terminal outcome of transcribing one chunk.
// Exactly one ChunkResult exists per chunk in a batch, created only after
// the chunk's outcome is settled.
type ChunkResult struct {
	Index     int           // sequence index of the originating chunk
	Text      string        // transcribed text; empty unless StatusSucceeded
	Status    Status        //
	Retries   int           // transient retries spent on this chunk
	Err       error         // terminal error; nil unless failed or skipped
	StartTime time.Duration // source offset of the originating chunk
	EndTime   time.Duration //
}

// ProgressFunc is called once per chunk as its result becomes terminal.
// Calls may arrive in any order; results carry their own indices.
// Set to nil to suppress progress reporting.
type ProgressFunc func(ChunkResult)

// TranscribeBatch transcribes chunks with bounded parallelism and returns
// one terminal ChunkResult per chunk, ordered by chunk index.
//
// Completion order is unconstrained; ordering is restored by the caller's
// assembly step. When a chunk fails terminally, chunks not yet dispatched
// are skipped, but calls already in flight run to completion: the external
// API has no cheap cancel, and a finished chunk is still useful for a
// retry of just the missing ranges.
func TranscribeBatch(
	ctx context.Context,
	chunks []audio.Chunk,
	t Transcriber,
	opts Options,
	maxParallel int,
	progress ProgressFunc,
) []ChunkResult {
	if len(chunks) == 0 {
		return nil
	}
	if maxParallel < 1 {
		maxParallel = 1
	}

	results := make([]ChunkResult, len(chunks))
	var failed atomic.Bool

	// SetLimit gives the bounded dispatch pool: Go blocks until a slot
	// frees, so the skip check below runs only as each chunk is dispatched.
	g := new(errgroup.Group)
	g.SetLimit(maxParallel)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			res := ChunkResult{
				Index:     chunk.Index,
				StartTime: chunk.StartTime,
				EndTime:   chunk.EndTime,
			}

			switch {
			case failed.Load() || ctx.Err() != nil:
				res.Status = StatusSkipped
				res.Err = ErrSkipped
			default:
				tr, err := t.Transcribe(ctx, chunk.Path, opts)
				res.Retries = tr.Retries
				if err != nil {
					res.Status = StatusFailed
					res.Err = err
					failed.Store(true)
				} else {
					res.Status = StatusSucceeded
					res.Text = tr.Text
				}
			}

			results[i] = res
			if progress != nil {
				progress(res)
			}
			return nil
		})
	}

	_ = g.Wait() // goroutines report through results, never through errors

	return results
}
