// Package pipeline drives one recording through the full chunk-and-reassemble
// flow: estimate, split, transcribe, assemble. The controller owns state
// transitions and chunk lifetime; the heavy lifting stays in the audio and
// transcribe packages.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/splitscribe/internal/audio"
	"github.com/alnah/splitscribe/internal/transcribe"
)

// State is a phase of a pipeline run. Transitions are strictly forward:
// Estimating, Splitting, Transcribing, Assembling, then Done. Splitting is
// bypassed when the source already fits in one upload. Failed is terminal
// and reachable from any phase.
type State int

const (
	StateEstimating State = iota
	StateSplitting
	StateTranscribing
	StateAssembling
	StateDone
	StateFailed
)

// String returns the state name for progress output.
func (s State) String() string {
	switch s {
	case StateEstimating:
		return "estimating"
	case StateSplitting:
		return "splitting"
	case StateTranscribing:
		return "transcribing"
	case StateAssembling:
		return "assembling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Run identifies one pipeline execution.
type Run struct {
	ID     string
	Source audio.SourceRecording
}

// StateFunc observes state transitions as they happen.
type StateFunc func(run Run, state State)

// Result is the final outcome of a run. State records where the run ended;
// on failure the earlier fields hold whatever was produced before the
// failing phase.
type Result struct {
	Run        Run
	State      State
	Plan       audio.Plan
	Chunks     []audio.Chunk
	Results    []transcribe.ChunkResult
	Transcript transcribe.Transcript

	// CleanupErr reports a failed temp chunk removal. It never fails the
	// run; callers surface it as a warning.
	CleanupErr error
}

// Controller executes pipeline runs with a fixed policy. Safe to reuse
// across runs; each Execute call is independent.
type Controller struct {
	splitter     audio.Splitter
	transcriber  transcribe.Transcriber
	limitBytes   int64
	safetyMargin float64
	maxParallel  int
	opts         transcribe.Options
	onState      StateFunc
	onChunk      transcribe.ProgressFunc
	cleanup      func([]audio.Chunk) error
	newRunID     func() string
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxParallel bounds concurrent transcription requests.
func WithMaxParallel(n int) Option {
	return func(c *Controller) {
		c.maxParallel = n
	}
}

// WithTranscribeOptions sets per-chunk transcription options.
func WithTranscribeOptions(opts transcribe.Options) Option {
	return func(c *Controller) {
		c.opts = opts
	}
}

// WithStateFunc sets the state transition observer.
func WithStateFunc(fn StateFunc) Option {
	return func(c *Controller) {
		c.onState = fn
	}
}

// WithChunkProgress sets the per-chunk result observer.
func WithChunkProgress(fn transcribe.ProgressFunc) Option {
	return func(c *Controller) {
		c.onChunk = fn
	}
}

// WithCleanup overrides temp chunk removal.
func WithCleanup(fn func([]audio.Chunk) error) Option {
	return func(c *Controller) {
		c.cleanup = fn
	}
}

// WithRunIDGenerator overrides run ID generation.
func WithRunIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		c.newRunID = fn
	}
}

// NewController creates a Controller.
// splitter and transcriber must be non-nil.
func NewController(
	splitter audio.Splitter,
	transcriber transcribe.Transcriber,
	limitBytes int64,
	safetyMargin float64,
	opts ...Option,
) *Controller {
	c := &Controller{
		splitter:     splitter,
		transcriber:  transcriber,
		limitBytes:   limitBytes,
		safetyMargin: safetyMargin,
		maxParallel:  4,
		cleanup:      audio.CleanupChunks,
		newRunID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs src through the pipeline and returns the assembled
// transcript.
//
// Sources that fit within the effective upload limit skip the splitting
// phase entirely: the recording itself is submitted as the only chunk and
// no temp files are created. Split chunks are removed before Execute
// returns, success or not; a removal failure is reported through
// Result.CleanupErr without failing the run.
func (c *Controller) Execute(ctx context.Context, src audio.SourceRecording) (res Result, err error) {
	run := Run{ID: c.newRunID(), Source: src}
	res.Run = run

	c.transition(&res, StateEstimating)
	plan, err := audio.BuildPlan(src, c.limitBytes, c.safetyMargin)
	if err != nil {
		return c.fail(res, err)
	}
	res.Plan = plan

	if plan.NeedsSplit {
		c.transition(&res, StateSplitting)
		chunks, err := c.splitter.Split(ctx, src, plan)
		if err != nil {
			return c.fail(res, err)
		}
		defer func() {
			res.CleanupErr = c.cleanup(chunks)
		}()
		res.Chunks = chunks

		c.transition(&res, StateTranscribing)
		res.Results = transcribe.TranscribeBatch(ctx, chunks, c.transcriber, c.opts, c.maxParallel, c.onChunk)
	} else {
		// Fast path: the recording fits one upload, so it is submitted
		// whole with a direct call. No temp files, no dispatch pool.
		chunk := audio.Chunk{
			Path:    src.Path,
			Index:   0,
			EndTime: wholeFileEnd(src),
		}
		res.Chunks = []audio.Chunk{chunk}

		c.transition(&res, StateTranscribing)
		result := c.transcribeWhole(ctx, chunk)
		res.Results = []transcribe.ChunkResult{result}
		if c.onChunk != nil {
			c.onChunk(result)
		}
	}

	// A canceled run is an interrupt, not an incomplete batch: chunk
	// results reflect the cancellation, not permanent API failures.
	if err := ctx.Err(); err != nil {
		return c.fail(res, err)
	}

	c.transition(&res, StateAssembling)
	transcript, err := transcribe.Assemble(res.Results)
	if err != nil {
		return c.fail(res, err)
	}
	res.Transcript = transcript

	c.transition(&res, StateDone)
	return res, nil
}

// transcribeWhole handles the one-chunk case without batch dispatch.
func (c *Controller) transcribeWhole(ctx context.Context, chunk audio.Chunk) transcribe.ChunkResult {
	res := transcribe.ChunkResult{
		Index:     chunk.Index,
		StartTime: chunk.StartTime,
		EndTime:   chunk.EndTime,
	}
	tr, err := c.transcriber.Transcribe(ctx, chunk.Path, c.opts)
	res.Retries = tr.Retries
	if err != nil {
		res.Status = transcribe.StatusFailed
		res.Err = err
	} else {
		res.Status = transcribe.StatusSucceeded
		res.Text = tr.Text
	}
	return res
}

func (c *Controller) transition(res *Result, state State) {
	res.State = state
	if c.onState != nil {
		c.onState(res.Run, state)
	}
}

func (c *Controller) fail(res Result, err error) (Result, error) {
	c.transition(&res, StateFailed)
	return res, err
}

// wholeFileEnd gives the single fast-path chunk a meaningful time range
// when the source duration was probed.
func wholeFileEnd(src audio.SourceRecording) time.Duration {
	if src.DurationKnown() {
		return src.Duration
	}
	return 0
}
