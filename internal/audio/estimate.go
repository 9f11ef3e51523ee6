package audio

import (
	"fmt"
	"time"
)

// Plan is the split decision for one run: whether the source exceeds the
// upload budget and, if so, how many chunks to cut and how long each
// should be.
type Plan struct {
	// NeedsSplit is false when the whole file fits one upload.
	NeedsSplit bool

	// ChunkCount is the number of chunks to produce (1 when NeedsSplit is false).
	ChunkCount int

	// ChunkDuration is the target duration per chunk. Zero when the source
	// duration is unknown; the splitter then probes and divides by ChunkCount
	// itself (byte-proportional fallback).
	ChunkDuration time.Duration

	// EffectiveLimit is the per-upload byte budget after the safety margin.
	EffectiveLimit int64
}

// BuildPlan decides whether src needs splitting against the API's byte cap.
// safetyMargin is the fraction of limitBytes actually targeted, reserving
// headroom for re-encoding overhead (e.g. 0.9 targets 90% of the cap).
func BuildPlan(src SourceRecording, limitBytes int64, safetyMargin float64) (Plan, error) {
	if src.Size <= 0 {
		return Plan{}, fmt.Errorf("%w: source %s has no content", ErrUnsupportedInput, src.Path)
	}
	if limitBytes <= 0 {
		return Plan{}, fmt.Errorf("size limit must be positive, got %d", limitBytes)
	}
	if safetyMargin <= 0 || safetyMargin > 1 {
		return Plan{}, fmt.Errorf("safety margin must be in (0, 1], got %g", safetyMargin)
	}

	effective := int64(float64(limitBytes) * safetyMargin)
	if src.Size <= effective {
		return Plan{
			NeedsSplit:     false,
			ChunkCount:     1,
			EffectiveLimit: effective,
		}, nil
	}

	// Ceiling division: the last chunk is allowed to be smaller.
	count := int((src.Size + effective - 1) / effective)

	plan := Plan{
		NeedsSplit:     true,
		ChunkCount:     count,
		EffectiveLimit: effective,
	}
	if src.DurationKnown() {
		plan.ChunkDuration = src.Duration / time.Duration(count)
	}
	return plan, nil
}
