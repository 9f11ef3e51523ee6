package transcribe

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Transcript is the final ordered, joined text for an entire source
// recording. It is materialized only when every chunk in the batch
// succeeded; no partial transcript is ever produced.
type Transcript struct {
	Text string
}

// FailedChunk identifies one terminally failed chunk and the source time
// range it covered, so a caller can retry just the missing ranges.
type FailedChunk struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Err       error
}

// PartialBatchError reports a batch that cannot be assembled because one or
// more chunks failed terminally. Skipped holds indices of chunks that were
// never dispatched; they were not attempted and carry no failure of their own.
type PartialBatchError struct {
	Failed  []FailedChunk
	Skipped []int
}

// Error lists the failed indices, which is usually what a caller wants to
// see first.
func (e *PartialBatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "transcription incomplete: chunk(s) %v failed", e.FailedIndices())
	if len(e.Skipped) > 0 {
		fmt.Fprintf(&b, ", %v skipped", e.Skipped)
	}
	return b.String()
}

// FailedIndices returns the failed sequence indices in ascending order.
func (e *PartialBatchError) FailedIndices() []int {
	indices := make([]int, len(e.Failed))
	for i, f := range e.Failed {
		indices[i] = f.Index
	}
	sort.Ints(indices)
	return indices
}

// Assemble joins a complete batch of chunk results into one Transcript.
//
// Results are ordered by sequence index, never by completion order, so the
// output is the same for any permutation of the input. Chunk texts are
// trimmed of boundary whitespace and joined with a single space. Assembly
// is all-or-nothing: any failed or skipped result yields a
// *PartialBatchError and no Transcript.
func Assemble(results []ChunkResult) (Transcript, error) {
	ordered := make([]ChunkResult, len(results))
	copy(ordered, results)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var batchErr PartialBatchError
	for _, r := range ordered {
		switch r.Status {
		case StatusFailed:
			batchErr.Failed = append(batchErr.Failed, FailedChunk{
				Index:     r.Index,
				StartTime: r.StartTime,
				EndTime:   r.EndTime,
				Err:       r.Err,
			})
		case StatusSkipped:
			batchErr.Skipped = append(batchErr.Skipped, r.Index)
		}
	}
	if len(batchErr.Failed) > 0 || len(batchErr.Skipped) > 0 {
		return Transcript{}, &batchErr
	}

	parts := make([]string, 0, len(ordered))
	for _, r := range ordered {
		if text := strings.TrimSpace(r.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return Transcript{Text: strings.Join(parts, " ")}, nil
}
