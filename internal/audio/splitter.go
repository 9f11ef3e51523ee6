package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/splitscribe/internal/format"
)

// tempDirPattern names the temp directories holding chunk payloads.
// CleanupChunks refuses to remove directories that don't match it.
const tempDirPattern = "splitscribe-*"

// Chunk is one contiguous, frame-aligned slice of the source recording,
// small enough to satisfy the API's upload limit. The caller owns the
// chunk file and releases it once the chunk's result is terminal.
type Chunk struct {
	Path      string        // Absolute path to the chunk file.
	Index     int           // Zero-based sequence index, dense, no gaps.
	StartTime time.Duration // Start offset in the source recording.
	EndTime   time.Duration // End offset in the source recording.
}

// Duration returns the length of this chunk.
func (c Chunk) Duration() time.Duration {
	return c.EndTime - c.StartTime
}

// String returns a human-readable representation for progress output.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %s-%s",
		c.Index,
		format.Duration(c.StartTime),
		format.Duration(c.EndTime))
}

// Splitter cuts a source recording into ordered chunks per a Plan.
// Implementations guarantee strictly increasing, non-overlapping offsets
// whose union covers the source duration, and that every chunk file is a
// valid standalone audio container.
type Splitter interface {
	Split(ctx context.Context, src SourceRecording, plan Plan) ([]Chunk, error)
}

// Compile-time interface implementation checks.
var (
	_ Splitter = (*FFmpegSplitter)(nil)
	_ Splitter = (*WAVSplitter)(nil)
)

// FFmpegSplitter cuts compressed containers by re-encoding each segment.
// Re-encoding guarantees every chunk is a valid container with clean frame
// boundaries, regardless of where the cut lands in the source stream.
type FFmpegSplitter struct {
	ffmpegPath string
	minChunk   time.Duration

	// Injectable dependencies (defaults to OS implementations).
	cmd     commandRunner
	tempDir tempDirCreator
	files   fileRemover
}

// FFmpegSplitterOption configures an FFmpegSplitter.
type FFmpegSplitterOption func(*FFmpegSplitter)

// WithSplitterCommandRunner sets the command runner.
func WithSplitterCommandRunner(r commandRunner) FFmpegSplitterOption {
	return func(s *FFmpegSplitter) { s.cmd = r }
}

// WithSplitterTempDir sets the temp directory creator.
func WithSplitterTempDir(t tempDirCreator) FFmpegSplitterOption {
	return func(s *FFmpegSplitter) { s.tempDir = t }
}

// WithSplitterFileRemover sets the file remover.
func WithSplitterFileRemover(f fileRemover) FFmpegSplitterOption {
	return func(s *FFmpegSplitter) { s.files = f }
}

// NewFFmpegSplitter creates an FFmpegSplitter.
// minChunk is the minimum viable chunk duration: a trailing segment shorter
// than this is merged into its predecessor rather than submitted alone.
func NewFFmpegSplitter(ffmpegPath string, minChunk time.Duration, opts ...FFmpegSplitterOption) (*FFmpegSplitter, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("%w: ffmpeg path cannot be empty", ErrSplitFailed)
	}
	if minChunk < 0 {
		minChunk = 0
	}

	s := &FFmpegSplitter{
		ffmpegPath: ffmpegPath,
		minChunk:   minChunk,
		cmd:        osCommandRunner{},
		tempDir:    osTempDirCreator{},
		files:      osFileRemover{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Split cuts src into plan.ChunkCount segments at time boundaries.
// If the plan carries no duration hint (unreliable source header), the
// splitter probes the duration itself and divides evenly.
func (s *FFmpegSplitter) Split(ctx context.Context, src SourceRecording, plan Plan) ([]Chunk, error) {
	total := src.Duration
	if total <= 0 {
		probed, err := NewProber(s.ffmpegPath, WithProberCommandRunner(s.cmd)).Duration(ctx, src.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot determine duration of %s: %v", ErrSplitFailed, src.Path, err)
		}
		total = probed
	}

	count := plan.ChunkCount
	if count < 1 {
		count = 1
	}
	chunkDur := plan.ChunkDuration
	if chunkDur <= 0 {
		chunkDur = total / time.Duration(count)
	}
	if chunkDur <= 0 {
		return nil, fmt.Errorf("%w: source %s too short to split into %d chunks", ErrSplitFailed, src.Path, count)
	}

	boundaries := computeBoundaries(total, chunkDur, s.minChunk)

	tempDir, err := s.tempDir.MkdirTemp("", tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create temp directory: %v", ErrSplitFailed, err)
	}

	chunks := make([]Chunk, 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		start, end := boundaries[i], boundaries[i+1]

		chunkPath := filepath.Join(tempDir, fmt.Sprintf("chunk_%03d.ogg", i))
		if err := s.extractChunk(ctx, src.Path, chunkPath, start, end); err != nil {
			_ = s.files.RemoveAll(tempDir) // best-effort cleanup; original error takes precedence
			return nil, err
		}

		chunks = append(chunks, Chunk{
			Path:      chunkPath,
			Index:     i,
			StartTime: start,
			EndTime:   end,
		})
	}

	return chunks, nil
}

// computeBoundaries builds the cut points [0, d, 2d, ..., total].
// A trailing segment shorter than minChunk is merged into its predecessor
// by dropping the second-to-last boundary, so no near-empty chunk is ever
// submitted on its own.
func computeBoundaries(total, chunkDur, minChunk time.Duration) []time.Duration {
	boundaries := []time.Duration{0}
	for b := chunkDur; b < total; b += chunkDur {
		boundaries = append(boundaries, b)
	}
	boundaries = append(boundaries, total)

	// Merge an undersized tail into the previous chunk.
	if n := len(boundaries); n > 2 {
		tail := boundaries[n-1] - boundaries[n-2]
		if tail < minChunk {
			boundaries = append(boundaries[:n-2], boundaries[n-1])
		}
	}

	return boundaries
}

// chunkEncodingArgs returns FFmpeg encoding arguments for chunk extraction.
// Re-encodes to OGG Vorbis at 16kHz mono, which keeps chunks well under the
// size budget and is optimal for speech transcription.
func chunkEncodingArgs() []string {
	return []string{
		"-c:a", "libvorbis",
		"-ar", "16000",
		"-ac", "1",
		"-q:a", "2",
	}
}

// extractChunk extracts a segment from audioPath to chunkPath.
func (s *FFmpegSplitter) extractChunk(ctx context.Context, audioPath, chunkPath string, start, end time.Duration) error {
	args := []string{
		"-y",
		"-i", audioPath,
		"-ss", formatFFmpegTime(start),
		"-to", formatFFmpegTime(end),
	}
	args = append(args, chunkEncodingArgs()...)
	args = append(args, chunkPath)

	output, err := s.cmd.CombinedOutput(ctx, s.ffmpegPath, args)
	if err != nil {
		return fmt.Errorf("%w: failed to extract chunk %s: %v\nOutput: %s",
			ErrSplitFailed, chunkPath, err, string(output))
	}
	return nil
}

// formatFFmpegTime formats a duration for FFmpeg -ss/-to arguments.
func formatFFmpegTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

// CleanupChunks removes all chunk files and their parent directory.
// Call this once every chunk's result is terminal, success or failure.
func CleanupChunks(chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	// All chunks live in the same temp directory.
	tempDir := filepath.Dir(chunks[0].Path)

	// Safety check: don't delete arbitrary directories.
	if !strings.Contains(filepath.Base(tempDir), strings.TrimSuffix(tempDirPattern, "*")) {
		for _, chunk := range chunks {
			_ = os.Remove(chunk.Path) // best-effort cleanup; files may already be gone
		}
		return nil
	}

	return os.RemoveAll(tempDir)
}
