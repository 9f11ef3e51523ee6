package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	wav "github.com/youpy/go-wav"
)

// pcmFormat is the RIFF audio format tag for uncompressed PCM.
const pcmFormat = 1

// readBatchSamples bounds a single ReadSamples call.
const readBatchSamples = 8192

// WAVSplitter cuts PCM WAV recordings at exact sample-frame boundaries by
// copying sample data, with no decode/re-encode round trip. Every chunk is
// a standalone WAV file with a correct header. Non-PCM WAV sources are
// delegated to the fallback splitter, which re-encodes.
type WAVSplitter struct {
	minChunk time.Duration
	fallback Splitter

	tempDir tempDirCreator
	files   fileRemover
}

// WAVSplitterOption configures a WAVSplitter.
type WAVSplitterOption func(*WAVSplitter)

// WithWAVFallback sets the splitter used for non-PCM WAV sources.
func WithWAVFallback(s Splitter) WAVSplitterOption {
	return func(w *WAVSplitter) { w.fallback = s }
}

// WithWAVTempDir sets the temp directory creator.
func WithWAVTempDir(t tempDirCreator) WAVSplitterOption {
	return func(w *WAVSplitter) { w.tempDir = t }
}

// WithWAVFileRemover sets the file remover.
func WithWAVFileRemover(f fileRemover) WAVSplitterOption {
	return func(w *WAVSplitter) { w.files = f }
}

// NewWAVSplitter creates a WAVSplitter.
// minChunk is the minimum viable chunk duration; an undersized trailing
// segment is merged into its predecessor.
func NewWAVSplitter(minChunk time.Duration, opts ...WAVSplitterOption) *WAVSplitter {
	if minChunk < 0 {
		minChunk = 0
	}
	w := &WAVSplitter{
		minChunk: minChunk,
		tempDir:  osTempDirCreator{},
		files:    osFileRemover{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Split cuts src into plan.ChunkCount chunks aligned to whole sample frames.
func (w *WAVSplitter) Split(ctx context.Context, src SourceRecording, plan Plan) ([]Chunk, error) {
	f, err := os.Open(src.Path) // #nosec G304 -- src.Path was validated by Load
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open %s: %v", ErrSplitFailed, src.Path, err)
	}
	defer func() { _ = f.Close() }()

	reader := wav.NewReader(f)
	wavFormat, err := reader.Format()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse WAV header of %s: %v", ErrSplitFailed, src.Path, err)
	}

	if wavFormat.AudioFormat != pcmFormat {
		if w.fallback == nil {
			return nil, fmt.Errorf("%w: %s is not PCM and no fallback splitter is configured",
				ErrSplitFailed, src.Path)
		}
		return w.fallback.Split(ctx, src, plan)
	}
	if wavFormat.SampleRate == 0 || wavFormat.BlockAlign == 0 {
		return nil, fmt.Errorf("%w: %s has a malformed format chunk", ErrSplitFailed, src.Path)
	}

	count := plan.ChunkCount
	if count < 1 {
		count = 1
	}

	samplesPerChunk := w.samplesPerChunk(src, plan, wavFormat, count)
	if samplesPerChunk <= 0 {
		return nil, fmt.Errorf("%w: %s too short to split into %d chunks", ErrSplitFailed, src.Path, count)
	}
	minSamples := int(w.minChunk.Seconds() * float64(wavFormat.SampleRate))

	tempDir, err := w.tempDir.MkdirTemp("", tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create temp directory: %v", ErrSplitFailed, err)
	}

	chunks, err := w.copyChunks(ctx, reader, wavFormat, tempDir, samplesPerChunk, minSamples)
	if err != nil {
		_ = w.files.RemoveAll(tempDir) // best-effort cleanup; original error takes precedence
		return nil, err
	}
	return chunks, nil
}

// samplesPerChunk derives the chunk length in sample frames. Prefers the
// plan's duration hint; falls back to byte-proportional division of the
// sample data when the duration is unknown.
func (w *WAVSplitter) samplesPerChunk(src SourceRecording, plan Plan, f *wav.WavFormat, count int) int {
	if plan.ChunkDuration > 0 {
		return int(plan.ChunkDuration.Seconds() * float64(f.SampleRate))
	}

	// Approximate total frames from the file size minus the canonical
	// 44-byte header. Off by at most a frame per chunk, which is within
	// the split tolerance.
	const headerSize = 44
	dataBytes := src.Size - headerSize
	if dataBytes <= 0 {
		return 0
	}
	totalFrames := dataBytes / int64(f.BlockAlign)
	return int(totalFrames / int64(count))
}

// copyChunks streams sample frames into per-chunk WAV files. At most two
// chunks of samples are held in memory: the previous chunk is only written
// once the next one proves it is not an undersized tail needing a merge.
func (w *WAVSplitter) copyChunks(
	ctx context.Context,
	reader *wav.Reader,
	f *wav.WavFormat,
	tempDir string,
	samplesPerChunk, minSamples int,
) ([]Chunk, error) {
	var (
		chunks      []Chunk
		pending     []wav.Sample // previous chunk, not yet written
		current     []wav.Sample
		frameOffset uint64 // start frame of pending
	)

	frameToTime := func(frames uint64) time.Duration {
		return time.Duration(float64(frames) / float64(f.SampleRate) * float64(time.Second))
	}

	flush := func(samples []wav.Sample) error {
		index := len(chunks)
		path := filepath.Join(tempDir, fmt.Sprintf("chunk_%03d.wav", index))
		if err := writeWAVChunk(path, f, samples); err != nil {
			return err
		}
		start := frameToTime(frameOffset)
		frameOffset += uint64(len(samples))
		chunks = append(chunks, Chunk{
			Path:      path,
			Index:     index,
			StartTime: start,
			EndTime:   frameToTime(frameOffset),
		})
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		want := samplesPerChunk - len(current)
		if want > readBatchSamples {
			want = readBatchSamples
		}
		batch, err := reader.ReadSamples(uint32(want))
		if len(batch) > 0 {
			current = append(current, batch...)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading samples: %v", ErrSplitFailed, err)
		}

		if len(current) >= samplesPerChunk {
			if pending != nil {
				if err := flush(pending); err != nil {
					return nil, err
				}
			}
			pending = current
			current = nil
		}
	}

	// current now holds the tail (possibly empty when the source divided
	// evenly). Merge an undersized tail into the pending chunk.
	switch {
	case len(current) == 0 && pending == nil:
		return nil, fmt.Errorf("%w: no sample data found", ErrSplitFailed)
	case len(current) == 0:
		if err := flush(pending); err != nil {
			return nil, err
		}
	case pending != nil && len(current) < minSamples:
		if err := flush(append(pending, current...)); err != nil {
			return nil, err
		}
	default:
		if pending != nil {
			if err := flush(pending); err != nil {
				return nil, err
			}
		}
		if err := flush(current); err != nil {
			return nil, err
		}
	}

	return chunks, nil
}

// writeWAVChunk writes samples as a standalone WAV file.
func writeWAVChunk(path string, f *wav.WavFormat, samples []wav.Sample) error {
	out, err := os.Create(path) // #nosec G304 -- path is inside our temp directory
	if err != nil {
		return fmt.Errorf("%w: cannot create chunk file: %v", ErrSplitFailed, err)
	}

	writeErr := func() error {
		defer func() { _ = out.Close() }()
		writer := wav.NewWriter(out, uint32(len(samples)), f.NumChannels, f.SampleRate, f.BitsPerSample)
		if err := writer.WriteSamples(samples); err != nil {
			return fmt.Errorf("%w: writing chunk %s: %v", ErrSplitFailed, path, err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}
	return nil
}
