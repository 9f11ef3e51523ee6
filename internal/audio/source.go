// Package audio holds the chunking core: source inspection, split planning,
// and the splitters that cut a recording into frame-aligned chunks small
// enough for the transcription API.
package audio

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// SourceRecording describes the input file for one run.
// Immutable once loaded; the pipeline owns it for the lifetime of the run.
type SourceRecording struct {
	Path     string
	Size     int64         // bytes
	Duration time.Duration // zero when unknown or unprobed
	Format   string        // lowercase extension without dot, e.g. "mp3"
}

// DurationKnown reports whether a usable duration was probed.
func (s SourceRecording) DurationKnown() bool {
	return s.Duration > 0
}

// Load inspects path and builds a SourceRecording. The duration is left
// unset; callers probe it separately when they need time-based planning.
// Returns ErrUnsupportedInput for missing, unreadable, or empty files.
func Load(path string, statter fileStatter) (SourceRecording, error) {
	if statter == nil {
		statter = osFileStatter{}
	}

	info, err := statter.Stat(path)
	if err != nil {
		return SourceRecording{}, fmt.Errorf("%w: cannot read %s: %v", ErrUnsupportedInput, path, err)
	}
	if info.Size() == 0 {
		return SourceRecording{}, fmt.Errorf("%w: %s is empty", ErrUnsupportedInput, path)
	}

	return SourceRecording{
		Path:   path,
		Size:   info.Size(),
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	}, nil
}
