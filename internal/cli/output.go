package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// deriveOutputPath converts an audio file path to the default transcript
// path next to it. Example: "talks/session.mp3" -> "talks/session_transcript.txt"
func deriveOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "_transcript.txt"
}

// writeFileExclusive writes content to path, failing if the file already
// exists (O_EXCL) to prevent accidental overwrites. On write failure, the
// partial file is removed.
func writeFileExclusive(path, content string) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}

	return nil
}

// statsLine summarizes a finished transcript for the closing status message.
func statsLine(text string) string {
	return fmt.Sprintf("%d chars, %d words", len(text), len(strings.Fields(text)))
}
