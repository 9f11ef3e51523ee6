// Package ffmpeg locates the ffmpeg binary used as the decode/cut
// collaborator. Resolution order: the FFMPEG_PATH environment variable, then
// the system PATH. There is no auto-install; a missing binary is a setup
// error surfaced to the user.
package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// EnvFFmpegPath overrides ffmpeg binary resolution.
const EnvFFmpegPath = "FFMPEG_PATH"

// minMajorVersion is the minimum supported ffmpeg version. Older versions
// may lack the codec support the splitter relies on.
const minMajorVersion = 4

// Resolver finds ffmpeg and checks its version.
type Resolver struct {
	env    envProvider
	files  fileStatter
	cmd    commandRunner
	stderr io.Writer
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithEnvProvider sets the environment provider implementation.
func WithEnvProvider(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// WithFileStatter sets the file statter implementation.
func WithFileStatter(f fileStatter) ResolverOption {
	return func(r *Resolver) { r.files = f }
}

// WithCommandRunner sets the command runner implementation.
func WithCommandRunner(c commandRunner) ResolverOption {
	return func(r *Resolver) { r.cmd = c }
}

// WithStderr sets the writer for warning messages.
func WithStderr(w io.Writer) ResolverOption {
	return func(r *Resolver) { r.stderr = w }
}

// NewResolver creates a Resolver with the given options.
// Uses production defaults if no options are provided.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		env:    osEnvProvider{},
		files:  osFileStatter{},
		cmd:    osCommandRunner{},
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds ffmpeg using the following precedence:
//  1. FFMPEG_PATH environment variable (error if set but invalid)
//  2. System PATH
func (r *Resolver) Resolve() (string, error) {
	if envPath := r.env.Getenv(EnvFFmpegPath); envPath != "" {
		if _, err := r.files.Stat(envPath); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but binary not found",
				ErrNotFound, EnvFFmpegPath, envPath)
		}
		return envPath, nil
	}

	if path, err := r.env.LookPath("ffmpeg"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: install ffmpeg or set %s", ErrNotFound, EnvFFmpegPath)
}

// CheckVersion verifies that ffmpeg meets the minimum version requirement.
// Prints a warning to stderr if the version is below minimum but doesn't
// fail. Returns true if the version was successfully parsed.
func (r *Resolver) CheckVersion(ctx context.Context, ffmpegPath string) bool {
	output, err := r.cmd.CombinedOutput(ctx, ffmpegPath, []string{"-version"})
	if err != nil && len(output) == 0 {
		return false // Can't check version, proceed anyway
	}

	// Parse version from output like "ffmpeg version 6.1.1 Copyright..."
	lines := strings.Split(string(output), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return false
	}

	var major int
	if _, err := fmt.Sscanf(lines[0], "ffmpeg version %d", &major); err != nil {
		// Alternative format "ffmpeg version n6.1.1..."
		if _, err := fmt.Sscanf(lines[0], "ffmpeg version n%d", &major); err != nil {
			return false
		}
	}

	if major < minMajorVersion {
		fmt.Fprintf(r.stderr, "Warning: ffmpeg version %d detected, version %d+ recommended\n",
			major, minMajorVersion)
	}
	return true
}
