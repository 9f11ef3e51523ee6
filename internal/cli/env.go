package cli

import (
	"context"
	"io"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/splitscribe/internal/apierr"
	"github.com/alnah/splitscribe/internal/audio"
	"github.com/alnah/splitscribe/internal/config"
	"github.com/alnah/splitscribe/internal/ffmpeg"
	"github.com/alnah/splitscribe/internal/transcribe"
)

// EnvOpenAIAPIKey is the environment variable holding the API key.
const EnvOpenAIAPIKey = "OPENAI_API_KEY"

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	// Factories for domain objects
	FFmpegResolver     FFmpegResolver
	ConfigLoader       ConfigLoader
	SourceLoader       SourceLoader
	ProberFactory      ProberFactory
	SplitterFactory    SplitterFactory
	TranscriberFactory TranscriberFactory
}

// FFmpegResolver resolves the path to the FFmpeg binary.
type FFmpegResolver interface {
	Resolve() (string, error)
	CheckVersion(ctx context.Context, ffmpegPath string) bool
}

// ConfigLoader loads the run policy.
type ConfigLoader interface {
	Load(path string) (config.Config, error)
}

// SourceLoader inspects an input file.
type SourceLoader interface {
	Load(path string) (audio.SourceRecording, error)
}

// DurationProber measures a recording's duration.
type DurationProber interface {
	Duration(ctx context.Context, audioPath string) (time.Duration, error)
}

// ProberFactory creates duration probers.
type ProberFactory interface {
	NewProber(ffmpegPath string) DurationProber
}

// SplitterFactory creates splitters for an input format.
type SplitterFactory interface {
	NewSplitter(ffmpegPath, format string, minChunk time.Duration) (audio.Splitter, error)
}

// TranscriberFactory creates transcribers for audio-to-text conversion.
type TranscriberFactory interface {
	NewTranscriber(apiKey string, retry apierr.RetryConfig) transcribe.Transcriber
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithFFmpegResolver sets the FFmpeg resolver.
func WithFFmpegResolver(r FFmpegResolver) EnvOption {
	return func(e *Env) {
		e.FFmpegResolver = r
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithSourceLoader sets the source loader.
func WithSourceLoader(l SourceLoader) EnvOption {
	return func(e *Env) {
		e.SourceLoader = l
	}
}

// WithProberFactory sets the duration prober factory.
func WithProberFactory(f ProberFactory) EnvOption {
	return func(e *Env) {
		e.ProberFactory = f
	}
}

// WithSplitterFactory sets the splitter factory.
func WithSplitterFactory(f SplitterFactory) EnvOption {
	return func(e *Env) {
		e.SplitterFactory = f
	}
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) {
		e.TranscriberFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Getenv:             os.Getenv,
		FFmpegResolver:     ffmpeg.NewResolver(),
		ConfigLoader:       &defaultConfigLoader{},
		SourceLoader:       &defaultSourceLoader{},
		ProberFactory:      &defaultProberFactory{},
		SplitterFactory:    &defaultSplitterFactory{},
		TranscriberFactory: &defaultTranscriberFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load(path string) (config.Config, error) {
	return config.Load(path)
}

type defaultSourceLoader struct{}

func (defaultSourceLoader) Load(path string) (audio.SourceRecording, error) {
	return audio.Load(path, nil)
}

type defaultProberFactory struct{}

func (defaultProberFactory) NewProber(ffmpegPath string) DurationProber {
	return audio.NewProber(ffmpegPath)
}

// defaultSplitterFactory builds the splitter for an input format. PCM WAV
// inputs are cut losslessly at frame boundaries without re-encoding; every
// other format goes through FFmpeg, which also serves as the fallback for
// WAV files that turn out not to be plain PCM.
type defaultSplitterFactory struct{}

func (defaultSplitterFactory) NewSplitter(ffmpegPath, format string, minChunk time.Duration) (audio.Splitter, error) {
	ffmpegSplitter, err := audio.NewFFmpegSplitter(ffmpegPath, minChunk)
	if err != nil {
		return nil, err
	}
	if format == "wav" {
		return audio.NewWAVSplitter(minChunk, audio.WithWAVFallback(ffmpegSplitter)), nil
	}
	return ffmpegSplitter, nil
}

// defaultTranscriberFactory implements TranscriberFactory using OpenAI.
type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(apiKey string, retry apierr.RetryConfig) transcribe.Transcriber {
	client := openai.NewClient(apiKey)
	return transcribe.NewOpenAITranscriber(client, transcribe.WithRetryPolicy(retry))
}

// Compile-time interface verification.
var (
	_ FFmpegResolver     = (*ffmpeg.Resolver)(nil)
	_ ConfigLoader       = (*defaultConfigLoader)(nil)
	_ SourceLoader       = (*defaultSourceLoader)(nil)
	_ ProberFactory      = (*defaultProberFactory)(nil)
	_ SplitterFactory    = (*defaultSplitterFactory)(nil)
	_ TranscriberFactory = (*defaultTranscriberFactory)(nil)
	_ DurationProber     = (*audio.Prober)(nil)
)
