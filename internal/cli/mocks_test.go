package cli

import (
	"context"
	"sync"
	"time"

	"github.com/alnah/splitscribe/internal/apierr"
	"github.com/alnah/splitscribe/internal/audio"
	"github.com/alnah/splitscribe/internal/config"
	"github.com/alnah/splitscribe/internal/transcribe"
)

// ---------------------------------------------------------------------------
// Mock FFmpegResolver
// ---------------------------------------------------------------------------

type mockFFmpegResolver struct {
	ResolveFunc func() (string, error)

	mu           sync.Mutex
	resolveCalls int
}

func (m *mockFFmpegResolver) Resolve() (string, error) {
	m.mu.Lock()
	m.resolveCalls++
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc()
	}
	return "/usr/bin/ffmpeg", nil
}

func (m *mockFFmpegResolver) CheckVersion(_ context.Context, _ string) bool {
	return true
}

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func(path string) (config.Config, error)
}

func (m *mockConfigLoader) Load(path string) (config.Config, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(path)
	}
	return config.Default(), nil
}

// ---------------------------------------------------------------------------
// Mock SourceLoader
// ---------------------------------------------------------------------------

type mockSourceLoader struct {
	LoadFunc func(path string) (audio.SourceRecording, error)
}

func (m *mockSourceLoader) Load(path string) (audio.SourceRecording, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(path)
	}
	return audio.SourceRecording{Path: path, Size: 1024, Format: "mp3"}, nil
}

// ---------------------------------------------------------------------------
// Mock ProberFactory / DurationProber
// ---------------------------------------------------------------------------

type mockProber struct {
	duration time.Duration
	err      error
}

func (m *mockProber) Duration(_ context.Context, _ string) (time.Duration, error) {
	return m.duration, m.err
}

type mockProberFactory struct {
	prober *mockProber
}

func (m *mockProberFactory) NewProber(_ string) DurationProber {
	if m.prober != nil {
		return m.prober
	}
	return &mockProber{}
}

// ---------------------------------------------------------------------------
// Mock SplitterFactory / Splitter
// ---------------------------------------------------------------------------

type stubSplitter struct {
	chunks []audio.Chunk
	err    error

	mu    sync.Mutex
	calls int
}

func (s *stubSplitter) Split(_ context.Context, _ audio.SourceRecording, _ audio.Plan) ([]audio.Chunk, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.chunks, s.err
}

func (s *stubSplitter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type mockSplitterFactory struct {
	splitter audio.Splitter
	err      error

	gotFormat   string
	gotMinChunk time.Duration
}

func (m *mockSplitterFactory) NewSplitter(_, format string, minChunk time.Duration) (audio.Splitter, error) {
	m.gotFormat = format
	m.gotMinChunk = minChunk
	if m.err != nil {
		return nil, m.err
	}
	if m.splitter != nil {
		return m.splitter, nil
	}
	return &stubSplitter{}, nil
}

// ---------------------------------------------------------------------------
// Mock TranscriberFactory / Transcriber
// ---------------------------------------------------------------------------

type stubTranscriber struct {
	texts    map[string]string
	failures map[string]error

	mu    sync.Mutex
	calls []string
}

func (s *stubTranscriber) Transcribe(_ context.Context, path string, _ transcribe.Options) (transcribe.Transcription, error) {
	s.mu.Lock()
	s.calls = append(s.calls, path)
	s.mu.Unlock()

	if err, ok := s.failures[path]; ok {
		return transcribe.Transcription{}, err
	}
	return transcribe.Transcription{Text: s.texts[path]}, nil
}

type mockTranscriberFactory struct {
	transcriber transcribe.Transcriber

	gotAPIKey string
	gotRetry  apierr.RetryConfig
}

func (m *mockTranscriberFactory) NewTranscriber(apiKey string, retry apierr.RetryConfig) transcribe.Transcriber {
	m.gotAPIKey = apiKey
	m.gotRetry = retry
	if m.transcriber != nil {
		return m.transcriber
	}
	return &stubTranscriber{}
}
