// Package transcribe submits audio chunks to the transcription API and
// reassembles the per-chunk texts into a single ordered transcript.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/splitscribe/internal/apierr"
	"github.com/alnah/splitscribe/internal/lang"
)

// MaxRecommendedParallel is the recommended upper limit for concurrent API
// requests. Higher values may trigger rate limiting.
const MaxRecommendedParallel = 10

// Default retry configuration, overridable via WithRetryPolicy.
const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Options configures transcription behavior.
type Options struct {
	// Language is the audio language hint.
	// Zero value means auto-detect (recommended for most use cases).
	Language string

	// Prompt provides context to improve transcription accuracy.
	// Useful for domain-specific vocabulary or acronyms.
	Prompt string
}

// Transcription is the outcome of one successful chunk transcription.
type Transcription struct {
	Text    string
	Retries int // transient retries spent before success
}

// Transcriber transcribes one audio file to text.
type Transcriber interface {
	// Transcribe converts an audio file to text.
	// audioPath must be a file in a format the API accepts:
	// mp3, mp4, mpeg, mpga, m4a, wav, webm, ogg, flac.
	Transcribe(ctx context.Context, audioPath string, opts Options) (Transcription, error)
}

// audioTranscriber is an internal interface for OpenAI audio transcription.
// *openai.Client implements this implicitly, which allows injecting mocks
// in tests.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface compliance checks.
var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ audioTranscriber = (*openai.Client)(nil)
)

// OpenAITranscriber transcribes audio using OpenAI's transcription API,
// retrying transient failures with exponential backoff.
type OpenAITranscriber struct {
	client audioTranscriber
	retry  apierr.RetryConfig
}

// TranscriberOption configures an OpenAITranscriber.
type TranscriberOption func(*OpenAITranscriber)

// WithRetryPolicy sets the retry bound and backoff delays.
func WithRetryPolicy(cfg apierr.RetryConfig) TranscriberOption {
	return func(t *OpenAITranscriber) { t.retry = cfg }
}

// WithClient sets the API client (for testing).
func WithClient(c audioTranscriber) TranscriberOption {
	return func(t *OpenAITranscriber) { t.client = c }
}

// NewOpenAITranscriber creates an OpenAITranscriber.
func NewOpenAITranscriber(client *openai.Client, opts ...TranscriberOption) *OpenAITranscriber {
	t := &OpenAITranscriber{
		client: client,
		retry: apierr.RetryConfig{
			MaxRetries: defaultMaxRetries,
			BaseDelay:  defaultBaseDelay,
			MaxDelay:   defaultMaxDelay,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe submits one chunk. Transient errors (rate limits, timeouts,
// server errors) are retried with exponential backoff up to the configured
// bound; permanent errors are returned immediately.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string, opts Options) (Transcription, error) {
	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatJSON,
		Prompt:   opts.Prompt,
		Language: lang.BaseCode(opts.Language), // API only accepts ISO 639-1 base codes
	}

	text, retries, err := apierr.RetryWithBackoff(ctx, t.retry, func() (string, error) {
		resp, err := t.client.CreateTranscription(ctx, req)
		if err != nil {
			return "", classifyError(err)
		}
		return resp.Text, nil
	}, apierr.IsTransient)
	if err != nil {
		return Transcription{Retries: retries}, err
	}

	return Transcription{Text: text, Retries: retries}, nil
}

// classifyError maps OpenAI API errors to apierr sentinels.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			// Distinguish a temporary rate limit from quota exhaustion
			// (billing issue). Quota exhaustion requires user action and
			// must not be retried.
			if strings.Contains(apiErr.Message, "quota") ||
				strings.Contains(apiErr.Message, "billing") {
				return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrQuotaExceeded)
			}
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrRateLimit)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrAuthFailed)
		case http.StatusRequestEntityTooLarge:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrPayloadTooLarge)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrTimeout)
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrBadRequest)
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return fmt.Errorf("%s: %w", apiErr.Message, apierr.ErrServer)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", apierr.ErrTimeout)
	}

	return err
}
