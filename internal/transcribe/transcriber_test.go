package transcribe_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/splitscribe/internal/apierr"
	"github.com/alnah/splitscribe/internal/transcribe"
)

// fakeClient scripts CreateTranscription responses per call.
type fakeClient struct {
	responses []fakeResponse
	calls     int
	requests  []openai.AudioRequest
}

type fakeResponse struct {
	text string
	err  error
}

func (f *fakeClient) CreateTranscription(_ context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	f.requests = append(f.requests, req)
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	r := f.responses[i]
	return openai.AudioResponse{Text: r.text}, r.err
}

func apiError(status int, msg string) *openai.APIError {
	return &openai.APIError{HTTPStatusCode: status, Message: msg}
}

// fastRetry keeps backoff delays negligible in tests.
func fastRetry(maxRetries int) transcribe.TranscriberOption {
	return transcribe.WithRetryPolicy(apierr.RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
	})
}

func TestOpenAITranscriber_Success(t *testing.T) {
	t.Parallel()

	client := &fakeClient{responses: []fakeResponse{{text: "hello world"}}}
	tr := transcribe.NewOpenAITranscriber(nil, transcribe.WithClient(client), fastRetry(3))

	got, err := tr.Transcribe(context.Background(), "chunk_000.ogg", transcribe.Options{Language: "pt-BR"})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if got.Text != "hello world" {
		t.Errorf("Text = %q, want %q", got.Text, "hello world")
	}
	if got.Retries != 0 {
		t.Errorf("Retries = %d, want 0", got.Retries)
	}
	// Locale variants must be reduced to base codes for the API.
	if lang := client.requests[0].Language; lang != "pt" {
		t.Errorf("request language = %q, want %q", lang, "pt")
	}
}

func TestOpenAITranscriber_RetriesTransient(t *testing.T) {
	t.Parallel()

	client := &fakeClient{responses: []fakeResponse{
		{err: apiError(http.StatusTooManyRequests, "rate limited")},
		{err: apiError(http.StatusServiceUnavailable, "overloaded")},
		{text: "recovered"},
	}}
	tr := transcribe.NewOpenAITranscriber(nil, transcribe.WithClient(client), fastRetry(3))

	got, err := tr.Transcribe(context.Background(), "chunk_000.ogg", transcribe.Options{})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if got.Text != "recovered" {
		t.Errorf("Text = %q, want %q", got.Text, "recovered")
	}
	if got.Retries != 2 {
		t.Errorf("Retries = %d, want 2", got.Retries)
	}
	if client.calls != 3 {
		t.Errorf("API calls = %d, want 3", client.calls)
	}
}

func TestOpenAITranscriber_PermanentErrorNotRetried(t *testing.T) {
	t.Parallel()

	client := &fakeClient{responses: []fakeResponse{
		{err: apiError(http.StatusUnauthorized, "bad key")},
	}}
	tr := transcribe.NewOpenAITranscriber(nil, transcribe.WithClient(client), fastRetry(5))

	_, err := tr.Transcribe(context.Background(), "chunk_000.ogg", transcribe.Options{})
	if !errors.Is(err, apierr.ErrAuthFailed) {
		t.Fatalf("error = %v, want ErrAuthFailed", err)
	}
	if client.calls != 1 {
		t.Errorf("API calls = %d, want 1", client.calls)
	}
}

func TestOpenAITranscriber_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	client := &fakeClient{responses: []fakeResponse{
		{err: apiError(http.StatusTooManyRequests, "rate limited")},
	}}
	tr := transcribe.NewOpenAITranscriber(nil, transcribe.WithClient(client), fastRetry(2))

	_, err := tr.Transcribe(context.Background(), "chunk_000.ogg", transcribe.Options{})
	if !errors.Is(err, apierr.ErrRateLimit) {
		t.Fatalf("error = %v, want wrapped ErrRateLimit", err)
	}
	if client.calls != 3 {
		t.Errorf("API calls = %d, want 3 (1 attempt + 2 retries)", client.calls)
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"rate limit", apiError(http.StatusTooManyRequests, "slow down"), apierr.ErrRateLimit},
		{"quota in 429 message", apiError(http.StatusTooManyRequests, "insufficient quota"), apierr.ErrQuotaExceeded},
		{"billing in 429 message", apiError(http.StatusTooManyRequests, "check billing details"), apierr.ErrQuotaExceeded},
		{"unauthorized", apiError(http.StatusUnauthorized, "invalid api key"), apierr.ErrAuthFailed},
		{"payload too large", apiError(http.StatusRequestEntityTooLarge, "26MB > 25MB"), apierr.ErrPayloadTooLarge},
		{"request timeout", apiError(http.StatusRequestTimeout, "timeout"), apierr.ErrTimeout},
		{"gateway timeout", apiError(http.StatusGatewayTimeout, "timeout"), apierr.ErrTimeout},
		{"bad request", apiError(http.StatusBadRequest, "unsupported format"), apierr.ErrBadRequest},
		{"server error", apiError(http.StatusInternalServerError, "oops"), apierr.ErrServer},
		{"bad gateway", apiError(http.StatusBadGateway, "oops"), apierr.ErrServer},
		{"deadline exceeded", context.DeadlineExceeded, apierr.ErrTimeout},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := transcribe.ClassifyError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	t.Run("unclassified passes through", func(t *testing.T) {
		t.Parallel()
		err := errors.New("weird network thing")
		if got := transcribe.ClassifyError(err); !errors.Is(got, err) {
			t.Errorf("ClassifyError() = %v, want original error", got)
		}
	})
}
