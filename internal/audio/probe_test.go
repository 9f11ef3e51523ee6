package audio_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alnah/splitscribe/internal/audio"
)

// fakeRunner returns canned command output and records invocations.
type fakeRunner struct {
	output []byte
	err    error
	calls  [][]string
}

func (f *fakeRunner) CombinedOutput(_ context.Context, _ string, args []string) ([]byte, error) {
	f.calls = append(f.calls, args)
	return f.output, f.err
}

func TestParseDurationFromFFmpegOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		output  string
		want    time.Duration
		wantErr bool
	}{
		{
			name:   "duration line",
			output: "Input #0, mp3\n  Duration: 00:05:23.45, start: 0.000000\n",
			want:   5*time.Minute + 23*time.Second + 450*time.Millisecond,
		},
		{
			name:   "time progress fallback uses last match",
			output: "time=00:01:00.00 bitrate=N/A\ntime=00:02:30.50 bitrate=N/A\n",
			want:   2*time.Minute + 30*time.Second + 500*time.Millisecond,
		},
		{
			name:   "hours",
			output: "Duration: 01:30:00.00",
			want:   90 * time.Minute,
		},
		{
			name:   "extra fractional precision truncated",
			output: "Duration: 00:00:10.123456",
			want:   10*time.Second + 123*time.Millisecond,
		},
		{
			name:    "garbage",
			output:  "no duration here",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := audio.ParseDurationFromFFmpegOutput(tt.output)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("duration = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProber_Duration(t *testing.T) {
	t.Parallel()

	t.Run("parses ffmpeg output despite non-zero exit", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{
			output: []byte("Duration: 00:10:00.00"),
			err:    errors.New("exit status 1"), // ffmpeg exits non-zero with a null sink
		}
		p := audio.NewProber("/usr/bin/ffmpeg", audio.WithProberCommandRunner(runner))
		got, err := p.Duration(context.Background(), "in.mp3")
		if err != nil {
			t.Fatalf("Duration() error = %v", err)
		}
		if got != 10*time.Minute {
			t.Errorf("Duration() = %v, want 10m", got)
		}
	})

	t.Run("no output at all", func(t *testing.T) {
		t.Parallel()
		runner := &fakeRunner{err: errors.New("no such binary")}
		p := audio.NewProber("/usr/bin/ffmpeg", audio.WithProberCommandRunner(runner))
		if _, err := p.Duration(context.Background(), "in.mp3"); !errors.Is(err, audio.ErrUnsupportedInput) {
			t.Errorf("Duration() error = %v, want ErrUnsupportedInput", err)
		}
	})
}
