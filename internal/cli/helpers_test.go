package cli

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/splitscribe/internal/audio"
)

const testMB = 1024 * 1024

// testEnv builds an Env with all external dependencies mocked out and
// stderr captured. Individual tests override fields as needed.
func testEnv(stderr *bytes.Buffer) *Env {
	return NewEnv(
		WithStdout(io.Discard),
		WithStderr(stderr),
		WithGetenv(func(key string) string {
			if key == EnvOpenAIAPIKey {
				return "sk-test"
			}
			return ""
		}),
		WithFFmpegResolver(&mockFFmpegResolver{}),
		WithConfigLoader(&mockConfigLoader{}),
		WithSourceLoader(&mockSourceLoader{}),
		WithProberFactory(&mockProberFactory{}),
		WithSplitterFactory(&mockSplitterFactory{}),
		WithTranscriberFactory(&mockTranscriberFactory{}),
	)
}

// executeCommand runs a cobra command with args and a background context.
func executeCommand(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

// sourceOfSize returns a loader producing a fixed-size recording for any path.
func sourceOfSize(size int64, format string, duration time.Duration) *mockSourceLoader {
	return &mockSourceLoader{
		LoadFunc: func(path string) (audio.SourceRecording, error) {
			return audio.SourceRecording{
				Path:     path,
				Size:     size,
				Duration: duration,
				Format:   format,
			}, nil
		},
	}
}

// threeChunkSplit returns a splitter that produces three named chunks and a
// transcriber factory whose transcriber yields one word per chunk.
func threeChunkSplit() (*stubSplitter, *mockTranscriberFactory) {
	splitter := &stubSplitter{chunks: []audio.Chunk{
		{Path: "/tmp/splitscribe-x/chunk_000.ogg", Index: 0, EndTime: 20 * time.Minute},
		{Path: "/tmp/splitscribe-x/chunk_001.ogg", Index: 1, StartTime: 20 * time.Minute, EndTime: 40 * time.Minute},
		{Path: "/tmp/splitscribe-x/chunk_002.ogg", Index: 2, StartTime: 40 * time.Minute, EndTime: time.Hour},
	}}
	factory := &mockTranscriberFactory{transcriber: &stubTranscriber{texts: map[string]string{
		splitter.chunks[0].Path: "hello ",
		splitter.chunks[1].Path: "world ",
		splitter.chunks[2].Path: "end.",
	}}}
	return splitter, factory
}
