package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func planEnv(stdout, stderr *bytes.Buffer) *Env {
	env := testEnv(stderr)
	env.Stdout = stdout
	// No API key: plan must not need one.
	env.Getenv = func(string) string { return "" }
	return env
}

func TestPlan_FileFitsSingleUpload(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	env := planEnv(&stdout, &stderr)
	env.SourceLoader = sourceOfSize(10*testMB, "mp3", 5*time.Minute)

	if err := executeCommand(PlanCmd(env), "short.mp3"); err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "single upload") {
		t.Errorf("output missing single-upload notice:\n%s", out)
	}
	if strings.Contains(out, "Chunks:") {
		t.Errorf("chunk count printed for a file that fits:\n%s", out)
	}
}

func TestPlan_LargeFileChunkCount(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	env := planEnv(&stdout, &stderr)
	env.SourceLoader = sourceOfSize(60*testMB, "mp3", time.Hour)
	env.ProberFactory = &mockProberFactory{prober: &mockProber{duration: time.Hour}}

	if err := executeCommand(PlanCmd(env), "interview.mp3"); err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "Chunks:        3") {
		t.Errorf("output missing chunk count:\n%s", out)
	}
	if !strings.Contains(out, "Duration:      01:00:00") {
		t.Errorf("output missing probed duration:\n%s", out)
	}
	if !strings.Contains(out, "Chunk size:    ~20 MB each") {
		t.Errorf("output missing chunk size:\n%s", out)
	}
	if !strings.Contains(out, "Chunk length:  ~20:00 each") {
		t.Errorf("output missing chunk length:\n%s", out)
	}
}

func TestPlan_MissingFFmpegStillPlans(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	env := planEnv(&stdout, &stderr)
	env.SourceLoader = sourceOfSize(60*testMB, "mp3", 0)
	env.FFmpegResolver = &mockFFmpegResolver{
		ResolveFunc: func() (string, error) { return "", errors.New("not installed") },
	}

	if err := executeCommand(PlanCmd(env), "interview.mp3"); err != nil {
		t.Fatalf("plan failed without FFmpeg: %v", err)
	}
	if !strings.Contains(stdout.String(), "Chunks:        3") {
		t.Errorf("size-only plan missing chunk count:\n%s", stdout.String())
	}
}

func TestPlan_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	env := planEnv(&stdout, &stderr)
	env.SourceLoader = sourceOfSize(testMB, "pdf", 0)

	err := executeCommand(PlanCmd(env), "doc.pdf")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("got error %v, want ErrUnsupportedFormat", err)
	}
}
