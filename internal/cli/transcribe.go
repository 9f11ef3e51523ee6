package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/splitscribe/internal/apierr"
	"github.com/alnah/splitscribe/internal/format"
	"github.com/alnah/splitscribe/internal/lang"
	"github.com/alnah/splitscribe/internal/pipeline"
	"github.com/alnah/splitscribe/internal/transcribe"
)

// supportedFormats lists audio formats accepted by OpenAI's transcription API.
// Source: https://platform.openai.com/docs/guides/speech-to-text
var supportedFormats = map[string]bool{
	"ogg":  true,
	"mp3":  true,
	"wav":  true,
	"m4a":  true,
	"flac": true,
	"mp4":  true,
	"mpeg": true,
	"mpga": true,
	"webm": true,
}

// supportedFormatsList returns a sorted, comma-separated list for error messages.
// The list is sorted for deterministic output in tests and user-facing messages.
func supportedFormatsList() string {
	formats := make([]string, 0, len(supportedFormats))
	for ext := range supportedFormats {
		formats = append(formats, ext)
	}
	slices.Sort(formats)
	return strings.Join(formats, ", ")
}

// clampParallel constrains parallel request count to valid range [1, MaxRecommendedParallel].
func clampParallel(n int) int {
	if n < 1 {
		return 1
	}
	if n > transcribe.MaxRecommendedParallel {
		return transcribe.MaxRecommendedParallel
	}
	return n
}

// TranscribeCmd creates the transcribe command.
// The env parameter provides injectable dependencies for testing.
func TranscribeCmd(env *Env) *cobra.Command {
	var (
		output     string
		language   string
		prompt     string
		parallel   int
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file of any size",
		Long: `Transcribe an audio file using OpenAI's transcription API.

Files larger than the API upload limit are split into chunks at frame
boundaries, transcribed in parallel, and reassembled into a single
transcript in source order. Files that fit are uploaded whole.

Supported formats: ` + supportedFormatsList(),
		Example: `  splitscribe transcribe interview.mp3
  splitscribe transcribe lecture.wav -o lecture.txt -l en
  splitscribe transcribe meeting.ogg -p 8 --prompt "Acme quarterly review"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscribe(cmd, env, args[0], output, language, prompt, parallel, configPath)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: <input>_transcript.txt)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Audio language (ISO 639-1 code, e.g., en, fr, pt-BR)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Context prompt to improve accuracy on domain vocabulary")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "Max concurrent API requests (1-10, default from config)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path")

	return cmd
}

// runTranscribe executes the transcription pipeline.
// Validation order: input readable -> format -> language -> output -> API key
func runTranscribe(cmd *cobra.Command, env *Env, inputPath, output, language, prompt string, parallel int, configPath string) error {
	ctx := cmd.Context()

	// === VALIDATION (fail-fast) ===

	// 1. Input exists and is non-empty
	src, err := env.SourceLoader.Load(inputPath)
	if err != nil {
		return err
	}

	// 2. Format supported
	if !supportedFormats[src.Format] {
		return fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedFormat, src.Format, supportedFormatsList())
	}

	// 3. Language valid (empty means auto-detect)
	if err := lang.Validate(language); err != nil {
		return err
	}

	// 4. Run policy
	cfg, err := env.ConfigLoader.Load(configPath)
	if err != nil {
		return err
	}
	if parallel == 0 {
		parallel = cfg.Transcription.MaxParallel
	}
	parallel = clampParallel(parallel)

	// 5. Output path
	if output == "" {
		output = deriveOutputPath(inputPath)
	}

	// 6. API key present
	apiKey := env.Getenv(EnvOpenAIAPIKey)
	if apiKey == "" {
		return fmt.Errorf("%w (set it with: export %s=sk-...)", ErrAPIKeyMissing, EnvOpenAIAPIKey)
	}

	// === SETUP ===

	ffmpegPath, err := env.FFmpegResolver.Resolve()
	if err != nil {
		return err
	}
	env.FFmpegResolver.CheckVersion(ctx, ffmpegPath)

	// Duration is a planning aid, not a requirement: without it the
	// splitter falls back to byte-proportional boundaries.
	prober := env.ProberFactory.NewProber(ffmpegPath)
	if duration, err := prober.Duration(ctx, inputPath); err == nil && duration > 0 {
		src.Duration = duration
	} else if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: could not probe duration: %v\n", err)
	}

	splitter, err := env.SplitterFactory.NewSplitter(ffmpegPath, src.Format, cfg.Split.MinChunkDuration())
	if err != nil {
		return err
	}

	transcriber := env.TranscriberFactory.NewTranscriber(apiKey, apierr.RetryConfig{
		MaxRetries: cfg.Transcription.MaxRetries,
		BaseDelay:  cfg.Transcription.BaseBackoff(),
		MaxDelay:   cfg.Transcription.MaxBackoff(),
	})

	// === PIPELINE ===

	controller := pipeline.NewController(splitter, transcriber,
		cfg.Limits.MaxUploadBytes, cfg.Limits.SafetyMargin,
		pipeline.WithMaxParallel(parallel),
		pipeline.WithTranscribeOptions(transcribe.Options{
			Language: language,
			Prompt:   prompt,
		}),
		pipeline.WithStateFunc(stateProgress(env, src.Size)),
		pipeline.WithChunkProgress(chunkProgress(env)),
	)

	result, err := controller.Execute(ctx, src)
	if result.CleanupErr != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to cleanup chunks: %v\n", result.CleanupErr)
	}
	if err != nil {
		return err
	}

	// === WRITE OUTPUT ===

	if err := writeFileExclusive(output, result.Transcript.Text+"\n"); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Done: %s (%s)\n", output, statsLine(result.Transcript.Text))
	return nil
}

// stateProgress reports phase transitions on stderr. The run ID opens the
// output so failures in scripts and logs can be tied to one invocation.
func stateProgress(env *Env, sizeBytes int64) pipeline.StateFunc {
	return func(run pipeline.Run, state pipeline.State) {
		switch state {
		case pipeline.StateEstimating:
			fmt.Fprintf(env.Stderr, "Starting run %s\n", run.ID)
			fmt.Fprintf(env.Stderr, "Estimating... input is %s\n", format.Size(sizeBytes))
		case pipeline.StateSplitting:
			fmt.Fprintln(env.Stderr, "Splitting...")
		case pipeline.StateTranscribing:
			fmt.Fprintln(env.Stderr, "Transcribing...")
		case pipeline.StateAssembling:
			fmt.Fprintln(env.Stderr, "Assembling...")
		}
	}
}

// chunkProgress reports per-chunk outcomes on stderr as they settle.
func chunkProgress(env *Env) transcribe.ProgressFunc {
	return func(r transcribe.ChunkResult) {
		line := fmt.Sprintf("  chunk %d (%s-%s): %s",
			r.Index+1, format.Duration(r.StartTime), format.Duration(r.EndTime), r.Status)
		if r.Retries > 0 {
			line += fmt.Sprintf(" after %d retries", r.Retries)
		}
		fmt.Fprintln(env.Stderr, line)
	}
}
