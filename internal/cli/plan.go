package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alnah/splitscribe/internal/audio"
	"github.com/alnah/splitscribe/internal/format"
)

// PlanCmd creates the plan command, a dry run of the split decision.
func PlanCmd(env *Env) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "plan <audio-file>",
		Short: "Show how a file would be split, without transcribing",
		Long: `Show the split decision for an audio file: whether it fits in a
single upload and, if not, how many chunks it would be cut into.

Nothing is uploaded and no API key is required.`,
		Example: `  splitscribe plan interview.mp3
  splitscribe plan lecture.wav -c custom.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, env, args[0], configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path")

	return cmd
}

func runPlan(cmd *cobra.Command, env *Env, inputPath, configPath string) error {
	ctx := cmd.Context()

	src, err := env.SourceLoader.Load(inputPath)
	if err != nil {
		return err
	}
	if !supportedFormats[src.Format] {
		return fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedFormat, src.Format, supportedFormatsList())
	}

	cfg, err := env.ConfigLoader.Load(configPath)
	if err != nil {
		return err
	}

	// The split decision needs only the file size. Duration refines the
	// report with per-chunk timing, so a missing FFmpeg is not fatal here.
	if ffmpegPath, err := env.FFmpegResolver.Resolve(); err == nil {
		prober := env.ProberFactory.NewProber(ffmpegPath)
		if duration, err := prober.Duration(ctx, inputPath); err == nil && duration > 0 {
			src.Duration = duration
		}
	}

	plan, err := audio.BuildPlan(src, cfg.Limits.MaxUploadBytes, cfg.Limits.SafetyMargin)
	if err != nil {
		return err
	}

	w := env.Stdout
	fmt.Fprintf(w, "Input:         %s (%s)\n", filepath.Base(inputPath), format.Size(src.Size))
	if src.DurationKnown() {
		fmt.Fprintf(w, "Duration:      %s\n", format.Duration(src.Duration))
	}
	fmt.Fprintf(w, "Upload limit:  %s (effective %s)\n",
		format.Size(cfg.Limits.MaxUploadBytes), format.Size(plan.EffectiveLimit))

	if !plan.NeedsSplit {
		fmt.Fprintln(w, "Fits in a single upload; no split needed.")
		return nil
	}

	fmt.Fprintf(w, "Chunks:        %d\n", plan.ChunkCount)
	fmt.Fprintf(w, "Chunk size:    ~%s each\n", format.Size(src.Size/int64(plan.ChunkCount)))
	if plan.ChunkDuration > 0 {
		fmt.Fprintf(w, "Chunk length:  ~%s each\n", format.Duration(plan.ChunkDuration))
	}
	return nil
}
