package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"reelcraft/internal/model"
)

var onceCount int

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Generate scripts and render the best one in a single pass",
	Long: `Generate a batch of scripts, pick the highest-scored candidate and
render it to a video file, all without running the serve loop.`,
	RunE: runOnce,
}

func init() {
	onceCmd.Flags().IntVarP(&onceCount, "count", "c", 5, "Number of script candidates to generate")
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	scriptJob := &model.ScriptGenerationJob{Owner: svc.owner(), RequestedCount: onceCount}
	if err := svc.store.CreateScriptJob(ctx, scriptJob); err != nil {
		return fmt.Errorf("queue script job: %w", err)
	}

	slog.Info("Generating scripts...", "count", onceCount)
	svc.dispatcher.DrainScriptJobs(ctx)

	result, err := svc.store.GetScriptJob(ctx, scriptJob.ID)
	if err != nil {
		return err
	}
	if result == nil || result.Status != model.JobStatusCompleted {
		msg := "unknown error"
		if result != nil && result.ErrorMessage != "" {
			msg = result.ErrorMessage
		}
		return fmt.Errorf("script generation failed: %s", msg)
	}

	scripts, err := svc.store.ListScripts(ctx, svc.owner())
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		return fmt.Errorf("no scripts generated")
	}
	best := scripts[0]
	slog.Info("Rendering best script", "script", best.ID, "score", best.ViralScore, "topic", best.Topic)

	videoJob := &model.VideoGenerationJob{Owner: svc.owner(), ScriptID: best.ID}
	if err := svc.store.CreateVideoJob(ctx, videoJob); err != nil {
		return fmt.Errorf("queue video job: %w", err)
	}
	svc.dispatcher.DrainVideoJobs(ctx)

	done, err := svc.store.GetVideoJob(ctx, videoJob.ID)
	if err != nil {
		return err
	}
	if done == nil || done.Status != model.JobStatusCompleted {
		msg := "unknown error"
		if done != nil && done.ErrorMessage != "" {
			msg = done.ErrorMessage
		}
		return fmt.Errorf("render failed: %s", msg)
	}

	slog.Info("Video ready", "path", done.VideoPath, "topic", best.Topic)
	return nil
}
