package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"reelcraft/internal/model"
)

var (
	generateCount  int
	generatePrompt string
	generateNow    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Queue a script generation job",
	Long: `Queue a batch of script generations. The serve loop picks the job up
on its next poll, or pass --now to process it immediately.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVarP(&generateCount, "count", "c", 10, "Number of scripts to request")
	generateCmd.Flags().StringVarP(&generatePrompt, "prompt", "p", "", "Stored prompt ID to generate from")
	generateCmd.Flags().BoolVar(&generateNow, "now", false, "Process the job immediately instead of waiting for serve")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	job := &model.ScriptGenerationJob{
		Owner:          svc.owner(),
		RequestedCount: generateCount,
		PromptRef:      generatePrompt,
	}
	if err := svc.store.CreateScriptJob(ctx, job); err != nil {
		return fmt.Errorf("queue script job: %w", err)
	}
	slog.Info("script job queued", "job", job.ID, "count", job.RequestedCount)

	if !generateNow {
		return nil
	}

	processed := svc.dispatcher.DrainScriptJobs(ctx)
	result, err := svc.store.GetScriptJob(ctx, job.ID)
	if err != nil {
		return err
	}
	if result != nil && result.Status == model.JobStatusFailed {
		return fmt.Errorf("generation failed: %s", result.ErrorMessage)
	}
	slog.Info("generation complete", "jobs", processed)

	scripts, err := svc.store.ListScripts(ctx, svc.owner())
	if err != nil {
		return err
	}
	for _, s := range scripts {
		fmt.Printf("%s  %.2f  %s: %s\n", s.ID, s.ViralScore, s.Topic, s.Hook)
	}
	return nil
}
