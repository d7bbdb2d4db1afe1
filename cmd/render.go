package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"reelcraft/internal/model"
)

var renderNow bool

var renderCmd = &cobra.Command{
	Use:   "render [script-id]...",
	Short: "Queue video renders",
	Long: `Queue video generation jobs for the given scripts, or for every
selected script when no IDs are passed. Pass --now to render immediately.`,
	RunE: runRender,
}

var renderRetryCmd = &cobra.Command{
	Use:   "retry <job-id>...",
	Short: "Put failed render jobs back in the queue",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRenderRetry,
}

func init() {
	renderCmd.Flags().BoolVar(&renderNow, "now", false, "Render immediately instead of waiting for serve")
	renderCmd.AddCommand(renderRetryCmd)
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	scriptIDs := args
	if len(scriptIDs) == 0 {
		selected, err := svc.store.ListSelectedScripts(ctx, svc.owner())
		if err != nil {
			return err
		}
		if len(selected) == 0 {
			return fmt.Errorf("no scripts selected, run: reelcraft scripts select <id>")
		}
		for _, s := range selected {
			scriptIDs = append(scriptIDs, s.ID)
		}
	}

	for _, id := range scriptIDs {
		script, err := svc.store.GetScript(ctx, id)
		if err != nil {
			return err
		}
		if script == nil {
			return fmt.Errorf("script %s not found", id)
		}
		job := &model.VideoGenerationJob{Owner: svc.owner(), ScriptID: id}
		if err := svc.store.CreateVideoJob(ctx, job); err != nil {
			return fmt.Errorf("queue video job: %w", err)
		}
		slog.Info("video job queued", "job", job.ID, "script", id)
	}

	if !renderNow {
		return nil
	}

	processed := svc.dispatcher.DrainVideoJobs(ctx)
	slog.Info("rendering complete", "jobs", processed)

	videos, err := svc.store.ListVideos(ctx, svc.owner())
	if err != nil {
		return err
	}
	for _, v := range videos {
		fmt.Printf("%s  %s  %s\n", v.ID, v.Status, v.FilePath)
	}
	return nil
}

func runRenderRetry(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	for _, id := range args {
		retried, err := svc.store.RetryVideoJob(ctx, id)
		if err != nil {
			return err
		}
		if !retried {
			return fmt.Errorf("job %s is not in a failed state", id)
		}
		fmt.Printf("Requeued %s\n", id)
	}
	return nil
}
