package cmd

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the generation and publishing loop",
	Long: `Run the polling dispatcher: claim script and video jobs, publish
scheduled posts, and drain the rotating queue until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	if closeLog := setupFileLogger(svc.cfg.LogPath); closeLog != nil {
		defer closeLog()
	}

	if err := svc.dispatcher.Start(ctx); err != nil {
		return err
	}
	slog.Info("reelcraft running", "owner", svc.owner(), "database", svc.cfg.DatabasePath)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		slog.Info("Shutting down...")
	case <-ctx.Done():
	}

	svc.dispatcher.Stop()
	return nil
}

// setupFileLogger mirrors log output into the configured log file. Console
// logging keeps working if the file cannot be opened.
func setupFileLogger(path string) func() {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Warn("log file unavailable, logging to stdout only", "path", path, "error", err)
		return nil
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(
		io.MultiWriter(os.Stdout, f),
		&slog.HandlerOptions{Level: level},
	)))
	return func() { _ = f.Close() }
}
