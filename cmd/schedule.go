package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	scheduleStart    string
	scheduleInterval time.Duration
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Schedule rendered videos for publishing",
}

var scheduleBulkCmd = &cobra.Command{
	Use:   "bulk <video-id>...",
	Short: "Schedule videos at a fixed interval",
	Long: `Create one scheduled post per video, spaced --interval apart starting
at --start (RFC 3339, defaults to now).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScheduleBulk,
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled posts",
	RunE:  runScheduleList,
}

var scheduleCancelCmd = &cobra.Command{
	Use:   "cancel <post-id>...",
	Short: "Cancel pending scheduled posts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScheduleCancel,
}

func init() {
	scheduleBulkCmd.Flags().StringVarP(&scheduleStart, "start", "s", "", "First post time (RFC 3339), defaults to now")
	scheduleBulkCmd.Flags().DurationVarP(&scheduleInterval, "interval", "i", 3*time.Hour, "Spacing between posts")
	scheduleCmd.AddCommand(scheduleBulkCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleCancelCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runScheduleBulk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	start := time.Now().UTC()
	if scheduleStart != "" {
		parsed, err := time.Parse(time.RFC3339, scheduleStart)
		if err != nil {
			return fmt.Errorf("parse --start: %w", err)
		}
		start = parsed.UTC()
	}

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	for _, id := range args {
		video, err := svc.store.GetVideo(ctx, id)
		if err != nil {
			return err
		}
		if video == nil {
			return fmt.Errorf("video %s not found", id)
		}
	}

	posts, err := svc.store.ScheduleBulk(ctx, svc.owner(), args, start, scheduleInterval)
	if err != nil {
		return fmt.Errorf("schedule posts: %w", err)
	}
	for _, p := range posts {
		fmt.Printf("%s  %s  video=%s\n", p.ID, p.ScheduledTime.Format(time.RFC3339), p.VideoID)
	}
	return nil
}

func runScheduleList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	posts, err := svc.store.ListScheduledPosts(ctx, svc.owner())
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Println("No scheduled posts")
		return nil
	}
	for _, p := range posts {
		fmt.Printf("%s  %s  %s  video=%s\n",
			p.ID, p.ScheduledTime.Format(time.RFC3339), p.Status, p.VideoID)
	}
	return nil
}

func runScheduleCancel(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	for _, id := range args {
		cancelled, err := svc.store.CancelScheduledPost(ctx, id)
		if err != nil {
			return err
		}
		if !cancelled {
			return fmt.Errorf("post %s is not pending (already posted, failed, or missing)", id)
		}
		fmt.Printf("Cancelled %s\n", id)
	}
	return nil
}
