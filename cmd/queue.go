package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage the rotating post queue",
	Long: `The queue posts one video per interval (3h by default) in FIFO
order, keeping the page on a steady cadence without fixed timestamps.`,
}

var queueAddCmd = &cobra.Command{
	Use:   "add <video-id>...",
	Short: "Add videos to the queue",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQueueAdd,
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queue entries in post order",
	RunE:  runQueueList,
}

func init() {
	queueCmd.AddCommand(queueAddCmd)
	queueCmd.AddCommand(queueListCmd)
	rootCmd.AddCommand(queueCmd)
}

func runQueueAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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
		entry, err := svc.store.Enqueue(ctx, svc.owner(), id)
		if err != nil {
			return fmt.Errorf("enqueue video: %w", err)
		}
		fmt.Printf("Queued %s as %s\n", id, entry.ID)
	}
	return nil
}

func runQueueList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	entries, err := svc.store.ListQueue(ctx, svc.owner())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Queue is empty")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %s  queued=%s  video=%s\n",
			e.ID, e.Status, e.QueuedAt.Format(time.RFC3339), e.VideoID)
	}
	return nil
}
