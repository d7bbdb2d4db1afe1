package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reelcraft/internal/publisher"
)

func (d *Dispatcher) tickScheduledPosts(ctx context.Context) {
	d.sweepDuePosts(ctx, time.Now().UTC())
}

// sweepDuePosts publishes every pending post whose time has come, oldest
// first so a backlog after downtime drains in schedule order. Posts are
// claimed into posting up front, so a sweep that overlaps a slow upload
// never dispatches the same post twice.
func (d *Dispatcher) sweepDuePosts(ctx context.Context, now time.Time) {
	due, err := d.store.ClaimDuePosts(ctx, now)
	if err != nil {
		slog.Error("claim due posts failed", "error", err)
		return
	}

	for _, post := range due {
		mediaID, storyID, err := d.publishVideo(ctx, post.VideoID)
		if err != nil {
			slog.Error("scheduled post failed", "post", post.ID, "video", post.VideoID, "error", err)
			if markErr := d.store.MarkPostFailed(ctx, post.ID, err.Error()); markErr != nil {
				slog.Error("record post failure failed", "post", post.ID, "error", markErr)
			}
			continue
		}
		if err := d.store.MarkPostPosted(ctx, post.ID, mediaID, storyID); err != nil {
			slog.Error("mark post posted failed", "post", post.ID, "error", err)
			continue
		}
		slog.Info("scheduled post published", "post", post.ID, "media_id", mediaID, "story_id", storyID)
	}
}

func (d *Dispatcher) tickQueue(ctx context.Context) {
	d.processQueueTick(ctx)
}

// processQueueTick claims and posts the single oldest queue entry, keeping
// the page on a steady cadence. An empty queue is a quiet no-op.
func (d *Dispatcher) processQueueTick(ctx context.Context) {
	entry, err := d.store.ClaimOldestQueued(ctx)
	if err != nil {
		slog.Error("claim queue entry failed", "error", err)
		return
	}
	if entry == nil {
		return
	}

	mediaID, storyID, err := d.publishVideo(ctx, entry.VideoID)
	if err != nil {
		slog.Error("queue post failed", "entry", entry.ID, "video", entry.VideoID, "error", err)
		if markErr := d.store.MarkQueueEntryFailed(ctx, entry.ID, err.Error()); markErr != nil {
			slog.Error("record queue failure failed", "entry", entry.ID, "error", markErr)
		}
		return
	}
	if err := d.store.MarkQueueEntryPosted(ctx, entry.ID, mediaID, storyID); err != nil {
		slog.Error("mark queue entry posted failed", "entry", entry.ID, "error", err)
		return
	}
	slog.Info("queue entry published", "entry", entry.ID, "media_id", mediaID, "story_id", storyID)
}

// publishVideo uploads one stored video and mirrors the outcome onto the
// video row. The story share is best-effort and never escalates.
func (d *Dispatcher) publishVideo(ctx context.Context, videoID string) (string, string, error) {
	if d.publisher == nil || !d.publisher.Configured() {
		return "", "", fmt.Errorf("publisher credentials not configured")
	}

	video, err := d.store.GetVideo(ctx, videoID)
	if err != nil {
		return "", "", fmt.Errorf("load video: %w", err)
	}
	if video == nil {
		return "", "", fmt.Errorf("video %s not found", videoID)
	}
	if !d.local.Exists(video.FilePath) {
		return "", "", fmt.Errorf("video file missing: %s", video.FilePath)
	}

	script, err := d.store.GetScript(ctx, video.ScriptID)
	if err != nil {
		return "", "", fmt.Errorf("load script: %w", err)
	}
	if script == nil {
		return "", "", fmt.Errorf("script %s not found", video.ScriptID)
	}

	caption := publisher.BuildCaption(script.Hook, script.Payoff)
	mediaID, err := d.publisher.Upload(ctx, video.FilePath, caption)
	if err != nil {
		return "", "", fmt.Errorf("upload video: %w", err)
	}

	storyID := ""
	if d.cfg.Publisher.ShareToStory {
		storyID = d.publisher.ShareToStory(ctx, mediaID)
	}

	if err := d.store.MarkVideoPosted(ctx, video.ID, mediaID); err != nil {
		slog.Warn("mark video posted failed", "video", video.ID, "error", err)
	}
	return mediaID, storyID, nil
}
