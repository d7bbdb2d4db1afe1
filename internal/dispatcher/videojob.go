package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"reelcraft/internal/model"
	"reelcraft/internal/publisher"
)

func (d *Dispatcher) tickVideoJobs(ctx context.Context) {
	jobs, err := d.store.ClaimVideoJobs(ctx, d.cfg.Scheduler.VideoBatch)
	if err != nil {
		slog.Error("claim video jobs failed", "error", err)
		return
	}
	for _, job := range jobs {
		job := job
		d.videoPool.Submit(func() {
			d.processVideoJob(ctx, job)
		})
	}
}

func (d *Dispatcher) processVideoJob(ctx context.Context, job model.VideoGenerationJob) {
	// A panicking worker must not leave the claimed row stuck in processing.
	defer func() {
		if r := recover(); r != nil {
			d.failVideoJob(ctx, job.ID, fmt.Errorf("worker panicked: %v", r))
		}
	}()

	slog.Info("processing video job", "job", job.ID, "script", job.ScriptID)

	script, err := d.store.GetScript(ctx, job.ScriptID)
	if err != nil {
		d.failVideoJob(ctx, job.ID, fmt.Errorf("load script: %w", err))
		return
	}
	if script == nil {
		d.failVideoJob(ctx, job.ID, fmt.Errorf("script %s not found", job.ScriptID))
		return
	}

	outputPath, err := d.local.VideoPath(job.Owner, script.ID)
	if err != nil {
		d.failVideoJob(ctx, job.ID, err)
		return
	}

	result, err := d.assembler.Assemble(ctx, script, outputPath)
	if err != nil {
		d.failVideoJob(ctx, job.ID, fmt.Errorf("assemble video: %w", err))
		return
	}

	record := &model.Video{
		Owner:    job.Owner,
		ScriptID: script.ID,
		FilePath: result.OutputPath,
		Status:   model.VideoStatusCompleted,
	}
	if err := d.store.CreateVideo(ctx, record); err != nil {
		d.failVideoJob(ctx, job.ID, fmt.Errorf("store video: %w", err))
		return
	}

	// The script leaves the render queue once its video exists.
	if err := d.store.SetScriptSelected(ctx, script.ID, false); err != nil {
		slog.Warn("unselect script failed", "script", script.ID, "error", err)
	}

	mediaID := ""
	if d.cfg.Publisher.PostImmediately && d.publisher != nil && d.publisher.Configured() {
		mediaID = d.publishNow(ctx, script, record)
	}

	if d.archive != nil {
		if object, err := d.archive.Archive(ctx, result.OutputPath, job.Owner); err != nil {
			slog.Warn("archive video failed", "video", record.ID, "error", err)
		} else {
			slog.Info("video archived", "video", record.ID, "object", object)
		}
	}

	if err := d.store.CompleteVideoJob(ctx, job.ID, result.OutputPath, mediaID); err != nil {
		slog.Error("complete video job failed", "job", job.ID, "error", err)
		return
	}
	slog.Info("video job completed", "job", job.ID,
		"path", result.OutputPath, "duration", result.Duration, "narrated", result.Narrated)
}

// publishNow uploads right after rendering. Publish failures do not fail the
// render job; the video stays completed and can be scheduled later.
func (d *Dispatcher) publishNow(ctx context.Context, script *model.Script, record *model.Video) string {
	caption := publisher.BuildCaption(script.Hook, script.Payoff)
	mediaID, err := d.publisher.Upload(ctx, record.FilePath, caption)
	if err != nil {
		slog.Warn("immediate publish failed", "video", record.ID, "error", err)
		return ""
	}

	storyID := ""
	if d.cfg.Publisher.ShareToStory {
		storyID = d.publisher.ShareToStory(ctx, mediaID)
	}
	if err := d.store.MarkVideoPosted(ctx, record.ID, mediaID); err != nil {
		slog.Warn("mark video posted failed", "video", record.ID, "error", err)
	}
	slog.Info("video published", "video", record.ID, "media_id", mediaID, "story_id", storyID)
	return mediaID
}

func (d *Dispatcher) failVideoJob(ctx context.Context, jobID string, cause error) {
	slog.Error("video job failed", "job", jobID, "error", cause)
	if err := d.store.FailVideoJob(ctx, jobID, cause.Error()); err != nil {
		slog.Error("record video job failure failed", "job", jobID, "error", err)
	}
}
