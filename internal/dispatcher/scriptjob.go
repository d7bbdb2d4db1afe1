package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"reelcraft/internal/llm"
	"reelcraft/internal/model"
)

func (d *Dispatcher) tickScriptJobs(ctx context.Context) {
	jobs, err := d.store.ClaimScriptJobs(ctx, d.cfg.Scheduler.ScriptBatch)
	if err != nil {
		slog.Error("claim script jobs failed", "error", err)
		return
	}
	for _, job := range jobs {
		job := job
		d.scriptPool.Submit(func() {
			d.processScriptJob(ctx, job)
		})
	}
}

func (d *Dispatcher) processScriptJob(ctx context.Context, job model.ScriptGenerationJob) {
	// A panicking worker must not leave the claimed row stuck in processing.
	defer func() {
		if r := recover(); r != nil {
			d.failScriptJob(ctx, job.ID, fmt.Errorf("worker panicked: %v", r))
		}
	}()

	slog.Info("processing script job", "job", job.ID, "owner", job.Owner, "count", job.RequestedCount)

	systemPrompt, userPrompt, err := d.buildPrompts(ctx, job)
	if err != nil {
		d.failScriptJob(ctx, job.ID, err)
		return
	}

	candidates, err := d.llm.GenerateScripts(ctx, systemPrompt, userPrompt)
	if err != nil {
		d.failScriptJob(ctx, job.ID, fmt.Errorf("generate scripts: %w", err))
		return
	}

	inserted := 0
	for _, candidate := range candidates {
		script := &model.Script{
			Owner:      job.Owner,
			Topic:      candidate.Topic,
			Hook:       candidate.Hook,
			Fact1:      candidate.Fact1,
			Fact2:      candidate.Fact2,
			Fact3:      candidate.Fact3,
			Fact4:      candidate.Fact4,
			Payoff:     candidate.Payoff,
			ViralScore: candidate.ViralScore,
		}
		if err := d.store.CreateScript(ctx, script); err != nil {
			slog.Warn("store script failed", "job", job.ID, "error", err)
			continue
		}
		inserted++
	}

	if inserted == 0 {
		d.failScriptJob(ctx, job.ID, fmt.Errorf("provider returned no scripts"))
		return
	}

	if err := d.store.CompleteScriptJob(ctx, job.ID); err != nil {
		slog.Error("complete script job failed", "job", job.ID, "error", err)
		return
	}
	slog.Info("script job completed", "job", job.ID, "scripts", inserted)
}

func (d *Dispatcher) buildPrompts(ctx context.Context, job model.ScriptGenerationJob) (string, string, error) {
	systemPrompt := d.cfg.Groq.SystemPrompt
	topics := ""
	count := job.RequestedCount

	var prompt *model.Prompt
	var err error
	if job.PromptRef != "" {
		prompt, err = d.store.GetPrompt(ctx, job.PromptRef)
	} else {
		prompt, err = d.store.LatestPrompt(ctx, job.Owner)
	}
	if err != nil {
		return "", "", fmt.Errorf("load prompt: %w", err)
	}
	if prompt != nil {
		if prompt.SystemPrompt != "" {
			systemPrompt = prompt.SystemPrompt
		}
		topics = prompt.Topics
		if job.PromptRef != "" && prompt.NumScripts > 0 {
			count = prompt.NumScripts
		}
		if err := d.store.TouchPrompt(ctx, prompt.ID); err != nil {
			slog.Warn("touch prompt failed", "prompt", prompt.ID, "error", err)
		}
	}

	recent, err := d.store.ListRecentContent(ctx, job.Owner, 20)
	if err != nil {
		return "", "", fmt.Errorf("load recent content: %w", err)
	}
	exclusions := make([]string, 0, len(recent))
	for _, rc := range recent {
		exclusions = append(exclusions, fmt.Sprintf("%s: %s", rc.Topic, rc.Hook))
	}

	userPrompt := llm.RenderPrompt(llm.PromptParams{
		Count:         count,
		Topics:        topics,
		RecentContent: exclusions,
	})
	return systemPrompt, userPrompt, nil
}

func (d *Dispatcher) failScriptJob(ctx context.Context, jobID string, cause error) {
	slog.Error("script job failed", "job", jobID, "error", cause)
	if err := d.store.FailScriptJob(ctx, jobID, cause.Error()); err != nil {
		slog.Error("record script job failure failed", "job", jobID, "error", err)
	}
}
