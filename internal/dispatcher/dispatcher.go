package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/robfig/cron/v3"

	"reelcraft/internal/llm"
	"reelcraft/internal/model"
	"reelcraft/internal/storage"
	"reelcraft/internal/store"
	"reelcraft/internal/video"
	"reelcraft/pkg/config"
)

// Publisher is the slice of the Facebook client the dispatcher needs.
type Publisher interface {
	Configured() bool
	Upload(ctx context.Context, videoPath, description string) (string, error)
	ShareToStory(ctx context.Context, mediaID string) string
}

// Assembler renders one script to a file on disk.
type Assembler interface {
	Assemble(ctx context.Context, script *model.Script, outputPath string) (*video.AssembleResult, error)
}

// Archiver mirrors finished renders to remote storage.
type Archiver interface {
	Archive(ctx context.Context, localPath, owner string) (string, error)
}

// Dispatcher polls the job tables on fixed cadences and fans work out to
// bounded pools. All coordination happens through row status transitions,
// so several processes can share one database safely.
type Dispatcher struct {
	store     *store.Store
	llm       llm.Client
	assembler Assembler
	publisher Publisher
	local     *storage.LocalStore
	archive   Archiver
	cfg       *config.Config

	cron       *cron.Cron
	scriptPool pond.Pool
	videoPool  pond.Pool
}

type Options struct {
	Store     *store.Store
	LLM       llm.Client
	Assembler Assembler
	Publisher Publisher
	Local     *storage.LocalStore
	Archive   Archiver // nil disables archiving
	Config    *config.Config
}

func New(opts Options) *Dispatcher {
	return &Dispatcher{
		store:      opts.Store,
		llm:        opts.LLM,
		assembler:  opts.Assembler,
		publisher:  opts.Publisher,
		local:      opts.Local,
		archive:    opts.Archive,
		cfg:        opts.Config,
		cron:       cron.New(),
		scriptPool: pond.NewPool(opts.Config.Scheduler.ScriptBatch),
		videoPool:  pond.NewPool(opts.Config.Scheduler.VideoBatch),
	}
}

// Start registers the polling jobs and begins scheduling. Each tick claims
// work and returns; the pools carry the actual processing.
func (d *Dispatcher) Start(ctx context.Context) error {
	entries := []struct {
		name     string
		interval time.Duration
		fn       func(context.Context)
	}{
		{"script jobs", d.cfg.Scheduler.ScriptPoll.Std(), d.tickScriptJobs},
		{"video jobs", d.cfg.Scheduler.VideoPoll.Std(), d.tickVideoJobs},
		{"scheduled posts", d.cfg.Scheduler.PostingPoll.Std(), d.tickScheduledPosts},
		{"post queue", d.cfg.Scheduler.QueueInterval.Std(), d.tickQueue},
	}

	for _, entry := range entries {
		fn := entry.fn
		spec := fmt.Sprintf("@every %s", entry.interval)
		if _, err := d.cron.AddFunc(spec, func() { fn(ctx) }); err != nil {
			return fmt.Errorf("schedule %s: %w", entry.name, err)
		}
		slog.Info("scheduled dispatcher tick", "job", entry.name, "interval", entry.interval)
	}

	d.cron.Start()
	return nil
}

// DrainScriptJobs claims and processes pending script jobs inline until none
// remain. Used by one-shot commands that cannot wait for the next poll.
func (d *Dispatcher) DrainScriptJobs(ctx context.Context) int {
	processed := 0
	for {
		jobs, err := d.store.ClaimScriptJobs(ctx, d.cfg.Scheduler.ScriptBatch)
		if err != nil {
			slog.Error("claim script jobs failed", "error", err)
			return processed
		}
		if len(jobs) == 0 {
			return processed
		}
		for _, job := range jobs {
			d.processScriptJob(ctx, job)
			processed++
		}
	}
}

// DrainVideoJobs mirrors DrainScriptJobs for the render queue.
func (d *Dispatcher) DrainVideoJobs(ctx context.Context) int {
	processed := 0
	for {
		jobs, err := d.store.ClaimVideoJobs(ctx, d.cfg.Scheduler.VideoBatch)
		if err != nil {
			slog.Error("claim video jobs failed", "error", err)
			return processed
		}
		if len(jobs) == 0 {
			return processed
		}
		for _, job := range jobs {
			d.processVideoJob(ctx, job)
			processed++
		}
	}
}

// Stop halts scheduling and drains in-flight work.
func (d *Dispatcher) Stop() {
	stopCtx := d.cron.Stop()
	<-stopCtx.Done()
	d.scriptPool.StopAndWait()
	d.videoPool.StopAndWait()
	slog.Info("dispatcher stopped")
}
