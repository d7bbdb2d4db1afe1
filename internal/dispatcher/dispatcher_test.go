package dispatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"reelcraft/internal/llm"
	"reelcraft/internal/model"
	"reelcraft/internal/storage"
	"reelcraft/internal/store"
	"reelcraft/internal/video"
	"reelcraft/pkg/config"
)

type fakeLLM struct {
	candidates []llm.ScriptCandidate
	err        error
	panicMsg   string
}

func (f *fakeLLM) GenerateScripts(ctx context.Context, systemPrompt, userPrompt string) ([]llm.ScriptCandidate, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.candidates, f.err
}

type fakeAssembler struct {
	err      error
	panicMsg string
}

func (f *fakeAssembler) Assemble(ctx context.Context, script *model.Script, outputPath string) (*video.AssembleResult, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return nil, f.err
	}
	if err := os.WriteFile(outputPath, []byte("video"), 0644); err != nil {
		return nil, err
	}
	return &video.AssembleResult{OutputPath: outputPath, Duration: 20.5}, nil
}

type fakePublisher struct {
	configured  bool
	uploadErr   error
	storyID     string
	uploadDelay time.Duration

	mu       sync.Mutex
	uploads  []string
	captions []string
}

func (f *fakePublisher) Configured() bool { return f.configured }

func (f *fakePublisher) Upload(ctx context.Context, videoPath, description string) (string, error) {
	if f.uploadDelay > 0 {
		time.Sleep(f.uploadDelay)
	}
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, videoPath)
	f.captions = append(f.captions, description)
	return "media-1", nil
}

func (f *fakePublisher) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func (f *fakePublisher) ShareToStory(ctx context.Context, mediaID string) string {
	return f.storyID
}

type testEnv struct {
	dispatcher *Dispatcher
	store      *store.Store
	publisher  *fakePublisher
	llm        *fakeLLM
	assembler  *fakeAssembler
	outputDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	outputDir := t.TempDir()
	pub := &fakePublisher{configured: true}
	llmClient := &fakeLLM{}
	asm := &fakeAssembler{}

	cfg := &config.Config{}
	cfg.Scheduler.ScriptBatch = 3
	cfg.Scheduler.VideoBatch = 2
	cfg.Publisher.ShareToStory = true
	cfg.Groq.SystemPrompt = "write viral scripts"

	d := New(Options{
		Store:     s,
		LLM:       llmClient,
		Assembler: asm,
		Publisher: pub,
		Local:     storage.NewLocalStore(outputDir),
		Config:    cfg,
	})

	return &testEnv{
		dispatcher: d,
		store:      s,
		publisher:  pub,
		llm:        llmClient,
		assembler:  asm,
		outputDir:  outputDir,
	}
}

func (e *testEnv) insertScriptAndVideo(t *testing.T, withFile bool) (*model.Script, *model.Video) {
	t.Helper()
	ctx := context.Background()

	script := &model.Script{
		Owner: "page1", Topic: "ocean", Hook: "the ocean is wild",
		Fact1: "f1", Fact2: "f2", Fact3: "f3", Fact4: "f4",
		Payoff: "follow for more",
	}
	if err := e.store.CreateScript(ctx, script); err != nil {
		t.Fatalf("create script: %v", err)
	}

	filePath := filepath.Join(e.outputDir, "rendered.mp4")
	if withFile {
		if err := os.WriteFile(filePath, []byte("video"), 0644); err != nil {
			t.Fatalf("write video file: %v", err)
		}
	}
	vid := &model.Video{
		Owner: "page1", ScriptID: script.ID,
		FilePath: filePath, Status: model.VideoStatusCompleted,
	}
	if err := e.store.CreateVideo(ctx, vid); err != nil {
		t.Fatalf("create video: %v", err)
	}
	return script, vid
}

func TestProcessQueueTickEmptyQueueNoOp(t *testing.T) {
	env := newTestEnv(t)

	env.dispatcher.processQueueTick(context.Background())

	if len(env.publisher.uploads) != 0 {
		t.Errorf("empty queue should not upload, got %d uploads", len(env.publisher.uploads))
	}
}

func TestProcessQueueTickPublishesOldest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, vid := env.insertScriptAndVideo(t, true)

	entry, err := env.store.Enqueue(ctx, "page1", vid.ID)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	env.publisher.storyID = "story-9"

	env.dispatcher.processQueueTick(ctx)

	if len(env.publisher.uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(env.publisher.uploads))
	}
	entries, err := env.store.ListQueue(ctx, "page1")
	if err != nil {
		t.Fatalf("list queue: %v", err)
	}
	if entries[0].ID != entry.ID || entries[0].Status != model.PostStatusPosted {
		t.Errorf("entry status = %q, want posted", entries[0].Status)
	}
	if entries[0].PlatformMediaID != "media-1" || entries[0].StoryID != "story-9" {
		t.Errorf("ids = %q/%q", entries[0].PlatformMediaID, entries[0].StoryID)
	}

	got, _ := env.store.GetVideo(ctx, vid.ID)
	if got.Status != model.VideoStatusPosted || got.PlatformMediaID != "media-1" {
		t.Errorf("video row not mirrored: %+v", got)
	}
}

func TestProcessQueueTickStoryFailureStillPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, vid := env.insertScriptAndVideo(t, true)
	if _, err := env.store.Enqueue(ctx, "page1", vid.ID); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	env.publisher.storyID = "" // story share silently failed

	env.dispatcher.processQueueTick(ctx)

	entries, _ := env.store.ListQueue(ctx, "page1")
	if entries[0].Status != model.PostStatusPosted {
		t.Errorf("a failed story must not fail the post, status = %q", entries[0].Status)
	}
	if entries[0].StoryID != "" {
		t.Errorf("story id should stay empty, got %q", entries[0].StoryID)
	}
}

func TestSweepDuePostsMissingFileFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, vid := env.insertScriptAndVideo(t, false)

	post := &model.ScheduledPost{
		Owner: "page1", VideoID: vid.ID,
		ScheduledTime: time.Now().UTC().Add(-time.Minute),
	}
	if err := env.store.CreateScheduledPost(ctx, post); err != nil {
		t.Fatalf("create post: %v", err)
	}

	env.dispatcher.sweepDuePosts(ctx, time.Now().UTC())

	posts, _ := env.store.ListScheduledPosts(ctx, "page1")
	if posts[0].Status != model.PostStatusFailed {
		t.Errorf("post status = %q, want failed", posts[0].Status)
	}
	if posts[0].RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", posts[0].RetryCount)
	}
	if len(env.publisher.uploads) != 0 {
		t.Error("missing file should never reach the publisher")
	}
}

func TestSweepDuePostsPublishesAndSkipsFuture(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, vid := env.insertScriptAndVideo(t, true)

	now := time.Now().UTC()
	duePost := &model.ScheduledPost{Owner: "page1", VideoID: vid.ID, ScheduledTime: now.Add(-time.Hour)}
	futurePost := &model.ScheduledPost{Owner: "page1", VideoID: vid.ID, ScheduledTime: now.Add(time.Hour)}
	for _, p := range []*model.ScheduledPost{duePost, futurePost} {
		if err := env.store.CreateScheduledPost(ctx, p); err != nil {
			t.Fatalf("create post: %v", err)
		}
	}

	env.dispatcher.sweepDuePosts(ctx, now)

	if len(env.publisher.uploads) != 1 {
		t.Fatalf("expected only the due post uploaded, got %d", len(env.publisher.uploads))
	}
	posts, _ := env.store.ListScheduledPosts(ctx, "page1")
	for _, p := range posts {
		if p.ID == duePost.ID && p.Status != model.PostStatusPosted {
			t.Errorf("due post status = %q", p.Status)
		}
		if p.ID == futurePost.ID && p.Status != model.PostStatusPending {
			t.Errorf("future post status = %q", p.Status)
		}
	}
}

func TestSweepDuePostsOverlappingSweepsPublishOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, vid := env.insertScriptAndVideo(t, true)

	now := time.Now().UTC()
	post := &model.ScheduledPost{Owner: "page1", VideoID: vid.ID, ScheduledTime: now.Add(-time.Minute)}
	if err := env.store.CreateScheduledPost(ctx, post); err != nil {
		t.Fatalf("create post: %v", err)
	}

	// Make the upload outlast the second sweep so both sweeps run while the
	// post is still unfinished. The claim must hand it to exactly one of them.
	env.publisher.uploadDelay = 100 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.dispatcher.sweepDuePosts(ctx, now)
		}()
	}
	wg.Wait()

	if got := env.publisher.uploadCount(); got != 1 {
		t.Fatalf("post dispatched %d times, want exactly 1", got)
	}
	posts, _ := env.store.ListScheduledPosts(ctx, "page1")
	if posts[0].Status != model.PostStatusPosted {
		t.Errorf("post status = %q, want posted", posts[0].Status)
	}
}

func TestProcessScriptJobStoresCandidates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.llm.candidates = []llm.ScriptCandidate{
		{Topic: "t1", Hook: "h1", Fact1: "a", Fact2: "b", Fact3: "c", Fact4: "d", Payoff: "p1", ViralScore: 0.7},
		{Topic: "t2", Hook: "h2", Fact1: "a", Fact2: "b", Fact3: "c", Fact4: "d", Payoff: "p2", ViralScore: 0.6},
	}

	job := &model.ScriptGenerationJob{Owner: "page1", RequestedCount: 2}
	if err := env.store.CreateScriptJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	claimed, _ := env.store.ClaimScriptJobs(ctx, 1)
	env.dispatcher.processScriptJob(ctx, claimed[0])

	got, _ := env.store.GetScriptJob(ctx, job.ID)
	if got.Status != model.JobStatusCompleted {
		t.Errorf("job status = %q, want completed (error: %s)", got.Status, got.ErrorMessage)
	}
}

func TestProcessScriptJobProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.llm.err = fmt.Errorf("rate limited")

	job := &model.ScriptGenerationJob{Owner: "page1"}
	if err := env.store.CreateScriptJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	claimed, _ := env.store.ClaimScriptJobs(ctx, 1)
	env.dispatcher.processScriptJob(ctx, claimed[0])

	got, _ := env.store.GetScriptJob(ctx, job.ID)
	if got.Status != model.JobStatusFailed {
		t.Errorf("job status = %q, want failed", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Error("failure should record an error message")
	}
}

func TestProcessScriptJobRecoversPanic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.llm.panicMsg = "nil provider response"

	job := &model.ScriptGenerationJob{Owner: "page1"}
	if err := env.store.CreateScriptJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	claimed, _ := env.store.ClaimScriptJobs(ctx, 1)
	env.dispatcher.processScriptJob(ctx, claimed[0])

	got, _ := env.store.GetScriptJob(ctx, job.ID)
	if got.Status != model.JobStatusFailed {
		t.Errorf("panicked job status = %q, want failed", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Error("panicked job should record an error message")
	}
}

func TestProcessVideoJobRendersAndUnselects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	script := &model.Script{
		Owner: "page1", Topic: "ocean", Hook: "hook",
		Fact1: "f1", Fact2: "f2", Fact3: "f3", Fact4: "f4",
		Payoff: "payoff", Selected: true,
	}
	if err := env.store.CreateScript(ctx, script); err != nil {
		t.Fatalf("create script: %v", err)
	}
	if err := env.store.SetScriptSelected(ctx, script.ID, true); err != nil {
		t.Fatalf("select: %v", err)
	}

	job := &model.VideoGenerationJob{Owner: "page1", ScriptID: script.ID}
	if err := env.store.CreateVideoJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	claimed, _ := env.store.ClaimVideoJobs(ctx, 1)
	env.dispatcher.processVideoJob(ctx, claimed[0])

	got, _ := env.store.GetVideoJob(ctx, job.ID)
	if got.Status != model.JobStatusCompleted {
		t.Fatalf("job status = %q (error: %s)", got.Status, got.ErrorMessage)
	}
	if got.VideoPath == "" {
		t.Error("completed job should record the video path")
	}

	videos, _ := env.store.ListVideos(ctx, "page1")
	if len(videos) != 1 || videos[0].Status != model.VideoStatusCompleted {
		t.Errorf("video row wrong: %+v", videos)
	}

	scriptAfter, _ := env.store.GetScript(ctx, script.ID)
	if scriptAfter.Selected {
		t.Error("script should be unselected once its video exists")
	}
}

func TestProcessVideoJobAssemblyFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.assembler.err = fmt.Errorf("ffmpeg exploded")

	script := &model.Script{
		Owner: "page1", Topic: "t", Hook: "h",
		Fact1: "1", Fact2: "2", Fact3: "3", Fact4: "4", Payoff: "p",
	}
	if err := env.store.CreateScript(ctx, script); err != nil {
		t.Fatalf("create script: %v", err)
	}
	job := &model.VideoGenerationJob{Owner: "page1", ScriptID: script.ID}
	if err := env.store.CreateVideoJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	claimed, _ := env.store.ClaimVideoJobs(ctx, 1)
	env.dispatcher.processVideoJob(ctx, claimed[0])

	got, _ := env.store.GetVideoJob(ctx, job.ID)
	if got.Status != model.JobStatusFailed {
		t.Errorf("job status = %q, want failed", got.Status)
	}
}

func TestProcessVideoJobRecoversPanic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.assembler.panicMsg = "renderer index out of range"

	script := &model.Script{
		Owner: "page1", Topic: "t", Hook: "h",
		Fact1: "1", Fact2: "2", Fact3: "3", Fact4: "4", Payoff: "p",
	}
	if err := env.store.CreateScript(ctx, script); err != nil {
		t.Fatalf("create script: %v", err)
	}
	job := &model.VideoGenerationJob{Owner: "page1", ScriptID: script.ID}
	if err := env.store.CreateVideoJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	claimed, _ := env.store.ClaimVideoJobs(ctx, 1)
	env.dispatcher.processVideoJob(ctx, claimed[0])

	got, _ := env.store.GetVideoJob(ctx, job.ID)
	if got.Status != model.JobStatusFailed {
		t.Errorf("panicked job status = %q, want failed", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Error("panicked job should record an error message")
	}
}
