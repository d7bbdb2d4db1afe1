package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"reelcraft/internal/dispatcher"
	"reelcraft/internal/llm/groq"
	"reelcraft/internal/publisher"
	"reelcraft/internal/speech"
	"reelcraft/internal/speech/elevenlabs"
	"reelcraft/internal/storage"
	"reelcraft/internal/store"
	"reelcraft/internal/video"
	"reelcraft/pkg/config"
)

// services holds everything a command needs, wired from one config load.
type services struct {
	cfg        *config.Config
	store      *store.Store
	dispatcher *dispatcher.Dispatcher
	archive    *storage.GCSArchive
}

func buildServices(ctx context.Context) (*services, error) {
	cfg := config.Load()

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.GroqAPIKey == "" {
		st.Close()
		return nil, fmt.Errorf("GROQ_API_KEY is not set, run: reelcraft setup")
	}
	llmClient, err := groq.NewClient(cfg.GroqAPIKey, cfg.Groq.Model)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	renderer := video.NewFFmpegRenderer(video.RendererOptions{
		Width:         cfg.Video.Width(),
		Height:        cfg.Video.Height(),
		FrameRate:     cfg.Video.FrameRate,
		RenderTimeout: cfg.Video.RenderTimeout.Std(),
		ConcatTimeout: cfg.Video.ConcatTimeout.Std(),
	})
	captions := video.NewCaptionGenerator(video.CaptionOptions{
		FontName:     cfg.Subtitles.FontName,
		FontSize:     cfg.Subtitles.FontSize,
		PrimaryColor: cfg.Subtitles.PrimaryColor,
		OutlineColor: cfg.Subtitles.OutlineColor,
		OutlineSize:  cfg.Subtitles.OutlineSize,
		ShadowSize:   cfg.Subtitles.ShadowSize,
		WrapWidth:    cfg.Subtitles.WrapWidth,
		Width:        cfg.Video.Width(),
		Height:       cfg.Video.Height(),
	})

	assembler := video.NewAssembler(video.AssemblerOptions{
		Renderer: renderer,
		Prober:   renderer,
		Captions: captions,
		Narrator: buildNarrator(cfg, renderer),
	})

	fb := publisher.NewFacebookClient(publisher.FacebookOptions{
		PageID:        cfg.FacebookPageID,
		AccessToken:   cfg.FacebookPageToken,
		UploadTimeout: cfg.Publisher.UploadTimeout.Std(),
		StoryTimeout:  cfg.Publisher.StoryTimeout.Std(),
	})

	var archive *storage.GCSArchive
	if cfg.GCS.Enabled && cfg.GCSBucket != "" {
		archive, err = storage.NewGCSArchive(ctx, cfg.GCSBucket, cfg.GCS.ArchiveDir)
		if err != nil {
			slog.Warn("GCS archive disabled", "error", err)
			archive = nil
		}
	}

	opts := dispatcher.Options{
		Store:     st,
		LLM:       llmClient,
		Assembler: assembler,
		Publisher: fb,
		Local:     storage.NewLocalStore(cfg.Video.OutputDir),
		Config:    cfg,
	}
	if archive != nil {
		opts.Archive = archive
	}

	return &services{
		cfg:        cfg,
		store:      st,
		dispatcher: dispatcher.New(opts),
		archive:    archive,
	}, nil
}

// buildNarrator returns nil when narration is disabled or unconfigured, which
// makes the assembler fall back to silent estimated-duration slides.
func buildNarrator(cfg *config.Config, renderer *video.FFmpegRenderer) *video.Narrator {
	if !cfg.Speech.Enabled {
		return nil
	}
	if cfg.ElevenLabsAPIKey == "" {
		slog.Warn("speech enabled but ELEVENLABS_API_KEY is not set, rendering silent videos")
		return nil
	}

	var provider speech.Provider = elevenlabs.NewClient(cfg.ElevenLabsAPIKey, elevenlabs.Options{
		VoiceID:    cfg.Speech.VoiceID,
		Model:      cfg.Speech.Model,
		Stability:  cfg.Speech.Stability,
		Similarity: cfg.Speech.Similarity,
		Style:      cfg.Speech.Style,
	})
	return video.NewNarrator(provider, renderer, renderer)
}

func (s *services) Close() {
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			slog.Warn("close archive client failed", "error", err)
		}
	}
	if err := s.store.Close(); err != nil {
		slog.Warn("close database failed", "error", err)
	}
}

// owner scopes every row to one Facebook page so several pages can share a
// database. Without a configured page everything lands under "default".
func (s *services) owner() string {
	if s.cfg.FacebookPageID != "" {
		return s.cfg.FacebookPageID
	}
	return "default"
}
