package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"reelcraft/internal/model"
)

const (
	// Narrated slides hold a beat after the voice stops.
	narrationPadding = 1.0

	// Silent slides pace at 3.5 words per second, clamped so one-word
	// hooks stay readable and long facts do not drag.
	wordsPerSecond = 3.5
	minSlideSecs   = 2.5
	maxSlideSecs   = 6.0
)

// Assembler turns one script into a finished vertical video: one black
// caption slide per segment, optionally narrated, concatenated in fixed
// narrative order.
type Assembler struct {
	renderer Renderer
	prober   Prober
	captions *CaptionGenerator
	narrator *Narrator
	tempDir  string
}

type AssemblerOptions struct {
	Renderer Renderer
	Prober   Prober
	Captions *CaptionGenerator
	Narrator *Narrator // nil disables narration
	TempDir  string    // defaults to os.TempDir()
}

type AssembleResult struct {
	OutputPath string
	Duration   float64
	Narrated   bool
}

func NewAssembler(opts AssemblerOptions) *Assembler {
	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Assembler{
		renderer: opts.Renderer,
		prober:   opts.Prober,
		captions: opts.Captions,
		narrator: opts.Narrator,
		tempDir:  tempDir,
	}
}

// Assemble renders the script into outputPath. Segments that fail to render
// are skipped; the video fails only when nothing rendered at all. The
// intermediate workspace is private to this run and removed best-effort.
func (a *Assembler) Assemble(ctx context.Context, script *model.Script, outputPath string) (*AssembleResult, error) {
	workDir := filepath.Join(a.tempDir, "reelcraft-"+uuid.New().String())
	if err := os.MkdirAll(workDir, 0700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			slog.Warn("workspace cleanup failed", "dir", workDir, "error", err)
		}
	}()

	segments := script.Segments()

	var narration Narration
	if a.narrator != nil {
		narration = a.narrator.Synthesize(ctx, workDir, segments)
		if len(narration.Segments) == 0 {
			slog.Warn("all narration failed, rendering silent video", "script", script.ID)
		} else {
			slog.Info("narration synthesized", "script", script.ID,
				"tracks", len(narration.Segments), "audio_duration", narration.TotalDuration)
		}
	}

	var clips []string
	var totalDuration float64
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}

		track, narrated := narration.Segments[seg.Name]
		duration := slideDuration(seg.Text, track, narrated)

		clipPath, err := a.renderSegment(ctx, workDir, seg, track, narrated, duration)
		if err != nil {
			slog.Warn("segment render failed, skipping",
				"script", script.ID, "segment", seg.Name, "error", err)
			continue
		}
		clips = append(clips, clipPath)
		totalDuration += duration
	}

	if len(clips) == 0 {
		return nil, fmt.Errorf("no segments rendered for script %s", script.ID)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if err := a.renderer.ConcatClips(ctx, clips, outputPath); err != nil {
		return nil, fmt.Errorf("concat clips: %w", err)
	}

	return &AssembleResult{
		OutputPath: outputPath,
		Duration:   totalDuration,
		Narrated:   len(narration.Segments) > 0,
	}, nil
}

func (a *Assembler) renderSegment(ctx context.Context, workDir string, seg model.ScriptSegment, track SegmentAudio, narrated bool, duration float64) (string, error) {
	assContent := a.captions.Render(seg.Text, duration)
	assPath := filepath.Join(workDir, fmt.Sprintf("caption_%s.ass", seg.Name))
	if err := os.WriteFile(assPath, []byte(assContent), 0600); err != nil {
		return "", fmt.Errorf("write subtitle file: %w", err)
	}

	clipPath := filepath.Join(workDir, fmt.Sprintf("clip_%s.mp4", seg.Name))
	req := ClipRequest{
		SubtitlePath: assPath,
		Duration:     duration,
		OutputPath:   clipPath,
	}
	if narrated {
		req.AudioPath = track.Path
	}

	if err := a.renderer.RenderClip(ctx, req); err != nil {
		return "", err
	}
	return clipPath, nil
}

func slideDuration(text string, track SegmentAudio, narrated bool) float64 {
	if narrated {
		return track.Duration + narrationPadding
	}
	return estimateDuration(text)
}

func estimateDuration(text string) float64 {
	words := len(strings.Fields(text))
	estimate := float64(words) / wordsPerSecond
	if estimate < minSlideSecs {
		return minSlideSecs
	}
	if estimate > maxSlideSecs {
		return maxSlideSecs
	}
	return estimate
}
