package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	defaultFFmpegPath  = "ffmpeg"
	defaultFFprobePath = "ffprobe"
)

// ClipRequest describes one caption slide to render. AudioPath is empty for
// silent slides.
type ClipRequest struct {
	SubtitlePath string
	AudioPath    string
	Duration     float64
	OutputPath   string
}

// Renderer runs the encoding steps. The interface exists so the assembler
// can be tested without ffmpeg on the machine.
type Renderer interface {
	RenderClip(ctx context.Context, req ClipRequest) error
	ConcatClips(ctx context.Context, clips []string, outputPath string) error
}

// Prober measures media durations.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FFmpegRenderer shells out to ffmpeg and ffprobe.
type FFmpegRenderer struct {
	ffmpegPath    string
	ffprobePath   string
	width         int
	height        int
	frameRate     int
	renderTimeout time.Duration
	concatTimeout time.Duration
}

type RendererOptions struct {
	Width         int
	Height        int
	FrameRate     int
	RenderTimeout time.Duration
	ConcatTimeout time.Duration
}

func NewFFmpegRenderer(opts RendererOptions) *FFmpegRenderer {
	if opts.Width == 0 {
		opts.Width = 1080
	}
	if opts.Height == 0 {
		opts.Height = 1920
	}
	if opts.FrameRate == 0 {
		opts.FrameRate = 30
	}
	if opts.RenderTimeout == 0 {
		opts.RenderTimeout = 30 * time.Second
	}
	if opts.ConcatTimeout == 0 {
		opts.ConcatTimeout = 60 * time.Second
	}
	return &FFmpegRenderer{
		ffmpegPath:    defaultFFmpegPath,
		ffprobePath:   defaultFFprobePath,
		width:         opts.Width,
		height:        opts.Height,
		frameRate:     opts.FrameRate,
		renderTimeout: opts.RenderTimeout,
		concatTimeout: opts.ConcatTimeout,
	}
}

// RenderClip encodes a black background slide with the caption burned in.
// When narration audio is present the clip ends with the shorter stream.
func (r *FFmpegRenderer) RenderClip(ctx context.Context, req ClipRequest) error {
	ctx, cancel := context.WithTimeout(ctx, r.renderTimeout)
	defer cancel()

	source := fmt.Sprintf("color=c=black:s=%dx%d:d=%.2f:r=%d",
		r.width, r.height, req.Duration, r.frameRate)

	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", source,
	}
	if req.AudioPath != "" {
		args = append(args, "-i", req.AudioPath)
	}
	args = append(args,
		"-vf", fmt.Sprintf("ass=%s", req.SubtitlePath),
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
	)
	if req.AudioPath != "" {
		args = append(args, "-c:a", "aac", "-shortest")
	}
	args = append(args, req.OutputPath)

	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg render failed: %w, output: %s", err, string(output))
	}
	return nil
}

// ConcatClips joins rendered clips with stream copy, no re-encode.
func (r *FFmpegRenderer) ConcatClips(ctx context.Context, clips []string, outputPath string) error {
	if len(clips) == 0 {
		return fmt.Errorf("no clips to concat")
	}

	ctx, cancel := context.WithTimeout(ctx, r.concatTimeout)
	defer cancel()

	listPath := filepath.Join(filepath.Dir(outputPath), fmt.Sprintf("concat_%d.txt", time.Now().UnixNano()))
	var listContent string
	for _, clip := range clips {
		absPath, err := filepath.Abs(clip)
		if err != nil {
			return fmt.Errorf("resolve clip path: %w", err)
		}
		listContent += fmt.Sprintf("file '%s'\n", absPath)
	}
	if err := os.WriteFile(listPath, []byte(listContent), 0644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer func() { _ = os.Remove(listPath) }()

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w, output: %s", err, string(output))
	}
	return nil
}

// Duration reads the container duration via ffprobe.
func (r *FFmpegRenderer) Duration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, r.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var dur float64
	if _, err := fmt.Sscanf(string(output), "%f", &dur); err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return dur, nil
}
