package video

import (
	"context"
	"testing"
	"time"
)

func TestNewFFmpegRendererDefaults(t *testing.T) {
	r := NewFFmpegRenderer(RendererOptions{})

	if r.width != 1080 || r.height != 1920 {
		t.Errorf("resolution = %dx%d, want 1080x1920", r.width, r.height)
	}
	if r.frameRate != 30 {
		t.Errorf("frame rate = %d, want 30", r.frameRate)
	}
	if r.renderTimeout != 30*time.Second || r.concatTimeout != 60*time.Second {
		t.Errorf("timeouts = %v/%v", r.renderTimeout, r.concatTimeout)
	}
}

func TestConcatClipsRejectsEmptyList(t *testing.T) {
	r := NewFFmpegRenderer(RendererOptions{})
	if err := r.ConcatClips(context.Background(), nil, "/tmp/out.mp4"); err == nil {
		t.Fatal("expected error for empty clip list")
	}
}
