package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reelcraft/internal/model"
	"reelcraft/internal/speech"
)

// SegmentAudio is one synthesized narration track on disk.
type SegmentAudio struct {
	Path     string
	Duration float64
}

// Narration is the synthesis result for one video: per-segment tracks plus
// one combined track concatenated in segment order.
type Narration struct {
	Segments map[string]SegmentAudio

	// CombinedPath is empty when concatenation failed; TotalDuration then
	// holds the summed per-segment durations instead of the probed length.
	CombinedPath  string
	TotalDuration float64
}

// Concatenator joins media files by stream copy.
type Concatenator interface {
	ConcatClips(ctx context.Context, clips []string, outputPath string) error
}

// Narrator synthesizes narration per segment. A failed segment just falls
// back to silent captions; only the total wipeout is reported upward so the
// caller can log that narration is off for the whole video.
type Narrator struct {
	provider speech.Provider
	prober   Prober
	concat   Concatenator
}

func NewNarrator(provider speech.Provider, prober Prober, concat Concatenator) *Narrator {
	return &Narrator{provider: provider, prober: prober, concat: concat}
}

// Synthesize generates one audio file per non-blank segment under workDir,
// then concatenates them in segment order into one combined track and probes
// its total length. Segments whose synthesis or probe failed are absent from
// the result.
func (n *Narrator) Synthesize(ctx context.Context, workDir string, segments []model.ScriptSegment) Narration {
	result := Narration{Segments: make(map[string]SegmentAudio)}
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}

		audio, err := n.provider.GenerateSpeech(ctx, seg.Text)
		if err != nil {
			slog.Warn("narration synthesis failed, segment will be silent",
				"segment", seg.Name, "error", err)
			continue
		}

		path := filepath.Join(workDir, fmt.Sprintf("narration_%s%s", seg.Name, audioExt(audio)))
		if err := os.WriteFile(path, audio, 0600); err != nil {
			slog.Warn("write narration track failed", "segment", seg.Name, "error", err)
			continue
		}

		duration, err := n.prober.Duration(ctx, path)
		if err != nil {
			slog.Warn("probe narration track failed", "segment", seg.Name, "error", err)
			continue
		}

		result.Segments[seg.Name] = SegmentAudio{Path: path, Duration: duration}
	}

	n.combine(ctx, workDir, segments, &result)
	return result
}

// combine builds the full narration track. A concat or probe failure is not
// fatal; the total then stays at the summed segment durations.
func (n *Narrator) combine(ctx context.Context, workDir string, segments []model.ScriptSegment, result *Narration) {
	var paths []string
	for _, seg := range segments {
		if track, ok := result.Segments[seg.Name]; ok {
			paths = append(paths, track.Path)
		}
	}
	if len(paths) == 0 || n.concat == nil {
		return
	}

	result.TotalDuration = TotalDuration(result.Segments, segments)

	combined := filepath.Join(workDir, "narration_combined"+filepath.Ext(paths[0]))
	if err := n.concat.ConcatClips(ctx, paths, combined); err != nil {
		slog.Warn("combine narration tracks failed, using summed durations", "error", err)
		return
	}
	total, err := n.prober.Duration(ctx, combined)
	if err != nil {
		slog.Warn("probe combined narration failed, using summed durations", "error", err)
		return
	}

	result.CombinedPath = combined
	result.TotalDuration = total
}

// TotalDuration sums the synthesized track lengths in segment order.
func TotalDuration(tracks map[string]SegmentAudio, segments []model.ScriptSegment) float64 {
	var total float64
	for _, seg := range segments {
		if track, ok := tracks[seg.Name]; ok {
			total += track.Duration
		}
	}
	return total
}

func audioExt(data []byte) string {
	if len(data) >= 4 && data[0] == 'R' && data[1] == 'I' && data[2] == 'F' && data[3] == 'F' {
		return ".wav"
	}
	return ".mp3"
}
