package video

import (
	"strings"
	"testing"
)

func TestWrapBreaksAtWordBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{
			name:  "short text stays on one line",
			text:  "three hearts",
			width: 24,
			want:  "three hearts",
		},
		{
			name:  "long text wraps without splitting words",
			text:  "octopuses have three hearts and blue blood",
			width: 24,
			want:  `octopuses have three\Nhearts and blue blood`,
		},
		{
			name:  "word longer than width gets own line",
			text:  "a pneumonoultramicroscopicsilicovolcanoconiosis case",
			width: 24,
			want:  `a\Npneumonoultramicroscopicsilicovolcanoconiosis\Ncase`,
		},
		{
			name:  "empty text",
			text:  "   ",
			width: 24,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Wrap(tt.text, tt.width); got != tt.want {
				t.Errorf("Wrap(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestWrapNeverExceedsWidthExceptLongWords(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog again and again and again"
	for _, line := range strings.Split(Wrap(text, 24), `\N`) {
		if len(line) > 24 {
			t.Errorf("line %q exceeds 24 chars", line)
		}
	}
}

func TestStripUnsupported(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mind blown 🤯", "mind blown"},
		{"fire 🔥 facts", "fire  facts"},
		{"plain text", "plain text"},
		{"family 👨\u200d👩\u200d👧", "family"},
		{"heart ❤\ufe0f here", "heart  here"},
	}
	for _, tt := range tests {
		if got := StripUnsupported(tt.in); got != tt.want {
			t.Errorf("StripUnsupported(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderProducesValidASS(t *testing.T) {
	gen := NewCaptionGenerator(CaptionOptions{
		FontName: "Montserrat Black",
		FontSize: 64,
		Width:    1080,
		Height:   1920,
	})

	doc := gen.Render("octopuses have three hearts and blue blood", 4.5)

	for _, want := range []string{
		"[Script Info]",
		"PlayResX: 1080",
		"PlayResY: 1920",
		"[V4+ Styles]",
		"Montserrat Black",
		"[Events]",
		"Dialogue: 0,0:00:00.00,0:00:04.50,Default",
		`octopuses have three\Nhearts and blue blood`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("ASS document missing %q:\n%s", want, doc)
		}
	}
}

func TestRenderStripsEmoji(t *testing.T) {
	gen := NewCaptionGenerator(CaptionOptions{FontName: "Arial", FontSize: 64})
	doc := gen.Render("unbelievable 🤯", 3.0)
	if strings.Contains(doc, "🤯") {
		t.Error("emoji should be stripped from rendered captions")
	}
}

func TestToASSColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#FFFFFF", "&H00FFFFFF"},
		{"#FF0000", "&H000000FF"},
		{"&H00ABCDEF", "&H00ABCDEF"},
		{"bogus", "&H00FFFFFF"},
	}
	for _, tt := range tests {
		if got := toASSColor(tt.in); got != tt.want {
			t.Errorf("toASSColor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatASSTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00:00.00"},
		{4.5, "0:00:04.50"},
		{65.25, "0:01:05.25"},
		{3661.5, "1:01:01.50"},
	}
	for _, tt := range tests {
		if got := formatASSTime(tt.seconds); got != tt.want {
			t.Errorf("formatASSTime(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
