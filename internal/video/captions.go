package video

import (
	"fmt"
	"strings"
	"unicode"
)

// CaptionGenerator renders segment text into ASS subtitle documents for the
// full-screen caption slides.
type CaptionGenerator struct {
	fontName     string
	fontSize     int
	primaryColor string
	outlineColor string
	outlineSize  int
	shadowSize   int
	wrapWidth    int
	playResX     int
	playResY     int
}

type CaptionOptions struct {
	FontName     string
	FontSize     int
	PrimaryColor string
	OutlineColor string
	OutlineSize  int
	ShadowSize   int
	WrapWidth    int
	Width        int
	Height       int
}

func NewCaptionGenerator(opts CaptionOptions) *CaptionGenerator {
	primaryColor := "&H00FFFFFF"
	if opts.PrimaryColor != "" {
		primaryColor = toASSColor(opts.PrimaryColor)
	}
	outlineColor := "&H00000000"
	if opts.OutlineColor != "" {
		outlineColor = toASSColor(opts.OutlineColor)
	}
	outlineSize := 4
	if opts.OutlineSize > 0 {
		outlineSize = opts.OutlineSize
	}
	shadowSize := 2
	if opts.ShadowSize > 0 {
		shadowSize = opts.ShadowSize
	}
	wrapWidth := 24
	if opts.WrapWidth > 0 {
		wrapWidth = opts.WrapWidth
	}
	width := 1080
	if opts.Width > 0 {
		width = opts.Width
	}
	height := 1920
	if opts.Height > 0 {
		height = opts.Height
	}

	return &CaptionGenerator{
		fontName:     opts.FontName,
		fontSize:     opts.FontSize,
		primaryColor: primaryColor,
		outlineColor: outlineColor,
		outlineSize:  outlineSize,
		shadowSize:   shadowSize,
		wrapWidth:    wrapWidth,
		playResX:     width,
		playResY:     height,
	}
}

func toASSColor(color string) string {
	if strings.HasPrefix(color, "&H") {
		return color
	}
	color = strings.TrimPrefix(color, "#")
	if len(color) == 6 {
		r := color[0:2]
		g := color[2:4]
		b := color[4:6]
		return fmt.Sprintf("&H00%s%s%s", b, g, r)
	}
	return "&H00FFFFFF"
}

// Wrap splits text into lines of at most width characters, breaking only at
// word boundaries. Words longer than the width get a line of their own.
// Lines are joined with the ASS hard line break.
func Wrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) <= width {
			current += " " + word
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	lines = append(lines, current)

	return strings.Join(lines, `\N`)
}

// StripUnsupported removes emoji and other symbols the subtitle font cannot
// render: pictographs, symbol runes, variation selectors and joiners.
func StripUnsupported(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 0x1F000:
			continue
		case r == 0x200D || r == 0xFE0E || r == 0xFE0F:
			continue
		case unicode.Is(unicode.So, r):
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Render produces a full ASS document showing one centered caption for the
// whole slide duration.
func (g *CaptionGenerator) Render(text string, duration float64) string {
	wrapped := Wrap(StripUnsupported(text), g.wrapWidth)

	var sb strings.Builder
	sb.WriteString("[Script Info]\n")
	sb.WriteString("Title: Caption\n")
	sb.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&sb, "PlayResX: %d\n", g.playResX)
	fmt.Fprintf(&sb, "PlayResY: %d\n", g.playResY)
	sb.WriteString("\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&sb, "Style: Default,%s,%d,%s,%s,%s,&H80000000,-1,0,0,0,100,100,0,0,1,%d,%d,5,40,40,40,1\n",
		g.fontName, g.fontSize, g.primaryColor, g.primaryColor, g.outlineColor, g.outlineSize, g.shadowSize)
	sb.WriteString("\n")

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	fmt.Fprintf(&sb, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
		formatASSTime(0), formatASSTime(duration), wrapped)

	return sb.String()
}

func formatASSTime(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60
	centis := int((seconds - float64(int(seconds))) * 100)
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centis)
}
