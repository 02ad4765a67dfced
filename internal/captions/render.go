package captions

import (
	"fmt"
	"strings"
)

const wordsPerCue = 4

// cue is a group of consecutive words shown together on screen.
type cue struct {
	Words []Word
}

func (c cue) start() float64 { return c.Words[0].Start }
func (c cue) end() float64   { return c.Words[len(c.Words)-1].End }

func (c cue) text() string {
	parts := make([]string, len(c.Words))
	for i, w := range c.Words {
		parts[i] = w.Word
	}
	return strings.Join(parts, " ")
}

func groupWords(words []Word, size int) []cue {
	if size <= 0 {
		size = wordsPerCue
	}
	var cues []cue
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		cues = append(cues, cue{Words: words[start:end]})
	}
	return cues
}

// formatSRTTime renders seconds as HH:MM:SS,mmm.
func formatSRTTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int(seconds*1000 + 0.5)
	hours := millis / 3600000
	millis %= 3600000
	minutes := millis / 60000
	millis %= 60000
	secs := millis / 1000
	millis %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// formatASSTime renders seconds as H:MM:SS.cc (centisecond precision).
func formatASSTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	centis := int(seconds*100 + 0.5)
	hours := centis / 360000
	centis %= 360000
	minutes := centis / 6000
	centis %= 6000
	secs := centis / 100
	centis %= 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centis)
}

// RenderSRT produces a plain SRT document with one entry per cue.
func RenderSRT(words []Word) string {
	var b strings.Builder
	for i, c := range groupWords(words, wordsPerCue) {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatSRTTime(c.start()), formatSRTTime(c.end()))
		b.WriteString(c.text())
		b.WriteString("\n\n")
	}
	return b.String()
}

// RenderASS produces a styled subtitle document sized for the given canvas.
// Each word gets its own dialogue line covering its spoken window, with the
// active word emphasized in yellow.
func RenderASS(words []Word, width, height int) string {
	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", width)
	fmt.Fprintf(&b, "PlayResY: %d\n", height)
	b.WriteString("\n[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Default,Arial,72,&H00FFFFFF,&H00FFFFFF,&H00000000,&H80000000,-1,0,0,0,100,100,0,0,1,4,2,2,60,60,%d,1\n", height/4)
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, c := range groupWords(words, wordsPerCue) {
		for active := range c.Words {
			parts := make([]string, len(c.Words))
			for i, w := range c.Words {
				if i == active {
					parts[i] = fmt.Sprintf(`{\c&H00FFFF&\b1\fs80}%s{\r}`, w.Word)
				} else {
					parts[i] = w.Word
				}
			}
			fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
				formatASSTime(c.Words[active].Start),
				formatASSTime(c.Words[active].End),
				strings.Join(parts, " "))
		}
	}
	return b.String()
}
