package music

import (
	"fmt"
	"strings"

	"clipforge/internal/captions"
)

const (
	mergeGap     = 0.5
	regionBuffer = 0.3
	duckedVolume = 0.12
	bedVolume    = 0.25
)

// Region is a continuous stretch of speech in seconds.
type Region struct {
	Start float64
	End   float64
}

// SpeechRegions collapses word timestamps into merged speech windows.
// Adjacent words separated by less than half a second share a region.
func SpeechRegions(words []captions.Word) []Region {
	var regions []Region
	for _, w := range words {
		if len(regions) > 0 && w.Start-regions[len(regions)-1].End < mergeGap {
			if w.End > regions[len(regions)-1].End {
				regions[len(regions)-1].End = w.End
			}
			continue
		}
		regions = append(regions, Region{Start: w.Start, End: w.End})
	}
	return regions
}

// BuildDuckFilter renders an ffmpeg volume filter that lowers the music bed
// while speech is active. Each region is widened slightly so the duck ramps
// in before the first word lands.
func BuildDuckFilter(regions []Region) string {
	if len(regions) == 0 {
		return fmt.Sprintf("volume=%.2f", bedVolume)
	}
	terms := make([]string, len(regions))
	for i, r := range regions {
		start := r.Start - regionBuffer
		if start < 0 {
			start = 0
		}
		terms[i] = fmt.Sprintf("between(t,%.2f,%.2f)", start, r.End+regionBuffer)
	}
	return fmt.Sprintf("volume='if(%s,%.2f,%.2f)':eval=frame",
		strings.Join(terms, "+"), duckedVolume, bedVolume)
}
