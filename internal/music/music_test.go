package music

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/internal/captions"
	"clipforge/internal/stage"
	"clipforge/internal/testsupport"
)

func TestSpeechRegionsMergesCloseWords(t *testing.T) {
	words := []captions.Word{
		{Word: "a", Start: 0.0, End: 0.4},
		{Word: "b", Start: 0.6, End: 1.0},
		{Word: "c", Start: 2.0, End: 2.5},
	}
	regions := SpeechRegions(words)
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %d: %+v", len(regions), regions)
	}
	if regions[0].Start != 0.0 || regions[0].End != 1.0 {
		t.Fatalf("unexpected first region: %+v", regions[0])
	}
	if regions[1].Start != 2.0 || regions[1].End != 2.5 {
		t.Fatalf("unexpected second region: %+v", regions[1])
	}
}

func TestSpeechRegionsEmpty(t *testing.T) {
	if regions := SpeechRegions(nil); regions != nil {
		t.Fatalf("expected no regions, got %+v", regions)
	}
}

func TestBuildDuckFilter(t *testing.T) {
	filter := BuildDuckFilter([]Region{{Start: 0.1, End: 1.0}, {Start: 2.0, End: 3.0}})
	if !strings.HasPrefix(filter, "volume='if(") || !strings.HasSuffix(filter, ":eval=frame") {
		t.Fatalf("unexpected filter shape: %s", filter)
	}
	if !strings.Contains(filter, "between(t,0.00,1.30)") {
		t.Fatalf("first region should clamp at zero after buffering: %s", filter)
	}
	if !strings.Contains(filter, "between(t,1.70,3.30)") {
		t.Fatalf("second region missing buffered window: %s", filter)
	}
	if !strings.Contains(filter, ",0.12,0.25)") {
		t.Fatalf("filter missing duck levels: %s", filter)
	}
}

func TestBuildDuckFilterNoRegions(t *testing.T) {
	if got := BuildDuckFilter(nil); got != "volume=0.25" {
		t.Fatalf("expected flat bed volume, got %s", got)
	}
}

func TestExecuteSelectsTrack(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.MusicDir = t.TempDir()
	testsupport.MustWriteFile(t, filepath.Join(cfg.Paths.MusicDir, "beta.mp3"), "x")
	testsupport.MustWriteFile(t, filepath.Join(cfg.Paths.MusicDir, "alpha.mp3"), "x")
	testsupport.MustWriteFile(t, filepath.Join(cfg.Paths.MusicDir, "notes.txt"), "x")

	handler := NewHandler()
	handler.pick = func(n int) int {
		if n != 2 {
			t.Fatalf("expected 2 candidate tracks, got %d", n)
		}
		return 0
	}
	job := &stage.Job{UnitID: "u1", Variant: "en", WorkDir: t.TempDir(), Config: cfg}
	ref, err := handler.Execute(context.Background(), job)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if filepath.Base(ref) != "alpha.mp3" {
		t.Fatalf("expected sorted pick, got %s", ref)
	}
}

func TestExecuteWithoutTracks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.MusicDir = t.TempDir()
	job := &stage.Job{UnitID: "u1", Variant: "en", WorkDir: t.TempDir(), Config: cfg}
	ref, err := NewHandler().Execute(context.Background(), job)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if ref != "" {
		t.Fatalf("expected empty output ref, got %q", ref)
	}
}
