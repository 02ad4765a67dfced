package testsupport

import (
	"path/filepath"
	"testing"

	"clipforge/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.MediaDir = filepath.Join(base, "media")
	cfg.Paths.MusicDir = filepath.Join(base, "music")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Upload.TokenPath = filepath.Join(base, "youtube_token.json")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}
