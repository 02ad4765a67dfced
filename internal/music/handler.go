package music

import (
	"context"
	"log/slog"
	"math/rand"
	"path/filepath"
	"sort"

	"clipforge/internal/logging"
	"clipforge/internal/stage"
	"clipforge/internal/state"
)

// Handler selects a background music track for the variant. The stage is
// optional: an unset or empty music directory completes with no track, and
// the assemble stage mixes the voiceover alone.
type Handler struct {
	pick   func(n int) int
	logger *slog.Logger
}

func NewHandler() *Handler {
	return &Handler{pick: rand.Intn, logger: slog.Default()}
}

func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

func (h *Handler) Name() state.StageName {
	return state.StageMusic
}

func (h *Handler) Execute(ctx context.Context, job *stage.Job) (string, error) {
	dir := job.Config.Paths.MusicDir
	if dir == "" {
		h.logger.Info("no music directory configured, skipping background music")
		return "", nil
	}
	tracks, err := filepath.Glob(filepath.Join(dir, "*.mp3"))
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		h.logger.Info("music directory empty, skipping background music",
			logging.String("music_dir", dir))
		return "", nil
	}
	sort.Strings(tracks)
	track := tracks[h.pick(len(tracks))]
	h.logger.Info("selected background track", logging.String("track", filepath.Base(track)))
	return track, nil
}
