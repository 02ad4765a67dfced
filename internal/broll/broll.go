package broll

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"clipforge/internal/logging"
	"clipforge/internal/scriptgen"
	"clipforge/internal/services"
	"clipforge/internal/stage"
	"clipforge/internal/state"
)

var commandContext = exec.CommandContext

// fallbackColors are the solid frame colors used when image generation
// fails, cycled per frame index.
var fallbackColors = []string{"0x14143C", "0x280A28", "0x0A1E32"}

// Generator is the image generation surface the b-roll stage needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Handler produces the b-roll frames for one variant. A failed generation
// degrades to a solid-color frame rather than failing the stage.
type Handler struct {
	generator Generator
	logger    *slog.Logger
}

func NewHandler(generator Generator) *Handler {
	return &Handler{generator: generator, logger: logging.NewNop()}
}

func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

func (h *Handler) Name() state.StageName { return state.StageBroll }

// Execute generates one frame per draft prompt into <workdir>/broll and
// returns the directory as the stage output.
func (h *Handler) Execute(ctx context.Context, job *stage.Job) (string, error) {
	draft, err := scriptgen.Load(job.Output(state.StageDraft))
	if err != nil {
		return "", err
	}

	framesDir := filepath.Join(job.WorkDir, "broll")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrValidation, string(state.StageBroll), "execute", "create frames dir", err)
	}

	width, height := job.Config.Video.Width, job.Config.Video.Height
	for i, prompt := range draft.BrollPrompts {
		framePath := filepath.Join(framesDir, fmt.Sprintf("broll_%d.png", i))
		if err := h.generateFrame(ctx, job, prompt, framePath); err != nil {
			h.logger.Warn("frame generation failed, using fallback",
				logging.Int("frame", i),
				logging.Error(err),
			)
			if err := fallbackFrame(ctx, job.Config.FFmpegBinary(), i, width, height, framePath); err != nil {
				return "", err
			}
		}
	}
	return framesDir, nil
}

func (h *Handler) generateFrame(ctx context.Context, job *stage.Job, prompt, framePath string) error {
	img, err := h.generator.Generate(ctx, prompt)
	if err != nil {
		return err
	}
	rawPath := framePath + ".raw"
	if err := os.WriteFile(rawPath, img, 0o644); err != nil {
		return services.Wrap(services.ErrValidation, string(state.StageBroll), "generate", "write raw frame", err)
	}
	defer os.Remove(rawPath)

	// Center-crop to the portrait canvas; generated images are rarely 9:16.
	return cropToCanvas(ctx, job.Config.FFmpegBinary(), rawPath, framePath, job.Config.Video.Width, job.Config.Video.Height)
}

func cropToCanvas(ctx context.Context, ffmpeg, src, dest string, width, height int) error {
	vf := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", width, height, width, height)
	return runFFmpeg(ctx, ffmpeg, "-i", src, "-vf", vf, "-frames:v", "1", dest, "-y", "-loglevel", "error")
}

func fallbackFrame(ctx context.Context, ffmpeg string, index, width, height int, dest string) error {
	color := fallbackColors[index%len(fallbackColors)]
	src := fmt.Sprintf("color=c=%s:s=%dx%d", color, width, height)
	return runFFmpeg(ctx, ffmpeg, "-f", "lavfi", "-i", src, "-frames:v", "1", dest, "-y", "-loglevel", "error")
}

func runFFmpeg(ctx context.Context, ffmpeg string, args ...string) error {
	cmd := commandContext(ctx, ffmpeg, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return services.Wrap(services.ErrExternalTool, string(state.StageBroll), "ffmpeg",
			strings.TrimSpace(string(output)), err)
	}
	return nil
}

// Frames lists the generated frame paths inside a b-roll output directory.
func Frames(framesDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(framesDir, "broll_*.png"))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, string(state.StageBroll), "frames", "list frames", err)
	}
	if len(matches) == 0 {
		return nil, services.Wrap(services.ErrStageDependency, string(state.StageBroll), "frames", "no frames in "+framesDir, nil)
	}
	sort.Strings(matches)
	return matches, nil
}
