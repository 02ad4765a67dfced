package thumbnail

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"clipforge/internal/logging"
	"clipforge/internal/scriptgen"
	"clipforge/internal/services"
	"clipforge/internal/stage"
	"clipforge/internal/state"
)

var commandContext = exec.CommandContext

const (
	canvasWidth  = 1280
	canvasHeight = 720

	fallbackColor = "0x14143C"
)

// Generator produces an image for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Handler renders the YouTube thumbnail: a generated 16:9 background with the
// video title drawn over it. Generation failures fall back to a solid color
// card so the upload stage always has a thumbnail to attach.
type Handler struct {
	generator Generator
	logger    *slog.Logger
}

func NewHandler(generator Generator) *Handler {
	return &Handler{generator: generator, logger: slog.Default()}
}

func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

func (h *Handler) Name() state.StageName {
	return state.StageThumbnail
}

func (h *Handler) Execute(ctx context.Context, job *stage.Job) (string, error) {
	draftPath := job.Output(state.StageDraft)
	if draftPath == "" {
		return "", services.Wrap(services.ErrStageDependency, string(state.StageThumbnail), "execute", "draft artifact missing", nil)
	}
	draft, err := scriptgen.Load(draftPath)
	if err != nil {
		return "", err
	}

	backgroundPath := filepath.Join(job.WorkDir, "thumb_background.png")
	if err := h.renderBackground(ctx, job, draft.ThumbnailPrompt, backgroundPath); err != nil {
		return "", err
	}

	outputPath := filepath.Join(job.WorkDir, fmt.Sprintf("thumbnail_%s.png", job.Variant))
	if err := h.drawTitle(ctx, job, backgroundPath, draft.Title(), outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}

// renderBackground generates the 16:9 backdrop, cropping the model output to
// the exact canvas. A failed generation becomes a solid color card.
func (h *Handler) renderBackground(ctx context.Context, job *stage.Job, prompt, outputPath string) error {
	image, err := h.generator.Generate(ctx, "16:9 landscape, bold and high contrast, no text: "+prompt)
	if err != nil {
		h.logger.Warn("thumbnail generation failed, using solid background",
			logging.Error(err))
		return h.runFFmpeg(ctx, job,
			"-y",
			"-f", "lavfi",
			"-i", fmt.Sprintf("color=c=%s:s=%dx%d", fallbackColor, canvasWidth, canvasHeight),
			"-frames:v", "1",
			outputPath)
	}

	rawPath := filepath.Join(job.WorkDir, "thumb_raw.png")
	if err := os.WriteFile(rawPath, image, 0o644); err != nil {
		return services.Wrap(services.ErrValidation, string(state.StageThumbnail), "background", "write raw image", err)
	}
	return h.runFFmpeg(ctx, job,
		"-y",
		"-i", rawPath,
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
			canvasWidth, canvasHeight, canvasWidth, canvasHeight),
		outputPath)
}

func (h *Handler) drawTitle(ctx context.Context, job *stage.Job, backgroundPath, title, outputPath string) error {
	filter := fmt.Sprintf(
		"drawtext=text='%s':fontcolor=white:fontsize=64:borderw=3:bordercolor=black:shadowcolor=black:shadowx=4:shadowy=4:x=(w-text_w)/2:y=h-text_h-60",
		escapeDrawText(title))
	return h.runFFmpeg(ctx, job,
		"-y",
		"-i", backgroundPath,
		"-vf", filter,
		outputPath)
}

func (h *Handler) runFFmpeg(ctx context.Context, job *stage.Job, args ...string) error {
	cmd := commandContext(ctx, job.Config.FFmpegBinary(), args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return services.Wrap(services.ErrExternalTool, string(state.StageThumbnail), "ffmpeg",
			fmt.Sprintf("ffmpeg %s: %s", strings.Join(args, " "), strings.TrimSpace(string(output))), err)
	}
	return nil
}

// escapeDrawText makes a title safe inside a drawtext filter argument.
func escapeDrawText(text string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`, `%`, `\%`).Replace(text)
}
