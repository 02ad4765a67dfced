package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"clipforge/internal/broll"
	"clipforge/internal/captions"
	"clipforge/internal/logging"
	"clipforge/internal/music"
	"clipforge/internal/services"
	"clipforge/internal/stage"
	"clipforge/internal/state"
)

// Handler composes the final video: animated b-roll clips concatenated to
// cover the voiceover, burned-in captions, and an optional ducked music bed.
type Handler struct {
	logger *slog.Logger
}

func NewHandler() *Handler {
	return &Handler{logger: slog.Default()}
}

func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

func (h *Handler) Name() state.StageName {
	return state.StageAssemble
}

func (h *Handler) Execute(ctx context.Context, job *stage.Job) (string, error) {
	frames, err := broll.Frames(job.Output(state.StageBroll))
	if err != nil {
		return "", err
	}
	audioPath := job.Output(state.StageVoiceover)
	if audioPath == "" {
		return "", services.Wrap(services.ErrStageDependency, string(state.StageAssemble), "execute", "voiceover audio missing", nil)
	}

	ffmpeg := job.Config.FFmpegBinary()
	duration, err := probeDuration(ctx, job.Config.FFprobeBinary(), audioPath)
	if err != nil {
		return "", err
	}

	perFrame := duration/float64(len(frames)) + 0.1
	clips, err := h.animateFrames(ctx, job, frames, perFrame)
	if err != nil {
		return "", err
	}
	silentPath, err := h.concatClips(ctx, ffmpeg, job.WorkDir, clips)
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(job.Config.Paths.MediaDir,
		fmt.Sprintf("pipeline_%s_%s.mp4", job.UnitID, job.Variant))
	if err := h.mux(ctx, job, silentPath, audioPath, duration, outputPath); err != nil {
		return "", err
	}
	h.logger.Info("assembled video",
		logging.String("output", outputPath),
		logging.Float64("duration_seconds", duration))
	return outputPath, nil
}

// animateFrames renders each still into a short clip with a Ken Burns motion.
func (h *Handler) animateFrames(ctx context.Context, job *stage.Job, frames []string, perFrame float64) ([]string, error) {
	fps := job.Config.Video.FPS
	frameCount := int(perFrame * float64(fps))
	if frameCount < 1 {
		frameCount = 1
	}
	clips := make([]string, 0, len(frames))
	for i, frame := range frames {
		clipPath := filepath.Join(job.WorkDir, fmt.Sprintf("clip_%02d.mp4", i))
		filter := kenBurnsFilter(i, frameCount, job.Config.Video.Width, job.Config.Video.Height, fps)
		args := []string{
			"-y",
			"-loop", "1",
			"-i", frame,
			"-t", fmt.Sprintf("%.2f", perFrame),
			"-vf", filter,
			"-c:v", "libx264",
			"-preset", "veryfast",
			"-pix_fmt", "yuv420p",
			"-an",
			clipPath,
		}
		if err := runFFmpeg(ctx, job.Config.FFmpegBinary(), args...); err != nil {
			return nil, err
		}
		clips = append(clips, clipPath)
	}
	return clips, nil
}

func (h *Handler) concatClips(ctx context.Context, ffmpeg, workDir string, clips []string) (string, error) {
	var list strings.Builder
	for _, clip := range clips {
		fmt.Fprintf(&list, "file '%s'\n", clip)
	}
	listPath := filepath.Join(workDir, "concat.txt")
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return "", services.Wrap(services.ErrValidation, string(state.StageAssemble), "concat", "write concat list", err)
	}
	silentPath := filepath.Join(workDir, "silent.mp4")
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		silentPath,
	}
	if err := runFFmpeg(ctx, ffmpeg, args...); err != nil {
		return "", err
	}
	return silentPath, nil
}

// mux combines the silent video with the voiceover, burned captions, and an
// optional looped music bed ducked under speech.
func (h *Handler) mux(ctx context.Context, job *stage.Job, silentPath, audioPath string, duration float64, outputPath string) error {
	args := []string{"-y", "-i", silentPath, "-i", audioPath}

	musicPath := job.Output(state.StageMusic)
	if musicPath != "" {
		args = append(args, "-i", musicPath)
	}

	var filters []string
	videoMap := "0:v"
	audioMap := "1:a"
	videoCodec := []string{"-c:v", "copy"}

	if assPath := h.subtitlePath(job); assPath != "" {
		filters = append(filters, fmt.Sprintf("[0:v]ass='%s'[vout]", escapeFilterPath(assPath)))
		videoMap = "[vout]"
		videoCodec = []string{"-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p"}
	}
	if musicPath != "" {
		duck, err := h.duckFilter(job)
		if err != nil {
			return err
		}
		filters = append(filters, fmt.Sprintf(
			"[2:a]aloop=loop=-1:size=2e+09,atrim=0:%.2f,%s[bed];[1:a][bed]amix=inputs=2:duration=first:dropout_transition=2[aout]",
			duration, duck))
		audioMap = "[aout]"
	}
	if len(filters) > 0 {
		args = append(args, "-filter_complex", strings.Join(filters, ";"))
	}

	args = append(args, "-map", videoMap, "-map", audioMap)
	args = append(args, videoCodec...)
	args = append(args, "-c:a", "aac", "-shortest", outputPath)
	return runFFmpeg(ctx, job.Config.FFmpegBinary(), args...)
}

// subtitlePath returns the ASS sibling of the captions stage output, or empty
// when it is not on disk.
func (h *Handler) subtitlePath(job *stage.Job) string {
	srtPath := job.Output(state.StageCaptions)
	if srtPath == "" {
		return ""
	}
	assPath := strings.TrimSuffix(srtPath, filepath.Ext(srtPath)) + ".ass"
	if _, err := os.Stat(assPath); err != nil {
		h.logger.Warn("styled captions missing, skipping burn-in",
			logging.String("path", assPath))
		return ""
	}
	return assPath
}

func (h *Handler) duckFilter(job *stage.Job) (string, error) {
	wordsPath := job.Output(state.StageTranscribe)
	if wordsPath == "" {
		return music.BuildDuckFilter(nil), nil
	}
	words, err := captions.LoadWords(wordsPath)
	if err != nil {
		return "", err
	}
	return music.BuildDuckFilter(music.SpeechRegions(words)), nil
}
