package upload

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/scriptgen"
	"clipforge/internal/services"
	"clipforge/internal/stage"
	"clipforge/internal/state"
)

const (
	defaultCategoryID = "27"
	defaultPrivacy    = "public"
)

// Option adjusts handler construction, mainly for tests.
type Option func(*Handler)

func WithHTTPClient(client *http.Client) Option {
	return func(h *Handler) { h.httpClient = client }
}

func WithUploadURL(uploadURL string) Option {
	return func(h *Handler) { h.uploadURL = uploadURL }
}

// Handler publishes the assembled video to YouTube and attaches the caption
// track and thumbnail. The output reference is the public watch URL.
type Handler struct {
	cfg        config.Upload
	httpClient *http.Client
	uploadURL  string
	logger     *slog.Logger
}

func NewHandler(cfg config.Upload, opts ...Option) *Handler {
	h := &Handler{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		uploadURL:  defaultUploadURL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

func (h *Handler) Name() state.StageName {
	return state.StageUpload
}

func (h *Handler) Execute(ctx context.Context, job *stage.Job) (string, error) {
	videoPath := job.Output(state.StageAssemble)
	if videoPath == "" {
		return "", services.Wrap(services.ErrStageDependency, string(state.StageUpload), "execute", "assembled video missing", nil)
	}
	draftPath := job.Output(state.StageDraft)
	if draftPath == "" {
		return "", services.Wrap(services.ErrStageDependency, string(state.StageUpload), "execute", "draft artifact missing", nil)
	}
	draft, err := scriptgen.Load(draftPath)
	if err != nil {
		return "", err
	}
	if h.cfg.TokenPath == "" {
		return "", services.Wrap(services.ErrConfiguration, string(state.StageUpload), "execute", "upload.token_path not configured", nil)
	}

	tokens, err := newTokenSource(h.cfg.TokenPath, h.httpClient)
	if err != nil {
		return "", err
	}
	client := &Client{httpClient: h.httpClient, tokens: tokens, uploadURL: h.uploadURL}

	meta := VideoMetadata{
		Title:           draft.Title(),
		Description:     draft.YouTubeDescription,
		Tags:            draft.Tags(),
		CategoryID:      h.cfg.CategoryID,
		DefaultLanguage: job.Variant,
		Privacy:         h.cfg.Privacy,
	}
	if meta.CategoryID == "" {
		meta.CategoryID = defaultCategoryID
	}
	if meta.Privacy == "" {
		meta.Privacy = defaultPrivacy
	}

	videoID, err := client.InsertVideo(ctx, meta, videoPath)
	if err != nil {
		return "", err
	}
	h.logger.Info("video uploaded",
		logging.String("video_id", videoID),
		logging.String("privacy", meta.Privacy))

	// Thumbnail and captions are cosmetic. The upload already succeeded, so
	// failures here must not fail the stage and force a re-upload.
	if thumbnailPath := job.Output(state.StageThumbnail); thumbnailPath != "" {
		if err := client.SetThumbnail(ctx, videoID, thumbnailPath); err != nil {
			h.logger.Warn("set thumbnail failed", logging.Error(err))
		}
	}
	if srtPath := job.Output(state.StageCaptions); srtPath != "" {
		if err := client.InsertCaption(ctx, videoID, job.Variant, srtPath); err != nil {
			h.logger.Warn("caption upload failed", logging.Error(err))
		}
	}

	return fmt.Sprintf("https://youtu.be/%s", videoID), nil
}
