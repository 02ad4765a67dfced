package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"

	"clipforge/internal/language"
	"clipforge/internal/services"
	"clipforge/internal/state"
)

const defaultUploadURL = "https://www.googleapis.com/upload/youtube/v3"

// VideoMetadata is the subset of the YouTube videos resource the pipeline
// sets on insert.
type VideoMetadata struct {
	Title           string
	Description     string
	Tags            []string
	CategoryID      string
	DefaultLanguage string
	Privacy         string
}

// Client calls the YouTube Data API v3 over plain HTTP.
type Client struct {
	httpClient *http.Client
	tokens     *tokenSource
	uploadURL  string
}

type videoResource struct {
	ID      string `json:"id"`
	Snippet struct {
		Title           string   `json:"title"`
		Description     string   `json:"description"`
		Tags            []string `json:"tags,omitempty"`
		CategoryID      string   `json:"categoryId,omitempty"`
		DefaultLanguage string   `json:"defaultLanguage,omitempty"`
	} `json:"snippet"`
	Status struct {
		PrivacyStatus           string `json:"privacyStatus"`
		SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
	} `json:"status"`
}

// InsertVideo uploads a video file with its metadata and returns the new
// video ID.
func (c *Client) InsertVideo(ctx context.Context, meta VideoMetadata, videoPath string) (string, error) {
	var resource videoResource
	resource.Snippet.Title = meta.Title
	resource.Snippet.Description = meta.Description
	resource.Snippet.Tags = meta.Tags
	resource.Snippet.CategoryID = meta.CategoryID
	resource.Snippet.DefaultLanguage = meta.DefaultLanguage
	resource.Status.PrivacyStatus = meta.Privacy
	resource.Status.SelfDeclaredMadeForKids = false

	metadata, err := json.Marshal(resource)
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/videos?uploadType=multipart&part=snippet,status", c.uploadURL)
	body, err := c.doMultipart(ctx, endpoint, metadata, videoPath, "video/mp4")
	if err != nil {
		return "", err
	}

	var inserted videoResource
	if err := json.Unmarshal(body, &inserted); err != nil {
		return "", services.Wrap(services.ErrExternalTool, string(state.StageUpload), "insert", "decode insert response", err)
	}
	if inserted.ID == "" {
		return "", services.Wrap(services.ErrExternalTool, string(state.StageUpload), "insert", "insert response missing video id", nil)
	}
	return inserted.ID, nil
}

// SetThumbnail attaches a custom thumbnail to an uploaded video.
func (c *Client) SetThumbnail(ctx context.Context, videoID, thumbnailPath string) error {
	file, err := os.Open(thumbnailPath)
	if err != nil {
		return services.Wrap(services.ErrStageDependency, string(state.StageUpload), "thumbnail", "open thumbnail", err)
	}
	defer file.Close()

	endpoint := fmt.Sprintf("%s/thumbnails/set?videoId=%s&uploadType=media", c.uploadURL, videoID)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, file)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "image/png")
	_, err = c.do(request)
	return err
}

// InsertCaption uploads an SRT track for the given language variant.
func (c *Client) InsertCaption(ctx context.Context, videoID, variant, srtPath string) error {
	code := language.ToISO2(variant)
	if code == "" {
		code = variant
	}
	snippet := map[string]any{
		"snippet": map[string]any{
			"videoId":  videoID,
			"language": code,
			"name":     language.DisplayName(variant),
		},
	}
	metadata, err := json.Marshal(snippet)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/captions?uploadType=multipart&part=snippet", c.uploadURL)
	_, err = c.doMultipart(ctx, endpoint, metadata, srtPath, "application/octet-stream")
	return err
}

// doMultipart posts a multipart/related body holding a JSON resource part and
// a media part, the shape the upload endpoints expect.
func (c *Client) doMultipart(ctx context.Context, endpoint string, metadata []byte, mediaPath, mediaType string) ([]byte, error) {
	media, err := os.Open(mediaPath)
	if err != nil {
		return nil, services.Wrap(services.ErrStageDependency, string(state.StageUpload), "upload", "open media file", err)
	}
	defer media.Close()

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)

	jsonHeader := textproto.MIMEHeader{}
	jsonHeader.Set("Content-Type", "application/json; charset=UTF-8")
	jsonPart, err := writer.CreatePart(jsonHeader)
	if err != nil {
		return nil, err
	}
	if _, err := jsonPart.Write(metadata); err != nil {
		return nil, err
	}

	mediaHeader := textproto.MIMEHeader{}
	mediaHeader.Set("Content-Type", mediaType)
	mediaPart, err := writer.CreatePart(mediaHeader)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(mediaPart, media); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buffer)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())
	return c.do(request)
}

func (c *Client) do(request *http.Request) ([]byte, error) {
	token, err := c.tokens.AccessToken(request.Context())
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+token)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, string(state.StageUpload), "request", "call youtube api", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, string(state.StageUpload), "request", "read youtube response", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &services.StatusError{StatusCode: response.StatusCode, Body: string(body)}
	}
	return body, nil
}
