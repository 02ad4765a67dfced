package research

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"clipforge/internal/services"
	"clipforge/internal/stage"
	"clipforge/internal/state"
	"clipforge/internal/textutil"
)

const (
	searchEndpoint = "https://html.duckduckgo.com/html/"
	maxSnippets    = 8
	snippetLimit   = 300
)

// Handler gathers search snippets for a topic so the script stage can ground
// itself in real facts instead of inventing them.
type Handler struct {
	client   *http.Client
	endpoint string
}

// Option customizes the handler.
type Option func(*Handler)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(h *Handler) {
		if client != nil {
			h.client = client
		}
	}
}

// WithEndpoint overrides the search endpoint (useful for tests).
func WithEndpoint(endpoint string) Option {
	return func(h *Handler) {
		if endpoint != "" {
			h.endpoint = endpoint
		}
	}
}

func NewHandler(opts ...Option) *Handler {
	handler := &Handler{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: searchEndpoint,
	}
	for _, opt := range opts {
		opt(handler)
	}
	return handler
}

func (h *Handler) Name() state.StageName { return state.StageResearch }

// Execute searches DuckDuckGo for the topic and writes the collected
// snippets to research.txt in the work directory. A failed or empty search
// is not fatal: the stage falls back to a stub telling the script stage to
// stay general.
func (h *Handler) Execute(ctx context.Context, job *stage.Job) (string, error) {
	outPath := filepath.Join(job.WorkDir, "research.txt")

	body, err := h.Search(ctx, ExtractKeywords(job.Topic))
	if err != nil || body == "" {
		body = fallbackNotes(job.Topic)
	}

	if err := os.WriteFile(outPath, []byte(body), 0o644); err != nil {
		return "", services.Wrap(services.ErrValidation, string(state.StageResearch), "write", "save research notes", err)
	}
	return outPath, nil
}

// Search posts keywords to the HTML search endpoint and returns up to eight
// result snippets, newline joined. Snippets are truncated to bound the
// prompt-injection surface they expose to the script model.
func (h *Handler) Search(ctx context.Context, keywords string) (string, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return "", services.Wrap(services.ErrValidation, string(state.StageResearch), "search", "keywords required", nil)
	}

	form := url.Values{"q": {keywords}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, string(state.StageResearch), "search", "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; research-bot/1.0)")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, string(state.StageResearch), "search", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &services.StatusError{StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, string(state.StageResearch), "search", "parse response", err)
	}
	return joinSnippets(extractSnippets(doc)), nil
}

func extractSnippets(doc *goquery.Document) []string {
	var snippets []string
	doc.Find("a.result__snippet").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		snippets = append(snippets, textutil.Truncate(text, snippetLimit))
	})
	return snippets
}

func joinSnippets(snippets []string) string {
	if len(snippets) > maxSnippets {
		snippets = snippets[:maxSnippets]
	}
	return strings.Join(snippets, "\n")
}

func fallbackNotes(topic string) string {
	return fmt.Sprintf("Topic: %s\n(No live research available; script must stay general.)", topic)
}
