package topics

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"clipforge/internal/config"
	"clipforge/internal/services"
)

// FeedSource pulls headlines from RSS or Atom feeds. Items are scored by
// position: the first headline in a feed scores 1.0 and scores decay
// linearly from there.
type FeedSource struct {
	client *http.Client
	urls   []string
}

func NewFeedSource(cfg config.Feeds) *FeedSource {
	return &FeedSource{client: newHTTPClient(), urls: cfg.URLs}
}

func (s *FeedSource) Name() string { return "feeds" }

func (s *FeedSource) Fetch(ctx context.Context, limit int) ([]Candidate, error) {
	now := time.Now().UTC()
	var out []Candidate
	for _, feedURL := range s.urls {
		doc, err := fetchDocument(ctx, s.client, feedURL)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "", "feeds", "fetch "+feedURL, err)
		}
		items := parseFeedItems(doc)
		for i, item := range items {
			if i >= limit {
				break
			}
			out = append(out, Candidate{
				Text:      item.title,
				Source:    "feed:" + hostOf(feedURL),
				Score:     positionScore(i, len(items)),
				Summary:   item.summary,
				URL:       item.link,
				FetchedAt: now,
			})
		}
	}
	return out, nil
}

type feedItem struct {
	title   string
	summary string
	link    string
}

// parseFeedItems handles both RSS (<item>) and Atom (<entry>) documents.
// net/html lowercases tags, so selectors match either capitalization.
func parseFeedItems(doc *goquery.Document) []feedItem {
	var items []feedItem
	collect := func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find("title").First().Text())
		if title == "" {
			return
		}
		link := extractLink(sel)
		items = append(items, feedItem{
			title:   title,
			summary: strings.TrimSpace(sel.Find("description, summary").First().Text()),
			link:    strings.TrimSpace(link),
		})
	}
	doc.Find("item").Each(collect)
	if len(items) == 0 {
		doc.Find("entry").Each(collect)
	}
	return items
}

// extractLink covers Atom's <link href=""/> as well as RSS's <link>text</link>.
// The HTML parser treats link as a void element, so RSS link text ends up in
// the sibling text node rather than as a child.
func extractLink(sel *goquery.Selection) string {
	link := sel.Find("link").First()
	if link.Length() == 0 {
		return ""
	}
	if href, ok := link.Attr("href"); ok && strings.TrimSpace(href) != "" {
		return strings.TrimSpace(href)
	}
	if text := strings.TrimSpace(link.Text()); text != "" {
		return text
	}
	if node := link.Get(0); node != nil && node.NextSibling != nil {
		return strings.TrimSpace(node.NextSibling.Data)
	}
	return ""
}

func positionScore(index, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(index)/float64(total)
}

func hostOf(raw string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return trimmed
}
