package topics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"clipforge/internal/config"
	"clipforge/internal/services"
)

const trendsBaseURL = "https://trends.google.com/trending/rss"

// TrendsSource pulls the Google daily search trends RSS feed for one
// geography. Approximate traffic figures are normalized against the day's
// top trend.
type TrendsSource struct {
	client  *http.Client
	baseURL string
	geo     string
}

func NewTrendsSource(cfg config.Trends) *TrendsSource {
	geo := cfg.Geo
	if geo == "" {
		geo = "US"
	}
	return &TrendsSource{client: newHTTPClient(), baseURL: trendsBaseURL, geo: geo}
}

func (s *TrendsSource) Name() string { return "trends" }

func (s *TrendsSource) Fetch(ctx context.Context, limit int) ([]Candidate, error) {
	url := fmt.Sprintf("%s?geo=%s", s.baseURL, s.geo)
	doc, err := fetchDocument(ctx, s.client, url)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "", "trends", "fetch geo "+s.geo, err)
	}

	type rawTrend struct {
		title   string
		traffic float64
		summary string
		link    string
	}
	var trends []rawTrend
	maxTraffic := 1.0

	doc.Find("item").Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find("title").First().Text())
		if title == "" {
			return
		}
		traffic := parseTraffic(sel.Find(`ht\:approx_traffic`).First().Text())
		if traffic > maxTraffic {
			maxTraffic = traffic
		}
		trends = append(trends, rawTrend{
			title:   title,
			traffic: traffic,
			summary: strings.TrimSpace(sel.Find(`ht\:news_item_title`).First().Text()),
			link:    strings.TrimSpace(sel.Find(`ht\:news_item_url`).First().Text()),
		})
	})

	now := time.Now().UTC()
	out := make([]Candidate, 0, len(trends))
	for i, tr := range trends {
		if i >= limit {
			break
		}
		out = append(out, Candidate{
			Text:      tr.title,
			Source:    "trends/" + s.geo,
			Score:     tr.traffic / maxTraffic,
			Summary:   tr.summary,
			URL:       tr.link,
			FetchedAt: now,
		})
	}
	return out, nil
}

// parseTraffic decodes figures like "2,000,000+" or "500+".
func parseTraffic(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 1
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 1
	}
	return n
}
