package topics

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const twitterTrendsURL = "https://api.twitter.com/2/trends/by/woeid/1"

// TwitterSource pulls worldwide trends from the X guest endpoint. The
// endpoint is rate limited and often blocked, so any failure degrades to an
// empty contribution; every trend carries the same flat score.
type TwitterSource struct {
	client  *http.Client
	baseURL string
}

func NewTwitterSource() *TwitterSource {
	return &TwitterSource{client: newHTTPClient(), baseURL: twitterTrendsURL}
}

func (s *TwitterSource) Name() string { return "twitter" }

type twitterTrends struct {
	Data []struct {
		TrendName  string `json:"trend_name"`
		TweetCount int    `json:"tweet_count"`
	} `json:"data"`
}

func (s *TwitterSource) Fetch(ctx context.Context, limit int) ([]Candidate, error) {
	body, err := fetchBody(ctx, s.client, s.baseURL)
	if err != nil {
		return nil, nil
	}
	var trends twitterTrends
	if err := json.Unmarshal(body, &trends); err != nil {
		return nil, nil
	}

	now := time.Now().UTC()
	out := make([]Candidate, 0, len(trends.Data))
	for i, trend := range trends.Data {
		if i >= limit {
			break
		}
		name := strings.TrimSpace(trend.TrendName)
		if name == "" {
			continue
		}
		out = append(out, Candidate{
			Text:      name,
			Source:    "twitter",
			Score:     0.7,
			FetchedAt: now,
		})
	}
	return out, nil
}
