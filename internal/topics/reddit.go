package topics

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/services"
)

const redditBaseURL = "https://www.reddit.com"

// RedditSource pulls hot posts from a set of subreddits. Post score is
// compressed with log10 so a single viral thread does not drown the rest.
type RedditSource struct {
	client     *http.Client
	baseURL    string
	subreddits []string
}

func NewRedditSource(cfg config.Reddit) *RedditSource {
	return &RedditSource{
		client:     newHTTPClient(),
		baseURL:    redditBaseURL,
		subreddits: cfg.Subreddits,
	}
}

func (s *RedditSource) Name() string { return "reddit" }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title    string  `json:"title"`
				Selftext string  `json:"selftext"`
				URL      string  `json:"url"`
				Score    float64 `json:"score"`
				Stickied bool    `json:"stickied"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (s *RedditSource) Fetch(ctx context.Context, limit int) ([]Candidate, error) {
	now := time.Now().UTC()
	var out []Candidate
	for _, sub := range s.subreddits {
		url := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", s.baseURL, sub, limit)
		body, err := fetchBody(ctx, s.client, url)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "", "reddit", "fetch r/"+sub, err)
		}

		var listing redditListing
		if err := json.Unmarshal(body, &listing); err != nil {
			return nil, services.Wrap(services.ErrTransient, "", "reddit", "decode r/"+sub, err)
		}

		for _, child := range listing.Data.Children {
			post := child.Data
			if post.Stickied || post.Title == "" {
				continue
			}
			out = append(out, Candidate{
				Text:      post.Title,
				Source:    "reddit/" + sub,
				Score:     math.Log10(post.Score+1) / 4,
				Summary:   post.Selftext,
				URL:       post.URL,
				FetchedAt: now,
			})
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
