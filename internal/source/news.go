package source

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"pulseboard/internal/cache"
	"pulseboard/internal/config"
	"pulseboard/internal/proxy"
)

// News fetches a headline feed (RSS/Atom). The body travels through
// the configured network path so restricted feeds can be relayed, then
// gofeed parses it.
type News struct {
	name    string
	feedURL string
	client  *proxy.Client
	parser  *gofeed.Parser
}

func NewNews(cfg config.SourceConfig, client *proxy.Client) *News {
	return &News{
		name:    cfg.Name,
		feedURL: cfg.URL,
		client:  client,
		parser:  gofeed.NewParser(),
	}
}

func (s *News) Name() string { return s.name }

func (s *News) Fetch(ctx context.Context) ([]cache.Record, error) {
	body, err := s.client.Get(ctx, s.feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.name, err)
	}

	feed, err := s.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.name, err)
	}

	now := time.Now()
	maxAge := now.Add(-7 * 24 * time.Hour)
	records := make([]cache.Record, 0, len(feed.Items))
	for _, item := range feed.Items {
		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}

		// Skip headlines older than 7 days
		if pub.Before(maxAge) {
			continue
		}

		title := truncate(stripHTML(item.Title), 200)
		if title == "" || item.Link == "" {
			continue
		}

		records = append(records, cache.Record{
			ID:        recordID(item.Link),
			Source:    s.name,
			Title:     title,
			URL:       item.Link,
			Published: pub,
			FetchedAt: now,
		})
	}
	return records, nil
}
