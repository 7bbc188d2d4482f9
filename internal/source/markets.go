package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"pulseboard/internal/cache"
	"pulseboard/internal/config"
	"pulseboard/internal/proxy"
)

// Markets fetches one tag-scoped page of prediction markets from a
// Gamma-style API.
type Markets struct {
	name    string
	baseURL string
	tag     string
	limit   int
	client  *proxy.Client
}

func NewMarkets(cfg config.SourceConfig, client *proxy.Client) *Markets {
	limit := cfg.Limit
	if limit <= 0 {
		limit = 50
	}
	return &Markets{
		name:    cfg.Name,
		baseURL: cfg.URL,
		tag:     cfg.Tag,
		limit:   limit,
		client:  client,
	}
}

func (s *Markets) Name() string { return s.name }

type gammaMarket struct {
	ID            string  `json:"id"`
	Question      string  `json:"question"`
	Slug          string  `json:"slug"`
	VolumeNum     float64 `json:"volumeNum"`
	OutcomePrices string  `json:"outcomePrices"`
	EndDate       string  `json:"endDate"`
}

func (s *Markets) Fetch(ctx context.Context) ([]cache.Record, error) {
	u := fmt.Sprintf("%s/markets?closed=false&order=volumeNum&ascending=false&limit=%d&tag=%s",
		s.baseURL, s.limit, url.QueryEscape(s.tag))

	body, err := s.client.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.name, err)
	}

	var markets []gammaMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.name, err)
	}

	now := time.Now()
	records := make([]cache.Record, 0, len(markets))
	for _, m := range markets {
		if m.ID == "" || m.Question == "" {
			continue
		}
		records = append(records, cache.Record{
			ID:          m.ID,
			Source:      s.name,
			Title:       m.Question,
			URL:         "https://polymarket.com/market/" + m.Slug,
			Volume:      m.VolumeNum,
			Probability: yesPrice(m.OutcomePrices),
			Published:   endDate(m.EndDate),
			FetchedAt:   now,
		})
	}
	return records, nil
}

// yesPrice extracts the first outcome price from the API's
// JSON-encoded array of strings ("[\"0.62\", \"0.38\"]"). Anything
// absent or malformed is 0, never an error.
func yesPrice(encoded string) float64 {
	var prices []string
	if err := json.Unmarshal([]byte(encoded), &prices); err != nil || len(prices) == 0 {
		return 0
	}
	p, err := strconv.ParseFloat(prices[0], 64)
	if err != nil {
		return 0
	}
	return p
}

func endDate(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
