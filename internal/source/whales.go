package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pulseboard/internal/cache"
	"pulseboard/internal/config"
	"pulseboard/internal/proxy"
)

// Whales fetches recent large on-chain transfers. The USD amount is
// the ranking volume for the panel.
type Whales struct {
	name   string
	apiURL string
	limit  int
	client *proxy.Client
}

func NewWhales(cfg config.SourceConfig, client *proxy.Client) *Whales {
	limit := cfg.Limit
	if limit <= 0 {
		limit = 25
	}
	return &Whales{
		name:   cfg.Name,
		apiURL: cfg.URL,
		limit:  limit,
		client: client,
	}
}

func (s *Whales) Name() string { return s.name }

type whaleOwner struct {
	Owner string `json:"owner"`
}

type whaleTx struct {
	Hash      string          `json:"hash"`
	Symbol    string          `json:"symbol"`
	AmountUSD json.RawMessage `json:"amount_usd"`
	From      whaleOwner      `json:"from"`
	To        whaleOwner      `json:"to"`
	Timestamp int64           `json:"timestamp"`
}

type whaleResponse struct {
	Transactions []whaleTx `json:"transactions"`
}

func (s *Whales) Fetch(ctx context.Context) ([]cache.Record, error) {
	body, err := s.client.Get(ctx, s.apiURL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.name, err)
	}

	// The API wraps transactions in an object; some mirrors return a
	// bare array.
	var resp whaleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if err := json.Unmarshal(body, &resp.Transactions); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", s.name, err)
		}
	}

	now := time.Now()
	records := make([]cache.Record, 0, len(resp.Transactions))
	for _, tx := range resp.Transactions {
		if len(records) >= s.limit {
			break
		}

		id := tx.Hash
		if id == "" {
			id = recordID(fmt.Sprintf("%s/%d", tx.Symbol, tx.Timestamp))
		}

		pub := now
		if tx.Timestamp > 0 {
			pub = time.Unix(tx.Timestamp, 0)
		}

		amount := usdAmount(tx.AmountUSD)
		records = append(records, cache.Record{
			ID:        id,
			Source:    s.name,
			Title:     transferTitle(tx.Symbol, amount, tx.From.Owner, tx.To.Owner),
			Volume:    amount,
			Published: pub,
			FetchedAt: now,
		})
	}
	return records, nil
}

// usdAmount accepts the amount as a JSON number or a quoted string;
// anything else is 0.
func usdAmount(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func transferTitle(symbol string, amount float64, from, to string) string {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}
	return fmt.Sprintf("%s %s moved %s to %s",
		formatUSD(amount), strings.ToUpper(symbol), from, to)
}

func formatUSD(amount float64) string {
	switch {
	case amount >= 1e9:
		return fmt.Sprintf("$%.1fB", amount/1e9)
	case amount >= 1e6:
		return fmt.Sprintf("$%.1fM", amount/1e6)
	case amount >= 1e3:
		return fmt.Sprintf("$%.0fK", amount/1e3)
	default:
		return fmt.Sprintf("$%.0f", amount)
	}
}
