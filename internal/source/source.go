// Package source adapts upstream HTTP APIs to the canonical Record
// shape. Each adapter owns its wire format; parse failures on
// individual fields degrade to zero values instead of failing the
// whole call.
package source

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"pulseboard/internal/cache"
	"pulseboard/internal/config"
	"pulseboard/internal/proxy"
)

// Source is one upstream call within a dataset's fan-out.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]cache.Record, error)
}

// Clients carries the direct and relay-backed HTTP paths. Sources that
// cross the restricted network boundary get the proxied client.
type Clients struct {
	Direct  *proxy.Client
	Proxied *proxy.Client
}

func (c Clients) pick(proxied bool) *proxy.Client {
	if proxied {
		return c.Proxied
	}
	return c.Direct
}

// FromConfig builds the adapter for a configured source.
func FromConfig(cfg config.SourceConfig, clients Clients) (Source, error) {
	switch cfg.Type {
	case "polymarket":
		return NewMarkets(cfg, clients.pick(cfg.Proxied)), nil
	case "rss":
		return NewNews(cfg, clients.pick(cfg.Proxied)), nil
	case "whales":
		return NewWhales(cfg, clients.pick(cfg.Proxied)), nil
	default:
		return nil, fmt.Errorf("source %q: unknown type %q", cfg.Name, cfg.Type)
	}
}

func recordID(link string) string {
	h := sha256.Sum256([]byte(link))
	return fmt.Sprintf("%x", h[:16])
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
