package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// SourceConfig describes one upstream call within a dataset.
type SourceConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"` // polymarket, rss, whales
	URL     string `yaml:"url"`
	Tag     string `yaml:"tag,omitempty"`
	Limit   int    `yaml:"limit,omitempty"`
	Proxied bool   `yaml:"proxied,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

// DatasetConfig describes one independently cached panel dataset.
type DatasetConfig struct {
	Key     string         `yaml:"key"`
	TTL     string         `yaml:"ttl"`
	Limit   int            `yaml:"limit,omitempty"`
	Sources []SourceConfig `yaml:"sources"`
}

// TTLDuration parses the dataset TTL, defaulting to 5 minutes.
func (d *DatasetConfig) TTLDuration() time.Duration {
	t, err := time.ParseDuration(d.TTL)
	if err != nil {
		return 5 * time.Minute
	}
	return t
}

// EnabledSources filters the dataset's source list.
func (d *DatasetConfig) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range d.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// ProxyConfig holds the two relay prefixes for allowlisted hosts. The
// target URL is query-escaped and appended to a prefix.
type ProxyConfig struct {
	Primary         string `yaml:"primary"`
	Secondary       string `yaml:"secondary"`
	RejectionMarker string `yaml:"rejection_marker"`
}

type Config struct {
	RequestDelay string          `yaml:"request_delay"`
	CallTimeout  string          `yaml:"call_timeout"`
	Retention    string          `yaml:"retention"`
	Proxy        ProxyConfig     `yaml:"proxy"`
	Datasets     []DatasetConfig `yaml:"datasets"`
}

// RequestDelayDuration is the stagger between launching source calls
// within one fan-out, a courtesy delay for rate-limited APIs.
func (c *Config) RequestDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.RequestDelay)
	if err != nil {
		return 250 * time.Millisecond
	}
	return d
}

// CallTimeoutDuration bounds each individual upstream call.
func (c *Config) CallTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.CallTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

func (c *Config) RetentionDuration() time.Duration {
	if c.Retention == "" {
		return 7 * 24 * time.Hour
	}
	// Support "Nd" day syntax
	if len(c.Retention) > 1 && c.Retention[len(c.Retention)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(c.Retention, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(c.Retention)
	if err != nil {
		return 7 * 24 * time.Hour
	}
	return d
}

// Dataset returns the configuration for a key, or nil if unknown.
func (c *Config) Dataset(key string) *DatasetConfig {
	for i := range c.Datasets {
		if c.Datasets[i].Key == key {
			return &c.Datasets[i]
		}
	}
	return nil
}

// DatasetKeys returns the configured dataset keys in file order.
func (c *Config) DatasetKeys() []string {
	keys := make([]string, 0, len(c.Datasets))
	for _, d := range c.Datasets {
		keys = append(keys, d.Key)
	}
	return keys
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "pulseboard", "config.yaml")
}

func SnapshotPath() string {
	return filepath.Join(xdg.CacheHome, "pulseboard", "snapshots.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	validTypes := map[string]bool{"polymarket": true, "rss": true, "whales": true}
	seen := map[string]bool{}
	for i, d := range cfg.Datasets {
		if d.Key == "" {
			return fmt.Errorf("dataset %d: key is required", i)
		}
		if seen[d.Key] {
			return fmt.Errorf("dataset %q: duplicate key", d.Key)
		}
		seen[d.Key] = true
		if d.TTL != "" {
			if _, err := time.ParseDuration(d.TTL); err != nil {
				return fmt.Errorf("dataset %q: invalid ttl: %w", d.Key, err)
			}
		}
		for _, s := range d.Sources {
			if s.Name == "" {
				return fmt.Errorf("dataset %q: source name is required", d.Key)
			}
			if s.URL == "" {
				return fmt.Errorf("source %q: url is required", s.Name)
			}
			u, err := url.Parse(s.URL)
			if err != nil {
				return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
			}
			if !validTypes[s.Type] {
				return fmt.Errorf("source %q: unknown type %q (valid: polymarket, rss, whales)", s.Name, s.Type)
			}
		}
	}
	return nil
}
