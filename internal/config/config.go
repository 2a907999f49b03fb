package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Gate names accepted by Refresh.Gate.
const (
	GateAligned = "aligned"
	GateElapsed = "elapsed"
)

// Environment variables that override the config file.
const (
	EnvSymbol   = "STOCK_OVERLAY_SYMBOL"
	EnvLogLevel = "STOCK_OVERLAY_LOG_LEVEL"
)

// DefaultClockLayout renders timestamps as "YYYY-MM-DD HH:MM:SS".
const DefaultClockLayout = "2006-01-02 15:04:05"

// Config holds all application configuration
type Config struct {
	// Quote source settings
	Symbol    string      `json:"symbol" yaml:"symbol" toml:"symbol"`
	Providers []string    `json:"providers" yaml:"providers" toml:"providers"`
	Yahoo     YahooConfig `json:"yahoo" yaml:"yahoo" toml:"yahoo"`

	// Refresh cadence
	Refresh RefreshConfig `json:"refresh" yaml:"refresh" toml:"refresh"`
	Clock   ClockConfig   `json:"clock" yaml:"clock" toml:"clock"`

	// Overlay settings
	Overlay OverlayConfig `json:"overlay" yaml:"overlay" toml:"overlay"`

	Cache CacheConfig `json:"cache" yaml:"cache" toml:"cache"`
	Log   LogConfig   `json:"log" yaml:"log" toml:"log"`
}

// YahooConfig holds Yahoo Finance provider settings
type YahooConfig struct {
	BaseURLs  []string `json:"base_urls" yaml:"base_urls" toml:"base_urls"` // Tried in order
	Interval  string   `json:"interval" yaml:"interval" toml:"interval"`
	Range     string   `json:"range" yaml:"range" toml:"range"`
	TimeoutMs int      `json:"timeout_ms" yaml:"timeout_ms" toml:"timeout_ms"`
}

// RefreshConfig holds the clock tick and quote refresh settings
type RefreshConfig struct {
	TickMs         int    `json:"tick_ms" yaml:"tick_ms" toml:"tick_ms"`
	QuotePeriodSec int    `json:"quote_period_sec" yaml:"quote_period_sec" toml:"quote_period_sec"`
	Gate           string `json:"gate" yaml:"gate" toml:"gate"` // "aligned" or "elapsed"
	FetchTimeoutMs int    `json:"fetch_timeout_ms" yaml:"fetch_timeout_ms" toml:"fetch_timeout_ms"`
}

// ClockConfig holds the clock label settings
type ClockConfig struct {
	Layout string `json:"layout" yaml:"layout" toml:"layout"` // Go time layout
}

// OverlayConfig holds overlay window settings
type OverlayConfig struct {
	Title   string  `json:"title" yaml:"title" toml:"title"`
	Width   int     `json:"width" yaml:"width" toml:"width"`
	Height  int     `json:"height" yaml:"height" toml:"height"`
	Opacity float64 `json:"opacity" yaml:"opacity" toml:"opacity"`
	Visible bool    `json:"visible" yaml:"visible" toml:"visible"`
	Locked  bool    `json:"locked" yaml:"locked" toml:"locked"` // Disables dragging
}

// CacheConfig holds quote cache settings
type CacheConfig struct {
	MaxSize   int `json:"max_size" yaml:"max_size" toml:"max_size"`
	MaxAgeSec int `json:"max_age_sec" yaml:"max_age_sec" toml:"max_age_sec"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `json:"level" yaml:"level" toml:"level"` // debug, info, warn, error
}

// Service manages configuration persistence
type Service struct {
	mu       sync.RWMutex
	config   *Config
	filePath string
}

// DefaultPath returns ~/.stock-overlay/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".stock-overlay", "config.yaml"), nil
}

// New creates a config service backed by the default path
func New() (*Service, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewAt(path)
}

// NewAt creates a config service backed by path. The format follows the file
// extension (.yaml, .yml, .toml or .json). A missing file is created with
// defaults.
func NewAt(configPath string) (*Service, error) {
	if _, err := formatOf(configPath); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	service := &Service{
		filePath: configPath,
		config:   getDefaultConfig(),
	}

	// Load existing config if it exists, otherwise create a default config file
	if _, err := os.Stat(configPath); err == nil {
		if err := service.Load(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		if err := service.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		if _, err := effective(service.config); err != nil {
			return nil, err
		}
	}

	return service, nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		Symbol:    "0700.HK",
		Providers: []string{"yahoo"},
		Yahoo: YahooConfig{
			BaseURLs: []string{
				"https://query1.finance.yahoo.com",
				"https://query2.finance.yahoo.com",
			},
			Interval:  "1m",
			Range:     "1d",
			TimeoutMs: 8000,
		},
		Refresh: RefreshConfig{
			TickMs:         1000,
			QuotePeriodSec: 30,
			Gate:           GateAligned,
			FetchTimeoutMs: 10000,
		},
		Clock: ClockConfig{
			Layout: DefaultClockLayout,
		},
		Overlay: OverlayConfig{
			Title:   "Stock Overlay",
			Width:   180,
			Height:  300,
			Opacity: 1.0,
			Visible: true,
			Locked:  false,
		},
		Cache: CacheConfig{
			MaxSize:   16,
			MaxAgeSec: 600,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Default returns a copy of the default configuration.
func Default() *Config {
	return getDefaultConfig()
}

// Get returns a copy of the current configuration with environment
// overrides applied. The overrides are never written back to the file.
func (s *Service) Get() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.config.clone()
	// Load already rejected invalid overrides.
	_ = applyEnvOverrides(cfg)
	return cfg
}

// effective returns a copy of cfg with environment overrides applied.
func effective(cfg *Config) (*Config, error) {
	out := cfg.clone()
	if err := applyEnvOverrides(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Set updates the file-backed configuration
func (s *Service) Set(config *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config.clone()
}

// Load loads configuration from file, applies environment overrides and
// validates the result. On error the current configuration is kept.
func (s *Service) Load() error {
	cfg, err := readFile(s.filePath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	return nil
}

// readFile decodes path on top of the defaults. The returned config is the
// file's content; it is validated as it would run, with overrides applied.
func readFile(path string) (*Config, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := getDefaultConfig()
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, cfg)
	case "toml":
		err = toml.Unmarshal(data, cfg)
	case "json":
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s config: %w", format, err)
	}

	eff, err := effective(cfg)
	if err != nil {
		return nil, err
	}
	if err := eff.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to file
func (s *Service) Save() error {
	s.mu.RLock()
	cfg := s.config.clone()
	s.mu.RUnlock()

	data, err := Marshal(cfg, s.filePath)
	if err != nil {
		return err
	}

	return os.WriteFile(s.filePath, data, 0644)
}

// Marshal encodes cfg in the format implied by path's extension.
func Marshal(cfg *Config, path string) ([]byte, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case "yaml":
		return yaml.Marshal(cfg)
	case "toml":
		return toml.Marshal(cfg)
	default:
		return json.MarshalIndent(cfg, "", "  ")
	}
}

// Path returns the full path to the configuration file
func (s *Service) Path() string {
	return s.filePath
}

// UpdateOverlay updates overlay configuration
func (s *Service) UpdateOverlay(overlay OverlayConfig) error {
	s.mu.Lock()
	s.config.Overlay = overlay
	s.mu.Unlock()
	return s.Save()
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	case ".json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported config format %q (want .yaml, .toml or .json)", filepath.Ext(path))
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvSymbol)); v != "" {
		cfg.Symbol = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		if _, err := parseLevel(v); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
		}
		cfg.Log.Level = v
	}
	return nil
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("symbol must not be empty")
	}
	if c.Refresh.TickMs <= 0 {
		return fmt.Errorf("refresh.tick_ms must be positive, got %d", c.Refresh.TickMs)
	}
	if c.Refresh.QuotePeriodSec <= 0 {
		return fmt.Errorf("refresh.quote_period_sec must be positive, got %d", c.Refresh.QuotePeriodSec)
	}
	if (c.Refresh.QuotePeriodSec*1000)%c.Refresh.TickMs != 0 {
		return fmt.Errorf("refresh.quote_period_sec (%ds) must be a whole number of ticks (%dms)",
			c.Refresh.QuotePeriodSec, c.Refresh.TickMs)
	}
	switch c.Refresh.Gate {
	case GateAligned:
		// The aligned gate checks whole seconds, so every second must get a tick.
		if 1000%c.Refresh.TickMs != 0 {
			return fmt.Errorf("refresh.gate %q needs tick_ms to divide 1000, got %d (use %q)",
				GateAligned, c.Refresh.TickMs, GateElapsed)
		}
	case GateElapsed:
	default:
		return fmt.Errorf("refresh.gate must be %q or %q, got %q", GateAligned, GateElapsed, c.Refresh.Gate)
	}
	if c.Overlay.Width <= 0 || c.Overlay.Height <= 0 {
		return fmt.Errorf("overlay size must be positive, got %dx%d", c.Overlay.Width, c.Overlay.Height)
	}
	if c.Overlay.Opacity <= 0 || c.Overlay.Opacity > 1 {
		return fmt.Errorf("overlay.opacity must be in (0, 1], got %g", c.Overlay.Opacity)
	}
	if c.Clock.Layout == "" {
		return fmt.Errorf("clock.layout must not be empty")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// TickInterval is the clock refresh interval.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Refresh.TickMs) * time.Millisecond
}

// QuotePeriod is the quote refresh period.
func (c *Config) QuotePeriod() time.Duration {
	return time.Duration(c.Refresh.QuotePeriodSec) * time.Second
}

// FetchTimeout bounds a single quote fetch.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Refresh.FetchTimeoutMs) * time.Millisecond
}

// YahooTimeout is the HTTP client timeout for Yahoo requests.
func (c *Config) YahooTimeout() time.Duration {
	return time.Duration(c.Yahoo.TimeoutMs) * time.Millisecond
}

// CacheMaxAge is how long a cached quote stays usable.
func (c *Config) CacheMaxAge() time.Duration {
	return time.Duration(c.Cache.MaxAgeSec) * time.Second
}

// SlogLevel maps Log.Level to a slog level. Unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (c *Config) clone() *Config {
	out := *c
	out.Providers = slices.Clone(c.Providers)
	out.Yahoo.BaseURLs = slices.Clone(c.Yahoo.BaseURLs)
	return &out
}
