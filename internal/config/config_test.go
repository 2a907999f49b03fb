package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := getDefaultConfig()

	assert.Equal(t, "0700.HK", cfg.Symbol)
	assert.Equal(t, []string{"yahoo"}, cfg.Providers)
	assert.Equal(t, 180, cfg.Overlay.Width)
	assert.Equal(t, 300, cfg.Overlay.Height)
	assert.Equal(t, GateAligned, cfg.Refresh.Gate)
	assert.Equal(t, time.Second, cfg.TickInterval())
	assert.Equal(t, 30*time.Second, cfg.QuotePeriod())
	assert.Equal(t, DefaultClockLayout, cfg.Clock.Layout)
	assert.NoError(t, cfg.Validate())
}

func TestNewAt_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	service, err := NewAt(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config file should be created")
	assert.Equal(t, path, service.Path())
	assert.Equal(t, "0700.HK", service.Get().Symbol)
}

func TestNewAt_UnsupportedFormat(t *testing.T) {
	_, err := NewAt(filepath.Join(t.TempDir(), "config.ini"))
	assert.Error(t, err)
}

func TestConfig_SaveAndLoad_AllFormats(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.yml", "config.toml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			service := &Service{filePath: path, config: getDefaultConfig()}
			cfg := service.Get()
			cfg.Symbol = "9988.HK"
			cfg.Refresh.Gate = GateElapsed
			cfg.Overlay.Locked = true
			service.Set(cfg)
			require.NoError(t, service.Save())

			service2 := &Service{filePath: path, config: getDefaultConfig()}
			require.NoError(t, service2.Load())

			loaded := service2.Get()
			assert.Equal(t, "9988.HK", loaded.Symbol)
			assert.Equal(t, GateElapsed, loaded.Refresh.Gate)
			assert.True(t, loaded.Overlay.Locked)
			assert.Equal(t, 180, loaded.Overlay.Width)
		})
	}
}

func TestConfig_LoadPartialYAMLKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
symbol: AAPL
providers: [stub]
refresh:
  gate: elapsed
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	service, err := NewAt(path)
	require.NoError(t, err)

	cfg := service.Get()
	assert.Equal(t, "AAPL", cfg.Symbol)
	assert.Equal(t, []string{"stub"}, cfg.Providers)
	assert.Equal(t, GateElapsed, cfg.Refresh.Gate)
	assert.Equal(t, 1000, cfg.Refresh.TickMs)
	assert.Equal(t, 30, cfg.Refresh.QuotePeriodSec)
}

func TestConfig_LoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
symbol = "MSFT"

[refresh]
quote_period_sec = 60

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	service, err := NewAt(path)
	require.NoError(t, err)

	cfg := service.Get()
	assert.Equal(t, "MSFT", cfg.Symbol)
	assert.Equal(t, 60*time.Second, cfg.QuotePeriod())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestConfig_LoadInvalidKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	service, err := NewAt(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("refresh:\n  gate: sometimes\n"), 0644))

	assert.Error(t, service.Load())
	assert.Equal(t, GateAligned, service.Get().Refresh.Gate)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv(EnvSymbol, "  TSLA ")
	t.Setenv(EnvLogLevel, "warn")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbol: AAPL\n"), 0644))

	service, err := NewAt(path)
	require.NoError(t, err)

	cfg := service.Get()
	assert.Equal(t, "TSLA", cfg.Symbol)
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}

func TestConfig_EnvOverrideNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbol: AAPL\n"), 0644))

	t.Setenv(EnvSymbol, "TSLA")
	service, err := NewAt(path)
	require.NoError(t, err)
	require.Equal(t, "TSLA", service.Get().Symbol)

	overlay := service.Get().Overlay
	overlay.Visible = false
	require.NoError(t, service.UpdateOverlay(overlay))
	require.NoError(t, service.Save())

	os.Unsetenv(EnvSymbol)
	reloaded, err := NewAt(path)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", reloaded.Get().Symbol, "override stays out of the file")
	assert.False(t, reloaded.Get().Overlay.Visible, "the overlay change itself was saved")
}

func TestConfig_ElapsedGateAllowsAnyWholeTick(t *testing.T) {
	cfg := Default()
	cfg.Refresh.Gate = GateElapsed
	cfg.Refresh.TickMs = 2000
	assert.NoError(t, cfg.Validate())
}

func TestConfig_EnvOverrideInvalidLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "chatty")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbol: AAPL\n"), 0644))

	_, err := NewAt(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty symbol", func(c *Config) { c.Symbol = "  " }},
		{"zero tick", func(c *Config) { c.Refresh.TickMs = 0 }},
		{"zero period", func(c *Config) { c.Refresh.QuotePeriodSec = 0 }},
		{"period not whole ticks", func(c *Config) { c.Refresh.TickMs = 7000 }},
		{"unknown gate", func(c *Config) { c.Refresh.Gate = "random" }},
		{"aligned gate with tick skipping seconds", func(c *Config) { c.Refresh.TickMs = 2000 }},
		{"aligned gate with 750ms tick", func(c *Config) { c.Refresh.TickMs = 750; c.Refresh.QuotePeriodSec = 30 }},
		{"zero opacity", func(c *Config) { c.Overlay.Opacity = 0 }},
		{"opacity above one", func(c *Config) { c.Overlay.Opacity = 1.5 }},
		{"zero width", func(c *Config) { c.Overlay.Width = 0 }},
		{"empty layout", func(c *Config) { c.Clock.Layout = "" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := getDefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_UpdateOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	service := &Service{filePath: path, config: getDefaultConfig()}

	overlayCfg := OverlayConfig{
		Title:   "Ticker",
		Width:   200,
		Height:  320,
		Opacity: 0.8,
		Visible: false,
		Locked:  true,
	}
	require.NoError(t, service.UpdateOverlay(overlayCfg))

	service2 := &Service{filePath: path, config: getDefaultConfig()}
	require.NoError(t, service2.Load())
	assert.Equal(t, overlayCfg, service2.Get().Overlay)
}

func TestService_GetReturnsCopy(t *testing.T) {
	service := &Service{filePath: "unused.yaml", config: getDefaultConfig()}

	cfg := service.Get()
	cfg.Symbol = "CHANGED"
	cfg.Providers[0] = "stub"

	assert.Equal(t, "0700.HK", service.Get().Symbol)
	assert.Equal(t, "yahoo", service.Get().Providers[0])
}
