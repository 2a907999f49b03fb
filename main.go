package main

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	wailswindows "github.com/wailsapp/wails/v2/pkg/options/windows"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"stock-overlay/internal/cache"
	"stock-overlay/internal/config"
	"stock-overlay/internal/overlay"
	"stock-overlay/internal/quote"
	"stock-overlay/internal/refresh"
)

//go:embed all:frontend/dist
var assets embed.FS

// EventUpdate carries a DisplayInfo to the frontend on every state change.
const EventUpdate = "overlay:update"

// App struct
type App struct {
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
	config  *config.Service
	cache   *cache.Service
	overlay *overlay.Service
	driver  *refresh.Driver
	drag    *overlay.DragController
	watcher *config.Watcher
}

// NewApp creates a new App application struct
func NewApp(configSvc *config.Service, log *slog.Logger) *App {
	return &App{config: configSvc, logger: log}
}

// OnStartup is called when the app starts up
func (a *App) OnStartup(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)
	cfg := a.config.Get()

	chain, err := quote.NewChain(cfg.Providers, quote.YahooOptions{
		Interval: cfg.Yahoo.Interval,
		Range:    cfg.Yahoo.Range,
		Timeout:  cfg.YahooTimeout(),
	}, cfg.Yahoo.BaseURLs)
	if err != nil {
		fmt.Printf("Failed to initialize quote providers: %v\n", err)
		os.Exit(1)
	}
	a.logger.Info("quote providers ready", "chain", chain.Name())

	a.cache = cache.New(cfg.Cache.MaxSize, cfg.CacheMaxAge())
	a.overlay = overlay.New(a.config)
	a.overlay.Subscribe(func(info overlay.DisplayInfo) {
		runtime.EventsEmit(a.ctx, EventUpdate, info)
	})

	a.drag = overlay.NewDragController(newWindowMover(a.ctx, cfg.Overlay.Title), a.overlay.IsLocked, a.logger)

	driver, err := refresh.NewFromConfig(cfg, chain, a.cache, a.overlay.Publish, a.logger)
	if err != nil {
		fmt.Printf("Failed to initialize refresh driver: %v\n", err)
		os.Exit(1)
	}
	a.driver = driver
	a.driver.Init(a.ctx)
	go a.driver.Run(a.ctx)

	watcher, err := config.NewWatcher(a.config, a.logger, a.onConfigChange)
	if err != nil {
		a.logger.Warn("config hot reload disabled", "error", err)
		return
	}
	if err := watcher.Start(); err != nil {
		a.logger.Warn("config hot reload disabled", "error", err)
		return
	}
	a.watcher = watcher
}

// onConfigChange applies the parts of a reloaded config that can change live.
func (a *App) onConfigChange(cfg *config.Config) {
	a.driver.SetSymbol(cfg.Symbol)
	if cfg.Overlay.Visible != a.overlay.IsVisible() {
		a.applyVisibility(cfg.Overlay.Visible)
	}
}

// OnShutdown is called when the app is shutting down
func (a *App) OnShutdown(ctx context.Context) {
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			a.logger.Debug("config watcher stop failed", "error", err)
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.overlay != nil {
		a.overlay.Shutdown()
	}
}

// GetDisplayInfo returns the latest clock and quote labels
func (a *App) GetDisplayInfo() overlay.DisplayInfo {
	if a.overlay == nil {
		return overlay.DisplayInfo{Quote: quote.Placeholder(a.config.Get().Symbol)}
	}
	return a.overlay.GetDisplayInfo()
}

// ToggleVisibility toggles overlay visibility
func (a *App) ToggleVisibility() bool {
	if a.overlay == nil {
		return false
	}
	visible := a.overlay.ToggleVisibility()
	a.showWindow(visible)
	return visible
}

func (a *App) applyVisibility(visible bool) {
	a.overlay.SetVisibility(visible)
	a.showWindow(visible)
}

func (a *App) showWindow(visible bool) {
	if visible {
		runtime.WindowShow(a.ctx)
	} else {
		runtime.WindowHide(a.ctx)
	}
}

// PointerDown starts dragging the overlay from screen position (x, y)
func (a *App) PointerDown(x, y int) {
	if a.drag != nil {
		a.drag.PointerDown(x, y)
	}
}

// PointerMove moves the overlay while the primary button is held
func (a *App) PointerMove(x, y int, held bool) bool {
	if a.drag == nil {
		return false
	}
	return a.drag.PointerMove(x, y, held)
}

// PointerUp ends a drag
func (a *App) PointerUp() {
	if a.drag != nil {
		a.drag.PointerUp()
	}
}

// wailsLogLevel maps the configured slog level onto the Wails runtime logger.
func wailsLogLevel(level slog.Level) logger.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return logger.DEBUG
	case level <= slog.LevelInfo:
		return logger.INFO
	case level <= slog.LevelWarn:
		return logger.WARNING
	default:
		return logger.ERROR
	}
}

func main() {
	configSvc, err := config.New()
	if err != nil {
		fmt.Printf("Failed to initialize config: %v\n", err)
		os.Exit(1)
	}
	cfg := configSvc.Get()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	// Create an instance of the app structure
	app := NewApp(configSvc, log)

	// Create application with options
	err = wails.Run(&options.App{
		Title:         cfg.Overlay.Title,
		Width:         cfg.Overlay.Width,
		Height:        cfg.Overlay.Height,
		DisableResize: true,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Frameless:        true,
		AlwaysOnTop:      true,
		StartHidden:      !cfg.Overlay.Visible,
		BackgroundColour: &options.RGBA{R: 0, G: 0, B: 0, A: 0}, // Transparent
		Windows: &wailswindows.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
		},
		Mac: &mac.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
		},
		Linux: &linux.Options{
			WindowIsTranslucent: true,
		},
		LogLevel:   wailsLogLevel(cfg.SlogLevel()),
		OnStartup:  app.OnStartup,
		OnShutdown: app.OnShutdown,
		Bind:       []interface{}{app},
	})

	if err != nil {
		fmt.Printf("Error starting application: %v\n", err)
		os.Exit(1)
	}
}
