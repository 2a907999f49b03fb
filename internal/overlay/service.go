package overlay

import (
	"slices"
	"sync"
	"time"

	"stock-overlay/internal/config"
)

// Service holds the latest published display snapshot and the overlay
// window's visibility. It is safe for concurrent use.
type Service struct {
	config     *config.Service
	mu         sync.RWMutex
	current    DisplayInfo
	isVisible  bool
	lastUpdate time.Time
	listeners  []func(DisplayInfo)
}

// New creates a new overlay service
func New(configSvc *config.Service) *Service {
	return &Service{
		config:    configSvc,
		isVisible: configSvc.Get().Overlay.Visible,
	}
}

// Subscribe registers fn to receive every published snapshot.
func (s *Service) Subscribe(fn func(DisplayInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Publish stores info as the current snapshot and notifies subscribers.
func (s *Service) Publish(info DisplayInfo) {
	opacity := s.config.Get().Overlay.Opacity

	s.mu.Lock()
	info.Visible = s.isVisible
	info.Opacity = opacity
	s.current = info
	s.lastUpdate = time.Now()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(info)
	}
}

// GetDisplayInfo returns the most recently published snapshot
func (s *Service) GetDisplayInfo() DisplayInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// LastUpdate returns when a snapshot was last published
func (s *Service) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// ToggleVisibility toggles the overlay visibility
func (s *Service) ToggleVisibility() bool {
	s.mu.Lock()
	s.isVisible = !s.isVisible
	s.current.Visible = s.isVisible
	visible := s.isVisible
	s.mu.Unlock()

	s.persistVisibility(visible)
	return visible
}

// IsVisible returns current visibility state
func (s *Service) IsVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isVisible
}

// SetVisibility sets the overlay visibility
func (s *Service) SetVisibility(visible bool) {
	s.mu.Lock()
	s.isVisible = visible
	s.current.Visible = visible
	s.mu.Unlock()

	s.persistVisibility(visible)
}

func (s *Service) persistVisibility(visible bool) {
	cfg := s.config.Get()
	cfg.Overlay.Visible = visible
	s.config.UpdateOverlay(cfg.Overlay)
}

// IsLocked reports whether dragging is disabled
func (s *Service) IsLocked() bool {
	return s.config.Get().Overlay.Locked
}

// GetOverlayConfig returns current overlay configuration
func (s *Service) GetOverlayConfig() config.OverlayConfig {
	return s.config.Get().Overlay
}

// UpdateOverlayConfig updates overlay configuration
func (s *Service) UpdateOverlayConfig(overlayConfig config.OverlayConfig) error {
	return s.config.UpdateOverlay(overlayConfig)
}

// Shutdown performs cleanup
func (s *Service) Shutdown() {
	// Save current state
	s.config.Save()
}
