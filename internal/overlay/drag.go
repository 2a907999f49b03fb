package overlay

import (
	"log/slog"
	"math"
	"sync"
)

// WindowMover moves the overlay window by a screen-space delta.
type WindowMover interface {
	MoveBy(dx, dy int) error
}

// ScaledMover converts logical pointer deltas into the device pixels the
// wrapped mover works in. Rounding remainders carry over between moves so a
// slow drag does not drift away from the pointer.
type ScaledMover struct {
	mover      WindowMover
	scale      func() float64
	remX, remY float64
}

// NewScaledMover wraps mover. scale reports device pixels per logical pixel;
// non-positive values are treated as 1.
func NewScaledMover(mover WindowMover, scale func() float64) *ScaledMover {
	return &ScaledMover{mover: mover, scale: scale}
}

// MoveBy scales (dx, dy) and forwards the whole-pixel part.
func (m *ScaledMover) MoveBy(dx, dy int) error {
	f := m.scale()
	if f <= 0 {
		f = 1
	}
	fx := float64(dx)*f + m.remX
	fy := float64(dy)*f + m.remY
	ix, iy := math.Round(fx), math.Round(fy)
	if ix == 0 && iy == 0 {
		m.remX, m.remY = fx, fy
		return nil
	}
	if err := m.mover.MoveBy(int(ix), int(iy)); err != nil {
		return err
	}
	m.remX, m.remY = fx-ix, fy-iy
	return nil
}

// DragController turns pointer events over the overlay into window moves.
// It keeps only pointer bookkeeping and never touches State.
type DragController struct {
	mu       sync.Mutex
	mover    WindowMover
	locked   func() bool
	logger   *slog.Logger
	dragging bool
	lastX    int
	lastY    int
}

// NewDragController creates a drag controller. locked may be nil.
func NewDragController(mover WindowMover, locked func() bool, logger *slog.Logger) *DragController {
	if logger == nil {
		logger = slog.Default()
	}
	if locked == nil {
		locked = func() bool { return false }
	}
	return &DragController{mover: mover, locked: locked, logger: logger}
}

// PointerDown starts a drag at screen position (x, y).
func (d *DragController) PointerDown(x, y int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.locked() {
		return
	}
	d.dragging = true
	d.lastX, d.lastY = x, y
}

// PointerMove handles a move to screen position (x, y). While the button is
// held it requests a window move by the delta since the last position and
// reports whether it did.
func (d *DragController) PointerMove(x, y int, held bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !held {
		// Button released outside the window.
		d.dragging = false
		return false
	}
	if !d.dragging || d.locked() {
		return false
	}

	dx, dy := x-d.lastX, y-d.lastY
	if dx == 0 && dy == 0 {
		return false
	}
	d.lastX, d.lastY = x, y

	if err := d.mover.MoveBy(dx, dy); err != nil {
		d.logger.Debug("window move failed", "dx", dx, "dy", dy, "error", err)
		return false
	}
	return true
}

// PointerUp ends the drag.
func (d *DragController) PointerUp() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dragging = false
}

// Dragging reports whether a drag is in progress.
func (d *DragController) Dragging() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dragging
}
