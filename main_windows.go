//go:build windows

package main

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"stock-overlay/internal/overlay"
)

// SetWindowPos flags
const (
	_SWP_NOSIZE     = 0x0001
	_SWP_NOZORDER   = 0x0004
	_SWP_NOACTIVATE = 0x0010
)

var (
	user32            = windows.NewLazyDLL("user32.dll")
	procFindWindowW   = user32.NewProc("FindWindowW")
	procGetWindowRect = user32.NewProc("GetWindowRect")
	procSetWindowPos  = user32.NewProc("SetWindowPos")

	// Windows 10 1607+
	procGetDpiForWindow = user32.NewProc("GetDpiForWindow")
)

// _USER_DEFAULT_SCREEN_DPI is the DPI at 100% display scaling.
const _USER_DEFAULT_SCREEN_DPI = 96

// nativeMover moves the overlay through user32 so drags stay smooth even
// while the webview is busy.
type nativeMover struct {
	mu    sync.Mutex
	title string
	hwnd  uintptr
}

// newWindowMover returns a mover taking CSS-pixel deltas from the frontend;
// SetWindowPos works in physical pixels, so deltas are scaled by the DPI.
func newWindowMover(_ context.Context, title string) overlay.WindowMover {
	m := &nativeMover{title: title}
	return overlay.NewScaledMover(m, m.scale)
}

// scale reports physical pixels per CSS pixel for the overlay's monitor.
func (m *nativeMover) scale() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if procGetDpiForWindow.Find() != nil {
		return 1
	}
	hwnd, err := m.resolve()
	if err != nil {
		return 1
	}
	dpi, _, _ := procGetDpiForWindow.Call(hwnd)
	if dpi == 0 {
		return 1
	}
	return float64(dpi) / _USER_DEFAULT_SCREEN_DPI
}

// resolve finds the overlay window by its title
func (m *nativeMover) resolve() (uintptr, error) {
	if m.hwnd != 0 {
		return m.hwnd, nil
	}

	title, err := windows.UTF16PtrFromString(m.title)
	if err != nil {
		return 0, err
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(title)))
	if hwnd == 0 {
		return 0, fmt.Errorf("overlay window %q not found", m.title)
	}
	m.hwnd = hwnd
	return hwnd, nil
}

// MoveBy offsets the window by (dx, dy) screen pixels.
func (m *nativeMover) MoveBy(dx, dy int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hwnd, err := m.resolve()
	if err != nil {
		return err
	}

	var rect windows.Rect
	ret, _, callErr := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&rect)))
	if ret == 0 {
		m.hwnd = 0 // window was recreated; look it up again next time
		return fmt.Errorf("GetWindowRect: %w", callErr)
	}

	x := int(rect.Left) + dx
	y := int(rect.Top) + dy
	ret, _, callErr = procSetWindowPos.Call(
		hwnd,
		0,
		uintptr(x),
		uintptr(y),
		0,
		0,
		_SWP_NOSIZE|_SWP_NOZORDER|_SWP_NOACTIVATE,
	)
	if ret == 0 {
		return fmt.Errorf("SetWindowPos: %w", callErr)
	}
	return nil
}
