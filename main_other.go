//go:build !windows

package main

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// runtimeMover moves the overlay through the Wails runtime on platforms
// without a native implementation.
type runtimeMover struct {
	ctx context.Context
}

func newWindowMover(ctx context.Context, _ string) *runtimeMover {
	return &runtimeMover{ctx: ctx}
}

// MoveBy offsets the window by (dx, dy) screen pixels.
func (m *runtimeMover) MoveBy(dx, dy int) error {
	x, y := runtime.WindowGetPosition(m.ctx)
	runtime.WindowSetPosition(m.ctx, x+dx, y+dy)
	return nil
}
