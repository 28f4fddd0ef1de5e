package app

import (
	"context"
)

const flashKey = "flash"

// flash stores a message shown once by the next rendered layout.
func (a *App) flash(ctx context.Context, msg string) {
	a.sessions.Put(ctx, flashKey, msg)
}

func (a *App) popFlash(ctx context.Context) string {
	return a.sessions.PopString(ctx, flashKey)
}
