package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/saravenpi/chatdeck/internal/chat"
	"github.com/saravenpi/chatdeck/internal/history"
	"github.com/saravenpi/chatdeck/internal/llm"
	"github.com/saravenpi/chatdeck/internal/prefs"
)

// App carries the services every screen needs.
type App struct {
	Paginator *history.Paginator
	Chats     *chat.Service
	Catalog   llm.Catalog
	Prefs     *prefs.Store
	UserID    string
	Log       zerolog.Logger
	Now       func() time.Time
	Ctx       context.Context

	// RemoteHistory is set when the history list comes from the remote API
	// while chats are opened and written locally.
	RemoteHistory bool
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) ctx() context.Context {
	if a.Ctx != nil {
		return a.Ctx
	}
	return context.Background()
}

// resize replays the last known window size into a freshly created screen.
func resize(m tea.Model, width, height int) (tea.Model, tea.Cmd) {
	if width <= 0 {
		return m, nil
	}
	return m.Update(tea.WindowSizeMsg{Width: width, Height: height})
}

// switchTo hands control to next, sized like the current screen.
func switchTo(next tea.Model, width, height int) (tea.Model, tea.Cmd) {
	sized, cmd := resize(next, width, height)
	return sized, tea.Batch(sized.Init(), cmd)
}
