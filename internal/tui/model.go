// Package tui renders the overlay's clock and quote labels in a terminal.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stock-overlay/internal/overlay"
	"stock-overlay/internal/refresh"
)

var (
	labelStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#000000")).
			Padding(0, 1)
	timeStyle    = labelStyle.Foreground(lipgloss.Color("#FFFF00"))
	quoteStyle   = labelStyle.Foreground(lipgloss.Color("#3DDC84"))
	staleStyle   = quoteStyle.Faint(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	columnMargin = lipgloss.NewStyle().Margin(1, 2)
)

// updateMsg carries a published snapshot into the program.
type updateMsg overlay.DisplayInfo

// Model is the watch view model.
type Model struct {
	info     overlay.DisplayInfo
	updates  <-chan overlay.DisplayInfo
	keys     KeyMap
	help     help.Model
	width    int
	quitting bool
}

// NewModel creates a model that renders snapshots received on updates.
func NewModel(updates <-chan overlay.DisplayInfo) Model {
	return Model{
		updates: updates,
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
}

// Info returns the snapshot currently on screen.
func (m Model) Info() overlay.DisplayInfo {
	return m.info
}

// Init starts listening for snapshots.
func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

// waitForUpdate blocks on the next snapshot.
func waitForUpdate(ch <-chan overlay.DisplayInfo) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		info, ok := <-ch
		if !ok {
			return nil
		}
		return updateMsg(info)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	case updateMsg:
		m.info = overlay.DisplayInfo(msg)
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

// View renders the two labels stacked like the desktop overlay.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if m.info.Time == "" && m.info.Quote == "" {
		b.WriteString(mutedStyle.Render("waiting for first tick..."))
	} else {
		b.WriteString(timeStyle.Render(m.info.Time))
		b.WriteString("\n")
		if m.info.Stale {
			b.WriteString(staleStyle.Render(m.info.Quote))
		} else {
			b.WriteString(quoteStyle.Render(m.info.Quote))
		}
		if m.info.Updated != "" {
			b.WriteString("\n")
			b.WriteString(mutedStyle.Render("updated " + m.info.Updated))
		}
		if m.info.Error != "" {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(m.info.Error))
		}
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	out := columnMargin.Render(b.String())
	if m.width > 0 {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, out)
	}
	return out
}

// Publisher returns a publish func that keeps only the newest snapshot in ch.
func Publisher(ch chan overlay.DisplayInfo) func(overlay.DisplayInfo) {
	return func(info overlay.DisplayInfo) {
		for {
			select {
			case ch <- info:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Run starts the driver loop and the terminal program, and blocks until the
// user quits. The driver must already be initialized.
func Run(ctx context.Context, driver *refresh.Driver, updates <-chan overlay.DisplayInfo) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go driver.Run(ctx)

	p := tea.NewProgram(NewModel(updates), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
