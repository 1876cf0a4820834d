// Package history provides the recent transfers view for the TUI.
package history

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chatrelay/internal/core/domain"
	"github.com/custodia-labs/chatrelay/internal/core/ports/driving"
)

// DefaultLimit is how many transfers the view loads.
const DefaultLimit = 20

// View lists recorded transfers, newest first.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	transfer driving.TransferService

	transfers []domain.TransferStatus
	selected  int
	loading   bool
	err       error

	width  int
	height int
	ready  bool
}

// NewView creates a new history view.
func NewView(s *styles.Styles, km *keymap.KeyMap, transfer driving.TransferService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:   s,
		keymap:   km,
		transfer: transfer,
	}
}

// Init loads the transfer history.
func (v *View) Init() tea.Cmd {
	return v.load()
}

// load returns a command that fetches the history from the service.
func (v *View) load() tea.Cmd {
	v.loading = true
	return func() tea.Msg {
		if v.transfer == nil {
			return messages.HistoryLoaded{Err: fmt.Errorf("transfer service not available")}
		}
		transfers, err := v.transfer.History(context.Background(), DefaultLimit)
		return messages.HistoryLoaded{Transfers: transfers, Err: err}
	}
}

// Update handles messages for the history view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.HistoryLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.transfers = msg.Transfers
			if v.selected >= len(v.transfers) {
				v.selected = 0
			}
		}
		return v, nil

	case tea.KeyMsg:
		k := msg.String()
		switch {
		case keymap.Matches(k, v.keymap.Up):
			if v.selected > 0 {
				v.selected--
			}
		case keymap.Matches(k, v.keymap.Down):
			if v.selected < len(v.transfers)-1 {
				v.selected++
			}
		case keymap.Matches(k, v.keymap.Refresh):
			return v, v.load()
		case keymap.Matches(k, v.keymap.Back):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewPicker}
			}
		}
	}

	return v, nil
}

// View renders the history.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Recent transfers"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
		b.WriteString("\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %v", v.err)))
		b.WriteString("\n")
	case len(v.transfers) == 0:
		b.WriteString(v.styles.Muted.Render("No transfers yet."))
		b.WriteString("\n")
	default:
		for i, t := range v.transfers {
			cursor := "  "
			if i == v.selected {
				cursor = "> "
			}
			b.WriteString(cursor)
			b.WriteString(v.renderRow(t, i == v.selected))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [r] Refresh  [esc] Back"))
	return b.String()
}

func (v *View) renderRow(t domain.TransferStatus, selected bool) string {
	route := fmt.Sprintf("%s -> %s", t.Source.DisplayName(), t.Destination.DisplayName())
	when := t.StartedAt.Local().Format("2006-01-02 15:04")

	state := v.styles.Muted.Render(t.State.String())
	switch t.State {
	case domain.StateCompleted:
		state = v.styles.Success.Render(t.State.String())
		if !t.Delivered {
			state += v.styles.Warning.Render(" (not delivered)")
		}
	case domain.StateFailed:
		state = v.styles.Error.Render(t.State.String())
	}

	name := v.styles.Normal.Render(route)
	if selected {
		name = v.styles.Selected.Render(route)
	}

	line := fmt.Sprintf("%s  %s  %s", v.styles.Muted.Render(when), name, state)
	if t.Error != "" && selected {
		line += "\n    " + v.styles.Error.Render(t.Error)
	}
	return line
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Transfers returns the loaded transfers.
func (v *View) Transfers() []domain.TransferStatus {
	return v.transfers
}

// Selected returns the selected row index.
func (v *View) Selected() int {
	return v.selected
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
