// Package picker provides the source and destination selection view for
// the TUI.
package picker

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// Column identifies one of the two site lists.
type Column int

const (
	ColumnSource Column = iota
	ColumnDestination
)

// View lets the user pick a source and destination site, preview the
// source conversation and start a transfer.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	sites  []domain.SiteDescriptor

	source      int
	destination int
	focus       Column

	preview       *domain.ConversationPreview
	previewSource domain.SiteID
	result        *domain.TransferResult
	err           error
	busy          bool

	width  int
	height int
	ready  bool
}

// NewView creates a new picker view over the supported sites.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles: s,
		keymap: km,
		sites:  domain.Sites(),
		width:  80,
		height: 24,
	}
	if len(v.sites) > 1 {
		v.destination = 1
	}
	return v
}

// Init initialises the picker view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the picker view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.PreviewLoaded:
		v.busy = false
		v.result = nil
		v.err = msg.Err
		v.preview = msg.Preview
		v.previewSource = msg.Source
		return v, nil

	case messages.TransferFinished:
		v.busy = false
		v.err = msg.Err
		v.result = msg.Result
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Up):
		v.move(-1)
	case keymap.Matches(k, v.keymap.Down):
		v.move(1)
	case keymap.Matches(k, v.keymap.Switch):
		if v.focus == ColumnSource {
			v.focus = ColumnDestination
		} else {
			v.focus = ColumnSource
		}
	case keymap.Matches(k, v.keymap.Swap):
		v.source, v.destination = v.destination, v.source
	case keymap.Matches(k, v.keymap.Preview):
		if v.busy {
			return v, nil
		}
		v.busy = true
		src := v.Source()
		return v, func() tea.Msg {
			return messages.PreviewRequested{Source: src}
		}
	case keymap.Matches(k, v.keymap.Transfer):
		if v.busy {
			return v, nil
		}
		v.busy = true
		req := messages.TransferRequested{Source: v.Source(), Destination: v.Destination()}
		return v, func() tea.Msg {
			return req
		}
	}
	return v, nil
}

func (v *View) move(delta int) {
	cursor := &v.source
	if v.focus == ColumnDestination {
		cursor = &v.destination
	}
	next := *cursor + delta
	if next < 0 || next >= len(v.sites) {
		return
	}
	*cursor = next
}

// View renders the picker.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("ChatRelay"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Carry a conversation from one chat site to another"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		v.renderColumn("From", ColumnSource, v.source),
		" ",
		v.renderColumn("To", ColumnDestination, v.destination),
	))
	b.WriteString("\n")

	if v.preview != nil {
		b.WriteString("\n")
		b.WriteString(v.renderPreview())
	}
	if v.result != nil {
		b.WriteString("\n")
		b.WriteString(v.renderResult())
	}
	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render(v.err.Error()))
		b.WriteString("\n")
	}

	return b.String()
}

func (v *View) renderColumn(title string, col Column, cursor int) string {
	var b strings.Builder

	heading := v.styles.Muted
	if v.focus == col {
		heading = v.styles.Subtitle
	}
	b.WriteString(heading.Render(title))
	b.WriteString("\n")

	for i, site := range v.sites {
		if i == cursor {
			b.WriteString("> ")
			b.WriteString(v.styles.Selected.Render(site.DisplayName))
		} else {
			b.WriteString("  ")
			b.WriteString(v.styles.Normal.Render(site.DisplayName))
		}
		if i < len(v.sites)-1 {
			b.WriteString("\n")
		}
	}

	return v.styles.Column.Render(b.String())
}

func (v *View) renderPreview() string {
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Preview (%s)", v.previewSource.DisplayName())))
	b.WriteString("\n")
	for _, item := range v.preview.Items {
		role := domain.RoleAssistant
		if item.Label == "You" {
			role = domain.RoleUser
		}
		b.WriteString(v.styles.RoleLabel(role).Render(item.Label + ":"))
		b.WriteString(" ")
		b.WriteString(v.styles.Normal.Render(item.Content))
		b.WriteString("\n")
	}
	if more := v.preview.MoreText(); more != "" {
		b.WriteString(v.styles.Muted.Render(more))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderResult() string {
	var b strings.Builder

	r := v.result
	if r.State == domain.StateFailed {
		b.WriteString(v.styles.Error.Render("Transfer failed"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(v.styles.Success.Render(fmt.Sprintf("Transferred %d messages", r.Messages)))
	b.WriteString("\n")
	if !r.Delivered {
		b.WriteString(v.styles.Warning.Render("The prompt was not typed into the destination; paste it manually."))
		b.WriteString("\n")
	}
	if r.ExportPath != "" {
		b.WriteString(v.styles.Muted.Render("Exported to " + r.ExportPath))
		b.WriteString("\n")
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Source returns the selected source site.
func (v *View) Source() domain.SiteID {
	if len(v.sites) == 0 {
		return ""
	}
	return v.sites[v.source].ID
}

// Destination returns the selected destination site.
func (v *View) Destination() domain.SiteID {
	if len(v.sites) == 0 {
		return ""
	}
	return v.sites[v.destination].ID
}

// Focus returns the column the cursor keys act on.
func (v *View) Focus() Column {
	return v.focus
}

// Preview returns the last loaded preview.
func (v *View) Preview() *domain.ConversationPreview {
	return v.preview
}

// Result returns the last transfer result.
func (v *View) Result() *domain.TransferResult {
	return v.result
}

// Err returns the last error shown in the view.
func (v *View) Err() error {
	return v.err
}

// Busy reports whether a preview or transfer is in flight.
func (v *View) Busy() bool {
	return v.busy
}
