package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/views/history"
	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/views/picker"
	"github.com/custodia-labs/chatrelay/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// keymap holds the keybindings shared by every view.
	keymap *keymap.KeyMap

	// pickerView selects the sites and runs previews and transfers.
	pickerView *picker.View

	// historyView lists recent transfers.
	historyView *history.View

	// statusBar shows progress and keybinding hints.
	statusBar *status.Bar

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		pickerView:  picker.NewView(s, km),
		historyView: history.NewView(s, km, ports.Transfer),
		statusBar:   status.NewBar(s, km),
		currentView: messages.ViewPicker,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("chatrelay"),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case spinner.TickMsg:
		a.statusBar, cmd = a.statusBar.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.PreviewRequested:
		a.err = nil
		start := a.statusBar.Start(fmt.Sprintf("Reading %s...", msg.Source.DisplayName()))
		return a, tea.Batch(start, a.preview(msg.Source))

	case messages.TransferRequested:
		a.err = nil
		start := a.statusBar.Start(fmt.Sprintf("Transferring %s -> %s...",
			msg.Source.DisplayName(), msg.Destination.DisplayName()))
		return a, tea.Batch(start, a.transfer(msg.Source, msg.Destination))

	case messages.PreviewLoaded:
		a.pickerView, cmd = a.pickerView.Update(msg)
		if msg.Err != nil {
			a.fail(msg.Err)
		} else {
			a.statusBar.SetState(status.StateDone)
			a.statusBar.SetMessage(fmt.Sprintf("%d messages on %s", msg.Preview.Total, msg.Source.DisplayName()))
		}
		return a, cmd

	case messages.TransferFinished:
		a.pickerView, cmd = a.pickerView.Update(msg)
		switch {
		case msg.Err != nil:
			a.fail(msg.Err)
		case msg.Result != nil && msg.Result.State == domain.StateFailed:
			a.fail(fmt.Errorf("transfer %s failed", msg.Result.ID))
		default:
			a.statusBar.SetState(status.StateDone)
			a.statusBar.SetMessage("Transfer complete")
		}
		return a, cmd

	case messages.HistoryLoaded:
		a.historyView, cmd = a.historyView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.fail(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, nil
}

func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	k := msg.String()

	if k == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.currentView {
	case messages.ViewHelp:
		if keymap.Matches(k, a.keymap.Quit) {
			return a, tea.Quit
		}
		if keymap.Matches(k, a.keymap.Back) || keymap.Matches(k, a.keymap.Help) {
			return a, a.switchView(messages.ViewPicker)
		}
		return a, nil

	case messages.ViewHistory:
		if keymap.Matches(k, a.keymap.Quit) {
			return a, tea.Quit
		}
		a.historyView, cmd = a.historyView.Update(msg)
		return a, cmd

	default:
		switch {
		case keymap.Matches(k, a.keymap.Quit):
			return a, tea.Quit
		case keymap.Matches(k, a.keymap.Help):
			return a, a.switchView(messages.ViewHelp)
		case keymap.Matches(k, a.keymap.History):
			return a, a.switchView(messages.ViewHistory)
		}
		a.pickerView, cmd = a.pickerView.Update(msg)
		return a, cmd
	}
}

// switchView activates view and returns its initial command.
func (a *App) switchView(view messages.ViewType) tea.Cmd {
	a.currentView = view
	switch view {
	case messages.ViewHistory:
		a.statusBar.SetState(status.StateHistory)
		return a.historyView.Init()
	case messages.ViewHelp:
		a.statusBar.SetState(status.StateHelp)
	case messages.ViewPicker:
		a.statusBar.Clear()
	}
	return nil
}

func (a *App) fail(err error) {
	a.err = err
	a.statusBar.SetState(status.StateError)
	if err != nil {
		a.statusBar.SetMessage(err.Error())
	}
}

// preview returns a command that previews the source conversation.
func (a *App) preview(source domain.SiteID) tea.Cmd {
	ctx := a.ctx
	svc := a.ports.Transfer
	return func() tea.Msg {
		p, err := svc.Preview(ctx, source)
		return messages.PreviewLoaded{Source: source, Preview: p, Err: err}
	}
}

// transfer returns a command that runs a transfer.
func (a *App) transfer(source, destination domain.SiteID) tea.Cmd {
	ctx := a.ctx
	svc := a.ports.Transfer
	return func() tea.Msg {
		r, err := svc.Initiate(ctx, source.String(), destination.String())
		return messages.TransferFinished{Result: r, Err: err}
	}
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewHistory:
		body = a.historyView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.pickerView.View()
	}
	return body + "\n" + a.statusBar.View()
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")

	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-12s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}

	if a.ports.Settings != nil {
		if cfg, err := a.ports.Settings.Get(); err == nil {
			export := "disabled"
			if cfg.Export.Enabled {
				export = cfg.Export.Dir
			}
			b.WriteString(a.styles.Subtitle.Render("Configuration"))
			b.WriteString("\n")
			b.WriteString(fmt.Sprintf("  %-12s %s\n", "browser", cfg.Browser.URL))
			b.WriteString(fmt.Sprintf("  %-12s %s\n", "storage", cfg.Storage.Backend))
			b.WriteString(fmt.Sprintf("  %-12s %s\n", "export", export))
			b.WriteString("\n")
		}
	}

	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// StatusBar returns the status bar component.
func (a *App) StatusBar() *status.Bar {
	return a.statusBar
}

// Picker returns the picker view.
func (a *App) Picker() *picker.View {
	return a.pickerView
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.pickerView.SetDimensions(width, height)
	a.historyView.SetDimensions(width, height)
	a.statusBar.SetWidth(width)
}
