package status

import (
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/chatrelay/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	bar := NewBar(s, km)

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Equal(t, 80, bar.Width())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestStatusBar_Init(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Nil(t, bar.Init())
}

func TestStatusBar_Update_IgnoresKeys(t *testing.T) {
	bar := NewBar(nil, nil)

	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestStatusBar_Update_TicksOnlyWhileWorking(t *testing.T) {
	bar := NewBar(nil, nil)

	_, cmd := bar.Update(spinner.TickMsg{})
	assert.Nil(t, cmd)

	bar.Start("Scraping...")
	_, cmd = bar.Update(spinner.TickMsg{})
	assert.NotNil(t, cmd)
}

func TestStatusBar_Start(t *testing.T) {
	bar := NewBar(nil, nil)

	cmd := bar.Start("Transferring...")

	assert.NotNil(t, cmd)
	assert.Equal(t, StateWorking, bar.State())
	assert.Equal(t, "Transferring...", bar.Message())
	assert.Contains(t, bar.View(), "Transferring...")
}

func TestStatusBar_SetState(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetState(StateDone)

	assert.Equal(t, StateDone, bar.State())
}

func TestStatusBar_SetWidth(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetWidth(120)

	assert.Equal(t, 120, bar.Width())
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("error message")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
}

func TestStatusBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		want    []string
	}{
		{"ready", StateReady, "", []string{"Ready"}},
		{"ready with message", StateReady, "claude -> gemini", []string{"claude -> gemini"}},
		{"working default", StateWorking, "", []string{"Working..."}},
		{"error", StateError, "", []string{"Error"}},
		{"error with message", StateError, "page unavailable", []string{"Error", "page unavailable"}},
		{"done", StateDone, "Transferred 4 messages", []string{"Transferred 4 messages"}},
		{"help", StateHelp, "", []string{"Help"}},
		{"history", StateHistory, "", []string{"History", "refresh"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)

			view := bar.View()
			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
		})
	}
}

func TestStatusBar_View_ShowsKeybindings(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)

	view := bar.View()

	assert.Contains(t, view, "quit")
	assert.Contains(t, view, "transfer")
}

func TestState_Constants(t *testing.T) {
	assert.Equal(t, State("ready"), StateReady)
	assert.Equal(t, State("working"), StateWorking)
	assert.Equal(t, State("error"), StateError)
	assert.Equal(t, State("done"), StateDone)
	assert.Equal(t, State("help"), StateHelp)
}
