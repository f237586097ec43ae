package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/corpus/state"
	"github.com/pithecene-io/corpus/types"
)

// DefaultTail is the number of transcript lines the view shows.
const DefaultTail = 8

const subscribeBuffer = 16

// IsTUISupported reports whether a command supports --tui. Only the
// session commands (chat, upload) stream live state.
func IsTUISupported(command string) bool {
	switch command {
	case "chat", "upload":
		return true
	default:
		return false
	}
}

// stateMsg carries a state pushed by the store.
type stateMsg types.UIState

// closedMsg signals the subscription channel was closed.
type closedMsg struct{}

// keyMap defines key bindings.
type keyMap struct {
	Quit      key.Binding
	Interrupt key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc"),
		key.WithHelp("q", "quit"),
	),
	Interrupt: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "cancel session"),
	),
}

// Model is a Bubble Tea model rendering live session state.
type Model struct {
	updates   <-chan types.UIState
	interrupt func()
	state     types.UIState
	bar       progress.Model
	tail      int
	width     int
	quitting  bool
}

// NewModel creates a model fed by updates. interrupt, if non-nil, is
// called when the user presses ctrl+c.
func NewModel(updates <-chan types.UIState, interrupt func()) Model {
	return Model{
		updates:   updates,
		interrupt: interrupt,
		state:     types.NewUIState(),
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		tail:      DefaultTail,
	}
}

// State returns the last state the model received.
func (m Model) State() types.UIState {
	return m.state
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForState(m.updates)
}

func waitForState(ch <-chan types.UIState) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return stateMsg(s)
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = types.UIState(msg)
		return m, waitForState(m.updates)

	case closedMsg:
		m.updates = nil
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 8; w > 10 {
			m.bar.Width = min(w, 60)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Interrupt):
			if m.state.Live && m.interrupt != nil {
				m.interrupt()
			}
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Quit):
			if m.state.Live {
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return Render(m.state, m.bar, m.tail)
}

// Render draws a state with the given progress bar and transcript tail.
func Render(s types.UIState, bar progress.Model, tail int) string {
	var b strings.Builder

	title := "corpus"
	if s.SessionID != "" {
		title += " " + s.SessionID
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")

	status := string(s.Status)
	if s.Live {
		status += " (live)"
	}
	fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Status:"), StateStyle(string(s.Status)).Render(status))
	fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Progress:"), bar.ViewAs(float64(s.Progress)/100))
	if s.LocalError != "" {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render("Rejected:"), ErrorStyle.Render(s.LocalError))
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Chapters", len(s.Chapters)),
		statBox("Characters", len(s.Characters)),
		statBox("Lines", len(s.Transcript)),
	))
	b.WriteString("\n")

	lines := s.Transcript
	if tail > 0 && len(lines) > tail {
		lines = lines[len(lines)-tail:]
	}
	if len(lines) > 0 {
		b.WriteString("\n")
		for _, line := range lines {
			if strings.HasPrefix(line, types.ErrorPrefix) {
				b.WriteString(ErrorStyle.Render(line))
			} else {
				b.WriteString(ValueStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	help := "q quit"
	if s.Live {
		help = "ctrl+c cancel session"
	}
	b.WriteString(HelpStyle.Render(help))
	return BoxStyle.Render(b.String())
}

func statBox(label string, n int) string {
	return StatBoxStyle.Render(
		StatValueStyle.Render(fmt.Sprintf("%d", n)) + "\n" + StatLabelStyle.Render(label),
	)
}

// Run shows the live view for store until the user quits. interrupt is
// called on ctrl+c while a session is live.
func Run(store *state.Store, interrupt func()) error {
	updates, cancel := store.Subscribe(subscribeBuffer)
	defer cancel()

	p := tea.NewProgram(NewModel(updates, interrupt), tea.WithAltScreen(), tea.WithOutput(os.Stderr))
	_, err := p.Run()
	return err
}
