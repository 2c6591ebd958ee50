package help

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Arjunhg/think-waste/internal/keys"
	"github.com/Arjunhg/think-waste/internal/theme"
)

// Account is what the help view knows about the current session.
type Account struct {
	Authenticated bool
	Who           string
	Balance       float64
	Unread        int
}

// Model is the help overlay. It only lists the shortcuts that do
// something in the current session.
type Model struct {
	keys         *keys.KeyMap
	help         help.Model
	account      Account
	rewardPoints int
	width        int
	height       int
}

// New creates a help view. rewardPoints is quoted in the signed-out hint.
func New(keys *keys.KeyMap, rewardPoints, width, height int) Model {
	h := help.New()
	h.Width = width
	h.ShowAll = true
	return Model{
		keys:         keys,
		help:         h,
		rewardPoints: rewardPoints,
		width:        width,
		height:       height,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// SetAccount updates the session shown at the top of the overlay.
func (m *Model) SetAccount(a Account) {
	m.account = a
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}

func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Render("Help")

	sections := []string{title, m.accountLine(), m.help.View(sessionKeys{m.keys, m.account.Authenticated})}
	if hint := m.nextStep(); hint != "" {
		sections = append(sections, theme.DimmedStyle.Render(hint))
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) accountLine() string {
	style := theme.DimmedStyle.MarginBottom(1)
	if !m.account.Authenticated {
		return style.Render("Not connected.")
	}
	who := m.account.Who
	if who == "" {
		who = "wallet"
	}
	return style.Render(fmt.Sprintf("Signed in as %s | %.2f tokens | %d unread",
		who, m.account.Balance, m.account.Unread))
}

func (m Model) nextStep() string {
	switch {
	case !m.account.Authenticated:
		return fmt.Sprintf("Press %s to connect your wallet. Each report earns %d tokens.",
			m.keys.Login.Help().Key, m.rewardPoints)
	case m.account.Unread > 0:
		return fmt.Sprintf("Press %s on a notification to mark it as read.", m.keys.Acknowledge.Help().Key)
	default:
		return ""
	}
}

// sessionKeys hides bindings that need a session, or that make no sense
// with one. Bindings are copied so the shared key map keeps matching.
type sessionKeys struct {
	k             *keys.KeyMap
	authenticated bool
}

func (s sessionKeys) ShortHelp() []key.Binding {
	return s.filter([]key.Binding{s.k.Login, s.k.NewReport, s.k.Help, s.k.Quit})
}

func (s sessionKeys) FullHelp() [][]key.Binding {
	groups := s.k.FullHelp()
	for i, g := range groups {
		groups[i] = s.filter(g)
	}
	return groups
}

func (s sessionKeys) filter(bindings []key.Binding) []key.Binding {
	out := make([]key.Binding, len(bindings))
	for i, b := range bindings {
		b.SetEnabled(s.available(b))
		out[i] = b
	}
	return out
}

func (s sessionKeys) available(b key.Binding) bool {
	k := b.Help().Key
	switch k {
	case s.k.Login.Help().Key:
		return !s.authenticated
	case s.k.Logout.Help().Key, s.k.Refresh.Help().Key, s.k.Acknowledge.Help().Key,
		s.k.NewReport.Help().Key, s.k.Reports.Help().Key:
		return s.authenticated
	default:
		return true
	}
}
