package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Arjunhg/think-waste/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// Command is a palette entry.
type Command struct {
	Name string
	Desc string
}

// Commands lists the palette commands.
var Commands = []Command{
	{"login", "connect your wallet"},
	{"logout", "disconnect and clear the session"},
	{"refresh", "re-read your wallet profile"},
	{"report", "report waste and earn tokens"},
	{"reports", "show your recent reports"},
	{"quit", "exit"},
}

// Resolve maps typed input to a command name. An exact name wins, then a
// unique prefix; anything else is returned as typed.
func Resolve(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	var match string
	for _, c := range Commands {
		if c.Name == input {
			return input
		}
		if strings.HasPrefix(c.Name, input) {
			if match != "" {
				return input
			}
			match = c.Name
		}
	}
	if match == "" {
		return input
	}
	return match
}

// Matching returns the commands whose name starts with input.
func Matching(input string) []Command {
	input = strings.ToLower(strings.TrimSpace(input))
	var out []Command
	for _, c := range Commands {
		if strings.HasPrefix(c.Name, input) {
			out = append(out, c)
		}
	}
	return out
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a command palette.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Prompt = ": "
	ti.Placeholder = "login, report, quit..."
	ti.ShowSuggestions = true
	ti.Width = width - 6

	names := make([]string, len(Commands))
	for i, c := range Commands {
		names[i] = c.Name
	}
	ti.SetSuggestions(names)

	return Model{input: ti, width: width, height: height}
}

// Update submits on enter and otherwise edits the input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEnter {
		name := Resolve(m.input.Value())
		m.input.Reset()
		if name == "" {
			return m, nil
		}
		return m, func() tea.Msg { return CommandMsg(name) }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the input and the commands matching it.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Render("Commands")

	var rows []string
	for _, c := range Matching(m.input.Value()) {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(10).Render(c.Name),
			theme.DimmedStyle.Render(c.Desc),
		))
	}
	if len(rows) == 0 {
		rows = append(rows, theme.DimmedStyle.Render("no matching command"))
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", m.input.View(), "", strings.Join(rows, "\n")))
}

// SetSize updates the palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
