// Package reportlist shows the user's recent waste reports.
package reportlist

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Arjunhg/think-waste/internal/model"
	"github.com/Arjunhg/think-waste/internal/theme"
)

// Model is the recent reports list.
type Model struct {
	list   list.Model
	width  int
	height int
}

// New creates an empty report list.
func New(width, height int) Model {
	l := list.New([]list.Item{}, Delegate{}, width, height-2)
	l.Title = "Recent reports"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.HeaderStyle
	return Model{list: l, width: width, height: height}
}

// SetReports replaces the list contents.
func (m *Model) SetReports(rs []model.Report) tea.Cmd {
	items := make([]list.Item, len(rs))
	for i, r := range rs {
		items[i] = Item{Report: r}
	}
	return m.list.SetItems(items)
}

// Len returns the number of reports shown.
func (m Model) Len() int { return len(m.list.Items()) }

// Filtering reports whether the filter input has focus.
func (m Model) Filtering() bool { return m.list.FilterState() == list.Filtering }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) > 0 {
		return m.list.View()
	}
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render("No reports yet.\n\nPress n to report waste.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
