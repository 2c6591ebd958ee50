package notifications

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Arjunhg/think-waste/internal/keys"
	"github.com/Arjunhg/think-waste/internal/model"
	"github.com/Arjunhg/think-waste/internal/theme"
)

// AcknowledgeMsg is sent when the user marks a notification as read.
type AcknowledgeMsg struct {
	ID int64
}

// Model is the unread notifications list.
type Model struct {
	list          list.Model
	keys          *keys.KeyMap
	authenticated bool
	width         int
	height        int
}

// New creates an empty notifications list.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, Delegate{}, width, height-2)
	l.Title = "Unread notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetNotifications replaces the list contents, keeping the cursor in range.
func (m *Model) SetNotifications(ns []model.Notification, authenticated bool) tea.Cmd {
	m.authenticated = authenticated
	items := make([]list.Item, len(ns))
	for i, n := range ns {
		items[i] = Item{Notification: n}
	}
	return m.list.SetItems(items)
}

// Len returns the number of notifications shown.
func (m Model) Len() int {
	return len(m.list.Items())
}

// Selected returns the highlighted notification.
func (m Model) Selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.Notification{}, false
	}
	return it.Notification, true
}

// Update handles messages for the list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Acknowledge) {
		n, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return AcknowledgeMsg{ID: n.ID}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list, or guidance when it is empty.
func (m Model) View() string {
	if len(m.list.Items()) > 0 {
		return m.list.View()
	}

	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if !m.authenticated {
		return style.Render("Not connected.\n\nPress l to connect your wallet.")
	}
	return style.Render("No unread notifications.\n\nPress n to report waste and earn tokens.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
