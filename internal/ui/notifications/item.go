package notifications

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Arjunhg/think-waste/internal/model"
	"github.com/Arjunhg/think-waste/internal/theme"
	"github.com/Arjunhg/think-waste/internal/ui"
)

// Item wraps a model.Notification so it can be used in a bubbles/list.
type Item struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Notification.Message }

// Delegate implements list.ItemDelegate for notification rows.
type Delegate struct {
	// now is swapped in tests for stable relative times.
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d Delegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d Delegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification line: type badge, message, age.
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.Notification

	now := time.Now
	if d.now != nil {
		now = d.now
	}

	badge := theme.NotificationTypeStyle(n.Type).Render(strings.ToUpper(typeLabel(n.Type)))
	age := theme.DimmedStyle.Render(ui.RelativeTime(n.CreatedAt, now()))
	line := fmt.Sprintf("%s %s %s", badge, n.Message, age)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func typeLabel(kind string) string {
	if kind == "" {
		return "info"
	}
	return kind
}
