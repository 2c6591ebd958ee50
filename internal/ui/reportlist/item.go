package reportlist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Arjunhg/think-waste/internal/model"
	"github.com/Arjunhg/think-waste/internal/theme"
	"github.com/Arjunhg/think-waste/internal/ui"
)

// Item wraps a model.Report for the list.
type Item struct {
	Report model.Report
}

// FilterValue filters on location and waste type.
func (i Item) FilterValue() string { return i.Report.Location + " " + i.Report.WasteType }

// Delegate renders one report per line.
type Delegate struct {
	now func() time.Time
}

func (d Delegate) Height() int                             { return 1 }
func (d Delegate) Spacing() int                            { return 0 }
func (d Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

// Render draws status, waste type, amount, location and age.
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	r := it.Report

	now := time.Now
	if d.now != nil {
		now = d.now
	}

	status := theme.ReportStatusStyle(r.Status).Render(fmt.Sprintf("%-9s", r.Status))
	age := theme.DimmedStyle.Render(ui.RelativeTime(r.CreatedAt, now()))
	line := fmt.Sprintf("%s %-10s %-8s %s %s", status, r.WasteType, r.Amount, r.Location, age)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}
