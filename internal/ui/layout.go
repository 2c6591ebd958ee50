package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Arjunhg/think-waste/internal/theme"
)

// barHeight is the height of the header and of the status bar.
const barHeight = 1

// Layout is the terminal frame: a header line, the content area and a
// status line.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for a terminal of the given size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth returns the width available to views.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the rows left between the header and status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - 2*barHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader puts the title on the left and the account summary on the
// right of a full-width bar.
func (l Layout) RenderHeader(title, account string) string {
	return l.bar(theme.HeaderStyle, theme.HeaderStyle.Render(title), theme.HeaderStyle.Render(account))
}

// RenderStatusBar renders keyboard hints in the status bar.
func (l Layout) RenderStatusBar(hints string) string {
	return l.RenderStatusBarStyled(hints, theme.StatusBarStyle)
}

// RenderStatusBarStyled renders text in the status bar with its own style,
// used for notices.
func (l Layout) RenderStatusBarStyled(text string, style lipgloss.Style) string {
	return l.bar(theme.StatusBarStyle, style.Render(text), "")
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// bar joins left and right with a gap painted in the background of base.
func (l Layout) bar(base lipgloss.Style, left, right string) string {
	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(base.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}
