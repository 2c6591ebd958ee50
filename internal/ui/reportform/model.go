package reportform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Arjunhg/think-waste/internal/report"
	"github.com/Arjunhg/think-waste/internal/theme"
)

// SubmittedMsg is dispatched when the form is completed.
type SubmittedMsg struct {
	Input report.Input
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// WasteTypes are the selectable waste categories.
var WasteTypes = []string{
	"plastic", "paper", "glass", "metal", "organic", "electronic", "hazardous", "mixed",
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	location  string
	wasteType string
	amount    string
	imageURL  string
}

// Model is the Bubble Tea model for the waste report form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new report form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{wasteType: WasteTypes[0]},
		width:  width,
		height: height,
	}
}

// Start resets the fields and builds a fresh form.
func (m *Model) Start() tea.Cmd {
	m.fb.location = ""
	m.fb.wasteType = WasteTypes[0]
	m.fb.amount = ""
	m.fb.imageURL = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the report form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the report form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render(fmt.Sprintf("Report Waste (+%d tokens)", report.RewardPoints))
	content := title + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	opts := make([]huh.Option[string], len(WasteTypes))
	for i, t := range WasteTypes {
		opts[i] = huh.NewOption(strings.ToUpper(t[:1])+t[1:], t)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Location").
				Placeholder("Street, landmark or coordinates").
				Value(&m.fb.location).
				Validate(validateRequired("Location")),
			huh.NewSelect[string]().
				Title("Waste type").
				Options(opts...).
				Value(&m.fb.wasteType),
			huh.NewInput().
				Title("Estimated amount").
				Placeholder("e.g. 5 kg").
				Value(&m.fb.amount).
				Validate(validateRequired("Amount")),
			huh.NewInput().
				Title("Image URL").
				Placeholder("optional").
				Value(&m.fb.imageURL).
				Validate(validateOptionalURL),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	in := report.Input{
		Location:  strings.TrimSpace(m.fb.location),
		WasteType: m.fb.wasteType,
		Amount:    strings.TrimSpace(m.fb.amount),
		ImageURL:  strings.TrimSpace(m.fb.imageURL),
	}
	return func() tea.Msg { return SubmittedMsg{Input: in} }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return fmt.Errorf("image URL must start with http:// or https://")
	}
	return nil
}
