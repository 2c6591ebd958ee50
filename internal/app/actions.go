package app

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Arjunhg/think-waste/internal/model"
	"github.com/Arjunhg/think-waste/internal/report"
)

// recentReportsLimit is how many reports the reports view loads.
const recentReportsLimit = 50

type action int

const (
	actionStart action = iota
	actionLogin
	actionLogout
	actionRefresh
	actionAcknowledge
)

func (a action) String() string {
	switch a {
	case actionStart:
		return "start"
	case actionLogin:
		return "login"
	case actionLogout:
		return "logout"
	case actionRefresh:
		return "refresh"
	case actionAcknowledge:
		return "acknowledge"
	default:
		return "unknown"
	}
}

// actionDoneMsg reports the outcome of a controller action. The controller
// already emits the user-facing notice; err is only logged.
type actionDoneMsg struct {
	action action
	err    error
}

// reportSubmittedMsg is sent after a report is persisted.
type reportSubmittedMsg struct {
	report *model.Report
	err    error
}

// reportsLoadedMsg carries the user's recent reports.
type reportsLoadedMsg struct {
	reports []model.Report
	err     error
}

// clearNoticeMsg expires the notice with the matching sequence number.
type clearNoticeMsg struct {
	seq int
}

func (m Model) runAction(a action, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: a, err: fn(context.Background())}
	}
}

func (m Model) startSession() tea.Cmd {
	return m.runAction(actionStart, m.session.Start)
}

func (m Model) login() tea.Cmd {
	return m.runAction(actionLogin, m.session.Login)
}

func (m Model) logout() tea.Cmd {
	return m.runAction(actionLogout, m.session.Logout)
}

func (m Model) refresh() tea.Cmd {
	return m.runAction(actionRefresh, m.session.RefreshProfile)
}

func (m Model) acknowledge(id int64) tea.Cmd {
	s := m.session
	return m.runAction(actionAcknowledge, func(ctx context.Context) error {
		return s.AcknowledgeNotification(ctx, id)
	})
}

// submitReport persists a report for the signed-in user. The balance and
// notification list follow through the controller.
func (m Model) submitReport(email string, in report.Input) tea.Cmd {
	r := m.reports
	return func() tea.Msg {
		rep, err := r.Submit(context.Background(), email, in)
		return reportSubmittedMsg{report: rep, err: err}
	}
}

func (m Model) loadReports(email string) tea.Cmd {
	r := m.reports
	return func() tea.Msg {
		reports, err := r.Recent(context.Background(), email, recentReportsLimit)
		return reportsLoadedMsg{reports: reports, err: err}
	}
}

func reportErrorMessage(err error) string {
	switch {
	case errors.Is(err, report.ErrInvalidReport):
		return "Location and amount are required"
	case errors.Is(err, report.ErrUnknownUser):
		return "No user record for this wallet, try refreshing"
	default:
		return "Error submitting report"
	}
}
