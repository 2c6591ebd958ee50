package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/Arjunhg/think-waste/internal/keys"
	"github.com/Arjunhg/think-waste/internal/model"
	"github.com/Arjunhg/think-waste/internal/report"
	"github.com/Arjunhg/think-waste/internal/session"
	"github.com/Arjunhg/think-waste/internal/theme"
	"github.com/Arjunhg/think-waste/internal/ui"
	"github.com/Arjunhg/think-waste/internal/ui/command"
	helpview "github.com/Arjunhg/think-waste/internal/ui/help"
	"github.com/Arjunhg/think-waste/internal/ui/notifications"
	"github.com/Arjunhg/think-waste/internal/ui/reportform"
	"github.com/Arjunhg/think-waste/internal/ui/reportlist"
)

const (
	appTitle  = "think-waste"
	noticeTTL = 4 * time.Second
)

// Texts shown for UI-side outcomes; controller notices come with events.
const (
	msgLoginWaiting  = "Waiting for wallet login in your browser..."
	msgConnectFirst  = "Connect your wallet first (press l)"
	msgReportCreated = "Report submitted"
	msgReportsFailed = "Error loading reports"
)

// Session is the controller surface the UI drives.
type Session interface {
	Start(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	RefreshProfile(ctx context.Context) error
	AcknowledgeNotification(ctx context.Context, id int64) error
	Snapshot() session.Snapshot
	Subscribe(fn func(session.Event)) func()
}

// Reports submits and lists waste reports.
type Reports interface {
	Submit(ctx context.Context, email string, in report.Input) (*model.Report, error)
	Recent(ctx context.Context, email string, limit int) ([]model.Report, error)
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewNotifications ViewState = iota
	ViewReportForm
	ViewReports
	ViewHelp
	ViewCommand
)

// Option configures the root model.
type Option func(*Model)

// WithLogger sets the logger used for action failures.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Model) {
		m.log = log.WithField("component", "tui")
	}
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the bridge to the session controller.
type Model struct {
	currentView   ViewState
	previousView  ViewState
	layout        ui.Layout
	session       Session
	reports       Reports
	bridge        *eventBridge
	log           *logrus.Entry
	keys          *keys.KeyMap
	notifications notifications.Model
	reportForm    reportform.Model
	reportList    reportlist.Model
	helpView      helpview.Model
	commandView   command.Model
	snapshot      session.Snapshot
	notice        *session.Notice
	noticeSeq     int
	loginPending  bool
	ready         bool
}

// New creates the root model and subscribes it to the controller.
func New(s Session, r Reports, opts ...Option) Model {
	k := keys.DefaultKeyMap()
	m := Model{
		currentView:   ViewNotifications,
		session:       s,
		reports:       r,
		log:           logrus.StandardLogger().WithField("component", "tui"),
		keys:          k,
		notifications: notifications.New(k, 80, 24),
		reportForm:    reportform.New(80, 24),
		reportList:    reportlist.New(80, 24),
		helpView:      helpview.New(k, report.RewardPoints, 80, 24),
		commandView:   command.New(80, 24),
		snapshot:      s.Snapshot(),
	}
	m.helpView.SetAccount(helpAccount(m.snapshot))
	for _, opt := range opts {
		opt(&m)
	}
	m.bridge = newEventBridge(s, m.log)
	return m
}

// Init starts listening for controller events and mounts the session.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.bridge.wait(),
		m.startSession(),
	)
}

// Close releases the controller subscription.
func (m Model) Close() {
	m.bridge.close()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.notifications.SetSize(w, h)
		m.reportForm.SetSize(w, h)
		m.reportList.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case sessionEventMsg:
		cmds := []tea.Cmd{m.bridge.wait(), m.applySnapshot(msg.Snapshot)}
		if msg.Notice != nil {
			cmds = append(cmds, m.setNotice(*msg.Notice))
		}
		return m, tea.Batch(cmds...)

	case actionDoneMsg:
		if msg.action == actionLogin {
			m.loginPending = false
		}
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("action", msg.action.String()).Warn("session action failed")
		}
		return m, nil

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = nil
		}
		return m, nil

	case notifications.AcknowledgeMsg:
		return m, m.acknowledge(msg.ID)

	case reportform.SubmittedMsg:
		m.currentView = ViewNotifications
		email, ok := m.email()
		if !ok {
			return m, m.setNotice(session.Notice{Kind: session.NoticeError, Message: msgConnectFirst})
		}
		return m, m.submitReport(email, msg.Input)

	case reportform.CancelMsg:
		m.currentView = ViewNotifications
		return m, nil

	case reportSubmittedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Error("submitting report")
			return m, m.setNotice(session.Notice{Kind: session.NoticeError, Message: reportErrorMessage(msg.err)})
		}
		return m, m.setNotice(session.Notice{
			Kind:    session.NoticeSuccess,
			Message: fmt.Sprintf("%s: +%d tokens", msgReportCreated, report.RewardPoints),
		})

	case reportsLoadedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Error("loading reports")
			return m, m.setNotice(session.Notice{Kind: session.NoticeError, Message: msgReportsFailed})
		}
		return m, m.reportList.SetReports(msg.reports)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleKey applies global bindings. Views with text input get keys first.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch m.currentView {
	case ViewReportForm:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = ViewNotifications
			return nil, true
		}
		return nil, false

	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false

	case ViewHelp:
		if key.Matches(msg, m.keys.Back, m.keys.Help) {
			m.currentView = m.previousView
			return nil, true
		}
		if key.Matches(msg, m.keys.Quit) {
			_, cmd := m.quit()
			return cmd, true
		}
		return nil, false

	case ViewReports:
		if m.reportList.Filtering() {
			return nil, false
		}
		if key.Matches(msg, m.keys.Back) {
			m.currentView = ViewNotifications
			return nil, true
		}
		if key.Matches(msg, m.keys.Refresh) {
			return m.openReports(), true
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		_, cmd := m.quit()
		return cmd, true
	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true
	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true
	case key.Matches(msg, m.keys.Login):
		return m.startLogin(), true
	case key.Matches(msg, m.keys.Logout):
		return m.startLogout(), true
	case key.Matches(msg, m.keys.Refresh):
		return m.refresh(), true
	case key.Matches(msg, m.keys.NewReport):
		return m.openReportForm(), true
	case key.Matches(msg, m.keys.Reports):
		return m.openReports(), true
	}
	return nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewNotifications:
		m.notifications, cmd = m.notifications.Update(msg)
	case ViewReportForm:
		m.reportForm, cmd = m.reportForm.Update(msg)
	case ViewReports:
		m.reportList, cmd = m.reportList.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := appTitle
	if n := m.snapshot.UnreadCount(); n > 0 {
		title = fmt.Sprintf("%s [%d new]", appTitle, n)
	}
	header := m.layout.RenderHeader(title, m.accountStatus())

	var statusBar string
	switch {
	case m.notice != nil:
		statusBar = m.layout.RenderStatusBarStyled(m.notice.Message, theme.NoticeStyle(m.notice.Kind == session.NoticeError))
	case m.loginPending:
		statusBar = m.layout.RenderStatusBar(msgLoginWaiting)
	default:
		statusBar = m.layout.RenderStatusBar(m.keyHints())
	}

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewNotifications:
		return m.notifications.View()
	case ViewReportForm:
		return m.reportForm.View()
	case ViewReports:
		return m.reportList.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// accountStatus returns the header summary: who is signed in and the
// cached balance.
func (m Model) accountStatus() string {
	snap := m.snapshot
	switch {
	case snap.State == session.StateInitializing:
		return "connecting..."
	case !snap.Authenticated:
		return "not connected"
	}

	who := "wallet"
	if snap.Profile != nil {
		switch {
		case snap.Profile.Name != "":
			who = snap.Profile.Name
		case snap.Profile.Email != "":
			who = snap.Profile.Email
		}
	}
	return fmt.Sprintf("%s | %s", who, theme.BalanceStyle.Render(fmt.Sprintf("%.2f tokens", snap.Balance)))
}

func helpAccount(snap session.Snapshot) helpview.Account {
	a := helpview.Account{
		Authenticated: snap.Authenticated,
		Balance:       snap.Balance,
		Unread:        len(snap.Notifications),
	}
	if snap.Profile != nil {
		a.Who = snap.Profile.Name
		if a.Who == "" {
			a.Who = snap.Profile.Email
		}
	}
	return a
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewReportForm:
		return "enter next | esc cancel"
	case ViewReports:
		return "esc back | r reload | / filter | q quit"
	default:
		if m.snapshot.Authenticated {
			return "enter mark read | n report | v reports | r refresh | o logout | ? help | q quit"
		}
		return "l login | ? help | : commands | q quit"
	}
}

// applySnapshot stores the latest controller state and refreshes the
// notifications list.
func (m *Model) applySnapshot(snap session.Snapshot) tea.Cmd {
	m.snapshot = snap
	m.helpView.SetAccount(helpAccount(snap))
	if !snap.Authenticated && m.currentView == ViewReports {
		m.currentView = ViewNotifications
	}
	return m.notifications.SetNotifications(snap.Notifications, snap.Authenticated)
}

// setNotice shows n in the status bar until it expires or is replaced.
func (m *Model) setNotice(n session.Notice) tea.Cmd {
	m.noticeSeq++
	seq := m.noticeSeq
	m.notice = &n
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

func (m Model) email() (string, bool) {
	if !m.snapshot.Authenticated || m.snapshot.Profile == nil || m.snapshot.Profile.Email == "" {
		return "", false
	}
	return m.snapshot.Profile.Email, true
}

func (m *Model) startLogin() tea.Cmd {
	if m.snapshot.Authenticated || m.loginPending {
		return nil
	}
	m.loginPending = true
	return m.login()
}

func (m *Model) startLogout() tea.Cmd {
	if !m.snapshot.Authenticated {
		return nil
	}
	return m.logout()
}

func (m *Model) openReportForm() tea.Cmd {
	if _, ok := m.email(); !ok {
		return m.setNotice(session.Notice{Kind: session.NoticeError, Message: msgConnectFirst})
	}
	m.currentView = ViewReportForm
	return m.reportForm.Start()
}

func (m *Model) openReports() tea.Cmd {
	email, ok := m.email()
	if !ok {
		return m.setNotice(session.Notice{Kind: session.NoticeError, Message: msgConnectFirst})
	}
	m.currentView = ViewReports
	return m.loadReports(email)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.bridge.close()
	return m, tea.Quit
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "login":
		return m.startLogin()
	case "logout":
		return m.startLogout()
	case "refresh":
		return m.refresh()
	case "report", "new report":
		return m.openReportForm()
	case "reports":
		return m.openReports()
	case "quit", "q":
		_, c := m.quit()
		return c
	default:
		return m.setNotice(session.Notice{Kind: session.NoticeError, Message: fmt.Sprintf("Unknown command %q", cmd)})
	}
}
