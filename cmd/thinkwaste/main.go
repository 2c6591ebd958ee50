package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Arjunhg/think-waste/internal/app"
	"github.com/Arjunhg/think-waste/internal/balance"
	"github.com/Arjunhg/think-waste/internal/credential"
	"github.com/Arjunhg/think-waste/internal/identity"
	"github.com/Arjunhg/think-waste/internal/model"
	"github.com/Arjunhg/think-waste/internal/report"
	"github.com/Arjunhg/think-waste/internal/session"
	"github.com/Arjunhg/think-waste/internal/store"
	poll "github.com/Arjunhg/think-waste/internal/sync"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "--version", "version", "-v":
		fmt.Println("thinkwaste " + version)
		return nil
	case "help", "--help", "-h":
		printHelp(os.Stdout)
		return nil
	case "", "login", "logout", "status":
	default:
		printHelp(os.Stderr)
		return fmt.Errorf("unknown command %q", cmd)
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		return err
	}

	log, logFile, err := setupLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logFile.Close()

	// The TUI owns the terminal, so login instructions only go to stdout
	// for the one-shot commands.
	out := io.Writer(os.Stdout)
	if cmd == "" {
		out = io.Discard
	}

	creds, err := credential.Open(model.ConfigDir())
	if err != nil {
		return err
	}

	d, err := wire(ctx, cfg, creds, log, out)
	if err != nil {
		return err
	}
	defer d.close()

	switch cmd {
	case "login":
		return runLogin(ctx, d, os.Stdout)
	case "logout":
		return runLogout(ctx, d, os.Stdout)
	case "status":
		return runStatus(ctx, d, os.Stdout)
	}

	ui := app.New(d.session, d.reports, app.WithLogger(log))
	defer ui.Close()

	p := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// deps holds the wired application components.
type deps struct {
	store   *store.SQLStore
	session *session.Controller
	reports *report.Service
}

func (d *deps) close() {
	d.session.Close()
	if err := d.store.Close(); err != nil {
		logrus.WithError(err).Warn("closing store")
	}
}

// wire builds the store, identity provider, session controller and report
// service from cfg.
func wire(ctx context.Context, cfg *model.AppConfig, creds *credential.Store, log logrus.FieldLogger, out io.Writer) (*deps, error) {
	db, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	key, err := identity.LoadVerifyKey(cfg.Identity.VerifyKey)
	if err != nil {
		db.Close()
		return nil, err
	}
	if key == nil {
		log.WithField("component", "main").Warn("identity.verify_key is not set; wallet login is disabled")
	}

	provider := identity.NewWalletProvider(
		identity.Config{
			AuthURL:      cfg.Identity.AuthURL,
			ClientID:     cfg.Identity.ClientID,
			ChainID:      cfg.Identity.ChainID,
			Network:      cfg.Identity.Network,
			LoginTimeout: cfg.LoginTimeout(),
		},
		identity.NewVerifier(key, cfg.Identity.Issuer, cfg.Identity.Audience),
		creds,
		log,
		identity.WithOutput(out),
	)

	bus := balance.NewBus()
	poller := poll.NewNotificationPoller(cfg.PollInterval(), log)
	ctrl := session.New(provider, db, creds, bus, poller, session.WithLogger(log))

	return &deps{
		store:   db,
		session: ctrl,
		reports: report.NewService(db, bus, log),
	}, nil
}

func openStore(ctx context.Context, cfg model.DatabaseConfig) (*store.SQLStore, error) {
	switch cfg.Driver {
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.DSN)
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		return store.NewSQLiteStore(cfg.Path)
	}
}

// setupLogger sends logs to the configured file at the configured level.
func setupLogger(cfg model.LogConfig) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("config: log.level: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	log := logrus.New()
	log.SetOutput(f)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	logrus.SetOutput(f)
	logrus.SetLevel(level)
	return log, f, nil
}

func runLogin(ctx context.Context, d *deps, w io.Writer) error {
	unsubscribe := d.session.Subscribe(printNotice(w))
	defer unsubscribe()

	if err := d.session.Start(ctx); err != nil {
		return err
	}
	if d.session.Snapshot().Authenticated {
		fmt.Fprintln(w, "Already logged in.")
	} else if err := d.session.Login(ctx); err != nil {
		return err
	}
	return printFreshStatus(ctx, d, w)
}

func runLogout(ctx context.Context, d *deps, w io.Writer) error {
	if err := d.session.Start(ctx); err != nil {
		return err
	}
	if !d.session.Snapshot().Authenticated {
		fmt.Fprintln(w, "Already logged out.")
		return nil
	}
	unsubscribe := d.session.Subscribe(printNotice(w))
	defer unsubscribe()
	return d.session.Logout(ctx)
}

func runStatus(ctx context.Context, d *deps, w io.Writer) error {
	if err := d.session.Start(ctx); err != nil {
		return err
	}
	return printFreshStatus(ctx, d, w)
}

// printFreshStatus reads the unread list once before printing, since the
// poller's first fetch runs in the background.
func printFreshStatus(ctx context.Context, d *deps, w io.Writer) error {
	if err := d.session.RefreshNotifications(ctx); err != nil {
		logrus.WithError(err).Warn("loading unread notifications")
	}
	return printStatus(w, d.session.Snapshot())
}

func printNotice(w io.Writer) func(session.Event) {
	return func(ev session.Event) {
		if ev.Notice != nil {
			fmt.Fprintln(w, ev.Notice.Message)
		}
	}
}

func printStatus(w io.Writer, snap session.Snapshot) error {
	if !snap.Authenticated {
		_, err := fmt.Fprintln(w, "Not logged in. Run: thinkwaste login")
		return err
	}
	who := "(no email)"
	if snap.Profile != nil && snap.Profile.Email != "" {
		who = snap.Profile.Email
		if snap.Profile.Name != "" {
			who = fmt.Sprintf("%s <%s>", snap.Profile.Name, snap.Profile.Email)
		}
	}
	_, err := fmt.Fprintf(w, "Logged in as %s\nBalance: %.2f tokens\nUnread notifications: %d\n",
		who, snap.Balance, snap.UnreadCount())
	return err
}
