package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Arjunhg/think-waste/internal/credential"
)

// TokenStore persists the id token between runs.
type TokenStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Config holds the wallet login settings.
type Config struct {
	AuthURL      string
	ClientID     string
	ChainID      string
	Network      string
	LoginTimeout time.Duration
}

// Option configures a WalletProvider.
type Option func(*WalletProvider)

// WithBrowser replaces the function used to open the login page.
func WithBrowser(open func(url string) error) Option {
	return func(p *WalletProvider) { p.openURL = open }
}

// WithClipboard replaces the function used to copy the login URL.
func WithClipboard(copyFn func(text string) error) Option {
	return func(p *WalletProvider) { p.copyURL = copyFn }
}

// WithOutput sets where login instructions are printed.
func WithOutput(w io.Writer) Option {
	return func(p *WalletProvider) { p.out = w }
}

// WithCallbackAddr sets the loopback listen address (default 127.0.0.1:0).
func WithCallbackAddr(addr string) Option {
	return func(p *WalletProvider) { p.callbackAddr = addr }
}

// WalletProvider implements Provider with a browser login that redirects
// an id token to a short-lived loopback server.
type WalletProvider struct {
	cfg          Config
	verifier     *Verifier
	tokens       TokenStore
	log          *logrus.Entry
	openURL      func(string) error
	copyURL      func(string) error
	out          io.Writer
	callbackAddr string

	mu          sync.RWMutex
	initialized bool
	claims      *Claims
}

var _ Provider = (*WalletProvider)(nil)

// NewWalletProvider creates a disconnected provider.
func NewWalletProvider(cfg Config, verifier *Verifier, tokens TokenStore, log logrus.FieldLogger, opts ...Option) *WalletProvider {
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = 2 * time.Minute
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &WalletProvider{
		cfg:          cfg,
		verifier:     verifier,
		tokens:       tokens,
		log:          log.WithField("component", "identity"),
		openURL:      openBrowser,
		copyURL:      clipboard.WriteAll,
		out:          os.Stdout,
		callbackAddr: "127.0.0.1:0",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Initialize restores a stored id token if it still verifies. Invalid or
// expired tokens are removed. Calling it again is a no-op.
func (p *WalletProvider) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	raw, err := p.tokens.Get(credential.IDTokenKey)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			p.initialized = true
			return nil
		}
		return fmt.Errorf("loading stored id token: %w", err)
	}

	claims, err := p.verifier.Verify(raw)
	if err != nil {
		p.log.WithError(err).Info("discarding stored id token")
		if delErr := p.tokens.Delete(credential.IDTokenKey); delErr != nil {
			p.log.WithError(delErr).Warn("removing stored id token")
		}
		p.initialized = true
		return nil
	}

	p.claims = claims
	p.initialized = true
	p.log.WithField("subject", claims.Subject).Debug("restored wallet connection")
	return nil
}

// IsConnected reports whether an unexpired, verified token is held.
func (p *WalletProvider) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connectedLocked()
}

func (p *WalletProvider) connectedLocked() bool {
	if p.claims == nil {
		return false
	}
	if p.claims.ExpiresAt != nil && time.Now().After(p.claims.ExpiresAt.Time) {
		return false
	}
	return true
}

// Connect opens the wallet login page and waits for the provider to
// redirect back with an id token, or for the login timeout to pass.
func (p *WalletProvider) Connect(ctx context.Context) (Handle, error) {
	if p.cfg.AuthURL == "" {
		return Handle{}, errors.New("identity.auth_url is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.LoginTimeout)
	defer cancel()

	// Start ephemeral localhost server on random port.
	listener, err := net.Listen("tcp", p.callbackAddr)
	if err != nil {
		return Handle{}, fmt.Errorf("start callback listener: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	state := uuid.NewString()
	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           newCallbackRouter(state, results),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srvErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			srvErr <- err
		}
	}()
	defer func() {
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutCancel()
		srv.Shutdown(shutCtx) //nolint:errcheck
	}()

	loginURL, err := p.loginURL(port, state)
	if err != nil {
		return Handle{}, err
	}
	p.announce(loginURL)

	var raw string
	select {
	case res := <-results:
		if res.err != nil {
			return Handle{}, res.err
		}
		raw = res.token
	case err := <-srvErr:
		return Handle{}, fmt.Errorf("callback server error: %w", err)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Handle{}, fmt.Errorf("login timed out: no callback received within %s", p.cfg.LoginTimeout)
		}
		return Handle{}, ctx.Err()
	}

	claims, err := p.verifier.Verify(raw)
	if err != nil {
		return Handle{}, err
	}
	if err := p.tokens.Set(credential.IDTokenKey, raw); err != nil {
		return Handle{}, fmt.Errorf("saving id token: %w", err)
	}

	p.mu.Lock()
	p.claims = claims
	p.initialized = true
	p.mu.Unlock()

	h := Handle{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		h.ExpiresAt = claims.ExpiresAt.Time
	}
	p.log.WithField("subject", h.Subject).Info("wallet connected")
	return h, nil
}

// announce tells the user where to log in.
func (p *WalletProvider) announce(loginURL string) {
	fmt.Fprintf(p.out, "Opening browser to connect your wallet...\n") //nolint:errcheck
	if err := p.openURL(loginURL); err != nil {
		p.log.WithError(err).Debug("could not open browser")
		fmt.Fprintf(p.out, "Could not open browser. Visit this URL manually:\n  %s\n", loginURL) //nolint:errcheck
		if err := p.copyURL(loginURL); err == nil {
			fmt.Fprintf(p.out, "(copied to clipboard)\n") //nolint:errcheck
		}
	}
}

func (p *WalletProvider) loginURL(port int, state string) (string, error) {
	u, err := url.Parse(p.cfg.AuthURL)
	if err != nil {
		return "", fmt.Errorf("parsing identity.auth_url: %w", err)
	}

	q := u.Query()
	q.Set("client_id", p.cfg.ClientID)
	q.Set("chain_id", p.cfg.ChainID)
	q.Set("network", p.cfg.Network)
	q.Set("redirect_uri", fmt.Sprintf("http://127.0.0.1:%d%s", port, callbackPath))
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Disconnect forgets the current token. Disconnecting while not
// connected returns ErrNotConnected.
func (p *WalletProvider) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	if p.claims == nil {
		p.mu.Unlock()
		return ErrNotConnected
	}
	p.claims = nil
	p.mu.Unlock()

	if err := p.tokens.Delete(credential.IDTokenKey); err != nil {
		return fmt.Errorf("removing id token: %w", err)
	}
	p.log.Info("wallet disconnected")
	return nil
}

// UserInfo returns the email and name claims of the current token.
func (p *WalletProvider) UserInfo(ctx context.Context) (UserInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.connectedLocked() {
		return UserInfo{}, ErrNotConnected
	}
	return UserInfo{Email: p.claims.Email, Name: p.claims.Name}, nil
}
