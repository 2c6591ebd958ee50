// Package session owns the signed-in state of the application: who is
// connected, their token balance and their unread notifications.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Arjunhg/think-waste/internal/identity"
	"github.com/Arjunhg/think-waste/internal/model"
	"github.com/Arjunhg/think-waste/internal/store"
	poll "github.com/Arjunhg/think-waste/internal/sync"
)

// Gateway is the part of the store the controller uses.
type Gateway interface {
	CreateUser(ctx context.Context, email, name string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserBalance(ctx context.Context, userID int64) (float64, error)
	GetUnreadNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkNotificationAsRead(ctx context.Context, id int64) error
}

// EmailCache keeps the signed-in email between runs. It is a bootstrap
// hint only and never proves authentication.
type EmailCache interface {
	Email() (string, error)
	SetEmail(email string) error
	ClearEmail() error
}

// BalanceFeed delivers balance pushes from elsewhere in the application.
type BalanceFeed interface {
	Subscribe(fn func(amount float64)) func()
}

// Poller runs the recurring notification refresh.
type Poller interface {
	Start(fetch poll.FetchFunc)
	Stop()
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Controller) {
		c.log = log.WithField("component", "session")
	}
}

type subscriber struct {
	id int64
	fn func(Event)
}

// Controller is the session state machine. All methods are safe for
// concurrent use. The mutex is never held across provider, gateway or
// poller calls; results of async flows are applied only if the
// generation they started under is still current.
type Controller struct {
	provider identity.Provider
	gateway  Gateway
	cache    EmailCache
	feed     BalanceFeed
	poller   Poller
	log      *logrus.Entry

	mu             sync.Mutex
	state          State
	profile        *Profile
	balance        float64
	notifications  []model.Notification
	generation     uint64
	balanceVersion uint64
	started        bool
	closed         bool
	unsubscribe    func()

	// pollMu orders poller Start/Stop against generation changes.
	pollMu sync.Mutex

	// emitMu makes snapshot and delivery one step, so subscribers see
	// events in the order the state changed.
	emitMu sync.Mutex

	subMu     sync.RWMutex
	subs      []subscriber
	nextSubID int64
}

// New creates an uninitialised controller. Call Start to mount it.
func New(provider identity.Provider, gateway Gateway, cache EmailCache, feed BalanceFeed, poller Poller, opts ...Option) *Controller {
	c := &Controller{
		provider: provider,
		gateway:  gateway,
		cache:    cache,
		feed:     feed,
		poller:   poller,
		log:      logrus.StandardLogger().WithField("component", "session"),
		state:    StateUninitialized,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start mounts the controller: it subscribes to balance pushes, initialises
// the identity provider and hydrates an already-connected session. It runs
// once; later calls return nil. A returned error is informational and the
// session remains usable (unauthenticated).
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.state = StateInitializing
	gen := c.generation
	c.mu.Unlock()

	unsubscribe := c.feed.Subscribe(c.onBalance)
	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	c.emit(nil)

	if err := c.provider.Initialize(ctx); err != nil {
		c.log.WithError(err).Warn("identity provider initialization failed")
		c.setUnauthenticated(gen)
		return fmt.Errorf("%w: %w", ErrAdapterInit, err)
	}

	if !c.provider.IsConnected() {
		// A cached email without a connection is stale.
		if err := c.cache.ClearEmail(); err != nil {
			c.log.WithError(err).Warn("clearing cached email")
		}
		c.setUnauthenticated(gen)
		return nil
	}

	if email, err := c.cache.Email(); err != nil {
		c.log.WithError(err).Debug("reading cached email")
	} else if email != "" {
		c.refreshBalance(ctx, gen, email)
	}

	info, err := c.provider.UserInfo(ctx)
	if err != nil {
		c.log.WithError(err).Warn("reading profile of connected wallet")
		c.setUnauthenticated(gen)
		return fmt.Errorf("%w: %w", ErrAdapterInit, err)
	}

	if err := c.authenticate(ctx, gen, info, false); err != nil {
		return err
	}
	c.log.WithField("email", info.Email).Info("restored session")
	return nil
}

// Login connects the wallet and reconciles the user record. On a provider
// failure the session is left as it was.
func (c *Controller) Login(ctx context.Context) error {
	gen, err := c.currentGeneration()
	if err != nil {
		return err
	}

	if _, err := c.provider.Connect(ctx); err != nil {
		c.log.WithError(err).Error("login failed")
		c.notify(NoticeError, MsgLoginFailed)
		return fmt.Errorf("%w: %w", ErrAdapterConnect, err)
	}

	info, err := c.provider.UserInfo(ctx)
	if err != nil {
		c.log.WithError(err).Error("reading profile after login")
		c.notify(NoticeError, MsgLoginFailed)
		return fmt.Errorf("%w: %w", ErrAdapterConnect, err)
	}

	if err := c.authenticate(ctx, gen, info, true); err != nil {
		return err
	}
	c.log.WithField("email", info.Email).Info("logged in")
	return nil
}

// Logout disconnects the wallet. Local state is cleared even when the
// provider call fails; the failure is then reported and returned.
func (c *Controller) Logout(ctx context.Context) error {
	if _, err := c.currentGeneration(); err != nil {
		return err
	}

	disconnectErr := c.provider.Disconnect(ctx)

	c.mu.Lock()
	c.generation++
	c.state = StateUnauthenticated
	c.profile = nil
	c.balance = 0
	c.notifications = nil
	c.mu.Unlock()

	c.stopPolling()
	if err := c.cache.ClearEmail(); err != nil {
		c.log.WithError(err).Warn("clearing cached email")
	}

	if disconnectErr != nil {
		c.log.WithError(disconnectErr).Error("logout failed")
		c.emit(&Notice{Kind: NoticeError, Message: MsgLogoutFailed})
		return fmt.Errorf("%w: %w", ErrAdapterConnect, disconnectErr)
	}

	c.emit(&Notice{Kind: NoticeSuccess, Message: MsgLoggedOut})
	c.log.Info("logged out")
	return nil
}

// RefreshProfile re-reads the profile from a connected provider and
// re-runs user reconciliation. It does nothing when not connected.
func (c *Controller) RefreshProfile(ctx context.Context) error {
	gen, err := c.currentGeneration()
	if err != nil {
		return err
	}
	if !c.provider.IsConnected() {
		return nil
	}

	info, err := c.provider.UserInfo(ctx)
	if err != nil {
		c.log.WithError(err).Warn("refreshing profile")
		c.notify(NoticeError, MsgRefreshFailed)
		return fmt.Errorf("%w: %w", ErrAdapterConnect, err)
	}
	return c.authenticate(ctx, gen, info, false)
}

// AcknowledgeNotification marks a notification read. It is removed from
// the cached list first; if persisting fails it is put back where it was.
// An unknown id leaves the list untouched.
func (c *Controller) AcknowledgeNotification(ctx context.Context, id int64) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	gen := c.generation
	idx := -1
	for i, n := range c.notifications {
		if n.ID == id {
			idx = i
			break
		}
	}
	var removed model.Notification
	if idx >= 0 {
		removed = c.notifications[idx]
		c.notifications = append(c.notifications[:idx:idx], c.notifications[idx+1:]...)
	}
	c.mu.Unlock()

	if idx >= 0 {
		c.emit(nil)
	}

	if err := c.gateway.MarkNotificationAsRead(ctx, id); err != nil {
		if idx >= 0 {
			c.restoreNotification(gen, idx, removed)
		}
		c.log.WithError(err).WithField("notification_id", id).Error("marking notification as read")
		c.emit(&Notice{Kind: NoticeError, Message: MsgAckFailed})
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// RefreshNotifications replaces the cached unread list once, outside the
// poller schedule. It does nothing without a signed-in email.
func (c *Controller) RefreshNotifications(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	gen := c.generation
	var email string
	if c.state == StateAuthenticated && c.profile != nil {
		email = c.profile.Email
	}
	c.mu.Unlock()

	if email == "" {
		return nil
	}
	return c.refreshNotifications(ctx, gen, email)
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for every Event and returns a function that
// removes it. fn runs on the goroutine that caused the change; it must
// not block or call controller methods.
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.subMu.Lock()
	c.nextSubID++
	id := c.nextSubID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Close disposes of the controller: polling stops, the balance feed is
// released and results of in-flight calls are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.stopPolling()
}

// authenticate applies a profile and, when it carries an email, ensures a
// user row, caches the email and (for a new email) bootstraps the balance
// and notification polling. announce controls the welcome notices.
func (c *Controller) authenticate(ctx context.Context, gen uint64, info identity.UserInfo, announce bool) error {
	profile := Profile{Email: info.Email, Name: info.Name}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return nil
	}
	changed := c.profile == nil || c.profile.Email != profile.Email
	if changed {
		// A new profile invalidates work started for the previous one.
		c.generation++
		gen = c.generation
	}
	c.profile = &profile
	c.state = StateAuthenticated
	c.mu.Unlock()
	c.emit(nil)

	if profile.Email == "" {
		if changed {
			c.stopPolling()
		}
		return nil
	}

	if err := c.cache.SetEmail(profile.Email); err != nil {
		c.log.WithError(err).Warn("caching email")
	}

	created, err := c.ensureUser(ctx, profile)
	if err != nil {
		c.log.WithError(err).WithField("email", profile.Email).Error("ensuring user record")
		if announce {
			c.notify(NoticeError, MsgCreateFailed)
		}
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if announce {
		if created {
			c.notify(NoticeSuccess, MsgUserCreated)
		} else {
			c.notify(NoticeSuccess, MsgWelcomeBack)
		}
	}

	if changed {
		c.refreshBalance(ctx, gen, profile.Email)
		c.startPolling(gen, profile.Email)
	}
	return nil
}

// ensureUser looks the user up by email and creates it when missing. It
// reports whether a row was created.
func (c *Controller) ensureUser(ctx context.Context, profile Profile) (bool, error) {
	existing, err := c.gateway.GetUserByEmail(ctx, profile.Email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	name := profile.Name
	if name == "" {
		name = model.DefaultUserName
	}
	if _, err := c.gateway.CreateUser(ctx, profile.Email, name); err != nil {
		// Another flow created it first.
		if errors.Is(err, store.ErrEmailTaken) {
			return false, nil
		}
		return false, err
	}
	c.log.WithField("email", profile.Email).Info("created user")
	return true, nil
}

// refreshBalance seeds the cached balance from the gateway. The result is
// dropped if the generation moved on or a push arrived meanwhile.
func (c *Controller) refreshBalance(ctx context.Context, gen uint64, email string) {
	c.mu.Lock()
	version := c.balanceVersion
	c.mu.Unlock()

	user, err := c.gateway.GetUserByEmail(ctx, email)
	if err != nil {
		c.log.WithError(err).Debug("balance bootstrap: user lookup failed")
		return
	}
	if user == nil {
		return
	}
	amount, err := c.gateway.GetUserBalance(ctx, user.ID)
	if err != nil {
		c.log.WithError(err).Debug("balance bootstrap failed")
		return
	}

	c.mu.Lock()
	if c.generation != gen || c.balanceVersion != version {
		c.mu.Unlock()
		return
	}
	c.balance = amount
	c.mu.Unlock()
	c.emit(nil)
}

// refreshNotifications replaces the cached unread list for email.
func (c *Controller) refreshNotifications(ctx context.Context, gen uint64, email string) error {
	user, err := c.gateway.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%w: looking up %s: %w", ErrPersistence, email, err)
	}
	if user == nil {
		return nil
	}
	list, err := c.gateway.GetUnreadNotifications(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("%w: loading notifications: %w", ErrPersistence, err)
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return nil
	}
	c.notifications = append([]model.Notification(nil), list...)
	c.mu.Unlock()
	c.emit(nil)
	return nil
}

func (c *Controller) startPolling(gen uint64, email string) {
	c.pollMu.Lock()
	defer c.pollMu.Unlock()

	c.mu.Lock()
	current := c.generation == gen
	c.mu.Unlock()
	if !current {
		return
	}

	c.poller.Start(func(ctx context.Context) error {
		return c.refreshNotifications(ctx, gen, email)
	})
}

func (c *Controller) stopPolling() {
	c.pollMu.Lock()
	defer c.pollMu.Unlock()
	c.poller.Stop()
}

func (c *Controller) restoreNotification(gen uint64, idx int, n model.Notification) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	for _, existing := range c.notifications {
		if existing.ID == n.ID {
			c.mu.Unlock()
			return
		}
	}
	if idx > len(c.notifications) {
		idx = len(c.notifications)
	}
	restored := make([]model.Notification, 0, len(c.notifications)+1)
	restored = append(restored, c.notifications[:idx]...)
	restored = append(restored, n)
	restored = append(restored, c.notifications[idx:]...)
	c.notifications = restored
	c.mu.Unlock()
	c.emit(nil)
}

// onBalance applies a pushed balance unconditionally.
func (c *Controller) onBalance(amount float64) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.balance = amount
	c.balanceVersion++
	c.mu.Unlock()
	c.emit(nil)
}

func (c *Controller) setUnauthenticated(gen uint64) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	c.state = StateUnauthenticated
	c.mu.Unlock()
	c.emit(nil)
}

func (c *Controller) currentGeneration() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, ErrClosed
	}
	return c.generation, nil
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:         c.state,
		Authenticated: c.state == StateAuthenticated,
		Balance:       c.balance,
		Notifications: append([]model.Notification(nil), c.notifications...),
	}
	if c.profile != nil {
		p := *c.profile
		s.Profile = &p
	}
	return s
}

func (c *Controller) notify(kind NoticeKind, msg string) {
	c.emit(&Notice{Kind: kind, Message: msg})
}

// emit delivers the current snapshot, plus an optional notice, to every
// subscriber outside the state lock. Deliveries are serialized; a
// subscriber must not call back into the controller.
func (c *Controller) emit(notice *Notice) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.subMu.RLock()
	subs := make([]subscriber, len(c.subs))
	copy(subs, c.subs)
	c.subMu.RUnlock()

	for _, s := range subs {
		s.fn(Event{Snapshot: snap, Notice: notice})
	}
}
