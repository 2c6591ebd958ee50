package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/sirupsen/logrus"
)

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// defaultInterval is used when the poller is built with a non-positive interval.
const defaultInterval = 30 * time.Second

// FetchFunc performs one refresh. Errors are logged and otherwise ignored.
type FetchFunc func(ctx context.Context) error

// Ticker is the part of time.Ticker the poller needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Option configures a NotificationPoller.
type Option func(*NotificationPoller)

// WithTicker replaces the ticker factory, mainly so tests can drive ticks.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(p *NotificationPoller) {
		p.newTicker = newTicker
	}
}

// NotificationPoller runs at most one recurring fetch loop. Start replaces
// any running loop, so a session never has two timers at once.
type NotificationPoller struct {
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	log       *logrus.Entry

	// mu serialises Start and Stop, including the wait for the loop to exit.
	// A FetchFunc must therefore never call Start or Stop.
	mu     gosync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewNotificationPoller creates a stopped poller.
func NewNotificationPoller(interval time.Duration, log logrus.FieldLogger, opts ...Option) *NotificationPoller {
	if interval <= 0 {
		interval = defaultInterval
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &NotificationPoller{
		interval:  interval,
		newTicker: newTimeTicker,
		log:       log.WithField("component", "poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start stops any running loop, then fetches immediately and once per
// interval until Stop is called.
func (p *NotificationPoller) Start(fetch FetchFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	ticker := p.newTicker(p.interval)
	go p.loop(ctx, ticker, fetch, done)

	p.log.WithField("interval", p.interval).Debug("notification polling started")
}

// Stop halts the loop and waits for it to exit. No fetch runs after Stop
// returns. Stopping an idle poller is a no-op.
func (p *NotificationPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopLocked() {
		p.log.Debug("notification polling stopped")
	}
}

// Running reports whether a loop is active.
func (p *NotificationPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}

func (p *NotificationPoller) stopLocked() bool {
	if p.done == nil {
		return false
	}
	p.cancel()
	<-p.done
	p.cancel = nil
	p.done = nil
	return true
}

// loop runs the polling loop for one session.
func (p *NotificationPoller) loop(ctx context.Context, ticker Ticker, fetch FetchFunc, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	// Do an initial fetch immediately
	p.fetchOnce(ctx, fetch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if ctx.Err() != nil {
				return
			}
			p.fetchOnce(ctx, fetch)
		}
	}
}

func (p *NotificationPoller) fetchOnce(parent context.Context, fetch FetchFunc) {
	ctx, cancel := context.WithTimeout(parent, fetchTimeout)
	defer cancel()

	if err := fetch(ctx); err != nil {
		p.log.WithError(err).Warn("notification refresh failed")
	}
}
