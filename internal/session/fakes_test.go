package session

import (
	"context"
	"errors"
	"sync"

	"github.com/Arjunhg/think-waste/internal/identity"
	"github.com/Arjunhg/think-waste/internal/model"
	poll "github.com/Arjunhg/think-waste/internal/sync"
)

type fakeProvider struct {
	mu            sync.Mutex
	connected     bool
	info          identity.UserInfo
	initErr       error
	connectErr    error
	disconnectErr error
	infoErr       error
	connectCalls  int
	// onConnect runs inside Connect, before it returns.
	onConnect func()
}

func (f *fakeProvider) Initialize(ctx context.Context) error { return f.initErr }

func (f *fakeProvider) Connect(ctx context.Context) (identity.Handle, error) {
	f.mu.Lock()
	f.connectCalls++
	hook := f.onConnect
	err := f.connectErr
	if err == nil {
		f.connected = true
	}
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return identity.Handle{}, err
	}
	return identity.Handle{Subject: "0xabc"}, nil
}

func (f *fakeProvider) Disconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return f.disconnectErr
}

func (f *fakeProvider) UserInfo(ctx context.Context) (identity.UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.infoErr != nil {
		return identity.UserInfo{}, f.infoErr
	}
	return f.info, nil
}

func (f *fakeProvider) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

type createCall struct {
	email, name string
}

// fakeGateway is an in-memory gateway.
type fakeGateway struct {
	mu            sync.Mutex
	nextID        int64
	users         map[string]*model.User
	balances      map[int64]float64
	notifications map[int64][]model.Notification
	createCalls   []createCall
	marked        []int64
	markErr       error
	getUserErr    error
	// beforeBalance runs at the start of GetUserBalance.
	beforeBalance func()
	// beforeNotifications runs at the start of GetUnreadNotifications.
	beforeNotifications func()
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		users:         make(map[string]*model.User),
		balances:      make(map[int64]float64),
		notifications: make(map[int64][]model.Notification),
	}
}

func (g *fakeGateway) addUser(email, name string) *model.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	u := &model.User{ID: g.nextID, Email: email, Name: name}
	g.users[email] = u
	return u
}

func (g *fakeGateway) setNotifications(userID int64, list ...model.Notification) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.notifications[userID] = list
}

func (g *fakeGateway) CreateUser(ctx context.Context, email, name string) (*model.User, error) {
	g.mu.Lock()
	g.createCalls = append(g.createCalls, createCall{email, name})
	g.mu.Unlock()
	return g.addUser(email, name), nil
}

func (g *fakeGateway) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getUserErr != nil {
		return nil, g.getUserErr
	}
	return g.users[email], nil
}

func (g *fakeGateway) GetUserBalance(ctx context.Context, userID int64) (float64, error) {
	g.mu.Lock()
	hook := g.beforeBalance
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balances[userID], nil
}

func (g *fakeGateway) GetUnreadNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	g.mu.Lock()
	hook := g.beforeNotifications
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.Notification
	for _, n := range g.notifications[userID] {
		if !n.IsRead {
			out = append(out, n)
		}
	}
	return out, nil
}

func (g *fakeGateway) MarkNotificationAsRead(ctx context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.marked = append(g.marked, id)
	if g.markErr != nil {
		return g.markErr
	}
	for uid, list := range g.notifications {
		for i := range list {
			if list[i].ID == id {
				g.notifications[uid][i].IsRead = true
			}
		}
	}
	return nil
}

func (g *fakeGateway) creates() []createCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]createCall(nil), g.createCalls...)
}

type fakeCache struct {
	mu       sync.Mutex
	email    string
	setErr   error
	setCalls int
}

func (f *fakeCache) Email() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email, nil
}

func (f *fakeCache) SetEmail(email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	f.email = email
	return nil
}

func (f *fakeCache) ClearEmail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.email = ""
	return nil
}

func (f *fakeCache) get() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// fakePoller runs the immediate fetch synchronously inside Start and lets
// tests fire ticks by hand.
type fakePoller struct {
	mu      sync.Mutex
	fetch   poll.FetchFunc
	running bool
	starts  int
	stops   int
	fetches int
}

func (p *fakePoller) Start(fetch poll.FetchFunc) {
	p.mu.Lock()
	p.fetch = fetch
	p.running = true
	p.starts++
	p.mu.Unlock()
	p.run(fetch)
}

func (p *fakePoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.stops++
	}
	p.running = false
	p.fetch = nil
}

// Tick simulates one interval elapsing.
func (p *fakePoller) Tick() {
	p.mu.Lock()
	fetch := p.fetch
	p.mu.Unlock()
	if fetch != nil {
		p.run(fetch)
	}
}

func (p *fakePoller) run(fetch poll.FetchFunc) {
	p.mu.Lock()
	p.fetches++
	p.mu.Unlock()
	_ = fetch(context.Background())
}

func (p *fakePoller) isRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *fakePoller) fetchCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetches
}

// recorder collects controller events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Notice != nil {
			out = append(out, e.Notice.Message)
		}
	}
	return out
}

var errBoom = errors.New("boom")
