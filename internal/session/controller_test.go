package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arjunhg/think-waste/internal/balance"
	"github.com/Arjunhg/think-waste/internal/identity"
	"github.com/Arjunhg/think-waste/internal/model"
)

type harness struct {
	provider *fakeProvider
	gateway  *fakeGateway
	cache    *fakeCache
	bus      *balance.Bus
	poller   *fakePoller
	rec      *recorder
	ctrl     *Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log, _ := test.NewNullLogger()
	h := &harness{
		provider: &fakeProvider{},
		gateway:  newFakeGateway(),
		cache:    &fakeCache{},
		bus:      balance.NewBus(),
		poller:   &fakePoller{},
		rec:      &recorder{},
	}
	h.ctrl = New(h.provider, h.gateway, h.cache, h.bus, h.poller, WithLogger(log))
	h.ctrl.Subscribe(h.rec.record)
	t.Cleanup(h.ctrl.Close)
	return h
}

func notification(id, userID int64, msg string) model.Notification {
	return model.Notification{
		ID: id, UserID: userID, Message: msg, Type: model.NotificationTypeReward,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, int(id), 0, time.UTC),
	}
}

func ids(list []model.Notification) []int64 {
	out := make([]int64, 0, len(list))
	for _, n := range list {
		out = append(out, n.ID)
	}
	return out
}

func TestStartUnauthenticated(t *testing.T) {
	h := newHarness(t)
	h.cache.email = "stale@x.com"

	require.NoError(t, h.ctrl.Start(context.Background()))

	snap := h.ctrl.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.Profile)
	assert.Empty(t, h.cache.get(), "stale cached email is removed")
	assert.False(t, h.poller.isRunning())
}

func TestStartInitFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.provider.initErr = errBoom

	err := h.ctrl.Start(context.Background())
	assert.ErrorIs(t, err, ErrAdapterInit)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateUnauthenticated, h.ctrl.Snapshot().State)
	assert.Empty(t, h.rec.notices())

	// The session can still log in afterwards.
	h.provider.info = identity.UserInfo{Email: "a@x.com"}
	require.NoError(t, h.ctrl.Login(context.Background()))
	assert.True(t, h.ctrl.Snapshot().Authenticated)
}

func TestStartIsIdempotent(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(context.Background()))
	require.NoError(t, h.ctrl.Start(context.Background()))
	assert.Equal(t, 1, h.bus.Len())
}

// Already connected at startup with no user row: one CreateUser with the
// provider's name, authenticated, and no notice.
func TestStartAlreadyConnectedCreatesUserSilently(t *testing.T) {
	h := newHarness(t)
	h.provider.connected = true
	h.provider.info = identity.UserInfo{Email: "a@x.com", Name: "Ana"}

	require.NoError(t, h.ctrl.Start(context.Background()))

	assert.Equal(t, []createCall{{"a@x.com", "Ana"}}, h.gateway.creates())
	snap := h.ctrl.Snapshot()
	assert.True(t, snap.Authenticated)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, Profile{Email: "a@x.com", Name: "Ana"}, *snap.Profile)
	assert.Empty(t, h.rec.notices())
	assert.Equal(t, "a@x.com", h.cache.get())
	assert.True(t, h.poller.isRunning())
}

func TestStartSeedsBalanceFromCachedEmail(t *testing.T) {
	h := newHarness(t)
	u := h.gateway.addUser("a@x.com", "Ana")
	h.gateway.balances[u.ID] = 42
	h.gateway.setNotifications(u.ID, notification(1, u.ID, "hi"))
	h.cache.email = "a@x.com"
	h.provider.connected = true
	h.provider.info = identity.UserInfo{Email: "a@x.com", Name: "Ana"}

	require.NoError(t, h.ctrl.Start(context.Background()))

	snap := h.ctrl.Snapshot()
	assert.Equal(t, 42.0, snap.Balance)
	assert.Equal(t, []int64{1}, ids(snap.Notifications))
	assert.Empty(t, h.gateway.creates())
}

func TestLoginNewUser(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "new@x.com"}

	require.NoError(t, h.ctrl.Login(context.Background()))

	assert.Equal(t, []createCall{{"new@x.com", model.DefaultUserName}}, h.gateway.creates())
	assert.Equal(t, []string{MsgUserCreated}, h.rec.notices())
	assert.True(t, h.ctrl.Snapshot().Authenticated)
	assert.Equal(t, "new@x.com", h.cache.get())
}

func TestLoginExistingUser(t *testing.T) {
	h := newHarness(t)
	h.gateway.addUser("old@x.com", "Old")
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "old@x.com", Name: "Old"}

	require.NoError(t, h.ctrl.Login(context.Background()))

	assert.Empty(t, h.gateway.creates())
	assert.Equal(t, []string{MsgWelcomeBack}, h.rec.notices())
}

func TestLoginFailureLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(context.Background()))
	before := h.ctrl.Snapshot()
	h.provider.connectErr = errBoom

	err := h.ctrl.Login(context.Background())
	assert.ErrorIs(t, err, ErrAdapterConnect)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, before, h.ctrl.Snapshot())
	assert.Equal(t, []string{MsgLoginFailed}, h.rec.notices())
	assert.Empty(t, h.gateway.creates())
}

func TestLoginGatewayFailureKeepsSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "a@x.com"}
	h.gateway.getUserErr = errBoom

	err := h.ctrl.Login(context.Background())
	assert.ErrorIs(t, err, ErrPersistence)
	assert.True(t, h.ctrl.Snapshot().Authenticated)
	assert.Equal(t, []string{MsgCreateFailed}, h.rec.notices())
}

func TestLoginWithoutEmailSkipsReconciliation(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Name: "No Mail"}

	require.NoError(t, h.ctrl.Login(context.Background()))

	assert.True(t, h.ctrl.Snapshot().Authenticated)
	assert.Empty(t, h.gateway.creates())
	assert.Empty(t, h.rec.notices())
	assert.Equal(t, 0, h.cache.setCalls)
	assert.False(t, h.poller.isRunning())
}

func TestLoginThenLogoutRestoresEmptyState(t *testing.T) {
	h := newHarness(t)
	initial := h.ctrl.Snapshot()

	u := h.gateway.addUser("a@x.com", "Ana")
	h.gateway.balances[u.ID] = 15
	h.gateway.setNotifications(u.ID, notification(1, u.ID, "one"), notification(2, u.ID, "two"))
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "a@x.com", Name: "Ana"}

	require.NoError(t, h.ctrl.Login(context.Background()))
	snap := h.ctrl.Snapshot()
	require.Equal(t, 15.0, snap.Balance)
	require.Len(t, snap.Notifications, 2)

	require.NoError(t, h.ctrl.Logout(context.Background()))
	after := h.ctrl.Snapshot()

	assert.False(t, after.Authenticated)
	assert.Equal(t, initial.Profile, after.Profile)
	assert.Equal(t, initial.Balance, after.Balance)
	assert.Equal(t, initial.Notifications, after.Notifications)
	assert.Empty(t, h.cache.get())
	assert.False(t, h.poller.isRunning())
	assert.Equal(t, []string{MsgWelcomeBack, MsgLoggedOut}, h.rec.notices())
}

func TestLogoutFailureStillClearsState(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "a@x.com"}
	require.NoError(t, h.ctrl.Login(context.Background()))
	h.provider.disconnectErr = errBoom

	err := h.ctrl.Logout(context.Background())
	assert.ErrorIs(t, err, ErrAdapterConnect)

	snap := h.ctrl.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.Profile)
	assert.Empty(t, h.cache.get())
	assert.Contains(t, h.rec.notices(), MsgLogoutFailed)
}

func TestPollingFollowsProfile(t *testing.T) {
	h := newHarness(t)
	u := h.gateway.addUser("a@x.com", "Ana")
	h.gateway.setNotifications(u.ID, notification(1, u.ID, "one"))
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "a@x.com"}

	require.NoError(t, h.ctrl.Login(context.Background()))
	assert.Equal(t, 1, h.poller.fetchCount(), "immediate fetch on authentication")
	assert.Equal(t, []int64{1}, ids(h.ctrl.Snapshot().Notifications))

	// The list is replaced wholesale on every tick.
	h.gateway.setNotifications(u.ID, notification(2, u.ID, "two"), notification(3, u.ID, "three"))
	h.poller.Tick()
	assert.Equal(t, 2, h.poller.fetchCount())
	assert.Equal(t, []int64{2, 3}, ids(h.ctrl.Snapshot().Notifications))

	require.NoError(t, h.ctrl.Logout(context.Background()))
	h.poller.Tick()
	assert.Equal(t, 2, h.poller.fetchCount(), "no fetch after the profile is cleared")
}

func TestRefreshProfileSameEmailKeepsPoller(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "a@x.com", Name: "Ana"}
	require.NoError(t, h.ctrl.Login(context.Background()))

	h.provider.info = identity.UserInfo{Email: "a@x.com", Name: "Ana B"}
	require.NoError(t, h.ctrl.RefreshProfile(context.Background()))

	assert.Equal(t, "Ana B", h.ctrl.Snapshot().Profile.Name)
	assert.Equal(t, 1, h.poller.starts)
}

func TestRefreshProfileNewEmailRestartsPoller(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "a@x.com"}
	require.NoError(t, h.ctrl.Login(context.Background()))

	h.provider.info = identity.UserInfo{Email: "b@x.com"}
	require.NoError(t, h.ctrl.RefreshProfile(context.Background()))

	assert.Equal(t, 2, h.poller.starts)
	assert.Equal(t, "b@x.com", h.cache.get())
	assert.Len(t, h.gateway.creates(), 2)
}

func TestRefreshProfileNotConnectedIsNoop(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "a@x.com"}

	require.NoError(t, h.ctrl.RefreshProfile(context.Background()))
	assert.False(t, h.ctrl.Snapshot().Authenticated)
	assert.Empty(t, h.gateway.creates())
}

func TestAcknowledgeNotification(t *testing.T) {
	h := newHarness(t)
	u := h.gateway.addUser("a@x.com", "Ana")
	h.gateway.setNotifications(u.ID,
		notification(1, u.ID, "one"), notification(2, u.ID, "two"), notification(3, u.ID, "three"))
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "a@x.com"}
	require.NoError(t, h.ctrl.Login(context.Background()))

	require.NoError(t, h.ctrl.AcknowledgeNotification(context.Background(), 2))
	assert.Equal(t, []int64{1, 3}, ids(h.ctrl.Snapshot().Notifications))

	require.NoError(t, h.ctrl.AcknowledgeNotification(context.Background(), 99))
	assert.Equal(t, []int64{1, 3}, ids(h.ctrl.Snapshot().Notifications))
	assert.Equal(t, []int64{2, 99}, h.gateway.marked)
}

func TestAcknowledgeFailureRestoresEntry(t *testing.T) {
	h := newHarness(t)
	u := h.gateway.addUser("a@x.com", "Ana")
	h.gateway.setNotifications(u.ID,
		notification(1, u.ID, "one"), notification(2, u.ID, "two"), notification(3, u.ID, "three"))
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "a@x.com"}
	require.NoError(t, h.ctrl.Login(context.Background()))
	h.gateway.markErr = errBoom

	err := h.ctrl.AcknowledgeNotification(context.Background(), 2)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, []int64{1, 2, 3}, ids(h.ctrl.Snapshot().Notifications))
	assert.Contains(t, h.rec.notices(), MsgAckFailed)
}

func TestBalancePushOverridesFetchedValue(t *testing.T) {
	h := newHarness(t)
	u := h.gateway.addUser("a@x.com", "Ana")
	h.gateway.balances[u.ID] = 10
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "a@x.com"}
	require.NoError(t, h.ctrl.Login(context.Background()))
	require.Equal(t, 10.0, h.ctrl.Snapshot().Balance)

	h.bus.Publish(7.5)
	assert.Equal(t, 7.5, h.ctrl.Snapshot().Balance)

	h.bus.Publish(0)
	assert.Equal(t, 0.0, h.ctrl.Snapshot().Balance)
}

func TestBalancePushDuringBootstrapWins(t *testing.T) {
	h := newHarness(t)
	u := h.gateway.addUser("a@x.com", "Ana")
	h.gateway.balances[u.ID] = 10
	// The push lands after the bootstrap fetch began but before it returns.
	h.gateway.beforeBalance = func() {
		h.gateway.beforeBalance = nil
		h.bus.Publish(99)
	}
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "a@x.com"}

	require.NoError(t, h.ctrl.Login(context.Background()))
	assert.Equal(t, 99.0, h.ctrl.Snapshot().Balance)
}

func TestCloseDropsInFlightLogin(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "a@x.com"}
	h.provider.onConnect = h.ctrl.Close

	require.NoError(t, h.ctrl.Login(context.Background()))

	assert.False(t, h.ctrl.Snapshot().Authenticated)
	assert.Empty(t, h.gateway.creates())
	assert.Equal(t, 0, h.bus.Len())
	assert.ErrorIs(t, h.ctrl.Login(context.Background()), ErrClosed)
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{}
	unsubscribe := h.ctrl.Subscribe(rec.record)
	unsubscribe()

	require.NoError(t, h.ctrl.Start(context.Background()))
	assert.Empty(t, rec.events)
}

func TestLogoutDuringFetchDropsResult(t *testing.T) {
	h := newHarness(t)
	u := h.gateway.addUser("a@x.com", "Ana")
	h.gateway.setNotifications(u.ID, notification(1, u.ID, "one"))
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "a@x.com"}
	require.NoError(t, h.ctrl.Login(context.Background()))

	h.gateway.setNotifications(u.ID, notification(1, u.ID, "one"), notification(2, u.ID, "two"))
	h.gateway.beforeNotifications = func() {
		h.gateway.beforeNotifications = nil
		require.NoError(t, h.ctrl.Logout(context.Background()))
	}
	h.poller.Tick()

	snap := h.ctrl.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Empty(t, snap.Notifications)
}

func TestProfileChangeDuringFetchDropsResult(t *testing.T) {
	h := newHarness(t)
	a := h.gateway.addUser("a@x.com", "Ana")
	b := h.gateway.addUser("b@x.com", "Bo")
	h.gateway.setNotifications(a.ID, notification(1, a.ID, "for ana"))
	h.gateway.setNotifications(b.ID, notification(9, b.ID, "for bo"))
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.provider.info = identity.UserInfo{Email: "a@x.com"}
	require.NoError(t, h.ctrl.Login(context.Background()))
	require.Equal(t, []int64{1}, ids(h.ctrl.Snapshot().Notifications))

	// The tick for Ana is still reading when the wallet switches to Bo.
	h.gateway.beforeNotifications = func() {
		h.gateway.beforeNotifications = nil
		h.provider.info = identity.UserInfo{Email: "b@x.com"}
		require.NoError(t, h.ctrl.RefreshProfile(context.Background()))
	}
	h.poller.Tick()

	snap := h.ctrl.Snapshot()
	assert.Equal(t, "b@x.com", snap.Profile.Email)
	assert.Equal(t, []int64{9}, ids(snap.Notifications))
}

func TestRefreshNotifications(t *testing.T) {
	h := newHarness(t)
	u := h.gateway.addUser("a@x.com", "Ana")
	require.NoError(t, h.ctrl.Start(context.Background()))

	// Nothing to fetch without a session.
	require.NoError(t, h.ctrl.RefreshNotifications(context.Background()))
	assert.Empty(t, h.ctrl.Snapshot().Notifications)

	h.provider.info = identity.UserInfo{Email: "a@x.com"}
	require.NoError(t, h.ctrl.Login(context.Background()))
	fetches := h.poller.fetchCount()

	h.gateway.setNotifications(u.ID, notification(4, u.ID, "four"), notification(5, u.ID, "five"))
	require.NoError(t, h.ctrl.RefreshNotifications(context.Background()))
	assert.Equal(t, []int64{4, 5}, ids(h.ctrl.Snapshot().Notifications))
	assert.Equal(t, fetches, h.poller.fetchCount(), "not a poller fetch")

	h.ctrl.Close()
	assert.ErrorIs(t, h.ctrl.RefreshNotifications(context.Background()), ErrClosed)
}

func TestEventsDeliveredInStateOrder(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Start(context.Background()))

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var mu sync.Mutex
	var last float64
	h.ctrl.Subscribe(func(e Event) {
		if e.Snapshot.Balance == 5 {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
		mu.Lock()
		last = e.Snapshot.Balance
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		h.bus.Publish(5)
	}()
	<-entered

	// The second publisher changes state while the first delivery is stuck.
	go func() {
		defer wg.Done()
		h.bus.Publish(9)
	}()
	require.Eventually(t, func() bool { return h.ctrl.Snapshot().Balance == 9 }, time.Second, time.Millisecond)

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 9.0, last)
	assert.Equal(t, 9.0, h.ctrl.Snapshot().Balance)
}
