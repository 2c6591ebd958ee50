package session

import "github.com/Arjunhg/think-waste/internal/model"

// State is the controller's lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Profile is the signed-in user as reported by the identity provider.
type Profile struct {
	Email string
	Name  string
}

// Snapshot is a read-only copy of the session handed to consumers.
type Snapshot struct {
	State         State
	Authenticated bool
	Profile       *Profile
	Balance       float64
	Notifications []model.Notification
}

// UnreadCount returns the number of cached unread notifications.
func (s Snapshot) UnreadCount() int {
	return len(s.Notifications)
}

// NoticeKind classifies a user-visible notice.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

// Notice texts.
const (
	MsgWelcomeBack   = "Welcome back"
	MsgUserCreated   = "User created successfully"
	MsgLoggedOut     = "Logged out successfully"
	MsgLoginFailed   = "Error logging in"
	MsgLogoutFailed  = "Error logging out"
	MsgCreateFailed  = "Error creating user"
	MsgAckFailed     = "Error updating notification"
	MsgRefreshFailed = "Error refreshing profile"
)

// Notice is a transient message for the user.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Event is delivered to subscribers on every state change. Notice is set
// when the change comes with a user-visible message, or when the event is
// only a message.
type Event struct {
	Snapshot Snapshot
	Notice   *Notice
}
