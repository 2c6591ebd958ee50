package model

import "time"

// Notification type constants.
const (
	NotificationTypeReward = "reward"
	NotificationTypeReport = "report"
	NotificationTypeSystem = "system"
)

// Notification represents an alert surfaced to a user about activity on
// their reports or rewards. Marking it read is terminal.
type Notification struct {
	// ID is assigned by the store on insert.
	ID int64 `json:"id" db:"id"`

	// UserID is the recipient.
	UserID int64 `json:"user_id" db:"user_id"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// Type classifies the notification (e.g. "reward").
	Type string `json:"type" db:"type"`

	// IsRead indicates whether the user has acknowledged this notification.
	IsRead bool `json:"is_read" db:"is_read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
