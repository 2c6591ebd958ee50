package store

import (
	"context"

	"github.com/Arjunhg/think-waste/internal/model"
)

// Store defines the persistence gateway for users, reports, reward
// transactions and notifications.
type Store interface {
	// === Users ===

	// CreateUser inserts a user; the email must not exist yet.
	CreateUser(ctx context.Context, email, name string) (*model.User, error)
	// GetUserByEmail returns nil, nil when no user has the given email.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// === Reports ===

	CreateReport(ctx context.Context, r model.Report) (*model.Report, error)
	// CreateRewardedReport writes a report, its reward transaction and its
	// notification in one database transaction.
	CreateRewardedReport(ctx context.Context, r model.Report, reward model.Transaction, note model.Notification) (*model.Report, error)
	GetReportsByUser(ctx context.Context, userID int64, limit int) ([]model.Report, error)
	UpdateReportStatus(ctx context.Context, id int64, status string) error

	// === Rewards ===

	CreateTransaction(ctx context.Context, tx model.Transaction) (*model.Transaction, error)
	GetTransactions(ctx context.Context, userID int64) ([]model.Transaction, error)
	// GetUserBalance is earned minus redeemed tokens, never below zero.
	GetUserBalance(ctx context.Context, userID int64) (float64, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error)
	GetUnreadNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkNotificationAsRead(ctx context.Context, id int64) error

	Close() error
}
