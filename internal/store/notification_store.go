package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Arjunhg/think-waste/internal/model"
)

// CreateNotification inserts an unread notification for a user.
func (s *SQLStore) CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error) {
	return insertNotification(ctx, s.db, n)
}

func insertNotification(ctx context.Context, q rowQueryer, n model.Notification) (*model.Notification, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.IsRead = false

	err := q.QueryRowxContext(ctx, q.Rebind(
		`INSERT INTO notifications (user_id, message, type, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`),
		n.UserID, n.Message, n.Type, n.IsRead, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	return &n, nil
}

// GetUnreadNotifications returns a user's unread notifications, newest first.
func (s *SQLStore) GetUnreadNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	notifications := []model.Notification{}
	err := s.db.SelectContext(ctx, &notifications, s.db.Rebind(
		`SELECT id, user_id, message, type, is_read, created_at
		 FROM notifications
		 WHERE user_id = ? AND is_read = ?
		 ORDER BY created_at DESC, id DESC`),
		userID, false,
	)
	if err != nil {
		return nil, fmt.Errorf("querying unread notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationAsRead flags a notification as read. Unknown ids are
// not an error.
func (s *SQLStore) MarkNotificationAsRead(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE notifications SET is_read = ? WHERE id = ?`), true, id)
	if err != nil {
		return fmt.Errorf("marking notification %d as read: %w", id, err)
	}
	return nil
}
