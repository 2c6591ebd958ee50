package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Arjunhg/think-waste/internal/model"
)

// CreateUser inserts a user and returns it with its assigned id.
// ErrEmailTaken is returned (wrapped) when the email is already registered.
func (s *SQLStore) CreateUser(ctx context.Context, email, name string) (*model.User, error) {
	u := &model.User{
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	err := s.db.QueryRowxContext(ctx, s.db.Rebind(
		`INSERT INTO users (email, name, created_at) VALUES (?, ?, ?) RETURNING id`),
		u.Email, u.Name, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("creating user %s: %w", email, ErrEmailTaken)
		}
		return nil, fmt.Errorf("creating user %s: %w", email, err)
	}

	return u, nil
}

// GetUserByEmail returns the user with the given email, or nil (and no
// error) when none exists.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(
		`SELECT id, email, name, created_at FROM users WHERE email = ?`), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting user %s: %w", email, err)
	}
	return &u, nil
}
