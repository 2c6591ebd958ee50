// Package identity connects the application to the wallet-based identity
// provider. The session layer only sees the Provider contract.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotConnected is returned when an operation needs a connected wallet.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrInvalidToken is returned when an id token fails verification.
	ErrInvalidToken = errors.New("invalid id token")
)

// UserInfo is the profile reported by the provider. Either field may be empty.
type UserInfo struct {
	Email string
	Name  string
}

// Handle describes a successful connection.
type Handle struct {
	Subject   string
	ExpiresAt time.Time
}

// Provider is the identity capability consumed by the session controller.
type Provider interface {
	// Initialize prepares the provider and restores any previous connection.
	Initialize(ctx context.Context) error

	// Connect runs the interactive wallet login.
	Connect(ctx context.Context) (Handle, error)

	// Disconnect ends the current connection.
	Disconnect(ctx context.Context) error

	// UserInfo returns the connected user's profile.
	UserInfo(ctx context.Context) (UserInfo, error)

	// IsConnected reports whether a valid connection exists.
	IsConnected() bool
}
