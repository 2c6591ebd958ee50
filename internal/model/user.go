package model

import "time"

// DefaultUserName is used when the identity provider returns no display name.
const DefaultUserName = "Anonymous User"

// User is a persisted account, unique by email.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
