package model

import "time"

// Report status constants.
const (
	ReportStatusPending   = "pending"
	ReportStatusVerified  = "verified"
	ReportStatusCollected = "collected"
)

// Report is a waste sighting submitted by a user.
type Report struct {
	ID        int64  `json:"id" db:"id"`
	UserID    int64  `json:"user_id" db:"user_id"`
	Location  string `json:"location" db:"location"`
	WasteType string `json:"waste_type" db:"waste_type"`
	Amount    string `json:"amount" db:"amount"`
	Status    string `json:"status" db:"status"`
	ImageURL  string `json:"image_url,omitempty" db:"image_url"`

	// VerificationResult holds the raw JSON produced by the verifier, if any.
	VerificationResult string `json:"verification_result,omitempty" db:"verification_result"`

	CollectorID *int64    `json:"collector_id,omitempty" db:"collector_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
