package model

import (
	"strings"
	"time"
)

// Transaction type constants. Earned types add to the balance, redeemed
// subtracts from it.
const (
	TransactionEarnedReport  = "earned_report"
	TransactionEarnedCollect = "earned_collect"
	TransactionRedeemed      = "redeemed"
)

// Transaction is a single movement of reward tokens for a user.
type Transaction struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	Amount      int64     `json:"amount" db:"amount"`
	Type        string    `json:"type" db:"type"`
	Description string    `json:"description" db:"description"`
	Date        time.Time `json:"date" db:"date"`
}

// IsEarned reports whether the transaction credits the user.
func (t Transaction) IsEarned() bool {
	return strings.HasPrefix(t.Type, "earned")
}
