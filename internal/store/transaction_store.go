package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Arjunhg/think-waste/internal/model"
)

// CreateTransaction records a points movement for a user.
func (s *SQLStore) CreateTransaction(ctx context.Context, t model.Transaction) (*model.Transaction, error) {
	return insertTransaction(ctx, s.db, t)
}

func insertTransaction(ctx context.Context, q rowQueryer, t model.Transaction) (*model.Transaction, error) {
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}

	err := q.QueryRowxContext(ctx, q.Rebind(
		`INSERT INTO transactions (user_id, type, amount, description, date)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`),
		t.UserID, t.Type, t.Amount, t.Description, t.Date,
	).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}
	return &t, nil
}

// GetTransactions returns a user's transactions, newest first.
func (s *SQLStore) GetTransactions(ctx context.Context, userID int64) ([]model.Transaction, error) {
	txs := []model.Transaction{}
	err := s.db.SelectContext(ctx, &txs, s.db.Rebind(
		`SELECT id, user_id, type, amount, description, date
		 FROM transactions
		 WHERE user_id = ?
		 ORDER BY date DESC, id DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	return txs, nil
}

// GetUserBalance sums earned transactions minus redeemed ones. The
// result never drops below zero.
func (s *SQLStore) GetUserBalance(ctx context.Context, userID int64) (float64, error) {
	var total int64
	err := s.db.GetContext(ctx, &total, s.db.Rebind(
		`SELECT COALESCE(SUM(CASE
			WHEN type LIKE 'earned%' THEN amount
			WHEN type = 'redeemed' THEN -amount
			ELSE 0 END), 0)
		 FROM transactions WHERE user_id = ?`), userID)
	if err != nil {
		return 0, fmt.Errorf("computing balance for user %d: %w", userID, err)
	}
	if total < 0 {
		total = 0
	}
	return float64(total), nil
}
