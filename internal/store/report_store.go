package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Arjunhg/think-waste/internal/model"
)

// reportRow mirrors the reports table, including its nullable columns.
type reportRow struct {
	ID                 int64          `db:"id"`
	UserID             int64          `db:"user_id"`
	Location           string         `db:"location"`
	WasteType          string         `db:"waste_type"`
	Amount             string         `db:"amount"`
	ImageURL           sql.NullString `db:"image_url"`
	VerificationResult sql.NullString `db:"verification_result"`
	Status             string         `db:"status"`
	CreatedAt          time.Time      `db:"created_at"`
	CollectorID        sql.NullInt64  `db:"collector_id"`
}

func (r reportRow) toModel() model.Report {
	rep := model.Report{
		ID:                 r.ID,
		UserID:             r.UserID,
		Location:           r.Location,
		WasteType:          r.WasteType,
		Amount:             r.Amount,
		ImageURL:           r.ImageURL.String,
		VerificationResult: r.VerificationResult.String,
		Status:             r.Status,
		CreatedAt:          r.CreatedAt,
	}
	if r.CollectorID.Valid {
		id := r.CollectorID.Int64
		rep.CollectorID = &id
	}
	return rep
}

// rowQueryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type rowQueryer interface {
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
	Rebind(query string) string
}

// CreateReport inserts a waste report. Status defaults to pending.
func (s *SQLStore) CreateReport(ctx context.Context, r model.Report) (*model.Report, error) {
	return insertReport(ctx, s.db, r)
}

// CreateRewardedReport inserts a report together with the reward
// transaction and notification it earns. Either all three rows are
// written or none is. The reward and notification are recorded for the
// report's user.
func (s *SQLStore) CreateRewardedReport(ctx context.Context, r model.Report, reward model.Transaction, note model.Notification) (*model.Report, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rep, err := insertReport(ctx, tx, r)
	if err != nil {
		return nil, err
	}
	reward.UserID = rep.UserID
	if _, err := insertTransaction(ctx, tx, reward); err != nil {
		return nil, err
	}
	note.UserID = rep.UserID
	if _, err := insertNotification(ctx, tx, note); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing report: %w", err)
	}
	return rep, nil
}

func insertReport(ctx context.Context, q rowQueryer, r model.Report) (*model.Report, error) {
	if r.Status == "" {
		r.Status = model.ReportStatusPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	err := q.QueryRowxContext(ctx, q.Rebind(
		`INSERT INTO reports (user_id, location, waste_type, amount, image_url,
		                      verification_result, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		r.UserID, r.Location, r.WasteType, r.Amount, nullString(r.ImageURL),
		nullString(r.VerificationResult), r.Status, r.CreatedAt,
	).Scan(&r.ID)
	if err != nil {
		return nil, fmt.Errorf("creating report: %w", err)
	}
	return &r, nil
}

// GetReportsByUser returns a user's most recent reports. A limit <= 0
// returns all of them.
func (s *SQLStore) GetReportsByUser(ctx context.Context, userID int64, limit int) ([]model.Report, error) {
	query := `SELECT id, user_id, location, waste_type, amount, image_url,
	                 verification_result, status, created_at, collector_id
	          FROM reports WHERE user_id = ?
	          ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []reportRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}

	reports := make([]model.Report, 0, len(rows))
	for _, r := range rows {
		reports = append(reports, r.toModel())
	}
	return reports, nil
}

// UpdateReportStatus sets the status of a report.
func (s *SQLStore) UpdateReportStatus(ctx context.Context, id int64, status string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE reports SET status = ? WHERE id = ?`), status, id)
	if err != nil {
		return fmt.Errorf("updating report %d: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("report %d not found", id)
	}
	return nil
}
