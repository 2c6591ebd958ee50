// Package report records waste reports and rewards the reporter.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Arjunhg/think-waste/internal/model"
)

// RewardPoints is the number of tokens earned per submitted report.
const RewardPoints = 10

var (
	// ErrUnknownUser is returned when the reporter has no user record.
	ErrUnknownUser = errors.New("unknown user")

	// ErrInvalidReport is returned when required report fields are missing.
	ErrInvalidReport = errors.New("invalid report")
)

// Store is the persistence the service needs.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateRewardedReport(ctx context.Context, r model.Report, reward model.Transaction, note model.Notification) (*model.Report, error)
	GetUserBalance(ctx context.Context, userID int64) (float64, error)
	GetReportsByUser(ctx context.Context, userID int64, limit int) ([]model.Report, error)
}

// Publisher receives the reporter's new balance.
type Publisher interface {
	Publish(amount float64)
}

// Input is a report as entered by the user.
type Input struct {
	Location  string
	WasteType string
	Amount    string
	ImageURL  string
}

// Validate checks that the required fields are present.
func (in Input) Validate() error {
	var missing []string
	if strings.TrimSpace(in.Location) == "" {
		missing = append(missing, "location")
	}
	if strings.TrimSpace(in.WasteType) == "" {
		missing = append(missing, "waste type")
	}
	if strings.TrimSpace(in.Amount) == "" {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidReport, strings.Join(missing, ", "))
	}
	return nil
}

// Service submits reports.
type Service struct {
	store     Store
	publisher Publisher
	log       *logrus.Entry
}

// NewService creates a Service.
func NewService(s Store, p Publisher, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: s, publisher: p, log: log.WithField("component", "report")}
}

// Submit records a pending report for the user with the given email,
// credits RewardPoints and notifies the user in one store transaction,
// then publishes the new balance.
func (s *Service) Submit(ctx context.Context, email string, in Input) (*model.Report, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up reporter: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, email)
	}

	rep, err := s.store.CreateRewardedReport(ctx,
		model.Report{
			UserID:    user.ID,
			Location:  strings.TrimSpace(in.Location),
			WasteType: strings.TrimSpace(in.WasteType),
			Amount:    strings.TrimSpace(in.Amount),
			ImageURL:  strings.TrimSpace(in.ImageURL),
			Status:    model.ReportStatusPending,
		},
		model.Transaction{
			Type:        model.TransactionEarnedReport,
			Amount:      RewardPoints,
			Description: "Points earned for reporting waste",
		},
		model.Notification{
			Message: fmt.Sprintf("You've earned %d points for reporting waste!", RewardPoints),
			Type:    model.NotificationTypeReward,
		},
	)
	if err != nil {
		return nil, err
	}

	bal, err := s.store.GetUserBalance(ctx, user.ID)
	if err != nil {
		s.log.WithError(err).Warn("reading balance after report")
	} else if s.publisher != nil {
		s.publisher.Publish(bal)
	}

	s.log.WithFields(logrus.Fields{
		"report_id": rep.ID,
		"user_id":   user.ID,
	}).Info("report submitted")
	return rep, nil
}

// Recent returns the user's latest reports.
func (s *Service) Recent(ctx context.Context, email string, limit int) ([]model.Report, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up reporter: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, email)
	}
	return s.store.GetReportsByUser(ctx, user.ID, limit)
}
