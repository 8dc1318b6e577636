package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/fkhayef/cityreports/internal/metrics"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
)

// Service handles notification business logic
type Service struct {
	repo              Repository
	logger            *slog.Logger
	metrics           *metrics.Metrics
	fanoutConcurrency int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithFanoutConcurrency caps concurrent writes during NotifyAdmins.
// n <= 0 leaves the fan-out unbounded.
func WithFanoutConcurrency(n int) Option {
	return func(s *Service) {
		s.fanoutConcurrency = n
	}
}

// NewService creates a new notification service
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetUserNotifications returns every notification addressed to userID, newest first
func (s *Service) GetUserNotifications(ctx context.Context, userID string) ([]*Notification, error) {
	return s.repo.FindByUserID(ctx, userID)
}

// CreateNotification persists a single notification
func (s *Service) CreateNotification(ctx context.Context, params CreateParams) (*Notification, error) {
	return s.create(ctx, params, KindDirect)
}

func (s *Service) create(ctx context.Context, params CreateParams, kind Kind) (*Notification, error) {
	n, err := s.repo.Create(ctx, params)
	if err != nil {
		s.metrics.IncNotificationFailures(string(kind))
		return nil, err
	}
	s.metrics.IncNotificationsCreated(string(kind))
	return n, nil
}

// NotifyUser sends one notification about reportID to userID
func (s *Service) NotifyUser(ctx context.Context, userID, reportID, title, message string) error {
	_, err := s.create(ctx, CreateParams{
		UserID:   userID,
		ReportID: reportID,
		Title:    title,
		Message:  message,
	}, KindStatusChange)
	return err
}

// NotifyAdmins creates one notification per administrator. The roster is read
// once per call and all writes are issued concurrently. Every write is
// attempted; the returned error joins all individual failures.
func (s *Service) NotifyAdmins(ctx context.Context, title, message, reportID string) error {
	adminIDs, err := s.repo.FindAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve admin roster: %w", err)
	}
	if len(adminIDs) == 0 {
		s.logger.WarnContext(ctx, "no administrators to notify", "report_id", reportID)
		return nil
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	if s.fanoutConcurrency > 0 {
		g.SetLimit(s.fanoutConcurrency)
	}

	for _, adminID := range adminIDs {
		g.Go(func() error {
			_, err := s.create(ctx, CreateParams{
				UserID:   adminID,
				ReportID: reportID,
				Title:    title,
				Message:  message,
			}, KindAdminFanout)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("notify admin %s: %w", adminID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	s.logger.InfoContext(ctx, "admin fan-out finished",
		"report_id", reportID,
		"admins", len(adminIDs),
		"failed", len(errs),
	)
	return errors.Join(errs...)
}

// MarkAsRead marks a notification as read; repeating the call is harmless
func (s *Service) MarkAsRead(ctx context.Context, id string) error {
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAsReadForRecipient marks a notification as read on behalf of userID,
// refusing notifications addressed to someone else
func (s *Service) MarkAsReadForRecipient(ctx context.Context, id, userID string) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return ErrNotRecipient
	}
	if n.Read {
		return nil
	}
	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *Service) MarkAllAsRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
