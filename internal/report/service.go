package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fkhayef/cityreports/internal/metrics"
	"github.com/fkhayef/cityreports/internal/taskqueue"
)

// Common errors
var (
	ErrReportNotFound  = errors.New("report not found")
	ErrInvalidCategory = errors.New("invalid report category")
	ErrInvalidStatus   = errors.New("invalid report status")
)

const (
	urgentTitle       = "Urgent: public-safety report"
	statusUpdateTitle = "Report Update"
	unknownLocation   = "unknown location"

	notifyAdminsTask = "notify_admins"
)

// Notifier delivers notifications; notification.Service satisfies it
type Notifier interface {
	NotifyAdmins(ctx context.Context, title, message, reportID string) error
	NotifyUser(ctx context.Context, userID, reportID, title, message string) error
}

// Dispatcher runs work off the request path; taskqueue.Queue satisfies it
type Dispatcher interface {
	Dispatch(task taskqueue.Task) bool
}

// Service handles report business logic
type Service struct {
	repo                 Repository
	notifier             Notifier
	dispatcher           Dispatcher
	logger               *slog.Logger
	metrics              *metrics.Metrics
	notifyOnStatusChange bool
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

// WithNotifyOnStatusChange toggles the submitter notification sent after a
// status transition. Enabled by default.
func WithNotifyOnStatusChange(enabled bool) Option {
	return func(s *Service) {
		s.notifyOnStatusChange = enabled
	}
}

// NewService creates a new report service with its collaborators injected
func NewService(repo Repository, notifier Notifier, dispatcher Dispatcher, opts ...Option) *Service {
	s := &Service{
		repo:                 repo,
		notifier:             notifier,
		dispatcher:           dispatcher,
		logger:               slog.Default(),
		notifyOnStatusChange: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new report. Reports in a critical category additionally
// schedule an alert to every administrator; that alert never affects the
// outcome of Create.
func (s *Service) Create(ctx context.Context, r *Report) (*Report, error) {
	if !r.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, r.Category)
	}
	if r.Status == "" {
		r.Status = StatusReceived
	}
	if !r.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}

	saved, err := s.repo.Save(ctx, r)
	if err != nil {
		return nil, err
	}
	s.metrics.IncReportsCreated(string(saved.Category))

	if saved.Category.IsCritical() {
		s.alertAdmins(ctx, saved)
	}

	return saved, nil
}

func (s *Service) alertAdmins(ctx context.Context, r *Report) {
	message := criticalMessage(r)
	reportID := r.ID

	ok := s.dispatcher.Dispatch(taskqueue.Task{
		Name: notifyAdminsTask,
		Run: func(taskCtx context.Context) error {
			return s.notifier.NotifyAdmins(taskCtx, urgentTitle, message, reportID)
		},
	})
	if !ok {
		s.logger.WarnContext(ctx, "admin alert not scheduled",
			"report_id", reportID,
			"category", r.Category,
		)
	}
}

func criticalMessage(r *Report) string {
	address := strings.TrimSpace(r.Location.Address)
	if address == "" {
		address = unknownLocation
	}
	return fmt.Sprintf("A %s report was filed at %s and needs immediate attention.", r.Category, address)
}

// List returns reports newest first, narrowed by filter
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Report, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Report, 0, len(all))
	for _, r := range all {
		if filter.matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Stats counts reports by status and category
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Total:      len(all),
		ByStatus:   make(map[Status]int, len(Statuses)),
		ByCategory: make(map[Category]int, len(Categories)),
	}
	for _, st := range Statuses {
		stats.ByStatus[st] = 0
	}
	for _, r := range all {
		stats.ByStatus[r.Status]++
		stats.ByCategory[r.Category]++
		if r.Category.IsCritical() {
			stats.Critical++
		}
	}
	return stats, nil
}

// UpdateStatus moves a report to status and, when enabled, tells the
// submitter. A failed submitter notification is logged but does not fail
// the call: the new status is already stored.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Report, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.metrics.IncStatusTransition(string(updated.Status))

	if !s.notifyOnStatusChange {
		return updated, nil
	}

	message := fmt.Sprintf("The status of your report %q changed to: %s", updated.Title, status.Humanize())
	if err := s.notifier.NotifyUser(ctx, updated.UserID, updated.ID, statusUpdateTitle, message); err != nil {
		s.logger.ErrorContext(ctx, "failed to notify submitter of status change",
			"report_id", updated.ID,
			"user_id", updated.UserID,
			"error", err,
		)
	}

	return updated, nil
}
