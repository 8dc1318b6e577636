package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/fkhayef/cityreports/internal/metrics"
	"github.com/fkhayef/cityreports/internal/taskqueue"
)

type ServiceSuite struct {
	suite.Suite
	ctrl           *gomock.Controller
	mockRepo       *MockRepository
	mockNotifier   *MockNotifier
	mockDispatcher *MockDispatcher
	metrics        *metrics.Metrics
	service        *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockRepo = NewMockRepository(s.ctrl)
	s.mockNotifier = NewMockNotifier(s.ctrl)
	s.mockDispatcher = NewMockDispatcher(s.ctrl)
	s.metrics = metrics.New()
	s.service = NewService(s.mockRepo, s.mockNotifier, s.mockDispatcher, WithMetrics(s.metrics))
}

func newReport(category Category, address string) *Report {
	return &Report{
		UserID:      "citizen-1",
		UserName:    "Ana",
		Category:    category,
		Title:       "Something happened",
		Description: "details",
		Location:    Location{Lat: 1, Lng: 2, Address: address},
	}
}

// saveAs makes the mocked repository assign id and timestamps like a real store
func (s *ServiceSuite) saveAs(id string) {
	s.mockRepo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *Report) (*Report, error) {
			saved := *r
			saved.ID = id
			saved.CreatedAt = time.Now()
			saved.UpdatedAt = saved.CreatedAt
			return &saved, nil
		})
}

// runDispatched executes dispatched tasks inline
func (s *ServiceSuite) runDispatched() {
	s.mockDispatcher.EXPECT().Dispatch(gomock.Any()).DoAndReturn(func(task taskqueue.Task) bool {
		s.Equal(notifyAdminsTask, task.Name)
		_ = task.Run(context.Background())
		return true
	})
}

func (s *ServiceSuite) TestCreateCriticalCategoriesAlertAdmins() {
	for _, category := range []Category{CategoryFlood, CategoryLandslide, CategoryAccident, CategoryPowerGrid} {
		s.Run(string(category), func() {
			s.saveAs("report-" + string(category))
			s.runDispatched()
			s.mockNotifier.EXPECT().
				NotifyAdmins(gomock.Any(), "Urgent: public-safety report", gomock.Any(), "report-"+string(category)).
				DoAndReturn(func(_ context.Context, _, message, _ string) error {
					s.Contains(message, string(category))
					s.Contains(message, "Main St")
					return nil
				})

			created, err := s.service.Create(context.Background(), newReport(category, "Main St"))
			s.Require().NoError(err)
			s.Equal(StatusReceived, created.Status)
		})
	}
}

func (s *ServiceSuite) TestCreateBlankAddressUsesPlaceholder() {
	s.saveAs("report-1")
	s.runDispatched()
	s.mockNotifier.EXPECT().NotifyAdmins(gomock.Any(), gomock.Any(), gomock.Any(), "report-1").
		DoAndReturn(func(_ context.Context, _, message, _ string) error {
			s.Contains(message, "unknown location")
			s.Contains(message, "landslide")
			return nil
		})

	_, err := s.service.Create(context.Background(), newReport(CategoryLandslide, "   "))
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestCreateNonCriticalDispatchesNothing() {
	for _, category := range []Category{CategoryPothole, CategoryStreetlight, CategoryTrafficSignal, CategoryStormDrain, CategoryWaterLeak, CategoryOther} {
		s.Run(string(category), func() {
			s.saveAs("report-1")
			// no Dispatch or NotifyAdmins expectation: any call fails the test

			_, err := s.service.Create(context.Background(), newReport(category, "Main St"))
			s.Require().NoError(err)
		})
	}
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ReportsCreated.WithLabelValues(string(CategoryPothole))))
}

func (s *ServiceSuite) TestCreateSurvivesAlertFailures() {
	s.Run("fan-out error", func() {
		s.saveAs("report-1")
		s.runDispatched()
		s.mockNotifier.EXPECT().NotifyAdmins(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("notifications table unavailable"))

		created, err := s.service.Create(context.Background(), newReport(CategoryFlood, "Main St"))
		s.Require().NoError(err)
		s.Equal("report-1", created.ID)
	})

	s.Run("queue rejects the task", func() {
		s.saveAs("report-2")
		s.mockDispatcher.EXPECT().Dispatch(gomock.Any()).Return(false)

		created, err := s.service.Create(context.Background(), newReport(CategoryFlood, "Main St"))
		s.Require().NoError(err)
		s.Equal("report-2", created.ID)
	})
}

func (s *ServiceSuite) TestCreateValidationAndPersistenceErrors() {
	s.Run("unknown category", func() {
		_, err := s.service.Create(context.Background(), newReport("volcano", "x"))
		s.ErrorIs(err, ErrInvalidCategory)
	})

	s.Run("unknown status", func() {
		r := newReport(CategoryPothole, "x")
		r.Status = "closed"
		_, err := s.service.Create(context.Background(), r)
		s.ErrorIs(err, ErrInvalidStatus)
	})

	s.Run("save failure propagates and nothing is dispatched", func() {
		dbErr := errors.New("insert failed")
		s.mockRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil, dbErr)

		_, err := s.service.Create(context.Background(), newReport(CategoryFlood, "x"))
		s.ErrorIs(err, dbErr)
	})
}

func (s *ServiceSuite) TestUpdateStatusNotifiesSubmitter() {
	s.mockRepo.EXPECT().UpdateStatus(gomock.Any(), "report-x", StatusInProgress).Return(&Report{
		ID:     "report-x",
		UserID: "citizen-9",
		Title:  "Broken light",
		Status: StatusInProgress,
	}, nil)
	s.mockNotifier.EXPECT().NotifyUser(gomock.Any(), "citizen-9", "report-x", "Report Update", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _, _, message string) error {
			s.Contains(message, "Broken light")
			s.Contains(message, "in progress")
			s.NotContains(message, "in_progress")
			return nil
		}).Times(1)

	updated, err := s.service.UpdateStatus(context.Background(), "report-x", StatusInProgress)
	s.Require().NoError(err)
	s.Equal(StatusInProgress, updated.Status)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.StatusTransitions.WithLabelValues(string(StatusInProgress))))
}

func (s *ServiceSuite) TestUpdateStatusToleratesNotificationFailure() {
	s.mockRepo.EXPECT().UpdateStatus(gomock.Any(), "report-x", StatusResolved).
		Return(&Report{ID: "report-x", UserID: "citizen-9", Status: StatusResolved}, nil)
	s.mockNotifier.EXPECT().NotifyUser(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("write failed"))

	updated, err := s.service.UpdateStatus(context.Background(), "report-x", StatusResolved)
	s.Require().NoError(err)
	s.Equal(StatusResolved, updated.Status)
}

func (s *ServiceSuite) TestUpdateStatusWithNotificationsDisabled() {
	service := NewService(s.mockRepo, s.mockNotifier, s.mockDispatcher, WithNotifyOnStatusChange(false))
	s.mockRepo.EXPECT().UpdateStatus(gomock.Any(), "report-x", StatusResolved).
		Return(&Report{ID: "report-x", UserID: "citizen-9", Status: StatusResolved}, nil)

	_, err := service.UpdateStatus(context.Background(), "report-x", StatusResolved)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestUpdateStatusErrors() {
	s.Run("not found", func() {
		s.mockRepo.EXPECT().UpdateStatus(gomock.Any(), "missing", StatusResolved).Return(nil, ErrReportNotFound)

		_, err := s.service.UpdateStatus(context.Background(), "missing", StatusResolved)
		s.ErrorIs(err, ErrReportNotFound)
	})

	s.Run("invalid status never reaches the store", func() {
		_, err := s.service.UpdateStatus(context.Background(), "report-x", "archived")
		s.ErrorIs(err, ErrInvalidStatus)
	})
}

func (s *ServiceSuite) TestListFilters() {
	all := []*Report{
		{ID: "3", UserID: "u-1", Category: CategoryFlood, Status: StatusReceived},
		{ID: "2", UserID: "u-2", Category: CategoryPothole, Status: StatusResolved},
		{ID: "1", UserID: "u-1", Category: CategoryPothole, Status: StatusInProgress},
	}
	s.mockRepo.EXPECT().FindAll(gomock.Any()).Return(all, nil).AnyTimes()

	ids := func(filter ListFilter) []string {
		got, err := s.service.List(context.Background(), filter)
		s.Require().NoError(err)
		out := []string{}
		for _, r := range got {
			out = append(out, r.ID)
		}
		return out
	}

	s.Equal([]string{"3", "2", "1"}, ids(ListFilter{}))
	s.Equal([]string{"2", "1"}, ids(ListFilter{Category: CategoryPothole}))
	s.Equal([]string{"2"}, ids(ListFilter{Status: StatusResolved}))
	s.Equal([]string{"3", "1"}, ids(ListFilter{UserID: "u-1"}))
	s.Equal([]string{"1"}, ids(ListFilter{UserID: "u-1", Category: CategoryPothole}))
}

func (s *ServiceSuite) TestStats() {
	s.mockRepo.EXPECT().FindAll(gomock.Any()).Return([]*Report{
		{Category: CategoryFlood, Status: StatusReceived},
		{Category: CategoryFlood, Status: StatusResolved},
		{Category: CategoryPothole, Status: StatusReceived},
	}, nil)

	stats, err := s.service.Stats(context.Background())
	s.Require().NoError(err)
	s.Equal(3, stats.Total)
	s.Equal(2, stats.Critical)
	s.Equal(2, stats.ByStatus[StatusReceived])
	s.Equal(0, stats.ByStatus[StatusInProgress])
	s.Equal(1, stats.ByStatus[StatusResolved])
	s.Equal(2, stats.ByCategory[CategoryFlood])
	s.Equal(1, stats.ByCategory[CategoryPothole])
}
