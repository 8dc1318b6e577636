//go:build integration

package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/fkhayef/cityreports/internal/testutil/containers"
)

type PostgresRepositorySuite struct {
	suite.Suite
	pg   *containers.PostgresContainer
	repo *PostgresRepository
	ctx  context.Context
}

func TestPostgresRepositorySuite(t *testing.T) {
	suite.Run(t, new(PostgresRepositorySuite))
}

func (s *PostgresRepositorySuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.repo = NewRepository(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresRepositorySuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx))
}

func (s *PostgresRepositorySuite) TestCreateAndFindNewestFirst() {
	first, err := s.repo.Create(s.ctx, CreateParams{UserID: "u-1", ReportID: "r-1", Title: "first", Message: "m"})
	s.Require().NoError(err)
	second, err := s.repo.Create(s.ctx, CreateParams{UserID: "u-1", ReportID: "r-2", Title: "second", Message: "m"})
	s.Require().NoError(err)
	_, err = s.repo.Create(s.ctx, CreateParams{UserID: "u-2", ReportID: "r-3", Title: "other", Message: "m"})
	s.Require().NoError(err)

	got, err := s.repo.FindByUserID(s.ctx, "u-1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(second.ID, got[0].ID)
	s.Equal(first.ID, got[1].ID)
	s.False(got[0].Read)
}

func (s *PostgresRepositorySuite) TestMarkAsRead() {
	n, err := s.repo.Create(s.ctx, CreateParams{UserID: "u-1", ReportID: "r-1", Title: "t", Message: "m"})
	s.Require().NoError(err)

	s.Require().NoError(s.repo.MarkAsRead(s.ctx, n.ID))
	s.Require().NoError(s.repo.MarkAsRead(s.ctx, n.ID))

	got, err := s.repo.GetByID(s.ctx, n.ID)
	s.Require().NoError(err)
	s.True(got.Read)

	count, err := s.repo.CountUnread(s.ctx, "u-1")
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *PostgresRepositorySuite) TestMissingIDs() {
	s.ErrorIs(s.repo.MarkAsRead(s.ctx, "0b1c6a55-4b9b-4e4e-9d4b-6a0b8f2f3c11"), ErrNotificationNotFound)
	s.ErrorIs(s.repo.MarkAsRead(s.ctx, "not-a-uuid"), ErrNotificationNotFound)

	_, err := s.repo.GetByID(s.ctx, "not-a-uuid")
	s.ErrorIs(err, ErrNotificationNotFound)
}

func (s *PostgresRepositorySuite) TestMarkAllAsRead() {
	for i := 0; i < 3; i++ {
		_, err := s.repo.Create(s.ctx, CreateParams{UserID: "u-1", ReportID: "r", Title: "t", Message: "m"})
		s.Require().NoError(err)
	}
	s.Require().NoError(s.repo.MarkAllAsRead(s.ctx, "u-1"))

	count, err := s.repo.CountUnread(s.ctx, "u-1")
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *PostgresRepositorySuite) TestFindAdmins() {
	s.Require().NoError(s.pg.SeedProfile(s.ctx, "admin-b", "b@city.gov", "B", "admin"))
	s.Require().NoError(s.pg.SeedProfile(s.ctx, "admin-a", "a@city.gov", "A", "admin"))
	s.Require().NoError(s.pg.SeedProfile(s.ctx, "citizen", "c@city.gov", "C", "citizen"))

	ids, err := s.repo.FindAdmins(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"admin-a", "admin-b"}, ids)
}
