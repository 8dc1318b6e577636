//go:build integration

package report

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

func (s *PostgresRepositorySuite) save(title string, category Category) *Report {
	saved, err := s.repo.Save(s.ctx, &Report{
		UserID:      "citizen-1",
		UserName:    "Ana",
		Category:    category,
		Title:       title,
		Description: "d",
		Location:    Location{Lat: 4.6, Lng: -74.08, Address: "Main St"},
		Status:      StatusReceived,
	})
	s.Require().NoError(err)
	return saved
}

func (s *PostgresRepositorySuite) TestSaveRoundTrip() {
	url := "https://storage.googleapis.com/reports/citizen-1/1.png"
	saved, err := s.repo.Save(s.ctx, &Report{
		UserID:      "citizen-1",
		UserName:    "Ana",
		Category:    CategoryFlood,
		Title:       "Flooded underpass",
		Description: "Water rising",
		Location:    Location{Lat: 4.6, Lng: -74.08, Address: "Main St"},
		ImageURL:    &url,
		Status:      StatusReceived,
	})
	s.Require().NoError(err)

	s.NotEmpty(saved.ID)
	s.Equal(CategoryFlood, saved.Category)
	s.Equal("Main St", saved.Location.Address)
	s.Require().NotNil(saved.ImageURL)
	s.Equal(url, *saved.ImageURL)
	s.False(saved.CreatedAt.IsZero())
	s.False(saved.UpdatedAt.Before(saved.CreatedAt))
}

func (s *PostgresRepositorySuite) TestFindAllNewestFirst() {
	first := s.save("first", CategoryPothole)
	second := s.save("second", CategoryFlood)

	all, err := s.repo.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(second.ID, all[0].ID)
	s.Equal(first.ID, all[1].ID)
	s.Nil(all[0].ImageURL)
}

func (s *PostgresRepositorySuite) TestUpdateStatusMovesUpdatedAt() {
	saved := s.save("Broken light", CategoryStreetlight)

	prev := saved.UpdatedAt
	for _, status := range []Status{StatusInProgress, StatusInProgress, StatusResolved} {
		updated, err := s.repo.UpdateStatus(s.ctx, saved.ID, status)
		s.Require().NoError(err)
		s.Equal(status, updated.Status)
		s.True(updated.UpdatedAt.After(prev))
		s.True(updated.CreatedAt.Equal(saved.CreatedAt))
		prev = updated.UpdatedAt
	}
}

func (s *PostgresRepositorySuite) TestUpdateStatusNotFound() {
	_, err := s.repo.UpdateStatus(s.ctx, "0b1c6a55-4b9b-4e4e-9d4b-6a0b8f2f3c11", StatusResolved)
	s.ErrorIs(err, ErrReportNotFound)

	_, err = s.repo.UpdateStatus(s.ctx, "not-a-uuid", StatusResolved)
	s.ErrorIs(err, ErrReportNotFound)
}
