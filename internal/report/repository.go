package report

//go:generate mockgen -destination=mock_ports.go -package=report . Repository,Notifier,Dispatcher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Repository is the persistence port for reports
type Repository interface {
	// Save inserts r and returns it with id and timestamps assigned
	Save(ctx context.Context, r *Report) (*Report, error)
	// FindAll returns every report newest first
	FindAll(ctx context.Context) ([]*Report, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Report, error)
}

// PostgresRepository handles report data persistence
type PostgresRepository struct {
	db *sql.DB
}

// NewRepository creates a new report repository with database dependency injected
func NewRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const reportColumns = `id, user_id, user_name, category, title, description, lat, lng, address, image_url, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*Report, error) {
	r := &Report{}
	var imageURL sql.NullString
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.UserName,
		&r.Category,
		&r.Title,
		&r.Description,
		&r.Location.Lat,
		&r.Location.Lng,
		&r.Location.Address,
		&imageURL,
		&r.Status,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if imageURL.Valid {
		r.ImageURL = &imageURL.String
	}
	return r, nil
}

// Save inserts a new report into the database
func (r *PostgresRepository) Save(ctx context.Context, rep *Report) (*Report, error) {
	query := `
		INSERT INTO reports (user_id, user_name, category, title, description, lat, lng, address, image_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + reportColumns

	saved, err := scanReport(r.db.QueryRowContext(ctx, query,
		rep.UserID,
		rep.UserName,
		string(rep.Category),
		rep.Title,
		rep.Description,
		rep.Location.Lat,
		rep.Location.Lng,
		rep.Location.Address,
		rep.ImageURL,
		string(rep.Status),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	return saved, nil
}

// FindAll retrieves every report, newest first
func (r *PostgresRepository) FindAll(ctx context.Context) ([]*Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}

	return reports, nil
}

// UpdateStatus sets the status and moves updated_at forward. The new
// timestamp is always strictly later than the previous one, even when the
// clock has not advanced.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrReportNotFound
	}

	query := `
		UPDATE reports
		SET status = $2,
		    updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')
		WHERE id = $1
		RETURNING ` + reportColumns

	updated, err := scanReport(r.db.QueryRowContext(ctx, query, id, string(status)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to update report status: %w", err)
	}

	return updated, nil
}
