package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CreateReportRequest represents the request to file a report
type CreateReportRequest struct {
	Category    Category        `json:"category" example:"flood"`
	Title       string          `json:"title" example:"Flooded underpass"`
	Description string          `json:"description" example:"Water is knee deep and rising"`
	Location    LocationRequest `json:"location"`
	Status      Status          `json:"status,omitempty" example:"received"`
	// ImageDataURL is an optional data:image/...;base64 payload
	ImageDataURL string `json:"imageDataUrl,omitempty"`
}

// LocationRequest is the location part of CreateReportRequest
type LocationRequest struct {
	Lat     *float64 `json:"lat" example:"4.6097"`
	Lng     *float64 `json:"lng" example:"-74.0817"`
	Address string   `json:"address" example:"Main St & 3rd Ave"`
}

// Validate checks the request before it reaches the service
func (r *CreateReportRequest) Validate() error {
	if !r.Category.Valid() {
		return fmt.Errorf("category must be one of %v", Categories)
	}
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return errors.New("description is required")
	}
	if r.Location.Lat == nil || r.Location.Lng == nil {
		return errors.New("location.lat and location.lng are required")
	}
	if *r.Location.Lat < -90 || *r.Location.Lat > 90 {
		return errors.New("location.lat must be between -90 and 90")
	}
	if *r.Location.Lng < -180 || *r.Location.Lng > 180 {
		return errors.New("location.lng must be between -180 and 180")
	}
	if r.Status != "" && !r.Status.Valid() {
		return fmt.Errorf("status must be one of %v", Statuses)
	}
	return nil
}

// ToReport builds the domain report filed by the given submitter
func (r *CreateReportRequest) ToReport(userID, userName string) *Report {
	return &Report{
		UserID:      userID,
		UserName:    userName,
		Category:    r.Category,
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		Location: Location{
			Lat:     *r.Location.Lat,
			Lng:     *r.Location.Lng,
			Address: strings.TrimSpace(r.Location.Address),
		},
		Status: r.Status,
	}
}

// UpdateStatusRequest represents the request to move a report to a new status
type UpdateStatusRequest struct {
	Status Status `json:"status" example:"in_progress"`
}

func (r *UpdateStatusRequest) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("status must be one of %v", Statuses)
	}
	return nil
}

// ReportResponse represents the response for a report
type ReportResponse struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	UserName    string   `json:"userName"`
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    Location `json:"location"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
	Status      Status   `json:"status"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// ToResponse converts a Report model to a ReportResponse DTO
func (r *Report) ToResponse() *ReportResponse {
	return &ReportResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		UserName:    r.UserName,
		Category:    r.Category,
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		ImageURL:    r.ImageURL,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   r.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
