package report

import (
	"strings"
	"time"
)

// Category classifies the infrastructure issue being reported
type Category string

const (
	CategoryPothole       Category = "pothole"
	CategoryStreetlight   Category = "streetlight"
	CategoryTrafficSignal Category = "traffic-signal"
	CategoryStormDrain    Category = "storm-drain"
	CategoryWaterLeak     Category = "water-leak"
	CategoryPowerGrid     Category = "power-grid"
	CategoryAccident      Category = "accident"
	CategoryFlood         Category = "flood"
	CategoryLandslide     Category = "landslide"
	CategoryOther         Category = "other"
)

// Categories lists every accepted category in display order
var Categories = []Category{
	CategoryPothole,
	CategoryStreetlight,
	CategoryTrafficSignal,
	CategoryStormDrain,
	CategoryWaterLeak,
	CategoryPowerGrid,
	CategoryAccident,
	CategoryFlood,
	CategoryLandslide,
	CategoryOther,
}

// criticalCategories trigger an immediate alert to every administrator
var criticalCategories = map[Category]bool{
	CategoryFlood:     true,
	CategoryLandslide: true,
	CategoryAccident:  true,
	CategoryPowerGrid: true,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// IsCritical reports whether c is a public-safety category
func (c Category) IsCritical() bool {
	return criticalCategories[c]
}

// Status is the triage state of a report
type Status string

const (
	StatusReceived   Status = "received"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

var Statuses = []Status{StatusReceived, StatusInProgress, StatusResolved}

func (s Status) Valid() bool {
	return s == StatusReceived || s == StatusInProgress || s == StatusResolved
}

// Humanize renders the status for people: "in_progress" becomes "in progress"
func (s Status) Humanize() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// Location is where the issue was observed
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// Report represents a citizen-submitted incident
type Report struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	// UserName is captured when the report is filed and never refreshed
	UserName    string    `json:"userName"`
	Category    Category  `json:"category"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    Location  `json:"location"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Category Category
	Status   Status
	UserID   string
}

func (f ListFilter) matches(r *Report) bool {
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	return true
}

// Stats summarises reports for the admin dashboard
type Stats struct {
	Total      int              `json:"total"`
	ByStatus   map[Status]int   `json:"byStatus"`
	ByCategory map[Category]int `json:"byCategory"`
	Critical   int              `json:"critical"`
}
