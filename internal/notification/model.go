package notification

import "time"

// Notification is a message addressed to a single user about a report.
// Once Read is true it is never reset.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ReportID  string    `json:"reportId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateParams holds the caller supplied fields of a new notification.
// ID and CreatedAt are assigned by the store.
type CreateParams struct {
	UserID   string
	ReportID string
	Title    string
	Message  string
	Read     bool
}

// Kind labels why a notification was produced, for metrics and logs
type Kind string

const (
	KindAdminFanout  Kind = "admin_fanout"
	KindStatusChange Kind = "status_change"
	KindDirect       Kind = "direct"
)
