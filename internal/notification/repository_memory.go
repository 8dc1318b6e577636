package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/cityreports/internal/user"
)

// RosterSource resolves users by role; user.Repository satisfies it
type RosterSource interface {
	ListIDsByRole(ctx context.Context, role user.Role) ([]string, error)
}

// InMemory is a Repository for development and tests
type InMemory struct {
	mu      sync.RWMutex
	byID    map[string]*Notification
	roster  RosterSource
	now     func() time.Time
	lastNow time.Time
}

func NewInMemory(roster RosterSource) *InMemory {
	return &InMemory{
		byID:   make(map[string]*Notification),
		roster: roster,
		now:    time.Now,
	}
}

// stamp returns a creation time strictly after the previous one so
// newest-first ordering is total. Caller holds mu.
func (m *InMemory) stamp() time.Time {
	t := m.now().UTC()
	if !t.After(m.lastNow) {
		t = m.lastNow.Add(time.Microsecond)
	}
	m.lastNow = t
	return t
}

func (m *InMemory) Create(_ context.Context, params CreateParams) (*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := &Notification{
		ID:        uuid.NewString(),
		UserID:    params.UserID,
		ReportID:  params.ReportID,
		Title:     params.Title,
		Message:   params.Message,
		Read:      params.Read,
		CreatedAt: m.stamp(),
	}
	m.byID[n.ID] = n
	copied := *n
	return &copied, nil
}

func (m *InMemory) GetByID(_ context.Context, id string) (*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.byID[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}
	copied := *n
	return &copied, nil
}

func (m *InMemory) FindByUserID(_ context.Context, userID string) ([]*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*Notification{}
	for _, n := range m.byID {
		if n.UserID == userID {
			copied := *n
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *InMemory) MarkAsRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byID[id]
	if !ok {
		return ErrNotificationNotFound
	}
	n.Read = true
	return nil
}

func (m *InMemory) MarkAllAsRead(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.byID {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (m *InMemory) CountUnread(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, n := range m.byID {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *InMemory) FindAdmins(ctx context.Context) ([]string, error) {
	if m.roster == nil {
		return nil, nil
	}
	return m.roster.ListIDsByRole(ctx, user.RoleAdmin)
}
