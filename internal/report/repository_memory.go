package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemory is a Repository for development and tests
type InMemory struct {
	mu      sync.RWMutex
	byID    map[string]*Report
	now     func() time.Time
	lastNow time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID: make(map[string]*Report),
		now:  time.Now,
	}
}

// stamp returns a time strictly after every previously issued one.
// Caller holds mu.
func (m *InMemory) stamp() time.Time {
	t := m.now().UTC()
	if !t.After(m.lastNow) {
		t = m.lastNow.Add(time.Microsecond)
	}
	m.lastNow = t
	return t
}

func clone(r *Report) *Report {
	copied := *r
	if r.ImageURL != nil {
		url := *r.ImageURL
		copied.ImageURL = &url
	}
	return &copied
}

func (m *InMemory) Save(_ context.Context, r *Report) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := clone(r)
	saved.ID = uuid.NewString()
	if saved.Status == "" {
		saved.Status = StatusReceived
	}
	saved.CreatedAt = m.stamp()
	saved.UpdatedAt = saved.CreatedAt
	m.byID[saved.ID] = saved
	return clone(saved), nil
}

func (m *InMemory) FindAll(_ context.Context) ([]*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Report, 0, len(m.byID))
	for _, r := range m.byID {
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *InMemory) UpdateStatus(_ context.Context, id string, status Status) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	r.Status = status
	r.UpdatedAt = m.stamp()
	return clone(r), nil
}
