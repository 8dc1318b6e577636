package user

import (
	"context"
	"sort"
	"sync"
)

// InMemory is a Repository for development and tests
type InMemory struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewInMemory(users ...*User) *InMemory {
	m := &InMemory{users: make(map[string]*User)}
	for _, u := range users {
		m.Put(u)
	}
	return m
}

// Put inserts or replaces a user
func (m *InMemory) Put(u *User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *u
	m.users[u.ID] = &copied
}

func (m *InMemory) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *InMemory) ListIDsByRole(_ context.Context, role Role) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, u := range m.users {
		if u.Role == role {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
