package service

import (
	"context"
	"fmt"
	"sync"

	userserrors "ebooking/internal/users/errors"
	"ebooking/pkg/model"
)

// memoryUsers keeps users keyed by id with a unique email index.
type memoryUsers struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	seq     int
	findErr error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]*model.User{}}
}

func (m *memoryUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(user.Email, "") {
		return userserrors.ErrDuplicateEmail
	}
	m.seq++
	user.ID = fmt.Sprintf("65f0c0ffee0000000000%04d", m.seq)
	stored := *user
	m.byID[user.ID] = &stored
	return nil
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.byID {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, userserrors.ErrNotFound
}

func (m *memoryUsers) UpdateProfile(_ context.Context, id string, update *model.UserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return userserrors.ErrNotFound
	}
	if m.emailTaken(update.Email, id) {
		return userserrors.ErrDuplicateEmail
	}
	u.Email, u.FirstName, u.LastName = update.Email, update.FirstName, update.LastName
	return nil
}

func (m *memoryUsers) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return userserrors.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memoryUsers) UpdateRole(_ context.Context, id string, role model.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return userserrors.ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *memoryUsers) emailTaken(email, exceptID string) bool {
	for id, u := range m.byID {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}
