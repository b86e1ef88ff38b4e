package testutil

import (
	"context"

	"github.com/foliofyhq/foliofy/internal/domain/user"
	"github.com/foliofyhq/foliofy/internal/pkg/errors"
)

// MockUserRepository is a mock implementation of user.Repository
type MockUserRepository struct {
	Users       map[string]*user.User
	EmailIndex  map[string]*user.User
	NextID      int
	CreateError error
	GetError    error
	UpdateError error
	UpdateCalls int
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:      make(map[string]*user.User),
		EmailIndex: make(map[string]*user.User),
		NextID:     1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, ok := m.EmailIndex[u.Email]; ok {
		return errors.Conflict("Email already registered")
	}
	if u.ID == "" {
		u.ID = mockID(m.NextID)
		m.NextID++
	}
	m.Users[u.ID] = u
	m.EmailIndex[u.Email] = u
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.Users[id]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return clone(u), nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	u, ok := m.EmailIndex[email]
	if !ok {
		return nil, errors.NotFound("User")
	}
	return clone(u), nil
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	m.UpdateCalls++
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.Users[u.ID]; !ok {
		return errors.NotFound("User")
	}
	cp := clone(u)
	m.Users[u.ID] = cp
	m.EmailIndex[u.Email] = cp
	return nil
}

// clone deep-copies a user so callers cannot mutate the stored record
// without going through Update.
func clone(u *user.User) *user.User {
	cp := *u
	if u.Subscription != nil {
		sub := *u.Subscription
		cp.Subscription = &sub
	}
	return &cp
}

func mockID(n int) string {
	const digits = "0123456789abcdef"
	id := make([]byte, 0, 8)
	for n > 0 {
		id = append(id, digits[n%16])
		n /= 16
	}
	for len(id) < 8 {
		id = append(id, '0')
	}
	return "mock-" + string(id)
}
