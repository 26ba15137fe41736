package service

import (
	"context"
	"mime/multipart"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/repository"
)

type memoryUsers struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	nextID int
	err    error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]*domain.User{}}
}

func (m *memoryUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return repository.ErrConflict
		}
	}
	m.nextID++
	u.ID = "00000000-0000-4000-8000-" + pad12(m.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memoryUsers) Update(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func pad12(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 12 {
		s = "0" + s
	}
	return s
}

type memoryRegistry struct {
	mu        sync.Mutex
	entries   map[string]string
	deletes   int
	deleteErr error
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{entries: map[string]string{}}
}

func (r *memoryRegistry) Put(_ context.Context, userID, token string) (*domain.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[userID] = repository.HashToken(token)
	return &domain.AuthToken{UserID: userID, TokenHash: r.entries[userID]}, nil
}

func (r *memoryRegistry) Find(_ context.Context, userID, token string) (*domain.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.entries[userID]; ok && h == repository.HashToken(token) {
		return &domain.AuthToken{UserID: userID, TokenHash: h}, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRegistry) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.entries, userID)
	return nil
}

type memoryTasks struct {
	mu        sync.Mutex
	byID      map[string]*domain.Task
	nextID    int
	updateErr error
}

func newMemoryTasks() *memoryTasks {
	return &memoryTasks{byID: map[string]*domain.Task{}}
}

func (m *memoryTasks) Create(_ context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = "task-" + strconv.Itoa(m.nextID)
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memoryTasks) Update(_ context.Context, t *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	existing, ok := m.byID[t.ID]
	if !ok || existing.UserID != t.UserID {
		return repository.ErrNotFound
	}
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memoryTasks) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.byID[id]
	if !ok || existing.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memoryTasks) GetForUser(_ context.Context, userID, id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.byID[id]
	if !ok || existing.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *existing
	return &cp, nil
}

func (m *memoryTasks) ListByUser(_ context.Context, userID string) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Task{}
	for _, t := range m.byID {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

type mockFileStore struct {
	mock.Mock
}

func (m *mockFileStore) Store(fh *multipart.FileHeader, taskID string) (string, error) {
	args := m.Called(fh, taskID)
	return args.String(0), args.Error(1)
}

func (m *mockFileStore) Delete(name string) error {
	return m.Called(name).Error(0)
}
