package memory

import (
	"context"
	"sync"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/model"
	"github.com/google/uuid"
)

// MemoryAccountRepo is a process-local store for development and tests.
type MemoryAccountRepo struct {
	mu        sync.RWMutex
	byEmail   map[string]model.Account
	byRefresh map[string]string
}

func NewMemoryAccountRepo() *MemoryAccountRepo {
	return &MemoryAccountRepo{
		byEmail:   make(map[string]model.Account),
		byRefresh: make(map[string]string),
	}
}

func (m *MemoryAccountRepo) CreateAccount(_ context.Context, email, passwordHash string) (model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[email]; ok {
		return model.Account{}, customErrors.ErrAlreadyExists
	}
	now := time.Now().UTC()
	acc := model.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.byEmail[email] = acc
	return acc, nil
}

func (m *MemoryAccountRepo) GetAccountByEmail(_ context.Context, email string) (model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.byEmail[email]
	if !ok {
		return model.Account{}, customErrors.ErrNotFound
	}
	return clone(acc), nil
}

func (m *MemoryAccountRepo) GetAccountByRefreshToken(_ context.Context, token string) (model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email, ok := m.byRefresh[token]
	if !ok || token == "" {
		return model.Account{}, customErrors.ErrNotFound
	}
	return clone(m.byEmail[email]), nil
}

func (m *MemoryAccountRepo) UpdateRefreshToken(_ context.Context, email string, token *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.byEmail[email]
	if !ok {
		return customErrors.ErrNotFound
	}
	if acc.RefreshToken != nil {
		delete(m.byRefresh, *acc.RefreshToken)
	}
	acc.RefreshToken = nil
	if token != nil && *token != "" {
		t := *token
		acc.RefreshToken = &t
		m.byRefresh[t] = email
	}
	acc.UpdatedAt = time.Now().UTC()
	m.byEmail[email] = acc
	return nil
}

func clone(acc model.Account) model.Account {
	if acc.RefreshToken != nil {
		t := *acc.RefreshToken
		acc.RefreshToken = &t
	}
	return acc
}
