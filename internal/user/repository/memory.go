package repository

import (
	"context"
	"strings"
	"sync"

	"user-enrollment/backend/internal/user/domain"
)

// MemoryRepository keeps users in process memory. Stored records are copied on the way in and
// out, so callers never share a *domain.User with it.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.Record
	byLogin map[string]string
	creds   domain.Credentials
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository(creds domain.Credentials) *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]domain.Record),
		byLogin: make(map[string]string),
		creds:   creds,
	}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	rec, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return domain.Restore(r.creds, rec)
}

func (r *MemoryRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	r.mu.RLock()
	id, ok := r.byLogin[strings.ToLower(login)]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryRepository) Create(ctx context.Context, u *domain.User) error {
	rec := u.Record()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byLogin[rec.Login]; ok {
		return ErrDuplicateLogin
	}
	r.byID[rec.ID] = rec
	r.byLogin[rec.Login] = rec.ID
	return nil
}

func (r *MemoryRepository) UpdateCredentials(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[u.ID()]
	if !ok {
		return nil
	}
	rec.Salt = u.Salt()
	rec.PasswordHash = u.PasswordHash()
	rec.UpdatedAt = u.UpdatedAt()
	r.byID[rec.ID] = rec
	return nil
}

// Len returns the number of stored users.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
