package repository

import (
	"context"
	"sync"
	"time"

	"knowledge-governance/internal/model"
)

type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID uint
	users  map[uint]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uint]model.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username }), nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email }), nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id uint) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id }), nil
}

func (r *MemoryUserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *MemoryUserRepository) find(match func(model.User) bool) *model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			out := u
			return &out
		}
	}
	return nil
}

func (r *MemoryUserRepository) UpdateRole(_ context.Context, id uint, role model.Role, department string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	u.Role, u.Department = role, department
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}
