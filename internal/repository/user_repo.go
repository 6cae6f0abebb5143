package repository

import (
	"sync"

	"rewardhub/internal/model"
)

// UserRepository is the local registry of users, keyed by email.
type UserRepository interface {
	Get(email string) (model.User, error)
	Exists(email string) bool
	// Save inserts or replaces the user with the same email.
	Save(u model.User) error
	Delete(email string) error
	// List returns users in registration order.
	List() []model.User
	// Replace swaps the whole registry, keeping the order of users.
	Replace(users []model.User)
}

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]model.User
	order []string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]model.User)}
}

func (r *MemoryUserRepository) Get(email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[email]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) Exists(email string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[email]
	return ok
}

func (r *MemoryUserRepository) Save(u model.User) error {
	if u.Email == "" {
		return ErrMissingPrimaryKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.Email]; !ok {
		r.order = append(r.order, u.Email)
	}
	r.users[u.Email] = u
	return nil
}

func (r *MemoryUserRepository) Delete(email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[email]; !ok {
		return ErrUserNotFound
	}
	delete(r.users, email)
	for i, e := range r.order {
		if e == email {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryUserRepository) List() []model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.User, 0, len(r.order))
	for _, e := range r.order {
		out = append(out, r.users[e])
	}
	return out
}

func (r *MemoryUserRepository) Replace(users []model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = make(map[string]model.User, len(users))
	r.order = r.order[:0]
	for _, u := range users {
		if _, dup := r.users[u.Email]; !dup {
			r.order = append(r.order, u.Email)
		}
		r.users[u.Email] = u
	}
}
