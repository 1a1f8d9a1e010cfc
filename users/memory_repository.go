package users

import (
	"context"
	"strings"
	"sync"

	"github.com/user/taskmanager-go/db"
)

// MemoryRepository keeps users in process memory. It enforces the same
// unique-email rule as the Postgres schema and is used by STORE_DRIVER=memory
// and by tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string // lower-cased email -> id
	order   []string          // insertion order
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, taken := r.byEmail[key]; taken {
		return db.ErrDuplicateKey
	}
	if _, taken := r.byID[u.ID]; taken {
		return db.ErrDuplicateKey
	}
	r.byID[u.ID] = *u
	r.byEmail[key] = u.ID
	r.order = append(r.order, u.ID)
	return nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.byEmailLocked(email)
}

func (r *MemoryRepository) GetByLogin(_ context.Context, login string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, err := r.byEmailLocked(login); err == nil {
		return u, nil
	}
	// order is oldest first, so the first username hit is the oldest account.
	for _, id := range r.order {
		if u := r.byID[id]; u.Username == login {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *MemoryRepository) byEmailLocked(email string) (*User, error) {
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, db.ErrNotFound
	}
	u := r.byID[id]
	return &u, nil
}
