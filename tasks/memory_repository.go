package tasks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/user/taskmanager-go/db"
)

// MemoryRepository keeps tasks in process memory. It backs STORE_DRIVER=memory
// and the tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tasks: make(map[string]*Task)}
}

func (r *MemoryRepository) Create(_ context.Context, t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[t.ID]; exists {
		return db.ErrDuplicateKey
	}
	r.tasks[t.ID] = t.clone()
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, ownerID, id string) (*Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, db.ErrNotFound
	}
	return t.clone(), nil
}

func (r *MemoryRepository) Update(_ context.Context, ownerID, id string, c Changes, updatedAt time.Time) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, db.ErrNotFound
	}
	c.apply(t, updatedAt)
	return t.clone(), nil
}

func (r *MemoryRepository) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.UserID != ownerID {
		return db.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, f Filter, offset, limit int) ([]Task, error) {
	matched := r.matching(f)
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	result := make([]Task, 0)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return result, nil
	}
	end := len(matched)
	if limit >= 0 && limit < end-offset {
		end = offset + limit
	}
	for _, t := range matched[offset:end] {
		result = append(result, *t)
	}
	return result, nil
}

func (r *MemoryRepository) Count(_ context.Context, f Filter) (int64, error) {
	return int64(len(r.matching(f))), nil
}

func (r *MemoryRepository) matching(f Filter) []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Task
	for _, t := range r.tasks {
		if f.Matches(t) {
			out = append(out, t.clone())
		}
	}
	return out
}
