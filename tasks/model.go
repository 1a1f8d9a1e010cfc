// Package tasks owns the Task resource: its model, the owner-scoped
// repository contract with Postgres and in-memory drivers, the service that
// applies defaults and validation, and the HTTP handlers mounted under
// /api/tasks.
package tasks

import "time"

// DefaultPriority is assigned when a task is created without a priority.
const DefaultPriority = "medium"

// Task is a single to-do item. It is only ever visible to its owner.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// Filter selects the tasks of one owner. Nil fields match anything; set
// fields must match exactly and are AND-combined.
type Filter struct {
	OwnerID   string
	Category  *string
	Priority  *string
	Completed *bool
	DueDate   *time.Time
}

// Matches reports whether t satisfies every condition of f.
func (f Filter) Matches(t *Task) bool {
	if t.UserID != f.OwnerID {
		return false
	}
	if f.Category != nil && (t.Category == nil || *t.Category != *f.Category) {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.DueDate != nil && (t.DueDate == nil || !t.DueDate.Equal(*f.DueDate)) {
		return false
	}
	return true
}

// Changes is a partial update. Nil pointers and unset Optionals leave the
// stored value alone; a null Optional clears the column.
type Changes struct {
	Title       *string
	Description Optional[string]
	Category    Optional[string]
	Priority    *string
	DueDate     Optional[time.Time]
	Completed   *bool
}

// apply writes c onto t and stamps updatedAt.
func (c Changes) apply(t *Task, updatedAt time.Time) {
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Description.Set {
		t.Description = c.Description.Ptr()
	}
	if c.Category.Set {
		t.Category = c.Category.Ptr()
	}
	if c.Priority != nil {
		t.Priority = *c.Priority
	}
	if c.DueDate.Set {
		t.DueDate = c.DueDate.Ptr()
	}
	if c.Completed != nil {
		t.Completed = *c.Completed
	}
	t.UpdatedAt = &updatedAt
}

// clone returns a deep copy so callers never share pointers with a store.
func (t *Task) clone() *Task {
	c := *t
	c.Description = clonePtr(t.Description)
	c.Category = clonePtr(t.Category)
	c.DueDate = clonePtr(t.DueDate)
	c.UpdatedAt = clonePtr(t.UpdatedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
