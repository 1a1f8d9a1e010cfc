package tasks

import "time"

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,max=100"`
	Priority    *string    `json:"priority,omitempty" validate:"omitempty,max=50"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
}

// UpdateTaskRequest is the body of PUT /api/tasks/{id}. Only keys present in
// the document are applied; null clears description, category and due_date.
type UpdateTaskRequest struct {
	Title       Optional[string]    `json:"title" swaggertype:"string"`
	Description Optional[string]    `json:"description" swaggertype:"string"`
	Category    Optional[string]    `json:"category" swaggertype:"string"`
	Priority    Optional[string]    `json:"priority" swaggertype:"string"`
	DueDate     Optional[time.Time] `json:"due_date" swaggertype:"string" format:"date-time"`
	Completed   Optional[bool]      `json:"completed" swaggertype:"boolean"`
}

// ListQuery holds the query parameters of GET /api/tasks.
type ListQuery struct {
	Page      int
	Limit     int
	Category  *string
	Priority  *string
	Completed *bool
	DueDate   *time.Time
}

// Defaults for ListQuery when the caller omits page or limit.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// ListResponse is one page of tasks plus the total number of matches.
type ListResponse struct {
	Tasks []Task `json:"tasks"`
	Total int64  `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// MessageResponse is used by endpoints that only acknowledge an action.
type MessageResponse struct {
	Message string `json:"message"`
}
