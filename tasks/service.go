package tasks

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/auth"
	"github.com/user/taskmanager-go/db"
)

const msgTaskNotFound = "Task not found"

// Service implements task operations on behalf of an authenticated caller.
// The caller's identity is always passed in explicitly; the service never
// reads it from a context.
type Service struct {
	repo     Repository
	maxLimit int
	now      func() time.Time
}

// NewService creates a Service. maxLimit bounds the page size of List.
func NewService(repo Repository, maxLimit int) *Service {
	return &Service{repo: repo, maxLimit: maxLimit, now: time.Now}
}

// Create stores a new task owned by who.
func (s *Service) Create(ctx context.Context, who auth.Identity, req CreateTaskRequest) (*Task, error) {
	if strings.TrimSpace(req.Title) == "" && req.Title != "" {
		return nil, fieldError("title", "must not be blank")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Priority != nil {
		priority := strings.TrimSpace(*req.Priority)
		req.Priority = &priority
	}
	if err := auth.Validate(req); err != nil {
		return nil, err
	}

	priority := DefaultPriority
	if req.Priority != nil && *req.Priority != "" {
		priority = *req.Priority
	}

	task := &Task{
		ID:          uuid.NewString(),
		UserID:      who.UserID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    priority,
		DueDate:     normalizeTime(req.DueDate),
		Completed:   req.Completed != nil && *req.Completed,
		CreatedAt:   s.timestamp(),
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, apperror.NewDatabaseError("failed to create task", err)
	}
	return task, nil
}

// Get returns one task of who.
func (s *Service) Get(ctx context.Context, who auth.Identity, id string) (*Task, error) {
	task, err := s.repo.Get(ctx, who.UserID, id)
	if err != nil {
		return nil, storeError(err, "failed to get task")
	}
	return task, nil
}

// Update applies the keys present in req and always refreshes updated_at.
// An empty request is valid and only touches the timestamp.
func (s *Service) Update(ctx context.Context, who auth.Identity, id string, req UpdateTaskRequest) (*Task, error) {
	changes, err := req.changes()
	if err != nil {
		return nil, err
	}
	task, err := s.repo.Update(ctx, who.UserID, id, changes, s.timestamp())
	if err != nil {
		return nil, storeError(err, "failed to update task")
	}
	return task, nil
}

// Delete removes one task of who.
func (s *Service) Delete(ctx context.Context, who auth.Identity, id string) error {
	if err := s.repo.Delete(ctx, who.UserID, id); err != nil {
		return storeError(err, "failed to delete task")
	}
	return nil
}

// List returns one page of who's tasks matching q, and the total match count.
func (s *Service) List(ctx context.Context, who auth.Identity, q ListQuery) (*ListResponse, error) {
	fields := map[string]string{}
	if q.Page < 1 {
		fields["page"] = "must be at least 1"
	}
	if q.Limit < 1 {
		fields["limit"] = "must be at least 1"
	} else if s.maxLimit > 0 && q.Limit > s.maxLimit {
		fields["limit"] = "must be at most " + strconv.Itoa(s.maxLimit)
	} else if q.Page > 1 && q.Page-1 > math.MaxInt/q.Limit {
		// The window offset would not fit in an int.
		fields["page"] = "is too large"
	}
	if len(fields) > 0 {
		return nil, apperror.NewFieldValidationError("invalid pagination", fields)
	}

	filter := Filter{
		OwnerID:   who.UserID,
		Category:  q.Category,
		Priority:  q.Priority,
		Completed: q.Completed,
		DueDate:   normalizeTime(q.DueDate),
	}

	tasks, err := s.repo.List(ctx, filter, (q.Page-1)*q.Limit, q.Limit)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list tasks", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to count tasks", err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return &ListResponse{Tasks: tasks, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// changes validates req and converts it into repository Changes. Title,
// priority and completed cannot be cleared.
func (req UpdateTaskRequest) changes() (Changes, error) {
	var c Changes
	fields := map[string]string{}

	if req.Title.Set {
		title := strings.TrimSpace(req.Title.Value)
		switch {
		case req.Title.Null:
			fields["title"] = "cannot be null"
		case title == "":
			fields["title"] = "must not be blank"
		default:
			c.Title = &title
		}
	}
	if req.Priority.Set {
		priority := strings.TrimSpace(req.Priority.Value)
		switch {
		case req.Priority.Null:
			fields["priority"] = "cannot be null"
		case priority == "":
			fields["priority"] = "must not be blank"
		default:
			c.Priority = &priority
		}
	}
	if req.Completed.Set {
		if req.Completed.Null {
			fields["completed"] = "cannot be null"
		} else {
			completed := req.Completed.Value
			c.Completed = &completed
		}
	}

	// Values that survived the null/blank checks get the same length rules
	// as CreateTaskRequest.
	limits := taskLimits{Title: c.Title, Priority: c.Priority, Category: req.Category.Ptr()}
	if err := auth.Validate(limits); err != nil {
		if appErr, ok := apperror.FromError(err); ok {
			for field, reason := range appErr.Fields {
				fields[field] = reason
			}
		} else {
			return Changes{}, err
		}
	}
	if len(fields) > 0 {
		return Changes{}, apperror.NewFieldValidationError("validation failed", fields)
	}

	c.Description = req.Description
	c.Category = req.Category
	c.DueDate = req.DueDate
	if c.DueDate.Set && !c.DueDate.Null {
		c.DueDate.Value = *normalizeTime(&c.DueDate.Value)
	}
	return c, nil
}

// taskLimits carries the length rules shared by create and update. Nil
// fields are not checked.
type taskLimits struct {
	Title    *string `json:"title" validate:"omitempty,max=255"`
	Category *string `json:"category" validate:"omitempty,max=100"`
	Priority *string `json:"priority" validate:"omitempty,max=50"`
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// normalizeTime brings t to the precision Postgres stores, so equality filters
// behave the same on every driver.
func normalizeTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Microsecond)
	return &v
}

// storeError maps db.ErrNotFound to a 404 and anything else to a database fault.
func storeError(err error, msg string) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperror.NewNotFoundError(msgTaskNotFound, err)
	}
	return apperror.NewDatabaseError(msg, err)
}

func fieldError(field, reason string) error {
	return apperror.NewFieldValidationError("validation failed", map[string]string{field: reason})
}
