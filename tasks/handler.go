package tasks

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/auth"
	"github.com/user/taskmanager-go/logging"
)

// Handler serves the /api/tasks routes. It must be mounted behind
// auth.JWTMiddleware.
type Handler struct {
	service *Service
}

// NewHandler creates a new Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the task routes on a router mounted at /api/tasks.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", h.listTasks)
	router.Post("/", h.createTask)
	router.Get("/{id}", h.getTask)
	router.Put("/{id}", h.updateTask)
	router.Delete("/{id}", h.deleteTask)
}

// createTask godoc
// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body tasks.CreateTaskRequest true "New task"
// @Success 200 {object} tasks.Task
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 500 {object} apperror.ErrorResponse
// @Router /api/tasks [post]
func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r)
	if !ok {
		return
	}
	var req CreateTaskRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}

	task, err := h.service.Create(r.Context(), who, req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Debug(r.Context(), "task created", "task_id", task.ID, "user_id", who.UserID, "owner", who.Username)
	auth.WriteJSON(w, http.StatusOK, task)
}

// getTask godoc
// @Summary Get task
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} tasks.Task
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/tasks/{id} [get]
func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r)
	if !ok {
		return
	}
	task, err := h.service.Get(r.Context(), who, chi.URLParam(r, "id"))
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, task)
}

// updateTask godoc
// @Summary Update task
// @Description Partial update: only keys present in the body change. updated_at is always refreshed.
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param body body tasks.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} tasks.Task
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse "Task not found or not owned by the caller"
// @Router /api/tasks/{id} [put]
func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r)
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}

	task, err := h.service.Update(r.Context(), who, chi.URLParam(r, "id"), req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, task)
}

// deleteTask godoc
// @Summary Delete task
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} tasks.MessageResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse "Task not found or not owned by the caller"
// @Router /api/tasks/{id} [delete]
func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), who, chi.URLParam(r, "id")); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Task deleted successfully"})
}

// listTasks godoc
// @Summary List tasks
// @Description Exact-match filters are AND-combined. due_date must be an RFC 3339 instant.
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Param category query string false "Category"
// @Param priority query string false "Priority"
// @Param completed query bool false "Completion state"
// @Param due_date query string false "Due date (RFC 3339)"
// @Success 200 {object} tasks.ListResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/tasks [get]
func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	who, ok := identity(w, r)
	if !ok {
		return
	}
	q, err := parseListQuery(r.URL.Query())
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}

	resp, err := h.service.List(r.Context(), who, q)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, resp)
}

func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	who, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		auth.WriteError(w, r, apperror.NewAuthError("Not authenticated", nil))
	}
	return who, ok
}

// parseListQuery reads pagination and filters. Empty parameters count as
// absent; unparsable ones are reported per parameter.
func parseListQuery(values url.Values) (ListQuery, error) {
	q := ListQuery{Page: DefaultPage, Limit: DefaultLimit}
	fields := map[string]string{}

	if v := values.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields["page"] = "must be an integer"
		}
		q.Page = n
	}
	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields["limit"] = "must be an integer"
		}
		q.Limit = n
	}
	if v := values.Get("category"); v != "" {
		q.Category = &v
	}
	if v := values.Get("priority"); v != "" {
		q.Priority = &v
	}
	if v := values.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fields["completed"] = "must be true or false"
		} else {
			q.Completed = &b
		}
	}
	if v := values.Get("due_date"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			fields["due_date"] = "must be an RFC 3339 timestamp"
		} else {
			q.DueDate = &t
		}
	}

	if len(fields) > 0 {
		return ListQuery{}, apperror.NewFieldValidationError("invalid query parameters", fields)
	}
	return q, nil
}
