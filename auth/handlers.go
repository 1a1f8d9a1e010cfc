package auth

import (
	"encoding/json"
	"net/http"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/logging"
)

// Handlers wraps the AuthService to provide HTTP handlers.
type Handlers struct {
	service *AuthService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(service *AuthService) *Handlers {
	return &Handlers{service: service}
}

// HandleRegister godoc
// @Summary User Registration
// @Description Registers a new user. The response never contains the password hash.
// @Tags Auth
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "User registration details"
// @Success 200 {object} users.User "User created successfully"
// @Failure 400 {object} apperror.ErrorResponse "Invalid input or email already registered"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/auth/register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		req.normalize()
		if err := Validate(req); err != nil {
			WriteError(w, r, err)
			return
		}

		user, err := h.service.Register(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		logging.FromContext(r.Context()).Info(r.Context(), "user registered", "user_id", user.ID)
		WriteJSON(w, http.StatusOK, user)
	}
}

// HandleLogin godoc
// @Summary User Login
// @Description Exchanges an email or username plus password for a bearer token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "User login credentials"
// @Success 200 {object} auth.TokenResponse "Login successful"
// @Failure 400 {object} apperror.ErrorResponse "Invalid input or missing fields"
// @Failure 401 {object} apperror.ErrorResponse "Invalid credentials"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/auth/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		if err := Validate(req); err != nil {
			WriteError(w, r, err)
			return
		}

		resp, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleMe godoc
// @Summary Current user
// @Description Returns the profile of the user the bearer token belongs to.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} users.User
// @Failure 401 {object} apperror.ErrorResponse "Invalid or missing token"
// @Router /api/users/me [get]
func (h *Handlers) HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			WriteError(w, r, apperror.NewAuthError("Not authenticated", nil))
			return
		}
		WriteJSON(w, http.StatusOK, user)
	}
}

// WriteJSON serializes `data` to JSON and writes it with the given `status`.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		// The header is already sent, so an encoding failure can only be dropped.
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError uses the apperror system to write standardized error responses.
// Untyped errors become a generic 500; server faults are logged with their
// cause through the request-scoped logger and never echoed to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, _ := apperror.FromError(err)

	if appErr.IsServerFault() {
		logging.FromContext(r.Context()).Error(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
	}
	if appErr.StatusCode() == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
