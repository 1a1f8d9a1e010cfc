package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/auth"
	"github.com/user/taskmanager-go/config"
	_ "github.com/user/taskmanager-go/docs" // Swagger spec registration
	"github.com/user/taskmanager-go/logging"
	"github.com/user/taskmanager-go/tasks"
)

// newRouter builds the HTTP handler tree. Chi requires all middleware to be
// registered before any routes.
func newRouter(cfg *config.ServerConfig, logger logging.Logger, authService *auth.AuthService, taskService *tasks.Service) http.Handler {
	authHandlers := auth.NewHandlers(authService)
	taskHandler := tasks.NewHandler(taskService)
	requireUser := auth.JWTMiddleware(authService)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(recoverPanic)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		auth.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandlers.HandleRegister())
		r.Post("/login", authHandlers.HandleLogin())
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/me", authHandlers.HandleMe())
	})

	r.Route("/api/tasks", func(r chi.Router) {
		r.Use(requireUser)
		taskHandler.RegisterRoutes(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		auth.WriteError(w, r, apperror.NewNotFoundError("Not Found", nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		auth.WriteJSON(w, http.StatusMethodNotAllowed, apperror.ErrorResponse{Error: "Method Not Allowed"})
	})

	return r
}

// recoverPanic turns a handler panic into the standard JSON 500 body.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			logging.FromContext(r.Context()).Error(r.Context(), "panic recovered",
				"panic", rvr,
				"method", r.Method,
				"path", r.URL.Path,
			)
			writeError(w, apperror.NewInternalError("internal server error", nil))
		}()
		next.ServeHTTP(w, r)
	})
}

// writeError writes appErr without going through auth.WriteError, which
// would log the fault a second time.
func writeError(w http.ResponseWriter, appErr *apperror.AppError) {
	auth.WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
