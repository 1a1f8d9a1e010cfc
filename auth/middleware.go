package auth

import (
	"net/http"
	"strings"

	"github.com/user/taskmanager-go/apperror"
)

// JWTMiddleware creates the authentication middleware for protected routes.
// It reads the bearer token from the Authorization header, resolves it to a
// user through the AuthService and stores that user in the request context.
// Every failure ends the request with 401.
func JWTMiddleware(service *AuthService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			user, err := service.Authenticate(r.Context(), tokenString)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithUser(r.Context(), user)))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer {token}" header.
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", apperror.NewAuthError("Not authenticated", nil)
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", apperror.NewAuthError("Authorization header format must be Bearer {token}", nil)
	}
	return token, nil
}
