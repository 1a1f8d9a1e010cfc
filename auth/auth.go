// Package auth handles authentication for the task manager: password hashing,
// bearer token issuing and verification, user registration and login, and the
// middleware that resolves the caller of every protected route.
package auth

// TokenTypeBearer is the token_type reported to clients.
const TokenTypeBearer = "bearer"

// issuer is written to and required in every token.
const issuer = "taskmanager"
