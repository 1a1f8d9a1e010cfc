package auth

import "strings"

// RegisterRequest represents the registration request payload.
// `validate` tags are checked by go-playground/validator before the service
// sees the request.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,max=50" example:"newuser"`
	FirstName   string `json:"firstName" validate:"required,max=100" example:"Ada"`
	LastName    string `json:"lastName" validate:"required,max=100" example:"Lovelace"`
	Email       string `json:"email" validate:"required,email,max=254" example:"user@example.com"`
	PhoneNumber string `json:"phoneNumber" validate:"required,max=32" example:"+1 555 0100"`
	// bcrypt only looks at the first 72 bytes.
	Password string `json:"password" validate:"required,maxbytes=72" example:"strongpassword123"`
}

// normalize trims surrounding whitespace so validation sees what the service
// will store. The password is left untouched.
func (r *RegisterRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
}

// LoginRequest represents the login request payload.
type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" validate:"required" example:"user@example.com"`
	Password        string `json:"password" validate:"required" example:"strongpassword123"`
}

// TokenResponse represents the authentication token response.
type TokenResponse struct {
	AccessToken string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType   string `json:"token_type" example:"bearer"`
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in" example:"1800"`
}
