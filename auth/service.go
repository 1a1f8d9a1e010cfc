package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/db"
	"github.com/user/taskmanager-go/users"
)

const (
	msgEmailTaken         = "Email already registered"
	msgBadCredentials     = "Incorrect email/username or password"
	msgInvalidCredentials = "Could not validate credentials"
)

// AuthService registers users, checks credentials and resolves bearer tokens.
type AuthService struct {
	users  users.Repository
	hasher PasswordHasher
	tokens *TokenManager
	now    func() time.Time

	// dummyHash is compared against when no user matches a login, so a
	// missing account costs the same bcrypt work as a wrong password.
	dummyHash string
}

// NewAuthService creates a new AuthService. Its dependencies are injected
// explicitly by main.
func NewAuthService(repo users.Repository, hasher PasswordHasher, tokens *TokenManager) *AuthService {
	dummy, _ := hasher.Hash("not-a-real-password")
	return &AuthService{
		users:     repo,
		hasher:    hasher,
		tokens:    tokens,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Register creates a new user.
//
// The email lookup before the insert only gives a friendly early answer; two
// concurrent registrations can both pass it, and the store's unique index
// then rejects the loser, which is reported the same way.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*users.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.NewConflictError(msgEmailTaken, nil)
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, apperror.NewDatabaseError("failed to look up user", err)
	}

	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperror.NewFieldValidationError("validation failed", map[string]string{"password": "must be at most 72 bytes"})
		}
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	user := &users.User{
		ID:             uuid.NewString(),
		Username:       strings.TrimSpace(req.Username),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          email,
		PhoneNumber:    strings.TrimSpace(req.PhoneNumber),
		HashedPassword: hashedPassword,
		CreatedAt:      s.now().UTC().Truncate(time.Microsecond),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicateKey) {
			return nil, apperror.NewConflictError(msgEmailTaken, err)
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return user, nil
}

// Login authenticates a user by email or username and returns an access token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.users.GetByLogin(ctx, strings.TrimSpace(req.EmailOrUsername))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.hasher.Verify(req.Password, s.dummyHash)
			return nil, apperror.NewAuthError(msgBadCredentials, nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}

	if !s.hasher.Verify(req.Password, user.HashedPassword) {
		return nil, apperror.NewAuthError(msgBadCredentials, nil)
	}

	token, _, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, apperror.NewInternalError("failed to issue token", err)
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

// Authenticate resolves a bearer token to its user. A valid token whose user
// no longer exists is rejected like any other bad token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*users.User, error) {
	email, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperror.NewAuthError(msgInvalidCredentials, err)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperror.NewAuthError(msgInvalidCredentials, err)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}
	return user, nil
}
