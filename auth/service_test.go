package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/db"
	"github.com/user/taskmanager-go/users"
)

func newTestService(t *testing.T, repo users.Repository, ttl time.Duration) *AuthService {
	t.Helper()
	return NewAuthService(repo, NewBcryptHasher(bcrypt.MinCost), NewTokenManager("test-secret", ttl))
}

func registerReq(username, email string) RegisterRequest {
	return RegisterRequest{
		Username:    username,
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       email,
		PhoneNumber: "555-0100",
		Password:    "correct horse",
	}
}

func TestRegister_StoresHashedPasswordAndNormalizesEmail(t *testing.T) {
	repo := users.NewMemoryRepository()
	s := newTestService(t, repo, time.Hour)

	u, err := s.Register(context.Background(), registerReq(" ada ", " Ada@Example.COM "))
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEqual(t, "correct horse", u.HashedPassword)
	assert.False(t, u.CreatedAt.IsZero())

	stored, err := repo.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, stored.ID)
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
	s := newTestService(t, users.NewMemoryRepository(), time.Hour)
	ctx := context.Background()

	_, err := s.Register(ctx, registerReq("first", "dup@example.com"))
	require.NoError(t, err)

	_, err = s.Register(ctx, registerReq("second", "DUP@example.com"))
	require.Error(t, err)
	assert.True(t, apperror.IsConflictError(err))
}

// racingRepo hides existing users from GetByEmail, so the insert is what
// detects the duplicate, as happens when two registrations race.
type racingRepo struct {
	*users.MemoryRepository
}

func (r racingRepo) GetByEmail(context.Context, string) (*users.User, error) {
	return nil, db.ErrNotFound
}

func TestRegister_StoreDuplicateKeyIsConflict(t *testing.T) {
	s := newTestService(t, racingRepo{users.NewMemoryRepository()}, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Register(ctx, registerReq("racer", "race@example.com"))
		}(i)
	}
	wg.Wait()

	var conflicts, ok int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperror.IsConflictError(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
}

type failingRepo struct {
	users.Repository
}

func (failingRepo) GetByEmail(context.Context, string) (*users.User, error) {
	return nil, errors.New("store down")
}

func (failingRepo) GetByLogin(context.Context, string) (*users.User, error) {
	return nil, errors.New("store down")
}

func TestRegisterAndLogin_StoreFaultIsServerFault(t *testing.T) {
	s := newTestService(t, failingRepo{}, time.Hour)
	ctx := context.Background()

	_, err := s.Register(ctx, registerReq("a", "a@example.com"))
	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.True(t, appErr.IsServerFault())

	_, err = s.Login(ctx, LoginRequest{EmailOrUsername: "a", Password: "x"})
	appErr, ok = apperror.FromError(err)
	require.True(t, ok)
	assert.True(t, appErr.IsServerFault())
}

func TestRegister_OverlongPasswordIsValidationError(t *testing.T) {
	s := newTestService(t, users.NewMemoryRepository(), time.Hour)
	req := registerReq("ada", "ada@example.com")
	req.Password = strings.Repeat("x", 73)

	_, err := s.Register(context.Background(), req)
	appErr, ok := apperror.FromError(err)
	require.True(t, ok)
	assert.True(t, apperror.IsValidationError(err))
	assert.False(t, appErr.IsServerFault())
	assert.Equal(t, "must be at most 72 bytes", appErr.Fields["password"])
}

func TestLogin_ByEmailOrUsername(t *testing.T) {
	s := newTestService(t, users.NewMemoryRepository(), time.Hour)
	ctx := context.Background()
	_, err := s.Register(ctx, registerReq("ada", "ada@example.com"))
	require.NoError(t, err)

	for _, login := range []string{"ada@example.com", "ADA@example.com", "ada"} {
		resp, err := s.Login(ctx, LoginRequest{EmailOrUsername: login, Password: "correct horse"})
		require.NoError(t, err, login)
		assert.Equal(t, TokenTypeBearer, resp.TokenType)
		assert.Equal(t, int64(3600), resp.ExpiresIn)

		sub, err := s.tokens.Verify(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", sub, "the subject is always the email")
	}
}

func TestLogin_WrongPasswordOrUnknownUser(t *testing.T) {
	s := newTestService(t, users.NewMemoryRepository(), time.Hour)
	ctx := context.Background()
	_, err := s.Register(ctx, registerReq("ada", "ada@example.com"))
	require.NoError(t, err)

	for _, req := range []LoginRequest{
		{EmailOrUsername: "ada@example.com", Password: "wrong"},
		{EmailOrUsername: "ada", Password: "wrong"},
		{EmailOrUsername: "nobody", Password: "correct horse"},
	} {
		_, err := s.Login(ctx, req)
		assert.True(t, apperror.IsAuthError(err), "%+v", req)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := users.NewMemoryRepository()
	s := newTestService(t, repo, time.Hour)
	ctx := context.Background()
	u, err := s.Register(ctx, registerReq("ada", "ada@example.com"))
	require.NoError(t, err)

	tok, _, err := s.tokens.Issue(u.Email)
	require.NoError(t, err)
	got, err := s.Authenticate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	orphan, _, err := s.tokens.Issue("deleted@example.com")
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, orphan)
	assert.True(t, apperror.IsAuthError(err), "valid token for a missing user")

	_, err = s.Authenticate(ctx, "garbage")
	assert.True(t, apperror.IsAuthError(err))
}
