package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/taskmanager-go/db"
)

func sampleUser(id, username, email string, created time.Time) *User {
	return &User{
		ID:             id,
		Username:       username,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          email,
		PhoneNumber:    "+44 20 7946 0000",
		HashedPassword: "$2a$10$hash",
		CreatedAt:      created,
	}
}

func TestMemoryRepository_CreateAndLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, sampleUser("u1", "ada", "ada@example.com", now)))

	byEmail, err := repo.GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)
	assert.Equal(t, "ada", byEmail.Username)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestMemoryRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, sampleUser("u1", "ada", "ada@example.com", now)))
	err := repo.Create(ctx, sampleUser("u2", "other", "Ada@Example.com", now))
	assert.ErrorIs(t, err, db.ErrDuplicateKey)
}

func TestMemoryRepository_GetByLogin_PrefersEmailThenOldestUsername(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	now := time.Now().UTC()

	// u2's username collides with u1's email.
	require.NoError(t, repo.Create(ctx, sampleUser("u1", "ada", "ada@example.com", now)))
	require.NoError(t, repo.Create(ctx, sampleUser("u2", "ada@example.com", "two@example.com", now.Add(time.Second))))
	require.NoError(t, repo.Create(ctx, sampleUser("u3", "bob", "bob1@example.com", now.Add(2*time.Second))))
	require.NoError(t, repo.Create(ctx, sampleUser("u4", "bob", "bob2@example.com", now.Add(3*time.Second))))

	u, err := repo.GetByLogin(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	u, err = repo.GetByLogin(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "u3", u.ID)

	_, err = repo.GetByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, mock
}

var userRowColumns = []string{"id", "username", "first_name", "last_name", "email", "phone_number", "hashed_password", "created_at"}

func TestPostgresRepository_Create(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresRepository(conn)
	u := sampleUser("u1", "ada", "ada@example.com", time.Now().UTC())

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, u.Username, u.FirstName, u.LastName, u.Email, u.PhoneNumber, u.HashedPassword, u.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create_UniqueViolation(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresRepository(conn)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), sampleUser("u1", "ada", "ada@example.com", time.Now()))
	assert.ErrorIs(t, err, db.ErrDuplicateKey)
}

func TestPostgresRepository_Create_OtherError(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresRepository(conn)
	boom := errors.New("connection reset")

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(boom)

	err := repo.Create(context.Background(), sampleUser("u1", "ada", "ada@example.com", time.Now()))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, db.ErrDuplicateKey)
}

func TestPostgresRepository_GetByEmail(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresRepository(conn)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "ada", "Ada", "Lovelace", "ada@example.com", "123", "hash", created))

	u, err := repo.GetByEmail(context.Background(), "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "hash", u.HashedPassword)
	assert.Equal(t, created, u.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByLogin_NotFound(t *testing.T) {
	conn, mock := newMock(t)
	repo := NewPostgresRepository(conn)

	mock.ExpectQuery(`SELECT .* FROM users\s+WHERE email = \$1 OR username = \$2`).
		WithArgs("ghost", "ghost").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := repo.GetByLogin(context.Background(), "ghost")
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
