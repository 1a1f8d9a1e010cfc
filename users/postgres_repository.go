package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/user/taskmanager-go/db"
)

const userColumns = `id, username, first_name, last_name, email, phone_number, hashed_password, created_at`

// PostgresRepository stores users in the `users` table.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository creates a PostgresRepository on top of conn.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	query := `INSERT INTO users (` + userColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Username, u.FirstName, u.LastName, u.Email, u.PhoneNumber, u.HashedPassword, u.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return db.ErrDuplicateKey
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, strings.ToLower(email)))
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*User, error) {
	// One round trip: an email hit sorts before any username hit.
	query := `SELECT ` + userColumns + ` FROM users
              WHERE email = $1 OR username = $2
              ORDER BY (email = $1) DESC, created_at ASC
              LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, strings.ToLower(login), login))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email, &u.PhoneNumber, &u.HashedPassword, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}
