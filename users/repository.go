package users

import "context"

// Repository persists users.
//
// Implementations report db.ErrDuplicateKey when the email is already taken
// and db.ErrNotFound when a lookup matches nothing.
type Repository interface {
	// Create inserts u. u.ID and u.CreatedAt must already be set.
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByLogin matches login against the email or the username. When both
	// an email match and a username match exist, the email match wins; ties
	// among usernames go to the oldest account.
	GetByLogin(ctx context.Context, login string) (*User, error)
}
