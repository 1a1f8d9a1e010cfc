// Package users owns the user record and its persistence.
// Registration, login and token handling live in package auth, which is the
// only writer of this collection.
package users

import "time"

// User represents a registered account.
// The `json:"-"` tag keeps HashedPassword out of every API response, so a
// *User can be written to the client as-is.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	PhoneNumber    string    `json:"phoneNumber"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}
