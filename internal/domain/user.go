package domain

import "time"

// User is the domain model for registered accounts.
//
// PasswordHash and RefreshToken are credential fields: they are loaded
// only by the WithSecret repository variants and are never serialized
// outward. RefreshToken holds the single currently valid refresh token;
// issuing a new one overwrites (and thereby revokes) the previous one.
type User struct {
	ID           string
	UserName     string
	FullName     string
	Email        string
	PasswordHash string
	RefreshToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitized returns a copy with credential fields stripped, safe to
// attach to a request context or return to a client.
func (u *User) Sanitized() *User {
	cpy := *u
	cpy.PasswordHash = ""
	cpy.RefreshToken = nil
	return &cpy
}
