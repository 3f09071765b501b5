package domain

import "time"

// User represents a registered account. The password hash is a bcrypt
// digest with the salt embedded in the value.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
