package domain

import "time"

// Task is a single to-do item owned by exactly one user. Ownership is by
// username, not user id; nothing checks that the owner still exists.
type Task struct {
	ID            string
	Title         string
	OwnerUsername string
	CreatedAt     time.Time
}
