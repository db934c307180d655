package model

import "time"

type User struct {
	ID             string    `json:"user_id" db:"id"`
	Email          string    `json:"email" db:"email"`
	Firstname      string    `json:"firstname" db:"firstname"`
	Lastname       string    `json:"lastname" db:"lastname"`
	HashedPassword string    `json:"-" db:"hashed_password"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Identity is the resolved caller identity attached to request contexts.
type Identity struct {
	UserID string
	Email  string
}
