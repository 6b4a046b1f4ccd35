package entity

import "time"

// User is the aggregate root for the player domain.
// Passwords are stored as bcrypt hashes in Password field.
// Score is cumulative and only grows through finalized encounters
// (admin corrections happen outside this service).
type User struct {
	ID             string
	Name           string
	Username       string
	Email          string
	Password       string
	Score          float64
	ProfilePicture string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
