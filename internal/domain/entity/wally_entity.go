package entity

import "time"

// WallyRole categorizes wallies and carries the score multiplier
// applied to every encounter with a wally of that role.
// ScoreMultiplier is >= 1 for any role created through the API.
type WallyRole struct {
	ID              string
	Role            string
	ScoreMultiplier float64
	CreatedAt       time.Time
}

// Wally is a catalogued target users try to spot.
type Wally struct {
	ID             string
	Name           string
	Email          string
	RoleID         string
	Role           *WallyRole // populated on joined reads
	ProfilePicture string
	CreatedAt      time.Time
}
