package entity

import "time"

// Encounter is a user's claimed sighting of a wally.
//
// A row is inserted without a picture inside a transaction (provisional)
// and only becomes visible to readers once the picture URL is attached
// and the transaction commits (finalized). Rolled-back rows never exist
// durably, so every readable encounter is finalized.
type Encounter struct {
	ID               string
	UserID           string
	WallyID          string
	OccurredAt       time.Time
	EncounterPicture string

	// Wally summary for listing reads; nil on bare rows.
	Wally *Wally
}
