package repository

import (
	"context"

	"github.com/spotit-app/spotit-api/internal/domain/entity"
)

// EncounterTx is a single encounter-registration unit of work.
// Insert creates the provisional row; AttachPicture finalizes it.
// Nothing is visible to other readers until Commit; Rollback (or a
// dropped tx) leaves no trace of the attempt.
type EncounterTx interface {
	Insert(ctx context.Context, userID, wallyID string) (*entity.Encounter, error)
	AttachPicture(ctx context.Context, encounterID, url string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// EncounterRepository defines encounter database operations.
type EncounterRepository interface {
	Begin(ctx context.Context) (EncounterTx, error)
	// HasFinalized reports whether a finalized encounter already exists
	// for the (user, wally) pair.
	HasFinalized(ctx context.Context, userID, wallyID string) (bool, error)
	// ListByUser returns the user's finalized encounters, newest first,
	// each with a wally summary attached.
	ListByUser(ctx context.Context, userID string) ([]*entity.Encounter, error)
}
