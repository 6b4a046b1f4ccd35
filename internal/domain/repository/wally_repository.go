package repository

import (
	"context"

	"github.com/spotit-app/spotit-api/internal/domain/entity"
)

// WallyWithEncounters pairs a wally with its finalized encounter count
// for the public listing.
type WallyWithEncounters struct {
	Wally      entity.Wally
	Encounters int
}

// WallyRepository defines wally and wally-role database operations.
type WallyRepository interface {
	Create(ctx context.Context, w *entity.Wally) error
	// GetByID returns the wally with its role populated.
	GetByID(ctx context.Context, id string) (*entity.Wally, error)
	List(ctx context.Context) ([]WallyWithEncounters, error)
	SetProfilePicture(ctx context.Context, id, url string) error

	CreateRole(ctx context.Context, r *entity.WallyRole) error
	GetRoleByName(ctx context.Context, name string) (*entity.WallyRole, error)
	ListRoles(ctx context.Context) ([]*entity.WallyRole, error)
}
