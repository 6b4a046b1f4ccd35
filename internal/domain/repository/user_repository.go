package repository

import (
	"context"

	"github.com/spotit-app/spotit-api/internal/domain/entity"
)

// UserRepository defines user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetByIdentifier resolves a user by email or username.
	GetByIdentifier(ctx context.Context, identifier string) (*entity.User, error)
	SetProfilePicture(ctx context.Context, id, url string) error
	// AddScore atomically adds delta to the user's score and returns the new total.
	AddScore(ctx context.Context, id string, delta float64) (float64, error)
	// ListByScore returns all users ordered by score descending.
	ListByScore(ctx context.Context) ([]*entity.User, error)
}
