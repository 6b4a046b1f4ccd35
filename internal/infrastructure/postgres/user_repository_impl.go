package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spotit-app/spotit-api/internal/domain/entity"
	"github.com/spotit-app/spotit-api/internal/domain/repository"
)

// ErrNotFound aliases the repository sentinel for a missing row.
var ErrNotFound = repository.ErrNotFound

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, username, email, password_hash, profile_picture)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, score, created_at, updated_at
	`, u.Name, u.Username, u.Email, u.Password, u.ProfilePicture)

	return row.Scan(&u.ID, &u.Score, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, username, email, password_hash, score, profile_picture, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)

	if err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Password,
		&u.Score, &u.ProfilePicture, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, username, email, password_hash, score, profile_picture, created_at, updated_at
		FROM users
		WHERE email = $1 OR username = $1
	`, identifier)

	if err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Password,
		&u.Score, &u.ProfilePicture, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) SetProfilePicture(ctx context.Context, id, url string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users SET profile_picture = $1, updated_at = now()
		WHERE id = $2
	`, url, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) AddScore(ctx context.Context, id string, delta float64) (float64, error) {
	var score float64
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET score = score + $1, updated_at = now()
		WHERE id = $2
		RETURNING score
	`, delta, id)
	if err := row.Scan(&score); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return score, nil
}

func (r *UserRepository) ListByScore(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, username, score, profile_picture
		FROM users
		ORDER BY score DESC, username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u := &entity.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.Score, &u.ProfilePicture); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

var _ repository.UserRepository = (*UserRepository)(nil)
