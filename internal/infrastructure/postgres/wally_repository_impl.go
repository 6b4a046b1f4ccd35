package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spotit-app/spotit-api/internal/domain/entity"
	"github.com/spotit-app/spotit-api/internal/domain/repository"
)

type WallyRepository struct {
	pool *pgxpool.Pool
}

func NewWallyRepository(pool *pgxpool.Pool) *WallyRepository {
	return &WallyRepository{pool: pool}
}

func (r *WallyRepository) Create(ctx context.Context, w *entity.Wally) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO wallies (name, email, role_id, profile_picture)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, w.Name, w.Email, w.RoleID, w.ProfilePicture)

	return row.Scan(&w.ID, &w.CreatedAt)
}

func (r *WallyRepository) GetByID(ctx context.Context, id string) (*entity.Wally, error) {
	w := &entity.Wally{Role: &entity.WallyRole{}}
	row := r.pool.QueryRow(ctx, `
		SELECT w.id, w.name, w.email, w.role_id, w.profile_picture, w.created_at,
		       r.id, r.role, r.score_multiplier
		FROM wallies w
		JOIN wally_roles r ON r.id = w.role_id
		WHERE w.id = $1
	`, id)

	if err := row.Scan(&w.ID, &w.Name, &w.Email, &w.RoleID, &w.ProfilePicture, &w.CreatedAt,
		&w.Role.ID, &w.Role.Role, &w.Role.ScoreMultiplier); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

func (r *WallyRepository) List(ctx context.Context) ([]repository.WallyWithEncounters, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT w.id, w.name, w.email, w.role_id, w.profile_picture, w.created_at,
		       r.id, r.role, r.score_multiplier,
		       COALESCE(e.cnt, 0)
		FROM wallies w
		JOIN wally_roles r ON r.id = w.role_id
		LEFT JOIN (
			SELECT wally_id, COUNT(*) AS cnt FROM encounters GROUP BY wally_id
		) e ON e.wally_id = w.id
		ORDER BY w.created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.WallyWithEncounters
	for rows.Next() {
		item := repository.WallyWithEncounters{Wally: entity.Wally{Role: &entity.WallyRole{}}}
		w := &item.Wally
		if err := rows.Scan(&w.ID, &w.Name, &w.Email, &w.RoleID, &w.ProfilePicture, &w.CreatedAt,
			&w.Role.ID, &w.Role.Role, &w.Role.ScoreMultiplier, &item.Encounters); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *WallyRepository) SetProfilePicture(ctx context.Context, id, url string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE wallies SET profile_picture = $1 WHERE id = $2
	`, url, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WallyRepository) CreateRole(ctx context.Context, role *entity.WallyRole) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO wally_roles (role, score_multiplier)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, role.Role, role.ScoreMultiplier)

	return row.Scan(&role.ID, &role.CreatedAt)
}

func (r *WallyRepository) GetRoleByName(ctx context.Context, name string) (*entity.WallyRole, error) {
	role := &entity.WallyRole{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, role, score_multiplier, created_at
		FROM wally_roles
		WHERE role = $1
	`, name)

	if err := row.Scan(&role.ID, &role.Role, &role.ScoreMultiplier, &role.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return role, nil
}

func (r *WallyRepository) ListRoles(ctx context.Context) ([]*entity.WallyRole, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, role, score_multiplier, created_at
		FROM wally_roles
		ORDER BY role ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*entity.WallyRole
	for rows.Next() {
		role := &entity.WallyRole{}
		if err := rows.Scan(&role.ID, &role.Role, &role.ScoreMultiplier, &role.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

var _ repository.WallyRepository = (*WallyRepository)(nil)
