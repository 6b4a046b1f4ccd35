package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spotit-app/spotit-api/internal/domain/entity"
	"github.com/spotit-app/spotit-api/internal/domain/repository"
)

type EncounterRepository struct {
	pool *pgxpool.Pool
}

func NewEncounterRepository(pool *pgxpool.Pool) *EncounterRepository {
	return &EncounterRepository{pool: pool}
}

// encounterTx wraps a pgx transaction holding one provisional encounter.
type encounterTx struct {
	tx pgx.Tx
}

func (r *EncounterRepository) Begin(ctx context.Context) (repository.EncounterTx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &encounterTx{tx: tx}, nil
}

func (t *encounterTx) Insert(ctx context.Context, userID, wallyID string) (*entity.Encounter, error) {
	e := &entity.Encounter{UserID: userID, WallyID: wallyID}
	row := t.tx.QueryRow(ctx, `
		INSERT INTO encounters (user_id, wally_id)
		VALUES ($1, $2)
		RETURNING id, occurred_at
	`, userID, wallyID)

	if err := row.Scan(&e.ID, &e.OccurredAt); err != nil {
		return nil, err
	}
	return e, nil
}

func (t *encounterTx) AttachPicture(ctx context.Context, encounterID, url string) error {
	res, err := t.tx.Exec(ctx, `
		UPDATE encounters SET encounter_picture = $1 WHERE id = $2
	`, url, encounterID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *encounterTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *encounterTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (r *EncounterRepository) HasFinalized(ctx context.Context, userID, wallyID string) (bool, error) {
	var exists bool
	row := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM encounters WHERE user_id = $1 AND wally_id = $2
		)
	`, userID, wallyID)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *EncounterRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Encounter, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.user_id, e.wally_id, e.occurred_at, e.encounter_picture,
		       w.name, r.role
		FROM encounters e
		JOIN wallies w ON w.id = e.wally_id
		JOIN wally_roles r ON r.id = w.role_id
		WHERE e.user_id = $1
		ORDER BY e.occurred_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Encounter
	for rows.Next() {
		e := &entity.Encounter{Wally: &entity.Wally{Role: &entity.WallyRole{}}}
		if err := rows.Scan(&e.ID, &e.UserID, &e.WallyID, &e.OccurredAt, &e.EncounterPicture,
			&e.Wally.Name, &e.Wally.Role.Role); err != nil {
			return nil, err
		}
		e.Wally.ID = e.WallyID
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ repository.EncounterRepository = (*EncounterRepository)(nil)
