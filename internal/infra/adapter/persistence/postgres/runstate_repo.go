package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"klist/internal/domain/entity"
	"klist/internal/repository"
)

// RunStateRepo keeps the single run_state row with id 1.
type RunStateRepo struct{ db *sql.DB }

func NewRunStateRepo(db *sql.DB) repository.RunStateRepository {
	return &RunStateRepo{db: db}
}

func (repo *RunStateRepo) Get(ctx context.Context) (entity.RunState, error) {
	const query = `SELECT active, deleted FROM run_state WHERE id = 1`
	var state entity.RunState
	err := repo.db.QueryRowContext(ctx, query).Scan(&state.Active, &state.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.RunState{}, nil
	}
	if err != nil {
		return entity.RunState{}, fmt.Errorf("Get: %w", err)
	}
	return state, nil
}

func (repo *RunStateRepo) Save(ctx context.Context, state entity.RunState) error {
	const query = `
INSERT INTO run_state (id, active, deleted, updated_at)
VALUES (1, $1, $2, NOW())
ON CONFLICT (id)
DO UPDATE SET active = EXCLUDED.active, deleted = EXCLUDED.deleted, updated_at = NOW()`
	if _, err := repo.db.ExecContext(ctx, query, state.Active, state.Deleted); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}
