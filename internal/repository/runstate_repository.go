package repository

import (
	"context"

	"klist/internal/domain/entity"
)

// RunStateRepository stores the scheduling loop posture across restarts.
// Get returns the zero RunState when nothing has been stored yet.
type RunStateRepository interface {
	Get(ctx context.Context) (entity.RunState, error)
	Save(ctx context.Context, state entity.RunState) error
}
