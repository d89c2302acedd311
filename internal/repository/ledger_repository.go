package repository

import (
	"context"

	"klist/internal/domain/entity"
)

// LedgerRepository persists the published message ids of each (guild, category).
// Get returns an empty ledger when nothing has been stored yet.
type LedgerRepository interface {
	Get(ctx context.Context, key entity.LedgerKey) (entity.Ledger, error)
	Save(ctx context.Context, key entity.LedgerKey, ledger entity.Ledger) error
	Delete(ctx context.Context, key entity.LedgerKey) error
}
