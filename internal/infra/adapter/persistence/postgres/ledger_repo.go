package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"klist/internal/domain/entity"
	"klist/internal/repository"
)

type LedgerRepo struct{ db *sql.DB }

func NewLedgerRepo(db *sql.DB) repository.LedgerRepository {
	return &LedgerRepo{db: db}
}

func (repo *LedgerRepo) Get(ctx context.Context, key entity.LedgerKey) (entity.Ledger, error) {
	const query = `
SELECT message_ids
FROM ledgers
WHERE guild_id = $1 AND category = $2
LIMIT 1`
	var raw []byte
	err := repo.db.QueryRowContext(ctx, query, key.GuildID, string(key.Category)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Ledger{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	ledger := entity.Ledger{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &ledger); err != nil {
			return nil, fmt.Errorf("Get: unmarshal message_ids: %w", err)
		}
	}
	return ledger, nil
}

func (repo *LedgerRepo) Save(ctx context.Context, key entity.LedgerKey, ledger entity.Ledger) error {
	if ledger == nil {
		ledger = entity.Ledger{}
	}
	raw, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("Save: marshal message_ids: %w", err)
	}

	const query = `
INSERT INTO ledgers (guild_id, category, message_ids, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (guild_id, category)
DO UPDATE SET message_ids = EXCLUDED.message_ids, updated_at = NOW()`
	if _, err := repo.db.ExecContext(ctx, query, key.GuildID, string(key.Category), raw); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

func (repo *LedgerRepo) Delete(ctx context.Context, key entity.LedgerKey) error {
	const query = `DELETE FROM ledgers WHERE guild_id = $1 AND category = $2`
	if _, err := repo.db.ExecContext(ctx, query, key.GuildID, string(key.Category)); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}
