package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"klist/internal/domain/entity"
	"klist/internal/repository"
)

// LedgerRepo keeps one <guild>_<category>_message_id.json file per ledger.
type LedgerRepo struct {
	dir string
	mu  sync.Mutex
}

func NewLedgerRepo(dir string) (repository.LedgerRepository, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &LedgerRepo{dir: dir}, nil
}

func (repo *LedgerRepo) path(key entity.LedgerKey) (string, error) {
	if err := entity.ValidateSnowflake("guild_id", key.GuildID); err != nil {
		return "", err
	}
	if !key.Category.Valid() {
		return "", fmt.Errorf("%w: %q", entity.ErrInvalidCategory, key.Category)
	}
	return filepath.Join(repo.dir, fmt.Sprintf("%s_%s_message_id.json", key.GuildID, key.Category)), nil
}

func (repo *LedgerRepo) Get(_ context.Context, key entity.LedgerKey) (entity.Ledger, error) {
	path, err := repo.path(key)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	ledger := entity.Ledger{}
	if _, err := readJSON(path, &ledger); err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	if ledger == nil {
		ledger = entity.Ledger{}
	}
	return ledger, nil
}

func (repo *LedgerRepo) Save(_ context.Context, key entity.LedgerKey, ledger entity.Ledger) error {
	path, err := repo.path(key)
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	if ledger == nil {
		ledger = entity.Ledger{}
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	if err := writeJSON(path, ledger); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

func (repo *LedgerRepo) Delete(_ context.Context, key entity.LedgerKey) error {
	path, err := repo.path(key)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	if err := removeFile(path); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}
