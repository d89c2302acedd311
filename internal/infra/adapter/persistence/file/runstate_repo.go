package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"klist/internal/domain/entity"
	"klist/internal/repository"
)

type RunStateRepo struct {
	path string
	mu   sync.Mutex
}

func NewRunStateRepo(dir string) (repository.RunStateRepository, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &RunStateRepo{path: filepath.Join(dir, runStateFile)}, nil
}

func (repo *RunStateRepo) Get(_ context.Context) (entity.RunState, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var state entity.RunState
	if _, err := readJSON(repo.path, &state); err != nil {
		return entity.RunState{}, fmt.Errorf("Get: %w", err)
	}
	return state, nil
}

func (repo *RunStateRepo) Save(_ context.Context, state entity.RunState) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if err := writeJSON(repo.path, state); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}
