package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stackdeck-app/stackdeck-backend/internal/commits/domain"
	"github.com/stackdeck-app/stackdeck-backend/internal/kvstore"
)

// Repo persists the per-project commit log: a single JSON array stored
// oldest-first and only ever appended to.
type Repo struct {
	store kvstore.Store
}

func New(store kvstore.Store) *Repo {
	return &Repo{store: store}
}

func (r *Repo) Append(ctx context.Context, projectID string, commit *domain.Commit) error {
	key := kvstore.KeyCommits(projectID)

	var log []domain.Commit
	data, err := r.store.Get(ctx, key)
	if err == nil {
		if err := json.Unmarshal(data, &log); err != nil {
			return fmt.Errorf("unmarshal commit log %s: %w", projectID, err)
		}
	} else if err != kvstore.ErrNotFound {
		return err
	}

	log = append(log, *commit)
	updated, err := json.Marshal(log)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, key, updated)
}

// List returns the project's commits newest first.
func (r *Repo) List(ctx context.Context, projectID string) ([]domain.Commit, error) {
	data, err := r.store.Get(ctx, kvstore.KeyCommits(projectID))
	if err == kvstore.ErrNotFound {
		return []domain.Commit{}, nil
	}
	if err != nil {
		return nil, err
	}

	var log []domain.Commit
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("unmarshal commit log %s: %w", projectID, err)
	}

	out := make([]domain.Commit, 0, len(log))
	for i := len(log) - 1; i >= 0; i-- {
		out = append(out, log[i])
	}
	return out, nil
}
