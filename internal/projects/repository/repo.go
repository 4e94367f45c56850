package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/stackdeck-app/stackdeck-backend/internal/kvstore"
	"github.com/stackdeck-app/stackdeck-backend/internal/projects/domain"
)

// Repo provides persistence for projects, stacks, and subsystems.
type Repo struct {
	store kvstore.Store
}

func New(store kvstore.Store) *Repo {
	return &Repo{store: store}
}

// Create inserts a new project and its empty stack. A duplicate id is a
// conflict, detected by the store's conditional create.
func (r *Repo) Create(ctx context.Context, id, name, description, createdBy string) (*domain.Project, error) {
	if !domain.ValidSlug(id) {
		return nil, fmt.Errorf("invalid project id %q", id)
	}

	now := time.Now().UTC()
	p := domain.Project{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	created, err := r.store.PutIfAbsent(ctx, kvstore.KeyProject(id), data)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, domain.ErrConflict
	}

	if err := r.PutStack(ctx, id, &domain.Stack{Items: []string{}, UpdatedAt: now, UpdatedBy: createdBy}); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*domain.Project, error) {
	data, err := r.store.Get(ctx, kvstore.KeyProject(id))
	if err == kvstore.ErrNotFound {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal project %s: %w", id, err)
	}
	return &p, nil
}

func (r *Repo) Put(ctx context.Context, p *domain.Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, kvstore.KeyProject(p.ID), data)
}

// List returns all projects sorted by id.
func (r *Repo) List(ctx context.Context) ([]domain.Project, error) {
	keys, err := r.store.List(ctx, kvstore.ProjectPrefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	out := make([]domain.Project, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err == kvstore.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		var p domain.Project
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal project %s: %w", key, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Delete removes the project and everything keyed under it: stack,
// subsystems, commit log, lease, and any user's draft of it.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}

	subKeys, err := r.store.List(ctx, kvstore.KeySubsystemPrefix(id))
	if err != nil {
		return err
	}
	for _, key := range subKeys {
		if err := r.store.Delete(ctx, key); err != nil {
			return err
		}
	}

	draftKeys, err := r.store.List(ctx, kvstore.DraftPrefix)
	if err != nil {
		return err
	}
	for _, key := range draftKeys {
		if strings.HasSuffix(key, ":"+id) {
			if err := r.store.Delete(ctx, key); err != nil {
				return err
			}
		}
	}

	for _, key := range []string{
		kvstore.KeyStack(id),
		kvstore.KeyCommits(id),
		kvstore.KeyLock(id),
		kvstore.KeyProject(id),
	} {
		if err := r.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// GetStack returns the project's durable stack; a project that has never
// been committed to has an empty one.
func (r *Repo) GetStack(ctx context.Context, projectID string) (*domain.Stack, error) {
	data, err := r.store.Get(ctx, kvstore.KeyStack(projectID))
	if err == kvstore.ErrNotFound {
		return &domain.Stack{Items: []string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var s domain.Stack
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal stack %s: %w", projectID, err)
	}
	return &s, nil
}

func (r *Repo) PutStack(ctx context.Context, projectID string, s *domain.Stack) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, kvstore.KeyStack(projectID), data)
}

func (r *Repo) GetSubsystem(ctx context.Context, projectID, subsystemID string) (*domain.Subsystem, error) {
	data, err := r.store.Get(ctx, kvstore.KeySubsystem(projectID, subsystemID))
	if err == kvstore.ErrNotFound {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s domain.Subsystem
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal subsystem %s/%s: %w", projectID, subsystemID, err)
	}
	return &s, nil
}

func (r *Repo) PutSubsystem(ctx context.Context, s *domain.Subsystem) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, kvstore.KeySubsystem(s.ProjectID, s.ID), data)
}

func (r *Repo) DeleteSubsystem(ctx context.Context, projectID, subsystemID string) error {
	return r.store.Delete(ctx, kvstore.KeySubsystem(projectID, subsystemID))
}

// ListSubsystems returns the project's subsystems sorted by id.
func (r *Repo) ListSubsystems(ctx context.Context, projectID string) ([]domain.Subsystem, error) {
	keys, err := r.store.List(ctx, kvstore.KeySubsystemPrefix(projectID))
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)

	out := make([]domain.Subsystem, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err == kvstore.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		var s domain.Subsystem
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("unmarshal subsystem %s: %w", key, err)
		}
		out = append(out, s)
	}
	return out, nil
}
