package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stackdeck-app/stackdeck-backend/internal/drafts/domain"
	"github.com/stackdeck-app/stackdeck-backend/internal/kvstore"
)

// Repo persists drafts (keyed by user, then project) and the per-project
// lease records.
type Repo struct {
	store kvstore.Store
}

func New(store kvstore.Store) *Repo {
	return &Repo{store: store}
}

func (r *Repo) Get(ctx context.Context, userSub, projectID string) (*domain.Draft, error) {
	data, err := r.store.Get(ctx, kvstore.KeyDraft(userSub, projectID))
	if err == kvstore.ErrNotFound {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var d domain.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal draft %s/%s: %w", userSub, projectID, err)
	}
	return &d, nil
}

func (r *Repo) Put(ctx context.Context, userSub string, d *domain.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, kvstore.KeyDraft(userSub, d.ProjectID), data)
}

// Delete removes the draft, reporting ErrNotFound when there is none so a
// second discard reads as "nothing there", not corruption.
func (r *Repo) Delete(ctx context.Context, userSub, projectID string) error {
	key := kvstore.KeyDraft(userSub, projectID)
	if _, err := r.store.Get(ctx, key); err == kvstore.ErrNotFound {
		return domain.ErrNotFound
	} else if err != nil {
		return err
	}
	return r.store.Delete(ctx, key)
}

func (r *Repo) GetLease(ctx context.Context, projectID string) (*domain.Lease, error) {
	data, err := r.store.Get(ctx, kvstore.KeyLock(projectID))
	if err == kvstore.ErrNotFound {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var l domain.Lease
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("unmarshal lease %s: %w", projectID, err)
	}
	return &l, nil
}

func (r *Repo) PutLease(ctx context.Context, l *domain.Lease) error {
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, kvstore.KeyLock(l.ProjectID), data)
}

// PutLeaseIfAbsent creates the lease only when no lease record exists,
// closing the two-first-writers race at the lease level.
func (r *Repo) PutLeaseIfAbsent(ctx context.Context, l *domain.Lease) (bool, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return false, err
	}
	return r.store.PutIfAbsent(ctx, kvstore.KeyLock(l.ProjectID), data)
}

func (r *Repo) DeleteLease(ctx context.Context, projectID string) error {
	return r.store.Delete(ctx, kvstore.KeyLock(projectID))
}

// ListLeases returns every lease record, expired ones included.
func (r *Repo) ListLeases(ctx context.Context) ([]domain.Lease, error) {
	keys, err := r.store.List(ctx, kvstore.LockPrefix)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Lease, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err == kvstore.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		var l domain.Lease
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, fmt.Errorf("unmarshal lease %s: %w", key, err)
		}
		out = append(out, l)
	}
	return out, nil
}
