package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/stackdeck-app/stackdeck-backend/internal/kvstore"
)

// Repo reads the roles document through a process-lifetime cache. The
// document changes rarely and every write path invalidates synchronously,
// so a stale read window never outlives the writing request.
type Repo struct {
	store kvstore.Store

	mu     sync.RWMutex
	cached *Document
}

func NewRepo(store kvstore.Store) *Repo {
	return &Repo{store: store}
}

func (r *Repo) Get(ctx context.Context) (*Document, error) {
	r.mu.RLock()
	if r.cached != nil {
		doc := r.cached
		r.mu.RUnlock()
		return doc, nil
	}
	r.mu.RUnlock()

	data, err := r.store.Get(ctx, kvstore.RolesKey)
	if err == kvstore.ErrNotFound {
		doc := &Document{Editors: map[string][]Entry{}}
		r.mu.Lock()
		r.cached = doc
		r.mu.Unlock()
		return doc, nil
	}
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal roles document: %w", err)
	}
	if doc.Editors == nil {
		doc.Editors = map[string][]Entry{}
	}

	r.mu.Lock()
	r.cached = &doc
	r.mu.Unlock()
	return &doc, nil
}

func (r *Repo) Save(ctx context.Context, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, kvstore.RolesKey, data); err != nil {
		return err
	}
	r.Invalidate()
	return nil
}

// Invalidate drops the cached document; the next Get re-reads the store.
func (r *Repo) Invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
}
