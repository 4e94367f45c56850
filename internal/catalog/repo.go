package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/stackdeck-app/stackdeck-backend/internal/kvstore"
)

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

	data, err := r.store.Get(ctx, kvstore.CatalogKey)
	if err == kvstore.ErrNotFound {
		doc := &Document{Tools: []Tool{}, Providers: []string{}}
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
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}

	r.mu.Lock()
	r.cached = &doc
	r.mu.Unlock()
	return &doc, nil
}

func (r *Repo) Save(ctx context.Context, doc *Document) error {
	doc.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, kvstore.CatalogKey, data); err != nil {
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

// MergeTools upserts tools by id, keeping existing entries that the
// incoming batch does not mention. Used by the catalog fetcher.
func (r *Repo) MergeTools(ctx context.Context, tools []Tool, providers []string) error {
	doc, err := r.Get(ctx)
	if err != nil {
		return err
	}

	merged := &Document{
		Tools:     append([]Tool{}, doc.Tools...),
		Providers: append([]string{}, doc.Providers...),
	}

	byID := make(map[string]int, len(merged.Tools))
	for i, t := range merged.Tools {
		byID[t.ID] = i
	}
	for _, t := range tools {
		if i, ok := byID[t.ID]; ok {
			merged.Tools[i] = t
		} else {
			byID[t.ID] = len(merged.Tools)
			merged.Tools = append(merged.Tools, t)
		}
	}

	known := make(map[string]bool, len(merged.Providers))
	for _, p := range merged.Providers {
		known[p] = true
	}
	for _, p := range providers {
		if !known[p] {
			known[p] = true
			merged.Providers = append(merged.Providers, p)
		}
	}

	return r.Save(ctx, merged)
}
