package repository

import (
	"context"
	"sort"
	"sync"

	"mallguide-server-go/internal/domain/directory/aggregate"
	"mallguide-server-go/internal/platform/errors"
)

// MemoryStoreRepository keeps records in process memory.
type MemoryStoreRepository struct {
	mu      sync.RWMutex
	records map[string]*aggregate.Store
}

func NewMemoryStoreRepository() *MemoryStoreRepository {
	return &MemoryStoreRepository{records: make(map[string]*aggregate.Store)}
}

func (r *MemoryStoreRepository) Put(_ context.Context, store *aggregate.Store) error {
	if err := store.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[store.ID] = store.Clone()
	return nil
}

func (r *MemoryStoreRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *MemoryStoreRepository) Get(_ context.Context, id string) (*aggregate.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records[id].Clone(), nil
}

func (r *MemoryStoreRepository) List(_ context.Context) ([]*aggregate.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*aggregate.Store, 0, len(r.records))
	for _, s := range r.records {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryStoreRepository) Exists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.records[id]
	return ok, nil
}

// MemoryArtifactRepository keeps descriptors in process memory.
type MemoryArtifactRepository struct {
	mu        sync.RWMutex
	artifacts map[string]*aggregate.Artifact
}

func NewMemoryArtifactRepository() *MemoryArtifactRepository {
	return &MemoryArtifactRepository{artifacts: make(map[string]*aggregate.Artifact)}
}

func (r *MemoryArtifactRepository) Save(_ context.Context, artifact *aggregate.Artifact) error {
	if artifact == nil || artifact.StoreID == "" {
		return errors.New(errors.KindValidation, "artifact.save", "artifact store id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts[artifact.StoreID] = artifact.Clone()
	return nil
}

func (r *MemoryArtifactRepository) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.artifacts, id)
	return nil
}

func (r *MemoryArtifactRepository) Get(_ context.Context, id string) (*aggregate.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.artifacts[id].Clone(), nil
}

func (r *MemoryArtifactRepository) GetByCategory(_ context.Context, id, category string) (*aggregate.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.artifacts[id]
	if !ok || a.Category != category {
		return nil, nil
	}
	return a.Clone(), nil
}

func (r *MemoryArtifactRepository) ListByCategory(_ context.Context, category string) ([]*aggregate.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*aggregate.Artifact, 0)
	for _, a := range r.artifacts {
		if a.Category == category {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoreID < out[j].StoreID })
	return out, nil
}

func (r *MemoryArtifactRepository) Exists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.artifacts[id]
	return ok, nil
}
