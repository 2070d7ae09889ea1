package repository

import (
	"context"

	"mallguide-server-go/internal/domain/directory/aggregate"
)

// StoreRepository persists store records keyed by id.
type StoreRepository interface {
	// Put validates and inserts or replaces the record.
	Put(ctx context.Context, store *aggregate.Store) error
	// Delete is a no-op for an absent id.
	Delete(ctx context.Context, id string) error
	// Get returns nil, nil for an absent id.
	Get(ctx context.Context, id string) (*aggregate.Store, error)
	// List returns every record ordered by id.
	List(ctx context.Context) ([]*aggregate.Store, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// ArtifactRepository persists presentation descriptors keyed by store id.
type ArtifactRepository interface {
	Save(ctx context.Context, artifact *aggregate.Artifact) error
	// Remove is a no-op for an absent id.
	Remove(ctx context.Context, id string) error
	// Get returns nil, nil for an absent id.
	Get(ctx context.Context, id string) (*aggregate.Artifact, error)
	// GetByCategory returns nil, nil unless the artifact exists in category.
	GetByCategory(ctx context.Context, id, category string) (*aggregate.Artifact, error)
	// ListByCategory returns the artifacts of category ordered by store id.
	ListByCategory(ctx context.Context, category string) ([]*aggregate.Artifact, error)
	Exists(ctx context.Context, id string) (bool, error)
}
