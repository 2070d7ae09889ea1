// Package artifact derives presentation descriptors from store records.
package artifact

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/zeebo/blake3"

	"mallguide-server-go/internal/domain/directory/aggregate"
	"mallguide-server-go/internal/domain/directory/repository"
	"mallguide-server-go/internal/platform/errors"
)

// Generator derives artifacts and keeps them in an ArtifactRepository.
type Generator struct {
	catalog *aggregate.Catalog
	store   repository.ArtifactRepository
}

func NewGenerator(catalog *aggregate.Catalog, store repository.ArtifactRepository) *Generator {
	if catalog == nil {
		catalog = aggregate.NewCatalog()
	}
	return &Generator{catalog: catalog, store: store}
}

func (g *Generator) Catalog() *aggregate.Catalog {
	return g.catalog
}

// Derive builds the descriptor for record. It has no side effects and the
// same record always yields the same descriptor.
func (g *Generator) Derive(record *aggregate.Store) (*aggregate.Artifact, error) {
	const op = "artifact.derive"
	if record == nil || record.ID == "" {
		return nil, errors.New(errors.KindGeneration, op, "store record is required")
	}
	cat, ok := g.catalog.Lookup(record.Category)
	if !ok {
		return nil, errors.Newf(errors.KindGeneration, op, "unknown category %q", record.Category)
	}

	mapLocation := record.MapLocation
	if strings.TrimSpace(mapLocation) == "" {
		mapLocation = aggregate.DefaultMapLocation
	}

	a := &aggregate.Artifact{
		Version:  aggregate.ArtifactVersion,
		StoreID:  record.ID,
		Category: cat.Name,
		Bucket:   cat.Bucket,
		Title:    strings.TrimSpace(record.Name),
		Template: cat.Template,
		Fields: []aggregate.ArtifactField{
			{Key: "name", Label: "Store", Value: strings.TrimSpace(record.Name)},
			{Key: "floor", Label: "Floor", Value: strings.TrimSpace(record.Floor)},
			{Key: "phone", Label: "Phone", Value: strings.TrimSpace(record.Phone)},
			{Key: "description", Label: "About", Value: strings.TrimSpace(record.Description)},
			{Key: "mapLocation", Label: "Map", Value: mapLocation},
		},
	}

	digest, err := Digest(a)
	if err != nil {
		return nil, errors.Wrap(errors.KindGeneration, op, "failed to digest descriptor", err)
	}
	a.Digest = digest
	return a, nil
}

// Digest is the hex BLAKE3 hash of the descriptor encoded with an empty
// digest field.
func Digest(a *aggregate.Artifact) (string, error) {
	c := *a
	c.Digest = ""
	data, err := json.Marshal(&c)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Generate derives the artifact for record and persists it.
func (g *Generator) Generate(ctx context.Context, record *aggregate.Store) (*aggregate.Artifact, error) {
	a, err := g.Derive(record)
	if err != nil {
		return nil, err
	}
	if err := g.store.Save(ctx, a); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "artifact.generate", "failed to save artifact", err)
	}
	return a, nil
}

// Remove deletes the stored artifact. Absent ids are not an error.
func (g *Generator) Remove(ctx context.Context, id string) error {
	if err := g.store.Remove(ctx, id); err != nil {
		return errors.Wrap(errors.KindStorage, "artifact.remove", "failed to remove artifact", err)
	}
	return nil
}

func (g *Generator) Get(ctx context.Context, id string) (*aggregate.Artifact, error) {
	return g.store.Get(ctx, id)
}

func (g *Generator) Exists(ctx context.Context, id string) (bool, error) {
	return g.store.Exists(ctx, id)
}

// ListByCategory resolves category through the catalog first so callers
// get a generation error for names that can never have artifacts.
func (g *Generator) ListByCategory(ctx context.Context, category string) ([]*aggregate.Artifact, error) {
	cat, ok := g.catalog.Lookup(category)
	if !ok {
		return nil, errors.Newf(errors.KindGeneration, "artifact.list", "unknown category %q", category)
	}
	return g.store.ListByCategory(ctx, cat.Name)
}
