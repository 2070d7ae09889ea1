package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mallguide-server-go/internal/domain/directory/aggregate"
	"mallguide-server-go/internal/domain/directory/repository"
	"mallguide-server-go/internal/platform/errors"
)

type artifactRepository struct {
	db *gorm.DB
}

// NewArtifactRepository returns the SQLite-backed artifact repository.
func NewArtifactRepository(db *gorm.DB) repository.ArtifactRepository {
	return &artifactRepository{db: db}
}

func (r *artifactRepository) Save(ctx context.Context, artifact *aggregate.Artifact) error {
	if artifact == nil || artifact.StoreID == "" {
		return errors.New(errors.KindValidation, "artifact.save", "artifact store id is required")
	}
	descriptor, err := json.Marshal(artifact)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "artifact.save", "failed to encode descriptor", err)
	}
	row := &ArtifactRow{
		ID:         artifact.StoreID,
		Category:   artifact.Category,
		Bucket:     artifact.Bucket,
		Digest:     artifact.Digest,
		Descriptor: datatypes.JSON(descriptor),
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(row).Error
	if err != nil {
		return errors.Wrap(errors.KindStorage, "artifact.save", "failed to save artifact", err)
	}
	return nil
}

func (r *artifactRepository) Remove(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&ArtifactRow{}).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "artifact.remove", "failed to remove artifact", err)
	}
	return nil
}

func (r *artifactRepository) Get(ctx context.Context, id string) (*aggregate.Artifact, error) {
	return r.first(ctx, "artifact.get", r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *artifactRepository) GetByCategory(ctx context.Context, id, category string) (*aggregate.Artifact, error) {
	return r.first(ctx, "artifact.get_by_category",
		r.db.WithContext(ctx).Where("id = ? AND category = ?", id, category))
}

func (r *artifactRepository) first(_ context.Context, op string, q *gorm.DB) (*aggregate.Artifact, error) {
	var row ArtifactRow
	if err := q.First(&row).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.KindStorage, op, "failed to load artifact", err)
	}
	return decodeArtifact(op, &row)
}

func (r *artifactRepository) ListByCategory(ctx context.Context, category string) ([]*aggregate.Artifact, error) {
	var rows []ArtifactRow
	if err := r.db.WithContext(ctx).Where("category = ?", category).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "artifact.list_by_category", "failed to list artifacts", err)
	}
	out := make([]*aggregate.Artifact, 0, len(rows))
	for i := range rows {
		a, err := decodeArtifact("artifact.list_by_category", &rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *artifactRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ArtifactRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.Wrap(errors.KindStorage, "artifact.exists", "failed to check artifact", err)
	}
	return count > 0, nil
}

func decodeArtifact(op string, row *ArtifactRow) (*aggregate.Artifact, error) {
	var a aggregate.Artifact
	if err := json.Unmarshal(row.Descriptor, &a); err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "failed to decode descriptor", err)
	}
	return &a, nil
}
