package mongo

import (
	"context"
	stderrors "errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mallguide-server-go/internal/domain/directory/aggregate"
	"mallguide-server-go/internal/platform/errors"
)

// ArtifactDocument wraps a descriptor with its store id as _id.
type ArtifactDocument struct {
	ID                 string `bson:"_id"`
	aggregate.Artifact `bson:",inline"`
}

type ArtifactRepository struct {
	collection *mongo.Collection
}

func NewArtifactRepository(db *mongo.Database) *ArtifactRepository {
	return &ArtifactRepository{collection: db.Collection(ArtifactsCollection)}
}

func (r *ArtifactRepository) Save(ctx context.Context, artifact *aggregate.Artifact) error {
	if artifact == nil || artifact.StoreID == "" {
		return errors.New(errors.KindValidation, "artifact.save", "artifact store id is required")
	}
	doc := ArtifactDocument{ID: artifact.StoreID, Artifact: *artifact}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.KindStorage, "artifact.save", "failed to save artifact", err)
	}
	return nil
}

func (r *ArtifactRepository) Remove(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.KindStorage, "artifact.remove", "failed to remove artifact", err)
	}
	return nil
}

func (r *ArtifactRepository) Get(ctx context.Context, id string) (*aggregate.Artifact, error) {
	return r.findOne(ctx, "artifact.get", bson.M{"_id": id})
}

func (r *ArtifactRepository) GetByCategory(ctx context.Context, id, category string) (*aggregate.Artifact, error) {
	return r.findOne(ctx, "artifact.get_by_category", bson.M{"_id": id, "category": category})
}

func (r *ArtifactRepository) findOne(ctx context.Context, op string, filter bson.M) (*aggregate.Artifact, error) {
	var doc ArtifactDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.KindStorage, op, "failed to load artifact", err)
	}
	return &doc.Artifact, nil
}

func (r *ArtifactRepository) ListByCategory(ctx context.Context, category string) ([]*aggregate.Artifact, error) {
	const op = "artifact.list_by_category"
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"category": category}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "failed to list artifacts", err)
	}
	defer cursor.Close(ctx)

	out := make([]*aggregate.Artifact, 0)
	for cursor.Next(ctx) {
		var doc ArtifactDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.KindStorage, op, "failed to decode artifact", err)
		}
		a := doc.Artifact
		out = append(out, &a)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "cursor failed", err)
	}
	return out, nil
}

func (r *ArtifactRepository) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(errors.KindStorage, "artifact.exists", "failed to check artifact", err)
	}
	return n > 0, nil
}
