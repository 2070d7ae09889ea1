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

// StoreRepository stores one document per record with _id = store id.
type StoreRepository struct {
	collection *mongo.Collection
}

func NewStoreRepository(db *mongo.Database) *StoreRepository {
	return &StoreRepository{collection: db.Collection(StoresCollection)}
}

func (r *StoreRepository) Put(ctx context.Context, store *aggregate.Store) error {
	if err := store.Validate(); err != nil {
		return err
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": store.ID}, store, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.KindStorage, "store.put", "failed to save store", err)
	}
	return nil
}

func (r *StoreRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.KindStorage, "store.delete", "failed to delete store", err)
	}
	return nil
}

func (r *StoreRepository) Get(ctx context.Context, id string) (*aggregate.Store, error) {
	var store aggregate.Store
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&store); err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.KindStorage, "store.get", "failed to load store", err)
	}
	return &store, nil
}

func (r *StoreRepository) List(ctx context.Context) ([]*aggregate.Store, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "store.list", "failed to list stores", err)
	}
	defer cursor.Close(ctx)

	stores := make([]*aggregate.Store, 0)
	for cursor.Next(ctx) {
		var store aggregate.Store
		if err := cursor.Decode(&store); err != nil {
			return nil, errors.Wrap(errors.KindStorage, "store.list", "failed to decode store", err)
		}
		stores = append(stores, &store)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "store.list", "cursor failed", err)
	}
	return stores, nil
}

func (r *StoreRepository) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(errors.KindStorage, "store.exists", "failed to check store", err)
	}
	return n > 0, nil
}
