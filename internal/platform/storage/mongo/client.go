// Package mongo keeps store records and artifacts in MongoDB.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mallguide-server-go/internal/platform/errors"
)

const (
	StoresCollection    = "stores"
	ArtifactsCollection = "artifacts"
)

type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Client owns the driver connection shared by both repositories.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB, pings it and ensures the artifact category index.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	const op = "mongo.connect"
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "failed to connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.KindStorage, op, "failed to ping", err)
	}

	db := client.Database(cfg.Database)
	_, err = db.Collection(ArtifactsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.KindStorage, op, "failed to create artifact index", err)
	}

	return &Client{client: client, db: db}, nil
}

func (c *Client) Stores() *StoreRepository {
	return NewStoreRepository(c.db)
}

func (c *Client) Artifacts() *ArtifactRepository {
	return NewArtifactRepository(c.db)
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
