package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ironsheep/logo-gallery/internal/models"
)

const mongoOwnerContentIndex = "owner_content_unique"

// MongoStore keeps logos as documents of one collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri and ensures the unique (owner, content hash)
// index exists on database.collection.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "ownerId", Value: 1},
				{Key: "contentHash", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName(mongoOwnerContentIndex),
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: 1}},
		},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create logo indexes: %w", err)
	}

	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) ListLogos(ctx context.Context) ([]models.Logo, error) {
	return s.find(ctx, bson.D{})
}

func (s *MongoStore) ListLogosByOwner(ctx context.Context, ownerID string) ([]models.Logo, error) {
	return s.find(ctx, bson.D{{Key: "ownerId", Value: ownerID}})
}

func (s *MongoStore) find(ctx context.Context, filter bson.D) ([]models.Logo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find logos: %w", err)
	}

	var logos []models.Logo
	if err := cur.All(ctx, &logos); err != nil {
		return nil, fmt.Errorf("decode logos: %w", err)
	}
	return logos, nil
}

func (s *MongoStore) GetLogo(ctx context.Context, id string) (*models.Logo, error) {
	var logo models.Logo
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&logo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get logo %s: %w", id, err)
	}
	return &logo, nil
}

func (s *MongoStore) CreateLogo(ctx context.Context, logo *models.Logo) error {
	_, err := s.coll.InsertOne(ctx, logo)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert logo %s: %w", logo.ID, err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
