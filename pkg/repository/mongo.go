package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/eshop/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	categoriesCollection = "categories"
	productsCollection   = "products"
	orderItemsCollection = "orderitems"
	ordersCollection     = "orders"
	usersCollection      = "users"
	feedbacksCollection  = "feedbacks"
)

var (
	// ErrNotFound is returned when a document addressed by id or filter does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate document")
	// ErrInvalidID is returned for malformed object ids.
	ErrInvalidID = errors.New("invalid object id")
)

type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	return &MongoRepository{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
	}, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the handlers rely on.
func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}

	_, err = m.collection(ordersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "dateOrdered", Value: -1}}},
		{Keys: bson.D{{Key: "dateOrdered", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create orders indexes: %w", err)
	}

	_, err = m.collection(productsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create products category index: %w", err)
	}
	return nil
}

func (m *MongoRepository) collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// ParseID converts a hex string into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, hex)
	}
	return id, nil
}

// ParseIDs converts every hex string, failing on the first malformed one.
func ParseIDs(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := ParseID(h)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func findByID[T any](ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, opts ...*options.FindOneOptions) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, bson.M{"_id": id}, opts...).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := make([]T, 0)
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func updateByID[T any](ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, set bson.M) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc T
	err := coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func removeByID[T any](ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) (*T, error) {
	var doc T
	if err := coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc interface{}) (primitive.ObjectID, error) {
	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
