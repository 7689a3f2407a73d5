package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/eshop/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := findAll[models.User](ctx, m.collection(usersCollection), bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (m *MongoRepository) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findByID[models.User](ctx, m.collection(usersCollection), id)
}

func (m *MongoRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := m.collection(usersCollection).FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UserExists reports whether a user with the given id is stored.
func (m *MongoRepository) UserExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	_, err := findByID[models.UserRef](ctx, m.collection(usersCollection), id, opts)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to look up user %s: %w", id.Hex(), err)
	}
}

func (m *MongoRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.DateCreated = time.Now()
	id, err := insert(ctx, m.collection(usersCollection), user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	return nil
}

func (m *MongoRepository) UpdateUser(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	return updateByID[models.User](ctx, m.collection(usersCollection), id, set)
}

func (m *MongoRepository) DeleteUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return removeByID[models.User](ctx, m.collection(usersCollection), id)
}

func (m *MongoRepository) CountUsers(ctx context.Context) (int64, error) {
	return m.collection(usersCollection).CountDocuments(ctx, bson.M{})
}

// userRefs loads the given users projected to a single field, keyed by id.
func (m *MongoRepository) userRefs(ctx context.Context, ids []primitive.ObjectID, field string) (map[primitive.ObjectID]*models.UserRef, error) {
	out := make(map[primitive.ObjectID]*models.UserRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	opts := options.Find().SetProjection(bson.M{field: 1})
	refs, err := findAll[models.UserRef](ctx, m.collection(usersCollection), bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for i := range refs {
		out[refs[i].ID] = &refs[i]
	}
	return out, nil
}
