package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/eshop/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (m *MongoRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := findAll[models.Category](ctx, m.collection(categoriesCollection), bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (m *MongoRepository) GetCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	return findByID[models.Category](ctx, m.collection(categoriesCollection), id)
}

func (m *MongoRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	category.DateCreated = time.Now()
	id, err := insert(ctx, m.collection(categoriesCollection), category)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	category.ID = id
	return nil
}

func (m *MongoRepository) UpdateCategory(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Category, error) {
	return updateByID[models.Category](ctx, m.collection(categoriesCollection), id, set)
}

func (m *MongoRepository) DeleteCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	return removeByID[models.Category](ctx, m.collection(categoriesCollection), id)
}

func (m *MongoRepository) CountCategories(ctx context.Context) (int64, error) {
	return m.collection(categoriesCollection).CountDocuments(ctx, bson.M{})
}

// categoriesByID loads the given categories keyed by id. Unknown ids are skipped.
func (m *MongoRepository) categoriesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Category, error) {
	out := make(map[primitive.ObjectID]*models.Category, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	categories, err := findAll[models.Category](ctx, m.collection(categoriesCollection), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	for i := range categories {
		out[categories[i].ID] = &categories[i]
	}
	return out, nil
}
