package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/eshop/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListProducts returns products populated with their category. A non-empty
// categories slice restricts the result to those categories.
func (m *MongoRepository) ListProducts(ctx context.Context, categories []primitive.ObjectID) ([]models.PopulatedProduct, error) {
	filter := bson.M{}
	if len(categories) > 0 {
		filter["category"] = bson.M{"$in": categories}
	}

	products, err := findAll[models.Product](ctx, m.collection(productsCollection), filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return m.populateProducts(ctx, products)
}

func (m *MongoRepository) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.PopulatedProduct, error) {
	product, err := m.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	populated, err := m.populateProducts(ctx, []models.Product{*product})
	if err != nil {
		return nil, err
	}
	return &populated[0], nil
}

// FindProduct returns the bare product document.
func (m *MongoRepository) FindProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return findByID[models.Product](ctx, m.collection(productsCollection), id)
}

func (m *MongoRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	product.DateCreated = time.Now()
	if product.Images == nil {
		product.Images = []string{}
	}
	id, err := insert(ctx, m.collection(productsCollection), product)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	product.ID = id
	return nil
}

func (m *MongoRepository) UpdateProduct(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error) {
	return updateByID[models.Product](ctx, m.collection(productsCollection), id, set)
}

func (m *MongoRepository) DeleteProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return removeByID[models.Product](ctx, m.collection(productsCollection), id)
}

func (m *MongoRepository) CountProducts(ctx context.Context) (int64, error) {
	return m.collection(productsCollection).CountDocuments(ctx, bson.M{})
}

// FeaturedProducts returns at most limit featured products. A zero limit
// means no limit.
func (m *MongoRepository) FeaturedProducts(ctx context.Context, limit int64) ([]models.Product, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	products, err := findAll[models.Product](ctx, m.collection(productsCollection), bson.M{"isFeatured": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return products, nil
}

func (m *MongoRepository) populateProducts(ctx context.Context, products []models.Product) ([]models.PopulatedProduct, error) {
	ids := make([]primitive.ObjectID, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.Category)
	}
	categories, err := m.categoriesByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.PopulatedProduct, len(products))
	for i := range products {
		out[i] = models.PopulatedProduct{
			Product:  &products[i],
			Category: categories[products[i].Category],
		}
	}
	return out, nil
}

// productsByID loads the given products keyed by id, populated with categories.
func (m *MongoRepository) productsByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.PopulatedProduct, error) {
	out := make(map[primitive.ObjectID]*models.PopulatedProduct, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	products, err := findAll[models.Product](ctx, m.collection(productsCollection), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	populated, err := m.populateProducts(ctx, products)
	if err != nil {
		return nil, err
	}
	for i := range populated {
		out[populated[i].ID] = &populated[i]
	}
	return out, nil
}
