package repository

import (
	"context"
	"fmt"

	"github.com/example/eshop/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (m *MongoRepository) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	id, err := insert(ctx, m.collection(orderItemsCollection), item)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	item.ID = id
	return nil
}

// PricedOrderItem re-reads an order item joined with the price of the
// product it references. ErrNotFound is returned when either the item or
// its product does not exist.
func (m *MongoRepository) PricedOrderItem(ctx context.Context, id primitive.ObjectID) (*models.PricedOrderItem, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         productsCollection,
			"localField":   "product",
			"foreignField": "_id",
			"as":           "product_doc",
		}}},
		{{Key: "$unwind", Value: "$product_doc"}},
		{{Key: "$project", Value: bson.M{
			"quantity": 1,
			"product":  1,
			"price":    "$product_doc.price",
		}}},
		{{Key: "$limit", Value: 1}},
	}

	cursor, err := m.collection(orderItemsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to price order item %s: %w", id.Hex(), err)
	}
	defer cursor.Close(ctx)

	var items []models.PricedOrderItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode priced order item %s: %w", id.Hex(), err)
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

func (m *MongoRepository) DeleteOrderItem(ctx context.Context, id primitive.ObjectID) error {
	_, err := removeByID[models.OrderItem](ctx, m.collection(orderItemsCollection), id)
	return err
}

// populateOrderItems resolves line items together with their products and
// categories, preserving the order of ids.
func (m *MongoRepository) populateOrderItems(ctx context.Context, ids []primitive.ObjectID) ([]models.PopulatedOrderItem, error) {
	if len(ids) == 0 {
		return []models.PopulatedOrderItem{}, nil
	}

	items, err := findAll[models.OrderItem](ctx, m.collection(orderItemsCollection), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	byID := make(map[primitive.ObjectID]models.OrderItem, len(items))
	productIDs := make([]primitive.ObjectID, 0, len(items))
	for _, it := range items {
		byID[it.ID] = it
		productIDs = append(productIDs, it.Product)
	}

	products, err := m.productsByID(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	out := make([]models.PopulatedOrderItem, 0, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, models.PopulatedOrderItem{
			ID:       it.ID,
			Quantity: it.Quantity,
			Product:  products[it.Product],
		})
	}
	return out, nil
}
