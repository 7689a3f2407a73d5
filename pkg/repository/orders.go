package repository

import (
	"context"
	"fmt"

	"github.com/example/eshop/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var newestFirst = options.Find().SetSort(bson.D{{Key: "dateOrdered", Value: -1}})

func (m *MongoRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	id, err := insert(ctx, m.collection(ordersCollection), order)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	order.ID = id
	return nil
}

func (m *MongoRepository) DeleteOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return removeByID[models.Order](ctx, m.collection(ordersCollection), id)
}

func (m *MongoRepository) FindOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return findByID[models.Order](ctx, m.collection(ordersCollection), id)
}

// ListOrders returns every order, newest first, with the user's name.
func (m *MongoRepository) ListOrders(ctx context.Context) ([]models.OrderSummary, error) {
	orders, err := findAll[models.Order](ctx, m.collection(ordersCollection), bson.M{}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	userIDs := make([]primitive.ObjectID, 0, len(orders))
	for _, o := range orders {
		userIDs = append(userIDs, o.User)
	}
	users, err := m.userRefs(ctx, userIDs, "name")
	if err != nil {
		return nil, err
	}

	out := make([]models.OrderSummary, len(orders))
	for i := range orders {
		out[i] = models.OrderSummary{Order: &orders[i], User: users[orders[i].User]}
	}
	return out, nil
}

// GetOrderDetail returns one order with its user and line items populated.
func (m *MongoRepository) GetOrderDetail(ctx context.Context, id primitive.ObjectID) (*models.OrderDetail, error) {
	order, err := m.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := m.populateOrders(ctx, []models.Order{*order})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// UserOrders returns a user's orders, newest first, fully populated.
func (m *MongoRepository) UserOrders(ctx context.Context, userID primitive.ObjectID) ([]models.OrderDetail, error) {
	orders, err := findAll[models.Order](ctx, m.collection(ordersCollection), bson.M{"user": userID}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of user %s: %w", userID.Hex(), err)
	}
	return m.populateOrders(ctx, orders)
}

func (m *MongoRepository) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Order, error) {
	return updateByID[models.Order](ctx, m.collection(ordersCollection), id, bson.M{"status": status})
}

func (m *MongoRepository) CountOrders(ctx context.Context) (int64, error) {
	return m.collection(ordersCollection).CountDocuments(ctx, bson.M{})
}

// TotalSales sums totalPrice over all orders. No orders yields zero.
func (m *MongoRepository) TotalSales(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"totalsales": bson.M{"$sum": "$totalPrice"},
		}}},
	}

	cursor, err := m.collection(ordersCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate total sales: %w", err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		TotalSales float64 `bson:"totalsales"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, fmt.Errorf("failed to decode total sales: %w", err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].TotalSales, nil
}

func (m *MongoRepository) populateOrders(ctx context.Context, orders []models.Order) ([]models.OrderDetail, error) {
	userIDs := make([]primitive.ObjectID, 0, len(orders))
	for _, o := range orders {
		userIDs = append(userIDs, o.User)
	}
	users, err := m.userRefs(ctx, userIDs, "name")
	if err != nil {
		return nil, err
	}

	out := make([]models.OrderDetail, len(orders))
	for i := range orders {
		items, err := m.populateOrderItems(ctx, orders[i].OrderItems)
		if err != nil {
			return nil, err
		}
		out[i] = models.OrderDetail{
			Order:      &orders[i],
			User:       users[orders[i].User],
			OrderItems: items,
		}
	}
	return out, nil
}
