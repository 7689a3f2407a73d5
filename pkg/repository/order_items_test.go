package repository

import (
	"context"
	"testing"

	"github.com/example/eshop/pkg/config"
	"github.com/example/eshop/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func mockRepository(mt *mtest.T) *MongoRepository {
	return &MongoRepository{
		client:   mt.Client,
		database: mt.DB,
		config:   &config.MongoDBConfig{Database: mt.DB.Name(), AuditCollection: "audit_logs"},
	}
}

func TestCreateOrderItem(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("keeps preassigned id", func(mt *mtest.T) {
		repo := mockRepository(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id := primitive.NewObjectID()
		item := &models.OrderItem{ID: id, Quantity: 2, Product: primitive.NewObjectID()}
		require.NoError(mt, repo.CreateOrderItem(context.Background(), item))
		assert.Equal(mt, id, item.ID)

		sent := mt.GetStartedEvent()
		require.NotNil(mt, sent)
		docs := sent.Command.Lookup("documents").Array()
		first, err := docs.IndexErr(0)
		require.NoError(mt, err)
		assert.Equal(mt, id, first.Value().Document().Lookup("_id").ObjectID())
	})

	mt.Run("assigns id when missing", func(mt *mtest.T) {
		repo := mockRepository(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		item := &models.OrderItem{Quantity: 1, Product: primitive.NewObjectID()}
		require.NoError(mt, repo.CreateOrderItem(context.Background(), item))
		assert.False(mt, item.ID.IsZero())
	})
}

func TestPricedOrderItem(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "eshop." + orderItemsCollection

	mt.Run("joins product price", func(mt *mtest.T) {
		repo := mockRepository(mt)
		id := primitive.NewObjectID()
		product := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "quantity", Value: int32(3)},
			{Key: "product", Value: product},
			{Key: "price", Value: 12.5},
		}))

		item, err := repo.PricedOrderItem(context.Background(), id)
		require.NoError(mt, err)
		assert.Equal(mt, id, item.ID)
		assert.Equal(mt, 3, item.Quantity)
		assert.Equal(mt, product, item.Product)
		assert.Equal(mt, 12.5, item.Price)

		sent := mt.GetStartedEvent()
		require.NotNil(mt, sent)
		assert.Equal(mt, "aggregate", sent.CommandName)
		assert.Equal(mt, orderItemsCollection, sent.Command.Lookup("aggregate").StringValue())
	})

	mt.Run("missing product is not found", func(mt *mtest.T) {
		repo := mockRepository(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.PricedOrderItem(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("server error is wrapped", func(mt *mtest.T) {
		repo := mockRepository(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad pipeline",
		}))

		id := primitive.NewObjectID()
		_, err := repo.PricedOrderItem(context.Background(), id)
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, ErrNotFound)
		assert.Contains(mt, err.Error(), id.Hex())
		assert.Contains(mt, err.Error(), "bad pipeline")
	})
}

func TestTotalSales(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "eshop." + ordersCollection

	mt.Run("sums order totals", func(mt *mtest.T) {
		repo := mockRepository(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalsales", Value: 40.5},
		}))

		total, err := repo.TotalSales(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, 40.5, total)
	})

	mt.Run("no orders yields zero", func(mt *mtest.T) {
		repo := mockRepository(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		total, err := repo.TotalSales(context.Background())
		require.NoError(mt, err)
		assert.Zero(mt, total)
	})

	mt.Run("server error", func(mt *mtest.T) {
		repo := mockRepository(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad group",
		}))

		_, err := repo.TotalSales(context.Background())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to aggregate total sales")
	})
}
