package gateway

import (
	"context"

	"github.com/example/eshop/pkg/discovery"
	"github.com/example/eshop/pkg/models"
	"github.com/example/eshop/pkg/ordering"
	"github.com/example/eshop/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CategoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Category, error)
	DeleteCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	CountCategories(ctx context.Context) (int64, error)
}

type ProductStore interface {
	ListProducts(ctx context.Context, categories []primitive.ObjectID) ([]models.PopulatedProduct, error)
	GetProduct(ctx context.Context, id primitive.ObjectID) (*models.PopulatedProduct, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	CountProducts(ctx context.Context) (int64, error)
	FeaturedProducts(ctx context.Context, limit int64) ([]models.Product, error)
}

// ProductCache is a read-through cache for single product lookups.
type ProductCache interface {
	CacheProduct(ctx context.Context, product *models.PopulatedProduct) error
	CachedProduct(ctx context.Context, id string) (*models.PopulatedProduct, error)
	InvalidateProduct(ctx context.Context, id string) error
}

type OrderStore interface {
	ListOrders(ctx context.Context) ([]models.OrderSummary, error)
	GetOrderDetail(ctx context.Context, id primitive.ObjectID) (*models.OrderDetail, error)
	UserOrders(ctx context.Context, userID primitive.ObjectID) ([]models.OrderDetail, error)
	UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Order, error)
	CountOrders(ctx context.Context) (int64, error)
}

// OrderWorkflow is implemented by *ordering.Service.
type OrderWorkflow interface {
	CreateOrder(ctx context.Context, in ordering.CreateInput) (*models.Order, error)
	DeleteOrder(ctx context.Context, id string) (*models.Order, error)
	TotalSales(ctx context.Context) (float64, error)
}

type AuditReader interface {
	GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]repository.AuditLog, error)
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

type FeedbackStore interface {
	ListFeedbacks(ctx context.Context) ([]models.FeedbackDetail, error)
	GetFeedback(ctx context.Context, id primitive.ObjectID) (*models.FeedbackDetail, error)
	CreateFeedback(ctx context.Context, feedback *models.Feedback) error
	DeleteFeedback(ctx context.Context, id primitive.ObjectID) (*models.Feedback, error)
	CountFeedbacks(ctx context.Context) (int64, error)
}

// PeerDirectory lists the registered instances of a service. It is
// implemented by *discovery.Registry.
type PeerDirectory interface {
	Discover(ctx context.Context, name string) ([]*discovery.Instance, error)
}
