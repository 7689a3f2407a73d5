package ordering

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/eshop/pkg/events"
	"github.com/example/eshop/pkg/models"
	"github.com/example/eshop/pkg/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "order-service"

type LineItemStore interface {
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error
	PricedOrderItem(ctx context.Context, id primitive.ObjectID) (*models.PricedOrderItem, error)
	DeleteOrderItem(ctx context.Context, id primitive.ObjectID) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	TotalSales(ctx context.Context) (float64, error)
}

type UserDirectory interface {
	UserExists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type Auditor interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}

// Line is one requested (product, quantity) pair.
type Line struct {
	ProductID string
	Quantity  int
}

type Shipping struct {
	Address1 string
	Address2 string
	City     string
	Zip      string
	Country  string
	Phone    string
}

type CreateInput struct {
	UserID   string
	Shipping Shipping
	// Status overrides the initial status; empty means models.StatusPending.
	Status string
	Lines  []Line
}

// Service runs the order creation and deletion workflows.
type Service struct {
	items  LineItemStore
	orders OrderStore
	users  UserDirectory
	audit  Auditor
	events events.Publisher
	logger *zap.Logger

	now             func() time.Time
	cleanupTimeout  time.Duration
	sideEffectLimit time.Duration

	pending sync.WaitGroup
}

type Option func(*Service)

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.audit = a }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(items LineItemStore, orders OrderStore, users UserDirectory, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		items:           items,
		orders:          orders,
		users:           users,
		events:          events.NopPublisher{},
		logger:          logger,
		now:             time.Now,
		cleanupTimeout:  10 * time.Second,
		sideEffectLimit: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type parsedLine struct {
	product  primitive.ObjectID
	quantity int
}

func parseInput(in CreateInput) (primitive.ObjectID, []parsedLine, error) {
	if len(in.Lines) == 0 {
		return primitive.NilObjectID, nil, validationError("order must contain at least one item")
	}

	user, err := primitive.ObjectIDFromHex(strings.TrimSpace(in.UserID))
	if err != nil {
		return primitive.NilObjectID, nil, validationError("invalid user id %q", in.UserID)
	}

	lines := make([]parsedLine, len(in.Lines))
	for i, l := range in.Lines {
		if l.Quantity <= 0 {
			return primitive.NilObjectID, nil, validationError("item %d: quantity must be a positive integer", i)
		}
		product, err := primitive.ObjectIDFromHex(strings.TrimSpace(l.ProductID))
		if err != nil {
			return primitive.NilObjectID, nil, validationError("item %d: invalid product id %q", i, l.ProductID)
		}
		lines[i] = parsedLine{product: product, quantity: l.Quantity}
	}
	return user, lines, nil
}

// CreateOrder persists the line items, prices them against the current
// product prices and stores the order. On failure every line item created
// by this call is removed again, so no partial order is ever visible.
func (s *Service) CreateOrder(ctx context.Context, in CreateInput) (*models.Order, error) {
	user, lines, err := parseInput(in)
	if err != nil {
		return nil, err
	}

	ok, err := s.users.UserExists(ctx, user)
	if err != nil {
		return nil, persistenceError(err, "failed to resolve user %s", user.Hex())
	}
	if !ok {
		return nil, referenceError("user %s does not exist", user.Hex())
	}

	itemIDs, err := s.materialize(ctx, lines)
	if err != nil {
		s.cleanup(ctx, itemIDs)
		return nil, err
	}

	total, err := s.price(ctx, itemIDs, lines)
	if err != nil {
		s.cleanup(ctx, itemIDs)
		return nil, err
	}

	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = models.StatusPending
	}

	order := &models.Order{
		OrderItems:       itemIDs,
		ShippingAddress1: in.Shipping.Address1,
		ShippingAddress2: in.Shipping.Address2,
		City:             in.Shipping.City,
		Zip:              in.Shipping.Zip,
		Country:          in.Shipping.Country,
		Phone:            in.Shipping.Phone,
		Status:           status,
		TotalPrice:       total.InexactFloat64(),
		User:             user,
		DateOrdered:      s.now().UTC(),
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.cleanup(ctx, itemIDs)
		return nil, persistenceError(err, "order cannot be created")
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.Hex()),
		zap.String("user_id", user.Hex()),
		zap.Int("items", len(itemIDs)),
		zap.Float64("total_price", order.TotalPrice))

	s.record(ctx, events.OrderCreated, order)
	return order, nil
}

// materialize creates one line item per requested line. Ids are assigned
// before the write, so the returned slice names every item that may exist,
// including writes that were applied but reported as failed.
func (s *Service) materialize(ctx context.Context, lines []parsedLine) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, len(lines))
	for i := range ids {
		ids[i] = primitive.NewObjectID()
	}

	var g errgroup.Group
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			item := &models.OrderItem{ID: ids[i], Quantity: line.quantity, Product: line.product}
			if err := s.items.CreateOrderItem(ctx, item); err != nil {
				return persistenceError(err, "failed to create order item for product %s", line.product.Hex())
			}
			return nil
		})
	}
	return ids, g.Wait()
}

// price re-reads every line item joined with its product price and sums
// quantity*price. A missing product fails the whole computation.
func (s *Service) price(ctx context.Context, ids []primitive.ObjectID, lines []parsedLine) (decimal.Decimal, error) {
	subtotals := make([]decimal.Decimal, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			item, err := s.items.PricedOrderItem(gctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				return referenceError("product %s does not exist", lines[i].product.Hex())
			}
			if err != nil {
				return persistenceError(err, "failed to price order item %s", id.Hex())
			}
			subtotals[i] = decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return decimal.Zero, err
	}

	return decimal.Sum(decimal.Zero, subtotals...), nil
}

// cleanup removes line items written by a failed attempt. It runs even if
// the caller's context is already cancelled.
func (s *Service) cleanup(ctx context.Context, ids []primitive.ObjectID) {
	if len(ids) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
	defer cancel()

	if failed, err := s.deleteItems(ctx, ids); err != nil {
		s.logger.Error("Failed to remove order items of failed order",
			zap.Strings("order_item_ids", failed),
			zap.Error(err))
	}
}

// deleteItems removes every item independently. Items that are already
// gone count as removed.
func (s *Service) deleteItems(ctx context.Context, ids []primitive.ObjectID) ([]string, error) {
	var (
		mu     sync.Mutex
		failed []string
		errs   error
	)

	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error {
			err := s.items.DeleteOrderItem(ctx, id)
			if err == nil || errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			mu.Lock()
			failed = append(failed, id.Hex())
			errs = multierr.Append(errs, fmt.Errorf("order item %s: %w", id.Hex(), err))
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(failed)
	return failed, errs
}

// DeleteOrder removes the order and then, independently, each of its line
// items. The order is gone even when some items could not be removed; those
// are reported in a KindCascade error.
func (s *Service) DeleteOrder(ctx context.Context, orderID string) (*models.Order, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(orderID))
	if err != nil {
		return nil, validationError("invalid order id %q", orderID)
	}

	order, err := s.orders.DeleteOrder(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &Error{Kind: KindNotFound, Msg: fmt.Sprintf("order %s not found", orderID)}
	}
	if err != nil {
		return nil, persistenceError(err, "failed to delete order %s", orderID)
	}

	s.record(ctx, events.OrderDeleted, order)

	failed, err := s.deleteItems(ctx, order.OrderItems)
	if err != nil {
		s.logger.Error("Order deleted with leftover order items",
			zap.String("order_id", orderID),
			zap.Strings("order_item_ids", failed),
			zap.Error(err))
		return order, &Error{
			Kind:   KindCascade,
			Msg:    fmt.Sprintf("order %s deleted, %d order item(s) could not be deleted", orderID, len(failed)),
			Err:    err,
			Failed: failed,
		}
	}
	return order, nil
}

// TotalSales sums the total price of all orders; zero orders yield 0.
func (s *Service) TotalSales(ctx context.Context) (float64, error) {
	total, err := s.orders.TotalSales(ctx)
	if err != nil {
		return 0, persistenceError(err, "the order total sales cannot be generated")
	}
	return total, nil
}

// record publishes the lifecycle event and writes the audit entry in the
// background, so a slow broker never delays the response. Neither can fail
// the workflow. Wait blocks until every pending record has finished.
func (s *Service) record(ctx context.Context, kind string, order *models.Order) {
	event := events.OrderEvent{
		Type:       kind,
		OrderID:    order.ID.Hex(),
		UserID:     order.User.Hex(),
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		Items:      len(order.OrderItems),
		OccurredAt: s.now().UTC(),
	}
	ctx = context.WithoutCancel(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(ctx, s.sideEffectLimit)
		defer cancel()

		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish order event",
				zap.String("type", kind),
				zap.String("order_id", event.OrderID),
				zap.Error(err))
		}

		if s.audit == nil {
			return
		}
		err := s.audit.CreateAuditLog(ctx, &repository.AuditLog{
			Service:  serviceName,
			Action:   strings.ReplaceAll(kind, ".", "_"),
			EntityID: event.OrderID,
			Data: bson.M{
				"user_id":     event.UserID,
				"total_price": event.TotalPrice,
				"items":       event.Items,
			},
		})
		if err != nil {
			s.logger.Warn("Failed to write audit log", zap.String("order_id", event.OrderID), zap.Error(err))
		}
	}()
}

// Wait blocks until all background event publishing and audit writes are done.
func (s *Service) Wait() {
	s.pending.Wait()
}
