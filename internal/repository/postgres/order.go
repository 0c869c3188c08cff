package postgres

import (
	"context"

	"github.com/brewcycle/brewcycle/internal/domain/order"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/postgres"
	"github.com/brewcycle/brewcycle/internal/types"
)

// nullable references are stored as NULL and read back as empty strings
const orderColumns = `id, order_number, user_id,
	COALESCE(subscription_id, '') AS subscription_id,
	COALESCE(idempotency_key, '') AS idempotency_key,
	line_items, shipping_address, payment_method,
	base_price, discount, tax, shipping, total_price,
	is_paid, paid_at, is_subscription,
	created_at, updated_at, created_by, updated_by`

const orderIdempotencyKeyConstraint = "orders_idempotency_key_key"

type orderRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewOrderRepository(db postgres.IClient, logger *logger.Logger) order.Repository {
	return &orderRepository{db: db, logger: logger}
}

func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	span := StartRepositorySpan(ctx, "order", "create", map[string]interface{}{
		"order_id":        o.ID,
		"subscription_id": o.SubscriptionID,
	})
	defer FinishSpan(span)

	if o.OrderNumber == "" {
		o.OrderNumber = types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_ORDER)
	}

	r.logger.Debugw("creating order",
		"order_id", o.ID,
		"order_number", o.OrderNumber,
		"subscription_id", o.SubscriptionID,
	)

	query := `
		INSERT INTO orders (
			id, order_number, user_id, subscription_id, idempotency_key,
			line_items, shipping_address, payment_method,
			base_price, discount, tax, shipping, total_price,
			is_paid, paid_at, is_subscription,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :order_number, :user_id, NULLIF(:subscription_id, ''), NULLIF(:idempotency_key, ''),
			:line_items, :shipping_address, :payment_method,
			:base_price, :discount, :tax, :shipping, :total_price,
			:is_paid, :paid_at, :is_subscription,
			:created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.Querier(ctx).NamedExecContext(ctx, query, o); err != nil {
		SetSpanError(span, err)
		return createOrderError(err, o)
	}

	SetSpanSuccess(span)
	return nil
}

// createOrderError maps an insert failure. Only a clash on the idempotency key means
// the order already exists; a clashing order number is a failed write like any other.
func createOrderError(err error, o *order.Order) error {
	if isUniqueViolationOn(err, orderIdempotencyKeyConstraint) {
		return ierr.WithError(err).
			WithHint("An order for this renewal already exists").
			WithReportableDetails(map[string]any{
				"order_id":        o.ID,
				"idempotency_key": o.IdempotencyKey,
			}).
			Mark(ierr.ErrAlreadyExists)
	}
	return databaseError(err, "Failed to create order")
}

func (r *orderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := r.db.Querier(ctx).GetContext(ctx, &o, query, id); err != nil {
		return nil, notFoundOr(err, "order", id)
	}
	return &o, nil
}

func (r *orderRepository) GetByIdempotencyKey(ctx context.Context, key string) (*order.Order, error) {
	span := StartRepositorySpan(ctx, "order", "get_by_idempotency_key", map[string]interface{}{
		"idempotency_key": key,
	})
	defer FinishSpan(span)

	var o order.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE idempotency_key = $1`
	if err := r.db.Querier(ctx).GetContext(ctx, &o, query, key); err != nil {
		SetSpanError(span, err)
		return nil, notFoundOr(err, "order", key)
	}

	SetSpanSuccess(span)
	return &o, nil
}

func (r *orderRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*order.Order, error) {
	var orders []*order.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE subscription_id = $1 ORDER BY created_at ASC`
	if err := r.db.Querier(ctx).SelectContext(ctx, &orders, query, subscriptionID); err != nil {
		return nil, databaseError(err, "Failed to list orders")
	}
	return orders, nil
}
