package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brewcycle/brewcycle/internal/domain/subscription"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/postgres"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

const subscriptionColumns = `id, user_id, status, frequency, next_delivery_date, products, customizations,
	shipping_address, payment_details, price, history, version,
	created_at, updated_at, created_by, updated_by`

type subscriptionRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewSubscriptionRepository(db postgres.IClient, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	span := StartRepositorySpan(ctx, "subscription", "create", map[string]interface{}{
		"subscription_id": sub.ID,
		"user_id":         sub.UserID,
	})
	defer FinishSpan(span)

	r.logger.Debugw("creating subscription", "subscription_id", sub.ID, "user_id", sub.UserID)

	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES (
			:id, :user_id, :status, :frequency, :next_delivery_date, :products, :customizations,
			:shipping_address, :payment_details, :price, :history, :version,
			:created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.Querier(ctx).NamedExecContext(ctx, query, sub); err != nil {
		SetSpanError(span, err)
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A subscription with this id already exists").
				WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
				Mark(ierr.ErrAlreadyExists)
		}
		return databaseError(err, "Failed to create subscription")
	}

	SetSpanSuccess(span)
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	span := StartRepositorySpan(ctx, "subscription", "get", map[string]interface{}{
		"subscription_id": id,
	})
	defer FinishSpan(span)

	var sub subscription.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	if err := r.db.Querier(ctx).GetContext(ctx, &sub, query, id); err != nil {
		SetSpanError(span, err)
		return nil, notFoundOr(err, "subscription", id)
	}

	SetSpanSuccess(span)
	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	span := StartRepositorySpan(ctx, "subscription", "update", map[string]interface{}{
		"subscription_id": sub.ID,
		"version":         sub.Version,
	})
	defer FinishSpan(span)

	q := r.db.Querier(ctx)
	sub.Touch(ctx, time.Now().UTC())

	query := `
		UPDATE subscriptions SET
			status = $1,
			frequency = $2,
			next_delivery_date = $3,
			products = $4,
			customizations = $5,
			shipping_address = $6,
			payment_details = $7,
			price = $8,
			history = $9,
			version = version + 1,
			updated_at = $10,
			updated_by = $11
		WHERE id = $12 AND version = $13`

	result, err := q.ExecContext(ctx, query,
		sub.Status,
		sub.Frequency,
		sub.NextDeliveryDate,
		sub.Products,
		sub.Customizations,
		sub.ShippingAddress,
		sub.PaymentDetails,
		sub.Price,
		sub.History,
		sub.UpdatedAt,
		sub.UpdatedBy,
		sub.ID,
		sub.Version,
	)
	if err != nil {
		SetSpanError(span, err)
		return databaseError(err, "Failed to update subscription")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		SetSpanError(span, err)
		return databaseError(err, "Failed to update subscription")
	}

	if affected == 0 {
		err := r.conflictOrMissing(ctx, q, sub)
		SetSpanError(span, err)
		return err
	}

	sub.Version++
	SetSpanSuccess(span)
	return nil
}

// conflictOrMissing explains why a versioned update touched no rows
func (r *subscriptionRepository) conflictOrMissing(ctx context.Context, q postgres.Querier, sub *subscription.Subscription) error {
	var actual int
	err := q.GetContext(ctx, &actual, `SELECT version FROM subscriptions WHERE id = $1`, sub.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.NewError("subscription not found").
			WithHintf("Subscription %s not found", sub.ID).
			WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return databaseError(err, "Failed to update subscription")
	}

	return ierr.NewError("subscription was modified concurrently").
		WithHint("Version conflict").
		WithReportableDetails(map[string]any{
			"subscription_id":  sub.ID,
			"expected_version": sub.Version,
			"actual_version":   actual,
		}).
		Mark(ierr.ErrVersionConflict)
}

func (r *subscriptionRepository) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}

	span := StartRepositorySpan(ctx, "subscription", "list", map[string]interface{}{
		"user_id": filter.UserID,
	})
	defer FinishSpan(span)

	where := subscriptionWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM subscriptions%s ORDER BY created_at %s LIMIT %d OFFSET %d`,
		subscriptionColumns,
		where.String(),
		orderDirection(filter.GetOrder()),
		filter.GetLimit(),
		filter.GetOffset(),
	)

	var subs []*subscription.Subscription
	if err := r.db.Querier(ctx).SelectContext(ctx, &subs, query, where.args...); err != nil {
		SetSpanError(span, err)
		return nil, databaseError(err, "Failed to list subscriptions")
	}

	SetSpanSuccess(span)
	return subs, nil
}

func (r *subscriptionRepository) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}

	where := subscriptionWhere(filter)
	var count int
	if err := r.db.Querier(ctx).GetContext(ctx, &count, `SELECT COUNT(*) FROM subscriptions`+where.String(), where.args...); err != nil {
		return 0, databaseError(err, "Failed to count subscriptions")
	}
	return count, nil
}

func (r *subscriptionRepository) FindDue(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	span := StartRepositorySpan(ctx, "subscription", "find_due", map[string]interface{}{
		"now": now,
	})
	defer FinishSpan(span)

	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = $1 AND next_delivery_date <= $2
		ORDER BY next_delivery_date ASC`

	var subs []*subscription.Subscription
	if err := r.db.Querier(ctx).SelectContext(ctx, &subs, query, types.SubscriptionStatusActive, now); err != nil {
		SetSpanError(span, err)
		return nil, databaseError(err, "Failed to query due subscriptions")
	}

	SetSpanSuccess(span)
	return subs, nil
}

func subscriptionWhere(filter *types.SubscriptionFilter) *whereBuilder {
	where := &whereBuilder{}
	if filter.UserID != "" {
		where.add("user_id = $%d", filter.UserID)
	}
	if len(filter.Status) > 0 {
		statuses := lo.Map(filter.Status, func(s types.SubscriptionStatus, _ int) string { return string(s) })
		where.add("status = ANY($%d)", pq.Array(statuses))
	}
	if filter.DueBefore != nil {
		where.add("next_delivery_date <= $%d", *filter.DueBefore)
	}
	return where
}
