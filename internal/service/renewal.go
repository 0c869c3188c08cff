package service

import (
	"context"
	"time"

	"github.com/brewcycle/brewcycle/internal/api/dto"
	"github.com/brewcycle/brewcycle/internal/domain/order"
	"github.com/brewcycle/brewcycle/internal/domain/subscription"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/lock"
	"github.com/brewcycle/brewcycle/internal/publisher"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
)

const renewalRunLockKey = "renewal:run"

// RenewalService turns due subscriptions into orders and advances their schedule
type RenewalService interface {
	// ProcessRenewals renews every active subscription due at now. Each subscription
	// succeeds or fails on its own and is reported in the returned report; only a
	// failure to list the due subscriptions, or another run holding the run lock,
	// fails the call.
	ProcessRenewals(ctx context.Context, now time.Time) (*dto.RenewalReport, error)
}

type renewalService struct {
	ServiceParams
	pricing *subscription.PricingCalculator
}

func NewRenewalService(params ServiceParams) RenewalService {
	return &renewalService{
		ServiceParams: params,
		pricing:       params.pricingCalculator(),
	}
}

func (s *renewalService) ProcessRenewals(ctx context.Context, now time.Time) (*dto.RenewalReport, error) {
	now = now.UTC()

	span, ctx := s.Sentry.StartTransaction(ctx, "renewal.process")
	if span != nil {
		defer span.Finish()
	}

	lease, acquired, err := s.Locker.TryLock(ctx, renewalRunLockKey, s.Config.Renewal.LockTTL)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Could not take the renewal run lock").
			Mark(ierr.ErrSystem)
	}
	if !acquired {
		return nil, ierr.NewError("renewal run already in progress").
			WithHint("A renewal run is already in progress, try again later").
			Mark(ierr.ErrInvalidOperation)
	}
	defer func() {
		// the run may have been cancelled, release regardless
		if err := lease.Release(context.Background()); err != nil {
			s.Logger.Errorw("failed to release renewal run lock", "error", err)
		}
	}()
	stopRefresh := s.keepLease(ctx, lease)
	defer stopRefresh()

	report := &dto.RenewalReport{
		Details:   make([]dto.RenewalDetail, 0),
		StartedAt: time.Now().UTC(),
	}

	subs, err := s.SubRepo.FindDue(ctx, now)
	if err != nil {
		s.Logger.Errorw("failed to list due subscriptions", "error", err, "now", now)
		s.Sentry.CaptureWithTags(err, map[string]string{"operation": "renewal.find_due"})
		return nil, ierr.WithError(err).
			WithHint("Could not load due subscriptions").
			Mark(ierr.ErrDatabase)
	}

	s.Logger.Infow("starting renewal run",
		"now", now,
		"due", len(subs),
		"pricing_strategy", s.strategy(),
	)

	details := make([]dto.RenewalDetail, len(subs))
	p := pool.New().WithMaxGoroutines(max(1, s.Config.Renewal.MaxConcurrency))
	for i, sub := range subs {
		i, sub := i, sub
		p.Go(func() {
			details[i] = s.renew(ctx, sub, now)
		})
	}
	p.Wait()

	for _, detail := range details {
		if detail.Status == types.RenewalStatusSuccess {
			report.Processed++
		} else {
			report.Failed++
		}
	}
	report.Details = details
	report.CompletedAt = time.Now().UTC()

	s.Logger.Infow("completed renewal run",
		"processed", report.Processed,
		"failed", report.Failed,
		"duration", report.CompletedAt.Sub(report.StartedAt),
	)
	return report, nil
}

// keepLease extends lease every third of the lock TTL so that a run outlasting the
// TTL keeps the lock. The returned stop waits for the refresher to exit.
func (s *renewalService) keepLease(ctx context.Context, lease lock.Lease) (stop func()) {
	ttl := s.Config.Renewal.LockTTL
	if ttl <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg conc.WaitGroup
	wg.Go(func() {
		ticker := time.NewTicker(ttl / 3)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			held, err := lease.Extend(ctx, ttl)
			if err != nil {
				s.Logger.Warnw("failed to extend renewal run lock", "error", err)
				continue
			}
			if !held {
				s.Logger.Errorw("renewal run lock lost before the run finished", "key", renewalRunLockKey)
				return
			}
		}
	})
	return func() {
		cancel()
		wg.Wait()
	}
}

// renew runs one attempt for sub and reports it. sub is never modified.
func (s *renewalService) renew(ctx context.Context, sub *subscription.Subscription, now time.Time) dto.RenewalDetail {
	detail := dto.RenewalDetail{
		SubscriptionID:    sub.ID,
		FrequencyFallback: !sub.Frequency.IsKnown(),
	}
	if detail.FrequencyFallback {
		s.Logger.Warnw("unknown subscription frequency, renewing monthly",
			"subscription_id", sub.ID,
			"frequency", sub.Frequency,
		)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout())
	defer cancel()

	var created *order.Order
	err := s.DB.WithTx(attemptCtx, func(txCtx context.Context) error {
		var err error
		created, err = s.renewInTx(txCtx, sub, now)
		return err
	})
	if err != nil {
		detail.Status = types.RenewalStatusFailed
		detail.Error = ierr.DisplayMessage(err)
		s.Logger.Errorw("subscription renewal failed",
			"subscription_id", sub.ID,
			"error", err,
		)
		s.publish(ctx, types.EventSubscriptionRenewalFailed, sub, map[string]any{
			"error":              detail.Error,
			"scheduled_delivery": sub.NextDeliveryDate,
		})
		return detail
	}

	detail.Status = types.RenewalStatusSuccess
	detail.OrderID = created.ID
	s.Logger.Debugw("subscription renewed",
		"subscription_id", sub.ID,
		"order_id", created.ID,
	)
	s.publish(ctx, types.EventSubscriptionRenewed, sub, map[string]any{
		"order_id":           created.ID,
		"order_number":       created.OrderNumber,
		"scheduled_delivery": sub.NextDeliveryDate,
		"total_price":        created.TotalPrice.String(),
	})
	return detail
}

// renewInTx creates or reuses the order for sub's scheduled delivery and writes the
// advanced subscription back under its version check
func (s *renewalService) renewInTx(ctx context.Context, sub *subscription.Subscription, now time.Time) (*order.Order, error) {
	products, err := s.ProductResolver.ResolveFresh(ctx, sub.ProductIDs())
	if err != nil {
		return nil, err
	}

	renewed := sub.Copy()
	if s.strategy() == types.PricingStrategyRepriceAtRenewal {
		lines, err := priceLines(sub.Products, products)
		if err != nil {
			return nil, err
		}
		price, err := s.pricing.ComputePrice(lines)
		if err != nil {
			return nil, err
		}
		renewed.Price = price
	}

	payload, err := order.BuildOrderPayload(renewed, products, now)
	if err != nil {
		return nil, err
	}

	o, err := s.orderFor(ctx, payload)
	if err != nil {
		return nil, err
	}

	next := renewed.Renewed(o.ID, now)
	next.UpdatedAt = time.Now().UTC()
	next.UpdatedBy = types.SystemUserID
	if err := s.SubRepo.Update(ctx, next); err != nil {
		return nil, err
	}
	return o, nil
}

// orderFor returns the order already created for the payload's idempotency key,
// creating it when there is none
func (s *renewalService) orderFor(ctx context.Context, payload *order.CreationPayload) (*order.Order, error) {
	existing, err := s.OrderRepo.GetByIdempotencyKey(ctx, payload.IdempotencyKey)
	if err == nil {
		s.Logger.Infow("reusing order from an earlier renewal attempt",
			"subscription_id", payload.SubscriptionID,
			"order_id", existing.ID,
		)
		return existing, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	o := payload.ToOrder(ctx)
	o.CreatedBy = types.SystemUserID
	o.UpdatedBy = types.SystemUserID
	// a failed insert aborts the transaction, the savepoint keeps the lookup below usable
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		return s.OrderRepo.Create(ctx, o)
	})
	if err != nil {
		if ierr.IsAlreadyExists(err) {
			return s.OrderRepo.GetByIdempotencyKey(ctx, payload.IdempotencyKey)
		}
		return nil, err
	}
	return o, nil
}

func (s *renewalService) publish(ctx context.Context, name string, sub *subscription.Subscription, payload map[string]any) {
	event, err := publisher.NewEvent(name, sub.UserID, sub.ID, payload)
	if err == nil {
		err = s.EventPublisher.Publish(ctx, event)
	}
	if err != nil {
		s.Logger.Errorw("failed to publish renewal event",
			"event_name", name,
			"subscription_id", sub.ID,
			"error", err,
		)
	}
}

func (s *renewalService) strategy() types.PricingStrategy {
	if s.Config.Renewal.PricingStrategy == "" {
		return types.PricingStrategyLockAtCreation
	}
	return s.Config.Renewal.PricingStrategy
}

func (s *renewalService) attemptTimeout() time.Duration {
	if s.Config.Renewal.AttemptTimeout <= 0 {
		return 30 * time.Second
	}
	return s.Config.Renewal.AttemptTimeout
}
