package service

import (
	"context"
	"time"

	"github.com/brewcycle/brewcycle/internal/api/dto"
	"github.com/brewcycle/brewcycle/internal/domain/recommendation"
	"github.com/brewcycle/brewcycle/internal/domain/subscription"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/publisher"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/samber/lo"
)

// recommendationLimit is how many products GetRecommendations returns
const recommendationLimit = 5

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	ListSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error)
	UpdateSubscription(ctx context.Context, id string, req dto.UpdateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	PauseSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	ResumeSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)

	// GetRecommendations ranks the active catalog against the caller's stored preferences
	GetRecommendations(ctx context.Context) (*dto.RecommendationsResponse, error)
}

type subscriptionService struct {
	ServiceParams
	pricing *subscription.PricingCalculator
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
		pricing:       params.pricingCalculator(),
	}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)
	if req.UserID != "" && req.UserID != userID {
		if !types.IsAdmin(ctx) {
			return nil, ierr.NewError("cannot subscribe on behalf of another user").
				WithHint("You can only create subscriptions for yourself").
				Mark(ierr.ErrPermissionDenied)
		}
		userID = req.UserID
	}

	sub := req.ToSubscription(ctx, userID)

	price, err := s.priceFor(ctx, sub.Products)
	if err != nil {
		return nil, err
	}
	sub.Price = price
	sub.NextDeliveryDate = types.NextDeliveryDate(time.Now().UTC(), sub.Frequency)

	if err := s.SubRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"frequency", sub.Frequency,
		"next_delivery_date", sub.NextDeliveryDate,
	)
	s.publish(ctx, types.EventSubscriptionCreated, sub)

	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.getOwned(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	// customers only ever see their own subscriptions
	if !types.IsAdmin(ctx) {
		filter.UserID = types.GetUserID(ctx)
	}

	subs, err := s.SubRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.SubRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(subs, func(sub *subscription.Subscription, _ int) *dto.SubscriptionResponse {
		return &dto.SubscriptionResponse{Subscription: sub}
	})
	resp := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

// UpdateSubscription applies req to a copy of the stored subscription. Changing the
// products or the cadence reprices it, and a new cadence restarts the schedule from now.
func (s *subscriptionService) UpdateSubscription(ctx context.Context, id string, req dto.UpdateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.getOwned(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.Status == types.SubscriptionStatusCancelled {
		return nil, ierr.NewError("subscription is cancelled").
			WithHint("Cancelled subscriptions cannot be changed").
			WithReportableDetails(map[string]any{"subscription_id": id}).
			Mark(ierr.ErrInvalidOperation)
	}

	productsChanged := req.ProductsChanged(sub)
	frequencyChanged := req.FrequencyChanged(sub)

	next := req.Apply(ctx, sub)
	if productsChanged || frequencyChanged {
		price, err := s.priceFor(ctx, next.Products)
		if err != nil {
			return nil, err
		}
		next.Price = price
	}
	if frequencyChanged {
		next.NextDeliveryDate = types.NextDeliveryDate(time.Now().UTC(), next.Frequency)
	}

	if err := s.SubRepo.Update(ctx, next); err != nil {
		return nil, err
	}

	s.Logger.Infow("updated subscription",
		"subscription_id", next.ID,
		"products_changed", productsChanged,
		"frequency_changed", frequencyChanged,
	)
	s.publish(ctx, types.EventSubscriptionUpdated, next)

	return &dto.SubscriptionResponse{Subscription: next}, nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	return s.transition(ctx, id, types.SubscriptionStatusCancelled, types.EventSubscriptionCancelled)
}

func (s *subscriptionService) PauseSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	return s.transition(ctx, id, types.SubscriptionStatusPaused, types.EventSubscriptionPaused)
}

func (s *subscriptionService) ResumeSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	return s.transition(ctx, id, types.SubscriptionStatusActive, types.EventSubscriptionResumed)
}

// transition moves a subscription to status. A resumed subscription whose delivery
// date passed while it was paused is rescheduled one cadence from now rather than
// being renewed for the missed cycles.
func (s *subscriptionService) transition(ctx context.Context, id string, status types.SubscriptionStatus, eventName string) (*dto.SubscriptionResponse, error) {
	sub, err := s.getOwned(ctx, id)
	if err != nil {
		return nil, err
	}

	if !sub.Status.CanTransitionTo(status) {
		return nil, ierr.NewErrorf("cannot move subscription from %s to %s", sub.Status, status).
			WithHintf("Subscription is %s and cannot be made %s", sub.Status, status).
			WithReportableDetails(map[string]any{
				"subscription_id": id,
				"status":          sub.Status,
				"requested":       status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	next := sub.Copy()
	next.Status = status
	next.UpdatedAt = now
	next.UpdatedBy = types.GetUserID(ctx)
	if status == types.SubscriptionStatusActive && next.NextDeliveryDate.Before(now) {
		next.NextDeliveryDate = types.NextDeliveryDate(now, next.Frequency)
	}

	if err := s.SubRepo.Update(ctx, next); err != nil {
		return nil, err
	}

	s.Logger.Infow("subscription status changed",
		"subscription_id", id,
		"from", sub.Status,
		"to", status,
	)
	s.publish(ctx, eventName, next)

	return &dto.SubscriptionResponse{Subscription: next}, nil
}

func (s *subscriptionService) GetRecommendations(ctx context.Context) (*dto.RecommendationsResponse, error) {
	userID := types.GetUserID(ctx)
	prefs, err := s.PreferenceRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return nil, ierr.NewError("no flavor preferences").
			WithHint("Set your flavor preferences to get recommendations").
			Mark(ierr.ErrValidation)
	}

	products, err := s.ProductRepo.List(ctx, &types.ProductFilter{
		QueryFilter: types.QueryFilter{Limit: lo.ToPtr(500)},
		Status:      lo.ToPtr(types.StatusPublished),
	})
	if err != nil {
		return nil, err
	}

	ranked := recommendation.SortByMatch(products, recommendation.FromFlavorPreferences(prefs))
	if len(ranked) > recommendationLimit {
		ranked = ranked[:recommendationLimit]
	}
	return &dto.RecommendationsResponse{Items: ranked}, nil
}

// getOwned loads a subscription the caller may act on: their own, or any for an admin
func (s *subscriptionService) getOwned(ctx context.Context, id string) (*subscription.Subscription, error) {
	if id == "" {
		return nil, ierr.NewError("subscription ID is required").
			WithHint("Please provide a valid subscription ID").
			Mark(ierr.ErrValidation)
	}

	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !types.IsAdmin(ctx) && sub.UserID != types.GetUserID(ctx) {
		return nil, ierr.NewErrorf("user %s does not own subscription %s", types.GetUserID(ctx), id).
			WithHint("You do not have access to this subscription").
			Mark(ierr.ErrPermissionDenied)
	}
	return sub, nil
}

// priceFor prices items at current catalog prices
func (s *subscriptionService) priceFor(ctx context.Context, items subscription.LineItems) (subscription.PriceBreakdown, error) {
	products, err := s.ProductResolver.Resolve(ctx, lo.Map(items, func(item subscription.LineItem, _ int) string {
		return item.ProductID
	}))
	if err != nil {
		return subscription.PriceBreakdown{}, err
	}

	lines, err := priceLines(items, products)
	if err != nil {
		return subscription.PriceBreakdown{}, err
	}
	return s.pricing.ComputePrice(lines)
}

func (s *subscriptionService) publish(ctx context.Context, name string, sub *subscription.Subscription) {
	event, err := publisher.NewEvent(name, sub.UserID, sub.ID, map[string]any{
		"status":             sub.Status,
		"frequency":          sub.Frequency,
		"next_delivery_date": sub.NextDeliveryDate,
		"version":            sub.Version,
	})
	if err == nil {
		err = s.EventPublisher.Publish(ctx, event)
	}
	if err != nil {
		s.Logger.Errorw("failed to publish subscription event",
			"event_name", name,
			"subscription_id", sub.ID,
			"error", err,
		)
	}
}
