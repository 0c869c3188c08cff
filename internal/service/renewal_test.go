package service

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brewcycle/brewcycle/internal/api/dto"
	"github.com/brewcycle/brewcycle/internal/cache"
	"github.com/brewcycle/brewcycle/internal/domain/order"
	"github.com/brewcycle/brewcycle/internal/domain/subscription"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/testutil"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RenewalServiceSuite struct {
	testutil.BaseServiceTestSuite
	service RenewalService
	params  ServiceParams
}

func TestRenewalService(t *testing.T) {
	suite.Run(t, new(RenewalServiceSuite))
}

func (s *RenewalServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
}

func (s *RenewalServiceSuite) setupService() {
	cfg := s.GetConfig()
	// product prices change within a test
	cfg.Cache.Enabled = false

	stores := s.GetStores()
	s.params = NewServiceParams(
		s.GetLogger(),
		cfg,
		s.GetDB(),
		stores.SubscriptionRepo,
		stores.OrderRepo,
		stores.ProductRepo,
		stores.PreferenceRepo,
		NewProductResolver(stores.ProductRepo, cache.NewInMemoryCache(cfg, s.GetLogger()), cfg, s.GetLogger()),
		s.GetPublisher(),
		s.GetLocker(),
		s.GetSentry(),
	)
	s.service = NewRenewalService(s.params)
}

// withProductCache rebuilds the service over a live product cache and returns the
// resolver so a test can warm it
func (s *RenewalServiceSuite) withProductCache() ProductResolver {
	cfg := s.GetConfig()
	cfg.Cache.Enabled = true
	resolver := NewProductResolver(s.GetStores().ProductRepo, cache.NewInMemoryCache(cfg, s.GetLogger()), cfg, s.GetLogger())
	s.params.ProductResolver = resolver
	s.service = NewRenewalService(s.params)
	return resolver
}

// createDueSub stores an active subscription priced at current catalog prices
func (s *RenewalServiceSuite) createDueSub(id string, freq types.Frequency, next time.Time, items ...subscription.LineItem) *subscription.Subscription {
	price := decimal.Zero
	lines := make([]subscription.PricingLine, 0, len(items))
	for _, item := range items {
		p, err := s.GetStores().ProductRepo.Get(s.GetContext(), item.ProductID)
		if err == nil {
			price = p.Price
		} else {
			price = decimal.NewFromInt(1)
		}
		lines = append(lines, subscription.PricingLine{UnitPrice: price, Quantity: item.Quantity})
	}
	breakdown, err := subscription.NewPricingCalculator(subscription.DefaultPricingPolicy()).ComputePrice(lines)
	s.Require().NoError(err)

	sub := &subscription.Subscription{
		ID:               id,
		UserID:           "user_" + id,
		Status:           types.SubscriptionStatusActive,
		Frequency:        freq,
		NextDeliveryDate: next,
		Products:         items,
		ShippingAddress: types.Address{
			Name:       "Ada Lovelace",
			Line1:      "12 Roast Street",
			City:       "London",
			PostalCode: "N1 9GU",
			Country:    "GB",
		},
		PaymentDetails: subscription.PaymentDetails{Method: "card", LastFour: "4242"},
		Price:          breakdown,
		History:        subscription.History{},
		Version:        1,
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), sub))
	return sub
}

func (s *RenewalServiceSuite) stored(id string) *subscription.Subscription {
	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	return sub
}

func detailFor(report *dto.RenewalReport, subscriptionID string) dto.RenewalDetail {
	detail, _ := lo.Find(report.Details, func(d dto.RenewalDetail) bool {
		return d.SubscriptionID == subscriptionID
	})
	return detail
}

func (s *RenewalServiceSuite) TestEndToEndMonthlyRenewal() {
	s.CreateProduct("prod_a", "5")
	s.CreateProduct("prod_b", "3")
	today := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	sub := s.createDueSub("subs_1", types.FrequencyMonthly, today,
		subscription.LineItem{ProductID: "prod_a", Quantity: 2},
		subscription.LineItem{ProductID: "prod_b", Quantity: 1},
	)

	report, err := s.service.ProcessRenewals(s.GetContext(), today)
	s.Require().NoError(err)
	s.Equal(1, report.Processed)
	s.Equal(0, report.Failed)
	s.Require().Len(report.Details, 1)

	detail := report.Details[0]
	s.Equal(types.RenewalStatusSuccess, detail.Status)
	s.NotEmpty(detail.OrderID)
	s.False(detail.FrequencyFallback)

	o, err := s.GetStores().OrderRepo.Get(s.GetContext(), detail.OrderID)
	s.Require().NoError(err)
	s.True(o.IsPaid)
	s.True(o.IsSubscription)
	s.Equal(sub.ID, o.SubscriptionID)
	s.True(o.TotalPrice.Equal(sub.Price.Total), "total %s, stored %s", o.TotalPrice, sub.Price.Total)
	s.True(o.TotalPrice.Equal(decimal.RequireFromString("13.455")))
	s.Len(o.LineItems, 2)
	s.Equal("Product prod_a", o.LineItems[0].Name)
	s.True(o.LineItems[0].UnitPrice.Equal(decimal.NewFromInt(5)))
	s.Equal("card", o.PaymentMethod)
	s.NotEmpty(o.OrderNumber)
	s.NotEmpty(o.IdempotencyKey)

	renewed := s.stored(sub.ID)
	s.Require().Len(renewed.History, 1)
	s.Equal(o.ID, renewed.History[0].OrderRef)
	s.Equal(types.HistoryStatusCompleted, renewed.History[0].Status)
	s.True(renewed.History[0].DeliveryDate.Equal(today))
	s.True(renewed.NextDeliveryDate.Equal(time.Date(2024, time.April, 15, 9, 0, 0, 0, time.UTC)))
	s.Equal(2, renewed.Version)

	s.Len(s.GetPublisher().EventsNamed(types.EventSubscriptionRenewed), 1)
}

func (s *RenewalServiceSuite) TestFailureIsIsolated() {
	s.CreateProduct("prod_a", "10")
	now := s.GetNow()
	first := s.createDueSub("subs_1", types.FrequencyWeekly, now.Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})
	broken := s.createDueSub("subs_2", types.FrequencyWeekly, now.Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_gone", Quantity: 1})
	third := s.createDueSub("subs_3", types.FrequencyWeekly, now.Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_a", Quantity: 3})

	report, err := s.service.ProcessRenewals(s.GetContext(), now)
	s.Require().NoError(err)
	s.Equal(2, report.Processed)
	s.Equal(1, report.Failed)
	s.Len(report.Details, 3)

	failed := detailFor(report, broken.ID)
	s.Equal(types.RenewalStatusFailed, failed.Status)
	s.Empty(failed.OrderID)
	s.Contains(failed.Error, "prod_gone")

	unchanged := s.stored(broken.ID)
	s.True(unchanged.NextDeliveryDate.Equal(broken.NextDeliveryDate))
	s.Empty(unchanged.History)
	s.Equal(broken.Version, unchanged.Version)

	for _, sub := range []*subscription.Subscription{first, third} {
		s.Equal(types.RenewalStatusSuccess, detailFor(report, sub.ID).Status)
		s.Len(s.stored(sub.ID).History, 1)
	}

	orders, err := s.GetStores().OrderRepo.ListBySubscription(s.GetContext(), broken.ID)
	s.Require().NoError(err)
	s.Empty(orders)

	failedEvents := s.GetPublisher().EventsNamed(types.EventSubscriptionRenewalFailed)
	s.Require().Len(failedEvents, 1)
	s.Equal(broken.ID, failedEvents[0].SubscriptionID)
}

func (s *RenewalServiceSuite) TestInactiveProductFailsRenewal() {
	p := s.CreateProduct("prod_a", "10")
	sub := s.createDueSub("subs_1", types.FrequencyMonthly, s.GetNow().Add(-time.Minute),
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})

	p.Status = types.StatusArchived
	s.Require().NoError(s.GetStores().ProductRepo.Update(s.GetContext(), p))

	report, err := s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Require().NoError(err)
	s.Equal(0, report.Processed)
	s.Equal(1, report.Failed)
	s.Equal("Product prod_a no longer exists or is inactive", report.Details[0].Error)
	s.Empty(s.stored(sub.ID).History)
}

func (s *RenewalServiceSuite) TestCatchUpKeepsCadence() {
	s.CreateProduct("prod_a", "10")
	now := time.Date(2024, time.June, 20, 12, 0, 0, 0, time.UTC)
	missed := now.AddDate(0, 0, -10)
	sub := s.createDueSub("subs_1", types.FrequencyWeekly, missed,
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})

	report, err := s.service.ProcessRenewals(s.GetContext(), now)
	s.Require().NoError(err)
	s.Equal(1, report.Processed)

	renewed := s.stored(sub.ID)
	s.True(renewed.NextDeliveryDate.Equal(missed.AddDate(0, 0, 7)))
	s.True(renewed.History[0].DeliveryDate.Equal(now))
}

func (s *RenewalServiceSuite) TestOnlyDueActiveSubscriptionsAreRenewed() {
	s.CreateProduct("prod_a", "10")
	now := s.GetNow()
	due := s.createDueSub("subs_due", types.FrequencyWeekly, now,
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})
	s.createDueSub("subs_future", types.FrequencyWeekly, now.Add(time.Hour),
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})
	paused := s.createDueSub("subs_paused", types.FrequencyWeekly, now.Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})
	paused.Status = types.SubscriptionStatusPaused
	s.Require().NoError(s.GetStores().SubscriptionRepo.Update(s.GetContext(), paused))

	report, err := s.service.ProcessRenewals(s.GetContext(), now)
	s.Require().NoError(err)
	s.Equal(1, report.Processed)
	s.Require().Len(report.Details, 1)
	s.Equal(due.ID, report.Details[0].SubscriptionID)
}

func (s *RenewalServiceSuite) TestNoDueSubscriptions() {
	report, err := s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Require().NoError(err)
	s.Equal(0, report.Processed)
	s.Equal(0, report.Failed)
	s.NotNil(report.Details)
	s.False(report.CompletedAt.Before(report.StartedAt))
}

func (s *RenewalServiceSuite) TestConcurrentEditAbortsRenewal() {
	s.CreateProduct("prod_a", "10")
	sub := s.createDueSub("subs_1", types.FrequencyWeekly, s.GetNow().Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})

	store := s.GetStores().SubscriptionRepo
	var fired atomic.Bool
	store.BeforeUpdate(func(*subscription.Subscription) {
		if !fired.CompareAndSwap(false, true) {
			return
		}
		// the owner pauses the subscription while the renewal is in flight
		edited, err := store.Get(context.Background(), sub.ID)
		s.Require().NoError(err)
		edited.Status = types.SubscriptionStatusPaused
		s.Require().NoError(store.Update(context.Background(), edited))
	})

	report, err := s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Require().NoError(err)
	s.Equal(0, report.Processed)
	s.Equal(1, report.Failed)
	s.Contains(report.Details[0].Error, "changed by someone else")

	stored := s.stored(sub.ID)
	s.Equal(types.SubscriptionStatusPaused, stored.Status)
	s.Empty(stored.History)
	s.True(stored.NextDeliveryDate.Equal(sub.NextDeliveryDate))
	s.Equal(2, stored.Version)
}

func (s *RenewalServiceSuite) TestRetryReusesOrder() {
	s.CreateProduct("prod_a", "10")
	sub := s.createDueSub("subs_1", types.FrequencyBiweekly, s.GetNow().Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})

	store := s.GetStores().SubscriptionRepo
	store.FailUpdate(sub.ID, ierr.NewError("connection reset").
		WithHint("Database is unavailable").
		Mark(ierr.ErrDatabase))

	report, err := s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Require().NoError(err)
	s.Equal(1, report.Failed)
	s.Equal("Database is unavailable", report.Details[0].Error)

	orders, err := s.GetStores().OrderRepo.ListBySubscription(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	s.Empty(s.stored(sub.ID).History)

	store.FailUpdate(sub.ID, nil)
	report, err = s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Require().NoError(err)
	s.Equal(1, report.Processed)
	s.Equal(orders[0].ID, report.Details[0].OrderID)

	orders, err = s.GetStores().OrderRepo.ListBySubscription(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.Len(orders, 1)

	renewed := s.stored(sub.ID)
	s.Require().Len(renewed.History, 1)
	s.Equal(orders[0].ID, renewed.History[0].OrderRef)
	s.True(renewed.NextDeliveryDate.Equal(sub.NextDeliveryDate.AddDate(0, 0, 14)))
}

func (s *RenewalServiceSuite) TestSecondRunDoesNotRenewAgain() {
	s.CreateProduct("prod_a", "10")
	now := s.GetNow()
	sub := s.createDueSub("subs_1", types.FrequencyMonthly, now.Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})

	_, err := s.service.ProcessRenewals(s.GetContext(), now)
	s.Require().NoError(err)
	report, err := s.service.ProcessRenewals(s.GetContext(), now)
	s.Require().NoError(err)
	s.Empty(report.Details)
	s.Len(s.stored(sub.ID).History, 1)
}

func (s *RenewalServiceSuite) TestRunLockHeld() {
	s.CreateProduct("prod_a", "10")
	sub := s.createDueSub("subs_1", types.FrequencyWeekly, s.GetNow().Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})

	lease, acquired, err := s.GetLocker().TryLock(s.GetContext(), renewalRunLockKey, time.Minute)
	s.Require().NoError(err)
	s.Require().True(acquired)

	report, err := s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Nil(report)
	s.True(ierr.IsInvalidOperation(err))
	s.Empty(s.stored(sub.ID).History)

	s.Require().NoError(lease.Release(s.GetContext()))
	report, err = s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Require().NoError(err)
	s.Equal(1, report.Processed)
}

func (s *RenewalServiceSuite) TestDueQueryFailureIsFatal() {
	s.GetStores().SubscriptionRepo.FailFindDue(ierr.NewError("connection refused").Mark(ierr.ErrDatabase))

	report, err := s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Nil(report)
	s.True(ierr.IsDatabase(err))

	// the lock is released so the next run can proceed
	s.GetStores().SubscriptionRepo.FailFindDue(nil)
	_, err = s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.NoError(err)
}

func (s *RenewalServiceSuite) TestRepriceAtRenewal() {
	p := s.CreateProduct("prod_a", "10")
	sub := s.createDueSub("subs_1", types.FrequencyWeekly, s.GetNow().Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_a", Quantity: 2})

	p.Price = decimal.NewFromInt(20)
	s.Require().NoError(s.GetStores().ProductRepo.Update(s.GetContext(), p))

	s.GetConfig().Renewal.PricingStrategy = types.PricingStrategyRepriceAtRenewal
	s.setupService()

	report, err := s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Require().NoError(err)
	s.Require().Equal(1, report.Processed)

	// base 40, discount 4, tax 5.4
	want := decimal.RequireFromString("41.4")
	o, err := s.GetStores().OrderRepo.Get(s.GetContext(), report.Details[0].OrderID)
	s.Require().NoError(err)
	s.True(o.TotalPrice.Equal(want), "got %s", o.TotalPrice)
	s.True(s.stored(sub.ID).Price.Total.Equal(want))
}

func (s *RenewalServiceSuite) TestLockedPriceIgnoresCatalogChange() {
	p := s.CreateProduct("prod_a", "10")
	sub := s.createDueSub("subs_1", types.FrequencyWeekly, s.GetNow().Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_a", Quantity: 2})

	p.Price = decimal.NewFromInt(20)
	s.Require().NoError(s.GetStores().ProductRepo.Update(s.GetContext(), p))

	report, err := s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Require().NoError(err)

	o, err := s.GetStores().OrderRepo.Get(s.GetContext(), report.Details[0].OrderID)
	s.Require().NoError(err)
	s.True(o.TotalPrice.Equal(sub.Price.Total))
	s.True(o.LineItems[0].UnitPrice.Equal(decimal.NewFromInt(20)))
}

func (s *RenewalServiceSuite) TestUnknownFrequencyFallsBackToMonthly() {
	s.CreateProduct("prod_a", "10")
	next := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	sub := s.createDueSub("subs_1", types.Frequency("fortnightly"), next,
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})

	report, err := s.service.ProcessRenewals(s.GetContext(), next)
	s.Require().NoError(err)
	s.Equal(1, report.Processed)
	s.True(report.Details[0].FrequencyFallback)
	s.True(s.stored(sub.ID).NextDeliveryDate.Equal(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)))
}

func (s *RenewalServiceSuite) TestManyDueSubscriptions() {
	s.CreateProduct("prod_a", "10")
	now := s.GetNow()
	for i := 0; i < 20; i++ {
		s.createDueSub(types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION), types.FrequencyWeekly, now.Add(-time.Hour),
			subscription.LineItem{ProductID: "prod_a", Quantity: 1})
	}

	report, err := s.service.ProcessRenewals(s.GetContext(), now)
	s.Require().NoError(err)
	s.Equal(20, report.Processed)
	s.Equal(20, s.GetDB().TxCount())

	orderIDs := lo.Uniq(lo.Map(report.Details, func(d dto.RenewalDetail, _ int) string { return d.OrderID }))
	s.Len(orderIDs, 20)
}

func (s *RenewalServiceSuite) TestReportJSON() {
	s.CreateProduct("prod_a", "10")
	s.createDueSub("subs_1", types.FrequencyWeekly, s.GetNow().Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_missing", Quantity: 1})

	report, err := s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Require().NoError(err)

	raw, err := json.Marshal(report)
	s.Require().NoError(err)

	var body map[string]any
	s.Require().NoError(json.Unmarshal(raw, &body))
	s.EqualValues(0, body["processed"])
	s.EqualValues(1, body["failed"])
	details := body["details"].([]any)
	s.Require().Len(details, 1)
	detail := details[0].(map[string]any)
	s.Equal("subs_1", detail["subscription_id"])
	s.Equal("failed", detail["status"])
	s.NotContains(detail, "order_id")
	s.Contains(detail["error"], "prod_missing")
}

func (s *RenewalServiceSuite) TestArchivedProductFailsRenewalDespiteCachedEntry() {
	resolver := s.withProductCache()
	p := s.CreateProduct("prod_a", "10")
	sub := s.createDueSub("subs_1", types.FrequencyMonthly, s.GetNow().Add(-time.Minute),
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})

	_, err := resolver.Get(s.GetContext(), "prod_a")
	s.Require().NoError(err)

	archived := *p
	archived.Status = types.StatusArchived
	s.Require().NoError(s.GetStores().ProductRepo.Update(s.GetContext(), &archived))

	cached, err := resolver.Get(s.GetContext(), "prod_a")
	s.Require().NoError(err)
	s.True(cached.IsAvailable(), "cache still holds the published entry")

	report, err := s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Require().NoError(err)
	s.Equal(0, report.Processed)
	s.Equal(1, report.Failed)
	s.Equal("Product prod_a no longer exists or is inactive", report.Details[0].Error)
	s.Empty(s.stored(sub.ID).History)

	// the renewal read refreshed the cached entry
	refreshed, err := resolver.Get(s.GetContext(), "prod_a")
	s.Require().NoError(err)
	s.False(refreshed.IsAvailable())
}

func (s *RenewalServiceSuite) TestRepriceUsesCatalogPriceOverCachedEntry() {
	s.GetConfig().Renewal.PricingStrategy = types.PricingStrategyRepriceAtRenewal
	resolver := s.withProductCache()
	p := s.CreateProduct("prod_a", "10")
	sub := s.createDueSub("subs_1", types.FrequencyWeekly, s.GetNow().Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_a", Quantity: 2})

	_, err := resolver.Get(s.GetContext(), "prod_a")
	s.Require().NoError(err)

	p.Price = decimal.NewFromInt(20)
	s.Require().NoError(s.GetStores().ProductRepo.Update(s.GetContext(), p))

	report, err := s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Require().NoError(err)
	s.Require().Equal(1, report.Processed)

	// base 40, discount 4, tax 5.4
	want := decimal.RequireFromString("41.4")
	o, err := s.GetStores().OrderRepo.Get(s.GetContext(), report.Details[0].OrderID)
	s.Require().NoError(err)
	s.True(o.TotalPrice.Equal(want), "got %s", o.TotalPrice)
	s.True(o.LineItems[0].UnitPrice.Equal(decimal.NewFromInt(20)))
	s.True(s.stored(sub.ID).Price.Total.Equal(want))
}

func (s *RenewalServiceSuite) TestConcurrentOrderCreateReusesExistingOrder() {
	s.CreateProduct("prod_a", "10")
	sub := s.createDueSub("subs_1", types.FrequencyWeekly, s.GetNow().Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})

	orders := s.GetStores().OrderRepo
	var (
		winner      *order.Order
		winnerErr   error
		createDepth int
	)
	// another writer inserts the same delivery between our lookup and our insert
	orders.OnCreate(func(ctx context.Context, o *order.Order) {
		if winner != nil {
			return
		}
		createDepth = testutil.TxDepth(ctx)
		w := *o
		w.ID = "ord_winner"
		w.OrderNumber = ""
		winner = &w
		winnerErr = orders.Create(context.Background(), winner)
	})

	report, err := s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Require().NoError(err)
	s.Require().NoError(winnerErr)
	s.Equal(1, report.Processed)
	s.Equal("ord_winner", report.Details[0].OrderID)

	// the insert ran in its own savepoint inside the renewal transaction
	s.Equal(2, createDepth)

	list, err := orders.ListBySubscription(s.GetContext(), sub.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)

	renewed := s.stored(sub.ID)
	s.Require().Len(renewed.History, 1)
	s.Equal("ord_winner", renewed.History[0].OrderRef)
}

func (s *RenewalServiceSuite) TestRunKeepsLockPastTTL() {
	s.CreateProduct("prod_a", "10")
	s.createDueSub("subs_1", types.FrequencyWeekly, s.GetNow().Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})
	s.GetConfig().Renewal.LockTTL = 60 * time.Millisecond

	var takenDuringRun atomic.Bool
	s.GetStores().SubscriptionRepo.BeforeUpdate(func(*subscription.Subscription) {
		time.Sleep(200 * time.Millisecond)
		_, acquired, _ := s.GetLocker().TryLock(context.Background(), renewalRunLockKey, time.Minute)
		takenDuringRun.Store(acquired)
	})

	report, err := s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Require().NoError(err)
	s.Equal(1, report.Processed)
	s.False(takenDuringRun.Load(), "lock expired while the run was still going")

	_, acquired, err := s.GetLocker().TryLock(s.GetContext(), renewalRunLockKey, time.Minute)
	s.Require().NoError(err)
	s.True(acquired, "lock released after the run")
}

func (s *RenewalServiceSuite) TestRenewalRecordsSystemWriter() {
	s.CreateProduct("prod_a", "10")
	sub := s.createDueSub("subs_1", types.FrequencyWeekly, s.GetNow().Add(-time.Hour),
		subscription.LineItem{ProductID: "prod_a", Quantity: 1})
	s.Require().Equal(types.DefaultUserID, sub.UpdatedBy)

	// the caller's ctx carries a user, the write is still attributed to the system
	report, err := s.service.ProcessRenewals(s.GetContext(), s.GetNow())
	s.Require().NoError(err)
	s.Require().Equal(1, report.Processed)

	renewed := s.stored(sub.ID)
	s.Equal(types.SystemUserID, renewed.UpdatedBy)
	s.Equal(types.DefaultUserID, renewed.CreatedBy)

	o, err := s.GetStores().OrderRepo.Get(s.GetContext(), report.Details[0].OrderID)
	s.Require().NoError(err)
	s.Equal(types.SystemUserID, o.UpdatedBy)
}
