package service

import (
	"testing"

	"github.com/brewcycle/brewcycle/internal/domain/product"
	"github.com/brewcycle/brewcycle/internal/domain/subscription"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/testutil"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/stretchr/testify/suite"
)

type ProductResolverSuite struct {
	testutil.BaseServiceTestSuite
	resolver ProductResolver
}

func TestProductResolver(t *testing.T) {
	suite.Run(t, new(ProductResolverSuite))
}

func (s *ProductResolverSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.GetConfig().ProductLookup.BreakerMaxFailures = 2
	s.resolver = NewProductResolver(s.GetStores().ProductRepo, s.GetCache(), s.GetConfig(), s.GetLogger())
}

func (s *ProductResolverSuite) TestGetCachesProduct() {
	s.CreateProduct("prod_a", "12.50")

	first, err := s.resolver.Get(s.GetContext(), "prod_a")
	s.Require().NoError(err)
	second, err := s.resolver.Get(s.GetContext(), "prod_a")
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Equal("12.5", second.Price.String())
	s.Equal(1, s.GetStores().ProductRepo.GetCalls())
}

func (s *ProductResolverSuite) TestGetMissingProduct() {
	_, err := s.resolver.Get(s.GetContext(), "prod_missing")
	s.Require().Error(err)
	s.True(ierr.IsProductNotFound(err))
	s.True(ierr.IsNotFound(err))
}

func (s *ProductResolverSuite) TestMissingProductsDoNotTripBreaker() {
	s.CreateProduct("prod_a", "10")
	for i := 0; i < 5; i++ {
		_, err := s.resolver.Get(s.GetContext(), "prod_missing")
		s.True(ierr.IsProductNotFound(err))
	}

	p, err := s.resolver.Get(s.GetContext(), "prod_a")
	s.Require().NoError(err)
	s.Equal("prod_a", p.ID)
}

func (s *ProductResolverSuite) TestCatalogFailuresOpenBreaker() {
	store := s.GetStores().ProductRepo
	s.CreateProduct("prod_a", "10")
	store.FailGet("prod_a", ierr.NewError("catalog timeout").Mark(ierr.ErrDatabase))

	for i := 0; i < 2; i++ {
		_, err := s.resolver.Get(s.GetContext(), "prod_a")
		s.True(ierr.IsDatabase(err))
	}
	calls := store.GetCalls()

	// open: fails fast without reaching the catalog
	store.FailGet("prod_a", nil)
	_, err := s.resolver.Get(s.GetContext(), "prod_a")
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrSystem))
	s.Equal("Product catalog is temporarily unavailable", ierr.DisplayMessage(err))
	s.Equal(calls, store.GetCalls())
}

func (s *ProductResolverSuite) TestResolveDeduplicates() {
	s.CreateProduct("prod_a", "10")
	s.CreateProduct("prod_b", "4")

	products, err := s.resolver.Resolve(s.GetContext(), []string{"prod_a", "prod_b", "prod_a"})
	s.Require().NoError(err)
	s.Len(products, 2)
	s.Equal(2, s.GetStores().ProductRepo.GetCalls())
}

func (s *ProductResolverSuite) TestResolveStopsAtFirstMissing() {
	s.CreateProduct("prod_a", "10")

	products, err := s.resolver.Resolve(s.GetContext(), []string{"prod_a", "prod_gone", "prod_c"})
	s.Nil(products)
	s.True(ierr.IsProductNotFound(err))
	s.Contains(ierr.DisplayMessage(err), "prod_gone")
}

func (s *ProductResolverSuite) TestPriceLinesRejectsUnavailable() {
	p := s.CreateProduct("prod_a", "10")
	archived := *p
	archived.Status = types.StatusArchived
	items := subscription.LineItems{{ProductID: "prod_a", Quantity: 2}}

	lines, err := priceLines(items, map[string]*product.Product{"prod_a": p})
	s.Require().NoError(err)
	s.Require().Len(lines, 1)
	s.True(lines[0].UnitPrice.Equal(p.Price))
	s.Equal(2, lines[0].Quantity)

	_, err = priceLines(items, map[string]*product.Product{"prod_a": &archived})
	s.True(ierr.IsProductNotFound(err))

	_, err = priceLines(items, map[string]*product.Product{})
	s.True(ierr.IsProductNotFound(err))
}

func (s *ProductResolverSuite) TestResolveFreshSkipsCachedEntry() {
	store := s.GetStores().ProductRepo
	p := s.CreateProduct("prod_a", "10")

	_, err := s.resolver.Get(s.GetContext(), "prod_a")
	s.Require().NoError(err)

	repriced := *p
	repriced.Price = repriced.Price.Add(repriced.Price)
	s.Require().NoError(store.Update(s.GetContext(), &repriced))

	products, err := s.resolver.ResolveFresh(s.GetContext(), []string{"prod_a", "prod_a"})
	s.Require().NoError(err)
	s.Equal("20", products["prod_a"].Price.String())
	s.Equal(2, store.GetCalls())

	// later cached reads see the refreshed entry
	cached, err := s.resolver.Get(s.GetContext(), "prod_a")
	s.Require().NoError(err)
	s.Equal("20", cached.Price.String())
	s.Equal(2, store.GetCalls())
}

func (s *ProductResolverSuite) TestResolveFreshEvictsRemovedProduct() {
	store := s.GetStores().ProductRepo
	p := s.CreateProduct("prod_a", "10")

	_, err := s.resolver.Get(s.GetContext(), "prod_a")
	s.Require().NoError(err)

	deleted := *p
	deleted.Status = types.StatusDeleted
	s.Require().NoError(store.Update(s.GetContext(), &deleted))

	_, err = s.resolver.ResolveFresh(s.GetContext(), []string{"prod_a"})
	s.True(ierr.IsProductNotFound(err))

	_, err = s.resolver.Get(s.GetContext(), "prod_a")
	s.True(ierr.IsProductNotFound(err), "cached entry was dropped")
}
