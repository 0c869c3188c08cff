package testutil

import (
	"context"
	"time"

	"github.com/brewcycle/brewcycle/internal/cache"
	"github.com/brewcycle/brewcycle/internal/config"
	"github.com/brewcycle/brewcycle/internal/domain/product"
	"github.com/brewcycle/brewcycle/internal/lock"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/sentry"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/brewcycle/brewcycle/internal/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository fakes for testing
type Stores struct {
	SubscriptionRepo *InMemorySubscriptionStore
	OrderRepo        *InMemoryOrderStore
	ProductRepo      *InMemoryProductStore
	PreferenceRepo   *InMemoryPreferenceStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	publisher *InMemoryEventPublisher
	db        *MockPostgresClient
	locker    *lock.MemoryLocker
	cache     cache.Cache
	sentry    *sentry.Service
	logger    *logger.Logger
	config    *config.Configuration
	now       time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()
	s.logger = logger.NewNoopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.config = config.GetDefaultConfig()
	s.config.Sentry.Enabled = false
	s.ctx = SetupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		SubscriptionRepo: NewInMemorySubscriptionStore(),
		OrderRepo:        NewInMemoryOrderStore(),
		ProductRepo:      NewInMemoryProductStore(),
		PreferenceRepo:   NewInMemoryPreferenceStore(),
	}

	s.db = NewMockPostgresClient(s.logger)
	s.publisher = NewInMemoryEventPublisher()
	s.locker = lock.NewMemoryLocker()
	s.cache = cache.NewInMemoryCache(s.config, s.logger)
	s.sentry = sentry.NewSentryService(s.config, s.logger)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.SubscriptionRepo.Clear()
	s.stores.OrderRepo.Clear()
	s.stores.ProductRepo.Clear()
	s.stores.PreferenceRepo.Clear()
	s.publisher.Clear()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetPublisher returns the test event publisher
func (s *BaseServiceTestSuite) GetPublisher() *InMemoryEventPublisher {
	return s.publisher
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetLocker() *lock.MemoryLocker {
	return s.locker
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}

// CreateProduct stores a published catalog product priced at price
func (s *BaseServiceTestSuite) CreateProduct(id string, price string, flavors ...string) *product.Product {
	p := &product.Product{
		ID:                    id,
		Name:                  "Product " + id,
		SKU:                   "SKU-" + id,
		Price:                 decimal.RequireFromString(price),
		Unit:                  "bag",
		Images:                types.StringList{"https://cdn.example.com/" + id + ".png"},
		Stock:                 100,
		FlavorCharacteristics: flavors,
		Status:                types.StatusPublished,
		BaseModel:             types.GetDefaultBaseModel(s.ctx),
	}
	s.Require().NoError(s.stores.ProductRepo.Create(s.ctx, p))
	return p
}
