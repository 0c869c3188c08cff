package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/brewcycle/brewcycle/internal/api"
	"github.com/brewcycle/brewcycle/internal/api/cron"
	v1 "github.com/brewcycle/brewcycle/internal/api/v1"
	"github.com/brewcycle/brewcycle/internal/cache"
	"github.com/brewcycle/brewcycle/internal/config"
	"github.com/brewcycle/brewcycle/internal/domain/product"
	"github.com/brewcycle/brewcycle/internal/lock"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/postgres"
	"github.com/brewcycle/brewcycle/internal/publisher"
	"github.com/brewcycle/brewcycle/internal/pubsub"
	"github.com/brewcycle/brewcycle/internal/pubsub/memory"
	pubsubRouter "github.com/brewcycle/brewcycle/internal/pubsub/router"
	"github.com/brewcycle/brewcycle/internal/repository"
	"github.com/brewcycle/brewcycle/internal/sentry"
	"github.com/brewcycle/brewcycle/internal/service"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/brewcycle/brewcycle/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title BrewCycle API
// @version 1.0
// @description Coffee subscription service
// @BasePath /v1
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key

func init() {
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	opts = append(opts,
		fx.Invoke(validator.NewValidator),
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Postgres
			postgres.NewDB,
			provideDBClient,

			// Run lock
			lock.NewLocker,

			// Events
			memory.NewPubSub,
			provideSubscriber,
			publisher.NewEventPublisher,
			pubsubRouter.NewRouter,

			// Repositories
			repository.NewSubscriptionRepository,
			repository.NewOrderRepository,
			repository.NewProductRepository,
			repository.NewPreferenceRepository,
		),
		sentry.Module(),
	)

	opts = append(opts,
		fx.Provide(
			provideProductResolver,
			service.NewServiceParams,

			service.NewSubscriptionService,
			service.NewRenewalService,
			service.NewPreferenceService,
		),
	)

	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideDBClient(db *postgres.DB, sentrySvc *sentry.Service, log *logger.Logger) postgres.IClient {
	return postgres.NewSentryClient(db, sentrySvc, log)
}

// memory pubsub doubles as the watermill subscriber for the event router
func provideSubscriber(ps pubsub.PubSub) message.Subscriber {
	return ps
}

func provideProductResolver(
	repo product.Repository,
	c cache.Cache,
	cfg *config.Configuration,
	log *logger.Logger,
) service.ProductResolver {
	return service.NewProductResolver(repo, c, cfg, log)
}

func provideHandlers(
	log *logger.Logger,
	subscriptionService service.SubscriptionService,
	renewalService service.RenewalService,
	preferenceService service.PreferenceService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(log),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, log),
		Preference:   v1.NewPreferenceHandler(preferenceService, log),
		CronRenewal:  cron.NewRenewalHandler(renewalService, log),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, log)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	router *pubsubRouter.Router,
	subscriber message.Subscriber,
	eventPublisher publisher.EventPublisher,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		registerMigrations(lc, cfg, db, log)
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, subscriber, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := eventPublisher.Close(); err != nil {
				log.Errorw("failed to close event publisher", "error", err)
			}
			db.Close()
			return nil
		},
	})
}

func registerMigrations(lc fx.Lifecycle, cfg *config.Configuration, db *postgres.DB, log *logger.Logger) {
	if !cfg.Postgres.AutoMigrate {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			applied, err := db.Migrate(ctx)
			if err != nil {
				return err
			}
			log.Infow("database migrations applied", "versions", applied)
			return nil
		},
	})
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}

// startMessageRouter consumes subscription events and records them in the service log
func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	subscriber message.Subscriber,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	if !cfg.Events.Enabled {
		return
	}

	router.AddNoPublishHandler("subscription_event_log", cfg.Events.Topic, subscriber,
		func(msg *message.Message) error {
			var event types.Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				// malformed payloads are dropped rather than retried
				log.Errorw("discarding malformed event", "message_uuid", msg.UUID, "error", err)
				return nil
			}
			log.Infow("subscription event",
				"event_id", event.ID,
				"event_name", event.EventName,
				"user_id", event.UserID,
				"subscription_id", event.SubscriptionID,
				"timestamp", event.Timestamp,
			)
			return nil
		},
	)

	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := router.Run(runCtx); err != nil {
					log.Errorw("message router failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return router.Close()
		},
	})
}
