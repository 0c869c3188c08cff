package repository

import (
	"github.com/brewcycle/brewcycle/internal/domain/order"
	"github.com/brewcycle/brewcycle/internal/domain/preference"
	"github.com/brewcycle/brewcycle/internal/domain/product"
	"github.com/brewcycle/brewcycle/internal/domain/subscription"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/postgres"
	postgresRepo "github.com/brewcycle/brewcycle/internal/repository/postgres"
)

type RepositoryType string

const (
	PostgresRepo RepositoryType = "postgres"
)

func NewSubscriptionRepository(db postgres.IClient, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewOrderRepository(db postgres.IClient, logger *logger.Logger) order.Repository {
	return postgresRepo.NewOrderRepository(db, logger)
}

func NewProductRepository(db postgres.IClient, logger *logger.Logger) product.Repository {
	return postgresRepo.NewProductRepository(db, logger)
}

func NewPreferenceRepository(db postgres.IClient, logger *logger.Logger) preference.Repository {
	return postgresRepo.NewPreferenceRepository(db, logger)
}
