package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/brewcycle/brewcycle/internal/config"
	"github.com/brewcycle/brewcycle/internal/domain/product"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/postgres"
	"github.com/brewcycle/brewcycle/internal/repository"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/shopspring/decimal"
)

type seedProduct struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	SKU                   string          `json:"sku"`
	Price                 decimal.Decimal `json:"price"`
	Unit                  string          `json:"unit"`
	Images                []string        `json:"images"`
	Stock                 int             `json:"stock"`
	FlavorCharacteristics []string        `json:"flavor_characteristics"`
	FlavorIntensity       *int            `json:"flavor_intensity"`
}

// SeedProducts loads PRODUCTS_FILE and creates or refreshes each product.
// Seeded products are published.
func SeedProducts() error {
	path := os.Getenv("PRODUCTS_FILE")
	if path == "" {
		return fmt.Errorf("PRODUCTS_FILE is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var seeds []seedProduct
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewProductRepository(db, log)
	ctx := types.SetUserID(context.Background(), types.SystemUserID)

	created, updated := 0, 0
	for _, s := range seeds {
		p := &product.Product{
			ID:                    s.ID,
			Name:                  s.Name,
			SKU:                   s.SKU,
			Price:                 s.Price,
			Unit:                  s.Unit,
			Images:                s.Images,
			Stock:                 s.Stock,
			FlavorCharacteristics: s.FlavorCharacteristics,
			FlavorIntensity:       s.FlavorIntensity,
			Status:                types.StatusPublished,
			BaseModel:             types.GetDefaultBaseModel(ctx),
		}
		if p.ID == "" {
			p.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRODUCT)
		}

		err := repo.Create(ctx, p)
		switch {
		case err == nil:
			created++
		case ierr.IsAlreadyExists(err):
			if err := repo.Update(ctx, p); err != nil {
				return err
			}
			updated++
		default:
			return err
		}
		log.Infow("seeded product", "product_id", p.ID, "name", p.Name)
	}

	fmt.Printf("Seeded %d products (%d created, %d updated)\n", len(seeds), created, updated)
	return nil
}
