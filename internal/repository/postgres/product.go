package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/brewcycle/brewcycle/internal/domain/product"
	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/logger"
	"github.com/brewcycle/brewcycle/internal/postgres"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/lib/pq"
)

const productColumns = `id, name, sku, price, unit, images, stock, flavor_characteristics, flavor_intensity,
	status, created_at, updated_at, created_by, updated_by`

type productRepository struct {
	db     postgres.IClient
	logger *logger.Logger
}

func NewProductRepository(db postgres.IClient, logger *logger.Logger) product.Repository {
	return &productRepository{db: db, logger: logger}
}

func (r *productRepository) Create(ctx context.Context, p *product.Product) error {
	span := StartRepositorySpan(ctx, "product", "create", map[string]interface{}{
		"product_id": p.ID,
	})
	defer FinishSpan(span)

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES (
			:id, :name, :sku, :price, :unit, :images, :stock, :flavor_characteristics, :flavor_intensity,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.Querier(ctx).NamedExecContext(ctx, query, p); err != nil {
		SetSpanError(span, err)
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A product with this id already exists").
				WithReportableDetails(map[string]any{"product_id": p.ID}).
				Mark(ierr.ErrAlreadyExists)
		}
		return databaseError(err, "Failed to create product")
	}

	SetSpanSuccess(span)
	return nil
}

func (r *productRepository) Get(ctx context.Context, id string) (*product.Product, error) {
	span := StartRepositorySpan(ctx, "product", "get", map[string]interface{}{
		"product_id": id,
	})
	defer FinishSpan(span)

	var p product.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND status != $2`
	if err := r.db.Querier(ctx).GetContext(ctx, &p, query, id, types.StatusDeleted); err != nil {
		SetSpanError(span, err)
		return nil, notFoundOr(err, "product", id)
	}

	SetSpanSuccess(span)
	return &p, nil
}

func (r *productRepository) Update(ctx context.Context, p *product.Product) error {
	span := StartRepositorySpan(ctx, "product", "update", map[string]interface{}{
		"product_id": p.ID,
	})
	defer FinishSpan(span)

	p.Touch(ctx, time.Now().UTC())

	query := `
		UPDATE products SET
			name = :name,
			sku = :sku,
			price = :price,
			unit = :unit,
			images = :images,
			stock = :stock,
			flavor_characteristics = :flavor_characteristics,
			flavor_intensity = :flavor_intensity,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id`

	result, err := r.db.Querier(ctx).NamedExecContext(ctx, query, p)
	if err != nil {
		SetSpanError(span, err)
		return databaseError(err, "Failed to update product")
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("product not found").
			WithHintf("Product %s not found", p.ID).
			Mark(ierr.ErrNotFound)
	}

	SetSpanSuccess(span)
	return nil
}

func (r *productRepository) List(ctx context.Context, filter *types.ProductFilter) ([]*product.Product, error) {
	if filter == nil {
		filter = &types.ProductFilter{QueryFilter: types.DefaultQueryFilter}
	}

	span := StartRepositorySpan(ctx, "product", "list", nil)
	defer FinishSpan(span)

	where := &whereBuilder{}
	where.add("status = $%d", filter.GetStatus())
	if len(filter.ProductIDs) > 0 {
		where.add("id = ANY($%d)", pq.Array(filter.ProductIDs))
	}

	// catalog order is stable so ranking ties are reproducible
	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at %s, id ASC LIMIT %d OFFSET %d`,
		productColumns,
		where.String(),
		orderDirection(filter.GetOrder()),
		filter.GetLimit(),
		filter.GetOffset(),
	)

	var products []*product.Product
	if err := r.db.Querier(ctx).SelectContext(ctx, &products, query, where.args...); err != nil {
		SetSpanError(span, err)
		return nil, databaseError(err, "Failed to list products")
	}

	SetSpanSuccess(span)
	return products, nil
}
