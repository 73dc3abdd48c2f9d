package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/toddlr/toddlr-backend/internal/apperr"
	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/repos"
	"github.com/toddlr/toddlr-backend/internal/types"
)

type ProductService interface {
	CreateProduct(ctx context.Context, sellerID uuid.UUID, product *types.Product) (*types.Product, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*types.Product, error)
	ListProducts(ctx context.Context, filter repos.ProductListFilter) ([]*types.Product, error)
	// ReserveProduct stamps reserved_at; the storefront hides reserved
	// items for two days from that stamp.
	ReserveProduct(ctx context.Context, productID uuid.UUID) (*types.Product, error)
}

type productService struct {
	db          *gorm.DB
	log         *logger.Logger
	productRepo repos.ProductRepo
}

func NewProductService(db *gorm.DB, log *logger.Logger, productRepo repos.ProductRepo) ProductService {
	return &productService{
		db:          db,
		log:         log.With("service", "ProductService"),
		productRepo: productRepo,
	}
}

func (ps *productService) CreateProduct(ctx context.Context, sellerID uuid.UUID, product *types.Product) (*types.Product, error) {
	if product == nil {
		return nil, apperr.Invalid("No product given")
	}
	if product.Title == "" {
		return nil, apperr.Invalid("A title is required")
	}
	if product.Price <= 0 {
		return nil, apperr.Invalid("Price must be a positive number")
	}
	if product.Category == "" {
		return nil, apperr.Invalid("A category is required")
	}
	product.CreatedByID = sellerID
	if _, err := ps.productRepo.Create(ctx, nil, []*types.Product{product}); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create product", err)
	}
	return product, nil
}

func (ps *productService) GetProduct(ctx context.Context, productID uuid.UUID) (*types.Product, error) {
	product, err := ps.productRepo.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "retrieve product", err)
	}
	if product == nil {
		return nil, apperr.NotFound("Product not found")
	}
	return product, nil
}

func (ps *productService) ListProducts(ctx context.Context, filter repos.ProductListFilter) ([]*types.Product, error) {
	products, err := ps.productRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list products", err)
	}
	return products, nil
}

func (ps *productService) ReserveProduct(ctx context.Context, productID uuid.UUID) (*types.Product, error) {
	now := time.Now().UTC()
	if err := ps.productRepo.UpdateFields(ctx, nil, productID, map[string]interface{}{
		"status":      "reserved",
		"reserved_at": now,
	}); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "reserve product", err)
	}
	return ps.GetProduct(ctx, productID)
}
