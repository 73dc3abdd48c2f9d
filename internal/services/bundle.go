package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/toddlr/toddlr-backend/internal/apperr"
	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/repos"
	"github.com/toddlr/toddlr-backend/internal/types"
)

type BundleService interface {
	CreateBundle(ctx context.Context, sellerID uuid.UUID, productIDs []uuid.UUID) (*types.Bundle, error)
	GetBundle(ctx context.Context, bundleID uuid.UUID) (*types.Bundle, error)
	ListBundles(ctx context.Context, sellerID uuid.UUID) ([]*types.Bundle, error)
}

type bundleService struct {
	db          *gorm.DB
	log         *logger.Logger
	bundleRepo  repos.BundleRepo
	productRepo repos.ProductRepo
}

func NewBundleService(db *gorm.DB, log *logger.Logger, bundleRepo repos.BundleRepo, productRepo repos.ProductRepo) BundleService {
	return &bundleService{
		db:          db,
		log:         log.With("service", "BundleService"),
		bundleRepo:  bundleRepo,
		productRepo: productRepo,
	}
}

func (bs *bundleService) CreateBundle(ctx context.Context, sellerID uuid.UUID, productIDs []uuid.UUID) (*types.Bundle, error) {
	if len(productIDs) == 0 {
		return nil, apperr.Invalid("A bundle needs at least one product")
	}
	products, err := bs.productRepo.GetByIDs(ctx, nil, productIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load bundle products", err)
	}
	if len(products) != len(productIDs) {
		return nil, apperr.NotFound("One or more bundle products not found")
	}
	byID := make(map[uuid.UUID]*types.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	bundle := &types.Bundle{CreatedByID: sellerID}
	for i, id := range productIDs {
		p := byID[id]
		bundle.Items = append(bundle.Items, types.BundleItem{
			ProductID: p.ID,
			Position:  i,
			Price:     p.Price,
			Quantity:  1,
		})
		bundle.TotalAmount += p.Price
	}
	if _, err := bs.bundleRepo.Create(ctx, nil, []*types.Bundle{bundle}); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create bundle", err)
	}
	return bs.GetBundle(ctx, bundle.ID)
}

func (bs *bundleService) GetBundle(ctx context.Context, bundleID uuid.UUID) (*types.Bundle, error) {
	bundle, err := bs.bundleRepo.GetByID(ctx, nil, bundleID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "retrieve bundle", err)
	}
	if bundle == nil {
		return nil, apperr.NotFound("Bundle not found")
	}
	return bundle, nil
}

func (bs *bundleService) ListBundles(ctx context.Context, sellerID uuid.UUID) ([]*types.Bundle, error) {
	bundles, err := bs.bundleRepo.ListBySeller(ctx, nil, sellerID, 0)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list bundles", err)
	}
	return bundles, nil
}
