package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/types"
)

type BundleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, bundles []*types.Bundle) ([]*types.Bundle, error)
	// GetByID preloads items in position order plus each item's product and
	// seller; callers rely on Items[0] being the bundle's first product.
	GetByID(ctx context.Context, tx *gorm.DB, bundleID uuid.UUID) (*types.Bundle, error)
	ListBySeller(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID, limit int) ([]*types.Bundle, error)
}

type bundleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBundleRepo(db *gorm.DB, baseLog *logger.Logger) BundleRepo {
	return &bundleRepo{db: db, log: baseLog.With("repo", "BundleRepo")}
}

func (br *bundleRepo) Create(ctx context.Context, tx *gorm.DB, bundles []*types.Bundle) ([]*types.Bundle, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	if len(bundles) == 0 {
		return []*types.Bundle{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&bundles).Error; err != nil {
		return nil, err
	}
	return bundles, nil
}

func (br *bundleRepo) GetByID(ctx context.Context, tx *gorm.DB, bundleID uuid.UUID) (*types.Bundle, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	var bundle types.Bundle
	if err := transaction.WithContext(ctx).
		Preload("CreatedBy").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("bundle_item.position ASC")
		}).
		Preload("Items.Product").
		Preload("Items.Product.CreatedBy").
		Where("id = ?", bundleID).
		First(&bundle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bundle, nil
}

func (br *bundleRepo) ListBySeller(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID, limit int) ([]*types.Bundle, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var results []*types.Bundle
	if err := transaction.WithContext(ctx).
		Preload("Items").
		Where("created_by_id = ?", sellerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
