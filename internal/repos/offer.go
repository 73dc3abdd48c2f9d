package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/types"
)

type OfferRepo interface {
	Create(ctx context.Context, tx *gorm.DB, offers []*types.Offer) ([]*types.Offer, error)
	// GetByID joins the offer with its subject (product or bundle) so the
	// negotiation service can resolve the seller without extra queries.
	GetByID(ctx context.Context, tx *gorm.DB, offerID uuid.UUID) (*types.Offer, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, offerIDs []uuid.UUID) ([]*types.Offer, error)
	// UpdateNegotiation is the single writer for status/price/description.
	UpdateNegotiation(ctx context.Context, tx *gorm.DB, offerID uuid.UUID, status types.OfferStatus, price float64, description string) error
}

type offerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOfferRepo(db *gorm.DB, baseLog *logger.Logger) OfferRepo {
	return &offerRepo{db: db, log: baseLog.With("repo", "OfferRepo")}
}

func (or *offerRepo) Create(ctx context.Context, tx *gorm.DB, offers []*types.Offer) ([]*types.Offer, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	if len(offers) == 0 {
		return []*types.Offer{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

func (or *offerRepo) GetByID(ctx context.Context, tx *gorm.DB, offerID uuid.UUID) (*types.Offer, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	var offer types.Offer
	if err := transaction.WithContext(ctx).
		Preload("Product").
		Preload("Product.CreatedBy").
		Preload("Bundle").
		Preload("Bundle.CreatedBy").
		Preload("Bundle.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("bundle_item.position ASC")
		}).
		Preload("Bundle.Items.Product").
		Preload("Bundle.Items.Product.CreatedBy").
		Where("id = ?", offerID).
		First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

func (or *offerRepo) GetByIDs(ctx context.Context, tx *gorm.DB, offerIDs []uuid.UUID) ([]*types.Offer, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	var results []*types.Offer
	if len(offerIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Preload("Product").
		Where("id IN ?", offerIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (or *offerRepo) UpdateNegotiation(ctx context.Context, tx *gorm.DB, offerID uuid.UUID, status types.OfferStatus, price float64, description string) error {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Offer{}).
		Where("id = ?", offerID).
		Updates(map[string]interface{}{
			"status":      status,
			"price":       price,
			"description": description,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
