package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusDeclined OfferStatus = "declined"
	OfferStatusCounter  OfferStatus = "counter"
)

// Offer is a priced proposal against a product or a bundle. Exactly one of
// ProductID/BundleID is set; the CHECK constraint backs up what the
// negotiation service enforces. Offers are never deleted, their status is
// the audit trail.
type Offer struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID   *uuid.UUID  `gorm:"type:uuid;index;check:chk_offer_subject,(product_id IS NULL) != (bundle_id IS NULL)" json:"product_id,omitempty"`
	Product     *Product    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"product,omitempty"`
	BundleID    *uuid.UUID  `gorm:"type:uuid;index" json:"bundle_id,omitempty"`
	Bundle      *Bundle     `gorm:"constraint:OnDelete:CASCADE;foreignKey:BundleID;references:ID" json:"bundle,omitempty"`
	BuyerID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"buyer_id"`
	Buyer       *User       `gorm:"constraint:OnDelete:CASCADE;foreignKey:BuyerID;references:ID" json:"buyer,omitempty"`
	Price       float64     `gorm:"column:price;not null" json:"price"`
	Description string      `gorm:"column:description;not null" json:"description"`
	Status      OfferStatus `gorm:"column:status;not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time   `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"not null" json:"updated_at"`
}

func (Offer) TableName() string { return "offer" }

func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (o *Offer) IsBundleOffer() bool { return o.BundleID != nil }
