package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedByID uuid.UUID                    `gorm:"type:uuid;not null;index" json:"created_by_id"`
	CreatedBy   *User                        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CreatedByID;references:ID" json:"created_by,omitempty"`
	Title       string                       `gorm:"column:title;not null" json:"title"`
	Category    string                       `gorm:"column:category;not null;index" json:"category"`
	Price       float64                      `gorm:"column:price;not null" json:"price"`
	Size        string                       `gorm:"column:size" json:"size"`
	Description string                       `gorm:"column:description" json:"description"`
	Age         string                       `gorm:"column:age" json:"age"`
	Gender      string                       `gorm:"column:gender" json:"gender"`
	Brand       string                       `gorm:"column:brand" json:"brand"`
	Images      datatypes.JSONSlice[string]  `gorm:"column:images" json:"images"`
	Status      string                       `gorm:"column:status;not null;default:'available';index" json:"status"`
	ReservedAt  *time.Time                   `gorm:"column:reserved_at" json:"reserved_at,omitempty"`
	CreatedAt   time.Time                    `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time                    `gorm:"not null" json:"updated_at"`
}

func (Product) TableName() string { return "product" }

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// FirstImage is what offer snapshots and thread previews show.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type Bundle struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedByID uuid.UUID    `gorm:"type:uuid;not null;index" json:"created_by_id"`
	CreatedBy   *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CreatedByID;references:ID" json:"created_by,omitempty"`
	TotalAmount float64      `gorm:"column:total_amount;not null" json:"total_amount"`
	Items       []BundleItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:BundleID;references:ID" json:"items,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

func (Bundle) TableName() string { return "bundle" }

func (b *Bundle) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BundleItem pins the price a product carried when it was added, so later
// product edits don't change the bundle total.
type BundleItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BundleID  uuid.UUID `gorm:"type:uuid;not null;index" json:"bundle_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProductID;references:ID" json:"product,omitempty"`
	Position  int       `gorm:"column:position;not null;default:0" json:"position"`
	Price     float64   `gorm:"column:price;not null" json:"price"`
	Quantity  int       `gorm:"column:quantity;not null;default:1" json:"quantity"`
}

func (BundleItem) TableName() string { return "bundle_item" }

func (bi *BundleItem) BeforeCreate(tx *gorm.DB) error {
	if bi.ID == uuid.Nil {
		bi.ID = uuid.New()
	}
	return nil
}
