package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductType tags a product as simple (single price) or variable (priced variations).
type ProductType string

const (
	ProductTypeSimple   ProductType = "simple"
	ProductTypeVariable ProductType = "variable"
)

// ProductTypes lists every accepted type tag, in display order.
func ProductTypes() []ProductType {
	return []ProductType{ProductTypeSimple, ProductTypeVariable}
}

// Valid reports whether t is a known type tag.
func (t ProductType) Valid() bool {
	return t == ProductTypeSimple || t == ProductTypeVariable
}

// Label returns the human readable name of the type.
func (t ProductType) Label() string {
	switch t {
	case ProductTypeSimple:
		return "Simple Product"
	case ProductTypeVariable:
		return "Variable Product"
	default:
		return string(t)
	}
}

// Product owns its variations exclusively: deleting it cascades to
// product_variations and, through them, to product_variation_attributes.
// IsActive carries no gorm default so that an explicit false is persisted.
type Product struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string           `gorm:"index;not null"`
	Description *string          `gorm:"type:text"`
	SKU         string           `gorm:"column:sku;uniqueIndex;not null"`
	Type        ProductType      `gorm:"type:varchar(16);index;not null"`
	Price       *decimal.Decimal `gorm:"type:decimal(10,2);index"`
	IsActive    bool             `gorm:"index;not null"`
	CreatedAt   time.Time        `gorm:"index"`
	UpdatedAt   time.Time

	Variations []Variation `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Product) IsSimple() bool   { return p.Type == ProductTypeSimple }
func (p *Product) IsVariable() bool { return p.Type == ProductTypeVariable }
