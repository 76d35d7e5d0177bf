package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Variation is one purchasable unit of a variable product.
// SKU is unique across all products, not only within its parent.
type Variation struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID       `gorm:"type:uuid;index;not null"`
	SKU       string          `gorm:"column:sku;uniqueIndex;not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Assignments []AttributeAssignment `gorm:"foreignKey:VariationID;constraint:OnDelete:CASCADE"`
}

func (Variation) TableName() string { return "product_variations" }

func (v *Variation) BeforeCreate(_ *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// AttributeMap flattens the loaded assignments into name → value.
// Assignments whose definition was not preloaded are skipped.
func (v *Variation) AttributeMap() map[string]string {
	out := make(map[string]string, len(v.Assignments))
	for _, a := range v.Assignments {
		if a.Attribute == nil {
			continue
		}
		out[a.Attribute.Name] = a.Value
	}
	return out
}
