package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttributeDefinition is a named dimension of variation ("size", "color").
// Definitions are shared by every variation and are never deleted by the catalog.
type AttributeDefinition struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AttributeDefinition) TableName() string { return "product_attributes" }

func (a *AttributeDefinition) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AttributeAssignment is the value a variation holds for one attribute definition.
// The (variation, attribute) pair is unique.
type AttributeAssignment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VariationID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_variation_attribute;not null"`
	AttributeID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_variation_attribute;index;not null"`
	Value       string    `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Attribute *AttributeDefinition `gorm:"foreignKey:AttributeID;constraint:OnDelete:CASCADE"`
}

func (AttributeAssignment) TableName() string { return "product_variation_attributes" }

func (a *AttributeAssignment) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// NormalizeAttributeName is the canonical form used for storage and comparison.
func NormalizeAttributeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
