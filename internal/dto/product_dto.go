package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AttributeInput struct {
	Name  string `json:"name"  validate:"required,max=100"`
	Value string `json:"value" validate:"required,max=255"`
}

// VariationInput is one desired variation. Attributes must be present but may be
// an empty list, which clears every assignment of the variation.
type VariationInput struct {
	SKU        string           `json:"sku"        validate:"required,max=100"`
	Price      *decimal.Decimal `json:"price"      validate:"required"`
	Attributes []AttributeInput `json:"attributes" validate:"required,dive"`
}

type CreateProductRequest struct {
	Name        string           `json:"name"        validate:"required,max=255"`
	Description *string          `json:"description"`
	SKU         string           `json:"sku"         validate:"required,max=100"`
	Type        string           `json:"type"        validate:"required,oneof=simple variable"`
	Price       *decimal.Decimal `json:"price"`
	IsActive    *bool            `json:"is_active"`
	Variations  []VariationInput `json:"variations"  validate:"omitempty,dive"`
}

// UpdateProductRequest carries patch semantics: nil pointers and unset patches
// leave the stored value untouched. Variations present (even empty) triggers a
// full reconciliation; null is treated as absent.
type UpdateProductRequest struct {
	Name        *string                 `json:"name"        validate:"omitempty,min=1,max=255"`
	Description Patch[string]           `json:"description"`
	SKU         *string                 `json:"sku"         validate:"omitempty,min=1,max=100"`
	Type        *string                 `json:"type"        validate:"omitempty,oneof=simple variable"`
	Price       Patch[decimal.Decimal]  `json:"price"`
	IsActive    *bool                   `json:"is_active"`
	Variations  Patch[[]VariationInput] `json:"variations"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

// ProductFilter is bound from the query string. Prices stay strings until the
// query layer parses them so malformed input can be reported per field.
type ProductFilter struct {
	Type     string `form:"type"`
	Name     string `form:"name"`
	MinPrice string `form:"min_price"`
	MaxPrice string `form:"max_price"`
	PerPage  int    `form:"per_page"`
	Page     int    `form:"page"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VariationResponse struct {
	ID         string            `json:"id"`
	SKU        string            `json:"sku"`
	Price      string            `json:"price"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type ProductResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description *string             `json:"description"`
	SKU         string              `json:"sku"`
	Type        string              `json:"type"`
	Price       *string             `json:"price"`
	IsActive    bool                `json:"is_active"`
	Variations  []VariationResponse `json:"variations"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type PageMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	LastPage    int   `json:"last_page"`
}

type ProductListResponse struct {
	Data []ProductResponse `json:"data"`
	Meta PageMeta          `json:"meta"`
}
