package service

import (
	"github.com/NoorShal/lamma-backend-test/internal/dto"
	"github.com/NoorShal/lamma-backend-test/internal/model"
)

// productToResponse converts a product with its loaded tree to the API shape.
// Prices are rendered with exactly two decimals.
func productToResponse(p *model.Product) *dto.ProductResponse {
	resp := &dto.ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		SKU:         p.SKU,
		Type:        string(p.Type),
		IsActive:    p.IsActive,
		Variations:  make([]dto.VariationResponse, 0, len(p.Variations)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Price != nil {
		s := p.Price.StringFixed(2)
		resp.Price = &s
	}
	for i := range p.Variations {
		v := &p.Variations[i]
		resp.Variations = append(resp.Variations, dto.VariationResponse{
			ID:         v.ID.String(),
			SKU:        v.SKU,
			Price:      v.Price.StringFixed(2),
			Attributes: v.AttributeMap(),
			CreatedAt:  v.CreatedAt,
			UpdatedAt:  v.UpdatedAt,
		})
	}
	return resp
}
