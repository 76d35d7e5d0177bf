package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/NoorShal/lamma-backend-test/internal/dto"
	"github.com/NoorShal/lamma-backend-test/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// productShape is the set of field rules implied by a product type tag.
type productShape struct {
	priceRequired      bool
	variationsRequired bool
	keepsVariations    bool
}

var productShapes = map[model.ProductType]productShape{
	model.ProductTypeSimple:   {priceRequired: true},
	model.ProductTypeVariable: {variationsRequired: true, keepsVariations: true},
}

func shapeOf(t model.ProductType) (productShape, bool) {
	s, ok := productShapes[t]
	return s, ok
}

// validateCreate applies the type shape and the uniqueness rules to a create
// request. Tag-level checks (required, max, oneof) have already run in the handler.
func (s *productService) validateCreate(ctx context.Context, req dto.CreateProductRequest) error {
	fields := map[string]string{}

	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "required"
	}
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		fields["sku"] = "required"
	}

	shape, ok := shapeOf(model.ProductType(req.Type))
	if !ok {
		fields["type"] = "oneof"
	}
	if shape.priceRequired && req.Price == nil {
		fields["price"] = "required"
	}
	checkPrice(fields, "price", req.Price)
	if shape.variationsRequired && len(req.Variations) == 0 {
		fields["variations"] = "required"
	}
	if shape.keepsVariations {
		checkVariations(fields, req.Variations)
	}

	if sku != "" {
		taken, err := s.products.SKUTaken(ctx, sku, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			fields["sku"] = "unique"
		}
	}
	if shape.keepsVariations {
		if err := s.checkVariationSKUs(ctx, fields, req.Variations, uuid.Nil); err != nil {
			return err
		}
	}

	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

// validateUpdate checks the patch against the product's effective state after
// the patch is applied: a product that ends up simple must still have a price.
func (s *productService) validateUpdate(ctx context.Context, current *model.Product, req dto.UpdateProductRequest) error {
	fields := map[string]string{}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		fields["name"] = "required"
	}

	effectiveType := current.Type
	if req.Type != nil {
		effectiveType = model.ProductType(*req.Type)
	}
	shape, ok := shapeOf(effectiveType)
	if !ok {
		fields["type"] = "oneof"
	}

	hasPrice := current.Price != nil
	if req.Price.Set {
		hasPrice = req.Price.Value != nil
		checkPrice(fields, "price", req.Price.Value)
	}
	if shape.priceRequired && !hasPrice {
		fields["price"] = "required"
	}

	if req.SKU != nil {
		sku := strings.TrimSpace(*req.SKU)
		if sku == "" {
			fields["sku"] = "required"
		} else {
			taken, err := s.products.SKUTaken(ctx, sku, current.ID)
			if err != nil {
				return err
			}
			if taken {
				fields["sku"] = "unique"
			}
		}
	}

	if req.Variations.Present() {
		specs := *req.Variations.Value
		checkVariations(fields, specs)
		if err := s.checkVariationSKUs(ctx, fields, specs, current.ID); err != nil {
			return err
		}
	}

	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

func checkPrice(fields map[string]string, key string, price *decimal.Decimal) {
	if price != nil && price.IsNegative() {
		fields[key] = "min"
	}
}

// checkVariations enforces the per-variation rules that struct tags cannot
// express: blank-after-trim values, non-negative prices and SKUs distinct
// within the payload.
func checkVariations(fields map[string]string, specs []dto.VariationInput) {
	seen := make(map[string]int, len(specs))
	for i, spec := range specs {
		prefix := fmt.Sprintf("variations.%d", i)
		sku := strings.TrimSpace(spec.SKU)
		switch {
		case sku == "":
			fields[prefix+".sku"] = "required"
		default:
			if first, dup := seen[sku]; dup {
				fields[prefix+".sku"] = "distinct"
				fields[fmt.Sprintf("variations.%d.sku", first)] = "distinct"
			} else {
				seen[sku] = i
			}
		}
		if spec.Price == nil {
			fields[prefix+".price"] = "required"
		}
		checkPrice(fields, prefix+".price", spec.Price)
		if spec.Attributes == nil {
			fields[prefix+".attributes"] = "required"
		}
		for j, attr := range spec.Attributes {
			if strings.TrimSpace(attr.Name) == "" {
				fields[fmt.Sprintf("%s.attributes.%d.name", prefix, j)] = "required"
			}
			if strings.TrimSpace(attr.Value) == "" {
				fields[fmt.Sprintf("%s.attributes.%d.value", prefix, j)] = "required"
			}
		}
	}
}

// checkVariationSKUs flags SKUs already owned by another product.
func (s *productService) checkVariationSKUs(ctx context.Context, fields map[string]string, specs []dto.VariationInput, owner uuid.UUID) error {
	skus := make([]string, 0, len(specs))
	for _, spec := range specs {
		if sku := strings.TrimSpace(spec.SKU); sku != "" {
			skus = append(skus, sku)
		}
	}
	taken, err := s.variations.SKUsTaken(ctx, skus, owner)
	if err != nil {
		return err
	}
	if len(taken) == 0 {
		return nil
	}
	takenSet := make(map[string]bool, len(taken))
	for _, sku := range taken {
		takenSet[sku] = true
	}
	for i, spec := range specs {
		if takenSet[strings.TrimSpace(spec.SKU)] {
			fields[fmt.Sprintf("variations.%d.sku", i)] = "unique"
		}
	}
	return nil
}
