package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NoorShal/lamma-backend-test/internal/dto"
	"github.com/NoorShal/lamma-backend-test/internal/model"
	"github.com/NoorShal/lamma-backend-test/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VariationReconciler makes the persisted variations of a product match a
// desired list. Variations are matched by SKU, never by id: changing a SKU in
// the payload deletes the old row and creates a new one with fresh id and
// timestamps, while its attribute values are rebuilt identically.
type VariationReconciler struct {
	variations repository.VariationRepository
	registry   *AttributeRegistry
}

func NewVariationReconciler(variations repository.VariationRepository, registry *AttributeRegistry) *VariationReconciler {
	return &VariationReconciler{variations: variations, registry: registry}
}

// ReconcileOnCreate creates every spec as a new variation of a freshly created
// product. It is a no-op unless the product is variable and specs is non-empty.
func (r *VariationReconciler) ReconcileOnCreate(ctx context.Context, tx *gorm.DB, product *model.Product, specs []dto.VariationInput) error {
	if !product.IsVariable() || len(specs) == 0 {
		return nil
	}
	for i, spec := range specs {
		if _, err := r.createVariation(ctx, tx, product.ID, spec); err != nil {
			return variationConflict(i, err)
		}
	}
	return nil
}

// ReconcileOnUpdate runs whenever an update payload carries a variations list,
// regardless of product type. An empty list deletes every variation.
func (r *VariationReconciler) ReconcileOnUpdate(ctx context.Context, tx *gorm.DB, product *model.Product, specs []dto.VariationInput) error {
	existing, err := r.variations.ListByProductTx(tx, product.ID)
	if err != nil {
		return err
	}

	bySKU := make(map[string]model.Variation, len(existing))
	for _, v := range existing {
		bySKU[v.SKU] = v
	}

	desired := make(map[string]bool, len(specs))
	for _, spec := range specs {
		desired[strings.TrimSpace(spec.SKU)] = true
	}

	var stale []uuid.UUID
	for _, v := range existing {
		if !desired[v.SKU] {
			stale = append(stale, v.ID)
			delete(bySKU, v.SKU)
		}
	}
	if err := r.variations.DeleteTx(tx, stale); err != nil {
		return err
	}

	for i, spec := range specs {
		sku := strings.TrimSpace(spec.SKU)
		current, ok := bySKU[sku]
		if !ok {
			created, err := r.createVariation(ctx, tx, product.ID, spec)
			if err != nil {
				return variationConflict(i, err)
			}
			bySKU[sku] = *created
			continue
		}

		current.SKU = sku
		if spec.Price != nil {
			current.Price = roundPrice(*spec.Price)
		}
		if err := r.variations.UpdateTx(tx, &current); err != nil {
			return variationConflict(i, err)
		}
		if err := r.SyncAssignments(ctx, tx, &current, spec.Attributes); err != nil {
			return err
		}
		bySKU[sku] = current
	}
	return nil
}

// SyncAssignments replaces the variation's attribute values with exactly attrs.
// When attrs names the same attribute twice the later entry wins; attributes the
// registry skips are left out of the final set.
func (r *VariationReconciler) SyncAssignments(ctx context.Context, tx *gorm.DB, variation *model.Variation, attrs []dto.AttributeInput) error {
	if len(attrs) == 0 {
		return r.variations.ReplaceAssignmentsTx(tx, variation.ID, nil)
	}

	values := make(map[uuid.UUID]string, len(attrs))
	for _, attr := range attrs {
		id, value, err := r.registry.FindOrCreate(ctx, tx, attr.Name, attr.Value)
		if errors.Is(err, ErrAttributeSkipped) {
			continue
		}
		if err != nil {
			return err
		}
		values[id] = value
	}
	return r.variations.ReplaceAssignmentsTx(tx, variation.ID, values)
}

func (r *VariationReconciler) createVariation(ctx context.Context, tx *gorm.DB, productID uuid.UUID, spec dto.VariationInput) (*model.Variation, error) {
	v := &model.Variation{
		ProductID: productID,
		SKU:       strings.TrimSpace(spec.SKU),
	}
	if spec.Price != nil {
		v.Price = roundPrice(*spec.Price)
	}
	if err := r.variations.CreateTx(tx, v); err != nil {
		return nil, err
	}
	if err := r.SyncAssignments(ctx, tx, v, spec.Attributes); err != nil {
		return nil, err
	}
	return v, nil
}

// variationConflict attributes a unique violation raised while writing the
// i-th variation to that variation's sku, so a race with another product's
// variation is not reported against the product sku.
func variationConflict(i int, err error) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	return &ConflictError{
		Field:   fmt.Sprintf("variations.%d.sku", i),
		Message: "variation sku has already been taken",
	}
}

func roundPrice(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
