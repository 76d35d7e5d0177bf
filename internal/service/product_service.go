package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/NoorShal/lamma-backend-test/internal/dto"
	"github.com/NoorShal/lamma-backend-test/internal/events"
	"github.com/NoorShal/lamma-backend-test/internal/model"
	"github.com/NoorShal/lamma-backend-test/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProductService defines the business logic contract for the catalog.
type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CatalogOptions tunes the service; zero values pick the defaults.
type CatalogOptions struct {
	AttributeMode AttributeMode
	Paging        Paging
}

type productService struct {
	products   repository.ProductRepository
	variations repository.VariationRepository
	reconciler *VariationReconciler
	publisher  events.Publisher
	paging     Paging
}

func NewProductService(
	products repository.ProductRepository,
	variations repository.VariationRepository,
	attributes repository.AttributeRepository,
	publisher events.Publisher,
	opts CatalogOptions,
) ProductService {
	registry := NewAttributeRegistry(attributes, opts.AttributeMode)
	return &productService{
		products:   products,
		variations: variations,
		reconciler: NewVariationReconciler(variations, registry),
		publisher:  publisher,
		paging:     opts.Paging.withDefaults(),
	}
}

// ── Create ────────────────────────────────────────────────────────────────────
// One transaction: product row, variations (variable only), assignments, reload.

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := s.validateCreate(ctx, req); err != nil {
		return nil, err
	}

	p := &model.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		SKU:         strings.TrimSpace(req.SKU),
		Type:        model.ProductType(req.Type),
		IsActive:    true,
	}
	if req.Price != nil {
		price := roundPrice(*req.Price)
		p.Price = &price
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	var created *model.Product
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		if err := s.products.CreateTx(tx, p); err != nil {
			return err
		}
		if err := s.reconciler.ReconcileOnCreate(ctx, tx, p, req.Variations); err != nil {
			return err
		}
		loaded, err := s.products.FindByIDTx(tx, p.ID)
		if err != nil {
			return err
		}
		created = loaded
		return nil
	})
	if err != nil {
		return nil, s.writeFailure(ctx, "create product", err, uuid.Nil, req)
	}

	s.publish(ctx, events.ProductCreated, created)
	return productToResponse(created), nil
}

// ── Read ──────────────────────────────────────────────────────────────────────

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	q, page, perPage, err := BuildProductQuery(filter, s.paging)
	if err != nil {
		return nil, err
	}

	list, total, err := s.products.List(ctx, q)
	if err != nil {
		return nil, err
	}

	data := make([]dto.ProductResponse, 0, len(list))
	for i := range list {
		data = append(data, *productToResponse(&list[i]))
	}
	return &dto.ProductListResponse{
		Data: data,
		Meta: dto.PageMeta{
			Total:       total,
			CurrentPage: page,
			PerPage:     perPage,
			LastPage:    lastPage(total, perPage),
		},
	}, nil
}

// ── Update ────────────────────────────────────────────────────────────────────
// Patch semantics: only fields present in req change. A present variations
// list (even empty) triggers a full reconciliation.

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	current, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.validateUpdate(ctx, current, req); err != nil {
		return nil, err
	}

	var updated *model.Product
	err = runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		p, err := s.products.LockByIDTx(tx, id)
		if err != nil {
			return err
		}
		applyPatch(p, req)
		if err := s.products.UpdateTx(tx, p); err != nil {
			return err
		}
		if req.Variations.Present() {
			if err := s.reconciler.ReconcileOnUpdate(ctx, tx, p, *req.Variations.Value); err != nil {
				return err
			}
		}
		loaded, err := s.products.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		updated = loaded
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.writeFailure(ctx, "update product", err, id, req)
	}

	s.publish(ctx, events.ProductUpdated, updated)
	return productToResponse(updated), nil
}

func applyPatch(p *model.Product, req dto.UpdateProductRequest) {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description.Set {
		p.Description = req.Description.Value
	}
	if req.SKU != nil {
		p.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.Type != nil {
		p.Type = model.ProductType(*req.Type)
	}
	if req.Price.Set {
		p.Price = nil
		if req.Price.Value != nil {
			price := roundPrice(*req.Price.Value)
			p.Price = &price
		}
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

// ── Delete ────────────────────────────────────────────────────────────────────

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	var deleted *model.Product
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		if _, err := s.products.LockByIDTx(tx, id); err != nil {
			return err
		}
		// Loaded before the cascade so the event reports what was removed.
		p, err := s.products.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		n, err := s.products.DeleteTx(tx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		deleted = p
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return s.writeFailure(ctx, "delete product", err, id, nil)
	}

	s.publish(ctx, events.ProductDeleted, deleted)
	return nil
}

// writeFailure classifies an error raised inside a write transaction.
// Validation and conflict errors pass through, a bare unique violation becomes
// a ConflictError on sku, anything else is logged with full context and replaced by a PersistenceError.
func (s *productService) writeFailure(ctx context.Context, op string, err error, id uuid.UUID, data any) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	var cerr *ConflictError
	if errors.As(err, &cerr) {
		log.Ctx(ctx).Warn().Str("op", op).Str("field", cerr.Field).Msg("unique constraint violated during write")
		return cerr
	}
	// Any other unique violation comes from the products table.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		log.Ctx(ctx).Warn().Err(err).Str("op", op).Msg("unique constraint violated during write")
		return &ConflictError{Field: "sku", Message: "sku has already been taken"}
	}

	ev := log.Ctx(ctx).Error().Err(err).Str("op", op).Interface("data", data)
	if id != uuid.Nil {
		ev = ev.Str("product_id", id.String())
	}
	ev.Msg("failed to " + op)
	return &PersistenceError{Op: op, Err: err}
}

func (s *productService) publish(ctx context.Context, t events.Type, p *model.Product) {
	if s.publisher == nil || p == nil {
		return
	}
	e := events.Event{
		Type:       t,
		ProductID:  p.ID.String(),
		SKU:        p.SKU,
		Variations: len(p.Variations),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("event", string(t)).Str("product_id", e.ProductID).Msg("failed to publish catalog event")
	}
}
