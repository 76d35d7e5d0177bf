package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/NoorShal/lamma-backend-test/internal/dto"
	"github.com/NoorShal/lamma-backend-test/internal/events"
	"github.com/NoorShal/lamma-backend-test/internal/repository/memrepo"
	"github.com/NoorShal/lamma-backend-test/internal/service"

	"github.com/shopspring/decimal"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type catalog struct {
	svc   service.ProductService
	store *memrepo.Store
	pub   *recordingPublisher
}

func newCatalog(t *testing.T, opts service.CatalogOptions) *catalog {
	t.Helper()
	store := memrepo.New()
	pub := &recordingPublisher{}
	svc := service.NewProductService(store.Products(), store.Variations(), store.Attributes(), pub, opts)
	return &catalog{svc: svc, store: store, pub: pub}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func attrs(pairs ...string) []dto.AttributeInput {
	out := make([]dto.AttributeInput, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, dto.AttributeInput{Name: pairs[i], Value: pairs[i+1]})
	}
	return out
}

func variation(sku, price string, pairs ...string) dto.VariationInput {
	return dto.VariationInput{SKU: sku, Price: dec(price), Attributes: attrs(pairs...)}
}

func simpleProduct(name, sku, price string) dto.CreateProductRequest {
	return dto.CreateProductRequest{Name: name, SKU: sku, Type: "simple", Price: dec(price)}
}

func tshirt() dto.CreateProductRequest {
	return dto.CreateProductRequest{
		Name: "T-Shirt",
		SKU:  "TSHIRT-001",
		Type: "variable",
		Variations: []dto.VariationInput{
			variation("TSHIRT-001-S-RED", "25.00", "size", "S", "color", "Red"),
		},
	}
}

func variationsBySKU(p *dto.ProductResponse) map[string]dto.VariationResponse {
	out := make(map[string]dto.VariationResponse, len(p.Variations))
	for _, v := range p.Variations {
		out[v.SKU] = v
	}
	return out
}
