// Package memrepo is an in-memory implementation of the catalog repositories.
// It mirrors the relational constraints the service relies on (unique SKUs,
// unique attribute names, cascade deletes) and ignores the tx argument, which
// the service passes as nil when no database is configured.
package memrepo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/NoorShal/lamma-backend-test/internal/model"
	"github.com/NoorShal/lamma-backend-test/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store holds every table. Use Products, Variations and Attributes to obtain
// the repository views.
type Store struct {
	mu          sync.Mutex
	products    map[uuid.UUID]*model.Product
	variations  map[uuid.UUID]*model.Variation
	attributes  map[uuid.UUID]*model.AttributeDefinition
	assignments map[uuid.UUID]map[uuid.UUID]*model.AttributeAssignment // variation → attribute → row
	now         time.Time

	// AttributeErr, when non-nil, is consulted by FindOrCreateTx; a non-nil
	// result is returned as the persistence failure for that name.
	AttributeErr func(name string) error
	// VariationErr, when non-nil, is consulted by the variation CreateTx.
	VariationErr func(sku string) error
}

func New() *Store {
	return &Store{
		products:    make(map[uuid.UUID]*model.Product),
		variations:  make(map[uuid.UUID]*model.Variation),
		attributes:  make(map[uuid.UUID]*model.AttributeDefinition),
		assignments: make(map[uuid.UUID]map[uuid.UUID]*model.AttributeAssignment),
		now:         time.Date(2025, 7, 3, 16, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so "newest first" ordering is deterministic.
func (s *Store) tick() time.Time {
	s.now = s.now.Add(time.Millisecond)
	return s.now
}

func (s *Store) Products() repository.ProductRepository     { return productView{s} }
func (s *Store) Variations() repository.VariationRepository { return variationView{s} }
func (s *Store) Attributes() repository.AttributeRepository { return attributeView{s} }

// ── Inspection helpers ───────────────────────────────────────────────────────

// AttributeNames returns every stored definition name, sorted.
func (s *Store) AttributeNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.attributes))
	for _, a := range s.attributes {
		names = append(names, a.Name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) VariationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.variations)
}

func (s *Store) AssignmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, byAttr := range s.assignments {
		n += len(byAttr)
	}
	return n
}

// ── Products ─────────────────────────────────────────────────────────────────

type productView struct{ s *Store }

func (v productView) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	return v.FindByIDTx(nil, id)
}

func (v productView) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := v.s.loadTree(p)
	return &out, nil
}

func (v productView) LockByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *p
	out.Variations = nil
	return &out, nil
}

func (v productView) SKUTaken(_ context.Context, sku string, exclude uuid.UUID) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for id, p := range v.s.products {
		if p.SKU == sku && id != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (v productView) List(_ context.Context, q repository.ProductQuery) ([]model.Product, int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	var matched []*model.Product
	for _, p := range v.s.products {
		if q.Type != nil && p.Type != *q.Type {
			continue
		}
		if q.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Name)) {
			continue
		}
		if q.MinPrice != nil && (p.Price == nil || p.Price.LessThan(*q.MinPrice)) {
			continue
		}
		if q.MaxPrice != nil && (p.Price == nil || p.Price.GreaterThan(*q.MaxPrice)) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := min(q.Offset, len(matched))
	end := len(matched)
	if q.Limit > 0 {
		end = min(start+q.Limit, len(matched))
	}
	out := make([]model.Product, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, v.s.loadTree(p))
	}
	return out, total, nil
}

func (v productView) CreateTx(_ *gorm.DB, p *model.Product) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, other := range v.s.products {
		if other.SKU == p.SKU {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	ts := v.s.tick()
	p.CreatedAt, p.UpdatedAt = ts, ts
	row := *p
	row.Variations = nil
	v.s.products[p.ID] = &row
	return nil
}

func (v productView) UpdateTx(_ *gorm.DB, p *model.Product) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for id, other := range v.s.products {
		if other.SKU == p.SKU && id != p.ID {
			return gorm.ErrDuplicatedKey
		}
	}
	p.UpdatedAt = v.s.tick()
	row := *p
	row.Variations = nil
	v.s.products[p.ID] = &row
	return nil
}

func (v productView) DeleteTx(_ *gorm.DB, id uuid.UUID) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.products[id]; !ok {
		return 0, nil
	}
	delete(v.s.products, id)
	for vid, vr := range v.s.variations {
		if vr.ProductID == id {
			v.s.deleteVariation(vid)
		}
	}
	return 1, nil
}

func (v productView) DB() *gorm.DB { return nil }

// ── Variations ───────────────────────────────────────────────────────────────

type variationView struct{ s *Store }

func (v variationView) SKUsTaken(_ context.Context, skus []string, exclude uuid.UUID) ([]string, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	want := make(map[string]bool, len(skus))
	for _, sku := range skus {
		want[sku] = true
	}
	var taken []string
	for _, vr := range v.s.variations {
		if want[vr.SKU] && vr.ProductID != exclude {
			taken = append(taken, vr.SKU)
		}
	}
	sort.Strings(taken)
	return taken, nil
}

func (v variationView) ListByProductTx(_ *gorm.DB, productID uuid.UUID) ([]model.Variation, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.variationsOf(productID, false), nil
}

func (v variationView) CreateTx(_ *gorm.DB, vr *model.Variation) error {
	if v.s.VariationErr != nil {
		if err := v.s.VariationErr(vr.SKU); err != nil {
			return err
		}
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.products[vr.ProductID]; !ok {
		return errors.New("memrepo: foreign key violation on product_id")
	}
	for _, other := range v.s.variations {
		if other.SKU == vr.SKU {
			return gorm.ErrDuplicatedKey
		}
	}
	if vr.ID == uuid.Nil {
		vr.ID = uuid.New()
	}
	ts := v.s.tick()
	vr.CreatedAt, vr.UpdatedAt = ts, ts
	row := *vr
	row.Assignments = nil
	v.s.variations[vr.ID] = &row
	return nil
}

func (v variationView) UpdateTx(_ *gorm.DB, vr *model.Variation) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for id, other := range v.s.variations {
		if other.SKU == vr.SKU && id != vr.ID {
			return gorm.ErrDuplicatedKey
		}
	}
	vr.UpdatedAt = v.s.tick()
	row := *vr
	row.Assignments = nil
	v.s.variations[vr.ID] = &row
	return nil
}

func (v variationView) DeleteTx(_ *gorm.DB, ids []uuid.UUID) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, id := range ids {
		v.s.deleteVariation(id)
	}
	return nil
}

func (v variationView) ReplaceAssignmentsTx(_ *gorm.DB, variationID uuid.UUID, values map[uuid.UUID]string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.variations[variationID]; !ok {
		return errors.New("memrepo: foreign key violation on variation_id")
	}
	current := v.s.assignments[variationID]
	next := make(map[uuid.UUID]*model.AttributeAssignment, len(values))
	for attrID, value := range values {
		if _, ok := v.s.attributes[attrID]; !ok {
			return errors.New("memrepo: foreign key violation on attribute_id")
		}
		ts := v.s.tick()
		if row, ok := current[attrID]; ok {
			row.Value = value
			row.UpdatedAt = ts
			next[attrID] = row
			continue
		}
		next[attrID] = &model.AttributeAssignment{
			ID:          uuid.New(),
			VariationID: variationID,
			AttributeID: attrID,
			Value:       value,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
	}
	v.s.assignments[variationID] = next
	return nil
}

// ── Attributes ───────────────────────────────────────────────────────────────

type attributeView struct{ s *Store }

func (v attributeView) FindOrCreateTx(_ *gorm.DB, name string) (*model.AttributeDefinition, error) {
	if v.s.AttributeErr != nil {
		if err := v.s.AttributeErr(name); err != nil {
			return nil, err
		}
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, a := range v.s.attributes {
		if a.Name == name {
			out := *a
			return &out, nil
		}
	}
	ts := v.s.tick()
	a := &model.AttributeDefinition{ID: uuid.New(), Name: name, CreatedAt: ts, UpdatedAt: ts}
	v.s.attributes[a.ID] = a
	out := *a
	return &out, nil
}

// ── internals (caller holds s.mu) ────────────────────────────────────────────

func (s *Store) deleteVariation(id uuid.UUID) {
	delete(s.variations, id)
	delete(s.assignments, id)
}

func (s *Store) variationsOf(productID uuid.UUID, withAssignments bool) []model.Variation {
	var out []model.Variation
	for _, vr := range s.variations {
		if vr.ProductID != productID {
			continue
		}
		row := *vr
		row.Assignments = nil
		if withAssignments {
			for _, a := range s.assignments[vr.ID] {
				ac := *a
				if def, ok := s.attributes[a.AttributeID]; ok {
					d := *def
					ac.Attribute = &d
				}
				row.Assignments = append(row.Assignments, ac)
			}
			sort.Slice(row.Assignments, func(i, j int) bool {
				return row.Assignments[i].CreatedAt.Before(row.Assignments[j].CreatedAt)
			})
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].SKU < out[j].SKU
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) loadTree(p *model.Product) model.Product {
	out := *p
	out.Variations = s.variationsOf(p.ID, true)
	return out
}
