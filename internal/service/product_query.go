package service

import (
	"math"
	"strings"

	"github.com/NoorShal/lamma-backend-test/internal/dto"
	"github.com/NoorShal/lamma-backend-test/internal/model"
	"github.com/NoorShal/lamma-backend-test/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// Paging holds the page-size policy for listings.
type Paging struct {
	DefaultPerPage int
	MaxPerPage     int
}

func (p Paging) withDefaults() Paging {
	if p.DefaultPerPage <= 0 {
		p.DefaultPerPage = DefaultPerPage
	}
	if p.MaxPerPage <= 0 {
		p.MaxPerPage = MaxPerPage
	}
	if p.DefaultPerPage > p.MaxPerPage {
		p.DefaultPerPage = p.MaxPerPage
	}
	return p
}

// BuildProductQuery translates query-string filters into a repository query.
// It returns the query plus the effective page and page size.
func BuildProductQuery(f dto.ProductFilter, paging Paging) (repository.ProductQuery, int, int, error) {
	paging = paging.withDefaults()
	fields := map[string]string{}
	var q repository.ProductQuery

	if t := strings.TrimSpace(f.Type); t != "" {
		pt := model.ProductType(t)
		q.Type = &pt
	}
	q.Name = strings.TrimSpace(f.Name)

	q.MinPrice = parsePriceBound(fields, "min_price", f.MinPrice)
	q.MaxPrice = parsePriceBound(fields, "max_price", f.MaxPrice)
	if len(fields) > 0 {
		return repository.ProductQuery{}, 0, 0, NewValidationError(fields)
	}

	perPage := f.PerPage
	if perPage <= 0 {
		perPage = paging.DefaultPerPage
	}
	perPage = min(perPage, paging.MaxPerPage)

	// Bounded so (page-1)*perPage stays a valid Postgres OFFSET.
	page := min(max(f.Page, 1), math.MaxInt32/perPage)

	q.Limit = perPage
	q.Offset = (page - 1) * perPage
	return q, page, perPage, nil
}

func parsePriceBound(fields map[string]string, key, raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		fields[key] = "numeric"
		return nil
	}
	return &d
}

func lastPage(total int64, perPage int) int {
	if total == 0 || perPage <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
