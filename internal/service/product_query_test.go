package service_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/NoorShal/lamma-backend-test/internal/dto"
	"github.com/NoorShal/lamma-backend-test/internal/model"
	"github.com/NoorShal/lamma-backend-test/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProductQueryPaging(t *testing.T) {
	paging := service.Paging{}
	tests := []struct {
		name          string
		filter        dto.ProductFilter
		page, perPage int
		offset        int
	}{
		{"defaults", dto.ProductFilter{}, 1, 15, 0},
		{"capped", dto.ProductFilter{PerPage: 500, Page: 2}, 2, 100, 100},
		{"negative page", dto.ProductFilter{PerPage: 10, Page: -4}, 1, 10, 0},
		{"third page", dto.ProductFilter{PerPage: 10, Page: 3}, 3, 10, 20},
		{"huge page", dto.ProductFilter{PerPage: 10, Page: math.MaxInt}, math.MaxInt32 / 10, 10, (math.MaxInt32/10 - 1) * 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, page, perPage, err := service.BuildProductQuery(tt.filter, paging)
			require.NoError(t, err)
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.perPage, perPage)
			assert.Equal(t, tt.perPage, q.Limit)
			assert.Equal(t, tt.offset, q.Offset)
		})
	}

	_, _, perPage, err := service.BuildProductQuery(dto.ProductFilter{PerPage: 80}, service.Paging{DefaultPerPage: 20, MaxPerPage: 50})
	require.NoError(t, err)
	assert.Equal(t, 50, perPage)
}

func TestBuildProductQueryFilters(t *testing.T) {
	q, _, _, err := service.BuildProductQuery(dto.ProductFilter{
		Type: "variable", Name: "  shirt ", MinPrice: "20", MaxPrice: "80.5",
	}, service.Paging{})
	require.NoError(t, err)
	require.NotNil(t, q.Type)
	assert.Equal(t, model.ProductTypeVariable, *q.Type)
	assert.Equal(t, "shirt", q.Name)
	assert.Equal(t, "20", q.MinPrice.String())
	assert.Equal(t, "80.5", q.MaxPrice.String())

	_, _, _, err = service.BuildProductQuery(dto.ProductFilter{MinPrice: "cheap", MaxPrice: "abc"}, service.Paging{})
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"min_price": "numeric", "max_price": "numeric"}, verr.Fields)
}

func TestListFiltersByInclusivePriceRange(t *testing.T) {
	c := newCatalog(t, service.CatalogOptions{})
	ctx := context.Background()
	for _, price := range []string{"10", "50", "100", "20", "80"} {
		_, err := c.svc.Create(ctx, simpleProduct("Item "+price, "SKU-"+price, price))
		require.NoError(t, err)
	}

	list, err := c.svc.List(ctx, dto.ProductFilter{MinPrice: "20", MaxPrice: "80"})
	require.NoError(t, err)
	prices := make([]string, 0, len(list.Data))
	for _, p := range list.Data {
		prices = append(prices, *p.Price)
	}
	// Newest first; both bounds inclusive.
	assert.Equal(t, []string{"80.00", "20.00", "50.00"}, prices)
	assert.Equal(t, int64(3), list.Meta.Total)
}

func TestListPriceRangeSingleMatch(t *testing.T) {
	c := newCatalog(t, service.CatalogOptions{})
	ctx := context.Background()
	for _, price := range []string{"10", "50", "100"} {
		_, err := c.svc.Create(ctx, simpleProduct("Item "+price, "SKU-"+price, price))
		require.NoError(t, err)
	}
	list, err := c.svc.List(ctx, dto.ProductFilter{MinPrice: "20", MaxPrice: "80"})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "50.00", *list.Data[0].Price)
}

func TestListTypeAndNameFilters(t *testing.T) {
	c := newCatalog(t, service.CatalogOptions{})
	ctx := context.Background()
	_, err := c.svc.Create(ctx, tshirt())
	require.NoError(t, err)
	_, err = c.svc.Create(ctx, simpleProduct("Shirt Box", "BOX", "3"))
	require.NoError(t, err)

	list, err := c.svc.List(ctx, dto.ProductFilter{Type: "variable"})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "TSHIRT-001", list.Data[0].SKU)
	require.Len(t, list.Data[0].Variations, 1, "variations are loaded on list")

	list, err = c.svc.List(ctx, dto.ProductFilter{Name: "SHIRT"})
	require.NoError(t, err)
	assert.Len(t, list.Data, 2)

	list, err = c.svc.List(ctx, dto.ProductFilter{Type: "bundle"})
	require.NoError(t, err)
	assert.Empty(t, list.Data)
	assert.NotNil(t, list.Data)
}

func TestListPaginationMeta(t *testing.T) {
	c := newCatalog(t, service.CatalogOptions{Paging: service.Paging{DefaultPerPage: 2, MaxPerPage: 4}})
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_, err := c.svc.Create(ctx, simpleProduct(fmt.Sprintf("Item %d", i), fmt.Sprintf("SKU-%d", i), "1"))
		require.NoError(t, err)
	}

	list, err := c.svc.List(ctx, dto.ProductFilter{Page: 3})
	require.NoError(t, err)
	assert.Equal(t, dto.PageMeta{Total: 5, CurrentPage: 3, PerPage: 2, LastPage: 3}, list.Meta)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "SKU-1", list.Data[0].SKU)

	list, err = c.svc.List(ctx, dto.ProductFilter{PerPage: 50})
	require.NoError(t, err)
	assert.Equal(t, 4, list.Meta.PerPage)
	assert.Len(t, list.Data, 4)

	list, err = c.svc.List(ctx, dto.ProductFilter{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, list.Data)
	assert.Equal(t, 3, list.Meta.LastPage)
}
