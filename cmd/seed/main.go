// Command seed fills the catalog with demo data through the product service,
// so every seeded row passes the same validation and reconciliation as API
// writes. Re-running it skips products whose SKU already exists.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/NoorShal/lamma-backend-test/internal/config"
	"github.com/NoorShal/lamma-backend-test/internal/dto"
	"github.com/NoorShal/lamma-backend-test/internal/infra"
	"github.com/NoorShal/lamma-backend-test/internal/repository"
	"github.com/NoorShal/lamma-backend-test/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.DefaultContextLogger = &log.Logger

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.AutoMigrate = true

	db, err := infra.NewDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	svc := service.NewProductService(
		repository.NewProductRepository(db),
		repository.NewVariationRepository(db),
		repository.NewAttributeRepository(db),
		nil,
		service.CatalogOptions{AttributeMode: service.AttributeModeStrict},
	)

	created, skipped, err := seedCatalog(context.Background(), svc, rand.New(rand.NewPCG(42, 2025)))
	if err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	log.Info().Int("created", created).Int("skipped", skipped).Msg("catalog seeded")
}

var attributeValues = map[string][]string{
	"size":  {"XS", "S", "M", "L"},
	"color": {"Red", "Blue", "Gray", "Yellow"},
}

// seedCatalog creates five simple products, three variable products with two
// to four random variations each, and the demo T-shirt and mouse.
func seedCatalog(ctx context.Context, svc service.ProductService, rng *rand.Rand) (created, skipped int, err error) {
	var reqs []dto.CreateProductRequest

	for i := 1; i <= 5; i++ {
		price := decimal.NewFromInt(int64(rng.IntN(9900)+100)).Shift(-2)
		reqs = append(reqs, dto.CreateProductRequest{
			Name:  fmt.Sprintf("Sample Product %d", i),
			SKU:   fmt.Sprintf("SMP-%03d", i),
			Type:  "simple",
			Price: &price,
		})
	}

	for i := 1; i <= 3; i++ {
		sku := fmt.Sprintf("VAR-%03d", i)
		n := rng.IntN(3) + 2
		variations := make([]dto.VariationInput, 0, n)
		for j := 1; j <= n; j++ {
			price := decimal.NewFromInt(int64(rng.IntN(4000)+1000)).Shift(-2)
			variations = append(variations, dto.VariationInput{
				SKU:   fmt.Sprintf("%s-%02d", sku, j),
				Price: &price,
				Attributes: []dto.AttributeInput{
					{Name: "size", Value: pick(rng, attributeValues["size"])},
					{Name: "color", Value: pick(rng, attributeValues["color"])},
				},
			})
		}
		reqs = append(reqs, dto.CreateProductRequest{
			Name:       fmt.Sprintf("Sample Variable Product %d", i),
			SKU:        sku,
			Type:       "variable",
			Variations: variations,
		})
	}

	reqs = append(reqs, demoProducts()...)

	for _, req := range reqs {
		_, err := svc.Create(ctx, req)
		var verr *service.ValidationError
		switch {
		case err == nil:
			created++
		case errors.As(err, &verr) && verr.Fields["sku"] == "unique":
			skipped++
			log.Ctx(ctx).Debug().Str("sku", req.SKU).Msg("already seeded")
		default:
			return created, skipped, fmt.Errorf("seed %s: %w", req.SKU, err)
		}
	}
	return created, skipped, nil
}

func demoProducts() []dto.CreateProductRequest {
	shirt := []struct {
		price       string
		size, color string
	}{
		{"25.00", "S", "Red"},
		{"25.00", "M", "Red"},
		{"27.00", "L", "Red"},
		{"25.00", "S", "Blue"},
		{"25.00", "M", "Blue"},
	}
	variations := make([]dto.VariationInput, 0, len(shirt))
	for _, v := range shirt {
		price := decimal.RequireFromString(v.price)
		variations = append(variations, dto.VariationInput{
			SKU:   fmt.Sprintf("TSHIRT-%s-%s", v.size, v.color),
			Price: &price,
			Attributes: []dto.AttributeInput{
				{Name: "size", Value: v.size},
				{Name: "color", Value: v.color},
			},
		})
	}
	shirtPrice := decimal.RequireFromString("25.00")
	mousePrice := decimal.RequireFromString("29.99")
	mouseDescr := "High-precision wireless mouse with ergonomic design"

	return []dto.CreateProductRequest{
		{Name: "Cotton T-Shirt", SKU: "TSHIRT", Type: "variable", Price: &shirtPrice, Variations: variations},
		{Name: "Wireless Mouse", SKU: "MOUSE-WL", Type: "simple", Price: &mousePrice, Description: &mouseDescr},
	}
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}
