//go:build integration

package integration

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/integration/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/NoorShal/lamma-backend-test/internal/config"
	"github.com/NoorShal/lamma-backend-test/internal/dto"
	"github.com/NoorShal/lamma-backend-test/internal/events"
	"github.com/NoorShal/lamma-backend-test/internal/infra"
	"github.com/NoorShal/lamma-backend-test/internal/model"
	"github.com/NoorShal/lamma-backend-test/internal/repository"
	"github.com/NoorShal/lamma-backend-test/internal/router"
	"github.com/NoorShal/lamma-backend-test/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	cfg    *config.Config
	db     *gorm.DB
	rdb    *redis.Client
	server *httptest.Server
	svc    service.ProductService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("catalog_test"),
		tcPostgres.WithUsername("catalog"),
		tcPostgres.WithPassword("catalog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                  "test",
		DatabaseURL:          pgURL,
		DBMaxOpenConns:       10,
		DBMaxIdleConns:       2,
		AutoMigrate:          true,
		RedisURL:             rdURL,
		EventsQueue:          "events:catalog:test",
		DefaultPerPage:       15,
		MaxPerPage:           100,
		AttributeFailureMode: "strict",
	}

	db, err := infra.NewDatabase(cfg)
	require.NoError(t, err)
	// Migrations are idempotent.
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	cb := infra.NewBreaker(infra.EventsBreakerConfig())
	pub := events.NewRedisPublisher(rdb, cfg.EventsQueue, cb)

	engine, err := router.New(cfg, db, rdb, pub, cb, nil)
	require.NoError(t, err)
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	svc := service.NewProductService(
		repository.NewProductRepository(db),
		repository.NewVariationRepository(db),
		repository.NewAttributeRepository(db),
		pub,
		service.CatalogOptions{AttributeMode: service.AttributeModeStrict},
	)

	return &testEnv{cfg: cfg, db: db, rdb: rdb, server: srv, svc: svc}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (e *testEnv) count(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Table(table).Count(&n).Error)
	return n
}

func errorsAsEither(err error, verr **service.ValidationError, cerr **service.ConflictError) bool {
	return errors.As(err, verr) || errors.As(err, cerr)
}

// brokenAttributes fails one attribute name by running an erroring statement
// on the caller's transaction, the way a real constraint or timeout would.
type brokenAttributes struct {
	repository.AttributeRepository
	name string
}

func (b brokenAttributes) FindOrCreateTx(tx *gorm.DB, name string) (*model.AttributeDefinition, error) {
	if name == b.name {
		if err := tx.Exec("SELECT 1/0").Error; err != nil {
			return nil, err
		}
	}
	return b.AttributeRepository.FindOrCreateTx(tx, name)
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestCatalog(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("tshirt scenario over HTTP with event", func(t *testing.T) {
		status, body := env.do(t, http.MethodPost, "/api/products", map[string]any{
			"name": "T-Shirt",
			"sku":  "TSHIRT-001",
			"type": "variable",
			"variations": []map[string]any{{
				"sku":   "TSHIRT-001-S-RED",
				"price": 25.00,
				"attributes": []map[string]string{
					{"name": "size", "value": "S"},
					{"name": "color", "value": "Red"},
				},
			}},
		})
		require.Equal(t, http.StatusCreated, status, body.Message)

		var created dto.ProductResponse
		require.NoError(t, json.Unmarshal(body.Data, &created))

		status, body = env.do(t, http.MethodGet, "/products/"+created.ID, nil)
		require.Equal(t, http.StatusOK, status)
		var got dto.ProductResponse
		require.NoError(t, json.Unmarshal(body.Data, &got))
		require.Len(t, got.Variations, 1)
		assert.Equal(t, map[string]string{"size": "S", "color": "Red"}, got.Variations[0].Attributes)

		raw, err := env.rdb.RPop(context.Background(), env.cfg.EventsQueue).Result()
		require.NoError(t, err)
		var ev events.Event
		require.NoError(t, json.Unmarshal([]byte(raw), &ev))
		assert.Equal(t, events.ProductCreated, ev.Type)
		assert.Equal(t, created.ID, ev.ProductID)
		assert.Equal(t, 1, ev.Variations)
	})

	t.Run("missing and malformed ids", func(t *testing.T) {
		status, body := env.do(t, http.MethodGet, "/products/999", nil)
		assert.Equal(t, http.StatusNotFound, status)
		assert.False(t, body.Success)

		status, _ = env.do(t, http.MethodDelete, "/products/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("reconcile keeps ids and delete cascades", func(t *testing.T) {
		ctx := context.Background()
		p, err := env.svc.Create(ctx, dto.CreateProductRequest{
			Name: "Hoodie", SKU: "HOOD", Type: "variable",
			Variations: []dto.VariationInput{
				{SKU: "HOOD-S", Price: price("40"), Attributes: []dto.AttributeInput{{Name: "Size", Value: "S"}}},
				{SKU: "HOOD-M", Price: price("40"), Attributes: []dto.AttributeInput{{Name: "size", Value: "M"}}},
			},
		})
		require.NoError(t, err)
		id := uuid.MustParse(p.ID)
		keptID := p.Variations[0].ID

		updated, err := env.svc.Update(ctx, id, dto.UpdateProductRequest{
			Variations: dto.Some([]dto.VariationInput{
				{SKU: "HOOD-S", Price: price("41"), Attributes: []dto.AttributeInput{{Name: " SIZE ", Value: "Small"}, {Name: "fit", Value: "Loose"}}},
			}),
		})
		require.NoError(t, err)
		require.Len(t, updated.Variations, 1)
		assert.Equal(t, keptID, updated.Variations[0].ID)
		assert.Equal(t, "41.00", updated.Variations[0].Price)
		assert.Equal(t, map[string]string{"size": "Small", "fit": "Loose"}, updated.Variations[0].Attributes)

		var sizeDefs int64
		require.NoError(t, env.db.Table("product_attributes").Where("name = ?", "size").Count(&sizeDefs).Error)
		assert.Equal(t, int64(1), sizeDefs)

		require.NoError(t, env.svc.Delete(ctx, id))
		var orphans int64
		require.NoError(t, env.db.Table("product_variations").Where("product_id = ?", id).Count(&orphans).Error)
		assert.Zero(t, orphans)
		require.NoError(t, env.db.Table("product_variation_attributes").
			Where("variation_id = ?", uuid.MustParse(keptID)).Count(&orphans).Error)
		assert.Zero(t, orphans)
	})

	t.Run("concurrent first use of an attribute", func(t *testing.T) {
		ctx := context.Background()
		const racers = 8
		var wg sync.WaitGroup
		errs := make([]error, racers)
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = env.svc.Create(ctx, dto.CreateProductRequest{
					Name: fmt.Sprintf("Racer %d", i), SKU: fmt.Sprintf("RACE-%d", i), Type: "variable",
					Variations: []dto.VariationInput{{
						SKU: fmt.Sprintf("RACE-%d-A", i), Price: price("1"),
						Attributes: []dto.AttributeInput{{Name: "Material", Value: "Wool"}},
					}},
				})
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			assert.NoError(t, err)
		}

		var defs int64
		require.NoError(t, env.db.Table("product_attributes").Where("name = ?", "material").Count(&defs).Error)
		assert.Equal(t, int64(1), defs)
	})

	t.Run("duplicate sku race leaves no partial writes", func(t *testing.T) {
		ctx := context.Background()
		before := env.count(t, "product_variations")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = env.svc.Create(ctx, dto.CreateProductRequest{
					Name: "Twin", SKU: "TWIN", Type: "variable",
					Variations: []dto.VariationInput{{
						SKU: fmt.Sprintf("TWIN-%d", i), Price: price("2"),
						Attributes: []dto.AttributeInput{{Name: "size", Value: "M"}},
					}},
				})
			}(i)
		}
		wg.Wait()

		failed := 0
		for _, err := range errs {
			if err == nil {
				continue
			}
			failed++
			var verr *service.ValidationError
			var cerr *service.ConflictError
			assert.True(t, errorsAsEither(err, &verr, &cerr), err)
		}
		assert.Equal(t, 1, failed)
		assert.Equal(t, before+1, env.count(t, "product_variations"))
	})

	t.Run("price range filter", func(t *testing.T) {
		ctx := context.Background()
		for _, p := range []string{"10", "50", "100"} {
			_, err := env.svc.Create(ctx, dto.CreateProductRequest{Name: "Range " + p, SKU: "RANGE-" + p, Type: "simple", Price: price(p)})
			require.NoError(t, err)
		}
		list, err := env.svc.List(ctx, dto.ProductFilter{Name: "range", MinPrice: "20", MaxPrice: "80"})
		require.NoError(t, err)
		require.Len(t, list.Data, 1)
		assert.Equal(t, "RANGE-50", list.Data[0].SKU)
		assert.Equal(t, int64(1), list.Meta.Total)
	})

	t.Run("check constraints back the type rules", func(t *testing.T) {
		err := env.db.Exec(`INSERT INTO products (id, name, sku, type, is_active, created_at, updated_at)
			VALUES (gen_random_uuid(), 'Bad', 'BAD-1', 'simple', true, NOW(), NOW())`).Error
		assert.Error(t, err)
		err = env.db.Exec(`INSERT INTO products (id, name, sku, type, price, is_active, created_at, updated_at)
			VALUES (gen_random_uuid(), 'Bad', 'BAD-2', 'bundle', 1, true, NOW(), NOW())`).Error
		assert.Error(t, err)
	})

	t.Run("tolerant mode survives a failed statement in the transaction", func(t *testing.T) {
		ctx := context.Background()
		tolerant := service.NewProductService(
			repository.NewProductRepository(env.db),
			repository.NewVariationRepository(env.db),
			brokenAttributes{AttributeRepository: repository.NewAttributeRepository(env.db), name: "finish"},
			nil,
			service.CatalogOptions{AttributeMode: service.AttributeModeTolerant},
		)

		p, err := tolerant.Create(ctx, dto.CreateProductRequest{
			Name: "Lamp", SKU: "LAMP", Type: "variable",
			Variations: []dto.VariationInput{{
				SKU: "LAMP-1", Price: price("30"),
				Attributes: []dto.AttributeInput{{Name: "Finish", Value: "Matte"}, {Name: "Wattage", Value: "40"}},
			}},
		})
		require.NoError(t, err)
		require.Len(t, p.Variations, 1)
		assert.Equal(t, map[string]string{"wattage": "40"}, p.Variations[0].Attributes)

		stored, err := env.svc.Get(ctx, uuid.MustParse(p.ID))
		require.NoError(t, err)
		require.Len(t, stored.Variations, 1)
		assert.Equal(t, map[string]string{"wattage": "40"}, stored.Variations[0].Attributes)

		var finishDefs int64
		require.NoError(t, env.db.Table("product_attributes").Where("name = ?", "finish").Count(&finishDefs).Error)
		assert.Zero(t, finishDefs)
	})
}
