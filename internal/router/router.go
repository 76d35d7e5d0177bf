package router

import (
	"time"

	"github.com/NoorShal/lamma-backend-test/internal/config"
	"github.com/NoorShal/lamma-backend-test/internal/events"
	"github.com/NoorShal/lamma-backend-test/internal/handler"
	"github.com/NoorShal/lamma-backend-test/internal/infra"
	"github.com/NoorShal/lamma-backend-test/internal/middleware"
	"github.com/NoorShal/lamma-backend-test/internal/repository"
	"github.com/NoorShal/lamma-backend-test/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB; events → Redis.
// rdb, publisher and eventsCB are nil when REDIS_URL is empty.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, publisher events.Publisher, eventsCB *infra.Breaker, limiter *middleware.RateLimiter) (*gin.Engine, error) {
	mode, err := service.ParseAttributeMode(cfg.AttributeFailureMode)
	if err != nil {
		return nil, err
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	variationRepo := repository.NewVariationRepository(db)
	attributeRepo := repository.NewAttributeRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	productSvc := service.NewProductService(productRepo, variationRepo, attributeRepo, publisher, service.CatalogOptions{
		AttributeMode: mode,
		Paging:        service.Paging{DefaultPerPage: cfg.DefaultPerPage, MaxPerPage: cfg.MaxPerPage},
	})

	return build(cfg, productSvc, handler.Health(db, rdb, eventsCB), limiter), nil
}

// build assembles the middleware chain and routes around an already wired service.
func build(cfg *config.Config, productSvc service.ProductService, health gin.HandlerFunc, limiter *middleware.RateLimiter) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	if limiter == nil {
		limiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	}
	r.Use(limiter.Handler())

	productsH := handler.NewProductsHandler(productSvc)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", health)

	// Same handlers under the bare and the /api prefix.
	for _, prefix := range []string{"/products", "/api/products"} {
		registerProductRoutes(r.Group(prefix), productsH)
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

func registerProductRoutes(g *gin.RouterGroup, h *handler.ProductsHandler) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
