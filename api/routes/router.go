package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/printforge/printforge-backend/api/controllers"
	"github.com/printforge/printforge-backend/api/middleware"
	"github.com/printforge/printforge-backend/internal/cascade"
	"github.com/printforge/printforge-backend/internal/designs"
	"github.com/printforge/printforge-backend/internal/vendorproducts"
	"github.com/printforge/printforge-backend/pkg/config"
	"github.com/printforge/printforge-backend/pkg/db"
	"github.com/printforge/printforge-backend/pkg/enums"
	"github.com/printforge/printforge-backend/pkg/logger"
	pkgredis "github.com/printforge/printforge-backend/pkg/redis"
)

const (
	createTTL   = 24 * time.Hour
	validateTTL = 7 * 24 * time.Hour
)

// RedisStore backs request idempotency and the readiness probe.
type RedisStore interface {
	pkgredis.IdempotencyStore
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient RedisStore,
	designService designs.Service,
	vendorProductService vendorproducts.Service,
	cascadeService cascade.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		chimw.Timeout(middleware.RequestTimeout),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps(dbP, redisClient)))
	})
	r.Handle("/metrics", promhttp.Handler())

	idem := idempotencyStore(redisClient)
	once := middleware.Idempotent(idem, logg, createTTL)

	r.Route("/api/vendor/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg), middleware.RequireRole(logg, enums.UserRoleVendor))

		r.With(once).Post("/designs", controllers.VendorCreateDesign(designService, logg))
		r.Get("/designs/{designId}", controllers.VendorGetDesign(designService, logg))
		r.Delete("/designs/{designId}", controllers.VendorDeleteDesign(designService, logg))

		r.Get("/products", controllers.VendorListProducts(vendorProductService, logg))
		r.With(once).Post("/products", controllers.VendorCreateProduct(vendorProductService, logg))
		r.Patch("/products/{productId}/post-validation-action", controllers.VendorUpdatePostValidationAction(vendorProductService, logg))
		r.Delete("/products/{productId}", controllers.VendorDeleteProduct(vendorProductService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg), middleware.RequireRole(logg, enums.UserRoleAdmin))

		r.Get("/designs/pending", controllers.AdminListPendingDesigns(designService, logg))
		r.With(middleware.Idempotent(idem, logg, validateTTL)).
			Post("/designs/{designId}/validate", controllers.AdminValidateDesign(designService, logg))

		r.Post("/vendor-products/auto-validate", controllers.AdminAutoValidate(cascadeService, logg))
		r.Get("/vendor-products/auto-validation-stats", controllers.AdminAutoValidationStats(cascadeService, logg))

		r.With(once).Post("/design-links/backfill", controllers.AdminBackfillLinks(cascadeService, logg))
	})

	return r
}

func readinessDeps(dbP db.Pinger, redisClient RedisStore) map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if dbP != nil {
		deps["db"] = dbP
	}
	if redisClient != nil {
		deps["redis"] = redisClient
	}
	return deps
}

func idempotencyStore(redisClient RedisStore) pkgredis.IdempotencyStore {
	if redisClient == nil {
		return nil
	}
	return redisClient
}
