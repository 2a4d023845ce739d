package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ganeshkulfi/factory-backend/api/controllers"
	"github.com/ganeshkulfi/factory-backend/api/middleware"
	"github.com/ganeshkulfi/factory-backend/internal/inventory"
	"github.com/ganeshkulfi/factory-backend/internal/notifications"
	"github.com/ganeshkulfi/factory-backend/internal/orders"
	"github.com/ganeshkulfi/factory-backend/internal/pricing"
	"github.com/ganeshkulfi/factory-backend/internal/products"
	"github.com/ganeshkulfi/factory-backend/pkg/config"
	"github.com/ganeshkulfi/factory-backend/pkg/enums"
	"github.com/ganeshkulfi/factory-backend/pkg/logger"
	pkgredis "github.com/ganeshkulfi/factory-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Redis    *pkgredis.Client
	Gatherer prometheus.Gatherer

	// Readiness probes, keyed by dependency name.
	Pingers map[string]controllers.Pinger

	Products      products.Service
	Pricing       pricing.Service
	Inventory     inventory.Service
	Orders        orders.Service
	Notifications notifications.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	retailerPolicy := middleware.RateLimitPolicy{
		Name:   "retailer",
		Window: cfg.RateLimit.RetailerWindow,
		Limit:  cfg.RateLimit.RetailerLimit,
	}
	adminPolicy := middleware.RateLimitPolicy{
		Name:   "admin",
		Window: cfg.RateLimit.AdminWindow,
		Limit:  cfg.RateLimit.AdminLimit,
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Pingers))
	})
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.UserRoleRetailer, logg))
		if d.Redis != nil {
			r.Use(middleware.Idempotency(d.Redis, logg))
			r.Use(middleware.RateLimit(retailerPolicy, d.Redis, logg))
		}

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(d.Products, logg))
			r.Get("/{productID}", controllers.GetProduct(d.Products, logg))
		})

		r.Post("/pricing/quote", controllers.QuotePrice(d.Pricing, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(d.Orders, logg))
			r.Get("/", controllers.ListMyOrders(d.Orders, logg))
			r.Get("/updates", controllers.PollOrderUpdates(d.Notifications, logg))
			r.Get("/number/{orderNumber}", controllers.GetMyOrderByNumber(d.Orders, logg))
			r.Get("/{orderID}", controllers.GetMyOrder(d.Orders, logg))
			r.Get("/{orderID}/timeline", controllers.MyOrderTimeline(d.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.CancelMyOrder(d.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
		if d.Redis != nil {
			r.Use(middleware.Idempotency(d.Redis, logg))
			r.Use(middleware.RateLimit(adminPolicy, d.Redis, logg))
		}

		r.Get("/products", controllers.AdminListProducts(d.Products, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(d.Orders, logg))
			r.Get("/counts", controllers.AdminOrderCounts(d.Orders, logg))
			r.Get("/number/{orderNumber}", controllers.AdminGetOrderByNumber(d.Orders, logg))
			r.Get("/{orderID}", controllers.AdminGetOrder(d.Orders, logg))
			r.Get("/{orderID}/history", controllers.AdminOrderHistory(d.Orders, logg))
			r.Get("/{orderID}/movements", controllers.AdminOrderMovements(d.Inventory, logg))
			r.Post("/{orderID}/confirm", controllers.AdminConfirmOrder(d.Orders, logg))
			r.Post("/{orderID}/reject", controllers.AdminRejectOrder(d.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.AdminCancelOrder(d.Orders, logg))
			r.Post("/{orderID}/fulfillment", controllers.AdminRecordFulfillment(d.Orders, logg))
			r.Post("/{orderID}/payment", controllers.AdminUpdatePayment(d.Orders, logg))
			r.Post("/{orderID}/reserve", controllers.AdminReserveStock(d.Orders, logg))
			r.Post("/{orderID}/release", controllers.AdminReleaseStock(d.Orders, logg))
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Post("/validate", controllers.ValidateOrderStock(d.Inventory, logg))
			r.Post("/adjust", controllers.AdminAdjustStock(d.Inventory, logg))
			r.Get("/movements", controllers.AdminListMovements(d.Inventory, logg))
			r.Get("/products/{productID}/movements", controllers.AdminProductMovements(d.Inventory, logg))
		})

		r.Route("/price-overrides", func(r chi.Router) {
			r.Post("/", controllers.AdminCreatePriceOverride(d.Pricing, logg))
			r.Get("/", controllers.AdminListPriceOverrides(d.Pricing, logg))
			r.Delete("/{overrideID}", controllers.AdminDeactivatePriceOverride(d.Pricing, logg))
		})
	})

	return r
}
