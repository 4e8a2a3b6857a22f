package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sabjimart/sabji-backend/api/controllers"
	analyticscontrollers "github.com/sabjimart/sabji-backend/api/controllers/analytics"
	cartcontrollers "github.com/sabjimart/sabji-backend/api/controllers/cart"
	ordercontrollers "github.com/sabjimart/sabji-backend/api/controllers/orders"
	webhookcontrollers "github.com/sabjimart/sabji-backend/api/controllers/webhooks"
	"github.com/sabjimart/sabji-backend/api/middleware"
	"github.com/sabjimart/sabji-backend/internal/agents"
	"github.com/sabjimart/sabji-backend/internal/analytics"
	"github.com/sabjimart/sabji-backend/internal/auth"
	"github.com/sabjimart/sabji-backend/internal/cart"
	checkoutsvc "github.com/sabjimart/sabji-backend/internal/checkout"
	"github.com/sabjimart/sabji-backend/internal/coupons"
	"github.com/sabjimart/sabji-backend/internal/orders"
	products "github.com/sabjimart/sabji-backend/internal/products"
	"github.com/sabjimart/sabji-backend/internal/reports"
	"github.com/sabjimart/sabji-backend/internal/reviews"
	"github.com/sabjimart/sabji-backend/internal/sellers"
	"github.com/sabjimart/sabji-backend/internal/users"
	"github.com/sabjimart/sabji-backend/pkg/auth/session"
	"github.com/sabjimart/sabji-backend/pkg/config"
	"github.com/sabjimart/sabji-backend/pkg/db"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	pkgredis "github.com/sabjimart/sabji-backend/pkg/redis"
)

// Cache is the Redis surface the HTTP layer needs for readiness, idempotency and auth throttling.
type Cache interface {
	pkgredis.IdempotencyStore
	pkgredis.Pinger
	middleware.RateCounter
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type webhookRecorder interface {
	IncWebhook(event, outcome string)
}

// Dependencies carries everything the router mounts. Nil services answer 500 from their handlers.
type Dependencies struct {
	DB       db.Pinger
	Cache    Cache
	Sessions session.AccessSessionChecker

	Auth          auth.Service
	Register      auth.RegisterService
	AdminRegister auth.AdminRegisterService
	Users         users.Service
	Sellers       sellers.Service
	Agents        agents.Service
	Products      products.Service
	Reviews       reviews.Service
	Coupons       coupons.Service
	Cart          cart.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Reports       reports.Service
	Analytics     analytics.Service

	Webhooks       webhookcontrollers.RazorpayWebhookService
	WebhookGuard   webhookGuard
	WebhookMetrics webhookRecorder
	Metrics        http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	var (
		idempotencyStore pkgredis.IdempotencyStore
		rateLimitStore   middleware.RateCounter
		cachePinger      pkgredis.Pinger
	)
	if deps.Cache != nil {
		idempotencyStore = deps.Cache
		rateLimitStore = deps.Cache
		cachePinger = deps.Cache
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	loginLimit := middleware.AuthRateLimit(loginPolicy, rateLimitStore, logg)
	registerLimit := middleware.AuthRateLimit(registerPolicy, rateLimitStore, logg)

	requireAuth := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	idempotent := middleware.Idempotency(idempotencyStore, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, cachePinger))
	})

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)

	webhook := webhookcontrollers.RazorpayWebhook(deps.Webhooks, cfg.Razorpay.WebhookSecret, deps.WebhookGuard, deps.WebhookMetrics, logg)
	r.Post("/razorpay-webhook", webhook)
	r.Post("/api/v1/webhooks/razorpay", webhook)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(registerLimit).Post("/register", controllers.AuthRegister(deps.Register, deps.Auth, logg))
		r.With(registerLimit).Post("/seller/register", controllers.SellerRegister(deps.Register, logg))
		r.With(registerLimit).Post("/delivery/signup", controllers.DeliverySignup(deps.Register, logg))
		r.With(loginLimit).Post("/{role}/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, cfg.JWT, logg))
	})

	// answers 404 outside dev and test environments
	r.With(registerLimit).Post("/api/admin/auth/register", controllers.AdminAuthRegister(deps.AdminRegister, deps.Auth, cfg, logg))

	r.Route("/api/v1", func(r chi.Router) {
		// catalog is public; reviews credit the customer when a token is present
		r.Get("/products", controllers.PublicProducts(deps.Products, logg))
		r.Get("/products/{slug}", controllers.PublicProductDetail(deps.Products, deps.Reviews, logg))
		r.Get("/products/{slug}/vendors", controllers.PublicProductVendors(deps.Products, logg))
		r.With(middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg), idempotent).
			Post("/products/{slug}/reviews", controllers.ProductAddReview(deps.Reviews, logg))
		r.Get("/vendors/{id}", controllers.PublicVendorStorefront(deps.Products, logg))
		r.Get("/coupons", controllers.PublicCoupons(deps.Coupons, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireRole(logg, enums.RoleCustomer))
			r.Use(idempotent)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
				r.Post("/add", cartcontrollers.CartAdd(deps.Cart, logg))
				r.Post("/update/{productId}", cartcontrollers.CartUpdate(deps.Cart, logg))
				r.Post("/remove/{productId}", cartcontrollers.CartRemove(deps.Cart, logg))
			})
			r.Post("/set-cart", cartcontrollers.SetCart(deps.Cart, logg))

			r.Get("/checkout", controllers.CheckoutPreview(deps.Checkout, logg))
			r.Post("/checkout", controllers.PlaceOrder(deps.Checkout, logg))
			r.Post("/create-order", controllers.CreateGatewayOrder(deps.Checkout, logg))

			r.Get("/orders", ordercontrollers.CustomerList(deps.Orders, logg))
			r.Get("/orders/{orderId}", ordercontrollers.CustomerDetail(deps.Orders, logg))

			r.Get("/profile", controllers.CustomerProfile(deps.Users, logg))
			r.Patch("/profile", controllers.CustomerUpdateProfile(deps.Users, logg))
			r.Get("/addresses", controllers.CustomerAddresses(deps.Users, logg))
			r.Post("/addresses", controllers.CustomerAddAddress(deps.Users, logg))
			r.Delete("/addresses/{addressId}", controllers.CustomerDeleteAddress(deps.Users, logg))
		})

		r.Route("/seller", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireRole(logg, enums.RoleSeller))
			r.Use(idempotent)

			r.Get("/products", controllers.SellerProducts(deps.Products, logg))
			r.Post("/products", controllers.SellerCreateProduct(deps.Products, logg))
			r.Patch("/products/{productId}", controllers.SellerUpdateProduct(deps.Products, logg))
			r.Delete("/products/{productId}", controllers.SellerDeleteProduct(deps.Products, logg))

			r.Get("/orders", ordercontrollers.SellerList(deps.Orders, logg))
			r.Post("/orders/{orderId}/status", ordercontrollers.UpdateStatus(deps.Orders, enums.RoleSeller, logg))
			r.Post("/orders/{orderId}/assign", ordercontrollers.AssignAgent(deps.Orders, enums.RoleSeller, logg))

			r.Get("/analytics", controllers.SellerAnalytics(deps.Reports, logg))
			r.Get("/analytics/dashboard", analyticscontrollers.Dashboard(deps.Analytics, logg))
		})

		r.Route("/delivery", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireRole(logg, enums.RoleDelivery))
			r.Use(idempotent)

			r.Get("/dashboard", ordercontrollers.DeliveryDashboard(deps.Orders, logg))
			r.Post("/orders/{orderId}/status", ordercontrollers.UpdateStatus(deps.Orders, enums.RoleDelivery, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
		r.Use(idempotent)

		r.Get("/orders", ordercontrollers.AdminList(deps.Orders, logg))
		r.Post("/orders/{orderId}/status", ordercontrollers.UpdateStatus(deps.Orders, enums.RoleAdmin, logg))
		r.Post("/orders/{orderId}/assign", ordercontrollers.AssignAgent(deps.Orders, enums.RoleAdmin, logg))

		r.Get("/sellers", controllers.AdminSellers(deps.Sellers, logg))
		r.Post("/sellers/{id}/approve", controllers.AdminSellerAction(deps.Sellers, controllers.SellerApprove, logg))
		r.Post("/sellers/{id}/reject", controllers.AdminSellerAction(deps.Sellers, controllers.SellerReject, logg))
		r.Post("/sellers/{id}/block", controllers.AdminSellerAction(deps.Sellers, controllers.SellerBlock, logg))
		r.Post("/sellers/{id}/unblock", controllers.AdminSellerAction(deps.Sellers, controllers.SellerUnblock, logg))

		r.Get("/products/pending", controllers.AdminPendingProducts(deps.Products, logg))
		r.Post("/products/{id}/approve", controllers.AdminProductAction(deps.Products, controllers.ProductApprove, logg))
		r.Post("/products/{id}/reject", controllers.AdminProductAction(deps.Products, controllers.ProductReject, logg))

		r.Get("/delivery-agents", controllers.AdminDeliveryAgents(deps.Agents, logg))
		r.Post("/delivery-agents/{id}/approve", controllers.AdminApproveDeliveryAgent(deps.Agents, logg))

		r.Get("/users", controllers.AdminCustomers(deps.Users, logg))
		r.Post("/users/{id}/block", controllers.AdminSetUserBlocked(deps.Users, true, logg))
		r.Post("/users/{id}/unblock", controllers.AdminSetUserBlocked(deps.Users, false, logg))

		r.Get("/coupons", controllers.AdminCoupons(deps.Coupons, logg))
		r.Post("/coupons", controllers.AdminCreateCoupon(deps.Coupons, logg))
		r.Post("/coupons/{id}/deactivate", controllers.AdminDeactivateCoupon(deps.Coupons, logg))

		r.Get("/reports", controllers.AdminReports(deps.Reports, logg))
		r.Get("/analytics", analyticscontrollers.Dashboard(deps.Analytics, logg))
	})

	return r
}
