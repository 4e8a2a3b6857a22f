package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sabjimart/sabji-backend/api"
	"github.com/sabjimart/sabji-backend/api/routes"
	"github.com/sabjimart/sabji-backend/internal/agents"
	"github.com/sabjimart/sabji-backend/internal/analytics"
	"github.com/sabjimart/sabji-backend/internal/auth"
	"github.com/sabjimart/sabji-backend/internal/cart"
	"github.com/sabjimart/sabji-backend/internal/checkout"
	"github.com/sabjimart/sabji-backend/internal/coupons"
	"github.com/sabjimart/sabji-backend/internal/orders"
	products "github.com/sabjimart/sabji-backend/internal/products"
	"github.com/sabjimart/sabji-backend/internal/reports"
	"github.com/sabjimart/sabji-backend/internal/reviews"
	"github.com/sabjimart/sabji-backend/internal/sellers"
	"github.com/sabjimart/sabji-backend/internal/users"
	razorpaywebhook "github.com/sabjimart/sabji-backend/internal/webhooks/razorpay"
	"github.com/sabjimart/sabji-backend/pkg/auth/session"
	"github.com/sabjimart/sabji-backend/pkg/bigquery"
	"github.com/sabjimart/sabji-backend/pkg/bootstrap"
	"github.com/sabjimart/sabji-backend/pkg/metrics"
	"github.com/sabjimart/sabji-backend/pkg/outbox"
	"github.com/sabjimart/sabji-backend/pkg/outbox/idempotency"
	"github.com/sabjimart/sabji-backend/pkg/razorpay"
)

const shutdownTimeout = 15 * time.Second

func main() {
	proc, err := bootstrap.Start("api")
	if err == nil {
		err = run(proc)
	}
	proc.Exit(err)
}

func run(proc *bootstrap.Process) error {
	ctx, stop := proc.SignalContext()
	defer stop()
	cfg, logg := proc.Config, proc.Log

	dbClient, err := proc.Database(ctx)
	if err != nil {
		return err
	}
	redisClient, err := proc.Redis(ctx)
	if err != nil {
		return err
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	marketplaceMetrics := metrics.NewMarketplaceMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	usersRepo := users.NewRepository(dbClient.DB())
	sellersRepo := sellers.NewRepository(dbClient.DB())
	agentsRepo := agents.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SellerRepo:     sellersRepo,
		AgentRepo:      agentsRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return err
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		Users:          usersRepo,
		Sellers:        sellersRepo,
		Agents:         agentsRepo,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	adminRegisterService, err := auth.NewAdminRegisterService(usersRepo, cfg.Password)
	if err != nil {
		return err
	}

	usersService, err := users.NewService(usersRepo)
	if err != nil {
		return err
	}
	sellersService, err := sellers.NewService(sellersRepo, logg)
	if err != nil {
		return err
	}
	agentsService, err := agents.NewService(agentsRepo, logg)
	if err != nil {
		return err
	}

	productService, err := products.NewService(productsRepo, dbClient, sellersRepo, outboxService)
	if err != nil {
		return err
	}
	reviewService, err := reviews.NewService(reviews.NewRepository(dbClient.DB()), productsRepo)
	if err != nil {
		return err
	}
	couponService, err := coupons.NewService(coupons.NewRepository(dbClient.DB()), time.Now)
	if err != nil {
		return err
	}
	reportService, err := reports.NewService(reports.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}

	cartStore, err := cart.NewStore(redisClient, cfg.Cart.TTL)
	if err != nil {
		return err
	}
	pricing, err := cart.NewPricingResolver(productsRepo)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartStore, pricing)
	if err != nil {
		return err
	}

	ordersService, err := orders.NewService(ordersRepo, dbClient, agentsRepo, outboxService, marketplaceMetrics, logg)
	if err != nil {
		return err
	}

	claims, err := checkout.NewClaimStore(redisClient, cfg.Razorpay.ClaimTTL)
	if err != nil {
		return err
	}
	checkoutDeps := checkout.Deps{
		Tx:      dbClient,
		Carts:   cartService,
		Pricing: pricing,
		Orders:  ordersRepo,
		Claims:  claims,
		Outbox:  outboxService,
		Metrics: marketplaceMetrics,
		Logger:  logg,
	}
	if cfg.Razorpay.Configured() {
		gateway, err := razorpay.NewClient(cfg.Razorpay)
		if err != nil {
			return err
		}
		checkoutDeps.Gateway = gateway
	} else {
		logg.Warn(ctx, "razorpay credentials missing; online checkout disabled")
	}
	checkoutService, err := checkout.NewService(checkoutDeps)
	if err != nil {
		return err
	}

	webhookService, err := razorpaywebhook.NewService(razorpaywebhook.ServiceParams{
		Orders:            ordersRepo,
		TransactionRunner: dbClient,
		Outbox:            outboxService,
		Logger:            logg,
	})
	if err != nil {
		return err
	}
	webhookGuard, err := idempotency.NewGuard(redisClient, "razorpay", cfg.Razorpay.EventTTL)
	if err != nil {
		return err
	}

	analyticsService := analytics.Unavailable()
	if cfg.GCP.ProjectID != "" {
		bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			logg.Warn(ctx, "bigquery unavailable; analytics dashboard disabled")
		} else {
			proc.OnShutdown("bigquery", bqClient.Close)
			analyticsService, err = analytics.NewService(bqClient, cfg.GCP.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.MarketplaceEventsTable)
			if err != nil {
				return err
			}
		}
	}

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:             dbClient,
		Cache:          redisClient,
		Sessions:       sessionManager,
		Auth:           authService,
		Register:       registerService,
		AdminRegister:  adminRegisterService,
		Users:          usersService,
		Sellers:        sellersService,
		Agents:         agentsService,
		Products:       productService,
		Reviews:        reviewService,
		Coupons:        couponService,
		Cart:           cartService,
		Checkout:       checkoutService,
		Orders:         ordersService,
		Reports:        reportService,
		Analytics:      analyticsService,
		Webhooks:       webhookService,
		WebhookGuard:   webhookGuard,
		WebhookMetrics: marketplaceMetrics,
		Metrics:        promhttp.Handler(),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := api.NewServer(":"+port, handler)
	ctx = logg.WithField(ctx, "addr", server.Addr)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.ListenAndServe() }()
	logg.Info(ctx, "api listening")

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logg.Info(ctx, "api drained")
	return nil
}
