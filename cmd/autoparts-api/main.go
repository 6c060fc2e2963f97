package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gearnix/autoparts-api/internal/api/handlers"
	"github.com/gearnix/autoparts-api/internal/api/middleware"
	"github.com/gearnix/autoparts-api/internal/cache"
	"github.com/gearnix/autoparts-api/internal/config"
	"github.com/gearnix/autoparts-api/internal/health"
	"github.com/gearnix/autoparts-api/internal/metrics"
	repository "github.com/gearnix/autoparts-api/internal/repositories"
	service "github.com/gearnix/autoparts-api/internal/services"
	"github.com/gearnix/autoparts-api/pkg/sendgrid"
	"github.com/gearnix/autoparts-api/pkg/stripe"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.MustLoad()

	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("Error closing database connection", slog.String("error", err.Error()))
		}
	}()

	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Error("Error closing redis connection", slog.String("error", err.Error()))
		}
	}()

	redisRepo := repository.NewRedisRepo(redisClient, cfg)
	productCache := cache.NewRedisCache(redisClient, &cfg.Cache)

	stripeClient := stripe.NewStripeClient(cfg.Stripe.APIKey, cfg.Stripe.WebhookSecret)
	emailClient := sendgrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	userService := service.NewUserService(repos.User, redisRepo, cfg)
	productService := service.NewProductService(repos.Product, productCache)
	cartService := service.NewCartService(repos.Cart, repos.Product)
	checkoutService := service.NewCheckoutService(repos.Cart, repos.Product, repos.Receipt, redisRepo, stripeClient, cfg)
	reconcilerService := service.NewReconcilerService(repos.Receipt, repos.Product, repos.Cart, repos.User, stripeClient, emailClient, cfg)
	receiptService := service.NewReceiptService(repos.Receipt)
	notificationService := service.NewNotificationService(emailClient)

	userHandler := handlers.NewUserHandler(userService, cartService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, reconcilerService)
	receiptHandler := handlers.NewReceiptHandler(receiptService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey))

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("Error creating health handler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Storage initialized", slog.String("env", cfg.Env))

	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/v1/users/register", userHandler.Register())
	routerMux.HandleFunc("POST /api/v1/users/login", userHandler.Login())
	routerMux.HandleFunc("GET /api/v1/users/profile", authMiddleware.Authenticate(userHandler.Profile()))
	routerMux.HandleFunc("POST /api/v1/products", authMiddleware.Authenticate(productHandler.CreateProduct()))
	routerMux.HandleFunc("GET /api/v1/products/{sku}", productHandler.GetProduct())
	routerMux.HandleFunc("PUT /api/v1/products/{sku}", authMiddleware.Authenticate(productHandler.UpdateProduct()))
	routerMux.HandleFunc("GET /api/v1/products", productHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/carts", authMiddleware.Authenticate(cartHandler.GetCart()))
	routerMux.HandleFunc("POST /api/v1/carts/items", authMiddleware.Authenticate(cartHandler.AddItem()))
	routerMux.HandleFunc("PUT /api/v1/carts/items", authMiddleware.Authenticate(cartHandler.UpdateQuantity()))
	routerMux.HandleFunc("DELETE /api/v1/carts/items/{sku}", authMiddleware.Authenticate(cartHandler.RemoveItem()))
	routerMux.HandleFunc("DELETE /api/v1/carts", authMiddleware.Authenticate(cartHandler.ClearCart()))
	routerMux.HandleFunc("POST /api/v1/checkout/card", authMiddleware.Authenticate(checkoutHandler.CheckoutCard()))
	routerMux.HandleFunc("POST /api/v1/checkout/cash", authMiddleware.Authenticate(checkoutHandler.CheckoutCash()))
	routerMux.HandleFunc("POST /api/v1/checkout/sessions/{ref}/confirm", authMiddleware.Authenticate(checkoutHandler.ConfirmSession()))
	routerMux.HandleFunc("POST /api/v1/payments/webhook", checkoutHandler.HandleWebhook())
	routerMux.HandleFunc("GET /api/v1/receipts", authMiddleware.Authenticate(receiptHandler.ListReceipts()))
	routerMux.HandleFunc("GET /api/v1/receipts/{id}", authMiddleware.Authenticate(receiptHandler.GetReceipt()))
	routerMux.HandleFunc("GET /api/v1/receipts/session/{ref}", authMiddleware.Authenticate(receiptHandler.GetReceiptBySessionRef()))
	routerMux.HandleFunc("POST /api/v1/receipts/{id}/deliver", authMiddleware.Authenticate(receiptHandler.MarkDelivered()))
	routerMux.HandleFunc("POST /api/v1/notifications/email", authMiddleware.Authenticate(notificationHandler.SendEmail()))
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())

	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)

	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("Server is starting", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("Failed to start server", slog.String("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("Shutdown signal received, stopping the server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("Server shut down gracefully")
	}
}
