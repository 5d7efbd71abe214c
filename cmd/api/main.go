package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"

	"orderdesk/docs"
	"orderdesk/pkg/catalog"
	"orderdesk/pkg/config"
	"orderdesk/pkg/customer"
	custmem "orderdesk/pkg/customer/memory"
	custpg "orderdesk/pkg/customer/postgres"
	"orderdesk/pkg/db"
	"orderdesk/pkg/logger"
	"orderdesk/pkg/metrics"
	"orderdesk/pkg/order"
	ordermem "orderdesk/pkg/order/memory"
	orderpg "orderdesk/pkg/order/postgres"
	"orderdesk/pkg/otel"
	"orderdesk/pkg/payment"
	"orderdesk/pkg/session"
	sessmem "orderdesk/pkg/session/memory"
	"orderdesk/pkg/session/redisstore"
)

var (
	cfg       *config.Config
	log       *logger.Logger
	tracer    trace.Tracer
	sessions  *session.Manager
	orders    *order.Service
	payments  *payment.Service
	customers *customer.Service
	products  *catalog.Catalog
	limiter   *rateLimiter
)

// @title OrderDesk API
// @version 2.4.1
// @description Order management API: customers, products and the order lifecycle.
// @host localhost:8443
// @BasePath /
// @securityDefinitions.apikey SessionAuth
// @in header
// @name X-Session-ID
func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log = logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), cfg.AppName, otel.GetTraceID)
	defer log.Sync()

	if err := run(); err != nil {
		log.Error(context.Background(), "shutdown", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdownTracing, err := otel.InitTracing(log, otel.Config{
		ServiceName: cfg.AppName,
		Host:        cfg.OTelHost,
		Probability: cfg.OTelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())
	tracer = tp.Tracer(cfg.AppName)

	var (
		orderRepo    order.Repository
		customerRepo customer.Repository
	)
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer conn.Close()
		orderRepo = orderpg.New(conn)
		customerRepo = custpg.New(conn)
		log.Info(ctx, "storage", "backend", "postgres")
	} else {
		orderRepo = ordermem.New()
		customerRepo = custmem.New(customer.Seed(time.Now().UTC())...)
		log.Info(ctx, "storage", "backend", "memory")
	}

	var sessionStore session.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		sessionStore = redisstore.New(rdb)
	} else {
		sessionStore = sessmem.New()
	}
	sessions = session.NewManager(sessionStore, log)
	if cfg.SeedDevSessions {
		if err := sessions.Seed(ctx, session.DevSessions(time.Now())...); err != nil {
			return fmt.Errorf("seed sessions: %w", err)
		}
		log.Warn(ctx, "dev_sessions_seeded")
	}
	if d := cfg.SweepInterval(); d > 0 {
		sessions.StartSweeper(ctx, d)
	}

	log.Info(ctx, "payment_gateway", "url", cfg.PaymentGatewayURL, "mode", "simulated")
	payments = payment.New(log, payment.WithCallTimeout(cfg.PaymentGatewayTimeout()))

	products = catalog.New(catalog.Seed()...)
	customers = customer.NewService(customerRepo, log)
	orders = order.NewService(orderRepo, payments, log, order.WithProducts(products))
	limiter = newRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow())
	limiter.StartCleanup(ctx, 10*time.Minute)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.HTTPAddr, "tls", cfg.TLSEnabled())
		if cfg.TLSEnabled() {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(recoverMiddleware, traceMiddleware, loggingMiddleware, metricsMiddleware, limiter.Handler)
	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/auth/login", loginHandler).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", logoutHandler).Methods(http.MethodPost)
	r.HandleFunc("/auth/session", sessionHandler).Methods(http.MethodGet)

	r.HandleFunc("/api/v1/products", listProductsHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/products/sku/{sku}", getProductBySKUHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/products/{id}", getProductHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1/orders").Subrouter()
	api.Use(authMiddleware)
	api.HandleFunc("", createOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("", listOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/{id}", getOrderHandler).Methods(http.MethodGet)
	api.HandleFunc("/{id}", updateOrderHandler).Methods(http.MethodPatch)
	api.HandleFunc("/{id}/cancel", cancelOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/{id}/status", transitionOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/{id}/payment", getOrderPaymentHandler).Methods(http.MethodGet)

	cust := r.PathPrefix("/api/v1/customers").Subrouter()
	cust.Use(authMiddleware)
	cust.HandleFunc("", listCustomersHandler).Methods(http.MethodGet)
	cust.HandleFunc("", createCustomerHandler).Methods(http.MethodPost)
	cust.HandleFunc("/{id}", getCustomerHandler).Methods(http.MethodGet)
	cust.HandleFunc("/{id}", updateCustomerHandler).Methods(http.MethodPatch)
	cust.HandleFunc("/{id}", deactivateCustomerHandler).Methods(http.MethodDelete)
	cust.HandleFunc("/{id}/orders", customerOrdersHandler).Methods(http.MethodGet)

	if cfg.Debug {
		docs.SwaggerInfo.Version = cfg.AppVersion
		r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	}
	return r
}

// healthHandler reports liveness.
// @Summary Health check
// @Produce json
// @Success 200 {object} healthResponse
// @Router /health [get]
func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Version: cfg.AppVersion})
}
