package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/grocery-pos/internal/backend"
	"github.com/fjod/grocery-pos/internal/catalog"
	"github.com/fjod/grocery-pos/internal/checkout"
	"github.com/fjod/grocery-pos/internal/config"
	h "github.com/fjod/grocery-pos/internal/http"
	"github.com/fjod/grocery-pos/internal/lock"
	"github.com/fjod/grocery-pos/internal/pricing"
	"github.com/fjod/grocery-pos/internal/publisher"
	"github.com/fjod/grocery-pos/internal/terminal"
	"github.com/fjod/grocery-pos/pkg/circuitbreaker"
	"github.com/fjod/grocery-pos/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.DevMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	// propagate trace context to the backend through the instrumented transport
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendClient, err := backend.NewClient(backend.Config{
		BaseURL:            cfg.BackendURL,
		ProductListPath:    cfg.ProductListPath,
		SaleSubmitPath:     cfg.SaleSubmitPath,
		TerminalStatusPath: cfg.TerminalStatusPath,
		SessionCookie:      cfg.SessionCookie,
		RequestTimeout:     cfg.RequestTimeout,
	}, circuitbreaker.Config{
		Name:                "backend",
		ConsecutiveFailures: cfg.BreakerFailures,
		OpenTimeout:         cfg.BreakerOpenTimeout,
	}, log)
	if err != nil {
		log.Fatal("failed to create backend client", zap.Error(err))
	}

	products := catalog.NewCache(backendClient, cfg.SearchLimit, log)
	if err := products.Refresh(ctx); err != nil {
		// terminal still starts; the catalog fills on the next refresh
		log.Warn("initial catalog load failed", zap.Error(err))
	}

	var guard checkout.SubmissionGuard = checkout.NewMemoryGuard()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("redis connection failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		guard = lock.NewRedisGuard(redisClient, cfg.SubmitTimeout+5*time.Second, log)
		log.Info("using redis submission lock", zap.String("addr", cfg.RedisAddr))
	}

	var events checkout.EventPublisher
	publisherDone := make(chan struct{})
	if len(cfg.KafkaBrokers) > 0 {
		salePublisher := publisher.NewSalePublisher(publisher.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...), log)
		events = salePublisher
		go func() {
			salePublisher.Run(ctx)
			close(publisherDone)
		}()
		log.Info("publishing sale events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		close(publisherDone)
	}

	registry := terminal.NewRegistry(cfg.DefaultTerminalID, cfg.MaxTerminals, terminal.SessionConfig{
		Catalog:           products,
		Submitter:         backendClient,
		Guard:             guard,
		Events:            events,
		Calculator:        pricing.NewCalculator(cfg.TaxRate, pricing.NoDiscount{}),
		SubmitTimeout:     cfg.SubmitTimeout,
		SideEffectTimeout: cfg.SideEffectTimeout,
		Log:               log,
	})
	registry.Default()

	poller := terminal.NewStatusPoller(backendClient, registry, cfg.StatusPollInterval, log)
	go poller.Run(ctx)

	router := h.NewRouter(h.RouterConfig{
		Registry:           registry,
		Catalog:            products,
		Limiter:            h.NewRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst, 3*time.Minute),
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		RequireCashier:     true,
		Logger:             log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "pos-terminal"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("POS terminal starting", zap.String("port", cfg.HTTPPort), zap.Int64("terminal_id", cfg.DefaultTerminalID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	go func() {
		log.Info("health service listening", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	log.Info("shutting down POS terminal...")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	sideEffectsDone := make(chan struct{})
	go func() {
		registry.Wait()
		close(sideEffectsDone)
	}()
	select {
	case <-sideEffectsDone:
	case <-shutdownCtx.Done():
		log.Warn("post-sale work did not finish in time")
	}

	select {
	case <-publisherDone:
	case <-shutdownCtx.Done():
		log.Warn("sale publisher did not stop in time")
	}
	log.Info("POS terminal stopped")
}
