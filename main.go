package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ferryhub/internal/aggregator"
	"ferryhub/internal/booking"
	intconfig "ferryhub/internal/config"
	"ferryhub/internal/events"
	"ferryhub/internal/health"
	router "ferryhub/internal/http"
	"ferryhub/internal/http/handlers"
	"ferryhub/internal/http/middleware"
	"ferryhub/internal/location"
	"ferryhub/internal/metrics"
	"ferryhub/internal/providers"
	"ferryhub/internal/providers/greenocean"
	"ferryhub/internal/providers/makruzz"
	"ferryhub/internal/providers/sealink"
	"ferryhub/internal/repositories"
	"ferryhub/internal/tickets"
	"ferryhub/internal/tracing"
	"ferryhub/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	janitorInterval = time.Minute
	purgeInterval   = 6 * time.Hour
)

func main() {
	if err := run(); err != nil {
		slog.Error("ferryhub stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	env, err := intconfig.LoadEnv()
	if err != nil {
		return err
	}
	logger := utils.NewLogger(os.Stdout, env.LogLevel)
	slog.SetDefault(logger)
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Init(ctx, tracing.Config{ServiceName: "ferryhub", OTLPEndpoint: env.OTLPEndpoint, SampleRate: 1})
	if err != nil {
		return err
	}
	defer shutdown("tracing", tp.Shutdown)

	m := metrics.New()

	db, err := intconfig.ConnectDB(ctx, env.DBDSN)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	snapshots := repositories.SnapshotRepository{DB: db}
	records := repositories.BookingRecordRepository{DB: db}
	if err := snapshots.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := records.EnsureSchema(ctx); err != nil {
		return err
	}

	locations := location.Default()
	deps := providers.Deps{
		Resolver:      locations,
		Metrics:       m,
		Logger:        logger,
		Retry:         env.Retry,
		RatePerSecond: env.ProviderRatePerSecond,
	}
	ps := []providers.Provider{
		sealink.New(env.Sealink, deps),
		makruzz.New(env.Makruzz, deps),
		greenocean.New(env.GreenOcean, deps),
	}
	for _, p := range ps {
		logger.Info("provider registered", "provider", p.Name(), "configured", p.Configured())
	}

	aggCfg := aggregator.Config{Providers: ps, Locations: locations, CacheTTL: env.CacheTTL, Metrics: m, Logger: logger}
	bookCfg := booking.Config{
		Artifacts: tickets.NewLocalStore(env.TicketDir, env.TicketPublicBaseURL),
		Locations: locations,
		Metrics:   m,
		Logger:    logger,
	}
	if db != nil {
		aggCfg.Snapshots = snapshots
		bookCfg.Snapshots = snapshots
		bookCfg.Records = records
	}
	engine := aggregator.New(aggCfg)
	bookCfg.Engine = engine

	var publisher events.Publisher = events.Nop{}
	if len(env.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(env.KafkaBrokers, env.KafkaBookingTopic, m)
	}
	defer publisher.Close()
	bookCfg.Events = publisher

	go engine.Janitor(ctx, janitorInterval)
	if db != nil {
		go purgeSnapshots(ctx, snapshots, logger)
	}

	r := router.NewRouter(router.RouterConfig{
		Ferries: handlers.Ferries{
			Search:  engine,
			Health:  health.New(ps, m, logger),
			Booking: booking.New(bookCfg),
		},
		Metrics:     m,
		Logger:      logger,
		CORSOrigins: env.CORSOrigins,
		Auth:        middleware.AuthConfig{JWTSecret: env.APIJWTSecret, APIKeyHash: env.APIKeyHash},
		TicketDir:   env.TicketDir,
	})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func purgeSnapshots(ctx context.Context, repo repositories.SnapshotRepository, logger *slog.Logger) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.PurgeBefore(ctx, utils.FormatDate(time.Now().In(utils.IST).AddDate(0, 0, -1)))
			if err != nil {
				logger.Warn("snapshot purge failed", "error", err)
				continue
			}
			logger.Info("snapshots purged", "rows", n)
		}
	}
}

func shutdown(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		slog.Warn("shutdown failed", "component", name, "error", err)
	}
}
