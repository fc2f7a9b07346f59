package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"jewelry-storefront/internal/config"
	"jewelry-storefront/internal/db"
	"jewelry-storefront/internal/events"
	"jewelry-storefront/internal/httpserver"
	"jewelry-storefront/internal/logger"
	"jewelry-storefront/internal/metrics"
	"jewelry-storefront/internal/notice"
	"jewelry-storefront/internal/pricing"
	accountrepo "jewelry-storefront/internal/repository/account"
	categoryrepo "jewelry-storefront/internal/repository/category"
	orderrepo "jewelry-storefront/internal/repository/order"
	productrepo "jewelry-storefront/internal/repository/product"
	profilerepo "jewelry-storefront/internal/repository/profile"
	snapshotrepo "jewelry-storefront/internal/repository/snapshot"
	tokenrepo "jewelry-storefront/internal/repository/token"
	"jewelry-storefront/internal/service/auth"
	"jewelry-storefront/internal/service/cart"
	"jewelry-storefront/internal/service/catalog"
	"jewelry-storefront/internal/service/checkout"
	"jewelry-storefront/internal/service/identity"
	"jewelry-storefront/internal/service/session"
	"jewelry-storefront/internal/storage"
)

func main() {
	log := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, db.Options{}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to db")
	}
	defer pool.Close()

	store, closeStore, err := openStore(ctx, cfg, pool, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open snapshot store")
	}
	defer closeStore()

	threshold, fee, err := cfg.Pricing.Values()
	if err != nil {
		log.Fatal().Err(err).Msg("pricing settings")
	}
	calc := pricing.Calculator{FreeShippingThreshold: threshold, FlatShippingFee: fee}

	m := metrics.New()
	notices := notice.NewQueue(0)

	catalogSvc := catalog.New(productrepo.NewPostgres(pool, log), categoryrepo.NewPostgres(pool), m, log)
	sessions := session.New(store, cfg.Session.TTL)

	tokens := tokenrepo.NewPostgres(pool)
	provider := auth.New(accountrepo.NewPostgres(pool, log), tokens, auth.Config{
		SessionTTL:        cfg.Identity.ProviderSessionTTL,
		FederatedIssuer:   cfg.Identity.FederatedIssuer,
		FederatedAudience: cfg.Identity.FederatedAudience,
		FederatedSecret:   cfg.Identity.FederatedSecret,
	}, log)
	identities := identity.NewStore(provider, profilerepo.NewPostgres(pool), store, notices, log,
		identity.WithRecheckInterval(cfg.Identity.RecheckInterval))
	if err := identities.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("initialize identity store")
	}
	defer identities.Close()

	carts := cart.NewManager(cart.NewSnapshotPersister(store), calc, notices, log, cart.WithRecorder(m))

	var publisher events.Publisher = events.Nop{}
	if cfg.KafkaEnabled() {
		publisher = events.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic)
		log.Info().
			Str("brokers", strings.Join(cfg.Kafka.Brokers, ",")).
			Str("topic", cfg.Kafka.OrdersTopic).
			Msg("order events enabled")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("close event publisher")
		}
	}()

	checkoutSvc := checkout.New(checkout.Deps{
		Orders:     orderrepo.NewPostgres(pool, log),
		Carts:      carts,
		Identities: identities,
		Publisher:  publisher,
		Notifier:   notices,
		Recorder:   m,
		Logger:     log,
	})

	deps := httpserver.Deps{
		Catalog:       catalogSvc,
		Carts:         carts,
		Checkout:      checkoutSvc,
		Identity:      identities,
		Sessions:      sessions,
		Notices:       notices,
		Metrics:       m,
		Pricing:       calc,
		CORSOrigins:   cfg.CORSOrigins,
		SessionCookie: cfg.Session.CookieName,
		SecureCookie:  cfg.Session.Secure,
	}
	if p, ok := store.(storage.Pinger); ok {
		deps.Snapshots = p
	}
	srv, err := httpserver.New(cfg.HTTPAddr, log, pool, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("init server")
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepProviderSessions(sweepCtx, tokens, log)
	go evictIdleSessions(sweepCtx, cfg.Session.IdleTTL, log, carts, identities)

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.Storage.Driver).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := carts.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("flush pending cart writes")
	}
	log.Info().Msg("server stopped")
}

// openStore picks the snapshot backend named by STOREFRONT_STORAGE_DRIVER.
func openStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, log zerolog.Logger) (storage.Store, func(), error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case storage.DriverMemory:
		log.Warn().Msg("using in-memory snapshots; carts and sessions are lost on restart")
		return storage.NewMemory(), func() {}, nil
	case storage.DriverRedis:
		r, err := storage.NewRedis(ctx, cfg.Storage.RedisURL, cfg.Storage.Prefix, cfg.Session.TTL)
		if err != nil {
			return nil, nil, err
		}
		return r, func() {
			if err := r.Close(); err != nil {
				log.Error().Err(err).Msg("close redis")
			}
		}, nil
	default:
		return snapshotrepo.NewPostgres(pool), func() {}, nil
	}
}

const sweepInterval = time.Hour

// sweepProviderSessions drops expired provider sessions until ctx is done.
func sweepProviderSessions(ctx context.Context, tokens tokenrepo.Repository, log zerolog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := tokens.DeleteExpired(ctx, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("sweep provider sessions")
				continue
			}
			if n > 0 {
				log.Info().Int64("removed", n).Msg("expired provider sessions removed")
			}
		}
	}
}

type idleEvicter interface {
	EvictIdle(cutoff time.Time) int
}

// evictIdleSessions drops in-memory carts and identities nobody touched for
// idle. Both reload from their snapshots on the next request.
func evictIdleSessions(ctx context.Context, idle time.Duration, log zerolog.Logger, caches ...idleEvicter) {
	ticker := time.NewTicker(max(idle/2, time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			evicted := 0
			for _, c := range caches {
				evicted += c.EvictIdle(now.Add(-idle))
			}
			if evicted > 0 {
				log.Debug().Int("evicted", evicted).Msg("idle sessions evicted")
			}
		}
	}
}
