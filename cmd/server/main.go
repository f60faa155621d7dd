package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	activityhandler "keystone/internal/activity/handler"
	"keystone/internal/activity/publisher"
	activityservice "keystone/internal/activity/service"
	activitymemory "keystone/internal/activity/store/memory"
	activitypostgres "keystone/internal/activity/store/postgres"
	"keystone/internal/attestation/contentstore"
	attestationhandler "keystone/internal/attestation/handler"
	"keystone/internal/attestation/ledger"
	"keystone/internal/attestation/lock"
	attestationmetrics "keystone/internal/attestation/metrics"
	attestationservice "keystone/internal/attestation/service"
	"keystone/internal/attestation/simulator"
	"keystone/internal/platform/config"
	"keystone/internal/platform/httpserver"
	"keystone/internal/platform/logger"
	"keystone/internal/platform/metrics"
	"keystone/internal/platform/postgres"
	platformredis "keystone/internal/platform/redis"
	ratelimit "keystone/internal/ratelimit/middleware"
	ratelimitmodels "keystone/internal/ratelimit/models"
	"keystone/internal/ratelimit/store/bucket"
	httptransport "keystone/internal/transport/http"
	"keystone/internal/walletsig"
)

// main loads configuration, wires the attestation and activity modules and runs
// the HTTP server until SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close(log)

	attestation, err := buildAttestation(ctx, cfg, log, infra)
	if err != nil {
		return err
	}
	activity, err := buildActivity(ctx, cfg, log, infra)
	if err != nil {
		return err
	}

	limiter := buildRateLimiter(cfg, log, infra)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:          log,
		Metrics:         metrics.New(),
		CORSOrigins:     cfg.Server.CORSAllowedOrigins,
		TrustedProxies:  cfg.Server.TrustedProxies,
		ReadinessChecks: infra.ReadinessChecks(),
	},
		attestationhandler.New(attestation, activity, log,
			attestationhandler.WithFirstPartyApp(cfg.Server.FirstPartyApp),
			attestationhandler.WithTimeouts(cfg.Server.RequestTimeout, cfg.Server.VerifyTimeout),
			attestationhandler.WithWriteMiddleware(limiter.RateLimit(ratelimitmodels.ClassWrite)),
			attestationhandler.WithReadMiddleware(limiter.RateLimit(ratelimitmodels.ClassRead)),
		),
		activityhandler.New(activity, log),
	)

	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.VerifyTimeout+cfg.WriteBudget())
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting keystone", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// infra holds optional shared connections. Nil fields are not configured.
type infra struct {
	redis     *platformredis.Client
	db        *sql.DB
	publisher *publisher.KafkaPublisher
}

func buildInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{}
	var err error

	if in.redis, err = platformredis.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}
	if in.db, err = postgres.Open(ctx, cfg.Postgres); err != nil {
		in.Close(log)
		return nil, err
	}
	if len(cfg.Kafka.Brokers) > 0 {
		in.publisher, err = publisher.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.ClientID,
			publisher.WithLogger(log),
		)
		if err != nil {
			in.Close(log)
			return nil, err
		}
	}
	return in, nil
}

// ReadinessChecks names a check per configured connection.
func (in *infra) ReadinessChecks() map[string]httptransport.ReadinessCheck {
	checks := map[string]httptransport.ReadinessCheck{}
	if in.redis != nil {
		checks["redis"] = in.redis.Health
	}
	if in.db != nil {
		checks["postgres"] = in.db.PingContext
	}
	return checks
}

func (in *infra) Close(log *slog.Logger) {
	if in.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := in.publisher.Close(ctx); err != nil {
			log.Warn("kafka flush failed", "error", err)
		}
		cancel()
	}
	if in.db != nil {
		_ = in.db.Close()
	}
	if in.redis != nil {
		_ = in.redis.Close()
	}
}

func buildAttestation(ctx context.Context, cfg config.Config, log *slog.Logger, in *infra) (*attestationservice.Service, error) {
	store, err := buildContentStore(cfg, log, in)
	if err != nil {
		return nil, err
	}
	l, err := buildLedger(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var locker attestationservice.AddressLocker = lock.NewShardedLocker(cfg.Lock.Shards)
	if cfg.Lock.Backend == config.LockBackendRedis {
		locker = lock.NewRedisLocker(in.redis.Client, cfg.Lock.TTL, lock.WithLogger(log))
	}

	return attestationservice.New(store, l,
		attestationservice.WithLogger(log),
		attestationservice.WithMetrics(attestationmetrics.New()),
		attestationservice.WithLocker(locker),
		attestationservice.WithWriteBudget(cfg.WriteBudget()),
		attestationservice.WithVerifier(simulator.New(
			simulator.WithDelay(cfg.Simulator.Delay),
			simulator.WithLogger(log),
		)),
		attestationservice.WithSignatureVerifier(walletsig.NewVerifier("")),
	)
}

func buildContentStore(cfg config.Config, log *slog.Logger, in *infra) (*contentstore.Client, error) {
	var blobs contentstore.BlobStore
	if cfg.Storage.LighthouseAPIKey == "" {
		log.Warn("LIGHTHOUSE_API_KEY not set, documents are kept in memory")
		blobs = contentstore.NewMemoryStore()
	} else {
		blobs = contentstore.NewLighthouseClient(cfg.Storage.LighthouseAPIKey,
			contentstore.WithAPIURL(cfg.Storage.APIURL),
			contentstore.WithGatewayURL(cfg.Storage.GatewayURL),
			contentstore.WithHTTPClient(&http.Client{Timeout: cfg.Storage.Timeout}),
			contentstore.WithBreaker(cfg.Storage.BreakerFailures, 15*time.Second),
			contentstore.WithLighthouseLogger(log),
		)
	}

	cacheOpts := []contentstore.CacheOption{contentstore.WithCacheLogger(log)}
	if in.redis != nil {
		cacheOpts = append(cacheOpts, contentstore.WithRemoteCache(contentstore.NewRedisCache(in.redis.Client, cfg.Cache.RedisTTL)))
	}
	cached, err := contentstore.NewCachedStore(blobs, cfg.Cache.Size, cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("build document cache: %w", err)
	}

	return contentstore.NewClient(cached,
		contentstore.WithLogger(log),
		contentstore.WithRetry(cfg.Storage.UploadAttempts, cfg.Storage.BackoffMin, cfg.Storage.BackoffMax),
	), nil
}

func buildLedger(ctx context.Context, cfg config.Config, log *slog.Logger) (attestationservice.Ledger, error) {
	if !cfg.Ledger.HasLedgerCredentials() {
		log.Warn("ledger credentials not set, attestations are anchored in memory")
		return ledger.NewMemoryLedger(), nil
	}
	client, err := ledger.Dial(ctx, cfg.Ledger.RPCURL, cfg.Ledger.PrivateKey, cfg.Ledger.ContractAddress,
		ledger.WithChainID(cfg.Ledger.ChainID),
		ledger.WithSettlementTimeout(cfg.Ledger.SettlementTimeout),
		ledger.WithGasMargin(cfg.Ledger.GasMarginPercent),
		ledger.WithReceiptPoll(cfg.Ledger.ReceiptPoll),
		ledger.WithEVMLogger(log),
	)
	if err != nil {
		return nil, err
	}
	log.Info("ledger client ready",
		"contract", cfg.Ledger.ContractAddress,
		"sender", client.Sender().Hex(),
	)
	return client, nil
}

func buildActivity(ctx context.Context, cfg config.Config, log *slog.Logger, in *infra) (*activityservice.Service, error) {
	var store activityservice.Store
	if in.db != nil {
		pg := activitypostgres.New(in.db)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		store = pg
	} else {
		store = activitymemory.NewInMemoryStore(0)
	}

	opts := []activityservice.Option{activityservice.WithLogger(log)}
	if in.publisher != nil {
		opts = append(opts, activityservice.WithPublisher(in.publisher))
	}
	return activityservice.New(store, opts...)
}

func buildRateLimiter(cfg config.Config, log *slog.Logger, in *infra) *ratelimit.Middleware {
	var store ratelimit.BucketStore = bucket.NewInMemoryBucketStore()
	if in.redis != nil {
		store = bucket.NewRedisBucketStore(in.redis.Client)
	}
	return ratelimit.New(store, log,
		ratelimit.WithDisabled(!cfg.RateLimit.Enabled),
		ratelimit.WithLimit(ratelimitmodels.ClassWrite, ratelimitmodels.Limit{Requests: cfg.RateLimit.WritePerMinute, Window: time.Minute}),
		ratelimit.WithLimit(ratelimitmodels.ClassRead, ratelimitmodels.Limit{Requests: cfg.RateLimit.ReadPerMinute, Window: time.Minute}),
	)
}
