package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	eventadapter "tuichain-backend/internal/adapter/events"
	locks "tuichain-backend/internal/adapter/lock"
	settlementadapter "tuichain-backend/internal/adapter/settlement"
	"tuichain-backend/internal/adapter/storage"
	verificationadapter "tuichain-backend/internal/adapter/verification"
	"tuichain-backend/internal/config"
	"tuichain-backend/internal/domain/document"
	"tuichain-backend/internal/domain/events"
	"tuichain-backend/internal/domain/lock"
	"tuichain-backend/internal/domain/settlement"
	"tuichain-backend/internal/infrastructure/cache"
	"tuichain-backend/internal/infrastructure/db"
	"tuichain-backend/internal/logger"
	settlementuc "tuichain-backend/internal/usecase/settlement"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const eventStreamMaxLen = 100_000

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger.Init(cfg.LogLevel)
	if cfg.LogToFile {
		path, err := logger.AddFileLogger(cfg.Workdir)
		if err != nil {
			return nil, fmt.Errorf("file logger: %w", err)
		}
		logger.Logger.Info().Str("path", path).Msg("logging to file")
	}
	return cfg, nil
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	gdb, err := db.OpenGorm(db.Options{
		Driver:     cfg.DBDriver,
		DSN:        cfg.DSN(),
		LogQueries: cfg.LogDBQueries,
		Log:        logger.Component("gorm"),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	return gdb, nil
}

// openRedis returns nil when Redis is not configured.
func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	return cache.OpenRedis(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func newLocker(rdb *redis.Client) lock.Locker {
	const maxWait = 5 * time.Second
	if rdb == nil {
		return locks.NewLocal(maxWait)
	}
	return locks.NewRedis(rdb, maxWait)
}

func newPhaseStore(rdb *redis.Client) settlementuc.PhaseStore {
	if rdb == nil {
		return cache.NewMemoryPhases()
	}
	return cache.NewRedisPhases(rdb)
}

func newSettlementBackend(cfg *config.Config) (settlement.Backend, error) {
	if cfg.SettlementBackend == "memory" {
		logger.Logger.Warn().Msg("using in-memory settlement backend; nothing reaches the chain")
		return settlementadapter.NewMemory(settlement.ChainInfo{
			ChainID:            cfg.ChainID,
			DaiContractAddress: cfg.DaiAddress,
		}), nil
	}
	return settlementadapter.NewHTTPBackend(settlementadapter.HTTPConfig{
		BaseURL:  cfg.SettlementURL,
		Token:    cfg.SettlementToken,
		RetryMax: cfg.SettlementRetryMax,
		Timeout:  cfg.SettlementTimeout,
	}, logger.Component("settlement"))
}

// newBlobStore also returns the cleanup for the store's client.
func newBlobStore(ctx context.Context, cfg *config.Config) (document.BlobStore, func() error, error) {
	if cfg.StorageBackend == "memory" {
		return storage.NewMemory(""), func() error { return nil }, nil
	}
	g, err := storage.NewGCS(ctx, storage.GCSConfig{
		Bucket:          cfg.GCSBucket,
		CredentialsFile: cfg.GCSCredentialsFile,
		PublicRead:      cfg.GCSPublicRead,
	}, logger.Component("gcs"))
	if err != nil {
		return nil, nil, err
	}
	return g, g.Close, nil
}

// newVerificationProvider returns nil when Stripe is not configured.
func newVerificationProvider(cfg *config.Config) *verificationadapter.Stripe {
	if cfg.StripeSecretKey == "" {
		return nil
	}
	return verificationadapter.NewStripe(verificationadapter.StripeConfig{
		SecretKey: cfg.StripeSecretKey,
		ReturnURL: cfg.StripeReturnURL,
	}, logger.Component("stripe"))
}

// newPublisher fans events out to every configured sink. The returned
// cleanup closes the Kafka writer when there is one.
func newPublisher(cfg *config.Config, rdb *redis.Client) (events.Publisher, func() error, error) {
	var sinks eventadapter.Multi
	cleanup := func() error { return nil }
	for _, s := range cfg.Sinks() {
		switch s {
		case "log":
			sinks = append(sinks, eventadapter.NewLog(logger.Component("events")))
		case "redis":
			if rdb == nil {
				return nil, nil, fmt.Errorf("event sink redis: redis is not connected")
			}
			sinks = append(sinks, eventadapter.NewRedisStream(rdb, cfg.EventStream, eventStreamMaxLen))
		case "kafka":
			k, err := eventadapter.NewKafka(cfg.Brokers(), cfg.KafkaTopic)
			if err != nil {
				return nil, nil, err
			}
			sinks = append(sinks, k)
			cleanup = k.Close
		default:
			return nil, nil, fmt.Errorf("unknown event sink %q", s)
		}
	}
	logger.Logger.Info().Str("sinks", strings.Join(cfg.Sinks(), ",")).Msg("event publisher ready")
	return sinks, cleanup, nil
}
