package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/okian/pacegrid/internal/adapters/http/api"
	"github.com/okian/pacegrid/internal/adapters/mq/hub"
	"github.com/okian/pacegrid/internal/adapters/paceman"
	"github.com/okian/pacegrid/internal/adapters/repository"
	app "github.com/okian/pacegrid/internal/app"
	"github.com/okian/pacegrid/internal/config"
	"github.com/okian/pacegrid/internal/domain/pbcache"
	"github.com/okian/pacegrid/pkg/logger"
)

const (
	redisPingTimeout = 3 * time.Second
	pbRateBurst      = 2
)

// components is the wired process.
type components struct {
	svc     *app.Service
	hub     *hub.Hub
	handler http.Handler
	closers []func() error
}

// Close releases stores and the hub after the service stopped.
func (c *components) Close() {
	c.hub.Close()
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

// wire builds every component from cfg without starting anything.
func wire(ctx context.Context, cfg *config.Config, log logger.Logger) (*components, error) {
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	c := &components{}

	clientOpts := []paceman.Option{paceman.WithTimeout(cfg.RequestTimeout)}
	var source paceman.LiveRunsSource
	if cfg.EventID != "" {
		source = paceman.NewEventClient(cfg.BackendURL, cfg.EventID, clientOpts...)
		log.Info(ctx, "using event feed", logger.String("event_id", cfg.EventID))
	} else {
		source = paceman.NewFeedClient(cfg.FeedURL, clientOpts...)
	}
	pbClient := paceman.NewPBClient(cfg.BackendURL,
		append(clientOpts, paceman.WithRateLimit(cfg.PBRatePerSecond, pbRateBurst))...)

	cacheOpts := []pbcache.Option{
		pbcache.WithTTL(cfg.PBCacheTTL),
		pbcache.WithConcurrency(cfg.PBConcurrency),
	}
	if cfg.SQLitePath != "" {
		pbStore, err := repository.OpenSQLitePBStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open pb store: %w", err)
		}
		c.closers = append(c.closers, pbStore.Close)
		cacheOpts = append(cacheOpts, pbcache.WithPersister(pbStore))
		log.Info(ctx, "pb cache persisted to sqlite", logger.String("path", cfg.SQLitePath))
	}
	cache := pbcache.New(pbClient, cacheOpts...)

	var store repository.SnapshotStore = repository.NewMemoryStore()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			log.Warn(ctx, "redis unavailable; keeping snapshots in memory",
				logger.String("redis_addr", cfg.RedisAddr), logger.Error(err))
		} else {
			c.closers = append(c.closers, client.Close)
			store = repository.NewRedisStore(client, repository.WithKeyPrefix(cfg.RedisKey))
			log.Info(ctx, "snapshots stored in redis", logger.String("redis_addr", cfg.RedisAddr))
		}
	}

	c.hub = hub.New()
	c.svc = app.New(
		app.WithLogger(log.Named("service")),
		app.WithFeed(source),
		app.WithPBCache(cache),
		app.WithStore(store),
		app.WithHub(c.hub),
		app.WithSettings(settings),
		app.WithPollInterval(cfg.PollInterval),
		app.WithRescoreInterval(cfg.RescoreInterval),
	)
	c.handler = api.NewServer(c.svc, c.svc, c.hub).Routes()
	return c, nil
}
