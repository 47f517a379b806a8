package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/RodgersChayuga/hekaheka-backend/api/controllers"
	"github.com/RodgersChayuga/hekaheka-backend/api/routes"
	"github.com/RodgersChayuga/hekaheka-backend/internal/bindings"
	"github.com/RodgersChayuga/hekaheka-backend/internal/chain"
	"github.com/RodgersChayuga/hekaheka-backend/internal/index"
	"github.com/RodgersChayuga/hekaheka-backend/internal/market"
	"github.com/RodgersChayuga/hekaheka-backend/internal/nft"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/config"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/db"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/logger"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/metrics"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/redis"
	"github.com/RodgersChayuga/hekaheka-backend/pkg/wei"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, listing cache and rate limiting disabled")
	}

	devFund, err := wei.ParseEther(cfg.Chain.DevFundETH)
	if err != nil {
		logg.Error(context.Background(), "invalid dev funding amount", err)
		os.Exit(1)
	}
	mintFee, err := wei.ParseEther(cfg.Chain.MintFeeETH)
	if err != nil {
		logg.Error(context.Background(), "invalid mint fee", err)
		os.Exit(1)
	}
	listingFee, err := wei.ParseEther(cfg.Chain.ListingFeeETH)
	if err != nil {
		logg.Error(context.Background(), "invalid listing fee", err)
		os.Exit(1)
	}

	backend, accounts := chain.NewDevBackend(cfg.Chain.DevAccounts, devFund)
	owner := accounts[0]
	nftContract := nft.Deploy(backend, owner, mintFee)
	marketContract := market.Deploy(backend, owner, nftContract)

	nftBinding := bindings.NewComicNFT(backend, nftContract, logg)
	marketBinding := bindings.NewMarketplace(backend, marketContract, logg)

	if listingFee.Cmp(market.DefaultListingFee) != 0 {
		if _, err := marketBinding.SetListingFee(context.Background(), owner, listingFee); err != nil {
			logg.Error(context.Background(), "failed to configure listing fee", err)
			os.Exit(1)
		}
	}
	if cfg.Chain.PlatformFeeBps != market.DefaultPlatformFeeBps {
		if _, err := marketBinding.SetPlatformFeePercent(context.Background(), owner, cfg.Chain.PlatformFeeBps); err != nil {
			logg.Error(context.Background(), "failed to configure platform fee", err)
			os.Exit(1)
		}
	}

	var cache index.ListingCache
	if redisClient != nil {
		cache = redisClient
	}
	indexService := index.NewService(dbClient, cache, cfg.Redis.ListingTTL, logg)
	if cfg.FeatureFlags.AutoMigrate {
		if err := indexService.Migrate(); err != nil {
			logg.Error(context.Background(), "failed to migrate index schema", err)
			os.Exit(1)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	chainMetrics := metrics.NewChainMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"nft":         nftBinding.Address().Hex(),
		"marketplace": marketBinding.Address().Hex(),
		"owner":       owner.Hex(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			DB:    dbClient,
			Redis: redisClient,
			Comics: controllers.ComicDeps{
				NFT:     nftBinding,
				Index:   indexService,
				Metrics: chainMetrics,
			},
			Market: controllers.MarketDeps{
				Market:  marketBinding,
				Index:   indexService,
				Metrics: chainMetrics,
			},
			Admin: controllers.AdminDeps{
				NFT:     nftBinding,
				Market:  marketBinding,
				Metrics: chainMetrics,
			},
			Registry: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
