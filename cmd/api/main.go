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

	"sipsync/internal/api"
	"sipsync/internal/api/handlers/health"
	"sipsync/internal/core/ai/cache"
	"sipsync/internal/core/ai/gemini"
	"sipsync/internal/core/ai/openrouter"
	"sipsync/internal/core/ai/provider"
	"sipsync/internal/core/ai/service"
	"sipsync/internal/core/history"
	"sipsync/internal/core/places"
	"sipsync/internal/core/recommend"
	"sipsync/internal/core/remedy"
	"sipsync/internal/core/translate"
	"sipsync/internal/core/video"
	"sipsync/internal/core/weather"
	"sipsync/internal/infrastructure/config"
	"sipsync/internal/observability/metrics"
	"sipsync/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("openrouter_api_key", cfg.OpenRouter.APIKey),
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("history_backend", cfg.History.Backend),
	)

	ctx := context.Background()

	// 指標
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// 知識庫，資料有誤時無法啟動
	catalog, err := remedy.LoadFile(cfg.Catalog.Path)
	if err != nil {
		var ie *remedy.IntegrityError
		if errors.As(err, &ie) {
			common.LogFatal("Remedy catalog failed integrity check", zap.String("ailment", ie.Key), zap.String("reason", ie.Reason))
		}
		common.LogFatal("Failed to load remedy catalog", zap.Error(err))
	}
	common.LogInfo("Remedy catalog loaded", zap.Int("ailments", catalog.Len()))

	// Redis 只在緩存或紀錄使用時建立
	var rdb *redis.Client
	if (cfg.Cache.Enabled && cfg.Cache.Backend == "redis") || cfg.History.Backend == "redis" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			common.LogWarn("Redis is not reachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
	}

	// 文字生成服務
	p, err := newProvider(ctx, cfg)
	if err != nil {
		common.LogCollaboratorFailure("AI provider unavailable, using local fallbacks", err)
	}
	aiService := service.NewService(p, newCache(cfg, rdb), m, cfg.AI.Timeout)
	defer aiService.Close()

	// 使用者紀錄
	var store history.Store = history.NewMemoryStore()
	if cfg.History.Backend == "redis" {
		store = history.NewRedisStore(rdb)
	}

	recommender := recommend.NewService(recommend.Dependencies{
		Catalog:   catalog,
		Generator: aiService,
		Weather: weather.NewClient(weather.Config{
			APIKey:  cfg.Weather.APIKey,
			BaseURL: cfg.Weather.BaseURL,
			Timeout: cfg.Weather.Timeout,
		}, m),
		History:    store,
		Translator: translate.NewTranslator(aiService),
		Metrics:    m,
	})

	svc := api.Services{
		Recommender: recommender,
		Stores: places.NewClient(places.Config{
			GeocodeURL:   cfg.Places.GeocodeURL,
			OverpassURL:  cfg.Places.OverpassURL,
			UserAgent:    cfg.Places.UserAgent,
			RadiusMeters: cfg.Places.RadiusMeters,
			Timeout:      cfg.Places.Timeout,
		}, m),
		History:  store,
		Metrics:  m,
		Gatherer: registry,
		Checks:   map[string]health.Checker{},
	}

	videos, err := video.NewSearcher(ctx, video.Config{
		APIKey:     cfg.Video.APIKey,
		Endpoint:   cfg.Video.Endpoint,
		MaxResults: cfg.Video.MaxResults,
		Timeout:    cfg.Video.Timeout,
	}, m)
	if err != nil {
		common.LogError("Failed to initialize video search", zap.Error(err))
	} else {
		svc.Videos = videos
	}

	if rdb != nil {
		defer rdb.Close()
		svc.Checks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
	}

	// 設置路由
	router, err := api.SetupRouter(cfg, svc)
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		return
	}

	common.LogInfo("Server exited")
}

// newProvider 依設定建立文字生成提供者；none 或缺少金鑰時回傳 nil
func newProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.AI.Provider {
	case "openrouter":
		if cfg.OpenRouter.APIKey == "" {
			return nil, common.NewConfigError("openrouter", "OPENROUTER_API_KEY")
		}
		return openrouter.NewClient(openrouter.Config{
			APIKey:  cfg.OpenRouter.APIKey,
			Model:   cfg.OpenRouter.Model,
			BaseURL: cfg.OpenRouter.BaseURL,
			Timeout: cfg.AI.Timeout,
		}), nil
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, nil
	}
}

// newCache 依設定建立生成結果緩存；未啟用時回傳 nil
func newCache(cfg *config.Config, rdb *redis.Client) cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	if cfg.Cache.Backend == "redis" {
		return cache.NewService(rdb, cfg.Cache.TTL)
	}
	return cache.NewManager(cfg.Cache.MaxSize, cfg.Cache.TTL)
}
