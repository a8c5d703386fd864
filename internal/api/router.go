package api

import (
	"fmt"
	"time"

	"sipsync/internal/api/handlers/enrich"
	"sipsync/internal/api/handlers/health"
	"sipsync/internal/api/handlers/profile"
	"sipsync/internal/api/handlers/recommendation"
	"sipsync/internal/api/middleware"
	"sipsync/internal/core/history"
	"sipsync/internal/infrastructure/config"
	"sipsync/internal/observability/metrics"
	"sipsync/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services 路由使用的服務
type Services struct {
	Recommender recommendation.Recommender
	Videos      enrich.VideoSearcher
	Stores      enrich.StoreFinder
	History     history.Store
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Checks      map[string]health.Checker
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc Services) (*gin.Engine, error) {
	if svc.Recommender == nil {
		return nil, fmt.Errorf("recommendation service is required")
	}
	if svc.History == nil {
		return nil, fmt.Errorf("history store is required")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Logger(svc.Metrics))

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	// 設置配置與請求超時
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	})
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck(svc.Checks))
	router.GET("/live", health.LivenessCheck)

	if svc.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{})))
	}

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.Deduplication(cfg.DedupWindow))
	{
		recommendHandler := recommendation.NewHandler(svc.Recommender, svc.History)
		api.POST("/recommendations", recommendHandler.HandleRecommend)

		enrichHandler := enrich.NewHandler(svc.Videos, svc.Stores)
		api.GET("/videos", enrichHandler.HandleVideos)
		api.GET("/stores", enrichHandler.HandleStores)

		profileHandler := profile.NewHandler(svc.History)
		users := api.Group("/users/:id")
		{
			users.GET("/history", profileHandler.HandleHistory)
			users.GET("/stats", profileHandler.HandleStats)
			users.GET("/suggestions", profileHandler.HandleSuggestions)
			users.GET("/preferences", profileHandler.HandleGetPreferences)
			users.PUT("/preferences", profileHandler.HandlePutPreferences)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Bool("videos_enabled", svc.Videos != nil),
		zap.Bool("stores_enabled", svc.Stores != nil),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
