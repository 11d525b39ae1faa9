package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	v1 "city.newnan/mc-status/api/v1"
	"city.newnan/mc-status/internal/config"
	"city.newnan/mc-status/internal/middleware"
	"city.newnan/mc-status/internal/service"
	"city.newnan/mc-status/internal/sse"
	"city.newnan/mc-status/internal/websocket"
)

// Dependencies 路由使用的运行时组件
type Dependencies struct {
	Service   *service.ServerService
	Broker    *sse.Broker
	WebSocket *websocket.Manager
	Limiter   *middleware.IPRateLimiter
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	gin.SetMode(cfg.Mode)

	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())

	// 配置跨域
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	r.Use(cors.New(corsConfig))

	serverController := v1.NewServerController(deps.Service, cfg.RequestTimeout)

	// 健康检查不限流，供负载均衡器探测
	r.GET("/health", serverController.Health)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Minecraft服务器状态API",
		})
	})

	// API文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	if deps.Limiter != nil {
		api.Use(middleware.RateLimit(deps.Limiter))
	}
	{
		api.GET("/server/status", serverController.GetStatus)
		api.GET("/server/player_info", serverController.GetPlayerInfo)
		api.GET("/player/avatar", serverController.GetAvatar)

		if deps.Broker != nil && deps.WebSocket != nil {
			realtimeController := v1.NewRealtimeController(deps.Broker, deps.WebSocket)
			api.GET("/events", realtimeController.HandleSSE)
			api.GET("/ws", realtimeController.HandleWebSocket)
			api.GET("/realtime/stats", realtimeController.GetRealtimeStats)
		}

		// 未配置密钥时不开放管理接口
		if cfg.JWTSecret != "" {
			adminController := v1.NewAdminController(deps.Service, cfg.RequestTimeout)
			admin := api.Group("/admin")
			admin.Use(middleware.JWTAuth(cfg))
			admin.POST("/command", adminController.ExecuteCommand)
		}
	}

	return r
}
