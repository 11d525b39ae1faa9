package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "city.newnan/mc-status/docs"
	"city.newnan/mc-status/internal/config"
	"city.newnan/mc-status/internal/logger"
	"city.newnan/mc-status/internal/middleware"
	"city.newnan/mc-status/internal/router"
	"city.newnan/mc-status/internal/service"
	"city.newnan/mc-status/internal/sse"
	"city.newnan/mc-status/internal/websocket"
	"city.newnan/mc-status/pkg/mccontrol"
	"city.newnan/mc-status/pkg/mcparse"
)

// @title           Minecraft Status API
// @version         1.0
// @description     Minecraft 服务器状态与在线玩家查询 API

// @contact.name   API 支持
// @contact.url    http://www.newnan.city/support

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        Authorization
// @description                 Bearer 认证, 例如: "Bearer {token}"

func main() {
	// 加载配置，必需项缺失时直接退出
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("配置错误: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	gameHost, gamePort, err := cfg.GameServer()
	if err != nil {
		logger.Fatalf("配置错误: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rcon := mccontrol.NewRconManager(mccontrol.RconOptions{
		Host:      cfg.RconHost,
		Port:      cfg.RconPort,
		Password:  cfg.RconPassword,
		RetryBase: cfg.RconRetryBase,
		RetryMax:  cfg.RconRetryMax,
	})
	defer rcon.Close()

	// 后台建立RCON连接，HTTP服务不必等待
	go func() {
		if err := rcon.Connect(ctx); err != nil {
			logger.Warnf("RCON初始连接中止: %v", err)
		}
	}()

	querier := mccontrol.NewPingQuerier(gameHost, gamePort, cfg.StatusTimeout)
	dims := mcparse.NewDimensionResolver(cfg.DimensionMapPath)
	svc := service.NewServerService(rcon, querier, dims, cfg.AvatarURLTemplate)

	// 实时推送
	broker := sse.NewBroker()
	broker.Start(ctx)
	wsManager := websocket.NewManager()
	wsManager.Start(ctx)
	svc.StartMonitoring(ctx, cfg.MonitorInterval, broker, wsManager)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit, cfg.RateBurst)
	go limiter.RunJanitor(ctx)

	r := router.SetupRouter(cfg, router.Dependencies{
		Service:   svc,
		Broker:    broker,
		WebSocket: wsManager,
		Limiter:   limiter,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("监听失败: %v", err)
		}
	}()

	logger.Infof("服务器开始运行，监听: %s，RCON: %s:%d，目标服务器: %s:%d",
		cfg.ListenAddr(), cfg.RconHost, cfg.RconPort, gameHost, gamePort)
	if cfg.JWTSecret == "" {
		logger.Infof("未配置 JWT_SECRET，管理接口未开放")
	}

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("正在关闭服务器...")

	// 先停止后台任务，阻塞在RCON重连上的请求随之返回
	cancel()
	rcon.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("服务器被强制关闭: %v", err)
	}

	logger.Infof("服务器优雅退出")
}
