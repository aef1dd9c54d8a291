package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"filebox/backend/internal/auth"
	jwtpkg "filebox/backend/internal/auth/jwt"
	"filebox/backend/internal/config"
	"filebox/backend/internal/health"
	"filebox/backend/internal/logger"
	"filebox/backend/internal/monitoring"
	"filebox/backend/internal/relay"
	"filebox/backend/internal/service"
	"filebox/backend/internal/storage"
	"filebox/backend/internal/storage/jsonfile"
	"filebox/backend/internal/storage/memory"
	redisstore "filebox/backend/internal/storage/redis"
	sqlstore "filebox/backend/internal/storage/sql"
	"filebox/backend/internal/token"
	httptransport "filebox/backend/internal/transport/http"
)

// main 是 filebox HTTP 服务的程序入口。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     cfg.Log.File,
		MaxSize:     cfg.Log.MaxSize,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAge:      cfg.Log.MaxAge,
		Compress:    cfg.Log.Compress,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()
	log.Info("starting filebox server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化存储层
	repo, err := initializeStorage(cfg, log)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize storage: %v", err))
	}
	defer repo.Close()

	// 可选的 Redis 读缓存
	if cfg.Redis.Enabled {
		cached, err := redisstore.NewCache(repo, &cfg.Redis, log)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize redis cache: %v", err))
		}
		repo = cached
		log.Info("redis metadata cache enabled", zap.String("address", cfg.Redis.Address))
	}

	// 上游存储中继客户端
	if cfg.Relay.BotToken == "" || cfg.Relay.ChatID == "" {
		panic("relay.bot_token and relay.chat_id must be set")
	}
	relayClient := relay.New(&cfg.Relay, log)

	// 初始化服务层
	fileService := service.NewFileService(repo, relayClient, log)

	// 能力令牌服务
	tokenService, err := token.NewService(cfg.Token.Secret, cfg.Token.DefaultTTL)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize token service: %v", err))
	}
	log.Info("capability token service initialized",
		zap.Duration("default_ttl", cfg.Token.DefaultTTL),
	)

	// 会话认证
	authService := auth.NewService(cfg.Auth.SessionPassword)
	jwtManager := jwtpkg.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.SessionExpiry)

	// 监控与健康检查
	metrics := monitoring.NewMetrics()
	healthChecker := health.NewHealthChecker(repo, log)

	// 创建 HTTP 路由
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:        cfg,
		FileService:   fileService,
		TokenService:  tokenService,
		AuthService:   authService,
		JWTManager:    jwtManager,
		Metrics:       metrics,
		HealthChecker: healthChecker,
		Logger:        log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("HTTP server listening", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", zap.Error(err))
	} else {
		log.Info("server stopped cleanly")
	}
}

// initializeStorage 根据配置选择元数据存储后端
func initializeStorage(cfg *config.Config, log *zap.Logger) (storage.FileRepository, error) {
	switch cfg.Storage.Backend {
	case "memory":
		log.Info("using memory storage (development mode)")
		return memory.NewStore(), nil
	case "jsonfile":
		log.Info("using jsonfile storage", zap.String("path", cfg.Storage.SnapshotPath))
		return jsonfile.NewStore(cfg.Storage.SnapshotPath)
	case "mysql", "postgres":
		log.Info("using database storage", zap.String("driver", cfg.Storage.Backend))
		return sqlstore.NewStore(
			cfg.Storage.Backend,
			cfg.Storage.DSN,
			cfg.Storage.MaxOpenConns,
			cfg.Storage.MaxIdleConns,
			cfg.Storage.ConnMaxLifetime,
		)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}
