package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "github.com/4sizn/animal-zoom-sub000/internal/handler/http"
	wsHandler "github.com/4sizn/animal-zoom-sub000/internal/handler/websocket"
	"github.com/4sizn/animal-zoom-sub000/internal/hub"
	gormpersistence "github.com/4sizn/animal-zoom-sub000/internal/infra/persistence/gorm"
	"github.com/4sizn/animal-zoom-sub000/internal/infra/setup"
	redisstate "github.com/4sizn/animal-zoom-sub000/internal/infra/state/redis"
	"github.com/4sizn/animal-zoom-sub000/internal/middleware"
	"github.com/4sizn/animal-zoom-sub000/internal/registry"
	"github.com/4sizn/animal-zoom-sub000/internal/roomcode"
	"github.com/4sizn/animal-zoom-sub000/internal/service"
	"github.com/4sizn/animal-zoom-sub000/internal/worker"
)

// App 结构体包含应用的所有组件和配置
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	Scheduler   *worker.Scheduler
	Hub         *hub.Hub
	Relay       *redisstate.Relay // FANOUT_ENABLED=false 时为 nil
	HttpServer  *http.Server
}

// handlers 汇总路由需要的所有 Handler
type handlers struct {
	auth *httpHandler.AuthHandler
	room *httpHandler.RoomHandler
	user *httpHandler.UserHandler
	ws   *wsHandler.WebSocketHandler
}

// NewLogger 根据配置创建 logrus Logger，并设为全局 logger
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)

	// 各层通过 logrus 包级函数记录日志
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(logLevel)
	logrus.SetOutput(os.Stdout)
	return log
}

// NewApp 创建并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := NewLogger(cfg)
	log.WithFields(logrus.Fields{"level": cfg.LogLevel, "env": cfg.AppEnv, "node_id": cfg.NodeID}).Info("Configuration loaded successfully")

	// 3. 初始化基础设施
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database initialized and migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Redis and Asynq clients initialized")

	// 4. 初始化 Repositories
	userRepo := gormpersistence.NewGormUserRepository(db)
	roomRepo := gormpersistence.NewGormRoomRepository(db)
	messageRepo := gormpersistence.NewGormMessageRepository(db)
	waitingRepo := redisstate.NewRedisWaitingRoomRepository(redisClient, cfg.KeyPrefix)

	// 5. 初始化 Services
	authService, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	roomService := service.NewRoomService(roomRepo, userRepo, waitingRepo, roomcode.NewGenerator(), cfg.RoomMaxParticipants)
	chatService := service.NewChatService(roomRepo, messageRepo, cfg.ChatHistoryLimit)
	userService := service.NewUserService(userRepo)
	log.Info("Services initialized")

	// 6. 初始化 Hub 和跨进程广播
	hubInstance := hub.NewHub(registry.NewMemoryRegistry(), roomService, chatService)
	var relay *redisstate.Relay
	if cfg.FanoutEnabled {
		relay = redisstate.NewRelay(redisClient, cfg.KeyPrefix, cfg.NodeID)
		hubInstance.SetFanout(relay)
		log.WithField("node_id", cfg.NodeID).Info("Cross-process fanout enabled")
	}

	// 7. 初始化 Handlers
	h := handlers{
		auth: httpHandler.NewAuthHandler(authService),
		room: httpHandler.NewRoomHandler(roomService, chatService, hubInstance),
		user: httpHandler.NewUserHandler(userService, hubInstance),
		ws:   wsHandler.NewWebSocketHandler(hubInstance, cfg.CORSAllowedOrigin),
	}

	// 8. 初始化 Worker Server 和周期任务
	workerServer := worker.NewWorkerServer(redisClientOpt, worker.NewRoomSweepHandler(roomService, hubInstance), log)
	scheduler, err := worker.NewScheduler(redisClientOpt, cfg.RoomSweepSchedule, cfg.RoomIdleTimeout, log)
	if err != nil {
		return nil, fmt.Errorf("failed to register room sweep schedule %q: %w", cfg.RoomSweepSchedule, err)
	}

	// 9. 初始化 Gin Engine 和路由
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, log, redisClient, h)

	// 10. 组装 App 对象
	app := &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
		AsynqClient: asynqClient,
		AsynqServer: workerServer,
		Scheduler:   scheduler,
		Hub:         hubInstance,
		Relay:       relay,
		HttpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	log.Info("Application assembled successfully")
	return app, nil
}

// newRouter 设置中间件和路由
func newRouter(cfg *Config, log *logrus.Logger, redisClient *redis.Client, h handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(middleware.Metrics())
	router.Use(corsMiddleware(cfg.CORSAllowedOrigin))

	auth := middleware.Auth(cfg.JWTSecret)

	api := router.Group("/api")
	api.Use(middleware.RateLimit(redisClient, cfg.KeyPrefix, cfg.RateLimitMax, cfg.RateLimitWindow))
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.auth.Register)
		authRoutes.POST("/login", h.auth.Login)
	}
	roomRoutes := api.Group("/rooms", auth)
	{
		roomRoutes.POST("", h.room.CreateRoom)
		roomRoutes.GET("/:code", h.room.GetRoom)
		roomRoutes.GET("/:code/participants", h.room.GetParticipants)
		roomRoutes.POST("/:code/join", h.room.JoinRoom)
		roomRoutes.POST("/:code/leave", h.room.LeaveRoom)
		roomRoutes.DELETE("/:code", h.room.DeleteRoom)
		roomRoutes.GET("/:code/messages", h.room.GetMessages)
		roomRoutes.PUT("/:code/settings", h.room.UpdateSettings)
	}
	userRoutes := api.Group("/users", auth)
	{
		userRoutes.GET("/me", h.user.Me)
		userRoutes.PUT("/me/avatar", h.user.UpdateAvatar)
	}

	router.GET("/ws", auth, h.ws.HandleConnection)
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Start 启动应用的所有后台组件和 HTTP 服务器
func (a *App) Start() error {
	if a.Relay != nil {
		if err := a.Relay.Start(context.Background(), a.Hub.DeliverRemote); err != nil {
			return fmt.Errorf("failed to start fanout relay: %w", err)
		}
		a.Log.Info("Fanout relay subscribed")
	}
	if err := a.AsynqServer.Start(); err != nil {
		return err
	}
	if err := a.Scheduler.Start(); err != nil {
		return err
	}
	a.Log.WithField("schedule", a.Config.RoomSweepSchedule).Info("Room sweep scheduled")

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
	return nil
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 停止跨进程订阅
	if a.Relay != nil {
		if err := a.Relay.Close(); err != nil {
			a.Log.Errorf("Error closing fanout relay: %v", err)
		}
	}

	// 2. 停止调度器和 Worker
	if a.Scheduler != nil {
		a.Scheduler.Shutdown()
	}
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	// 3. 停止接受新请求，再关闭现有 WebSocket 连接
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}
	if a.Hub != nil {
		a.Hub.Shutdown()
	}

	// 4. 关闭 Asynq Client
	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}

	// 5. 关闭 Redis 连接
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}

	// 6. 关闭数据库连接池
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Log.Errorf("Error closing database connection: %v", err)
			}
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path, // 不记录查询参数，其中可能带有 token
		})

		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			entry.Error(errorMessage)
		} else if statusCode >= 500 {
			entry.Error("Server error")
		} else if statusCode >= 400 {
			entry.Warn("Client error")
		} else {
			entry.Info("Request handled")
		}
	}
}
