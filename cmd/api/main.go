package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wisdom-keeper/backend/internal/api/handlers"
	rediscache "github.com/wisdom-keeper/backend/internal/cache/redis"
	"github.com/wisdom-keeper/backend/internal/ledger"
	"github.com/wisdom-keeper/backend/internal/metrics"
	"github.com/wisdom-keeper/backend/internal/middleware/ratelimit"
	"github.com/wisdom-keeper/backend/internal/middleware/security"
	"github.com/wisdom-keeper/backend/internal/middleware/validation"
	"github.com/wisdom-keeper/backend/internal/orchestrator"
	"github.com/wisdom-keeper/backend/internal/pattern"
	"github.com/wisdom-keeper/backend/internal/persona"
	"github.com/wisdom-keeper/backend/internal/provider"
	"github.com/wisdom-keeper/backend/internal/proxy"
	"github.com/wisdom-keeper/backend/internal/session"
	"github.com/wisdom-keeper/backend/pkg/config"
	appLogger "github.com/wisdom-keeper/backend/pkg/logger"
)

func main() {
	// Optional .env for local development; real deployments use the
	// environment directly.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Wisdom Keeper API Server")

	metrics.Init()

	// Quota survives restarts via SQLite; if the store cannot be opened the
	// ledger falls back to memory and providers stay callable.
	var usageStore ledger.Store
	sqliteStore, err := ledger.NewSQLiteStore(cfg.SQLite.Path)
	if err != nil {
		appLogger.Warn("Failed to open usage store, quota will not persist", zap.Error(err))
		usageStore = ledger.NewMemoryStore()
	} else {
		usageStore = sqliteStore
		defer sqliteStore.Close()
	}
	usage := ledger.New(usageStore)

	providerConfigs := make([]provider.Config, 0, len(cfg.Providers.Registry))
	for _, p := range cfg.Providers.Registry {
		providerConfigs = append(providerConfigs, provider.Config{
			ID:         p.ID,
			Name:       p.Name,
			Endpoint:   p.Endpoint,
			Models:     p.Models,
			DailyLimit: p.DailyLimit,
		})
	}

	registry, err := provider.NewRegistry(providerConfigs, cfg.Providers.Order)
	if err != nil {
		appLogger.Fatal("Invalid provider configuration", zap.Error(err))
	}

	gateway := provider.NewGateway(registry, usage, provider.GatewayConfig{
		SystemPrompt: persona.SystemPrompt,
		MaxTokens:    cfg.Chat.MaxTokens,
		Temperature:  cfg.Chat.Temperature,
		CallTimeout:  time.Duration(cfg.Chat.CallTimeoutSec) * time.Second,
	})

	engine := orchestrator.NewEngine(
		gateway,
		cfg.Providers.Order,
		persona.NewStylist(nil),
		pattern.NewResponder(nil),
		cfg.Chat.MinResponseLength,
	)

	var replyCache *rediscache.Client
	if cfg.Redis.Enabled {
		cache, err := rediscache.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Failed to connect to Redis, reply cache disabled", zap.Error(err))
		} else {
			defer cache.Close()
			replyCache = cache
			engine = engine.WithCache(replyCache, time.Duration(cfg.Redis.ReplyTTLMin)*time.Minute)
		}
	}

	sessions := session.NewManager(engine, time.Duration(cfg.Chat.SessionIdleMin)*time.Minute)
	defer sessions.Close()

	upstreams := []proxy.Upstream{
		proxy.NewOpenAICompatible("groq", cfg.Upstreams.Groq.APIKey, cfg.Upstreams.Groq.BaseURL, cfg.Upstreams.Groq.DefaultModel),
		proxy.NewOpenAICompatible("together", cfg.Upstreams.Together.APIKey, cfg.Upstreams.Together.BaseURL, cfg.Upstreams.Together.DefaultModel),
		proxy.NewOpenAICompatible("openrouter", cfg.Upstreams.OpenRouter.APIKey, cfg.Upstreams.OpenRouter.BaseURL, cfg.Upstreams.OpenRouter.DefaultModel),
		proxy.NewHuggingFace(cfg.Upstreams.HuggingFace.APIKey, cfg.Upstreams.HuggingFace.BaseURL, cfg.Upstreams.HuggingFace.DefaultModel),
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	rateLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Chat.RateLimitPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer rateLimiter.Stop()

	chatHandler := handlers.NewChatHandler(sessions, usage, registry)
	proxyHandler := handlers.NewProxyHandler(upstreams)
	wsHandler := handlers.NewWebSocketHandler(sessions)

	api := app.Group("/api/v1")
	api.Use(rateLimiter.Middleware())
	api.Use(validation.Middleware(validation.Config{
		MaxMessageLength: cfg.Chat.MaxMessageLength,
		Logger:           appLogger.GetLogger(),
	}))

	api.Post("/chat", chatHandler.HandleChat)
	api.Get("/chat/history", chatHandler.GetHistory)
	api.Get("/chat/quota", chatHandler.GetQuota)

	if replyCache != nil {
		api.Post("/admin/cache/invalidate", handlers.NewCacheHandler(replyCache).Invalidate)
	}

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.All("/api/ai/:provider", proxyHandler.Handle)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(wsHandler.HandleConnection))

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
