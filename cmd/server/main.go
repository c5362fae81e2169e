package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/eventlens/api/internal/artifact"
	"github.com/eventlens/api/internal/config"
	"github.com/eventlens/api/internal/encoder"
	"github.com/eventlens/api/internal/handler"
	"github.com/eventlens/api/internal/jobstore"
	"github.com/eventlens/api/internal/middleware"
	"github.com/eventlens/api/internal/photos"
	"github.com/eventlens/api/internal/service"
	"github.com/eventlens/api/internal/worker"
	"github.com/eventlens/api/internal/workspace"
	ws "github.com/eventlens/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Pipeline components
	store := jobstore.NewRedisStore(redisClient, cfg.Pipeline.JobRetention)
	library := photos.NewClient(&cfg.Photos)
	workspaces := workspace.NewManager(cfg.Pipeline.WorkDir)
	artifacts, err := artifact.NewStore(cfg.Pipeline.ReelsDir, cfg.Pipeline.ReelsPublic)
	if err != nil {
		log.Fatalf("Failed to initialize artifact store: %v", err)
	}
	ffmpeg := encoder.NewFFmpeg(cfg.Pipeline.FFmpegPath)

	// Service and handler
	reelService := service.NewReelService(store, library, artifacts, asynqClient, cfg.Pipeline.JobTimeout)
	reelHandler := handler.NewReelHandler(reelService, validate)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Finished reels are served as static files.
	app.Static(cfg.Pipeline.ReelsPublic, cfg.Pipeline.ReelsDir)

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())

	events := api.Group("/events/:eventId")
	events.Post("/reel", rateLimiter.SubmitLimit(cfg.RateLimit.SubmitPerHour), reelHandler.Submit)
	events.Get("/reel/status/:jobId", reelHandler.Status)
	events.Get("/reels", reelHandler.List)
	events.Delete("/reels/:filename", reelHandler.Delete)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, store, library, workspaces, ffmpeg, artifacts, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(cfg *config.Config, store jobstore.Store, library photos.Library, workspaces *workspace.Manager, enc worker.Encoder, artifacts *artifact.Store, hub *ws.Hub) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Pipeline.Concurrency,
			Queues: map[string]int{
				"reel": 1,
			},
		},
	)

	reelWorker := worker.NewReelWorker(store, library, workspaces, enc, artifacts, hub)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeReel, reelWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
