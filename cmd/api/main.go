package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jovanglig/aigeniusresume/internal/config"
	"github.com/jovanglig/aigeniusresume/internal/handlers"
	"github.com/jovanglig/aigeniusresume/internal/middleware"
	"github.com/jovanglig/aigeniusresume/internal/models"
	"github.com/jovanglig/aigeniusresume/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Println("✅ Config loaded successfully")

	// Initialize LLM client behind the shared pool
	ctx := context.Background()
	client, err := services.NewCompletionClient(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("❌ Failed to initialize LLM client: %v", err)
	}
	pool := services.NewCompletionPool(client, cfg.Worker)
	log.Printf("✅ LLM client initialized (provider=%s model=%s)\n", cfg.LLM.Provider, cfg.LLM.Model)

	// Initialize services
	rubric := models.DefaultRubric()
	documents := services.NewDocumentExtractor(cfg.Extractor)
	uploads := services.NewUploadReader(cfg.Storage.MaxFileSize)

	orchestrator, err := services.NewAnalysisOrchestrator(services.OrchestratorDeps{
		Completion: pool,
		Documents:  documents,
		Rubric:     &rubric,
		Chunking:   cfg.Chunking,
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize analysis orchestrator: %v", err)
	}
	log.Println("✅ Services initialized successfully")

	// Initialize Handlers
	analyzeHandler := handlers.NewAnalyzeHandler(orchestrator, documents, uploads, cfg.IsProduction())
	rubricHandler := handlers.NewRubricHandler(rubric)
	healthHandler := handlers.NewHealthHandler(pool)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "AI Genius Resume API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path} ${respHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigin,
		AllowMethods: "GET,POST",
		AllowHeaders: "Content-Type",
	}))

	// Routes
	api := app.Group("/api")

	api.Get("/health", healthHandler.HandleHealth)
	api.Get("/rubric", rubricHandler.HandleGetRubric)

	limited := middleware.RateLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
	api.Post("/analyze-resume", limited, analyzeHandler.HandleAnalyze)
	api.Post("/score-resume", limited, analyzeHandler.HandleScore)
	api.Post("/extract-resume", limited, analyzeHandler.HandleExtract)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "AI Genius Resume API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/analyze-resume",
				"POST /api/score-resume",
				"POST /api/extract-resume",
				"GET /api/rubric",
				"GET /api/health",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		<-quit
		log.Println("\n🛑 Shutting down server...")
		if err := app.ShutdownWithTimeout(cfg.LLM.RequestTimeout + 5*time.Second); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
		pool.Stop()
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
	<-stopped
	log.Println("👋 Server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
