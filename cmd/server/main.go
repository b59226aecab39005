package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"thynk/internal/audio"
	"thynk/internal/config"
	"thynk/internal/handlers"
	"thynk/internal/logging"
	"thynk/internal/middleware"
	"thynk/internal/ocr"
	"thynk/internal/services"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Thynk Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, OCR: %s)", cfg.Port, cfg.OCRModel)

	// Connect to Redis. The context store is the core of the system, so
	// an unreachable cache is fatal at startup
	log.Println("🔗 Connecting to Redis...")
	redisService, err := services.NewRedisService(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisService.Close()

	// Completion provider, required for compression, hints, and tutoring
	completions, err := services.NewCompletionService(cfg.ClaudeKey, cfg.ClaudeModel)
	if err != nil {
		log.Fatalf("❌ Failed to initialize completion provider: %v", err)
	}
	log.Printf("✅ Completion provider initialized (model: %s)", cfg.ClaudeModel)

	// Core context pipeline
	contextStore := services.NewContextStore(redisService)
	noveltyFilter := services.NewNoveltyFilter(cfg.SimilarityThreshold)
	compressor := services.NewCompressionService(completions, contextStore)
	retriever := services.NewRetrievalService(contextStore)
	hints := services.NewHintService(completions, retriever)
	tutor := services.NewTutorService(completions)

	// OCR backend selected by configuration
	extractor, err := ocr.New(cfg.OCRModel, ocr.FactoryConfig{
		ClaudeKey:     cfg.ClaudeKey,
		ClaudeModel:   cfg.ClaudeModel,
		VisionBaseURL: cfg.VisionBaseURL,
		VisionAPIKey:  cfg.VisionAPIKey,
		VisionModel:   cfg.VisionModel,
	}, completions)
	if err != nil {
		log.Fatalf("❌ Failed to initialize OCR backend: %v", err)
	}
	if !extractor.Available() {
		log.Printf("⚠️ OCR backend %q is not fully configured, captures will fail until credentials are set", extractor.Name())
	} else {
		log.Printf("✅ OCR backend initialized: %s", extractor.Name())
	}

	// Whisper transcription (optional, lecture mode only)
	transcriber := audio.NewService(cfg.GroqAPIKey, cfg.OpenAIAPIKey)
	if transcriber.Available() {
		log.Println("✅ Audio transcription service initialized")
	} else {
		log.Println("⚠️ No Whisper provider configured - lecture mode disabled")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Thynk v1.0",
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		BodyLimit:    25 * 1024 * 1024, // base64 photo and audio payloads
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("thynk")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// CORS configuration with environment-based origins
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	// Rate limiting
	rateLimitConfig := middleware.LoadRateLimitConfig()
	app.Use(middleware.GlobalRateLimiter(rateLimitConfig))
	captureLimiter := middleware.CaptureRateLimiter(rateLimitConfig)
	log.Printf("🛡️  [RATE-LIMIT] Global=%d/min, Capture=%d/min", rateLimitConfig.GlobalMax, rateLimitConfig.CaptureMax)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	captureHandler := handlers.NewCaptureHandler(extractor, noveltyFilter, compressor)
	audioHandler := handlers.NewAudioHandler(transcriber, compressor)
	contextHandler := handlers.NewContextHandler(contextStore, noveltyFilter, compressor, retriever)
	hintHandler := handlers.NewHintHandler(hints)
	tutorHandler := handlers.NewTutorHandler(tutor)

	// Routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.Handle)

	app.Post("/analyze-capture", captureLimiter, captureHandler.AnalyzeCapture)
	app.Post("/process-audio", captureLimiter, audioHandler.ProcessAudio)

	app.Post("/context-compression", contextHandler.TriggerCompression)
	app.Get("/context-status", contextHandler.Status)
	app.Get("/context", contextHandler.GetContext)
	app.Post("/is-different", contextHandler.IsDifferent)
	app.Delete("/context", contextHandler.Clear)

	app.Post("/hint", hintHandler.GiveHint)
	app.Post("/check-work", tutorHandler.CheckWork)
	app.Post("/next-step", tutorHandler.NextStep)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
