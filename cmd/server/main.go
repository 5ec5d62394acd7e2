package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlesonielfa/isthatslop-sub000/internal/auth"
	"github.com/carlesonielfa/isthatslop-sub000/internal/database"
	"github.com/carlesonielfa/isthatslop-sub000/internal/handlers"
	"github.com/carlesonielfa/isthatslop-sub000/internal/services"
	"github.com/carlesonielfa/isthatslop-sub000/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load database configuration
	dbConfig := database.LoadConfig()

	// Connect to database
	if err := database.Connect(dbConfig); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Start the periodic score recalculation worker
	ctx, cancel := context.WithCancel(context.Background())
	recalcService := services.NewRecalculationService(database.DB, services.NewScoreService(database.DB))
	recalcWorker := workers.NewScoreRecalcWorker(recalcService, 15*time.Minute, services.DefaultBatchSize)
	recalcWorker.Start(ctx)

	// Setup graceful shutdown
	setupGracefulShutdown(cancel, recalcWorker)

	// Setup HTTP server
	setupServer(recalcWorker)
}

func setupGracefulShutdown(cancel context.CancelFunc, recalcWorker *workers.ScoreRecalcWorker) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Received shutdown signal, gracefully shutting down...")

		cancel()
		recalcWorker.Stop()
		database.Close()

		log.Println("Shutdown complete")
		os.Exit(0)
	}()
}

func setupServer(recalcWorker *workers.ScoreRecalcWorker) {
	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Pick the token verifier: real HS256 when a secret is configured, the
	// mock in development. Production without a secret refuses to start.
	verifier, err := auth.SelectVerifier(os.Getenv("ENVIRONMENT"), os.Getenv("AUTH_JWT_SECRET"))
	if err != nil {
		log.Fatal("Failed to configure auth: ", err)
	}
	if _, ok := verifier.(*auth.MockVerifier); ok {
		log.Println("⚠️  AUTH_JWT_SECRET not set, using mock verifier (development only)")
	}
	authRequired := auth.Middleware(verifier, database.DB)

	// Initialize handlers
	sourcesHandler := handlers.NewSourcesHandler(database.DB)
	claimsHandler := handlers.NewClaimsHandler(database.DB)
	recalcHandler := handlers.NewRecalculateHandler(database.DB)
	adminHandler := handlers.NewAdminHandler(database.DB)
	docsHandler := handlers.NewDocsHandler()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "service": "isthatslop"})
	})

	// Worker status
	r.GET("/api/worker/status", func(c *gin.Context) {
		stats, err := recalcWorker.GetStats()
		if err != nil {
			c.JSON(500, gin.H{"error": "failed to read worker stats"})
			return
		}
		c.JSON(200, gin.H{"worker_status": stats})
	})

	// Batch recalculation trigger (external cron)
	r.GET("/recalculate-scores", recalcHandler.TriggerRecalculation)

	// Serve Markdown documentation as HTML
	r.GET("/doc/:doc", docsHandler.ServeMarkdownAsHTML)

	// API routes
	api := r.Group("/api")
	{
		sources := api.Group("/sources")
		{
			sources.GET("", sourcesHandler.Browse)
			sources.GET("/resolve", sourcesHandler.Resolve)
			sources.GET("/disputed", sourcesHandler.GetDisputed)
			sources.GET("/:id", sourcesHandler.GetSource)
			sources.GET("/:id/children", sourcesHandler.GetChildren)
			sources.GET("/:id/breadcrumbs", sourcesHandler.GetBreadcrumbs)

			sources.POST("", authRequired, sourcesHandler.CreateSource)
			sources.POST("/:id/claims", authRequired, auth.RequireVerified(), claimsHandler.SubmitClaim)
			sources.PATCH("/:id/approval", authRequired, sourcesHandler.SetApproval)
			sources.DELETE("/:id", authRequired, sourcesHandler.DeleteSource)
		}

		claims := api.Group("/claims", authRequired)
		{
			claims.PUT("/:id", auth.RequireVerified(), claimsHandler.EditClaim)
			claims.DELETE("/:id", claimsHandler.DeleteClaim)
			claims.POST("/:id/vote", auth.RequireVerified(), claimsHandler.Vote)
		}
	}

	// Admin routes (password protected)
	admin := r.Group("/admin", adminHandler.AdminAuth())
	{
		admin.GET("/", adminHandler.ServeDashboard)
	}

	// Get port from environment or default to 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
