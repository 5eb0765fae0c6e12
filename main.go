package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"workspace-service/internal/background"
	"workspace-service/internal/clients"
	"workspace-service/internal/config"
	"workspace-service/internal/handlers"
	"workspace-service/internal/metrics"
	"workspace-service/internal/middleware"
	"workspace-service/internal/models"
	natsClient "workspace-service/internal/nats"
	"workspace-service/internal/redis"
	"workspace-service/internal/repository"
	"workspace-service/internal/services"
)

func main() {
	// Load configuration
	cfg := config.New()

	logger := newLogger(cfg.App.LogLevel)

	// Initialize database connection
	db, err := initDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Auto-migrate models
	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis connection
	var redisClient *redis.Client
	redisClient, err = redis.NewClient(cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		log.Println("Reserved slug lookups will use the in-process cache only")
		redisClient = nil
	} else {
		log.Println("Connected to Redis successfully")
	}

	// Initialize NATS connection for event publishing
	var nc *natsClient.Client
	nc, err = natsClient.NewClient(nil) // Uses NATS_URL env var or default
	if err != nil {
		log.Printf("Warning: Failed to connect to NATS: %v", err)
		log.Println("Event publishing will be disabled")
		nc = nil
	} else {
		log.Println("Connected to NATS successfully")
		defer nc.Close()
	}

	// Initialize metrics
	metricsCollector := metrics.New()

	// Initialize repositories
	workspaceRepo := repository.NewWorkspaceRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	if redisClient != nil {
		workspaceRepo.SetReservedSlugCache(redisClient)
		log.Println("Workspace repository: Redis reserved slug cache wired")
	}

	// Initialize marketplace client for listing/booking usage stats
	marketplaceClient := clients.NewMarketplaceClient(cfg.Integration.MarketplaceServiceURL)
	log.Printf("Initialized marketplace-service client: %s", cfg.Integration.MarketplaceServiceURL)

	// EventPublisher must carry a typed nil when NATS is down, otherwise
	// the nil check inside the services never fires
	var events services.EventPublisher
	if nc != nil {
		events = nc
	}

	// Initialize services
	workspaceSvc := services.NewWorkspaceService(workspaceRepo, membershipRepo, activityRepo, events)
	membershipSvc := services.NewMembershipService(membershipRepo, invitationRepo, activityRepo, events)
	dashboardSvc := services.NewDashboardService(workspaceRepo, membershipRepo, invitationRepo, activityRepo, marketplaceClient)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, nc, redisClient)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceSvc, metricsCollector)
	membershipHandler := handlers.NewMembershipHandler(membershipSvc, workspaceSvc, metricsCollector)
	dashboardHandler := handlers.NewDashboardHandler(dashboardSvc, workspaceSvc)
	validationHandler := handlers.NewValidationHandler(workspaceSvc)

	// Start background invitation expiry sweep
	bgRunner := background.NewRunner(invitationRepo, metricsCollector, cfg.Invitation)
	bgRunner.Start()

	// Setup router
	router := setupRouter(
		logger,
		healthHandler,
		workspaceHandler,
		membershipHandler,
		dashboardHandler,
		validationHandler,
		metricsCollector,
	)

	// Setup server
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting workspace-service on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop background jobs first
	bgRunner.Stop()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Close Redis connection
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}

	log.Println("Server exited")
}

func setupRouter(
	logger *logrus.Logger,
	healthHandler *handlers.HealthHandler,
	workspaceHandler *handlers.WorkspaceHandler,
	membershipHandler *handlers.MembershipHandler,
	dashboardHandler *handlers.DashboardHandler,
	validationHandler *handlers.ValidationHandler,
	metricsCollector *metrics.Metrics,
) *gin.Engine {
	// Set Gin mode
	if getEnv("GIN_MODE", "debug") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:3000",          // Marketplace app (local)
		"http://localhost:4200",          // Admin portal (local)
		"https://dev-app.tesserix.app",   // Marketplace app (dev)
		"https://dev-admin.tesserix.app", // Admin portal (dev)
		"https://app.tesserix.app",       // Marketplace app (prod)
		"https://admin.tesserix.app",     // Admin portal (prod)
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-User-ID"}
	corsConfig.AllowCredentials = true

	// Global middleware
	router.Use(cors.New(corsConfig))                // CORS
	router.Use(gin.Recovery())                      // Panic recovery
	router.Use(middleware.RequestID())              // Correlation IDs
	router.Use(middleware.StructuredLogger(logger)) // Structured logging
	router.Use(metricsCollector.Middleware())       // Prometheus metrics
	router.Use(middleware.UserExtraction())         // User identity context

	// Metrics endpoint (Prometheus scraping)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoints
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Workspace lifecycle
		workspaces := v1.Group("/workspaces")
		{
			workspaces.POST("", workspaceHandler.CreateWorkspace)
			workspaces.GET("/slug/:slug", workspaceHandler.GetWorkspaceBySlug)
			workspaces.GET("/:id", workspaceHandler.GetWorkspace)
			workspaces.PUT("/:id", workspaceHandler.UpdateWorkspace)
			workspaces.DELETE("/:id", workspaceHandler.DeleteWorkspace)
			workspaces.GET("/:id/activity", workspaceHandler.GetWorkspaceActivity)

			// Member management
			workspaces.GET("/:id/members", membershipHandler.GetWorkspaceMembers)
			workspaces.PUT("/:id/members/:memberId", membershipHandler.UpdateMember)
			workspaces.DELETE("/:id/members/:memberId", membershipHandler.RemoveMember)

			// Invitations scoped to a workspace
			workspaces.POST("/:id/invitations", membershipHandler.InviteMember)
			workspaces.GET("/:id/invitations", membershipHandler.GetPendingInvitations)
			workspaces.DELETE("/:id/invitations/:invitationId", membershipHandler.CancelInvitation)
			workspaces.POST("/:id/invitations/:invitationId/resend", membershipHandler.ResendInvitation)

			// Dashboard
			workspaces.GET("/:id/dashboard", dashboardHandler.GetDashboard)
			workspaces.GET("/:id/stats", dashboardHandler.GetStats)
		}

		// Invitation redemption (token-based, workspace resolved from token)
		invitations := v1.Group("/invitations")
		{
			invitations.POST("/accept", membershipHandler.AcceptInvitation)
			invitations.POST("/decline", membershipHandler.DeclineInvitation)
		}

		// User workspace listing and preferences
		users := v1.Group("/users")
		{
			users.GET("/me/workspaces", workspaceHandler.GetUserWorkspaces)
			users.GET("/me/workspaces/default", workspaceHandler.GetDefaultWorkspace)
			users.PUT("/me/workspaces/default", workspaceHandler.SetDefaultWorkspace)
		}

		// Slug validation endpoints
		slugs := v1.Group("/slugs")
		{
			slugs.GET("/validate", validationHandler.ValidateSlug)
			slugs.POST("/generate", validationHandler.GenerateSlug)
		}
	}

	return router
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	return logger
}

func autoMigrate(db *gorm.DB) error {
	log.Println("Starting database migration...")

	// Enable UUID extension in PostgreSQL
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		log.Printf("Warning: Failed to create uuid-ossp extension: %v", err)
	}

	// Auto-migrate all models
	modelsToMigrate := []interface{}{
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.WorkspaceInvitation{},
		&models.WorkspaceActivity{},
		&models.UserWorkspacePreferences{},
		&models.ReservedSlug{},
	}

	for _, model := range modelsToMigrate {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	log.Println("Database migration completed successfully")

	// Seed reserved slugs for URL protection
	if err := seedReservedSlugs(db); err != nil {
		log.Printf("Warning: Failed to seed reserved slugs: %v", err)
	}

	return nil
}

// seedReservedSlugs creates the baseline reserved slug list if missing
func seedReservedSlugs(db *gorm.DB) error {
	reservedSlugs := []models.ReservedSlug{
		// Infrastructure paths
		{Slug: "api", Reason: "API path", Category: "infrastructure", IsActive: true, CreatedBy: "system"},
		{Slug: "www", Reason: "Web prefix", Category: "infrastructure", IsActive: true, CreatedBy: "system"},
		{Slug: "app", Reason: "App path", Category: "infrastructure", IsActive: true, CreatedBy: "system"},
		{Slug: "admin", Reason: "Admin portal", Category: "infrastructure", IsActive: true, CreatedBy: "system"},
		{Slug: "dashboard", Reason: "Dashboard path", Category: "infrastructure", IsActive: true, CreatedBy: "system"},
		{Slug: "assets", Reason: "Assets path", Category: "infrastructure", IsActive: true, CreatedBy: "system"},
		{Slug: "static", Reason: "Static files path", Category: "infrastructure", IsActive: true, CreatedBy: "system"},
		{Slug: "images", Reason: "Images path", Category: "infrastructure", IsActive: true, CreatedBy: "system"},
		{Slug: "files", Reason: "Files path", Category: "infrastructure", IsActive: true, CreatedBy: "system"},
		{Slug: "uploads", Reason: "Uploads path", Category: "infrastructure", IsActive: true, CreatedBy: "system"},
		{Slug: "media", Reason: "Media path", Category: "infrastructure", IsActive: true, CreatedBy: "system"},
		// Brand slugs
		{Slug: "tesseract", Reason: "Brand protection", Category: "brand", IsActive: true, CreatedBy: "system"},
		{Slug: "tesserix", Reason: "Brand protection", Category: "brand", IsActive: true, CreatedBy: "system"},
		{Slug: "marketplace", Reason: "Platform name", Category: "brand", IsActive: true, CreatedBy: "system"},
		{Slug: "workspace", Reason: "Platform term", Category: "brand", IsActive: true, CreatedBy: "system"},
		// Common reserved terms
		{Slug: "test", Reason: "Reserved for testing", Category: "system", IsActive: true, CreatedBy: "system"},
		{Slug: "demo", Reason: "Reserved for demos", Category: "system", IsActive: true, CreatedBy: "system"},
		{Slug: "staging", Reason: "Reserved for staging", Category: "system", IsActive: true, CreatedBy: "system"},
		{Slug: "dev", Reason: "Reserved for development", Category: "system", IsActive: true, CreatedBy: "system"},
		{Slug: "prod", Reason: "Reserved for production", Category: "system", IsActive: true, CreatedBy: "system"},
		{Slug: "production", Reason: "Reserved for production", Category: "system", IsActive: true, CreatedBy: "system"},
		{Slug: "internal", Reason: "Internal use", Category: "system", IsActive: true, CreatedBy: "system"},
		{Slug: "private", Reason: "Private use", Category: "system", IsActive: true, CreatedBy: "system"},
		{Slug: "public", Reason: "Public use", Category: "system", IsActive: true, CreatedBy: "system"},
		{Slug: "root", Reason: "Root access", Category: "system", IsActive: true, CreatedBy: "system"},
		{Slug: "system", Reason: "System use", Category: "system", IsActive: true, CreatedBy: "system"},
		{Slug: "null", Reason: "Reserved keyword", Category: "system", IsActive: true, CreatedBy: "system"},
		{Slug: "undefined", Reason: "Reserved keyword", Category: "system", IsActive: true, CreatedBy: "system"},
		{Slug: "true", Reason: "Reserved keyword", Category: "system", IsActive: true, CreatedBy: "system"},
		{Slug: "false", Reason: "Reserved keyword", Category: "system", IsActive: true, CreatedBy: "system"},
	}

	// Insert reserved slugs, ignoring duplicates
	var inserted int
	for _, slug := range reservedSlugs {
		result := db.Where("slug = ?", slug.Slug).FirstOrCreate(&slug)
		if result.Error != nil {
			log.Printf("Warning: Failed to create reserved slug '%s': %v", slug.Slug, result.Error)
			continue
		}
		if result.RowsAffected > 0 {
			inserted++
		}
	}

	log.Printf("Seeded %d reserved slugs successfully", inserted)
	return nil
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	// Build connection string
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	// Connect to database
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Connected to database successfully")
	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
