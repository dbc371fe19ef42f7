package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fidelize/gateway/docs"
	"github.com/fidelize/gateway/internal/backend"
	"github.com/fidelize/gateway/internal/cache"
	"github.com/fidelize/gateway/internal/database"
	"github.com/fidelize/gateway/internal/handlers"
	mW "github.com/fidelize/gateway/internal/middleware"
	"github.com/fidelize/gateway/internal/services"
	"github.com/fidelize/gateway/internal/session"
	"github.com/fidelize/gateway/internal/tenant"
)

// @title Loyalty Gateway API
// @version 1.0
// @description Customer-facing gateway for the loyalty program
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("backend.base_url", "BACKEND_BASE_URL")
	viper.BindEnv("backend.api_key", "BACKEND_API_KEY")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")

	viper.BindEnv("tenant.default_schema", "TENANT_DEFAULT_SCHEMA")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	viper.SetDefault("jwt.expiry_hours", 12)
	viper.SetDefault("backend.base_url", "http://localhost:9000")

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "Loyalty Gateway API"
	docs.SwaggerInfo.Description = "Customer-facing gateway for the loyalty program"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize services
	redisClient := database.InitRedis()
	defer redisClient.Close()

	backendClient := backend.NewClient(
		viper.GetString("backend.base_url"),
		viper.GetString("backend.api_key"),
	)

	sessionTTL := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
	sessionStore := session.NewStore(redisClient, sessionTTL)
	cacheRegistry := cache.NewRegistry()

	tenantResolver := tenant.NewResolver(
		viper.GetStringMapString("tenants"),
		viper.GetString("tenant.default_schema"),
	)

	sessionService := services.NewSessionService(backendClient, sessionStore, cacheRegistry)
	redemptionService := services.NewRedemptionService(backendClient, cacheRegistry, sessionStore, redisClient)
	statementService := services.NewStatementService(backendClient)
	catalogService := services.NewCatalogService(backendClient, sessionStore)
	partnerService := services.NewPartnerService()

	redemptionHandler := handlers.NewRedemptionHandler(redemptionService, catalogService)
	statementHandler := handlers.NewStatementHandler(statementService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)

	// Initialize auth middleware with the session store
	mW.InitAuthMiddleware(sessionStore)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(mW.TenantMiddleware(tenantResolver))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// Static file server for fulfillment-partner logos
	r.Handle("/static/partner-logos/*", http.StripPrefix("/static/partner-logos/",
		mW.StaticFileServer("./static/partner-logos")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/login", sessionService.Login)
		r.Get("/partners", partnerService.GetAllPartners)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Post("/auth/logout", sessionService.Logout)
			r.Get("/auth/session", sessionService.GetSession)

			r.Get("/customer", catalogHandler.GetCustomer)
			r.Post("/account/deletion-request", catalogHandler.RequestDeletion)

			r.Get("/rewards", catalogHandler.ListRewards)
			r.Get("/rewards/{rewardID}/code", redemptionHandler.GetCode)
			r.Post("/rewards/{rewardID}/redeem", redemptionHandler.Redeem)

			r.Get("/statement", statementHandler.GetStatement)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
