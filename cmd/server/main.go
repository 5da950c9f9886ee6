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
	"github.com/jioearn/backend/docs"
	"github.com/jioearn/backend/internal/config"
	"github.com/jioearn/backend/internal/database"
	"github.com/jioearn/backend/internal/handlers"
	mW "github.com/jioearn/backend/internal/middleware"
	"github.com/jioearn/backend/internal/services"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Jio Earn Backend API
// @version 1.0
// @description API for the Jio Earn referral and micro-earning platform
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	viper.BindEnv("earning.activation_fee", "ACTIVATION_FEE")
	viper.BindEnv("earning.referral_bonus", "REFERRAL_BONUS")
	viper.BindEnv("earning.min_withdrawal", "MIN_WITHDRAWAL")
	viper.BindEnv("earning.bkash_number", "BKASH_NUMBER")
	viper.BindEnv("earning.nagad_number", "NAGAD_NUMBER")
	viper.BindEnv("earning.base_url", "APP_BASE_URL")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "Jio Earn Backend API"
	docs.SwaggerInfo.Description = "API for the Jio Earn referral and micro-earning platform"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize infrastructure
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	earningCfg := config.LoadEarningConfig()

	// Initialize services
	events := services.NewEventBus(redisClient)
	ledgerService := services.NewLedgerService(db, events, earningCfg)
	authService := services.NewAuthService(db, redisClient)
	activationService := services.NewActivationService(db, ledgerService)
	withdrawalService := services.NewWithdrawalService(db, ledgerService)
	taskService := services.NewTaskService(db, ledgerService, events)
	referralService := services.NewReferralService(db, redisClient, earningCfg)
	referralHandler := handlers.NewReferralHandler(referralService)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

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

	// Static file server for wallet logos
	r.Handle("/static/wallet-logos/*", http.StripPrefix("/static/wallet-logos/",
		mW.StaticFileServer("./static/wallet-logos")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/account", authService.GetAccount)

			// Activation requests
			r.Get("/activations/payment-info", activationService.PaymentInfo)
			r.Post("/activations", activationService.Submit)
			r.Get("/activations", activationService.List)
			r.Post("/activations/{id}/approve", activationService.Approve)
			r.Post("/activations/{id}/reject", activationService.Reject)

			// Tasks
			r.Get("/tasks", taskService.List)
			r.Post("/tasks", taskService.Create)
			r.Delete("/tasks/{taskId}", taskService.Delete)
			r.Post("/tasks/{taskId}/complete", taskService.Complete)

			// Withdrawals
			r.Post("/withdrawals", withdrawalService.Submit)
			r.Get("/withdrawals", withdrawalService.List)
			r.Post("/withdrawals/{id}/approve", withdrawalService.Approve)
			r.Post("/withdrawals/{id}/reject", withdrawalService.Reject)

			// Referral sharing
			r.Get("/referral/stats", referralHandler.GetStats)
			r.Get("/referral/qr", referralHandler.GetShareQR)
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
