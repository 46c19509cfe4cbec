package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitadmin/membership-app/internal/api"
	"fitadmin/membership-app/internal/config"
	"fitadmin/membership-app/internal/repository/mongo"
	"fitadmin/membership-app/internal/service"
	"fitadmin/membership-app/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Membership App Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureDailyPlanIndexes(ctx, appDB.Collection("daily_plans"))
		mongo.EnsureProgramIndexes(ctx, appDB.Collection("programs"))
		mongo.EnsurePaymentIndexes(ctx, appDB.Collection("payments"))
		mongo.EnsureMetricIndexes(ctx, appDB.Collection("metrics"))
		mongo.EnsureActivityLogIndexes(ctx, appDB.Collection("activity_logs"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	planRepo := mongo.NewMongoDailyPlanRepository(appDB)
	programRepo := mongo.NewMongoProgramRepository(appDB)
	paymentRepo := mongo.NewMongoPaymentRepository(appDB)
	metricRepo := mongo.NewMongoMetricRepository(appDB)
	activityRepo := mongo.NewMongoActivityLogRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	activityService := service.NewActivityService(activityRepo)
	authService := service.NewAuthService(userRepo, activityService, cfg.JWT.Secret, cfg.JWT.Expiration)
	userService := service.NewUserService(userRepo, planRepo, paymentRepo, metricRepo, activityRepo, fileStorage, activityService)
	planService := service.NewPlanService(planRepo, userRepo, activityService)
	programService := service.NewProgramService(programRepo, fileStorage)
	paymentService := service.NewPaymentService(paymentRepo, programRepo, userRepo, activityService)
	metricService := service.NewMetricService(metricRepo, activityService)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default()

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, userService, planService, paymentService, programService, metricService, activityService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
