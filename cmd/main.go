package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lead-workflow/internal/config"
	"lead-workflow/internal/handler"
	"lead-workflow/internal/logger"
	"lead-workflow/internal/metrics"
	"lead-workflow/internal/models"
	"lead-workflow/internal/repository"
	"lead-workflow/internal/services"
	"lead-workflow/internal/utils"
)

func main() {
	// 1. Base context and shutdown manager
	ctx, shutdownManager := utils.NewShutdownManager(context.Background())

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	appLog := logger.New(cfg.LogLevel)

	// 2. MongoDB
	mongoClient, err := utils.NewMongoDBConnection(ctx, cfg.Mongo.URI)
	if err != nil {
		log.Fatal(err)
	}
	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Closing MongoDB connection...")
		return mongoClient.Disconnect(ctx)
	})
	db := mongoClient.Database(cfg.Mongo.DBName)

	leadRepo := repository.NewLeadRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	if err := leadRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to create lead indexes:", err)
	}
	if err := employeeRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to create employee indexes:", err)
	}

	// 3. Redis
	redisClient, err := utils.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Closing Redis connection...")
		return redisClient.Close()
	})

	// 4. MinIO
	minioClient, err := utils.NewMinioClient(ctx, cfg.Media.Endpoint, cfg.Media.AccessKey, cfg.Media.SecretKey,
		cfg.Media.Bucket, cfg.Media.UseSSL)
	if err != nil {
		log.Fatal("Failed to connect to MinIO:", err)
	}

	// 5. Services
	appMetrics := metrics.New(prometheus.DefaultRegisterer)
	publisher := utils.NewRedisPublisher(redisClient.Raw())
	notifier := utils.NewHTTPNotifier(cfg.Notification.URL)

	mediaService := services.NewMediaService(
		services.NewMinioStore(minioClient, cfg.Media.Bucket, cfg.Media.PublicURL), appMetrics, appLog)
	leadService := services.NewLeadService(leadRepo, mediaService, redisClient, publisher, appMetrics, appLog, cfg.Cache.TTL)
	forwardService := services.NewForwardService(leadRepo, redisClient, publisher, notifier, appMetrics, appLog)
	employeeService := services.NewEmployeeService(employeeRepo, redisClient, appMetrics, appLog, cfg.Cache.TTL)

	if cfg.Auth.AdminPassword != "" {
		if err := employeeService.EnsureAdmin(ctx, cfg.Auth.AdminEmpID, cfg.Auth.AdminPhone, cfg.Auth.AdminPassword); err != nil {
			log.Fatal("Failed to create bootstrap admin:", err)
		}
	}

	// 6. Background jobs
	services.NewCacheRefresher(employeeService, cfg.Cache.RefreshInterval, appLog).Start(ctx)

	rateLimiter := utils.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	rateLimiter.StartCleanup(ctx, 10*time.Minute)

	// 7. Router
	jwtUtil := utils.NewJWTUtil(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	leadHandler := handler.NewLeadHandler(leadService, forwardService, employeeService, appLog)
	employeeHandler := handler.NewEmployeeHandler(employeeService, appLog)
	authHandler := handler.NewAuthHandler(employeeService, jwtUtil, redisClient, cfg.Auth.CookieName, cfg.Auth.SecureCookie, appLog)
	mediaHandler := handler.NewMediaHandler(mediaService, cfg.Media.MaxUpload, appLog)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(appMetrics.Middleware())
	router.Use(rateLimiter.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := utils.AuthMiddleware(jwtUtil, redisClient, cfg.Auth.CookieName)
	managers := utils.RequireRoles(models.RoleManager, models.RoleAdmin)

	auth := router.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authMiddleware, authHandler.Logout)
		auth.GET("/me", authMiddleware, authHandler.Me)
	}

	leads := router.Group("/api/leads", authMiddleware)
	{
		leads.POST("", leadHandler.CreateLead)
		leads.POST("/forward", leadHandler.ForwardLeads)
		leads.GET("/get", leadHandler.GetEmployeeLeads)
		leads.GET("/clients", leadHandler.GetClients)
		leads.GET("/forward-candidates", leadHandler.GetForwardCandidates)
		leads.GET("/:id", leadHandler.GetLead)
		leads.GET("/:id/logs", leadHandler.GetLeadLogs)
		leads.PUT("/:id/departments/:department", leadHandler.UpdateDepartment)
		leads.DELETE("/:id", managers, leadHandler.DeleteLead)
	}

	employees := router.Group("/api/employees", authMiddleware, managers)
	{
		employees.POST("", employeeHandler.CreateEmployee)
		employees.GET("", employeeHandler.ListEmployees)
	}

	router.POST("/api/media/upload", authMiddleware, mediaHandler.Upload)

	// 8. Server
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		appLog.Info("lead workflow service running", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	shutdownManager.Register(func(ctx context.Context) error {
		log.Println("[SHUTDOWN] Shutting down HTTP server...")
		return server.Shutdown(ctx)
	})

	shutdownManager.Wait()
}
