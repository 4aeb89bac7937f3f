package main

import (
	"fmt"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "backoffice/api/swagger" // swagger docs
	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/handler"
	"backoffice/internal/logger"
	"backoffice/internal/middleware"
	"backoffice/internal/report"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/websocket"
)

// @title           Back Office API
// @version         1.0
// @description     Customer, supplier and project back office with an approval workflow and derived project financials.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	_ = godotenv.Load("configs/.env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)
	middleware.SetJWTSecret(cfg.Auth.JWTSecret)

	db, err := database.NewConnection(cfg.DB.DSN(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Str("host", cfg.DB.Host).Str("db", cfg.DB.Name).Msg("connected to postgres")

	// WebSocket hub for notification pushes
	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	counterRepo := repository.NewCodeCounterRepository(db)
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db, counterRepo)
	supplierRepo := repository.NewSupplierRepository(db, counterRepo)
	projectRepo := repository.NewProjectRepository(db, counterRepo)
	approvalRepo := repository.NewApprovalRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	lookupRepo := repository.NewLookupRepository(db)

	// Services
	notificationService := service.NewNotificationService(notificationRepo, wsHub, log)
	userService := service.NewUserService(userRepo, middleware.GetJWTSecret())
	customerService := service.NewCustomerService(customerRepo, auditRepo)
	supplierService := service.NewSupplierService(supplierRepo, auditRepo)
	projectService := service.NewProjectService(projectRepo, customerRepo, auditRepo)
	targets := service.NewTargetRegistry(customerRepo, supplierRepo)
	approvalService := service.NewApprovalService(approvalRepo, auditRepo, userRepo, targets, txManager, notificationService, log)
	auditService := service.NewAuditService(auditRepo)
	lookupService := service.NewLookupService(lookupRepo)

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	customerHandler := handler.NewCustomerHandler(customerService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	projectHandler := handler.NewProjectHandler(projectService, report.NewGenerator())
	approvalHandler := handler.NewApprovalHandler(approvalService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	auditHandler := handler.NewAuditHandler(auditService)
	lookupHandler := handler.NewLookupHandler(lookupService)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.HTTP.AllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	api := router.Group("/api")
	userHandler.RegisterRoutes(api)
	customerHandler.RegisterRoutes(api)
	supplierHandler.RegisterRoutes(api)
	projectHandler.RegisterRoutes(api)
	approvalHandler.RegisterRoutes(api)
	notificationHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)
	lookupHandler.RegisterRoutes(api)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("server listening")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
