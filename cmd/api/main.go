package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "bizledger/api/swagger" // swagger docs
	"bizledger/internal/config"
	"bizledger/internal/database"
	"bizledger/internal/handler"
	"bizledger/internal/logger"
	"bizledger/internal/middleware"
	"bizledger/internal/moneybird"
	"bizledger/internal/repository"
	"bizledger/internal/service"
	"bizledger/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Bizledger Finance API
// @version         1.0
// @description     Daily revenue, cost and cash figures aggregated live from Moneybird.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env")
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	log := logger.New(cfg.Log).With(zap.String("app", cfg.App.Name))
	defer func() { _ = log.Sync() }()

	db, err := database.NewConnection(cfg.Database.DSN(), log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	log.Info("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run()
	defer wsHub.Stop()

	secret := []byte(cfg.JWT.Secret)
	mbClient := moneybird.NewClient(cfg.Moneybird, log)

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	userService := service.NewUserService(txManager, userRepo, auditRepo, service.TokenConfig{
		Secret: secret,
		TTL:    cfg.JWT.AccessTokenTTL,
	})
	connectionService := service.NewConnectionService(txManager, connectionRepo, auditRepo, mbClient, wsHub, log)
	financeService := service.NewFinanceService(connectionRepo, mbClient, cfg.Finance.MaxRangeDays, log)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	cookies := middleware.CookieOptions{
		CrossSite: cfg.IsProduction(),
		MaxAge:    int(cfg.JWT.AccessTokenTTL / time.Second),
	}
	userHandler := handler.NewUserHandler(userService, cookies)
	connectionHandler := handler.NewConnectionHandler(connectionService, log)
	financeHandler := handler.NewFinanceHandler(financeService, log)
	auditHandler := handler.NewAuditHandler(auditService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(logger.GinMiddleware(log), logger.Recovery(log))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Request-ID"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, secret)
	})

	// API Routing
	auth := middleware.RequireAuth(secret)
	userHandler.RegisterRoutes(router.Group(""), auth)
	connectionHandler.RegisterRoutes(router.Group(""), auth)
	financeHandler.RegisterRoutes(router.Group(""), auth)
	auditHandler.RegisterRoutes(router.Group(""), auth)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
