// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"

	"admin-portal-service/internal/config"
	"admin-portal-service/internal/db"
	authHandler "admin-portal-service/internal/handlers/auth"
	driverHandler "admin-portal-service/internal/handlers/driverauth"
	sessionHandler "admin-portal-service/internal/handlers/session"
	wsHandler "admin-portal-service/internal/handlers/websocket"
	"admin-portal-service/internal/middleware"
	"admin-portal-service/internal/pkg/ratelimit"
	"admin-portal-service/internal/pkg/token"
	"admin-portal-service/internal/repository/postgres"
	authUsecase "admin-portal-service/internal/service/auth"
	driverUsecase "admin-portal-service/internal/service/driverauth"
	"admin-portal-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer(cfg config.AppConfig) *Server {
	return &Server{cfg: cfg, engine: gin.New()}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.Connect(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	// ----- Token codecs -----
	// Three independent credential families; a missing secret already failed
	// config.Load, so constructor errors here mean a programming mistake.
	portalCodec, err := token.NewCodec(
		[]byte(s.cfg.PortalTokenSecret),
		config.TokenIssuer, config.TokenAudience, config.PortalTokenTTL,
	)
	if err != nil {
		return err
	}
	accessCodec, err := token.NewCodec(
		[]byte(s.cfg.DriverAccessSecret),
		config.TokenIssuer, config.TokenAudience, config.DriverAccessTTL,
	)
	if err != nil {
		return err
	}
	refreshCodec, err := token.NewCodec(
		[]byte(s.cfg.DriverRefreshSecret),
		config.TokenIssuer, config.TokenAudience, config.DriverRefreshTTL,
	)
	if err != nil {
		return err
	}

	// ----- Repositories -----
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	driverRepo := postgres.NewDriverRepository(pool)
	deviceRepo := postgres.NewDeviceRepository(pool)

	// ----- WebSocket hub -----
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	// ----- Services -----
	limiter := ratelimit.NewLimiter(redisClient)
	authService := authUsecase.NewAuthService(userRepo, sessionRepo, portalCodec, limiter, hub, logger)
	driverService := driverUsecase.NewService(driverRepo, deviceRepo, accessCodec, refreshCodec, logger)

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(authService, s.cfg.IsProduction(), logger)
	sessionHandlerInst := sessionHandler.NewSessionHandler(authService, driverService, logger)
	driverHandlerInst := driverHandler.NewDriverHandler(driverService, logger)
	wsHandlerInst := wsHandler.NewWebSocketHandler(hub, authService, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService, driverService)
	gatekeeper := middleware.NewGatekeeper(portalCodec, s.cfg.ProtectedPrefixes, s.cfg.SignInPath, logger)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
		gatekeeper.Handler(),
	)

	// ----- Router -----
	SetupRouter(s.engine, &Handlers{
		AuthHandler:    authHandlerInst,
		SessionHandler: sessionHandlerInst,
		DriverHandler:  driverHandlerInst,
		WSHandler:      wsHandlerInst,
		AuthMiddleware: authMiddleware,
	})

	log.Printf("server running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}
