// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"carlog-service/internal/config"
	"carlog-service/internal/db"
	vehicleHandler "carlog-service/internal/handlers/vehicle"
	wsHandler "carlog-service/internal/handlers/websocket"
	"carlog-service/internal/middleware"
	"carlog-service/internal/pkg/auth"
	"carlog-service/internal/service/carlog"
	"carlog-service/internal/service/registry"
	"carlog-service/internal/state"
	"carlog-service/internal/status"
	"carlog-service/internal/store"
	"carlog-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	httpServer *http.Server
	stopHub    context.CancelFunc
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
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

	// ----- Snapshot store -----
	snapshotStore, err := store.New(ctx, s.cfg)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	snap, err := snapshotStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	stateStore := state.NewStore(snap)
	logger.Info("snapshot loaded",
		zap.String("backend", s.cfg.StorageBackend),
		zap.Int("vehicles", len(snap.Cars)),
	)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	go hub.Run(hubCtx)

	// ----- Services -----
	statusTracker := status.NewTracker(hub)
	carlogService := carlog.NewService(stateStore, snapshotStore, hub, logger)
	submitter := carlog.NewSubmitter(carlogService, statusTracker, logger)

	registryCache := s.registryCache(logger)
	registryService := registry.NewService(registry.Config{
		BaseURL:  s.cfg.RegistryBaseURL,
		Timeout:  s.cfg.RegistryTimeout,
		CacheTTL: s.cfg.RegistryCacheTTL,
	}, registryCache, logger)

	// ----- Handlers -----
	vehicleHandlerInst := vehicleHandler.NewVehicleHandler(carlogService, submitter, statusTracker, registryService)
	wsHandlerInst := wsHandler.NewWebSocketHandler(hub, logger)

	// ----- Middlewares -----
	authManager := auth.NewManager(auth.Config{
		Secret: s.cfg.AuthSecret,
		Issuer: s.cfg.AuthIssuer,
		TTL:    s.cfg.AuthTTL,
	})
	authMiddleware := middleware.NewAuthMiddleware(authManager, logger)
	if !authManager.Enabled() {
		logger.Warn("AUTH_SECRET not set, mutating routes are unauthenticated")
	}

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		VehicleHandler: vehicleHandlerInst,
		WSHandler:      wsHandlerInst,
		AuthMiddleware: authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	s.httpServer = &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}
	log.Printf("server running on %s", s.cfg.HTTPAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// registryCache picks Redis when that backend is already configured for
// snapshots, an in-process cache otherwise.
func (s *Server) registryCache(logger *zap.Logger) registry.Cache {
	if s.cfg.StorageBackend != config.StorageRedis {
		return registry.NewMemoryCache()
	}

	client, err := db.NewRedisClient(db.RedisConfig{
		Addresses: []string{s.cfg.RedisAddr},
		Password:  s.cfg.RedisPass,
		DB:        0,
		PoolSize:  10,
	})
	if err != nil {
		logger.Warn("registry cache falling back to memory", zap.Error(err))
		return registry.NewMemoryCache()
	}
	return registry.NewRedisCache(client, logger)
}

// Shutdown stops the HTTP listener and the WebSocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopHub != nil {
		s.stopHub()
	}
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
