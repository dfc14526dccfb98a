package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trakr/internal/auth"
	"trakr/internal/cache"
	"trakr/internal/config"
	"trakr/internal/database"
	"trakr/internal/handler"
	"trakr/internal/job"
	"trakr/internal/metrics"
	"trakr/internal/middleware"
	"trakr/internal/model"
	"trakr/internal/repository"
)

const dbStatsInterval = 15 * time.Second

type Server struct {
	Engine  *gin.Engine
	DB      *gorm.DB
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	scheduler *job.Scheduler
	redis     *redis.Client
	stopStats chan struct{}
}

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	User    *handler.UserHandler
	Project *handler.ProjectHandler
	Column  *handler.ColumnHandler
	Ticket  *handler.TicketHandler
	Epic    *handler.EpicHandler
	Role    *handler.RoleHandler
	Health  *handler.HealthHandler
}

func Init(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	dbConfig := database.Config{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DatabaseDSN(),
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Hour,
	}
	db, err := database.New(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	logger.Info("Connected to database", zap.String("driver", cfg.DBDriver))

	if err := database.Migrate(db, dbConfig, logger); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}

	m := metrics.New(logger)
	if err := database.RegisterMetricsCallbacks(db, m); err != nil {
		return nil, fmt.Errorf("failed to register DB metrics: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = cache.Connect(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			logger.Warn("Redis unavailable, column cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			logger.Info("Connected to Redis")
		}
	}
	columnCache := cache.NewColumnCache(redisClient, cfg.ColumnCacheTTL, logger)

	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	columnRepo := repository.NewColumnRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	epicRepo := repository.NewEpicRepository(db)
	roleRepo := repository.NewRoleRepository(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)

	// Initialize handlers
	h := Handlers{
		User: handler.NewUserHandler(userRepo, projectRepo, tokens, handler.SessionConfig{
			CookieSecure:  cfg.CookieSecure,
			ResetTokenTTL: cfg.ResetTokenTTL,
		}, logger),
		Project: handler.NewProjectHandler(projectRepo, userRepo, columnCache, m, seedColumns(cfg.Board), logger),
		Column:  handler.NewColumnHandler(columnRepo, projectRepo, columnCache, logger),
		Ticket:  handler.NewTicketHandler(ticketRepo, projectRepo, columnCache, m, logger),
		Epic:    handler.NewEpicHandler(epicRepo, projectRepo, logger),
		Role:    handler.NewRoleHandler(roleRepo, projectRepo, logger),
		Health:  handler.NewHealthHandler(db, columnCache),
	}

	scheduler := job.NewScheduler(logger)
	jobs := []struct {
		name string
		spec string
		job  interface{ Run() }
	}{
		{"reset_token_cleanup", cfg.Jobs.ResetTokenCleanup, job.NewResetTokenCleanupJob(userRepo, logger)},
		{"business_metrics", cfg.Jobs.BusinessMetrics, job.NewBusinessMetricsJob(projectRepo, ticketRepo, m, logger)},
		{"reconcile_sizes", cfg.Jobs.ReconcileSizes, job.NewReconcileSizesJob(columnRepo, columnCache, m, logger)},
	}
	for _, j := range jobs {
		if err := scheduler.Add(j.name, j.spec, j.job); err != nil {
			return nil, err
		}
	}

	if cfg.ServerMode != "" {
		gin.SetMode(cfg.ServerMode)
	}

	return &Server{
		Engine:    NewRouter(h, tokens, m, logger),
		DB:        db,
		Config:    cfg,
		Logger:    logger,
		Metrics:   m,
		scheduler: scheduler,
		redis:     redisClient,
		stopStats: database.StartDBStatsCollector(db, m, dbStatsInterval),
	}, nil
}

func seedColumns(board config.BoardConfig) []model.Column {
	columns := make([]model.Column, 0, len(board.DefaultColumns))
	for _, c := range board.DefaultColumns {
		columns = append(columns, model.Column{Name: c.Name, Max: c.Max})
	}
	return columns
}

// NewRouter mounts every route on a fresh engine.
func NewRouter(h Handlers, tokens middleware.TokenParser, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	r.POST("/register", h.User.Register)
	r.POST("/login", h.User.Login)
	r.POST("/logout", h.User.Logout)
	r.POST("/password/forgot", h.User.ForgotPassword)
	r.POST("/password/reset", h.User.ResetPassword)
	r.GET("/permissions", h.Role.Permissions)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(tokens))
	{
		authorized.GET("/me", h.User.Me)
		authorized.PUT("/me/open_project", h.User.SetOpenProject)

		// Project routes
		authorized.POST("/projects", h.Project.Create)
		authorized.GET("/projects", h.Project.List)
		authorized.GET("/projects/:project_id", h.Project.Get)
		authorized.PUT("/projects", h.Project.Rename)
		authorized.DELETE("/projects/:project_id", h.Project.Delete)
		authorized.POST("/projects/invite", h.Project.Invite)
		authorized.POST("/projects/remove_member", h.Project.RemoveMember)
		authorized.POST("/projects/next_sprint/:project_id", h.Project.NextSprint)

		// Column routes
		authorized.POST("/cols", h.Column.CreateMany)
		authorized.POST("/cols/add_single", h.Column.AddSingle)
		authorized.GET("/cols/:project_id", h.Column.GetOrdered)
		authorized.PUT("/cols", h.Column.Update)
		authorized.DELETE("/cols", h.Column.Delete)

		// Ticket routes
		authorized.POST("/tickets", h.Ticket.Create)
		authorized.GET("/tickets/:project_id", h.Ticket.ListByProject)
		authorized.GET("/ticket/:ticket_id", h.Ticket.GetByID)
		authorized.PUT("/tickets", h.Ticket.Update)
		authorized.DELETE("/tickets", h.Ticket.Delete)

		// Epic routes
		authorized.POST("/epics", h.Epic.Create)
		authorized.GET("/epics/:project_id", h.Epic.ListByProject)
		authorized.PUT("/epics", h.Epic.Update)
		authorized.DELETE("/epics", h.Epic.Delete)

		// Role routes
		authorized.POST("/roles", h.Role.Create)
		authorized.GET("/roles/:project_id", h.Role.ListByProject)
		authorized.PUT("/roles", h.Role.Update)
		authorized.DELETE("/roles", h.Role.Delete)
		authorized.POST("/roles/add_member", h.Role.AddMember)
		authorized.POST("/roles/remove_member", h.Role.RemoveMember)
	}
	return r
}

func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("Server running", zap.String("port", s.Config.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case <-quit:
	case runErr = <-errCh:
		s.Logger.Error("Failed to listen", zap.Error(runErr))
	}
	s.Logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Logger.Error("Server forced to shutdown", zap.Error(err))
	}
	s.scheduler.Stop(ctx)
	s.Close()

	s.Logger.Info("Server exited properly")
	return runErr
}

// Close releases the database, Redis and the DB stats collector.
func (s *Server) Close() {
	if s.stopStats != nil {
		close(s.stopStats)
		s.stopStats = nil
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.Logger.Warn("Failed to close Redis", zap.Error(err))
		}
	}
	if err := database.Close(s.DB); err != nil {
		s.Logger.Warn("Failed to close database", zap.Error(err))
	}
}
