package main

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "trakr/docs"
	"trakr/internal/config"
	"trakr/internal/server"
)

// @title           Trakr API
// @version         1.0
// @description     Kanban and Scrum ticket tracker: projects, ordered columns, tickets, epics, roles and sprints.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	s, err := server.Init(cfg, logger)
	if err != nil {
		logger.Fatal("Server initialization failed", zap.Error(err))
	}

	if err := s.Run(); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
