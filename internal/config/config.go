package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DBDriver        string
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPath          string
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	ServerPort      string
	ServerMode      string
	JWTSecret       string
	JWTExpiry       time.Duration
	CookieSecure    bool
	RedisURL        string
	LogLevel        string
	ResetTokenTTL   time.Duration
	ColumnCacheTTL  time.Duration
	ShutdownTimeout time.Duration

	Board BoardConfig
	Jobs  JobsConfig
}

// fileConfig mirrors the optional YAML file.
type fileConfig struct {
	LogLevel string      `yaml:"log_level"`
	Board    BoardConfig `yaml:"board"`
	Jobs     JobsConfig  `yaml:"jobs"`
}

// BoardConfig holds the columns every new project starts with.
type BoardConfig struct {
	DefaultColumns []SeedColumn `yaml:"default_columns"`
}

type SeedColumn struct {
	Name string `yaml:"name"`
	Max  int    `yaml:"max"`
}

// JobsConfig holds cron specs for background jobs. An empty spec disables a job.
type JobsConfig struct {
	ResetTokenCleanup string `yaml:"reset_token_cleanup"`
	BusinessMetrics   string `yaml:"business_metrics"`
	ReconcileSizes    string `yaml:"reconcile_sizes"`
}

func defaultBoard() BoardConfig {
	return BoardConfig{DefaultColumns: []SeedColumn{
		{Name: "To Do"},
		{Name: "In Progress"},
		{Name: "Done"},
	}}
}

func defaultJobs() JobsConfig {
	return JobsConfig{
		ResetTokenCleanup: "@every 1h",
		BusinessMetrics:   "@every 1m",
	}
}

func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		DBDriver:        getEnv("DB_DRIVER", "postgres"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "trakr"),
		DBPassword:      getEnv("DB_PASSWORD", "trakr"),
		DBName:          getEnv("DB_NAME", "trakr"),
		DBPath:          getEnv("DB_PATH", "trakr.db"),
		DBMaxOpenConns:  getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:  getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		ServerMode:      getEnv("SERVER_MODE", "debug"),
		JWTSecret:       getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiry:       time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 72)) * time.Hour,
		CookieSecure:    getEnvBool("COOKIE_SECURE", false),
		RedisURL:        getEnv("REDIS_URL", ""),
		LogLevel:        getEnv("LOG_LEVEL", ""),
		ResetTokenTTL:   time.Duration(getEnvInt("RESET_TOKEN_TTL_MINUTES", 30)) * time.Minute,
		ColumnCacheTTL:  time.Duration(getEnvInt("COLUMN_CACHE_TTL_SECONDS", 60)) * time.Second,
		ShutdownTimeout: 5 * time.Second,
		Board:           defaultBoard(),
		Jobs:            defaultJobs(),
	}

	if path := getEnv("CONFIG_FILE", "config.yaml"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// loadFile overlays the YAML file at path. A missing file is not an error.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := fileConfig{Board: c.Board, Jobs: c.Jobs}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if c.LogLevel == "" {
		c.LogLevel = fc.LogLevel
	}
	c.Board = fc.Board
	c.Jobs = fc.Jobs
	return nil
}

// DatabaseDSN returns the connection string for the configured driver.
func (c *Config) DatabaseDSN() string {
	if c.DBDriver == "sqlite" {
		return c.DBPath
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}
