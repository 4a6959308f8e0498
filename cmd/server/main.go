package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/bcms/bcms"
	"github.com/bcms/bcms/factory"
	"go.uber.org/zap"
)

// contentStore is the part of the backing store the handlers read.
type contentStore interface {
	bcms.GroupRepository
	bcms.EntryRepository
}

// Server represents the HTTP server with PropEngine
type Server struct {
	engine  bcms.PropEngine
	store   contentStore
	writer  factory.GroupWriter
	durable bool
	mux     *http.ServeMux
}

// NewServer creates a new Server instance. Group changes are written back
// when store also implements factory.GroupWriter; responses report them as
// saved only when the store is durable.
func NewServer(engine bcms.PropEngine, store contentStore) *Server {
	s := &Server{
		engine:  engine,
		store:   store,
		durable: factory.IsDurable(store),
		mux:     http.NewServeMux(),
	}
	if writer, ok := store.(factory.GroupWriter); ok {
		s.writer = writer
	}
	return s
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/v1/props/validate", s.handleValidate)
	s.mux.HandleFunc("/api/v1/props/migrate", s.handleMigrate)
	s.mux.HandleFunc("/api/v1/props/cycle", s.handleCycle)
	s.mux.HandleFunc("/api/v1/entries/", s.handleEntries)
	s.mux.HandleFunc("/api/v1/groups/", s.handleGroups)
}

// Start starts the HTTP server on the given port
func (s *Server) Start(port string) error {
	zap.S().Infow("starting server", "port", port)
	return http.ListenAndServe(":"+port, s.mux)
}

func main() {
	config := loadConfig()

	logger, err := factory.NewLogger(config.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if err := config.Validate(); err != nil {
		sugar.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	store, closeStore, err := factory.OpenStore(ctx, config)
	if err != nil {
		sugar.Fatalf("failed to open content store: %v", err)
	}
	defer closeStore()

	engine, err := factory.NewPropEngineWithStore(ctx, config, store)
	if err != nil {
		sugar.Fatalf("failed to create prop engine: %v", err)
	}

	server := NewServer(engine, store)
	server.RegisterRoutes()

	port := getEnv("PORT", "8080")
	if err := server.Start(port); err != nil {
		sugar.Fatalf("server error: %v", err)
	}
}

// loadConfig overlays environment variables on the default configuration
func loadConfig() *bcms.Config {
	config := bcms.DefaultConfig()

	db := &config.Database
	db.Driver = getEnv("DB_DRIVER", db.Driver)
	db.DSN = getEnv("DB_DSN", db.DSN)
	db.Host = getEnv("DB_HOST", db.Host)
	db.Port = getEnvInt("DB_PORT", db.Port)
	db.Database = getEnv("DB_NAME", db.Database)
	db.Username = getEnv("DB_USER", db.Username)
	db.Password = getEnv("DB_PASSWORD", db.Password)
	db.SSLMode = getEnv("DB_SSL_MODE", db.SSLMode)
	db.MaxConnections = getEnvInt("DB_MAX_CONNECTIONS", db.MaxConnections)
	db.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", db.MaxIdleConns)
	db.ConnMaxLifetime = time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SECONDS", int(db.ConnMaxLifetime/time.Second))) * time.Second
	db.ConnMaxIdleTime = time.Duration(getEnvInt("DB_CONN_MAX_IDLE_TIME_SECONDS", int(db.ConnMaxIdleTime/time.Second))) * time.Second
	db.Timeout = time.Duration(getEnvInt("DB_TIMEOUT_SECONDS", int(db.Timeout/time.Second))) * time.Second
	db.UseIAM = getEnvBool("DB_USE_IAM", db.UseIAM)
	db.Region = getEnv("DB_REGION", db.Region)

	config.Content.Directory = getEnv("CONTENT_DIR", config.Content.Directory)
	config.Resolver.MaxDepth = getEnvInt("RESOLVER_MAX_DEPTH", config.Resolver.MaxDepth)

	media := &config.Media
	media.Bucket = getEnv("MEDIA_BUCKET", media.Bucket)
	media.Region = getEnv("MEDIA_REGION", media.Region)
	media.Endpoint = getEnv("MEDIA_ENDPOINT", media.Endpoint)
	media.Prefix = getEnv("MEDIA_PREFIX", media.Prefix)
	media.PublicBaseURL = getEnv("MEDIA_PUBLIC_BASE_URL", media.PublicBaseURL)
	media.UsePathStyle = getEnvBool("MEDIA_USE_PATH_STYLE", media.UsePathStyle)
	media.AccessKey = getEnv("MEDIA_ACCESS_KEY", media.AccessKey)
	media.SecretKey = getEnv("MEDIA_SECRET_KEY", media.SecretKey)

	config.Cache.Enabled = getEnvBool("CACHE_ENABLED", config.Cache.Enabled)
	config.Cache.TTL = time.Duration(getEnvInt("CACHE_TTL_SECONDS", int(config.Cache.TTL/time.Second))) * time.Second

	config.Logging.Level = getEnv("LOG_LEVEL", config.Logging.Level)
	config.Logging.Format = getEnv("LOG_FORMAT", config.Logging.Format)
	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
