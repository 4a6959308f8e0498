package factory

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dsql/auth"
	"github.com/bcms/bcms"
	"github.com/bcms/bcms/internal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// queryPool is the subset of pgxpool.Pool the factory and the Postgres
// repository need. pgxmock pools satisfy it.
type queryPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// iamTokenGenerator produces an IAM auth token used as the Postgres password.
var iamTokenGenerator = generateIAMToken

// NewPropEngineWithConfig creates a PropEngine backed by the JSONB document
// tables reachable through pool. This is the primary way for external
// projects to create a PropEngine instance.
//
// Usage:
//
//	import (
//	    "github.com/bcms/bcms"
//	    "github.com/bcms/bcms/factory"
//	)
//
//	config := bcms.DefaultConfig()
//	pool, err := factory.NewPostgresPool(ctx, config.Database)
//	if err != nil {
//	    // handle error
//	}
//	engine, err := factory.NewPropEngineWithConfig(config, pool)
func NewPropEngineWithConfig(config *bcms.Config, pool *pgxpool.Pool) (bcms.PropEngine, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return newPostgresEngine(context.Background(), config, pool)
}

func newPostgresEngine(ctx context.Context, config *bcms.Config, pool queryPool) (bcms.PropEngine, error) {
	if config == nil {
		config = bcms.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := newPostgresStore(ctx, config, pool)
	if err != nil {
		return nil, err
	}
	return newEngine(ctx, config, repo)
}

// NewPropEngineWithSQL creates a PropEngine over an open database/sql handle.
// config.Database.Driver selects the SQL dialect of the handle; the document
// tables must already exist.
func NewPropEngineWithSQL(config *bcms.Config, db *sql.DB) (bcms.PropEngine, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if config == nil {
		config = bcms.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	dbc := config.Database
	breaker := internal.NewCircuitBreaker(dbc.BreakerThreshold, dbc.BreakerWindow, dbc.BreakerOpenFor)
	repo := internal.NewSQLRepository(db, dbc.Driver, dbc.TableNames, breaker)
	return newEngine(context.Background(), config, repo)
}

// NewPropEngineFromDirectory creates a PropEngine over the JSON documents in
// dir. An empty dir falls back to config.Content.Directory.
func NewPropEngineFromDirectory(config *bcms.Config, dir string) (bcms.PropEngine, error) {
	if config == nil {
		config = bcms.DefaultConfig()
	}
	if dir == "" {
		dir = config.Content.Directory
	}
	if dir == "" {
		return nil, fmt.Errorf("content directory is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	repo, err := internal.NewFileRepository(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	return newEngine(context.Background(), config, repo)
}

// Store serves every lookup the engine needs.
type Store interface {
	bcms.GroupRepository
	bcms.EntryRepository
	bcms.TemplateRepository
	bcms.MediaRepository
	bcms.LanguageRepository
}

// GroupWriter is implemented by stores that persist groups.
type GroupWriter interface {
	SaveGroup(ctx context.Context, group *bcms.Group) error
}

// IsDurable reports whether writes to store outlive the process. The memory
// and file-backed stores accept saves but keep them in memory only.
func IsDurable(store any) bool {
	if volatile, ok := store.(interface{ InMemory() bool }); ok {
		return !volatile.InMemory()
	}
	return true
}

// OpenStore opens the store selected by config: the content directory when
// set, otherwise the configured database driver. The returned func releases
// its connections.
func OpenStore(ctx context.Context, config *bcms.Config) (Store, func(), error) {
	if config.Content.Directory != "" {
		repo, err := internal.NewFileRepository(config.Content.Directory)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load content: %w", err)
		}
		return repo, func() {}, nil
	}

	db := config.Database
	if db.Driver == bcms.DriverPgx {
		pool, err := NewPostgresPool(ctx, db)
		if err != nil {
			return nil, nil, err
		}
		repo, err := newPostgresStore(ctx, config, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil
	}

	if db.Driver == bcms.DriverPostgres && db.DSN == "" {
		db.DSN = connectionString(db)
	}
	repo, err := internal.OpenSQLRepository(db)
	if err != nil {
		return nil, nil, err
	}
	return repo, func() {
		if err := repo.Close(); err != nil {
			zap.S().Warnw("failed to close database", "driver", db.Driver, "error", err)
		}
	}, nil
}

func newPostgresStore(ctx context.Context, config *bcms.Config, pool queryPool) (*internal.PostgresRepository, error) {
	tables, err := collectTablesFromPool(ctx, pool)
	if err != nil {
		return nil, err
	}
	if missing := missingTables(tables, config.Database.TableNames); len(missing) > 0 {
		return nil, fmt.Errorf("required tables are missing in the database: %v", missing)
	}

	db := config.Database
	breaker := internal.NewCircuitBreaker(db.BreakerThreshold, db.BreakerWindow, db.BreakerOpenFor)
	return internal.NewPostgresRepository(pool, db.TableNames, breaker), nil
}

// NewPropEngineWithStore wires an engine over store with the media resolver
// and lookup cache config asks for.
func NewPropEngineWithStore(ctx context.Context, config *bcms.Config, store Store) (bcms.PropEngine, error) {
	if config == nil {
		config = bcms.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newEngine(ctx, config, store)
}

func newEngine(ctx context.Context, config *bcms.Config, repo Store) (bcms.PropEngine, error) {
	mediaPath, err := NewMediaPathResolver(ctx, config.Media)
	if err != nil {
		return nil, err
	}

	repos := bcms.Repositories{
		Groups:    repo,
		Entries:   repo,
		Templates: repo,
		Media:     repo,
		Languages: repo,
		MediaPath: mediaPath,
	}
	if config.Cache.Enabled {
		return internal.NewCachedPropEngine(repos, config.Cache.TTL, config), nil
	}
	return internal.NewPropEngine(repos, config), nil
}

// NewMediaPathResolver presigns S3 URLs when a bucket is configured and joins
// PublicBaseURL with the media path otherwise.
func NewMediaPathResolver(ctx context.Context, cfg bcms.MediaConfig) (bcms.MediaPathResolver, error) {
	if cfg.Bucket == "" {
		return internal.StaticMediaPathResolver{BaseURL: cfg.PublicBaseURL}, nil
	}
	resolver, err := internal.NewS3MediaPathResolver(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create media path resolver: %w", err)
	}
	return resolver, nil
}

// NewPostgresPool creates a pgx pool from cfg and pings it. With UseIAM the
// password is replaced by a DSQL connect token.
func NewPostgresPool(ctx context.Context, cfg bcms.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.UseIAM {
		token, err := iamTokenGenerator(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to generate IAM auth token: %w", err)
		}
		cfg.Password = token
		zap.S().Infow("generated IAM auth token for Postgres connection", "host", cfg.Host)
	}

	poolConfig, err := pgxpool.ParseConfig(connectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.Timeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// connectionString returns cfg.DSN when set and builds a postgres URL
// otherwise.
func connectionString(cfg bcms.DatabaseConfig) string {
	if cfg.DSN != "" && !cfg.UseIAM {
		return cfg.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Database,
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{cfg.SSLMode}}.Encode()
	}
	return u.String()
}

func generateIAMToken(ctx context.Context, cfg bcms.DatabaseConfig) (string, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}
	endpoint := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	return auth.GenerateDbConnectAuthToken(ctx, endpoint, awsCfg.Region, awsCfg.Credentials)
}

func collectTablesFromPool(ctx context.Context, pool queryPool) ([]string, error) {
	rows, err := pool.Query(ctx, `SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE';`)
	if err != nil {
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	zap.S().Debugw("database tables", "tables", tables)
	return tables, nil
}

func missingTables(tables []string, names bcms.TableNames) []string {
	var missing []string
	for _, name := range []string{names.Groups, names.Templates, names.Entries, names.Media, names.Languages} {
		if !slices.Contains(tables, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// NewLogger builds a zap logger from cfg. Format "console" selects the
// development encoder; anything else logs JSON.
func NewLogger(cfg bcms.LoggingConfig) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if cfg.Level != "" {
		parsed, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level
	return zapCfg.Build()
}
