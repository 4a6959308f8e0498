package bcms

import (
	"time"
)

// Config consolidates engine and adapter settings
type Config struct {
	Database DatabaseConfig `json:"database" mapstructure:"database"`
	Content  ContentConfig  `json:"content" mapstructure:"content"`
	Resolver ResolverConfig `json:"resolver" mapstructure:"resolver"`
	Media    MediaConfig    `json:"media" mapstructure:"media"`
	Cache    CacheConfig    `json:"cache" mapstructure:"cache"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// Supported database drivers.
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverDuckDB   = "duckdb"
)

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver          string        `json:"driver" mapstructure:"driver"`
	DSN             string        `json:"dsn" mapstructure:"dsn"`
	Host            string        `json:"host" mapstructure:"host"`
	Port            int           `json:"port" mapstructure:"port"`
	Database        string        `json:"database" mapstructure:"database"`
	Username        string        `json:"username" mapstructure:"username"`
	Password        string        `json:"password" mapstructure:"password"`
	SSLMode         string        `json:"sslMode" mapstructure:"ssl_mode"`
	MaxConnections  int           `json:"maxConnections" mapstructure:"max_connections"`
	MaxIdleConns    int           `json:"maxIdleConns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime" mapstructure:"conn_max_idle_time"`
	Timeout         time.Duration `json:"timeout" mapstructure:"timeout"`
	UseIAM          bool          `json:"useIAM" mapstructure:"use_iam"`
	Region          string        `json:"region" mapstructure:"region"`
	TableNames      TableNames    `json:"tableNames" mapstructure:"table_names"`

	// Consecutive lookup failures within BreakerWindow that open the breaker.
	BreakerThreshold int           `json:"breakerThreshold" mapstructure:"breaker_threshold"`
	BreakerWindow    time.Duration `json:"breakerWindow" mapstructure:"breaker_window"`
	BreakerOpenFor   time.Duration `json:"breakerOpenFor" mapstructure:"breaker_open_for"`
}

// TableNames names the tables backing each repository
type TableNames struct {
	Groups    string `json:"groups" mapstructure:"groups"`
	Templates string `json:"templates" mapstructure:"templates"`
	Entries   string `json:"entries" mapstructure:"entries"`
	Media     string `json:"media" mapstructure:"media"`
	Languages string `json:"languages" mapstructure:"languages"`
}

// ContentConfig points the file-backed repository at its documents
type ContentConfig struct {
	Directory string `json:"directory" mapstructure:"directory"`
}

// ResolverConfig contains resolution defaults
type ResolverConfig struct {
	MaxDepth        int    `json:"maxDepth" mapstructure:"max_depth"`
	DefaultLanguage string `json:"defaultLanguage" mapstructure:"default_language"`
}

// MediaConfig contains media path resolution settings
type MediaConfig struct {
	Bucket        string        `json:"bucket" mapstructure:"bucket"`
	Region        string        `json:"region" mapstructure:"region"`
	Endpoint      string        `json:"endpoint" mapstructure:"endpoint"`
	Prefix        string        `json:"prefix" mapstructure:"prefix"`
	PublicBaseURL string        `json:"publicBaseURL" mapstructure:"public_base_url"`
	PresignTTL    time.Duration `json:"presignTTL" mapstructure:"presign_ttl"`
	UsePathStyle  bool          `json:"usePathStyle" mapstructure:"use_path_style"`
	AccessKey     string        `json:"accessKey" mapstructure:"access_key"`
	SecretKey     string        `json:"secretKey" mapstructure:"secret_key"`
}

// CacheConfig contains read-through lookup cache settings
type CacheConfig struct {
	Enabled bool          `json:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `json:"ttl" mapstructure:"ttl"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           DriverPgx,
			Host:             "localhost",
			Port:             5432,
			Database:         "bcms",
			Username:         "postgres",
			SSLMode:          "disable",
			MaxConnections:   25,
			MaxIdleConns:     5,
			ConnMaxLifetime:  5 * time.Minute,
			ConnMaxIdleTime:  5 * time.Minute,
			Timeout:          30 * time.Second,
			BreakerThreshold: 5,
			BreakerWindow:    30 * time.Second,
			BreakerOpenFor:   10 * time.Second,
			TableNames: TableNames{
				Groups:    "bcms_groups",
				Templates: "bcms_templates",
				Entries:   "bcms_entries",
				Media:     "bcms_media",
				Languages: "bcms_languages",
			},
		},
		Resolver: ResolverConfig{
			MaxDepth:        2,
			DefaultLanguage: "en",
		},
		Media: MediaConfig{
			Region:     "us-east-1",
			Prefix:     "media",
			PresignTTL: 15 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPgx, DriverPostgres, DriverSQLite, DriverDuckDB:
	default:
		return &ConfigError{Field: "database.driver", Message: "must be one of pgx, postgres, sqlite, duckdb"}
	}

	if c.Database.MaxConnections <= 0 {
		return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
	}

	if c.Database.UseIAM && c.Database.Region == "" {
		return &ConfigError{Field: "database.region", Message: "is required when useIAM is enabled"}
	}

	tables := c.Database.TableNames
	if tables.Groups == "" || tables.Templates == "" || tables.Entries == "" || tables.Media == "" || tables.Languages == "" {
		return &ConfigError{Field: "database.tableNames", Message: "all table names must be set"}
	}

	if c.Resolver.MaxDepth < 0 {
		return &ConfigError{Field: "resolver.maxDepth", Message: "must be greater than or equal to 0"}
	}

	if c.Media.Bucket != "" && c.Media.PresignTTL <= 0 {
		return &ConfigError{Field: "media.presignTTL", Message: "must be greater than 0 when a bucket is set"}
	}

	if (c.Media.AccessKey == "") != (c.Media.SecretKey == "") {
		return &ConfigError{Field: "media.accessKey", Message: "accessKey and secretKey must be set together"}
	}

	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return &ConfigError{Field: "cache.ttl", Message: "must be greater than 0 when the cache is enabled"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
