package main

import (
	"fmt"
	"strings"

	"github.com/bcms/bcms"
	"github.com/spf13/viper"
)

const envPrefix = "BCMS"

// loadConfig reads path (optional) and BCMS_ prefixed environment variables
// over bcms.DefaultConfig. Nested keys map to env names with "_", e.g.
// BCMS_DATABASE_DRIVER or BCMS_MEDIA_BUCKET.
func loadConfig(path string) (*bcms.Config, error) {
	v := viper.New()
	setDefaults(v, bcms.DefaultConfig())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &bcms.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *bcms.Config) {
	db := cfg.Database
	v.SetDefault("database.driver", db.Driver)
	v.SetDefault("database.dsn", db.DSN)
	v.SetDefault("database.host", db.Host)
	v.SetDefault("database.port", db.Port)
	v.SetDefault("database.database", db.Database)
	v.SetDefault("database.username", db.Username)
	v.SetDefault("database.password", db.Password)
	v.SetDefault("database.ssl_mode", db.SSLMode)
	v.SetDefault("database.max_connections", db.MaxConnections)
	v.SetDefault("database.max_idle_conns", db.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", db.ConnMaxLifetime)
	v.SetDefault("database.conn_max_idle_time", db.ConnMaxIdleTime)
	v.SetDefault("database.timeout", db.Timeout)
	v.SetDefault("database.use_iam", db.UseIAM)
	v.SetDefault("database.region", db.Region)
	v.SetDefault("database.breaker_threshold", db.BreakerThreshold)
	v.SetDefault("database.breaker_window", db.BreakerWindow)
	v.SetDefault("database.breaker_open_for", db.BreakerOpenFor)
	v.SetDefault("database.table_names.groups", db.TableNames.Groups)
	v.SetDefault("database.table_names.templates", db.TableNames.Templates)
	v.SetDefault("database.table_names.entries", db.TableNames.Entries)
	v.SetDefault("database.table_names.media", db.TableNames.Media)
	v.SetDefault("database.table_names.languages", db.TableNames.Languages)

	v.SetDefault("content.directory", cfg.Content.Directory)

	v.SetDefault("resolver.max_depth", cfg.Resolver.MaxDepth)
	v.SetDefault("resolver.default_language", cfg.Resolver.DefaultLanguage)

	media := cfg.Media
	v.SetDefault("media.bucket", media.Bucket)
	v.SetDefault("media.region", media.Region)
	v.SetDefault("media.endpoint", media.Endpoint)
	v.SetDefault("media.prefix", media.Prefix)
	v.SetDefault("media.public_base_url", media.PublicBaseURL)
	v.SetDefault("media.presign_ttl", media.PresignTTL)
	v.SetDefault("media.use_path_style", media.UsePathStyle)
	v.SetDefault("media.access_key", media.AccessKey)
	v.SetDefault("media.secret_key", media.SecretKey)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
