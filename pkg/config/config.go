// Package config loads the settings of the repokit command from an optional
// YAML file, .env files and REPOKIT_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/gormrepo"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/mongorepo"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/surrealrepo"
)

// Backends
const (
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendSurrealDB = "surrealdb"
	BackendMongoDB   = "mongodb"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "REPOKIT"

type Config struct {
	Backend string

	Log     LogConfig
	HTTP    HTTPConfig
	SQL     SQLConfig
	Mongo   MongoConfig
	Surreal SurrealConfig
}

type LogConfig struct {
	Level  string
	Format string
	Path   string
}

type HTTPConfig struct {
	Addr     string
	ReadOnly bool
	// CacheTTL enables the read-through cache when positive.
	CacheTTL time.Duration
}

// SQLConfig configures both relational backends.
type SQLConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
}

type MongoConfig struct {
	URI        string
	Database   string
	MaxRetries uint64
}

type SurrealConfig struct {
	URL        string
	Namespace  string
	Database   string
	Username   string
	Password   string
	MaxRetries uint64
}

// NewConfig returns the defaults: the SQLite database file repokit.db in the
// working directory, served on :8080.
func NewConfig() *Config {
	sql := gormrepo.NewConfig()
	mongo := mongorepo.NewConfig()
	surreal := surrealrepo.NewConfig()
	return &Config{
		Backend: BackendSQLite,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		SQL: SQLConfig{
			DSN:             "file:repokit.db",
			MaxIdleConns:    sql.MaxIdleConns,
			MaxOpenConns:    sql.MaxOpenConns,
			ConnMaxLifetime: sql.ConnMaxLifetime,
			SlowThreshold:   sql.SlowThreshold,
		},
		Mongo: MongoConfig{
			URI:        mongo.URI,
			Database:   mongo.Database,
			MaxRetries: mongo.MaxRetries,
		},
		Surreal: SurrealConfig{
			URL:        surreal.URL,
			Namespace:  surreal.Namespace,
			Database:   surreal.Database,
			MaxRetries: surreal.MaxRetries,
		},
	}
}

// Validate validates the configuration of the selected backend.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http address is required")
	}
	if c.HTTP.CacheTTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}
	switch c.Backend {
	case BackendPostgres, BackendSQLite:
		return c.Gorm().Validate()
	case BackendMongoDB:
		return c.MongoDB().Validate()
	case BackendSurrealDB:
		return c.SurrealDB().Validate()
	}
	return fmt.Errorf("unknown backend %q", c.Backend)
}

// Gorm returns the adapter configuration for the relational backends.
func (c *Config) Gorm() *gormrepo.Config {
	cfg := gormrepo.NewConfig()
	cfg.Driver = gormrepo.DriverPostgres
	if c.Backend == BackendSQLite {
		cfg.Driver = gormrepo.DriverSQLite
	}
	cfg.DSN = c.SQL.DSN
	cfg.MaxIdleConns = c.SQL.MaxIdleConns
	cfg.MaxOpenConns = c.SQL.MaxOpenConns
	cfg.ConnMaxLifetime = c.SQL.ConnMaxLifetime
	cfg.SlowThreshold = c.SQL.SlowThreshold
	return cfg
}

// MongoDB returns the adapter configuration for MongoDB.
func (c *Config) MongoDB() *mongorepo.Config {
	cfg := mongorepo.NewConfig()
	cfg.URI = c.Mongo.URI
	cfg.Database = c.Mongo.Database
	cfg.MaxRetries = c.Mongo.MaxRetries
	return cfg
}

// SurrealDB returns the adapter configuration for SurrealDB.
func (c *Config) SurrealDB() *surrealrepo.Config {
	cfg := surrealrepo.NewConfig()
	cfg.URL = c.Surreal.URL
	cfg.Namespace = c.Surreal.Namespace
	cfg.Database = c.Surreal.Database
	cfg.Username = c.Surreal.Username
	cfg.Password = c.Surreal.Password
	cfg.MaxRetries = c.Surreal.MaxRetries
	return cfg
}

// Load reads the configuration. Values come, from lowest to highest
// priority, from the defaults, the YAML file at path (skipped when path is
// empty), .env in the working directory and the environment. Keys map to
// variables by upper-casing and replacing dots, so sql.dsn is read from
// REPOKIT_SQL_DSN.
func Load(path string) (*Config, error) {
	// Missing .env files are fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, NewConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Backend: v.GetString("backend"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Path:   v.GetString("log.path"),
		},
		HTTP: HTTPConfig{
			Addr:     v.GetString("http.addr"),
			ReadOnly: v.GetBool("http.read_only"),
			CacheTTL: v.GetDuration("http.cache_ttl"),
		},
		SQL: SQLConfig{
			DSN:             v.GetString("sql.dsn"),
			MaxIdleConns:    v.GetInt("sql.max_idle_conns"),
			MaxOpenConns:    v.GetInt("sql.max_open_conns"),
			ConnMaxLifetime: v.GetDuration("sql.conn_max_lifetime"),
			SlowThreshold:   v.GetDuration("sql.slow_threshold"),
		},
		Mongo: MongoConfig{
			URI:        v.GetString("mongo.uri"),
			Database:   v.GetString("mongo.database"),
			MaxRetries: v.GetUint64("mongo.max_retries"),
		},
		Surreal: SurrealConfig{
			URL:        v.GetString("surreal.url"),
			Namespace:  v.GetString("surreal.namespace"),
			Database:   v.GetString("surreal.database"),
			Username:   v.GetString("surreal.username"),
			Password:   v.GetString("surreal.password"),
			MaxRetries: v.GetUint64("surreal.max_retries"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("backend", d.Backend)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.path", d.Log.Path)

	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.read_only", d.HTTP.ReadOnly)
	v.SetDefault("http.cache_ttl", d.HTTP.CacheTTL)

	v.SetDefault("sql.dsn", d.SQL.DSN)
	v.SetDefault("sql.max_idle_conns", d.SQL.MaxIdleConns)
	v.SetDefault("sql.max_open_conns", d.SQL.MaxOpenConns)
	v.SetDefault("sql.conn_max_lifetime", d.SQL.ConnMaxLifetime)
	v.SetDefault("sql.slow_threshold", d.SQL.SlowThreshold)

	v.SetDefault("mongo.uri", d.Mongo.URI)
	v.SetDefault("mongo.database", d.Mongo.Database)
	v.SetDefault("mongo.max_retries", d.Mongo.MaxRetries)

	v.SetDefault("surreal.url", d.Surreal.URL)
	v.SetDefault("surreal.namespace", d.Surreal.Namespace)
	v.SetDefault("surreal.database", d.Surreal.Database)
	v.SetDefault("surreal.username", d.Surreal.Username)
	v.SetDefault("surreal.password", d.Surreal.Password)
	v.SetDefault("surreal.max_retries", d.Surreal.MaxRetries)
}
