package surrealrepo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

// Config configures a SurrealDB connection.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string

	// MaxRetries bounds the connection attempts made by Connect.
	MaxRetries uint64
	Backoff    time.Duration
}

// NewConfig returns a Config pointing at a local server.
func NewConfig() *Config {
	return &Config{
		URL:        "ws://localhost:8000/rpc",
		Namespace:  "repokit",
		Database:   "repokit",
		MaxRetries: 5,
		Backoff:    250 * time.Millisecond,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	if c.Namespace == "" || c.Database == "" {
		return fmt.Errorf("namespace and database are required")
	}
	if (c.Username == "") != (c.Password == "") {
		return fmt.Errorf("username and password must be set together")
	}
	return nil
}

// Connect opens a websocket connection using the surrealcbor codec, signs
// in when credentials are set and selects the namespace and database.
// Dialing is retried with exponential backoff.
func Connect(ctx context.Context, cfg *Config, log zerolog.Logger) (*surrealdb.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	var db *surrealdb.DB
	backoff := retry.WithMaxRetries(cfg.MaxRetries, retry.NewExponential(cfg.Backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		conf := connection.NewConfig(u)
		codec := surrealcbor.New()
		conf.Marshaler = codec
		conf.Unmarshaler = codec

		conn, err := surrealdb.FromConnection(ctx, gorillaws.New(conf))
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.URL).Msg("SurrealDB not reachable yet")
			return retry.RetryableError(err)
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if cfg.Username != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": cfg.Username,
			"pass": cfg.Password,
		}); err != nil {
			_ = db.Close(context.Background())
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(context.Background())
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	log.Info().Str("namespace", cfg.Namespace).Str("database", cfg.Database).Msg("connected to SurrealDB")
	return db, nil
}
