package mongorepo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config configures a MongoDB connection.
type Config struct {
	URI      string
	Database string

	ConnectTimeout time.Duration
	// MaxRetries bounds the ping attempts made by Connect.
	MaxRetries uint64
}

// NewConfig returns a Config pointing at a local server.
func NewConfig() *Config {
	return &Config{
		URI:            "mongodb://localhost:27017",
		Database:       "repokit",
		ConnectTimeout: 10 * time.Second,
		MaxRetries:     5,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("uri is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	return nil
}

// Connect dials the server and pings it, retrying with exponential backoff,
// then returns the configured database.
func Connect(ctx context.Context, cfg *Config, log zerolog.Logger) (*mongo.Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	backoff := retry.WithMaxRetries(cfg.MaxRetries, retry.NewExponential(250*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			log.Warn().Err(err).Msg("MongoDB not reachable yet")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Info().Str("database", cfg.Database).Msg("connected to MongoDB")
	return client.Database(cfg.Database), nil
}
