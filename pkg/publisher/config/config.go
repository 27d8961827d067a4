// Package config loads server configuration from the environment and builds
// the wired service graph.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prokash-cms/prokash/pkg/publisher"
	"github.com/prokash-cms/prokash/pkg/publisher/auth"
	"github.com/prokash-cms/prokash/pkg/publisher/media"
	repomemory "github.com/prokash-cms/prokash/pkg/publisher/repo/memory"
	repopg "github.com/prokash-cms/prokash/pkg/publisher/repo/postgres"
	storagememory "github.com/prokash-cms/prokash/pkg/publisher/storage/memory"
	storages3 "github.com/prokash-cms/prokash/pkg/publisher/storage/s3"
	"github.com/prokash-cms/prokash/pkg/publisher/urls"
)

// Config is the server configuration, read from the environment.
type Config struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	DatabaseType string `env:"DATABASE_TYPE" env-default:"memory"`
	DatabaseURL  string `env:"DATABASE_URL"`

	JWTSecret string        `env:"JWT_SECRET" env-default:"development-secret-change-me"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" env-default:"24h"`

	StorageType    string        `env:"STORAGE_TYPE" env-default:"memory"`
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT" env-default:"30s"`
	S3Region       string        `env:"S3_REGION" env-default:"us-east-1"`
	S3Bucket       string        `env:"S3_BUCKET"`
	S3Endpoint     string        `env:"S3_ENDPOINT"`
	S3AccessKey    string        `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string        `env:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool          `env:"S3_USE_PATH_STYLE" env-default:"false"`
	PublicURLHost  string        `env:"PUBLIC_URL_HOST"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("DATABASE_TYPE must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required when DATABASE_TYPE is postgres")
	}
	if c.StorageType != "memory" && c.StorageType != "s3" {
		return errors.New("STORAGE_TYPE must be 'memory' or 's3'")
	}
	if c.StorageType == "s3" && c.S3Bucket == "" {
		return errors.New("S3_BUCKET is required when STORAGE_TYPE is s3")
	}
	return nil
}

// App is the wired service graph.
type App struct {
	Repository publisher.Repository
	Service    publisher.Service
	Auth       *auth.Authenticator
	Pipeline   *media.Pipeline
}

// Build wires the repository, storage, media pipeline, service, and
// authenticator from the configuration.
func (c *Config) Build(ctx context.Context) (*App, error) {
	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("build repository: %w", err)
	}

	store, err := c.buildStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("build storage: %w", err)
	}

	urlHost := c.PublicURLHost
	if urlHost == "" {
		urlHost = c.S3Endpoint
	}
	if urlHost == "" {
		urlHost = fmt.Sprintf("s3.%s.amazonaws.com", c.S3Region)
	}
	builder := urls.NewBuilder(c.S3Bucket, urlHost)
	pipeline := media.NewPipeline(store, builder, c.StorageTimeout)

	svc, err := publisher.New(
		publisher.WithRepository(repo),
		publisher.WithMediaCleaner(pipeline),
	)
	if err != nil {
		return nil, fmt.Errorf("build service: %w", err)
	}

	authn := auth.New([]byte(c.JWTSecret), repo, svc, c.TokenTTL)

	return &App{
		Repository: repo,
		Service:    svc,
		Auth:       authn,
		Pipeline:   pipeline,
	}, nil
}

func (c *Config) buildRepository(ctx context.Context) (publisher.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create pgx pool: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *Config) buildStorage(ctx context.Context) (publisher.BlobStore, error) {
	switch c.StorageType {
	case "memory":
		return storagememory.New(), nil
	case "s3":
		return storages3.New(ctx, storages3.Config{
			Region:          c.S3Region,
			Bucket:          c.S3Bucket,
			AccessKeyID:     c.S3AccessKey,
			SecretAccessKey: c.S3SecretKey,
			Endpoint:        c.S3Endpoint,
			UsePathStyle:    c.S3UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
}
