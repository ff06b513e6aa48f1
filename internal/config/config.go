package config

import (
	"errors"
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret   string        `env:"JWT_SECRET,required,notEmpty"`
	Port        int           `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string        `env:"APP_ENV" envDefault:"production"`

	// DeciderMode is "fold" or "replay".
	DeciderMode      string `env:"DECIDER_MODE" envDefault:"fold"`
	AppendMaxRetries uint64 `env:"APPEND_MAX_RETRIES" envDefault:"3"`

	ProjectorInterval  time.Duration `env:"PROJECTOR_INTERVAL" envDefault:"2s"`
	ProjectorBatchSize int           `env:"PROJECTOR_BATCH_SIZE" envDefault:"50"`

	IdempotencyTTL        time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	IdempotencySweepEvery time.Duration `env:"IDEMPOTENCY_SWEEP_INTERVAL" envDefault:"10m"`

	DBConnectTimeout   time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"30s"`
	DBMaxOpenConns     int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int           `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int           `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// validate rejects values the background workers cannot run with: a
// non-positive interval panics time.NewTicker.
func (c *Config) validate() error {
	var errs []error
	if c.ProjectorInterval <= 0 {
		errs = append(errs, fmt.Errorf("PROJECTOR_INTERVAL must be positive, got %s", c.ProjectorInterval))
	}
	if c.ProjectorBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("PROJECTOR_BATCH_SIZE must be positive, got %d", c.ProjectorBatchSize))
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, fmt.Errorf("IDEMPOTENCY_TTL must be positive, got %s", c.IdempotencyTTL))
	}
	if c.IdempotencySweepEvery <= 0 {
		errs = append(errs, fmt.Errorf("IDEMPOTENCY_SWEEP_INTERVAL must be positive, got %s", c.IdempotencySweepEvery))
	}
	return errors.Join(errs...)
}
