// Command token mints an operator bearer token for local use against the API.
//
//	JWT_SECRET=... go run ./cmd/token -name ops-console
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	"github.com/josh-kwaku/payment-decider/internal/auth"
	"github.com/josh-kwaku/payment-decider/internal/logging"
)

type tokenConfig struct {
	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
}

func main() {
	operator := flag.String("operator", "", "operator id (uuid); a new one is generated when empty")
	name := flag.String("name", "local-operator", "operator display name")
	flag.Parse()

	slog.SetDefault(logging.New(os.Stderr, "payment-decider-token", "info", "development"))

	cfg, err := env.ParseAs[tokenConfig]()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	id := uuid.New()
	if *operator != "" {
		id, err = uuid.Parse(*operator)
		if err != nil {
			slog.Error("invalid operator id", "operator", *operator, "error", err)
			os.Exit(1)
		}
	}

	token, err := auth.GenerateToken(id, *name, cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		slog.Error("failed to mint token", "error", err)
		os.Exit(1)
	}

	slog.Info("minted operator token", "operator_id", id, "expires_in", cfg.JWTExpiry)
	fmt.Println(token)
}
