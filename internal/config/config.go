package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env               string
	ListenAddr        string
	DatabaseURL       string
	Operators         []string
	OperatorPassword  string
	StatsPollInterval time.Duration
	RegistryURL       string
	FallbackURL       string
	FallbackAPIKey    string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func Load() (Config, error) {
	// Local runs keep secrets in .env; absence is fine in deployed setups.
	_ = godotenv.Load()

	cfg := Config{
		Env:               getenv("APP_ENV", "development"),
		ListenAddr:        getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Operators:         splitList(getenv("OPERATORS", "nectarie,alexandra,ioana")),
		OperatorPassword:  getenv("OPERATOR_PASSWORD", "1234"),
		StatsPollInterval: getenvDuration("STATS_POLL_INTERVAL", 60*time.Second),
		RegistryURL:       os.Getenv("REGISTRY_URL"),
		FallbackURL:       os.Getenv("REGISTRY_FALLBACK_URL"),
		FallbackAPIKey:    os.Getenv("REGISTRY_FALLBACK_API_KEY"),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL not set")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
