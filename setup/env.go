package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Env holds the deployment settings that come from the environment rather
// than from setup.yaml.
type Env struct {
	AppEnv             string
	DBDriver           string
	DBDSN              string
	ListenAddr         string
	JWTSigningKey      string
	AdminUsername      string
	AdminPassword      string
	LogLevel           string
	CORSAllowedOrigins []string
	// Liquidity overrides market.liquidity when LMSR_B is set.
	Liquidity float64
}

const devSigningKey = "dev-secret-change-me"

// LoadEnv reads .env if present and then the process environment.
func LoadEnv() (*Env, error) {
	// Missing .env is fine outside development.
	_ = godotenv.Load()

	env := &Env{
		AppEnv:        getenv("APP_ENV", "development"),
		DBDriver:      getenv("DB_DRIVER", "sqlite"),
		DBDSN:         getenv("DB_DSN", "market.db"),
		ListenAddr:    getenv("LISTEN_ADDR", "127.0.0.1:8080"),
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				env.CORSAllowedOrigins = append(env.CORSAllowedOrigins, o)
			}
		}
	}

	if raw := os.Getenv("LMSR_B"); raw != "" {
		b, err := strconv.ParseFloat(raw, 64)
		if err != nil || b <= 0 {
			return nil, fmt.Errorf("LMSR_B must be a positive number, got %q", raw)
		}
		env.Liquidity = b
	}

	if env.JWTSigningKey == "" {
		if env.AppEnv == "production" {
			return nil, fmt.Errorf("JWT_SIGNING_KEY must be set in production")
		}
		env.JWTSigningKey = devSigningKey
	}

	switch env.DBDriver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", env.DBDriver)
	}

	return env, nil
}

// Apply folds environment overrides into the economics config.
func (e *Env) Apply(cfg *EconomicsConfig) {
	if e.Liquidity > 0 {
		cfg.Market.Liquidity = e.Liquidity
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
