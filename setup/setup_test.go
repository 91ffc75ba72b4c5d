package setup

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEconomicsConfig(t *testing.T) {
	cfg, err := LoadEconomicsConfig()
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.Market.Liquidity)
	assert.NotEmpty(t, cfg.Market.Question)
	assert.True(t, cfg.Accounts.StartingBalance.Equal(decimal.NewFromInt(100)))
	assert.True(t, cfg.Accounts.AdminStartingBalance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 5*time.Second, cfg.Trading.LockTimeout)
	assert.Equal(t, 200, cfg.Trading.MaxRecentTrades)
	assert.Equal(t, 5, cfg.Settlement.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Settlement.BaseBackoff)
}

func TestParseEconomicsConfigRejectsBadValues(t *testing.T) {
	_, err := ParseEconomicsConfig([]byte("market: ["))
	assert.Error(t, err)

	bad := []byte(`
market:
  liquidity: 0
accounts:
  startingBalance: 100
  adminStartingBalance: 1000
trading:
  lockTimeout: 1s
  maxRecentTrades: 10
  buyRatePerSecond: 1
  buyBurst: 1
settlement:
  maxAttempts: 1
`)
	_, err = ParseEconomicsConfig(bad)
	assert.ErrorContains(t, err, "liquidity")
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("JWT_SIGNING_KEY", "")
	t.Setenv("LMSR_B", "25")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", env.DBDriver)
	assert.Equal(t, devSigningKey, env.JWTSigningKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, env.CORSAllowedOrigins)

	cfg, err := LoadEconomicsConfig()
	require.NoError(t, err)
	env.Apply(cfg)
	assert.Equal(t, 25.0, cfg.Market.Liquidity)
}

func TestLoadEnvRejectsBadValues(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SIGNING_KEY", "")
	_, err := LoadEnv()
	assert.ErrorContains(t, err, "JWT_SIGNING_KEY")

	t.Setenv("APP_ENV", "development")
	t.Setenv("LMSR_B", "-1")
	_, err = LoadEnv()
	assert.ErrorContains(t, err, "LMSR_B")

	t.Setenv("LMSR_B", "")
	t.Setenv("DB_DRIVER", "mysql")
	_, err = LoadEnv()
	assert.ErrorContains(t, err, "DB_DRIVER")
}
