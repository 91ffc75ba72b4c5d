// Package setup loads the market economics from the embedded setup.yaml and
// the process environment.
package setup

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed setup.yaml
var setupYaml []byte

type MarketConfig struct {
	// Liquidity is the LMSR parameter b. It is fixed for the life of the market.
	Liquidity   float64 `yaml:"liquidity"`
	Question    string  `yaml:"question"`
	Description string  `yaml:"description"`
}

type AccountsConfig struct {
	StartingBalance      decimal.Decimal `yaml:"startingBalance"`
	AdminStartingBalance decimal.Decimal `yaml:"adminStartingBalance"`
}

type TradingConfig struct {
	LockTimeout      time.Duration `yaml:"lockTimeout"`
	MaxRecentTrades  int           `yaml:"maxRecentTrades"`
	BuyRatePerSecond float64       `yaml:"buyRatePerSecond"`
	BuyBurst         int           `yaml:"buyBurst"`
}

type SettlementConfig struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
}

// EconomicsConfig is the full set of tunables for the market.
type EconomicsConfig struct {
	Market     MarketConfig     `yaml:"market"`
	Accounts   AccountsConfig   `yaml:"accounts"`
	Trading    TradingConfig    `yaml:"trading"`
	Settlement SettlementConfig `yaml:"settlement"`
}

// LoadEconomicsConfig parses the embedded setup.yaml.
func LoadEconomicsConfig() (*EconomicsConfig, error) {
	return ParseEconomicsConfig(setupYaml)
}

// ParseEconomicsConfig parses raw YAML and validates the result.
func ParseEconomicsConfig(raw []byte) (*EconomicsConfig, error) {
	var cfg EconomicsConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse setup.yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the engine relies on.
func (c *EconomicsConfig) Validate() error {
	if c.Market.Liquidity <= 0 {
		return fmt.Errorf("market.liquidity must be positive, got %v", c.Market.Liquidity)
	}
	if c.Accounts.StartingBalance.IsNegative() || c.Accounts.AdminStartingBalance.IsNegative() {
		return fmt.Errorf("starting balances must not be negative")
	}
	if c.Trading.LockTimeout <= 0 {
		return fmt.Errorf("trading.lockTimeout must be positive")
	}
	if c.Trading.MaxRecentTrades <= 0 {
		return fmt.Errorf("trading.maxRecentTrades must be positive")
	}
	if c.Trading.BuyRatePerSecond <= 0 || c.Trading.BuyBurst <= 0 {
		return fmt.Errorf("trading.buyRatePerSecond and trading.buyBurst must be positive")
	}
	if c.Settlement.MaxAttempts < 1 {
		return fmt.Errorf("settlement.maxAttempts must be at least 1")
	}
	if c.Settlement.BaseBackoff < 0 {
		return fmt.Errorf("settlement.baseBackoff must not be negative")
	}
	return nil
}
