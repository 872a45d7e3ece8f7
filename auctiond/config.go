package main

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the auctiond yaml configuration.
type Config struct {
	ListenPort uint32 `yaml:"listen_port"`
	MaxWorkers int    `yaml:"max_workers"`

	Operator string `yaml:"operator"`

	BondSupply string `yaml:"bond_supply"`
	MinPrice   string `yaml:"min_price"`
	MaxPrice   string `yaml:"max_price"`

	CommitDuration string `yaml:"commit_duration"`
	RevealDuration string `yaml:"reveal_duration"`
	ClaimDuration  string `yaml:"claim_duration"`

	InstrumentName string `yaml:"instrument_name"`
	InstrumentCap  string `yaml:"instrument_cap"`
	PaymentName    string `yaml:"payment_name"`
}

// LoadConfig reads and validates the yaml configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.ListenPort == 0 {
		cfg.ListenPort = 5000
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 8
	}
	if cfg.Operator == "" {
		return nil, fmt.Errorf("config: operator account is required")
	}
	if cfg.InstrumentName == "" {
		cfg.InstrumentName = "BOND"
	}
	if cfg.PaymentName == "" {
		cfg.PaymentName = "PAY"
	}
	return &cfg, nil
}

func (c *Config) amounts() (supply, minPrice, maxPrice, cap decimal.Decimal, err error) {
	supply, err = decimal.NewFromString(c.BondSupply)
	if err != nil {
		return supply, minPrice, maxPrice, cap, fmt.Errorf("config: invalid bond_supply %q: %w", c.BondSupply, err)
	}
	minPrice, err = decimal.NewFromString(c.MinPrice)
	if err != nil {
		return supply, minPrice, maxPrice, cap, fmt.Errorf("config: invalid min_price %q: %w", c.MinPrice, err)
	}
	maxPrice, err = decimal.NewFromString(c.MaxPrice)
	if err != nil {
		return supply, minPrice, maxPrice, cap, fmt.Errorf("config: invalid max_price %q: %w", c.MaxPrice, err)
	}
	capStr := c.InstrumentCap
	if capStr == "" {
		capStr = c.BondSupply // cap defaults to the auctioned supply
	}
	cap, err = decimal.NewFromString(capStr)
	if err != nil {
		return supply, minPrice, maxPrice, cap, fmt.Errorf("config: invalid instrument_cap %q: %w", capStr, err)
	}
	return supply, minPrice, maxPrice, cap, nil
}

func (c *Config) durations() (commit, reveal, claim time.Duration, err error) {
	commit, err = time.ParseDuration(c.CommitDuration)
	if err != nil {
		return commit, reveal, claim, fmt.Errorf("config: invalid commit_duration %q: %w", c.CommitDuration, err)
	}
	reveal, err = time.ParseDuration(c.RevealDuration)
	if err != nil {
		return commit, reveal, claim, fmt.Errorf("config: invalid reveal_duration %q: %w", c.RevealDuration, err)
	}
	claim, err = time.ParseDuration(c.ClaimDuration)
	if err != nil {
		return commit, reveal, claim, fmt.Errorf("config: invalid claim_duration %q: %w", c.ClaimDuration, err)
	}
	return commit, reveal, claim, nil
}
