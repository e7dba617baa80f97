// Package config loads and validates the engine configuration from YAML
// or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/breakout/strategy"
)

type Config struct {
	Account     AccountConfig      `json:"account" yaml:"account"`
	Strategy    StrategyConfig     `json:"strategy" yaml:"strategy"`
	Engine      EngineConfig       `json:"engine" yaml:"engine"`
	Journal     JournalConfig      `json:"journal" yaml:"journal"`
	Telegram    TelegramConfig     `json:"telegram,omitempty" yaml:"telegram,omitempty"`
	Instruments []InstrumentConfig `json:"instruments" yaml:"instruments"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	ID       string  `json:"id,omitempty" yaml:"id,omitempty"`
	Currency string  `json:"currency" yaml:"currency"`
	Capital  float64 `json:"capital" yaml:"capital"`
}

// StrategyConfig contains breakout strategy parameters
type StrategyConfig struct {
	RiskPercent float64       `json:"risk_percent" yaml:"risk_percent"`
	Commission  float64       `json:"commission" yaml:"commission"`
	Grid        strategy.Grid `json:"grid,omitempty" yaml:"grid,omitempty"`
}

// EngineConfig contains live loop and recalibration parameters
type EngineConfig struct {
	PollInterval string `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"` // e.g. "30s"
	DaysBack     int    `json:"days_back" yaml:"days_back"`
	RecalTime    string `json:"recal_time" yaml:"recal_time"` // "HH:MM" exchange-local
	Timezone     string `json:"timezone" yaml:"timezone"`     // e.g. "Europe/Moscow"
	Live         bool   `json:"live" yaml:"live"`
}

// ParsePollInterval converts the poll interval string to a duration.
func (e EngineConfig) ParsePollInterval() (time.Duration, error) {
	if e.PollInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(e.PollInterval)
}

// Location resolves the configured exchange time zone.
func (e EngineConfig) Location() (*time.Location, error) {
	if e.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(e.Timezone)
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile  string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	CapitalFile string `json:"capital_file,omitempty" yaml:"capital_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// TelegramConfig contains notification credentials. Empty fields fall
// back to the TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID environment
// variables so tokens can stay out of config files.
type TelegramConfig struct {
	BotToken string `json:"bot_token,omitempty" yaml:"bot_token,omitempty"`
	ChatID   string `json:"chat_id,omitempty" yaml:"chat_id,omitempty"`
}

// Resolved returns the credentials with environment fallbacks applied.
func (t TelegramConfig) Resolved() TelegramConfig {
	if t.BotToken == "" {
		t.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if t.ChatID == "" {
		t.ChatID = os.Getenv("TELEGRAM_CHAT_ID")
	}
	return t
}

// InstrumentConfig names one instrument to trade. FIGI may be left empty
// and resolved from the ticker at startup.
type InstrumentConfig struct {
	Ticker string `json:"ticker" yaml:"ticker"`
	FIGI   string `json:"figi,omitempty" yaml:"figi,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Capital <= 0 {
		return fmt.Errorf("account.capital must be positive")
	}
	if c.Strategy.RiskPercent <= 0 || c.Strategy.RiskPercent > 1 {
		return fmt.Errorf("strategy.risk_percent must be between 0 and 1")
	}
	if c.Strategy.Commission < 0 || c.Strategy.Commission >= 1 {
		return fmt.Errorf("strategy.commission must be in [0, 1)")
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	for i, inst := range c.Instruments {
		if inst.Ticker == "" {
			return fmt.Errorf("instruments[%d].ticker is required", i)
		}
	}
	if _, err := c.Engine.ParsePollInterval(); err != nil {
		return fmt.Errorf("engine.poll_interval: %w", err)
	}
	if _, err := c.Engine.Location(); err != nil {
		return fmt.Errorf("engine.timezone: %w", err)
	}
	if c.Engine.RecalTime != "" {
		if err := validateWallClock(c.Engine.RecalTime); err != nil {
			return fmt.Errorf("engine.recal_time: %w", err)
		}
	}
	if c.Engine.DaysBack < 0 {
		return fmt.Errorf("engine.days_back must not be negative")
	}
	if c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && (c.Journal.TradesFile == "" || c.Journal.CapitalFile == "") {
		return fmt.Errorf("journal trades_file and capital_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	return nil
}

func validateWallClock(s string) error {
	var hh, mm int
	if _, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil {
		return fmt.Errorf("%q: want HH:MM", s)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return fmt.Errorf("%q: out of range", s)
	}
	return nil
}

// Grid returns the parameter grid, falling back to the built-in default
// when the config leaves it empty.
func (c *Config) Grid() strategy.Grid {
	if c.Strategy.Grid.Size() == 0 {
		return strategy.DefaultGrid()
	}
	return c.Strategy.Grid
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "BRK-001",
			Currency: "RUB",
			Capital:  50000,
		},
		Strategy: StrategyConfig{
			RiskPercent: 0.02,
			Commission:  0.0004,
			Grid:        strategy.DefaultGrid(),
		},
		Engine: EngineConfig{
			PollInterval: "30s",
			DaysBack:     5,
			RecalTime:    "09:55",
			Timezone:     "Europe/Moscow",
			Live:         false,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./journal.db",
		},
		Instruments: []InstrumentConfig{
			{Ticker: "GAZP"},
		},
	}
}
