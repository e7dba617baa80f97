package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 81, cfg.Grid().Size())
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
account:
  currency: RUB
  capital: 50000
strategy:
  risk_percent: 0.02
  commission: 0.0004
  grid:
    lookbacks: [10, 20]
    deltas: [0.001]
    take_profits: [0.01]
    stop_losses: [0.005]
engine:
  poll_interval: 15s
  days_back: 7
  recal_time: "09:55"
  timezone: Europe/Moscow
  live: true
journal:
  type: sqlite
  db_path: ./journal.db
instruments:
  - ticker: GAZP
    figi: BBG004730RP0
  - ticker: SBER
`
	assert.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.InDelta(t, 50000, cfg.Account.Capital, 1e-9)
	assert.True(t, cfg.Engine.Live)
	assert.Equal(t, []int{10, 20}, cfg.Strategy.Grid.Lookbacks)
	assert.Equal(t, 2, cfg.Grid().Size())
	assert.Len(t, cfg.Instruments, 2)
	assert.Equal(t, "BBG004730RP0", cfg.Instruments[0].FIGI)

	d, err := cfg.Engine.ParsePollInterval()
	assert.NoError(t, err)
	assert.Equal(t, "15s", d.String())
}

func TestLoadJSONFallback(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{
		"account": {"currency": "RUB", "capital": 50000},
		"strategy": {"risk_percent": 0.02, "commission": 0.0004},
		"engine": {"days_back": 5, "recal_time": "09:55", "timezone": "Europe/Moscow"},
		"journal": {"type": "csv", "trades_file": "t.csv", "capital_file": "c.csv"},
		"instruments": [{"ticker": "GAZP"}]
	}`
	assert.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "csv", cfg.Journal.Type)
	// Empty grid falls back to the default.
	assert.Equal(t, 81, cfg.Grid().Size())
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capital", func(c *Config) { c.Account.Capital = 0 }},
		{"risk above one", func(c *Config) { c.Strategy.RiskPercent = 1.5 }},
		{"negative commission", func(c *Config) { c.Strategy.Commission = -0.1 }},
		{"no instruments", func(c *Config) { c.Instruments = nil }},
		{"blank ticker", func(c *Config) { c.Instruments = []InstrumentConfig{{}} }},
		{"bad poll interval", func(c *Config) { c.Engine.PollInterval = "soon" }},
		{"bad timezone", func(c *Config) { c.Engine.Timezone = "Mars/Olympus" }},
		{"bad recal time", func(c *Config) { c.Engine.RecalTime = "25:99" }},
		{"bad journal type", func(c *Config) { c.Journal.Type = "parquet" }},
		{"csv missing files", func(c *Config) { c.Journal = JournalConfig{Type: "csv"} }},
		{"sqlite missing path", func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Instruments = append(cfg.Instruments, InstrumentConfig{Ticker: "SBER"})

	assert.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, cfg.Instruments, got.Instruments)
	assert.Equal(t, cfg.Strategy.Grid, got.Strategy.Grid)
}
