package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"carousel/internal/model"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Arbitrage ArbitrageConfig
	Execution ExecutionConfig
	Feed      FeedConfig
	Database  DatabaseConfig
	Metrics   MetricsConfig
}

// ArbitrageConfig defines the strategy-level settings.
type ArbitrageConfig struct {
	BaseCurrency     string   `mapstructure:"base_currency"`
	Pairs            []string `mapstructure:"pairs"`
	StartingBalance  float64  `mapstructure:"starting_balance"`
	RunDurationSec   int      `mapstructure:"run_duration_sec"`
	TickIntervalMS   int      `mapstructure:"tick_interval_ms"`
	FeePerLeg        float64  `mapstructure:"fee_per_leg"`
	MinLegProfitPct  float64  `mapstructure:"min_leg_profit_pct"` // 0 disables the cutoff filter
	PositionFraction float64  `mapstructure:"position_fraction"`
}

// ExecutionConfig defines order placement and fill confirmation settings.
type ExecutionConfig struct {
	Trader           string  `mapstructure:"trader"`
	MinOrderNotional float64 `mapstructure:"min_order_notional"`
	PollAttempts     int     `mapstructure:"poll_attempts"`
	PollIntervalMS   int     `mapstructure:"poll_interval_ms"`
	FillDelayMS      int     `mapstructure:"fill_delay_ms"` // paper client only
}

// FeedConfig defines the live price feed settings.
type FeedConfig struct {
	Source string `mapstructure:"source"`
	URL    string `mapstructure:"url"`
}

// DatabaseConfig defines the database connection settings. An empty host
// disables persistence.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// MetricsConfig defines the metrics endpoint settings. An empty addr disables
// the server.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

// Base returns the canonical base currency symbol.
func (c *Config) Base() string {
	return model.CanonSymbol(c.Arbitrage.BaseCurrency)
}

// TradingPairs parses the configured whitelist into pairs.
func (c *Config) TradingPairs() ([]model.Pair, error) {
	pairs := make([]model.Pair, 0, len(c.Arbitrage.Pairs))
	seen := make(map[string]struct{}, len(c.Arbitrage.Pairs))
	for _, s := range c.Arbitrage.Pairs {
		p, err := model.ParsePair(s)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p.Canon()]; dup {
			return nil, fmt.Errorf("duplicate pair %s in whitelist", p)
		}
		seen[p.Canon()] = struct{}{}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// TickInterval returns the control loop tick interval.
func (c *Config) TickInterval() time.Duration {
	if c.Arbitrage.TickIntervalMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Arbitrage.TickIntervalMS) * time.Millisecond
}

// RunDuration returns the session run duration; zero means run until
// cancelled.
func (c *Config) RunDuration() time.Duration {
	return time.Duration(c.Arbitrage.RunDurationSec) * time.Second
}

// PollInterval returns the delay between fill-status polls.
func (c *Config) PollInterval() time.Duration {
	if c.Execution.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Execution.PollIntervalMS) * time.Millisecond
}

// FillDelay returns the simulated time to fill for the paper client.
func (c *Config) FillDelay() time.Duration {
	return time.Duration(c.Execution.FillDelayMS) * time.Millisecond
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", d.User, d.Password, d.Host, d.Port, d.DBName)
}
