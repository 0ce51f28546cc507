package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr        string `yaml:"addr"`
		MetricsAddr string `yaml:"metrics_addr"`
		CORSOrigin  string `yaml:"cors_origin"`
	} `yaml:"server"`
	Gateway struct {
		Mode           string `yaml:"mode"` // PAPER or LIVE
		BaseURL        string `yaml:"base_url"`
		KeyEnv         string `yaml:"key_env"`
		SecretEnv      string `yaml:"secret_env"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		RequestsPerSec int    `yaml:"requests_per_sec"`
	} `yaml:"gateway"`
	Automation struct {
		Symbols           []string `yaml:"symbols"`
		IntervalMinutes   int      `yaml:"interval_minutes"`
		MaxPositionSize   int      `yaml:"max_position_size"`
		MinConfidence     float64  `yaml:"min_confidence"`
		AllowOverlap      bool     `yaml:"allow_overlap"`
		InterTradeDelayMS int      `yaml:"inter_trade_delay_ms"`
		SettleDelayMS     int      `yaml:"settle_delay_ms"`
	} `yaml:"automation"`
	Signals struct {
		RSIOversold        float64 `yaml:"rsi_oversold"`
		RSIOverbought      float64 `yaml:"rsi_overbought"`
		SymbolDelayMS      int     `yaml:"symbol_delay_ms"`
		IndicatorBucketMin int     `yaml:"indicator_bucket_minutes"`
		// DisableTestSignals turns off the low-confidence test signals the
		// generator occasionally emits under a synthetic indicator source.
		DisableTestSignals bool `yaml:"disable_test_signals"`
	} `yaml:"signals"`
	Journal struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"journal"`
}

func (c *Config) Validate() error {
	if c.Gateway.Mode != "PAPER" && c.Gateway.Mode != "LIVE" {
		return fmt.Errorf("invalid gateway.mode '%s': must be 'PAPER' or 'LIVE'", c.Gateway.Mode)
	}
	if len(c.Automation.Symbols) == 0 {
		return errors.New("automation.symbols cannot be empty")
	}
	for _, s := range c.Automation.Symbols {
		if strings.TrimSpace(s) == "" {
			return errors.New("automation.symbols contains an empty symbol")
		}
	}
	if c.Automation.IntervalMinutes < 1 || c.Automation.IntervalMinutes > 1440 {
		return fmt.Errorf("automation.interval_minutes must be between 1-1440, got %d", c.Automation.IntervalMinutes)
	}
	if c.Automation.MaxPositionSize <= 0 {
		return fmt.Errorf("automation.max_position_size must be positive, got %d", c.Automation.MaxPositionSize)
	}
	if c.Automation.MinConfidence < 0 || c.Automation.MinConfidence > 1 {
		return fmt.Errorf("automation.min_confidence must be between 0-1, got %.2f", c.Automation.MinConfidence)
	}
	if c.Signals.RSIOversold < 0 || c.Signals.RSIOverbought > 100 {
		return fmt.Errorf("rsi thresholds must stay within 0-100, got [%.1f, %.1f]", c.Signals.RSIOversold, c.Signals.RSIOverbought)
	}
	// Inverted thresholds silently flip signal polarity, so reject them here.
	if c.Signals.RSIOversold >= c.Signals.RSIOverbought {
		return fmt.Errorf("rsi_oversold (%.1f) must be below rsi_overbought (%.1f)", c.Signals.RSIOversold, c.Signals.RSIOverbought)
	}
	return nil
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = ":9100"
	}
	if c.Gateway.Mode == "" {
		c.Gateway.Mode = "PAPER"
	}
	if c.Gateway.KeyEnv == "" {
		c.Gateway.KeyEnv = "BROKER_API_KEY_ID"
	}
	if c.Gateway.SecretEnv == "" {
		c.Gateway.SecretEnv = "BROKER_API_SECRET_KEY"
	}
	if c.Gateway.TimeoutSeconds == 0 {
		c.Gateway.TimeoutSeconds = 30
	}
	if c.Gateway.RequestsPerSec == 0 {
		c.Gateway.RequestsPerSec = 5
	}
	if c.Automation.IntervalMinutes == 0 {
		c.Automation.IntervalMinutes = 5
	}
	if c.Automation.MaxPositionSize == 0 {
		c.Automation.MaxPositionSize = 10
	}
	if c.Automation.MinConfidence == 0 {
		c.Automation.MinConfidence = 0.7
	}
	if c.Automation.InterTradeDelayMS == 0 {
		c.Automation.InterTradeDelayMS = 500
	}
	if c.Automation.SettleDelayMS == 0 {
		c.Automation.SettleDelayMS = 1000
	}
	if c.Signals.RSIOversold == 0 {
		c.Signals.RSIOversold = 30
	}
	if c.Signals.RSIOverbought == 0 {
		c.Signals.RSIOverbought = 70
	}
	if c.Signals.SymbolDelayMS == 0 {
		c.Signals.SymbolDelayMS = 200
	}
	if c.Signals.IndicatorBucketMin == 0 {
		c.Signals.IndicatorBucketMin = 10
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "logs"
	}
}
