package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"SetupScanner/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORS            bool          `yaml:"cors"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Binance struct {
		RestURL    string        `yaml:"rest_url"`
		WSURL      string        `yaml:"ws_url"`
		APIKey     string        `yaml:"api_key"`
		SecretKey  string        `yaml:"secret_key"`
		RateLimit  float64       `yaml:"rate_limit"`
		Burst      int           `yaml:"burst"`
		MaxRetries int           `yaml:"max_retries"`
		CacheTTL   time.Duration `yaml:"cache_ttl"`
	} `yaml:"binance"`
	Stream struct {
		Enabled      bool          `yaml:"enabled"`
		Interval     string        `yaml:"interval"`
		History      int           `yaml:"history"`
		PingInterval time.Duration `yaml:"ping_interval"`
	} `yaml:"stream"`
	Scan struct {
		RSIPeriod     int `yaml:"rsi_period"`
		SwingLookback int `yaml:"swing_lookback"`
		DefaultLimit  int `yaml:"default_limit"`
	} `yaml:"scan"`
	Watchlist []string `yaml:"watchlist"`
	Scheduler struct {
		WatchlistSpec string `yaml:"watchlist_spec"`
	} `yaml:"scheduler"`
	Kafka struct {
		Enabled           bool     `yaml:"enabled"`
		Brokers           []string `yaml:"brokers"`
		ResultsTopic      string   `yaml:"results_topic"`
		ScanRequestsTopic string   `yaml:"scan_requests_topic"`
		RequiredAcks      int      `yaml:"required_acks"`
		Compression       string   `yaml:"compression"`
		Producer          struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Odds struct {
		ConfigPath string `yaml:"config_path"`
	} `yaml:"odds"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"ratelimit"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML, overrides with environment variables, then validates.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.Binance.APIKey = v
	}
	if v := os.Getenv("BINANCE_SECRET_KEY"); v != "" {
		c.Binance.SecretKey = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Watchlist = splitList(v)
		for i, s := range c.Watchlist {
			c.Watchlist[i] = util.NormalizeSymbol(s)
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Stream.Interval == "" {
		c.Stream.Interval = "1m"
	}
	if c.Stream.History == 0 {
		c.Stream.History = 200
	}
	if c.Stream.PingInterval == 0 {
		c.Stream.PingInterval = 20 * time.Second
	}
	if c.Scan.RSIPeriod == 0 {
		c.Scan.RSIPeriod = 14
	}
	if c.Scan.SwingLookback == 0 {
		c.Scan.SwingLookback = 5
	}
	if c.Scan.DefaultLimit == 0 {
		c.Scan.DefaultLimit = 200
	}
	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 10
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 20
	}
	for i, s := range c.Watchlist {
		c.Watchlist[i] = util.NormalizeSymbol(s)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if !util.ValidInterval(c.Stream.Interval) {
		return fmt.Errorf("stream.interval %q is not a supported kline interval", c.Stream.Interval)
	}
	if c.Stream.History < 20 || c.Stream.History > 1000 {
		return fmt.Errorf("stream.history must be within [20, 1000], got %d", c.Stream.History)
	}
	if c.Stream.Enabled && len(c.Watchlist) == 0 {
		return fmt.Errorf("watchlist cannot be empty when stream.enabled is set")
	}
	for _, s := range c.Watchlist {
		if s == "" {
			return fmt.Errorf("watchlist contains an empty symbol")
		}
	}
	if c.Scan.RSIPeriod < 2 {
		return fmt.Errorf("scan.rsi_period must be at least 2, got %d", c.Scan.RSIPeriod)
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.ResultsTopic == "" {
			return fmt.Errorf("kafka.results_topic is required when kafka is enabled")
		}
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("ratelimit.rps cannot be negative")
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
