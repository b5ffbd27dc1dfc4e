package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string          `yaml:"environment" default:"development"`
	Debug       bool            `yaml:"debug"`
	Server      ServerConfig    `yaml:"server"`
	Log         LogConfig       `yaml:"log"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Scoring     ScoringConfig   `yaml:"scoring"`
	Fairness    FairnessConfig  `yaml:"fairness"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Cache       CacheConfig     `yaml:"cache"`
	Kafka       KafkaConfig     `yaml:"kafka"`
	ClickHouse  ClickHouse      `yaml:"clickhouse"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"3001"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"500ms"`
	CORS            bool          `yaml:"cors" default:"true"`
	AllowOrigins    []string      `yaml:"allow_origins" default:"[\"*\"]"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
	Output string `yaml:"output" default:"stdout"`
	// Collector aggregates repeated errors and ships them to Kafka.
	Collector struct {
		Enabled   bool          `yaml:"enabled"`
		Interval  time.Duration `yaml:"interval" default:"30s"`
		Threshold int           `yaml:"threshold" default:"100"`
		Topic     string        `yaml:"topic" default:"altcredit.logs"`
		// IncludeWarn collects warn lines as well as errors.
		IncludeWarn bool `yaml:"include_warn"`
	} `yaml:"collector"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type ScoringConfig struct {
	MaxBatch     int `yaml:"max_batch" default:"100"`
	BatchWorkers int `yaml:"batch_workers" default:"8"`
	Jitter       struct {
		Enabled   bool    `yaml:"enabled"`
		Seed      uint64  `yaml:"seed"`
		Amplitude float64 `yaml:"amplitude" default:"5"`
	} `yaml:"jitter"`
}

type FairnessConfig struct {
	DemographicParity float64 `yaml:"demographic_parity" default:"0.05"`
	EqualizedOdds     float64 `yaml:"equalized_odds" default:"0.05"`
	EqualOpportunity  float64 `yaml:"equal_opportunity" default:"0.05"`
}

type RateLimitConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
	// 100 requests per 15 minutes per IP
	Capacity     float64       `yaml:"capacity" default:"100"`
	RefillPerSec float64       `yaml:"refill_per_sec" default:"0.111"`
	IdleTTL      time.Duration `yaml:"idle_ttl" default:"30m"`
}

type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl" default:"10m"`
	MemorySize int           `yaml:"memory_size" default:"10000"`
	Redis      struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

type KafkaConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Brokers        []string `yaml:"brokers"`
	DecisionsTopic string   `yaml:"decisions_topic" default:"altcredit.decisions"`
	RequestsTopic  string   `yaml:"requests_topic"`
	RequiredAcks   int      `yaml:"required_acks" default:"-1"`
	Compression    string   `yaml:"compression" default:"snappy"`
	Producer       struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"10ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"5s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		GroupID    string        `yaml:"group_id" default:"altcredit-scoring"`
		Workers    int           `yaml:"workers" default:"4"`
		BufferSize int           `yaml:"buffer_size" default:"64"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
		DLQTopic   string        `yaml:"dlq_topic"`
		MinBytes   int           `yaml:"min_bytes" default:"1"`
		MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		// MaxPayload rejects single request messages above this size.
		MaxPayload int           `yaml:"max_payload" default:"65536"`
	} `yaml:"consumer"`
}

type ClickHouse struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"default"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	Table            string        `yaml:"table" default:"decision_events"`
	UseHTTP          bool          `yaml:"use_http"`
	Compression      string        `yaml:"compression"`
	MaxOpenConns     int           `yaml:"max_open_conns" default:"10"`
	MaxIdleConns     int           `yaml:"max_idle_conns" default:"5"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time"`
}

// Default returns a config with every default applied and nothing loaded.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment lookup.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("APP_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("APP_DEBUG: %w", err)
		}
		c.Debug = b
	}
	if v := getenv("SERVER_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("SCORING_JITTER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SCORING_JITTER: %w", err)
		}
		c.Scoring.Jitter.Enabled = b
	}
	if v := getenv("SCORING_SEED"); v != "" {
		s, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SCORING_SEED: %w", err)
		}
		c.Scoring.Jitter.Seed = s
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Scoring.MaxBatch < 1 || c.Scoring.MaxBatch > 1000 {
		return fmt.Errorf("scoring.max_batch must be in 1..1000, got %d", c.Scoring.MaxBatch)
	}
	if c.Scoring.BatchWorkers < 1 {
		return fmt.Errorf("scoring.batch_workers must be positive")
	}
	if c.Scoring.Jitter.Amplitude < 0 {
		return fmt.Errorf("scoring.jitter.amplitude cannot be negative")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Capacity <= 0 || c.RateLimit.RefillPerSec <= 0) {
		return fmt.Errorf("rate_limit.capacity and rate_limit.refill_per_sec must be positive")
	}
	if c.RateLimit.Enabled && c.RateLimit.IdleTTL <= 0 {
		return fmt.Errorf("rate_limit.idle_ttl must be positive")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.DecisionsTopic == "" {
			return fmt.Errorf("kafka.decisions_topic is required when kafka is enabled")
		}
	}
	if c.Log.Collector.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("log.collector requires kafka")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
