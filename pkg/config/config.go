package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RequestTimeout  time.Duration `yaml:"request_timeout" default:"20s"`
		CORS            struct {
			AllowOrigins []string      `yaml:"allow_origins"`
			MaxAge       time.Duration `yaml:"max_age" default:"10m"`
		} `yaml:"cors"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Regime struct {
		Window        int     `yaml:"window" default:"20"`
		Count         int     `yaml:"count" default:"3"`
		Annualization float64 `yaml:"annualization" default:"252"`
	} `yaml:"regime"`
	Forecast struct {
		Horizon     int     `yaml:"horizon" default:"5"`
		Confidence  float64 `yaml:"confidence" default:"0.95"`
		Parallelism int     `yaml:"parallelism" default:"0"`
		Order       struct {
			P int `yaml:"p" default:"2"`
			D int `yaml:"d" default:"1"`
			Q int `yaml:"q" default:"2"`
		} `yaml:"order"`
		Search struct {
			Enabled bool `yaml:"enabled"`
			MaxP    int  `yaml:"max_p" default:"3"`
			MinD    int  `yaml:"min_d" default:"0"`
			MaxD    int  `yaml:"max_d" default:"2"`
			MaxQ    int  `yaml:"max_q" default:"3"`
		} `yaml:"search"`
		MinObservations int `yaml:"min_observations" default:"20"`
		MaxIterations   int `yaml:"max_iterations" default:"5000"`
	} `yaml:"forecast"`
	Consensus struct {
		MinConfidence       float64        `yaml:"min_confidence" default:"0.5"`
		ConflictReliability float64        `yaml:"conflict_reliability" default:"0.7"`
		NeutralConfidence   float64        `yaml:"neutral_confidence" default:"0.7"`
		Coherence           float64        `yaml:"coherence" default:"0.5"`
		Significance        float64        `yaml:"significance" default:"0.05"`
		Distribution        string         `yaml:"distribution" default:"normal"`
		SourceTimeout       time.Duration  `yaml:"source_timeout" default:"5s"`
		SourceRetries       uint64         `yaml:"source_retries" default:"2"`
		BreakerFailures     uint32         `yaml:"breaker_failures" default:"5"`
		BreakerCooldown     time.Duration  `yaml:"breaker_cooldown" default:"30s"`
		Sources             []SignalSource `yaml:"sources"`
	} `yaml:"consensus"`
	Kafka struct {
		Brokers        []string `yaml:"brokers"`
		SignalsTopic   string   `yaml:"signals_topic" default:"signaldesk.signals"`
		DecisionsTopic string   `yaml:"decisions_topic" default:"signaldesk.decisions"`
		RequiredAcks   int      `yaml:"required_acks" default:"-1"`
		Compression    string   `yaml:"compression" default:"snappy"`
		Producer       struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"signaldesk-consensus"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"signaldesk.signals.dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"signaldesk"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl" default:"30s"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit struct {
		Capacity     int           `yaml:"capacity" default:"20"`
		RefillEvery  time.Duration `yaml:"refill_every" default:"1s"`
		RefillTokens int           `yaml:"refill_tokens" default:"5"`
	} `yaml:"ratelimit"`
}

// SignalSource is a remote opinion producer polled by the collect endpoint.
type SignalSource struct {
	Name        string  `yaml:"name"`
	URL         string  `yaml:"url"`
	Reliability float64 `yaml:"reliability"`
}

// Load reads and parses a YAML configuration file. Missing keys keep their
// default tag values.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Regime.Window < 2 {
		return fmt.Errorf("regime.window must be >= 2, got %d", c.Regime.Window)
	}
	if c.Regime.Count < 1 {
		return fmt.Errorf("regime.count must be >= 1, got %d", c.Regime.Count)
	}
	if c.Regime.Annualization <= 0 {
		return fmt.Errorf("regime.annualization must be positive")
	}
	if c.Forecast.Horizon < 1 {
		return fmt.Errorf("forecast.horizon must be >= 1, got %d", c.Forecast.Horizon)
	}
	if c.Forecast.Confidence <= 0 || c.Forecast.Confidence >= 1 {
		return fmt.Errorf("forecast.confidence must be in (0,1), got %v", c.Forecast.Confidence)
	}
	o := c.Forecast.Order
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		return fmt.Errorf("forecast.order must be non-negative, got (%d,%d,%d)", o.P, o.D, o.Q)
	}
	if s := c.Forecast.Search; s.Enabled && (s.MinD > s.MaxD || s.MaxP < 0 || s.MaxQ < 0 || s.MinD < 0) {
		return fmt.Errorf("forecast.search bounds are inconsistent")
	}
	switch c.Consensus.Distribution {
	case "normal", "student":
	default:
		return fmt.Errorf("consensus.distribution must be 'normal' or 'student', got '%s'", c.Consensus.Distribution)
	}
	for i, s := range c.Consensus.Sources {
		if s.Name == "" || s.URL == "" {
			return fmt.Errorf("consensus.sources[%d] needs name and url", i)
		}
		if s.Reliability < 0 || s.Reliability > 1 {
			return fmt.Errorf("consensus.sources[%d].reliability must be in [0,1]", i)
		}
	}
	return nil
}
