package kafka

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/segmentio/kafka-go"
)

// ProducerOption configures Producer.
type ProducerOption func(*ProducerConfig)

// ProducerConfig holds the writer settings used for decision publishing.
// Unset fields take their default tag.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int           `default:"-1"`
	Compression  string        `default:"snappy"`
	MaxAttempts  int           `default:"3"`
	WriteTimeout time.Duration `default:"10s"`
	ReadTimeout  time.Duration `default:"10s"`
	BatchSize    int           `default:"100"`
	BatchBytes   int           `default:"1048576"`
	BatchTimeout time.Duration `default:"10ms"`
	Async        bool
	// HashByKey keeps every decision for one symbol on one partition.
	HashByKey bool `default:"true"`
}

func newProducerConfig(opts ...ProducerOption) (*ProducerConfig, error) {
	cfg := &ProducerConfig{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("producer defaults: %w", err)
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ProducerConfig) validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("brokers are required")
	}
	switch c.RequiredAcks {
	case -1, 0, 1:
	default:
		return fmt.Errorf("required_acks must be -1, 0 or 1, got %d", c.RequiredAcks)
	}
	if _, err := parseCompression(c.Compression); err != nil {
		return err
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1, got %d", c.MaxAttempts)
	}
	return nil
}

func (c *ProducerConfig) writer() *kafka.Writer {
	bal := kafka.Balancer(&kafka.LeastBytes{})
	if c.HashByKey {
		bal = &kafka.Hash{}
	}
	comp, _ := parseCompression(c.Compression)
	return &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Balancer:     bal,
		RequiredAcks: kafka.RequiredAcks(c.RequiredAcks),
		Compression:  comp,
		MaxAttempts:  c.MaxAttempts,
		WriteTimeout: c.WriteTimeout,
		ReadTimeout:  c.ReadTimeout,
		BatchSize:    c.BatchSize,
		BatchBytes:   int64(c.BatchBytes),
		BatchTimeout: c.BatchTimeout,
		Async:        c.Async,
	}
}

func parseCompression(s string) (kafka.Compression, error) {
	switch s {
	case "none":
		return 0, nil
	case "", "snappy":
		return kafka.Snappy, nil
	case "gzip":
		return kafka.Gzip, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) { c.Brokers = brokers }
}

// WithCompression accepts none, snappy, gzip, lz4 or zstd.
func WithCompression(compression string) ProducerOption {
	return func(c *ProducerConfig) { c.Compression = compression }
}

// WithRequiredAcks sets required acknowledgements (-1 = all in-sync replicas).
func WithRequiredAcks(acks int) ProducerOption {
	return func(c *ProducerConfig) { c.RequiredAcks = acks }
}

func WithMaxAttempts(n int) ProducerOption {
	return func(c *ProducerConfig) { c.MaxAttempts = n }
}

// WithBatching sets the writer's flush thresholds: message count, bytes and linger.
func WithBatching(size, bytes int, linger time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.BatchSize = size
		c.BatchBytes = bytes
		c.BatchTimeout = linger
	}
}

func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.WriteTimeout = write
		c.ReadTimeout = read
	}
}

// WithAsync makes Publish return before the broker acknowledges.
func WithAsync(async bool) ProducerOption {
	return func(c *ProducerConfig) { c.Async = async }
}

func WithHashByKey(hash bool) ProducerOption {
	return func(c *ProducerConfig) { c.HashByKey = hash }
}
