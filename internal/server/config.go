package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/loan-simulator/internal/config"
	"github.com/iwvelando/loan-simulator/pkg/constants"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address        string
	MaxBodySize    string
	AllowedOrigins []string
	RateLimit      config.RateLimitConfig
	TTL            time.Duration
	Version        string
	bodySizeBytes  int64
}

// DefaultConfig returns the server defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:     constants.DefaultServerAddress,
		MaxBodySize: fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes),
		RateLimit: config.RateLimitConfig{
			Requests: constants.DefaultRateLimitRequests,
			Window:   constants.DefaultRateLimitWindow,
		},
		TTL:           constants.DefaultSimulationTTL,
		Version:       "dev",
		bodySizeBytes: constants.DefaultMaxBodySizeBytes,
	}
}

// NewConfig derives the server configuration from the loaded application
// configuration.
func NewConfig(conf *config.Configuration) (*Config, error) {
	cfg := DefaultConfig()
	if conf == nil {
		return cfg, nil
	}

	cfg.Address = conf.Server.Address
	cfg.MaxBodySize = conf.Server.MaxBodySize
	cfg.AllowedOrigins = append([]string(nil), conf.Server.AllowedOrigins...)
	cfg.RateLimit = conf.Server.RateLimit
	cfg.TTL = conf.Store.TTL
	cfg.Version = conf.Server.Version

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BodySizeBytes returns the configured request body limit in bytes.
func (c *Config) BodySizeBytes() int64 {
	return c.bodySizeBytes
}

// SetBodySizeBytes overrides the configured request body limit.
func (c *Config) SetBodySizeBytes(size int64) {
	if size > 0 {
		c.bodySizeBytes = size
		c.MaxBodySize = fmt.Sprintf("%d", size)
	}
}

func (c *Config) normalize() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.TTL <= 0 {
		c.TTL = constants.DefaultSimulationTTL
	}
	c.Version = strings.TrimSpace(c.Version)
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		c.RateLimit.Window = constants.DefaultRateLimitWindow
	}

	sizeStr := strings.TrimSpace(c.MaxBodySize)
	if sizeStr == "" {
		c.bodySizeBytes = constants.DefaultMaxBodySizeBytes
		c.MaxBodySize = fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes)
		return nil
	}

	bytes, err := ParseSize(sizeStr)
	if err != nil {
		return err
	}
	if bytes <= 0 {
		bytes = constants.DefaultMaxBodySizeBytes
	}
	c.bodySizeBytes = bytes
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
