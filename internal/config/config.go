// Package config defines the data structures related to configuration and
// includes functions for loading, validating and converting it.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/iwvelando/loan-simulator/internal/simulation"
	"github.com/iwvelando/loan-simulator/pkg/constants"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Configuration holds all configuration for loan-simulator.
type Configuration struct {
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
	Policy  PolicyConfig  `yaml:"policy"`
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
	Locale string `yaml:"locale,omitempty"` // BCP 47 tag, e.g. pt-PT
}

// PolicyConfig holds the lending policy. Percentages are whole numbers.
type PolicyConfig struct {
	Products                    map[string]simulation.ProductTerms `yaml:"products"`
	DefaultInterestRate         float64                            `yaml:"defaultInterestRate"`
	DefaultProcessingMultiplier float64                            `yaml:"defaultProcessingMultiplier"`
	ProcessingFeeRate           float64                            `yaml:"processingFeeRate"`
	OrganizationFeeRate         float64                            `yaml:"organizationFeeRate"`
	InsuranceAnnualRate         float64                            `yaml:"insuranceAnnualRate"`
	StampDutyRate               float64                            `yaml:"stampDutyRate"`
	InterestStampDutyRate       float64                            `yaml:"interestStampDutyRate"`
	EffortRateThreshold         float64                            `yaml:"effortRateThreshold"`
	Currency                    string                             `yaml:"currency"`
	AllowUnknownProduct         bool                               `yaml:"allowUnknownProduct"`
}

// ServerConfig holds HTTP server options.
type ServerConfig struct {
	Address        string          `yaml:"address"`
	MaxBodySize    string          `yaml:"maxBodySize"`
	AllowedOrigins []string        `yaml:"allowedOrigins,omitempty"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Version        string          `yaml:"version,omitempty"`
}

// RateLimitConfig bounds the number of requests per client and window.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// StoreConfig selects where computed simulations are kept until they expire.
type StoreConfig struct {
	Driver string        `yaml:"driver"` // memory, redis
	TTL    time.Duration `yaml:"ttl"`
	Redis  RedisConfig   `yaml:"redis,omitempty"`
}

// RedisConfig holds the connection options of the redis store driver.
type RedisConfig struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password,omitempty"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix,omitempty"`
}

func setDefaults(v *viper.Viper) {
	defaults := simulation.DefaultPolicy()
	for product, terms := range defaults.Products {
		key := "policy.products." + strings.ToLower(string(product))
		v.SetDefault(key+".interestRate", terms.InterestRate)
		v.SetDefault(key+".processingMultiplier", terms.ProcessingMultiplier)
	}
	v.SetDefault("policy.defaultInterestRate", defaults.DefaultTerms.InterestRate)
	v.SetDefault("policy.defaultProcessingMultiplier", defaults.DefaultTerms.ProcessingMultiplier)
	v.SetDefault("policy.processingFeeRate", defaults.ProcessingFeeRate)
	v.SetDefault("policy.organizationFeeRate", defaults.OrganizationFeeRate)
	v.SetDefault("policy.insuranceAnnualRate", defaults.InsuranceAnnualRate)
	v.SetDefault("policy.stampDutyRate", defaults.StampDutyRate)
	v.SetDefault("policy.interestStampDutyRate", defaults.InterestStampDutyRate)
	v.SetDefault("policy.effortRateThreshold", defaults.EffortRateThreshold)
	v.SetDefault("policy.currency", defaults.DefaultCurrency)
	v.SetDefault("policy.allowUnknownProduct", false)

	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("output.locale", constants.DefaultLocale)

	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxBodySize", fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes))
	v.SetDefault("server.rateLimit.requests", constants.DefaultRateLimitRequests)
	v.SetDefault("server.rateLimit.window", constants.DefaultRateLimitWindow)

	v.SetDefault("store.driver", constants.StoreDriverMemory)
	v.SetDefault("store.ttl", constants.DefaultSimulationTTL)
	v.SetDefault("store.redis.address", constants.DefaultRedisAddress)
	v.SetDefault("store.redis.keyPrefix", "loansim:simulation:")
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path yields the defaults. Values can be
// overridden through LOANSIM_-prefixed environment variables, which are also
// read from a .env file in the working directory when one exists.
func LoadConfiguration(configPath string) (*Configuration, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// Validate reports configuration errors that prevent startup.
func (c *Configuration) Validate() error {
	switch c.Store.Driver {
	case constants.StoreDriverMemory, constants.StoreDriverRedis:
	default:
		return fmt.Errorf("unsupported store driver %q, expected %s or %s",
			c.Store.Driver, constants.StoreDriverMemory, constants.StoreDriverRedis)
	}
	if c.Store.TTL <= 0 {
		return fmt.Errorf("store ttl must be positive, got %s", c.Store.TTL)
	}
	if c.Server.RateLimit.Requests < 0 {
		return fmt.Errorf("server rate limit must not be negative, got %d", c.Server.RateLimit.Requests)
	}
	if c.Policy.Currency == "" {
		return fmt.Errorf("policy currency must not be empty")
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	var unknown []string
	for key := range c.Policy.Products {
		if _, err := simulation.ParseProductType(key); err != nil {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		warnings = append(warnings, fmt.Sprintf("Policy product '%s' is not a known product type and will be ignored", key))
	}

	if c.Policy.EffortRateThreshold <= 0 || c.Policy.EffortRateThreshold > 100 {
		warnings = append(warnings, fmt.Sprintf("Effort rate threshold %.2f%% is outside (0, 100]", c.Policy.EffortRateThreshold))
	}
	if c.Policy.AllowUnknownProduct {
		warnings = append(warnings, fmt.Sprintf("Unknown product types will silently use the default rate of %.2f%%", c.Policy.DefaultInterestRate))
	}
	var rateWarnings []string
	for name, value := range map[string]float64{
		"processingFeeRate":     c.Policy.ProcessingFeeRate,
		"organizationFeeRate":   c.Policy.OrganizationFeeRate,
		"insuranceAnnualRate":   c.Policy.InsuranceAnnualRate,
		"stampDutyRate":         c.Policy.StampDutyRate,
		"interestStampDutyRate": c.Policy.InterestStampDutyRate,
	} {
		if value < 0 {
			rateWarnings = append(rateWarnings, fmt.Sprintf("Policy %s is negative (%.2f), simulations will be rejected", name, value))
		}
	}
	sort.Strings(rateWarnings)
	warnings = append(warnings, rateWarnings...)

	if c.Store.Driver == constants.StoreDriverRedis && c.Store.Redis.Address == "" {
		warnings = append(warnings, "Redis store selected without an address")
	}

	return warnings
}

// SimulationPolicy converts the policy section into the builder policy.
// Product keys are matched case-insensitively; unknown keys are skipped.
func (c *Configuration) SimulationPolicy() simulation.Policy {
	products := make(map[simulation.ProductType]simulation.ProductTerms, len(c.Policy.Products))
	for key, terms := range c.Policy.Products {
		product, err := simulation.ParseProductType(key)
		if err != nil {
			continue
		}
		products[product] = terms
	}

	return simulation.Policy{
		Products: products,
		DefaultTerms: simulation.ProductTerms{
			InterestRate:         c.Policy.DefaultInterestRate,
			ProcessingMultiplier: c.Policy.DefaultProcessingMultiplier,
		},
		ProcessingFeeRate:     c.Policy.ProcessingFeeRate,
		OrganizationFeeRate:   c.Policy.OrganizationFeeRate,
		InsuranceAnnualRate:   c.Policy.InsuranceAnnualRate,
		StampDutyRate:         c.Policy.StampDutyRate,
		InterestStampDutyRate: c.Policy.InterestStampDutyRate,
		EffortRateThreshold:   c.Policy.EffortRateThreshold,
		DefaultCurrency:       c.Policy.Currency,
		AllowUnknownProduct:   c.Policy.AllowUnknownProduct,
	}
}

// redactedSecret replaces secrets in exported configuration.
const redactedSecret = "********"

// Marshal renders the effective configuration as YAML. A configured redis
// password is masked.
func (c *Configuration) Marshal() ([]byte, error) {
	export := *c
	if export.Store.Redis.Password != "" {
		export.Store.Redis.Password = redactedSecret
	}
	return yaml.Marshal(&export)
}

// ResolvePath returns the configuration path held by the named flag. When the
// flag was left at its default and that file does not exist, it returns an
// empty path so LoadConfiguration falls back to the built-in defaults.
func ResolvePath(flags *flag.FlagSet, name string) string {
	f := flags.Lookup(name)
	if f == nil {
		return ""
	}
	path := f.Value.String()

	explicit := false
	flags.Visit(func(set *flag.Flag) {
		if set.Name == name {
			explicit = true
		}
	})
	if explicit {
		return path
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return path
}
