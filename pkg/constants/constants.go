// Package constants provides shared constants for the loan-simulator application.
package constants

import "time"

// DueDateLayout is the day-first layout used when rendering due dates.
const DueDateLayout = "02/01/2006"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// MaxTermMonths is the longest loan term accepted (50 years)
	MaxTermMonths = 600

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// DefaultCurrency is used when a request does not name one
	DefaultCurrency = "MZN"
)

// Lending policy defaults
const (
	// DefaultInterestRate is the personal loan rate, also used for unrecognized products
	DefaultInterestRate = 29.3

	// DefaultProcessingMultiplier applies to unrecognized products
	DefaultProcessingMultiplier = 1.0

	// ProcessingFeeRate is the base processing fee as a percentage of the amount
	ProcessingFeeRate = 1.0

	// OrganizationFeeRate is the flat organization fee as a percentage of the amount
	OrganizationFeeRate = 1.25

	// InsuranceAnnualRate is the yearly insurance premium as a percentage of the amount
	InsuranceAnnualRate = 0.5

	// StampDutyRate is charged on the principal
	StampDutyRate = 0.5

	// InterestStampDutyRate is charged on the total interest
	InterestStampDutyRate = 2.0

	// EffortRateThreshold is the highest effort rate that still counts as capacity
	EffortRateThreshold = 30.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// DefaultLocale is the language tag used for number formatting
	DefaultLocale = "pt-PT"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. LOANSIM_SERVER_ADDRESS
	EnvPrefix = "LOANSIM"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes caps JSON request bodies (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultRateLimitRequests is the per-client request budget per window
	DefaultRateLimitRequests = 30

	// DefaultRateLimitWindow is the refill window of the per-client budget
	DefaultRateLimitWindow = time.Minute
)

// Store defaults
const (
	// StoreDriverMemory keeps simulations in process memory
	StoreDriverMemory = "memory"

	// StoreDriverRedis keeps simulations in Redis
	StoreDriverRedis = "redis"

	// DefaultSimulationTTL is how long a computed simulation stays retrievable
	DefaultSimulationTTL = 30 * time.Minute

	// DefaultRedisAddress is used when the redis driver has no address configured
	DefaultRedisAddress = "localhost:6379"
)
