package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"custodian/database"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// Price oracle configuration
	PriceFeedSubject string // request/reply subject the price oracle answers on

	// VRF oracle configuration
	VRFRequestSubject     string // subject the oracle consumes randomness requests from
	VRFFulfillmentSubject string // subject the oracle delivers randomness on
	OracleAuthority       string // hex ed25519 public key attesting deliveries

	// Escape game policy
	MaxRollAttempts int   // deliveries before exhaustion grants release
	DieSides        uint8 // faces per die
	VRFFee          int64 // oracle service fee per roll, base units

	// Withdrawal policy
	MaxFeedAgeSeconds    int             // feed older than this is stale
	DefaultMaxConfidence decimal.Decimal // confidence bound when the caller supplies none

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// NATS
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		// Oracles
		PriceFeedSubject:      getEnvWithDefault("PRICE_FEED_SUBJECT", "oracle.price.sol_usd"),
		VRFRequestSubject:     getEnvWithDefault("VRF_REQUEST_SUBJECT", "oracle.vrf.requests"),
		VRFFulfillmentSubject: getEnvWithDefault("VRF_FULFILLMENT_SUBJECT", "custody.vrf.fulfillments"),
		OracleAuthority:       os.Getenv("ORACLE_AUTHORITY"),

		// Escape game defaults
		MaxRollAttempts: 3,
		DieSides:        6,
		VRFFee:          2,

		// Withdrawal defaults; feed age mirrors the oracle's own 5 minute
		// staleness window
		MaxFeedAgeSeconds:    300,
		DefaultMaxConfidence: decimal.NewFromInt(1),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if attempts := os.Getenv("MAX_ROLL_ATTEMPTS"); attempts != "" {
		if parsed, err := strconv.Atoi(attempts); err == nil && parsed > 0 {
			config.MaxRollAttempts = parsed
		}
	}
	if fee := os.Getenv("VRF_FEE"); fee != "" {
		if parsed, err := strconv.ParseInt(fee, 10, 64); err == nil && parsed >= 0 {
			config.VRFFee = parsed
		}
	}
	if age := os.Getenv("MAX_FEED_AGE_SECONDS"); age != "" {
		if parsed, err := strconv.Atoi(age); err == nil && parsed > 0 {
			config.MaxFeedAgeSeconds = parsed
		}
	}
	if bound := os.Getenv("MAX_CONFIDENCE_INTERVAL"); bound != "" {
		parsed, err := decimal.NewFromString(bound)
		if err != nil {
			return nil, fmt.Errorf("MAX_CONFIDENCE_INTERVAL is not a valid decimal: %w", err)
		}
		config.DefaultMaxConfidence = parsed
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.OracleAuthority == "" {
			return nil, fmt.Errorf("ORACLE_AUTHORITY is required")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:           "test",
		PriceFeedSubject:      "oracle.price.test",
		VRFRequestSubject:     "oracle.vrf.requests",
		VRFFulfillmentSubject: "custody.vrf.fulfillments",
		MaxRollAttempts:       3,
		DieSides:              6,
		VRFFee:                2,
		MaxFeedAgeSeconds:     300,
		DefaultMaxConfidence:  decimal.NewFromInt(1),
	}
}
