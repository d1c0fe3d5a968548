package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bulkthreads/stocksync/pkg/constants"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Remote catalog credentials
	ShopifyStore      string
	ShopifyAPIKey     string
	ShopifyPassword   string
	ShopifyAPIVersion string
	LocationID        int64

	// Ledger store
	MongoURL      string
	MongoDatabase string

	// Feed configuration
	DataDir    string
	Supplier   string
	SchemaFile string

	// Run configuration
	Workers      int
	Limit        int
	SkipExisting bool
	ForceRefresh bool
	DryRun       bool

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.stocksync.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	// Set up Viper for environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	bindCredentialKeys()

	// Try to read config file if it exists
	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Search for config in standard locations
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".stocksync")
		}
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	// Build config from viper
	config := &Config{
		// Global flags (may be overridden by cobra flags later)
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		// Config file
		ConfigFile: viper.ConfigFileUsed(),

		// Remote catalog credentials
		ShopifyStore:      viper.GetString("SHOPIFY_STORE"),
		ShopifyAPIKey:     viper.GetString("SHOPIFY_API_KEY"),
		ShopifyPassword:   viper.GetString("SHOPIFY_PASSWORD"),
		ShopifyAPIVersion: viper.GetString("SHOPIFY_API_VERSION"),
		LocationID:        viper.GetInt64("SHOPIFY_LOCATION_ID"),

		// Ledger store
		MongoURL:      viper.GetString("MONGO_URL"),
		MongoDatabase: viper.GetString("MONGO_DATABASE"),

		// Feed configuration
		DataDir:    viper.GetString("data_dir"),
		Supplier:   viper.GetString("supplier"),
		SchemaFile: viper.GetString("schema_file"),

		// Run configuration
		Workers:      viper.GetInt("workers"),
		SkipExisting: true,

		// Logging configuration
		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	// Set defaults
	if config.ShopifyAPIVersion == "" {
		config.ShopifyAPIVersion = constants.DefaultAPIVersion
	}
	if config.MongoDatabase == "" {
		config.MongoDatabase = "stocksync"
	}
	if config.DataDir == "" {
		config.DataDir = "."
	}
	if config.Supplier == "" {
		config.Supplier = "alphabroder"
	}
	if config.Workers == 0 {
		config.Workers = constants.DefaultWorkers
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// Validate checks that the credentials required for remote runs are present.
func (c *Config) Validate() error {
	var missing []string
	if c.ShopifyStore == "" {
		missing = append(missing, "SHOPIFY_STORE")
	}
	if c.ShopifyAPIKey == "" {
		missing = append(missing, "SHOPIFY_API_KEY")
	}
	if c.ShopifyPassword == "" {
		missing = append(missing, "SHOPIFY_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// bindCredentialKeys explicitly binds credential environment variables to
// Viper so .env values flow through viper.Get.
func bindCredentialKeys() {
	keys := []string{
		"SHOPIFY_STORE",
		"SHOPIFY_API_KEY",
		"SHOPIFY_PASSWORD",
		"SHOPIFY_API_VERSION",
		"SHOPIFY_LOCATION_ID",
		"MONGO_URL",
		"MONGO_DATABASE",
	}

	for _, key := range keys {
		if err := viper.BindEnv(key); err != nil {
			// Log warning but continue - this isn't critical
			fmt.Fprintf(os.Stderr, "Warning: failed to bind environment variable %s: %v\n", key, err)
		}
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
