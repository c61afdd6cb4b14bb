package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverDynamoDB = "dynamodb"
	DriverNeo4j    = "neo4j"
)

// Metrics backends
const (
	MetricsPrometheus = "prometheus"
	MetricsCloudWatch = "cloudwatch"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress  string        `yaml:"server_address"`
	Environment    string        `yaml:"environment"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Store configuration
	StoreDriver string `yaml:"store_driver"`
	SQLitePath  string `yaml:"sqlite_path"`

	// AWS configuration
	AWSRegion        string `yaml:"aws_region"`
	DynamoDBTable    string `yaml:"dynamodb_table"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint"`
	EventBusName     string `yaml:"event_bus_name"`

	// Neo4j configuration
	Neo4jURI      string `yaml:"neo4j_uri"`
	Neo4jUsername string `yaml:"neo4j_username"`
	Neo4jPassword string `yaml:"neo4j_password"`
	Neo4jDatabase string `yaml:"neo4j_database"`

	// Lambda configuration
	IsLambda bool `yaml:"is_lambda"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Feature flags
	EnableEvents         bool     `yaml:"enable_events"`
	EnableMetrics        bool     `yaml:"enable_metrics"`
	MetricsBackend       string   `yaml:"metrics_backend"`
	EnableTracing        bool     `yaml:"enable_tracing"`
	EnableCORS           bool     `yaml:"enable_cors"`
	CORSAllowedOrigins   []string `yaml:"cors_allowed_origins"`
	EnableCircuitBreaker bool     `yaml:"enable_circuit_breaker"`

	// ConfigFile is the optional YAML file applied before the environment
	ConfigFile string `yaml:"-"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		ServerAddress:        ":8080",
		Environment:          "development",
		RequestTimeout:       30 * time.Second,
		StoreDriver:          DriverSQLite,
		SQLitePath:           "friendship.db",
		AWSRegion:            "us-west-2",
		DynamoDBTable:        "friendship",
		EventBusName:         "friendship-events",
		Neo4jURI:             "neo4j://localhost:7687",
		Neo4jUsername:        "neo4j",
		Neo4jDatabase:        "neo4j",
		LogLevel:             "info",
		MetricsBackend:       MetricsPrometheus,
		EnableCORS:           true,
		CORSAllowedOrigins:   []string{"*"},
		EnableCircuitBreaker: false,
	}
}

// LoadConfig loads configuration from the optional YAML file named by
// CONFIG_FILE and then from environment variables, which take precedence.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", c.RequestTimeout)

	c.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", c.StoreDriver))
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", c.DynamoDBEndpoint)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.Neo4jURI = getEnv("NEO4J_URI", c.Neo4jURI)
	c.Neo4jUsername = getEnv("NEO4J_USERNAME", c.Neo4jUsername)
	c.Neo4jPassword = getEnv("NEO4J_PASSWORD", c.Neo4jPassword)
	c.Neo4jDatabase = getEnv("NEO4J_DATABASE", c.Neo4jDatabase)

	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.EnableEvents = getEnvBool("ENABLE_EVENTS", c.EnableEvents)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.MetricsBackend = strings.ToLower(getEnv("METRICS_BACKEND", c.MetricsBackend))
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", c.CORSAllowedOrigins)
	c.EnableCircuitBreaker = getEnvBool("ENABLE_CIRCUIT_BREAKER", c.EnableCircuitBreaker)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case DriverDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb store")
		}
		if c.AWSRegion == "" {
			return fmt.Errorf("AWS_REGION is required for the dynamodb store")
		}
	case DriverNeo4j:
		if c.Neo4jURI == "" {
			return fmt.Errorf("NEO4J_URI is required for the neo4j store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}

	if c.EnableMetrics && c.MetricsBackend != MetricsPrometheus && c.MetricsBackend != MetricsCloudWatch {
		return fmt.Errorf("unknown METRICS_BACKEND %q", c.MetricsBackend)
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT cannot be negative")
	}

	return nil
}

// UsesAWS reports whether any configured component needs AWS credentials
func (c *Config) UsesAWS() bool {
	return c.StoreDriver == DriverDynamoDB || c.EnableEvents ||
		(c.EnableMetrics && c.MetricsBackend == MetricsCloudWatch)
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvDuration accepts Go durations ("15s") or plain seconds ("15")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvList splits a comma separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
