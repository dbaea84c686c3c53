package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Environment names a deployment stage
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Database drivers accepted in DATABASE_DRIVER
const (
	DriverSQLite   = "sqlite"
	DriverMongoDB  = "mongodb"
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"
)

// Tracing providers accepted in TRACING_PROVIDER
const (
	TracingOTel = "otel"
	TracingXRay = "xray"
)

// Config holds all application configuration. Values come from the
// environment and may be overridden by the YAML file named in CONFIG_FILE.
type Config struct {
	// Server configuration
	ServerAddress   string        `yaml:"server_address"`
	Environment     Environment   `yaml:"environment"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	IsLambda        bool          `yaml:"-"`

	// Logging
	LogLevel string `yaml:"log_level"`
	Debug    bool   `yaml:"debug"`

	// Authentication
	JWTSecret  string        `yaml:"jwt_secret"`
	JWTIssuer  string        `yaml:"jwt_issuer"`
	JWTTTL     time.Duration `yaml:"jwt_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`

	// Login rate limiting, per client IP
	LoginRatePerMinute int `yaml:"login_rate_per_minute"`
	LoginRateBurst     int `yaml:"login_rate_burst"`

	// Storage
	DatabaseDriver   string `yaml:"database_driver"`
	SQLitePath       string `yaml:"sqlite_path"`
	MongoURI         string `yaml:"mongo_uri"`
	MongoDatabase    string `yaml:"mongo_database"`
	AWSRegion        string `yaml:"aws_region"`
	DynamoDBTable    string `yaml:"dynamodb_table"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint"`

	// Messaging
	EventsEnabled bool   `yaml:"events_enabled"`
	EventBusName  string `yaml:"event_bus_name"`

	// Image host
	CloudinaryURL    string `yaml:"cloudinary_url"`
	CloudinaryFolder string `yaml:"cloudinary_folder"`
	MaxUploadBytes   int64  `yaml:"max_upload_bytes"`

	// HTTP
	CORSOrigins  []string `yaml:"cors_origins"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`

	// Caching
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`

	// Observability
	EnableMetrics       bool    `yaml:"enable_metrics"`
	EnableTracing       bool    `yaml:"enable_tracing"`
	TracingProvider     string  `yaml:"tracing_provider"`
	OTLPEndpoint        string  `yaml:"otlp_endpoint"`
	TraceSampleRatio    float64 `yaml:"trace_sample_ratio"`
	CloudWatchNamespace string  `yaml:"cloudwatch_namespace"`

	// ConfigFile is the YAML overlay that was applied, if any
	ConfigFile string `yaml:"-"`
}

// LoadConfig loads configuration from environment variables and the optional
// CONFIG_FILE overlay, then validates it.
func LoadConfig() (*Config, error) {
	cfg := fromEnv()

	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		Environment:     Environment(getEnv("ENVIRONMENT", string(Development))),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		IsLambda:        os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" || getEnvBool("IS_LAMBDA", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		Debug:    getEnvBool("DEBUG", false),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTIssuer:  getEnv("JWT_ISSUER", "matflow"),
		JWTTTL:     getEnvDuration("JWT_TTL", 24*time.Hour),
		BcryptCost: getEnvInt("BCRYPT_COST", 10),

		LoginRatePerMinute: getEnvInt("LOGIN_RATE_PER_MINUTE", 10),
		LoginRateBurst:     getEnvInt("LOGIN_RATE_BURST", 5),

		DatabaseDriver:   getEnv("DATABASE_DRIVER", DriverSQLite),
		SQLitePath:       getEnv("SQLITE_PATH", "matflow.db"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGO_DATABASE", "matflow"),
		AWSRegion:        getEnv("AWS_REGION", "eu-central-1"),
		DynamoDBTable:    getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "matflow")),
		DynamoDBEndpoint: getEnv("DYNAMODB_ENDPOINT", ""),

		EventsEnabled: getEnvBool("EVENTS_ENABLED", false),
		EventBusName:  getEnv("EVENT_BUS_NAME", ""),

		CloudinaryURL:    getEnv("CLOUDINARY_URL", ""),
		CloudinaryFolder: getEnv("CLOUDINARY_FOLDER", "matflow/avatars"),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 5<<20)),

		CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 5<<20)),

		CacheTTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 30),

		EnableMetrics:       getEnvBool("ENABLE_METRICS", true),
		EnableTracing:       getEnvBool("ENABLE_TRACING", false),
		TracingProvider:     getEnv("TRACING_PROVIDER", TracingOTel),
		OTLPEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TraceSampleRatio:    getEnvFloat("TRACE_SAMPLE_RATIO", 1),
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", ""),

		ConfigFile: getEnv("CONFIG_FILE", ""),
	}
}

// applyFile overlays the keys present in a YAML file onto c.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.Environment {
	case Development, Staging, Production:
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}

	if _, err := c.ZapLevel(); err != nil {
		return err
	}

	if c.Environment == Production && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverMongoDB:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("MONGO_URI and MONGO_DATABASE are required for the mongodb driver")
		}
	case DriverDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}

	if c.EventsEnabled && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when EVENTS_ENABLED is set")
	}

	switch c.TracingProvider {
	case TracingOTel, TracingXRay:
	default:
		return fmt.Errorf("unknown tracing provider %q", c.TracingProvider)
	}

	return nil
}

// ZapLevel parses LogLevel
func (c *Config) ZapLevel() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
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

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
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
