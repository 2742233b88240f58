package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores configuration values for the application. Values come from
// environment variables (optionally loaded from .env) or from the file named
// by CONFIG_FILE; environment variables take precedence.
type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"GO_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// StorageBackend is one of file, memory, mongo, redis, postgres or s3.
	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	DataDir        string `mapstructure:"DATA_DIR"`

	MongoURI      string `mapstructure:"MONGODB_URI"`
	MongoDatabase string `mapstructure:"MONGODB_DATABASE"`

	RedisAddress  string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisPrefix   string `mapstructure:"REDIS_PREFIX"`

	// IssueLimitQueue prefixes the per-client counters of the issue rate limiter.
	IssueLimitQueue string `mapstructure:"REDIS_QUEUE_FOR_ISSUE_LIMIT"`
	IssueRateLimit  int    `mapstructure:"ISSUE_RATE_LIMIT"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`

	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3Prefix    string `mapstructure:"S3_PREFIX"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	CORSOrigins  string `mapstructure:"CORS_ORIGINS"`
	SeedDemoData bool   `mapstructure:"SEED_DEMO_DATA"`

	// TrustedProxyList names the proxy addresses or CIDRs whose
	// X-Forwarded-For is believed. Empty trusts none.
	TrustedProxyList string `mapstructure:"TRUSTED_PROXIES"`

	// AnalyticsPlaceholders is "random" or "none".
	AnalyticsPlaceholders string `mapstructure:"ANALYTICS_PLACEHOLDERS"`
	DigestCron            string `mapstructure:"DIGEST_CRON"`
}

var defaults = map[string]any{
	"PORT":                        "8080",
	"GO_ENV":                      "development",
	"LOG_LEVEL":                   "info",
	"STORAGE_BACKEND":             "file",
	"DATA_DIR":                    "data",
	"MONGODB_URI":                 "",
	"MONGODB_DATABASE":            "civease",
	"REDIS_ADDRESS":               "",
	"REDIS_PASSWORD":              "",
	"REDIS_PREFIX":                "civease:",
	"REDIS_QUEUE_FOR_ISSUE_LIMIT": "issue_limit",
	"ISSUE_RATE_LIMIT":            20,
	"DATABASE_URL":                "",
	"S3_BUCKET":                   "",
	"S3_PREFIX":                   "collections/",
	"S3_REGION":                   "us-east-1",
	"S3_ENDPOINT":                 "",
	"S3_ACCESS_KEY":               "",
	"S3_SECRET_KEY":               "",
	"JWT_SECRET":                  "",
	"TOKEN_TTL":                   "72h",
	"CORS_ORIGINS":                "*",
	"TRUSTED_PROXIES":             "",
	"SEED_DEMO_DATA":              true,
	"ANALYTICS_PLACEHOLDERS":      "random",
	"DIGEST_CRON":                 "",
}

// Load reads the configuration. filePath may be empty, in which case only
// defaults and the environment are used.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if filePath != "" {
		v.SetConfigFile(filePath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether GO_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSOrigins)
}

// TrustedProxies splits TRUSTED_PROXIES on commas.
func (c *Config) TrustedProxies() []string {
	return splitList(c.TrustedProxyList)
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case "file", "memory":
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for the mongo storage backend")
		}
	case "redis":
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required for the redis storage backend")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage backend")
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.IssueRateLimit <= 0 {
		return fmt.Errorf("ISSUE_RATE_LIMIT must be positive")
	}
	for _, proxy := range c.TrustedProxies() {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("invalid TRUSTED_PROXIES entry %q", proxy)
			}
		}
	}
	return nil
}
