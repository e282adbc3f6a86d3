// Package config handles loading and validation of application configuration
// from environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/quienpaga/quienpaga-backend/logger"
	"github.com/spf13/viper"
)

// Environment represents the application's running environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"

	minJWTSecretLength = 32
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Environment    Environment `mapstructure:"ENVIRONMENT" yaml:"environment"`
	Port           string      `mapstructure:"PORT" yaml:"port"`
	AllowedOrigins []string    `mapstructure:"ALLOWED_ORIGINS" yaml:"allowed_origins"`
	Version        string      `mapstructure:"VERSION" yaml:"version"`
}

// DatabaseConfig holds PostgreSQL connection details.
type DatabaseConfig struct {
	Host         string `mapstructure:"HOST" yaml:"host"`
	Port         int    `mapstructure:"PORT" yaml:"port"`
	User         string `mapstructure:"USER" yaml:"user"`
	Password     string `mapstructure:"PASSWORD" yaml:"password"`
	Name         string `mapstructure:"NAME" yaml:"name"`
	SSLMode      string `mapstructure:"SSL_MODE" yaml:"ssl_mode"`
	MaxConns     int    `mapstructure:"MAX_CONNS" yaml:"max_conns"`
	MinConns     int    `mapstructure:"MIN_CONNS" yaml:"min_conns"`
	QueryTimeout string `mapstructure:"QUERY_TIMEOUT" yaml:"query_timeout"`
}

// URL returns a postgres:// connection URL suitable for golang-migrate and
// other URL-based tools.
func (c *DatabaseConfig) URL() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		sslmode,
	)
}

// QueryTimeoutDuration parses QueryTimeout, falling back to 5s on any error.
// Every store call runs under this deadline.
func (c *DatabaseConfig) QueryTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.QueryTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// RedisConfig holds Redis connection details.
type RedisConfig struct {
	Address  string `mapstructure:"ADDRESS" yaml:"address"`
	Password string `mapstructure:"PASSWORD" yaml:"password"`
	DB       int    `mapstructure:"DB" yaml:"db"`
	UseTLS   bool   `mapstructure:"USE_TLS" yaml:"use_tls"`
}

// SupabaseConfig holds credentials for the hosted identity provider.
type SupabaseConfig struct {
	URL        string `mapstructure:"URL" yaml:"url"`
	AnonKey    string `mapstructure:"ANON_KEY" yaml:"anon_key"`
	ServiceKey string `mapstructure:"SERVICE_KEY" yaml:"service_key"`
	JWTSecret  string `mapstructure:"JWT_SECRET" yaml:"jwt_secret"`
}

// LedgerConfig holds domain policy knobs for the ledger.
type LedgerConfig struct {
	// ShareSumPolicy controls validation of share totals against the expense
	// amount: "strict" rejects any mismatch beyond ShareSumTolerance,
	// "lenient" accepts any split.
	ShareSumPolicy    string `mapstructure:"SHARE_SUM_POLICY" yaml:"share_sum_policy"`
	ShareSumTolerance string `mapstructure:"SHARE_SUM_TOLERANCE" yaml:"share_sum_tolerance"`
}

// RateLimitConfig holds per-user API rate limiting settings.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"REQUESTS_PER_MINUTE" yaml:"requests_per_minute"`
	WindowSeconds     int `mapstructure:"WINDOW_SECONDS" yaml:"window_seconds"`
}

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"SERVER" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"DATABASE" yaml:"database"`
	Redis     RedisConfig     `mapstructure:"REDIS" yaml:"redis"`
	Supabase  SupabaseConfig  `mapstructure:"SUPABASE" yaml:"supabase"`
	Ledger    LedgerConfig    `mapstructure:"LEDGER" yaml:"ledger"`
	RateLimit RateLimitConfig `mapstructure:"RATE_LIMIT" yaml:"rate_limit"`
}

// IsDevelopment returns true when running in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// IsProduction returns true when running in the production environment.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables using Viper,
// applies defaults, unmarshals and validates it.
func LoadConfig() (*Config, error) {
	v := viper.New()
	log := logger.GetLogger()

	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "")
	v.SetDefault("DATABASE.NAME", "quienpaga_dev")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.MAX_CONNS", 10)
	v.SetDefault("DATABASE.MIN_CONNS", 2)
	v.SetDefault("DATABASE.QUERY_TIMEOUT", "5s")
	v.SetDefault("REDIS.ADDRESS", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("REDIS.USE_TLS", false)
	v.SetDefault("LEDGER.SHARE_SUM_POLICY", "strict")
	v.SetDefault("LEDGER.SHARE_SUM_TOLERANCE", "0.01")
	v.SetDefault("RATE_LIMIT.REQUESTS_PER_MINUTE", 100)
	v.SetDefault("RATE_LIMIT.WINDOW_SECONDS", 60)
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envBindings := [][2]string{
		{"SERVER.ENVIRONMENT", "SERVER_ENVIRONMENT"},
		{"SERVER.PORT", "PORT"},
		{"SERVER.ALLOWED_ORIGINS", "ALLOWED_ORIGINS"},
		{"DATABASE.HOST", "DB_HOST"},
		{"DATABASE.PORT", "DB_PORT"},
		{"DATABASE.USER", "DB_USER"},
		{"DATABASE.PASSWORD", "DB_PASSWORD"},
		{"DATABASE.NAME", "DB_NAME"},
		{"DATABASE.SSL_MODE", "DB_SSL_MODE"},
		{"DATABASE.QUERY_TIMEOUT", "DB_QUERY_TIMEOUT"},
		{"REDIS.ADDRESS", "REDIS_ADDRESS"},
		{"REDIS.PASSWORD", "REDIS_PASSWORD"},
		{"REDIS.DB", "REDIS_DB"},
		{"REDIS.USE_TLS", "REDIS_USE_TLS"},
		{"SUPABASE.URL", "SUPABASE_URL"},
		{"SUPABASE.ANON_KEY", "SUPABASE_ANON_KEY"},
		{"SUPABASE.SERVICE_KEY", "SUPABASE_SERVICE_KEY"},
		{"SUPABASE.JWT_SECRET", "SUPABASE_JWT_SECRET"},
		{"LEDGER.SHARE_SUM_POLICY", "LEDGER_SHARE_SUM_POLICY"},
		{"LEDGER.SHARE_SUM_TOLERANCE", "LEDGER_SHARE_SUM_TOLERANCE"},
		{"RATE_LIMIT.REQUESTS_PER_MINUTE", "RATE_LIMIT_REQUESTS_PER_MINUTE"},
		{"RATE_LIMIT.WINDOW_SECONDS", "RATE_LIMIT_WINDOW_SECONDS"},
	}

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	log.Infow("Configuration loaded",
		"environment", v.GetString("SERVER.ENVIRONMENT"),
		"server_port", v.GetString("SERVER.PORT"),
		"db_host", v.GetString("DATABASE.HOST"),
		"share_sum_policy", v.GetString("LEDGER.SHARE_SUM_POLICY"),
	)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Environment != EnvDevelopment && cfg.Server.Environment != EnvProduction {
		return fmt.Errorf("invalid environment: %s", cfg.Server.Environment)
	}

	switch cfg.Ledger.ShareSumPolicy {
	case "strict", "lenient":
	default:
		return fmt.Errorf("invalid share sum policy: %s", cfg.Ledger.ShareSumPolicy)
	}

	if cfg.IsProduction() {
		if cfg.Supabase.URL == "" {
			return fmt.Errorf("SUPABASE_URL is required in production")
		}
		if _, err := url.Parse(cfg.Supabase.URL); err != nil {
			return fmt.Errorf("invalid SUPABASE_URL: %w", err)
		}
		if len(cfg.Supabase.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("SUPABASE_JWT_SECRET must be at least %d characters", minJWTSecretLength)
		}
		if cfg.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required in production")
		}
	}

	return nil
}
