package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quienpaga/quienpaga-backend/config"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func validateRequiredEnv(key string, minLen int) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("ERROR: %s environment variable is not set in your .env file. Please set it and try again", key)
	}
	if len(value) < minLen {
		return "", fmt.Errorf("ERROR: %s value is too short. It must be at least %d characters long. Current length: %d", key, minLen, len(value))
	}
	return value, nil
}

// generate_config renders a config.yaml from the environment so deployments
// can inspect the effective configuration before starting the server.
func main() {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		fmt.Println("ERROR: .env file not found!")
		fmt.Println("Please create a .env file by copying .env.example and filling in the required values:")
		fmt.Println("cp .env.example .env")
		os.Exit(1)
	}

	cfg := config.Config{}

	cfg.Server.Environment = config.Environment(getEnvOrDefault("SERVER_ENVIRONMENT", "development"))
	cfg.Server.Port = getEnvOrDefault("PORT", "8080")
	cfg.Server.AllowedOrigins = strings.Split(getEnvOrDefault("ALLOWED_ORIGINS", "*"), ",")

	cfg.Database.Host = getEnvOrDefault("DB_HOST", "localhost")
	fmt.Sscanf(getEnvOrDefault("DB_PORT", "5432"), "%d", &cfg.Database.Port)
	cfg.Database.User = getEnvOrDefault("DB_USER", "postgres")

	dbPass, err := validateRequiredEnv("DB_PASSWORD", 8)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Database.Password = dbPass

	cfg.Database.Name = getEnvOrDefault("DB_NAME", "quienpaga_dev")
	cfg.Database.SSLMode = getEnvOrDefault("DB_SSL_MODE", "disable")
	cfg.Database.MaxConns = 10
	cfg.Database.MinConns = 2
	cfg.Database.QueryTimeout = getEnvOrDefault("DB_QUERY_TIMEOUT", "5s")

	cfg.Redis.Address = getEnvOrDefault("REDIS_ADDRESS", "localhost:6379")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")

	supabaseURL, err := validateRequiredEnv("SUPABASE_URL", 8)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Supabase.URL = supabaseURL

	jwtSecret, err := validateRequiredEnv("SUPABASE_JWT_SECRET", 32)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Supabase.JWTSecret = jwtSecret

	cfg.Supabase.AnonKey = os.Getenv("SUPABASE_ANON_KEY")
	cfg.Supabase.ServiceKey = os.Getenv("SUPABASE_SERVICE_KEY")

	cfg.Ledger.ShareSumPolicy = getEnvOrDefault("LEDGER_SHARE_SUM_POLICY", "strict")
	cfg.Ledger.ShareSumTolerance = getEnvOrDefault("LEDGER_SHARE_SUM_TOLERANCE", "0.01")

	fmt.Sscanf(getEnvOrDefault("RATE_LIMIT_REQUESTS_PER_MINUTE", "100"), "%d", &cfg.RateLimit.RequestsPerMinute)
	fmt.Sscanf(getEnvOrDefault("RATE_LIMIT_WINDOW_SECONDS", "60"), "%d", &cfg.RateLimit.WindowSeconds)

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		fmt.Printf("Error marshaling config: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("config.yaml", data, 0o600); err != nil {
		fmt.Printf("Error writing config.yaml: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("config.yaml generated successfully")
}
