package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// 應用程式設定
	AppEnv  string
	AppPort string
	AppName string

	// JWT 設定
	JWTSecret string
	JWTIssuer string

	// 資料庫設定
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis 設定（掃描排程的租約鎖）
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// 生命週期掃描設定
	SweepInterval time.Duration

	// 支付閘道設定
	PaymentGatewayBaseURL string
	PaymentGatewayAPIKey  string
	PaymentCallbackURL    string
	PaymentTimeout        time.Duration

	// 用戶目錄（主站後端）
	UserDirectoryBaseURL string

	// 通知設定
	EmailSMTPHost string
	EmailSMTPPort string
	EmailUsername string
	EmailPassword string

	// CORS 設定
	CORSAllowedOrigins string
	CORSAllowedMethods string
	CORSAllowedHeaders string
}

func Load() (*Config, error) {
	// 嘗試載入 .env 檔案（開發環境）
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "8082"),
		AppName: getEnv("APP_NAME", "soulart_auction"),

		JWTSecret: getEnv("JWT_SECRET", "default-jwt-secret-change-in-production"),
		JWTIssuer: getEnv("JWT_ISSUER", "soulart"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "app"),
		DBPassword: getEnv("DB_PASSWORD", "app_password"),
		DBName:     getEnv("DB_NAME", "soulart"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		SweepInterval: getEnvAsDuration("SWEEP_INTERVAL", time.Minute),

		PaymentGatewayBaseURL: getEnv("PAYMENT_GATEWAY_BASE_URL", "https://api.bog.ge/payments/v1"),
		PaymentGatewayAPIKey:  getEnv("PAYMENT_GATEWAY_API_KEY", ""),
		PaymentCallbackURL:    getEnv("PAYMENT_CALLBACK_URL", "http://127.0.0.1:8082/api/v1/payments/callback"),
		PaymentTimeout:        getEnvAsDuration("PAYMENT_TIMEOUT", 10*time.Second),

		UserDirectoryBaseURL: getEnv("USER_DIRECTORY_BASE_URL", "http://127.0.0.1:8080/api/v1"),

		EmailSMTPHost: getEnv("EMAIL_SMTP_HOST", "smtp.gmail.com"),
		EmailSMTPPort: getEnv("EMAIL_SMTP_PORT", "587"),
		EmailUsername: getEnv("EMAIL_USERNAME", ""),
		EmailPassword: getEnv("EMAIL_PASSWORD", ""),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://127.0.0.1:3000"),
		CORSAllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PATCH,DELETE,OPTIONS"),
		CORSAllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "default-jwt-secret-change-in-production" && c.AppEnv == "production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}

	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}

	if c.SweepInterval < time.Second {
		return fmt.Errorf("SWEEP_INTERVAL must be at least 1s")
	}

	return nil
}

func (c *Config) GetDBDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
