package config

import (
	"errors"
	"fmt"
	"time"

	"restaurant_pos_backend/pkg/utils"

	"github.com/joho/godotenv"
)

// DBConfig holds the PostgreSQL connection settings.
type DBConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	SchemaPath  string
	ApplySchema bool
}

// DSN returns the lib/pq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type Config struct {
	Port               string
	DB                 DBConfig
	CORSAllowedOrigins []string
	JWTSecret          string
	JWTAccessTTL       time.Duration
	RedisAddr          string
	KafkaBrokers       []string
	NotifyTopic        string
	LogLevel           string
	LogPretty          bool
	ServiceName        string
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port: utils.Getenv("PORT", "8080"),
		DB: DBConfig{
			Host:        utils.Getenv("DB_HOST", "localhost"),
			Port:        utils.Getenv("DB_PORT", "5432"),
			User:        utils.Getenv("DB_USER", "pos_user"),
			Password:    utils.Getenv("DB_PASSWORD", "pos_password"),
			Name:        utils.Getenv("DB_NAME", "restaurant_pos"),
			SSLMode:     utils.Getenv("DB_SSLMODE", "disable"),
			SchemaPath:  utils.Getenv("DB_SCHEMA_PATH", ""),
			ApplySchema: utils.GetenvBool("DB_APPLY_SCHEMA", false),
		},
		CORSAllowedOrigins: utils.SplitCSV(utils.Getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		JWTSecret:          utils.Getenv("JWT_SECRET", ""),
		JWTAccessTTL:       utils.GetenvDuration("JWT_ACCESS_TTL", 12*time.Hour),
		RedisAddr:          utils.Getenv("REDIS_ADDR", ""),
		KafkaBrokers:       utils.SplitCSV(utils.Getenv("KAFKA_BROKERS", "")),
		NotifyTopic:        utils.Getenv("NOTIFY_TOPIC", "pos.notifications"),
		LogLevel:           utils.Getenv("LOG_LEVEL", "info"),
		LogPretty:          utils.GetenvBool("LOG_PRETTY", false),
		ServiceName:        utils.Getenv("SERVICE_NAME", "restaurant-pos-api"),
	}

	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET must be set")
	}
	if cfg.JWTAccessTTL <= 0 {
		return cfg, fmt.Errorf("JWT_ACCESS_TTL must be positive, got %s", cfg.JWTAccessTTL)
	}
	return cfg, nil
}
