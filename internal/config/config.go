package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_PORT"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
// `required:"true"` makes an environment variable mandatory.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"` // e.g., development, staging, production
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	HttpServer ServerConfig
	Postgres   PostgresConfig
	Auth       AuthConfig
	Upload     UploadConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// PostgresConfig holds PostgreSQL database connection details.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName   string `envconfig:"POSTGRES_DBNAME" required:"true"`
}

// AuthConfig holds admin authentication settings.
type AuthConfig struct {
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"JWT_TOKEN_TTL" default:"24h"`
}

// UploadConfig holds the product image upload and transform settings.
// MaxBytes bounds the accepted upload size; AllowedTypes is the MIME
// allow-list checked before any durable work happens.
type UploadConfig struct {
	RootDir      string   `envconfig:"UPLOAD_ROOT_DIR" default:"./uploads/products"`
	TempDir      string   `envconfig:"UPLOAD_TEMP_DIR" default:"./uploads/tmp"`
	PublicBase   string   `envconfig:"UPLOAD_PUBLIC_BASE_URL" default:"http://localhost:8080/uploads/products"`
	MaxBytes     int64    `envconfig:"UPLOAD_MAX_BYTES" default:"5242880"` // 5 MiB
	AllowedTypes []string `envconfig:"UPLOAD_ALLOWED_TYPES" default:"image/jpeg,image/png,image/gif,image/webp"`
	MaxWidth     int      `envconfig:"UPLOAD_IMAGE_MAX_WIDTH" default:"800"`
	JPEGQuality  int      `envconfig:"UPLOAD_JPEG_QUALITY" default:"80"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName)
}

// Load initializes the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	log.Println("Loading service configuration...")
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	log.Printf("Configuration loaded successfully for APP_ENV: %s", cfg.AppEnv)
	return &cfg, nil
}
