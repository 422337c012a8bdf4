package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gioservice_backend/pkg/utils"

	"github.com/joho/godotenv"
)

const minJWTSecretLength = 32

// Config holds every runtime setting of the service.
type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	DBApplySchema bool

	JWTSecret  string
	SessionTTL time.Duration

	CORSAllowedOrigins []string

	RedisAddress  string
	RedisPassword string

	StorageProvider      string
	GCSBucket            string
	GCSCredentialsJSON   string
	StoragePublicBaseURL string
	LocalStorageDir      string
	PhotoMaxDimension    int

	PubSubProjectID string
	PubSubTopic     string

	DefaultPhoneRegion string
	PublicSiteURL      string
	CompanyName        string

	BootstrapAdminUsername string
	BootstrapAdminPassword string
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// DSN builds the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   utils.Getenv("APP_ENV", "development"),
		Port:     utils.Getenv("PORT", "8080"),
		LogLevel: utils.Getenv("LOG_LEVEL", "info"),

		DBHost:        utils.Getenv("DB_HOST", "localhost"),
		DBPort:        utils.Getenv("DB_PORT", "5432"),
		DBUser:        utils.Getenv("DB_USER", "gioservice"),
		DBPassword:    utils.Getenv("DB_PASSWORD", ""),
		DBName:        utils.Getenv("DB_NAME", "gioservice"),
		DBSSLMode:     utils.Getenv("DB_SSLMODE", "disable"),
		DBApplySchema: utils.GetenvBool("DB_APPLY_SCHEMA", false),

		JWTSecret:  utils.Getenv("JWT_SECRET", ""),
		SessionTTL: utils.GetenvDuration("SESSION_TTL", 8*time.Hour),

		CORSAllowedOrigins: splitList(utils.Getenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),

		RedisAddress:  utils.Getenv("REDIS_ADDRESS", ""),
		RedisPassword: utils.Getenv("REDIS_PASSWORD", ""),

		StorageProvider:      strings.ToLower(utils.Getenv("STORAGE_PROVIDER", "local")),
		GCSBucket:            utils.Getenv("GCS_BUCKET", ""),
		GCSCredentialsJSON:   utils.Getenv("GCS_CREDENTIALS_JSON", ""),
		StoragePublicBaseURL: strings.TrimRight(utils.Getenv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/media"), "/"),
		LocalStorageDir:      utils.Getenv("LOCAL_STORAGE_DIR", "./media"),
		PhotoMaxDimension:    utils.GetenvInt("PHOTO_MAX_DIMENSION", 1600),

		PubSubProjectID: utils.Getenv("PUBSUB_PROJECT_ID", ""),
		PubSubTopic:     utils.Getenv("PUBSUB_TOPIC", ""),

		DefaultPhoneRegion: strings.ToUpper(utils.Getenv("DEFAULT_PHONE_REGION", "US")),
		PublicSiteURL:      strings.TrimRight(utils.Getenv("PUBLIC_SITE_URL", "http://localhost:5173"), "/"),
		CompanyName:        utils.Getenv("COMPANY_NAME", "GioService"),

		BootstrapAdminUsername: utils.Getenv("BOOTSTRAP_ADMIN_USERNAME", ""),
		BootstrapAdminPassword: utils.Getenv("BOOTSTRAP_ADMIN_PASSWORD", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var problems []string
	if len(c.JWTSecret) < minJWTSecretLength {
		problems = append(problems, fmt.Sprintf("JWT_SECRET must be set and at least %d characters", minJWTSecretLength))
	}
	if c.DBPassword == "" {
		problems = append(problems, "DB_PASSWORD must be set")
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	switch c.StorageProvider {
	case "local":
	case "gcs":
		if c.GCSBucket == "" {
			problems = append(problems, "GCS_BUCKET is required when STORAGE_PROVIDER=gcs")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE_PROVIDER %q", c.StorageProvider))
	}
	if c.PhotoMaxDimension <= 0 {
		problems = append(problems, "PHOTO_MAX_DIMENSION must be positive")
	}
	if (c.PubSubProjectID == "") != (c.PubSubTopic == "") {
		problems = append(problems, "PUBSUB_PROJECT_ID and PUBSUB_TOPIC must be set together")
	}
	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
