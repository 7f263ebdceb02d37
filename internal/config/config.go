package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	Auth         AuthConfig
	Media        MediaConfig
	Cache        CacheConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

type ServerConfig struct {
	Port        string   `env:"SERVER_PORT" envDefault:"8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

type MongoConfig struct {
	URI    string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	DBName string `env:"MONGO_DBNAME" envDefault:"lead_workflow"`
}

type RedisConfig struct {
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET,notEmpty"`
	TokenTTL   time.Duration `env:"JWT_TTL" envDefault:"72h"`
	CookieName string        `env:"AUTH_COOKIE_NAME" envDefault:"token"`
	// cookie Secure flag, off for local http
	SecureCookie bool `env:"AUTH_COOKIE_SECURE" envDefault:"false"`

	// first admin, created at startup when BOOTSTRAP_ADMIN_PASSWORD is set
	AdminEmpID    string `env:"BOOTSTRAP_ADMIN_EMPID" envDefault:"CS-ADM-0001"`
	AdminPhone    string `env:"BOOTSTRAP_ADMIN_PHONE" envDefault:"0000000000"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

type MediaConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"lead-files"`
	PublicURL string `env:"MINIO_PUBLIC_URL" envDefault:"http://localhost:9000"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	MaxUpload int64  `env:"MEDIA_MAX_UPLOAD_BYTES" envDefault:"20971520"`
}

type CacheConfig struct {
	TTL             time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	RefreshInterval time.Duration `env:"CACHE_REFRESH_INTERVAL" envDefault:"5m"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"300"`
	Burst             int `env:"RATE_LIMIT_BURST" envDefault:"50"`
}

type NotificationConfig struct {
	URL string `env:"NOTIFICATION_SERVICE_URL"`
}

// NewConfig creates a new Config
func NewConfig() (*Config, error) {
	cfg := new(Config)
	err := env.Parse(cfg)

	return cfg, err
}
