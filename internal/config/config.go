package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Env        string
	ServerPort string
	LogLevel   string

	MySQLDSN       string
	DBTimeout      time.Duration
	DBMaxOpenConns int
	DBMaxIdleConns int
	DBConnMaxLife  time.Duration
	AutoMigrate    bool
	RequestTimeout time.Duration
	MaxUploadBytes int64
	PublicBaseURL  string
	CORSOrigins    []string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	CacheEnabled   bool
	SessionStore   string // "redis" or "memory"
	SessionSecret  string
	SessionTTL     time.Duration
	SessionCookie  string
	CookieSecure   bool
	ImageBackend   string // "disk" or "s3"
	UploadDir      string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	AdminUsername  string
	AdminPassword  string
}

// Load builds Config from environment with sensible defaults. A .env file in
// the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	dbTimeout := getEnvDuration("DB_TIMEOUT", 5*time.Second)
	return &Config{
		Env:            getEnv("APP_ENV", "development"),
		ServerPort:     getEnv("PORT", "8081"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MySQLDSN:       mysqlDSN(dbTimeout),
		DBTimeout:      dbTimeout,
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLife:  getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		AutoMigrate:    getEnvBool("AUTO_MIGRATE", true),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 5<<20)),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8081"), "/"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisPass:      os.Getenv("REDIS_PASSWORD"),
		CacheEnabled:   getEnvBool("CACHE_ENABLED", true),
		SessionStore:   getEnv("SESSION_STORE", "redis"),
		SessionSecret:  getEnv("SESSION_SECRET", "change-me"),
		SessionTTL:     getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionCookie:  getEnv("SESSION_COOKIE_NAME", "statues_sid"),
		CookieSecure:   getEnvBool("COOKIE_SECURE", false),
		ImageBackend:   getEnv("IMAGE_BACKEND", "disk"),
		UploadDir:      getEnv("UPLOAD_DIR", "assets"),
		S3Bucket:       getEnv("S3_BUCKET", "statues"),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings the service cannot safely start with.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET must not be empty")
	}
	if c.IsProduction() && c.SessionSecret == "change-me" {
		return errors.New("SESSION_SECRET must be set in production")
	}
	switch c.SessionStore {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}
	switch c.ImageBackend {
	case "disk", "s3":
	default:
		return fmt.Errorf("unknown IMAGE_BACKEND %q", c.ImageBackend)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

// mysqlDSN prefers MYSQL_DSN and otherwise assembles one from the DB_* parts.
// timeout bounds dialing, reads and writes.
func mysqlDSN(timeout time.Duration) string {
	if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%s&readTimeout=%s&writeTimeout=%s",
		getEnv("DB_USER", "root"),
		os.Getenv("DB_PASSWORD"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "3306"),
		getEnv("DB_NAME", "statues_DB"),
		timeout, timeout, timeout,
	)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
