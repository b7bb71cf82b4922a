package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends accepted by SWIMREF_STORAGE.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Document content backends accepted by SWIMREF_DOCUMENT_STORAGE.
const (
	DocumentsStore = "store"
	DocumentsS3    = "s3"
)

// Config captures environment driven configuration values for the roster service.
type Config struct {
	HTTPPort    int
	LogLevel    string
	LogFormat   string
	PublicURL   string
	CORSOrigins []string
	// SecureCookies marks the session cookie Secure. Defaults to true when
	// PublicURL is https.
	SecureCookies bool

	Storage     string
	SQLiteDSN   string
	PostgresDSN string
	Redis       RedisConfig

	SessionSecret string
	SessionTTL    time.Duration
	SeedPassword  string

	NotificationRetention int

	Documents      string
	S3             S3Config
	MaxUploadBytes int64

	Gemini GeminiConfig
	SMTP   SMTPConfig
}

// RedisConfig holds the connection settings shared by the Redis adapter and the
// notification fan-out bridge.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Fanout   bool
}

// S3Config configures the S3-compatible document content store.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// GeminiConfig configures the briefing generator.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// SMTPConfig configures email delivery. Email is disabled when Host is empty.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Enabled reports whether an SMTP relay was configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// Load parses configuration values from the current process environment.
//
// A .env file in the working directory is read first when present; variables
// already set in the environment win. Missing and invalid variables are
// aggregated so a single run reports every problem.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("falha ao ler o ficheiro .env: %w", err)
	}

	cfg := Config{
		HTTPPort:              8080,
		LogLevel:              "info",
		LogFormat:             "json",
		CORSOrigins:           []string{"*"},
		Storage:               StorageSQLite,
		SQLiteDSN:             "file:swimref.db",
		Redis:                 RedisConfig{Prefix: "swimref:"},
		SessionTTL:            24 * time.Hour,
		SeedPassword:          "swimref",
		NotificationRetention: 100,
		Documents:             DocumentsStore,
		S3:                    S3Config{Region: "auto"},
		MaxUploadBytes:        10 << 20,
		Gemini:                GeminiConfig{Model: "gemini-2.5-flash", Timeout: 60 * time.Second},
		SMTP:                  SMTPConfig{Port: 587},
	}

	l := &loader{}

	l.positiveInt("SWIMREF_HTTP_PORT", &cfg.HTTPPort)
	l.str("SWIMREF_LOG_LEVEL", &cfg.LogLevel)
	l.str("SWIMREF_LOG_FORMAT", &cfg.LogFormat)
	l.str("SWIMREF_PUBLIC_URL", &cfg.PublicURL)
	if origins := env("SWIMREF_CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitTrim(origins)
	}
	cfg.SecureCookies = strings.HasPrefix(strings.ToLower(cfg.PublicURL), "https://")
	l.boolean("SWIMREF_SECURE_COOKIES", &cfg.SecureCookies)

	l.str("SWIMREF_STORAGE", &cfg.Storage)
	cfg.Storage = strings.ToLower(cfg.Storage)
	l.str("SWIMREF_SQLITE_DSN", &cfg.SQLiteDSN)
	l.str("SWIMREF_POSTGRES_DSN", &cfg.PostgresDSN)
	l.str("SWIMREF_REDIS_ADDR", &cfg.Redis.Addr)
	l.str("SWIMREF_REDIS_PASSWORD", &cfg.Redis.Password)
	l.nonNegativeInt("SWIMREF_REDIS_DB", &cfg.Redis.DB)
	l.str("SWIMREF_REDIS_PREFIX", &cfg.Redis.Prefix)
	l.boolean("SWIMREF_REDIS_FANOUT", &cfg.Redis.Fanout)

	switch cfg.Storage {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if cfg.PostgresDSN == "" {
			l.missing = append(l.missing, "SWIMREF_POSTGRES_DSN")
		}
	case StorageRedis:
		if cfg.Redis.Addr == "" {
			l.missing = append(l.missing, "SWIMREF_REDIS_ADDR")
		}
	default:
		l.invalid = append(l.invalid, "SWIMREF_STORAGE")
	}
	if cfg.Redis.Fanout && cfg.Redis.Addr == "" && cfg.Storage != StorageRedis {
		l.missing = append(l.missing, "SWIMREF_REDIS_ADDR")
	}

	if secret := env("SWIMREF_SESSION_SECRET"); secret == "" {
		l.missing = append(l.missing, "SWIMREF_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}
	l.positiveDuration("SWIMREF_SESSION_TTL", &cfg.SessionTTL)
	l.str("SWIMREF_SEED_PASSWORD", &cfg.SeedPassword)
	l.nonNegativeInt("SWIMREF_NOTIFICATION_RETENTION", &cfg.NotificationRetention)

	l.str("SWIMREF_DOCUMENT_STORAGE", &cfg.Documents)
	cfg.Documents = strings.ToLower(cfg.Documents)
	l.str("SWIMREF_S3_BUCKET", &cfg.S3.Bucket)
	l.str("SWIMREF_S3_REGION", &cfg.S3.Region)
	l.str("SWIMREF_S3_ENDPOINT", &cfg.S3.Endpoint)
	l.str("SWIMREF_S3_ACCESS_KEY_ID", &cfg.S3.AccessKeyID)
	l.str("SWIMREF_S3_SECRET_ACCESS_KEY", &cfg.S3.SecretAccessKey)
	switch cfg.Documents {
	case DocumentsStore:
	case DocumentsS3:
		if cfg.S3.Bucket == "" {
			l.missing = append(l.missing, "SWIMREF_S3_BUCKET")
		}
	default:
		l.invalid = append(l.invalid, "SWIMREF_DOCUMENT_STORAGE")
	}
	if value := env("SWIMREF_MAX_UPLOAD_BYTES"); value != "" {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			l.invalid = append(l.invalid, "SWIMREF_MAX_UPLOAD_BYTES")
		} else {
			cfg.MaxUploadBytes = n
		}
	}

	cfg.Gemini.APIKey = env("SWIMREF_GEMINI_API_KEY")
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = env("API_KEY")
	}
	l.str("SWIMREF_GEMINI_MODEL", &cfg.Gemini.Model)
	l.positiveDuration("SWIMREF_BRIEFING_TIMEOUT", &cfg.Gemini.Timeout)

	l.str("SWIMREF_SMTP_HOST", &cfg.SMTP.Host)
	l.positiveInt("SWIMREF_SMTP_PORT", &cfg.SMTP.Port)
	l.str("SWIMREF_SMTP_USER", &cfg.SMTP.User)
	l.str("SWIMREF_SMTP_PASSWORD", &cfg.SMTP.Password)
	l.str("SWIMREF_SMTP_FROM", &cfg.SMTP.From)
	if cfg.SMTP.Enabled() && cfg.SMTP.From == "" {
		l.missing = append(l.missing, "SWIMREF_SMTP_FROM")
	}

	if len(l.missing) > 0 {
		return Config{}, fmt.Errorf("variáveis de ambiente obrigatórias em falta: %s", strings.Join(l.missing, ", "))
	}
	if len(l.invalid) > 0 {
		return Config{}, fmt.Errorf("valores inválidos nas variáveis de ambiente: %s", strings.Join(l.invalid, ", "))
	}

	return cfg, nil
}

type loader struct {
	missing []string
	invalid []string
}

func (l *loader) str(key string, dst *string) {
	if value := env(key); value != "" {
		*dst = value
	}
}

func (l *loader) positiveInt(key string, dst *int) {
	l.intAtLeast(key, dst, 1)
}

func (l *loader) nonNegativeInt(key string, dst *int) {
	l.intAtLeast(key, dst, 0)
}

func (l *loader) intAtLeast(key string, dst *int, min int) {
	value := env(key)
	if value == "" {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < min {
		l.invalid = append(l.invalid, key)
		return
	}
	*dst = n
}

func (l *loader) positiveDuration(key string, dst *time.Duration) {
	value := env(key)
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		l.invalid = append(l.invalid, key)
		return
	}
	*dst = d
}

func (l *loader) boolean(key string, dst *bool) {
	value := env(key)
	if value == "" {
		return
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		l.invalid = append(l.invalid, key)
		return
	}
	*dst = b
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
