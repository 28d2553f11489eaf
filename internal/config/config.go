package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Token      TokenConfig
	Submission SubmissionConfig
	Status     StatusConfig
	Reminder   ReminderConfig
	Messaging  MessagingConfig
	Metrics    MetricsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                string
	Env                 string
	Host                string
	Port                string
	Version             string
	ReadTimeoutSeconds  int
	WriteTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines how admin bearer tokens are verified.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// TokenConfig controls issuance of availability tokens.
type TokenConfig struct {
	SecretBytes       int
	MaxSecretAttempts int
	ExpiryGraceHours  int
	WeekStartDay      time.Weekday
}

// SubmissionConfig bounds submission payloads.
type SubmissionConfig struct {
	MaxPreferences int
	MaxNotesLength int
}

// StatusConfig controls the schedule status cache.
type StatusConfig struct {
	CacheTTLSeconds int
}

// ReminderConfig controls reminder audiences and message content.
type ReminderConfig struct {
	WindowDays      int
	PublicBaseURL   string
	MessageTemplate string
}

// MessagingConfig points at the outbound messaging gateway.
type MessagingConfig struct {
	WebhookURL     string
	APIKey         string
	TimeoutSeconds int
}

// MetricsConfig toggles the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

const defaultReminderTemplate = "Hi {name}, please submit your shift availability for next week: {link}"

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	weekStart, err := parseWeekday(getEnv("TOKEN_WEEK_START_DAY", "sunday"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_WEEK_START_DAY: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                getEnv("APP_NAME", "shift-availability"),
			Env:                 getEnv("APP_ENV", "development"),
			Host:                getEnv("APP_HOST", "0.0.0.0"),
			Port:                getEnv("APP_PORT", "8080"),
			Version:             getEnv("APP_VERSION", "dev"),
			ReadTimeoutSeconds:  getEnvAsInt("HTTP_READ_TIMEOUT_SECONDS", 5),
			WriteTimeoutSeconds: getEnvAsInt("HTTP_WRITE_TIMEOUT_SECONDS", 15),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
			Issuer:    os.Getenv("AUTH_JWT_ISSUER"),
		},
		Token: TokenConfig{
			SecretBytes:       getEnvAsInt("TOKEN_SECRET_BYTES", 32),
			MaxSecretAttempts: getEnvAsInt("TOKEN_MAX_SECRET_ATTEMPTS", 3),
			ExpiryGraceHours:  getEnvAsInt("TOKEN_EXPIRY_GRACE_HOURS", 0),
			WeekStartDay:      weekStart,
		},
		Submission: SubmissionConfig{
			MaxPreferences: getEnvAsInt("SUBMISSION_MAX_PREFERENCES", 64),
			MaxNotesLength: getEnvAsInt("SUBMISSION_MAX_NOTES_LENGTH", 2000),
		},
		Status: StatusConfig{
			CacheTTLSeconds: getEnvAsInt("STATUS_CACHE_TTL_SECONDS", 10),
		},
		Reminder: ReminderConfig{
			WindowDays:      getEnvAsInt("REMINDER_WINDOW_DAYS", 7),
			PublicBaseURL:   strings.TrimRight(getEnv("REMINDER_PUBLIC_BASE_URL", "http://localhost:3000/availability"), "/"),
			MessageTemplate: getEnv("REMINDER_MESSAGE_TEMPLATE", defaultReminderTemplate),
		},
		Messaging: MessagingConfig{
			WebhookURL:     os.Getenv("MESSAGING_WEBHOOK_URL"),
			APIKey:         os.Getenv("MESSAGING_API_KEY"),
			TimeoutSeconds: getEnvAsInt("MESSAGING_TIMEOUT_SECONDS", 10),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// ReadTimeout bounds read-only requests such as eligibility lookups.
func (a AppConfig) ReadTimeout() time.Duration {
	return seconds(a.ReadTimeoutSeconds)
}

// WriteTimeout bounds mutating requests such as submissions and issuance.
func (a AppConfig) WriteTimeout() time.Duration {
	return seconds(a.WriteTimeoutSeconds)
}

// ExpiryGrace returns the extra validity appended after the week ends.
func (t TokenConfig) ExpiryGrace() time.Duration {
	if t.ExpiryGraceHours <= 0 {
		return 0
	}
	return time.Duration(t.ExpiryGraceHours) * time.Hour
}

// CacheTTL returns how long a computed status may be served from cache.
func (s StatusConfig) CacheTTL() time.Duration {
	return seconds(s.CacheTTLSeconds)
}

// Window returns the trailing period in which a submission counts as recent.
func (r ReminderConfig) Window() time.Duration {
	days := r.WindowDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// Timeout returns the per-request timeout for the messaging gateway.
func (m MessagingConfig) Timeout() time.Duration {
	return seconds(m.TimeoutSeconds)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func parseWeekday(val string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(val)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", val)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
