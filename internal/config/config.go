package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	SentryDSN   string

	LogLevel string
	LogFile  string

	RunMigrations bool

	JWT               JWTConfig
	ProtectedPrefixes []string
	BcryptCost        int

	LoginRateLimitMax    int
	LoginRateLimitWindow time.Duration

	Seed SeedUser
	Pool PoolConfig
}

type JWTConfig struct {
	SecretKey string
	Algorithm string
	TokenTTL  time.Duration
}

// String keeps the signing secret out of logs and error messages.
func (c JWTConfig) String() string {
	return fmt.Sprintf("JWTConfig{Algorithm:%s TokenTTL:%s SecretKey:[redacted]}", c.Algorithm, c.TokenTTL)
}

type SeedUser struct {
	Username string
	Email    string
	Password string
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Load reads the process environment. Call godotenv.Load beforehand to pick up a .env file.
func Load() (Config, error) {
	databaseURL, err := databaseURLFromEnv()
	if err != nil {
		return Config{}, err
	}

	secret, err := mustEnv("JWT_SECRET_KEY")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:        envOrDefault("APP_ENV", "development"),
		Port:          envOrDefault("PORT", "8080"),
		DatabaseURL:   databaseURL,
		SentryDSN:     strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		LogLevel:      envOrDefault("LOG_LEVEL", "info"),
		LogFile:       strings.TrimSpace(os.Getenv("LOG_FILE")),
		RunMigrations: EnvBoolOrDefault("RUN_MIGRATIONS_ON_STARTUP", true),
		JWT: JWTConfig{
			SecretKey: secret,
			Algorithm: strings.ToUpper(envOrDefault("JWT_ENCODING_ALGORITHM", "HS256")),
			TokenTTL:  envMinutesOrDefault("JWT_TOKEN_EXPIRE_MINUTES", 30),
		},
		ProtectedPrefixes:    envListOrDefault("AUTH_PROTECTED_PREFIXES", []string{"/api"}),
		BcryptCost:           envIntOrDefault("BCRYPT_COST", 0),
		LoginRateLimitMax:    envIntOrDefault("LOGIN_RATE_LIMIT_MAX", 10),
		LoginRateLimitWindow: envSecondsOrDefault("LOGIN_RATE_LIMIT_WINDOW_SECONDS", 60),
		Seed: SeedUser{
			Username: strings.TrimSpace(os.Getenv("SEED_USERNAME")),
			Email:    strings.TrimSpace(os.Getenv("SEED_EMAIL")),
			Password: os.Getenv("SEED_PASSWORD"),
		},
		Pool: PoolConfig{
			MaxOpenConns:    envIntOrDefault("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envIntOrDefault("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30),
			ConnMaxIdleTime: envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10),
		},
	}

	return cfg, nil
}

func (c Config) Addr() string {
	return ":" + c.Port
}

// databaseURLFromEnv prefers DATABASE_URL and otherwise assembles a URL from the DB_* parts.
func databaseURLFromEnv() (string, error) {
	if value := strings.TrimSpace(os.Getenv("DATABASE_URL")); value != "" {
		return value, nil
	}

	user, err := mustEnv("DB_USER")
	if err != nil {
		return "", err
	}
	password, err := mustEnv("DB_PASSWORD")
	if err != nil {
		return "", err
	}
	name, err := mustEnv("DB_NAME")
	if err != nil {
		return "", err
	}
	host := envOrDefault("DB_HOST", "localhost")
	port := envIntOrDefault("DB_PORT", 5432)

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + name,
	}
	return u.String(), nil
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envSecondsOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Second
}

func envListOrDefault(name string, fallback []string) []string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}

	items := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
