package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppName string
	Env     string
	Host    string
	Port    int

	DBDriver    string
	DatabaseURL string
	SQLitePath  string

	JWTSecret        string
	JWTExpireSeconds int
	BcryptCost       int
	SkillRegisterKey string
	EncryptKey       string
	LegacyFernetKeys []string

	PublicRoomName string
	CORSOrigins    []string

	RedisAddr             string
	SendRateLimit         int
	SendRateWindowSeconds int

	OTLPEndpoint    string
	OTELServiceName string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first; variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbHost := getEnv("DB_HOST", "127.0.0.1")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "im_user")
	dbPass := getEnv("DB_PASS", "change_me")
	dbName := getEnv("DB_NAME", "im_app")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbUser, dbPass),
		Host:     fmt.Sprintf("%s:%s", dbHost, dbPort),
		Path:     dbName,
		RawQuery: "sslmode=disable",
	}

	cfg := &Config{
		AppName: getEnv("APP_NAME", "imchat"),
		Env:     getEnv("APP_ENV", "development"),
		Host:    getEnv("HTTP_HOST", "0.0.0.0"),
		Port:    getEnvAsInt("HTTP_PORT", 18080),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DatabaseURL: u.String(),
		SQLitePath:  getEnv("SQLITE_PATH", "imchat.db"),

		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTExpireSeconds: getEnvAsInt("JWT_EXPIRE_SECONDS", 7200),
		BcryptCost:       getEnvAsInt("BCRYPT_COST", 0),
		SkillRegisterKey: getEnv("SKILL_REGISTER_KEY", "im-skill-2026"),
		EncryptKey:       os.Getenv("ENCRYPTION_KEY"),
		LegacyFernetKeys: getEnvAsList("LEGACY_FERNET_KEYS", nil),

		PublicRoomName: getEnv("PUBLIC_ROOM_NAME", "Public Room"),
		CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"*"}),

		RedisAddr:             os.Getenv("REDIS_ADDR"),
		SendRateLimit:         getEnvAsInt("SEND_RATE_LIMIT", 30),
		SendRateWindowSeconds: getEnvAsInt("SEND_RATE_WINDOW_SECONDS", 60),

		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELServiceName: getEnv("OTEL_SERVICE_NAME", "imchat"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTExpireSeconds <= 0 {
		return nil, fmt.Errorf("JWT_EXPIRE_SECONDS must be positive")
	}
	if cfg.DBDriver != DriverPostgres && cfg.DBDriver != DriverSQLite {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpireSeconds) * time.Second
}

func (c *Config) SendRateWindow() time.Duration {
	return time.Duration(c.SendRateWindowSeconds) * time.Second
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

// getEnvAsList splits a comma separated value, dropping blank items.
func getEnvAsList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
