package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL   time.Duration
	CookieSecure bool

	FrontendURL string
	CORSOrigins []string

	MailProvider string // "sendgrid", "resend" or "" for the log sender
	EmailAPIKey  string
	EmailSender  string

	NATSURL string

	// Reset mails allowed per address: ResetMailBurst immediately, then one
	// every ResetMailEvery.
	ResetMailEvery time.Duration
	ResetMailBurst int
}

func Load() *Config {
	return &Config{
		HTTPAddr:    GetEnvAsString("HTTP_ADDR", ":4000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     GetEnvAsString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       GetEnvAsInt("REDIS_DB", 0),

		SessionTTL:   GetEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
		CookieSecure: GetEnvAsBool("COOKIE_SECURE", false),

		FrontendURL: GetEnvAsString("FRONTEND_URL", "http://localhost:3000"),
		CORSOrigins: strings.Split(GetEnvAsString("CORS_ORIGINS", "http://localhost:3000"), ","),

		MailProvider: os.Getenv("MAIL_PROVIDER"),
		EmailAPIKey:  os.Getenv("EMAIL_API_KEY"),
		EmailSender:  os.Getenv("EMAIL_SENDER"),

		NATSURL: os.Getenv("NATS_URL"),

		ResetMailEvery: GetEnvAsDuration("RESET_MAIL_EVERY", time.Minute),
		ResetMailBurst: GetEnvAsInt("RESET_MAIL_BURST", 3),
	}
}

// GetEnvAsString gets environment variable with default value
func GetEnvAsString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsInt gets environment variable as int with default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsBool gets environment variable as bool with default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration gets environment variable as duration with default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
