package config

import (
	"fmt"
	"os"
	"strconv"
)

const TIME_PARSE_FORMAT = "2006-01-02T15:04:05Z07:00"

var (
	API_ENV             string
	API_HOST            string
	APP_HOST            string
	API_SECRET          string
	JWT_SECRET          string
	JWT_TTL_MINUTES     int
	OAUTH_CLIENT_ID     string
	OAUTH_CLIENT_SECRET string
	REMINDER_LEAD       int
)

func init() {
	Load()
}

// Load refreshes the package level settings from the environment. Call it
// again after .env files or secrets have been exported.
func Load() {
	API_ENV = Getenv("API_ENV", "local")
	API_HOST = Getenv("API_HOST", "http://localhost:9090")
	APP_HOST = Getenv("APP_HOST", "http://localhost:3000")
	API_SECRET = os.Getenv("API_SECRET")
	JWT_SECRET = os.Getenv("JWT_SECRET")
	JWT_TTL_MINUTES = GetenvInt("JWT_TTL_MINUTES", 60)
	OAUTH_CLIENT_ID = os.Getenv("OAUTH_CLIENT_ID")
	OAUTH_CLIENT_SECRET = os.Getenv("OAUTH_CLIENT_SECRET")
	REMINDER_LEAD = GetenvInt("REMINDER_LEAD_MINUTES", 15)
}

func Getenv(key string, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func GetenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func GetDSN() string {
	DATABASE_HOST := Getenv("DATABASE_HOST", "localhost")
	DATABASE_PORT := Getenv("DATABASE_PORT", "5432")
	DATABASE_SSLMODE := Getenv("DATABASE_SSLMODE", "disable")
	DATABASE_TIMEZONE := Getenv("DATABASE_TIMEZONE", "UTC")
	DATABASE_USER := Getenv("DATABASE_USER", "postgres")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := Getenv("DATABASE_NAME", "meetingroom")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

func IsProd() bool {
	return API_ENV == "production"
}

func IsLocal() bool {
	return API_ENV == "local"
}
