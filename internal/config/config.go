package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr  string
	MySQLDSN  string
	RedisAddr string
	JWTSecret string
	TokenTTL  time.Duration
	LogMode   string
}

func Load() Config {
	ttlHours := getEnvInt("TOKEN_TTL_HOURS", 24)
	return Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		MySQLDSN:  getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/marketplace?parseTime=true"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:  time.Duration(ttlHours) * time.Hour,
		LogMode:   getEnv("LOG_MODE", "dev"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
