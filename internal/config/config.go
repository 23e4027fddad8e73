package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type RateLimitConfig struct {
	Capacity     int
	RefillPerSec float64
}

type Config struct {
	Port       string
	DBURL      string
	LogLevel   string
	DBMaxConns int

	RedisAddr      string
	CacheWalletTTL time.Duration

	TokenSecret string
	TokenTTL    time.Duration

	RateLimitLogin    RateLimitConfig
	RateLimitTransfer RateLimitConfig

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load("config.env")

	secret := os.Getenv("TOKEN_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET must be set")
	}

	return &Config{
		Port:     os.Getenv("APP_PORT"),
		LogLevel: os.Getenv("LOG_LEVEL"),
		DBURL: fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		),
		DBMaxConns:     envInt("DB_MAX_CONNS", 8),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		CacheWalletTTL: envDuration("CACHE_WALLET_TTL", 5*time.Minute),
		TokenSecret:    secret,
		TokenTTL:       envDuration("TOKEN_TTL", 30*time.Minute),
		RateLimitLogin: RateLimitConfig{
			Capacity:     envInt("RATE_LIMIT_LOGIN_CAPACITY", 5),
			RefillPerSec: envFloat("RATE_LIMIT_LOGIN_REFILL_PER_SEC", 1),
		},
		RateLimitTransfer: RateLimitConfig{
			Capacity:     envInt("RATE_LIMIT_TRANSFER_CAPACITY", 10),
			RefillPerSec: envFloat("RATE_LIMIT_TRANSFER_REFILL_PER_SEC", 5),
		},
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     os.Getenv("SMTP_PORT"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     os.Getenv("MAIL_FROM"),
	}, nil
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if v, err := time.ParseDuration(s); err == nil {
			return v
		}
	}
	return def
}
