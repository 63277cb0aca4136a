package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StockPolicyAllowNegative = "allow-negative"
	StockPolicyReject        = "reject"
)

type Config struct {
	Port                   string
	AllowedOrigin          string
	DatabaseURL            string
	AutoMigrate            bool
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	SessionSecret          string
	SessionTTLMinutes      int
	CookieSecure           bool
	ShopName               string
	CurrencySymbol         string
	Timezone               string
	SaleStockPolicy        string
	BootstrapAdminUser     string
	BootstrapAdminPassword string
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] ignoring .env: %v", err)
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	sessionTTL, err := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "480"))
	if err != nil || sessionTTL < 1 {
		sessionTTL = 480
	}

	policy := strings.ToLower(getEnv("SALE_STOCK_POLICY", StockPolicyAllowNegative))
	if policy != StockPolicyReject {
		policy = StockPolicyAllowNegative
	}

	cfg := Config{
		Port:                   getEnv("PORT", "8080"),
		AllowedOrigin:          getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		AutoMigrate:            getBool("AUTO_MIGRATE", false),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                redisDB,
		SessionSecret:          strings.TrimSpace(os.Getenv("SESSION_SECRET")),
		SessionTTLMinutes:      sessionTTL,
		CookieSecure:           getBool("COOKIE_SECURE", false),
		ShopName:               getEnv("SHOP_NAME", "OIL SHOP"),
		CurrencySymbol:         getEnv("CURRENCY_SYMBOL", "$"),
		Timezone:               getEnv("TIMEZONE", "UTC"),
		SaleStockPolicy:        policy,
		BootstrapAdminUser:     strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_USERNAME")),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("[config] unknown TIMEZONE %q, using UTC", c.Timezone)
		return time.UTC
	}
	return loc
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getBool(key string, fallback bool) bool {
	val, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return val
}
