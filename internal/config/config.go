package config

import (
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Config is the explicit configuration object for both binaries. Provider
// credentials in here are platform-level (the subscription renewal flow);
// merchant-level credentials live on the tenant row.
type Config struct {
	DatabaseURL string `validate:"required"`
	RedisURL    string
	Port        string `validate:"required"`

	// Platform Mercado Pago credential used for subscription renewals
	MercadoPagoPlatformToken string

	// Provider API base URLs, overridable for sandboxes and tests
	MercadoPagoBaseURL string `validate:"required,url"`
	AppmaxBaseURL      string `validate:"required,url"`
	BlingBaseURL       string `validate:"required,url"`
	WahaBaseURL        string `validate:"required,url"`
	WahaAPIKey         string

	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	EmailFrom string

	// Seconds a cached tenant credential lookup stays fresh
	TenantCacheTTL int `validate:"gte=0"`
}

// Load reads configuration from the environment and validates it.
// Loading .env via godotenv is the caller's responsibility, done in main.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		RedisURL:                 os.Getenv("REDIS_URL"),
		Port:                     getEnv("PORT", "8080"),
		MercadoPagoPlatformToken: os.Getenv("MERCADOPAGO_PLATFORM_TOKEN"),
		MercadoPagoBaseURL:       getEnv("MERCADOPAGO_BASE_URL", "https://api.mercadopago.com"),
		AppmaxBaseURL:            getEnv("APPMAX_BASE_URL", "https://admin.appmax.com.br/api/v3"),
		BlingBaseURL:             getEnv("BLING_BASE_URL", "https://api.bling.com.br/Api/v3"),
		WahaBaseURL:              getEnv("WAHA_BASE_URL", "http://waha:3000"),
		WahaAPIKey:               os.Getenv("WAHA_API_KEY"),
		SMTPHost:                 os.Getenv("SMTP_HOST"),
		SMTPPort:                 os.Getenv("SMTP_PORT"),
		SMTPUser:                 os.Getenv("SMTP_USER"),
		SMTPPass:                 os.Getenv("SMTP_PASS"),
		EmailFrom:                os.Getenv("EMAIL_FROM"),
		TenantCacheTTL:           getEnvInt("TENANT_CACHE_TTL", 60),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
