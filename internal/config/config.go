package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Booking  BookingConfig
	Fare     FareConfig
	Gateway  GatewayConfig
	Invoice  InvoiceConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// BookingConfig holds booking identity and currency settings.
type BookingConfig struct {
	PNRPrefix     string
	InvoicePrefix string
	Currency      string
}

// Tax is one configured tax applied on the fare base price.
type Tax struct {
	Name string
	Rate float64
}

// FareConfig holds the deploy-time tax table for the fare calculator.
type FareConfig struct {
	// Taxes apply to bookings created at or after TaxEffectiveFrom.
	Taxes            []Tax
	TaxEffectiveFrom time.Time
}

// GatewayConfig holds payment gateway adapter settings.
type GatewayConfig struct {
	Provider    string
	MerchantID  string
	AccessCode  string
	WorkingKey  string
	Endpoint    string
	RedirectURL string
	CancelURL   string
}

// InvoiceConfig holds the static invoice header/footer content.
type InvoiceConfig struct {
	BusinessName    string
	BusinessAddress string
	Footer          string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is merged in first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "cabs"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "cab-booking-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Booking: BookingConfig{
			PNRPrefix:     getEnv("PNR_PREFIX", "PNR"),
			InvoicePrefix: getEnv("INVOICE_ID_PREFIX", "INV"),
			Currency:      getEnv("CURRENCY", "INR"),
		},
		Fare: FareConfig{
			Taxes:            getTaxesEnv("FARE_TAXES", "SGST:0.025,CGST:0.025"),
			TaxEffectiveFrom: getTimeEnv("TAX_EFFECTIVE_FROM", time.Date(2017, 7, 1, 0, 0, 0, 0, time.UTC)),
		},
		Gateway: GatewayConfig{
			Provider:    getEnv("PAYMENT_PROVIDER", "ccavenue"),
			MerchantID:  getEnv("GATEWAY_MERCHANT_ID", ""),
			AccessCode:  getEnv("GATEWAY_ACCESS_CODE", ""),
			WorkingKey:  getEnv("GATEWAY_WORKING_KEY", ""),
			Endpoint:    getEnv("GATEWAY_ENDPOINT", "https://secure.ccavenue.com/transaction/transaction.do"),
			RedirectURL: getEnv("GATEWAY_REDIRECT_URL", ""),
			CancelURL:   getEnv("GATEWAY_CANCEL_URL", ""),
		},
		Invoice: InvoiceConfig{
			BusinessName:    getEnv("INVOICE_BUSINESS_NAME", ""),
			BusinessAddress: getEnv("INVOICE_BUSINESS_ADDRESS", ""),
			Footer:          getEnv("INVOICE_FOOTER", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getTimeEnv(key string, defaultValue time.Time) time.Time {
	if value := os.Getenv(key); value != "" {
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			return ts
		}
	}
	return defaultValue
}

// getTaxesEnv parses a "NAME:RATE,NAME:RATE" tax table.
func getTaxesEnv(key, defaultValue string) []Tax {
	value := getEnv(key, defaultValue)

	var taxes []Tax
	for _, part := range strings.Split(value, ",") {
		name, rate, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			continue
		}
		r, err := strconv.ParseFloat(rate, 64)
		if err != nil {
			continue
		}
		taxes = append(taxes, Tax{Name: name, Rate: r})
	}
	return taxes
}
