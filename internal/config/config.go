package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	BotToken string

	// Pricing
	CommissionPercent float64

	// Database
	DBPath string

	// Payment watcher
	CheckInterval     time.Duration
	InvoiceValidity   time.Duration
	SimulatePayments  bool
	SimulatePaidAfter time.Duration

	// Receiving wallet (base58check TRON address, T...)
	ReceivingAddress string

	// TronGrid (chain API)
	TronAPIBaseURL string
	TronAPIKey     string

	// Tronsave (resource market API)
	TronsaveBaseURL           string
	TronsaveAPIKey            string
	TronsaveDurationSec       int
	TronsaveUnitPrice         string
	TronsaveAllowPartialFill  bool
	TronsaveMinDelegateAmount int
}

func Load() *Config {
	return &Config{
		// Telegram
		BotToken: getEnv("BOT_TOKEN", ""),

		// Pricing
		CommissionPercent: getEnvFloat("COMMISSION_PERCENT", 10),

		// Database
		DBPath: getEnv("DB_PATH", "./energy-bot.db"),

		// Payment watcher
		CheckInterval:     time.Duration(getEnvInt("PAYMENT_CHECK_INTERVAL_SEC", 30)) * time.Second,
		InvoiceValidity:   time.Duration(getEnvInt("INVOICE_VALIDITY_MIN", 20)) * time.Minute,
		SimulatePayments:  getEnvBool("SIMULATE_PAYMENTS", false),
		SimulatePaidAfter: time.Duration(getEnvInt("SIMULATE_PAID_AFTER_SEC", 60)) * time.Second,

		// Receiving wallet
		ReceivingAddress: getEnv("RECEIVING_ADDRESS", ""),

		// TronGrid
		TronAPIBaseURL: strings.TrimSuffix(getEnv("TRON_API_BASE_URL", "https://api.trongrid.io"), "/"),
		TronAPIKey:     getEnv("TRON_API_KEY", ""),

		// Tronsave
		TronsaveBaseURL:           strings.TrimSuffix(getEnv("TRONSAVE_API_BASE_URL", "https://api.tronsave.io"), "/"),
		TronsaveAPIKey:            getEnv("TRONSAVE_API_KEY", ""),
		TronsaveDurationSec:       getEnvInt("TRONSAVE_DURATION_SEC", 3600),
		TronsaveUnitPrice:         getEnv("TRONSAVE_UNIT_PRICE", "MEDIUM"),
		TronsaveAllowPartialFill:  getEnvBool("TRONSAVE_ALLOW_PARTIAL_FILL", true),
		TronsaveMinDelegateAmount: getEnvInt("TRONSAVE_MIN_DELEGATE_AMOUNT", 0),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultVal
}
