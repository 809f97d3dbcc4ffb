package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Environment string           `json:"environment"`
	Server      ServerConfig     `json:"server"`
	Database    DatabaseConfig   `json:"database"`
	Redis       RedisConfig      `json:"redis"`
	Rights      RightsConfig     `json:"rights"`
	Wallet      WalletConfig     `json:"wallet"`
	Stripe      StripeConfig     `json:"stripe"`
	Xendit      XenditConfig     `json:"xendit"`
	Licensing   LicensingConfig  `json:"licensing"`
	Monitoring  MonitoringConfig `json:"monitoring"`
}

type ServerConfig struct {
	Port           string        `json:"port"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	IdleTimeout    time.Duration `json:"idle_timeout"`
	MaxHeaderBytes int           `json:"max_header_bytes"`
	RateLimitRPS   float64       `json:"rate_limit_rps"`
	RateLimitBurst int           `json:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	User         string        `json:"user"`
	Password     string        `json:"password"`
	DBName       string        `json:"dbname"`
	SSLMode      string        `json:"sslmode"`
	MaxOpenConns int           `json:"max_open_conns"`
	MaxIdleConns int           `json:"max_idle_conns"`
	MaxLifetime  time.Duration `json:"max_lifetime"`
	MaxIdleTime  time.Duration `json:"max_idle_time"`
}

type RedisConfig struct {
	Host     string        `json:"host"`
	Port     int           `json:"port"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	TTL      time.Duration `json:"ttl"`
}

// RightsConfig points at the external rights-management service that mints
// content IDs, quotes licensed sources, and issues access tokens.
type RightsConfig struct {
	BaseURL string        `json:"base_url"`
	APIKey  string        `json:"api_key"`
	Timeout time.Duration `json:"timeout"`
}

// WalletConfig selects the debit backend. Backend "ledger" talks to the
// wallet ledger service over HTTP; "stripe" debits a card on file.
type WalletConfig struct {
	Backend string        `json:"backend"`
	BaseURL string        `json:"base_url"`
	APIKey  string        `json:"api_key"`
	Timeout time.Duration `json:"timeout"`
}

type StripeConfig struct {
	Secret string `json:"secret"`
	Public string `json:"public"`
}

type XenditConfig struct {
	Secret string `json:"secret"`
}

// LicensingConfig drives the provider chain. PartnerCatalog maps source-ID
// prefixes to snippet prices in cents; FallbackPriceCents prices sources no
// provider claims.
type LicensingConfig struct {
	PartnerCatalog     map[string]int64 `json:"partner_catalog"`
	FallbackPriceCents int64            `json:"fallback_price_cents"`
}

type MonitoringConfig struct {
	Enabled  bool   `json:"enabled"`
	LogLevel string `json:"log_level"`
}

func LoadConfig() (*Config, error) {
	config := &Config{}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	config.Environment = env

	configDir, err := filepath.Abs("config")
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, "config.json")

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}

		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	config.loadFromEnv()
	config.setDefaults()

	return config, nil
}

func (c *Config) loadFromEnv() {
	if host := os.Getenv("DB_HOST"); host != "" {
		c.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Database.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		c.Database.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		c.Database.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		c.Database.DBName = dbname
	}
	if sslmode := os.Getenv("DB_SSLMODE"); sslmode != "" {
		c.Database.SSLMode = sslmode
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		c.Redis.Host = host
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}

	if baseURL := os.Getenv("RIGHTS_BASE_URL"); baseURL != "" {
		c.Rights.BaseURL = baseURL
	}
	if apiKey := os.Getenv("RIGHTS_API_KEY"); apiKey != "" {
		c.Rights.APIKey = apiKey
	}

	if backend := os.Getenv("WALLET_BACKEND"); backend != "" {
		c.Wallet.Backend = backend
	}
	if baseURL := os.Getenv("WALLET_BASE_URL"); baseURL != "" {
		c.Wallet.BaseURL = baseURL
	}
	if apiKey := os.Getenv("WALLET_API_KEY"); apiKey != "" {
		c.Wallet.APIKey = apiKey
	}

	if stripeSecret := os.Getenv("STRIPE_SECRET"); stripeSecret != "" {
		c.Stripe.Secret = stripeSecret
	}
	if xenditSecret := os.Getenv("XENDIT_SECRET"); xenditSecret != "" {
		c.Xendit.Secret = xenditSecret
	}

	if serverPort := os.Getenv("SERVER_PORT"); serverPort != "" {
		c.Server.Port = serverPort
	}
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.MaxHeaderBytes == 0 {
		c.Server.MaxHeaderBytes = 1 << 20
	}
	if c.Server.RateLimitRPS == 0 {
		c.Server.RateLimitRPS = 100.0
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = 200
	}

	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.MaxLifetime == 0 {
		c.Database.MaxLifetime = time.Hour
	}
	if c.Database.MaxIdleTime == 0 {
		c.Database.MaxIdleTime = 10 * time.Minute
	}

	if c.Redis.TTL == 0 {
		c.Redis.TTL = 24 * time.Hour
	}

	if c.Rights.Timeout == 0 {
		c.Rights.Timeout = 10 * time.Second
	}
	if c.Wallet.Backend == "" {
		c.Wallet.Backend = "ledger"
	}
	if c.Wallet.Timeout == 0 {
		c.Wallet.Timeout = 10 * time.Second
	}

	if c.Licensing.FallbackPriceCents == 0 {
		c.Licensing.FallbackPriceCents = 50
	}
}

func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
