// Package config loads the server configuration.
//
// Values are layered, later layers winning:
//
//	Default() → optional YAML file (-config) → .env file → process environment
//
// The .env file never overrides variables already present in the process
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Session   SessionConfig   `yaml:"session"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Keycloak  KeycloakConfig  `yaml:"keycloak"`
	Storage   StorageConfig   `yaml:"storage"`
	Paystack  PaystackConfig  `yaml:"paystack"`
	Mail      MailConfig      `yaml:"mail"`
	BasicAuth BasicAuthConfig `yaml:"basicAuth"`
	Prices    PriceConfig     `yaml:"prices"`
	Reminders ReminderConfig  `yaml:"reminders"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"        env:"PORT"`
	BaseURL     string `yaml:"baseURL"     env:"APP_URL"`
	TemplateDir string `yaml:"templateDir" env:"TEMPLATE_DIR"`
	StaticDir   string `yaml:"staticDir"   env:"STATIC_DIR"`
}

type SessionConfig struct {
	Secret     string        `yaml:"secret"     env:"JWT_SECRET"`
	CookieName string        `yaml:"cookieName" env:"SESSION_COOKIE"`
	TTL        time.Duration `yaml:"ttl"        env:"SESSION_TTL"`
	Secure     bool          `yaml:"secure"     env:"SESSION_SECURE"`
}

type MongoConfig struct {
	URI      string        `yaml:"uri"      env:"MONGO_URI"`
	Database string        `yaml:"database" env:"MONGO_DATABASE"`
	Timeout  time.Duration `yaml:"timeout"  env:"MONGO_TIMEOUT"`
}

type KeycloakConfig struct {
	URL           string `yaml:"url"           env:"KEYCLOAK_URL"`
	Realm         string `yaml:"realm"         env:"KEYCLOAK_REALM"`
	ClientID      string `yaml:"clientID"      env:"KEYCLOAK_CLIENT_ID"`
	ClientSecret  string `yaml:"clientSecret"  env:"KEYCLOAK_CLIENT_SECRET"`
	AdminRealm    string `yaml:"adminRealm"    env:"KEYCLOAK_ADMIN_REALM"`
	AdminUser     string `yaml:"adminUser"     env:"KEYCLOAK_ADMIN_USER"`
	AdminPassword string `yaml:"adminPassword" env:"KEYCLOAK_ADMIN_PASSWORD"`
	// IDPHint selects the brokered social provider on the realm login page.
	IDPHint string `yaml:"idpHint" env:"KEYCLOAK_IDP_HINT"`
}

// IssuerURL is the OIDC issuer of the user realm.
func (k KeycloakConfig) IssuerURL() string {
	return strings.TrimRight(k.URL, "/") + "/realms/" + k.Realm
}

type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"  env:"STORAGE_ENDPOINT"`
	AccessKey string `yaml:"accessKey" env:"STORAGE_ACCESS_KEY"`
	SecretKey string `yaml:"secretKey" env:"STORAGE_SECRET_KEY"`
	Bucket    string `yaml:"bucket"    env:"STORAGE_BUCKET"`
	Region    string `yaml:"region"    env:"STORAGE_REGION"`
	UseTLS    bool   `yaml:"useTLS"    env:"STORAGE_USE_TLS"`
	// PublicURL prefixes object keys in returned URLs. Empty means
	// scheme://endpoint/bucket.
	PublicURL string `yaml:"publicURL" env:"STORAGE_PUBLIC_URL"`
}

type PaystackConfig struct {
	BaseURL   string        `yaml:"baseURL"   env:"PAYSTACK_BASE_URL"`
	SecretKey string        `yaml:"secretKey" env:"PAYSTACK_SECRET_KEY"`
	Currency  string        `yaml:"currency"  env:"PAYSTACK_CURRENCY"`
	Timeout   time.Duration `yaml:"timeout"   env:"PAYSTACK_TIMEOUT"`
}

type MailConfig struct {
	Host      string `yaml:"host"      env:"MAIL_HOST"`
	Port      int    `yaml:"port"      env:"MAIL_PORT"`
	Username  string `yaml:"username"  env:"MAIL_USERNAME"`
	Password  string `yaml:"password"  env:"MAIL_PASSWORD"`
	From      string `yaml:"from"      env:"MAIL_FROM_ADDRESS"`
	FromName  string `yaml:"fromName"  env:"MAIL_FROM_NAME"`
	Admin     string `yaml:"admin"     env:"MAIL_ADMIN"`
	AdminCC   string `yaml:"adminCC"   env:"MAIL_ADMIN_CC"` // comma separated
	Contact   string `yaml:"contact"   env:"MAIL_CONTACT"`
	Workers   int    `yaml:"workers"   env:"MAIL_WORKERS"`
	QueueSize int    `yaml:"queueSize" env:"MAIL_QUEUE_SIZE"`
	// Opportunistic allows delivery when the relay does not offer STARTTLS.
	Opportunistic bool `yaml:"opportunistic" env:"MAIL_TLS_OPPORTUNISTIC"`
}

// AdminCCList splits AdminCC into trimmed, non-empty addresses.
func (m MailConfig) AdminCCList() []string {
	var out []string
	for _, addr := range strings.Split(m.AdminCC, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

type BasicAuthConfig struct {
	User     string `yaml:"user"     env:"BASIC_AUTH_USER"`
	Password string `yaml:"password" env:"BASIC_AUTH_PASSWORD"`
}

// PriceConfig holds renewal prices in major currency units.
type PriceConfig struct {
	InvestorRenewal float64 `yaml:"investorRenewal" env:"PRICE_INVESTOR_RENEWAL"`
	ListingRenewal  float64 `yaml:"listingRenewal"  env:"PRICE_LISTING_RENEWAL"`
}

type ReminderConfig struct {
	Schedule   string `yaml:"schedule"   env:"REMINDER_SCHEDULE"` // cron spec, empty disables the sweep
	LedgerPath string `yaml:"ledgerPath" env:"REMINDER_LEDGER_PATH"`
	LeadDays   int    `yaml:"leadDays"   env:"REMINDER_LEAD_DAYS"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"   env:"RATE_LIMIT_RPS"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"` // text or json
	Dir    string `yaml:"dir"    env:"LOGS_DIR"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			BaseURL:     "http://localhost:8080",
			TemplateDir: "web/templates",
			StaticDir:   "web/static",
		},
		Session: SessionConfig{
			CookieName: "session",
			TTL:        24 * time.Hour,
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "venturehub",
			Timeout:  10 * time.Second,
		},
		Keycloak: KeycloakConfig{
			AdminRealm: "master",
			IDPHint:    "google",
		},
		Paystack: PaystackConfig{
			BaseURL: "https://api.paystack.co",
			Timeout: 20 * time.Second,
		},
		Mail: MailConfig{
			Port:      587,
			FromName:  "VentureHub",
			Workers:   2,
			QueueSize: 100,
		},
		BasicAuth: BasicAuthConfig{
			User:     "admin",
			Password: "password",
		},
		Prices: PriceConfig{
			InvestorRenewal: 360,
			ListingRenewal:  150,
		},
		Reminders: ReminderConfig{
			Schedule:   "0 8 * * *",
			LedgerPath: "data/reminders.db",
			LeadDays:   5,
		},
		RateLimit: RateLimitConfig{
			RPS:   1,
			Burst: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: loading .env: %w", err)
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: decoding environment: %w", err)
	}

	return cfg, nil
}

// Validate reports the first missing or malformed required value.
func (c *Config) Validate() error {
	switch {
	case len(c.Session.Secret) < 16:
		return errors.New("config: JWT_SECRET must be at least 16 characters")
	case c.Mongo.URI == "":
		return errors.New("config: MONGO_URI is required")
	case c.Keycloak.URL == "" || c.Keycloak.Realm == "":
		return errors.New("config: KEYCLOAK_URL and KEYCLOAK_REALM are required")
	case c.Keycloak.ClientID == "":
		return errors.New("config: KEYCLOAK_CLIENT_ID is required")
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	return nil
}
