package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the gateway
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Sender    SenderConfig    `yaml:"sender"`
	Provider  ProviderConfig  `yaml:"provider"`
	DKIM      DKIMConfig      `yaml:"dkim"`
	Blocklist BlocklistConfig `yaml:"blocklist"`
	SMTPProxy SMTPProxyConfig `yaml:"smtp_proxy"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the optional redis cache settings. An empty URL
// disables the settings cache and reads go straight to the database.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// AuthConfig holds the shared secret used to verify identity tokens
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// SenderConfig holds enrollment settings
type SenderConfig struct {
	// DefaultBalance is the quota granted on enrollment. Zero is valid
	// and creates a disabled account.
	DefaultBalance int `yaml:"default_balance"`
}

// ProviderConfig holds delivery provider API settings
type ProviderConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the provider HTTP timeout as a duration
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// DKIMConfig holds optional domain signing material. Signing
// instructions are attached to outbound messages only when both values
// are present and the sender address yields a domain.
type DKIMConfig struct {
	PrivateKey string `yaml:"private_key"`
	Selector   string `yaml:"selector"`
}

// BlocklistConfig holds the dynamic recipient block list settings
type BlocklistConfig struct {
	SettingKey      string `yaml:"setting_key"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

// CacheTTL returns the block list cache TTL as a duration
func (b BlocklistConfig) CacheTTL() time.Duration {
	return time.Duration(b.CacheTTLSeconds) * time.Second
}

// SMTPProxyConfig holds settings for the SMTP front-end binary
type SMTPProxyConfig struct {
	Addr       string `yaml:"addr"`
	Domain     string `yaml:"domain"`
	GatewayURL string `yaml:"gateway_url"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets
// can live in .env locally and in real env vars in deployment. The
// config file is optional: with no file, the config is built from
// defaults plus env vars alone.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	var cfg *Config
	if _, err := os.Stat(path); err == nil {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = &Config{}
		cfg.setDefaults()
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("DEFAULT_SEND_BALANCE"); v != "" {
		if balance, err := strconv.Atoi(v); err == nil {
			cfg.Sender.DefaultBalance = balance
		}
	}
	if v := os.Getenv("PROVIDER_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("DKIM_PRIVATE_KEY"); v != "" {
		cfg.DKIM.PrivateKey = v
	}
	if v := os.Getenv("DKIM_SELECTOR"); v != "" {
		cfg.DKIM.Selector = v
	}
	if v := os.Getenv("SMTP_PROXY_ADDR"); v != "" {
		cfg.SMTPProxy.Addr = v
	}
	if v := os.Getenv("SMTP_PROXY_GATEWAY_URL"); v != "" {
		cfg.SMTPProxy.GatewayURL = v
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://api.mailchannels.net/tx/v1"
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = 30
	}
	if c.Blocklist.SettingKey == "" {
		c.Blocklist.SettingKey = "send_block_list"
	}
	if c.Blocklist.CacheTTLSeconds == 0 {
		c.Blocklist.CacheTTLSeconds = 30
	}
	if c.SMTPProxy.Addr == "" {
		c.SMTPProxy.Addr = ":8025"
	}
	if c.SMTPProxy.Domain == "" {
		c.SMTPProxy.Domain = "localhost"
	}
	if c.SMTPProxy.GatewayURL == "" {
		c.SMTPProxy.GatewayURL = "http://localhost:8080"
	}
}
