// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath     = "config.toml"
	DefaultHTTPAddr       = ":8080"
	DefaultJWTExpiresIn   = "24h"
	DefaultPGHost         = "127.0.0.1"
	DefaultPGPort         = 5432
	DefaultPGUser         = "postgres"
	DefaultPGDatabase     = "omnidesk"
	DefaultPGSSLMode      = "disable"
	DefaultRulesPath      = "rules.toml"
	DefaultPreviewLength  = 80
	DefaultSendTimeoutSec = 30
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Auth      AuthConfig      `toml:"auth"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Slack     SlackConfig     `toml:"slack"`
	Providers ProvidersConfig `toml:"providers"`
	Engine    EngineConfig    `toml:"engine"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// AuthConfig holds JWT secret and token expiry (e.g. 24h) for the operator API.
type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// SlackConfig holds the notification workspace credentials. Empty token
// disables notification dispatch (the engine falls back to a noop gateway).
type SlackConfig struct {
	BotToken string `toml:"bot_token"`
	Channel  string `toml:"channel"`
	APIBase  string `toml:"api_base"`
}

// ProvidersConfig groups outbound channel provider credentials.
type ProvidersConfig struct {
	Twilio   TwilioConfig   `toml:"twilio"`
	Meta     MetaConfig     `toml:"meta"`
	LinkedIn LinkedInConfig `toml:"linkedin"`
	Email    EmailConfig    `toml:"email"`
}

// TwilioConfig holds conversations-provider (SMS/LINE/WhatsApp) credentials.
type TwilioConfig struct {
	AccountSID string `toml:"account_sid"`
	AuthToken  string `toml:"auth_token"`
	FromNumber string `toml:"from_number"`
	BaseURL    string `toml:"base_url"`
}

// MetaConfig holds social-graph-provider (Facebook/Instagram DM) credentials.
type MetaConfig struct {
	PageAccessToken string `toml:"page_access_token"`
	BaseURL         string `toml:"base_url"`
}

// LinkedInConfig holds professional-network messaging credentials.
type LinkedInConfig struct {
	AccessToken string `toml:"access_token"`
	BaseURL     string `toml:"base_url"`
}

// EmailConfig selects and configures the outbound email transport.
// Provider is "mailgun" or "smtp".
type EmailConfig struct {
	Provider    string `toml:"provider"`
	FromAddress string `toml:"from_address"`

	MailgunDomain string `toml:"mailgun_domain"`
	MailgunAPIKey string `toml:"mailgun_api_key"`
	MailgunRegion string `toml:"mailgun_region"`

	SMTPHost     string `toml:"smtp_host"`
	SMTPPort     int    `toml:"smtp_port"`
	SMTPUsername string `toml:"smtp_username"`
	SMTPPassword string `toml:"smtp_password"`
}

// EngineConfig holds routing-engine tunables: the automation rules file,
// thread preview truncation length, and the provider send timeout.
type EngineConfig struct {
	RulesPath          string `toml:"rules_path"`
	PreviewLength      int    `toml:"preview_length"`
	SendTimeoutSeconds int    `toml:"send_timeout_seconds"`
}

// SendTimeout returns the bounded provider send timeout as a duration.
func (c EngineConfig) SendTimeout() time.Duration {
	secs := c.SendTimeoutSeconds
	if secs <= 0 {
		secs = DefaultSendTimeoutSec
	}
	return time.Duration(secs) * time.Second
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Providers: ProvidersConfig{
			Email: EmailConfig{
				Provider: "smtp",
				SMTPPort: 587,
			},
		},
		Engine: EngineConfig{
			RulesPath:          DefaultRulesPath,
			PreviewLength:      DefaultPreviewLength,
			SendTimeoutSeconds: DefaultSendTimeoutSec,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
