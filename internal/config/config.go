// Package config loads application configuration from a YAML file with
// environment variable overrides for secrets and deploy-time values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Email    EmailConfig    `yaml:"email"`
	Video    VideoConfig    `yaml:"video"`
	STT      STTConfig      `yaml:"stt"`
	Storage  StorageConfig  `yaml:"storage"`
	AI       AIConfig       `yaml:"ai"`
	Workers  WorkersConfig  `yaml:"workers"`
	App      AppConfig      `yaml:"app"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds Redis settings. An empty Addr disables Redis; the
// sweep locks then fall back to Postgres advisory locks.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// EmailConfig holds outbound email settings.
type EmailConfig struct {
	SESRegion string `yaml:"ses_region"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// VideoConfig holds meeting-provider OAuth credentials.
type VideoConfig struct {
	BaseURL      string `yaml:"base_url"`
	TokenURL     string `yaml:"token_url"`
	AccountID    string `yaml:"account_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// Enabled reports whether provider credentials are configured.
func (v VideoConfig) Enabled() bool {
	return v.ClientID != "" && v.ClientSecret != ""
}

// STTConfig holds speech-to-text fallback settings.
type STTConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// StorageConfig holds S3 settings for recording artifacts.
type StorageConfig struct {
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`
}

// AIConfig holds Bedrock analysis settings.
type AIConfig struct {
	Region  string `yaml:"region"`
	ModelID string `yaml:"model_id"`
}

// WorkersConfig holds sweep loop tuning.
type WorkersConfig struct {
	ReminderIntervalSeconds int `yaml:"reminder_interval_seconds"`
	ReminderBatchSize       int `yaml:"reminder_batch_size"`
	DeliveryIntervalSeconds int `yaml:"delivery_interval_seconds"`
	DeliveryBatchSize       int `yaml:"delivery_batch_size"`
}

// ReminderInterval returns the reminder sweep period.
func (w WorkersConfig) ReminderInterval() time.Duration {
	return time.Duration(w.ReminderIntervalSeconds) * time.Second
}

// DeliveryInterval returns the delivery drain period.
func (w WorkersConfig) DeliveryInterval() time.Duration {
	return time.Duration(w.DeliveryIntervalSeconds) * time.Second
}

// AppConfig holds product-level settings.
type AppConfig struct {
	// DetailBaseURL is the frontend origin used to build links in
	// summary emails.
	DetailBaseURL string `yaml:"detail_base_url"`
}

// Load reads configuration from the YAML file at path (optional), layers
// env overrides on top, and applies defaults. A .env file next to the
// binary is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database url is required (database.url or DATABASE_URL)")
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Email.SESRegion, "SES_REGION")
	setString(&c.Email.FromEmail, "EMAIL_FROM_ADDRESS")
	setString(&c.Email.FromName, "EMAIL_FROM_NAME")
	setString(&c.Video.AccountID, "VIDEO_ACCOUNT_ID")
	setString(&c.Video.ClientID, "VIDEO_CLIENT_ID")
	setString(&c.Video.ClientSecret, "VIDEO_CLIENT_SECRET")
	setString(&c.STT.APIKey, "STT_API_KEY")
	setString(&c.Storage.Bucket, "RECORDINGS_BUCKET")
	setString(&c.AI.ModelID, "BEDROCK_MODEL_ID")

	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Email.SESRegion == "" {
		c.Email.SESRegion = "us-east-1"
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "VerticalHire"
	}
	if c.Video.BaseURL == "" {
		c.Video.BaseURL = "https://api.zoom.us/v2"
	}
	if c.Video.TokenURL == "" {
		c.Video.TokenURL = "https://zoom.us/oauth/token"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "us-east-1"
	}
	if c.AI.Region == "" {
		c.AI.Region = "us-east-1"
	}
	if c.Workers.ReminderIntervalSeconds == 0 {
		c.Workers.ReminderIntervalSeconds = 300
	}
	if c.Workers.ReminderBatchSize == 0 {
		c.Workers.ReminderBatchSize = 100
	}
	if c.Workers.DeliveryIntervalSeconds == 0 {
		c.Workers.DeliveryIntervalSeconds = 30
	}
	if c.Workers.DeliveryBatchSize == 0 {
		c.Workers.DeliveryBatchSize = 50
	}
}
