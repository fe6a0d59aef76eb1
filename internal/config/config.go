package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
		Env     string `yaml:"env"`
		SiteURL string `yaml:"site_url"`
		Debug   bool   `yaml:"debug"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres, sqlite
		DSN    string `yaml:"url"`
	} `yaml:"database"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		UseTLS       bool   `yaml:"use_tls"`
		Disabled     bool   `yaml:"disabled"`
	} `yaml:"email"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
		Issuer string `yaml:"issuer"`
	} `yaml:"jwt"`

	Queue struct {
		Backend  string `yaml:"backend"` // memory, redis
		RedisURL string `yaml:"redis_url"`
		Key      string `yaml:"key"`
		Workers  int    `yaml:"workers"`
		Buffer   int    `yaml:"buffer"`
	} `yaml:"queue"`

	Scheduler struct {
		AggregatesSpec string `yaml:"aggregates_spec"`
	} `yaml:"scheduler"`

	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	I18n struct {
		DefaultLanguage string            `yaml:"default_language"`
		Languages       map[string]string `yaml:"languages"`
	} `yaml:"i18n"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

// DefaultLanguages is used when the config file does not list any.
var DefaultLanguages = map[string]string{
	"en-us": "English (US)",
	"de":    "Deutsch",
	"fr":    "Français",
	"da":    "Dansk",
	"ja":    "日本語",
	"pt-br": "Português (do Brasil)",
	"zh-tw": "正體中文 (繁體)",
}

// Load reads .env (if any), then the YAML file, or the environment when DATABASE_URL is set.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	var cfg Config
	if os.Getenv("DATABASE_URL") == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("open config file %s: %w", configPath, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	} else {
		fromEnv(&cfg)
	}

	applyDefaults(&cfg)
	AppConfig = &cfg
	return &cfg, nil
}

func fromEnv(cfg *Config) {
	cfg.Database.DSN = os.Getenv("DATABASE_URL")
	cfg.Database.Driver = os.Getenv("DATABASE_DRIVER")
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Host = os.Getenv("SERVER_HOST")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.Server.SiteURL = os.Getenv("SITE_URL")
	cfg.Server.Debug, _ = strconv.ParseBool(os.Getenv("DEBUG"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL, _ = strconv.Atoi(os.Getenv("JWT_TTL"))

	cfg.Email.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.Email.SMTPPort, _ = strconv.Atoi(os.Getenv("SMTP_PORT"))
	cfg.Email.SMTPUsername = os.Getenv("SMTP_USER")
	cfg.Email.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.Email.FromEmail = os.Getenv("SMTP_FROM")
	cfg.Email.Disabled = cfg.Email.SMTPHost == ""

	cfg.Queue.Backend = os.Getenv("QUEUE_BACKEND")
	cfg.Queue.RedisURL = os.Getenv("REDIS_URL")

	cfg.FirstAdminEmail = os.Getenv("FIRST_ADMIN_EMAIL")
	cfg.FirstAdminPassword = os.Getenv("FIRST_ADMIN_PASSWORD")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Server.SiteURL == "" {
		cfg.Server.SiteURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	cfg.Server.SiteURL = strings.TrimRight(cfg.Server.SiteURL, "/")
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 60 * 24
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "addons"
	}
	if cfg.Email.FromEmail == "" {
		cfg.Email.FromEmail = "nobody@addons.localhost"
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Queue.Backend == "" {
		cfg.Queue.Backend = "memory"
	}
	if cfg.Queue.Key == "" {
		cfg.Queue.Key = "addons:tasks"
	}
	if cfg.Queue.Workers == 0 {
		cfg.Queue.Workers = 4
	}
	if cfg.Queue.Buffer == 0 {
		cfg.Queue.Buffer = 256
	}
	if cfg.Scheduler.AggregatesSpec == "" {
		cfg.Scheduler.AggregatesSpec = "@hourly"
	}
	if cfg.RateLimit.RPS == 0 {
		cfg.RateLimit.RPS = 1
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 5
	}
	if cfg.I18n.DefaultLanguage == "" {
		cfg.I18n.DefaultLanguage = "en-US"
	}
	if len(cfg.I18n.Languages) == 0 {
		cfg.I18n.Languages = DefaultLanguages
	}
}

// TokenTTL returns the JWT lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.TTL) * time.Minute
}

// GetConfig returns the loaded config, loading it on first use.
func GetConfig() *Config {
	if AppConfig == nil {
		cfg, err := Load()
		if err != nil {
			panic(err)
		}
		return cfg
	}
	return AppConfig
}
