package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Export   ExportConfig   `yaml:"export"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	ExpireHour    int    `yaml:"expire_hour"`
	AdminUsername string `yaml:"admin_username"`
	AdminPassword string `yaml:"admin_password"`
}

// PipelineConfig controls the improvement cycle defaults.
type PipelineConfig struct {
	WindowDays       int     `yaml:"window_days"`        // lookback window for a cycle
	MinSampleSize    int     `yaml:"min_sample_size"`    // rated records needed before a category can be flagged
	RatingThreshold  float64 `yaml:"rating_threshold"`   // mean rating below this flags a category
	QualityThreshold float64 `yaml:"quality_threshold"`  // 0 disables the normalized-score gate
	Schedule         string  `yaml:"schedule"`           // cron expression; empty disables scheduled runs
	TrendDays        int     `yaml:"trend_days"`         // daily trend window for analytics
}

type ExportConfig struct {
	Dir           string `yaml:"dir"`
	DefaultFormat string `yaml:"default_format"` // bedrock_jsonl, openai_chat, json, csv, sqlite
	SystemPrompt  string `yaml:"system_prompt"`  // system message for openai_chat exports
}

type LogConfig struct {
	Level string `yaml:"level"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := *DefaultConfig()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "feedbackforge.db",
		},
		Auth: AuthConfig{
			JWTSecret:     "feedbackforge-secret-key-change-in-production",
			ExpireHour:    24,
			AdminUsername: "admin",
			AdminPassword: "admin123",
		},
		Pipeline: PipelineConfig{
			WindowDays:      7,
			MinSampleSize:   5,
			RatingThreshold: 3.0,
			TrendDays:       7,
		},
		Export: ExportConfig{
			Dir:           "datasets",
			DefaultFormat: "bedrock_jsonl",
			SystemPrompt:  "You are a helpful AI assistant.",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if pass := os.Getenv("ADMIN_PASSWORD"); pass != "" {
		c.Auth.AdminPassword = pass
	}
	if dir := os.Getenv("EXPORT_DIR"); dir != "" {
		c.Export.Dir = dir
	}
	if format := os.Getenv("EXPORT_FORMAT"); format != "" {
		c.Export.DefaultFormat = format
	}
	if schedule := os.Getenv("PIPELINE_SCHEDULE"); schedule != "" {
		c.Pipeline.Schedule = schedule
	}
	if days := os.Getenv("PIPELINE_WINDOW_DAYS"); days != "" {
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			c.Pipeline.WindowDays = n
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
