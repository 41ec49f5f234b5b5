package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AIConfig selects the chat-completion backend for the board bot.
// Type is one of "anthropic", "openai" or "openai-compatible".
type AIConfig struct {
	Enable   bool   `yaml:"enable"`
	Type     string `yaml:"type"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BotName  string `yaml:"bot_name"`
}

// S3Config enables mirroring uploaded files to an S3-compatible bucket.
type S3Config struct {
	Enable          bool   `yaml:"enable"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type AppConfig struct {
	Port           int      `yaml:"port"`
	Env            string   `yaml:"env"`
	DSN            string   `yaml:"dsn"`
	RedisURL       string   `yaml:"redis_url"`
	JWTSecret      string   `yaml:"jwt_secret"`
	UploadsDir     string   `yaml:"uploads_dir"`
	LogsDir        string   `yaml:"logs_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	AI AIConfig `yaml:"ai"`
	S3 S3Config `yaml:"s3"`
}

func defaults() *AppConfig {
	return &AppConfig{
		Port:       3000,
		Env:        "development",
		DSN:        "board:board@tcp(127.0.0.1:3306)/board?charset=utf8mb4&parseTime=True&loc=Local",
		RedisURL:   "redis://127.0.0.1:6379/0",
		UploadsDir: "uploads",
		LogsDir:    "logs",
		AI: AIConfig{
			Type:    "openai-compatible",
			BotName: "GoldieRill",
		},
	}
}

// Load reads the YAML config at path, applying defaults for missing
// fields. A missing file is not an error; defaults plus environment
// overrides apply.
func Load(path string) (*AppConfig, error) {
	cfg := defaults()

	if raw, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if v := os.Getenv("BOARD_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("BOARD_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("BOARD_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("BOARD_AI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool { return c.Env != "production" }
