package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// ProviderTextract AWS Textract
	ProviderTextract = "textract"
	// ProviderClaude Anthropic Claude Vision
	ProviderClaude = "claude"
)

// Config アプリケーション全体の設定
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Classifier ClassifierConfig `yaml:"classifier"`
	AWS        AWSConfig        `yaml:"aws"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Redis      RedisConfig      `yaml:"redis"`
	MySQL      MySQLConfig      `yaml:"mysql"`
}

// ServerConfig HTTPゲートウェイの設定
type ServerConfig struct {
	// RejectInvalidInput trueの場合、不正な入力を500ではなく400で返す
	RejectInvalidInput bool  `yaml:"reject_invalid_input"`
	MaxBodyBytes       int64 `yaml:"max_body_bytes"`
}

// ClassifierConfig 文字認識プロバイダーの選択
type ClassifierConfig struct {
	Provider string `yaml:"provider"`
}

// AWSConfig AWS Textractの設定
type AWSConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	Endpoint        string `yaml:"endpoint"`
	// MaxAttempts 1の場合はリトライしない
	MaxAttempts    int `yaml:"max_attempts"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// AnthropicConfig Anthropic APIの設定
type AnthropicConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	// BaseURL 空の場合はSDKの既定エンドポイント
	BaseURL string `yaml:"base_url"`
}

// RedisConfig Redisの設定
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// MySQLConfig MySQLの設定
type MySQLConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// Load 設定ファイルを読み込む
func Load(configPath string) (*Config, error) {
	// 設定ファイルが存在しない場合はデフォルト設定を返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 環境変数の展開
	dataStr := os.ExpandEnv(string(data))

	// ファイルに書かれていない項目はデフォルト値のまま
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(dataStr), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig デフォルト設定を返す
func DefaultConfig() *Config {
	// Redis/MySQLのホストはテスト環境では localhost を使用
	redisHost := "redis"
	mysqlHost := "mysql"
	if os.Getenv("GO_ENV") == "test" {
		redisHost = "localhost"
		mysqlHost = "localhost"
	}

	provider := os.Getenv("OCR_PROVIDER")
	if provider == "" {
		provider = ProviderTextract
	}

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}

	return &Config{
		Server: ServerConfig{
			RejectInvalidInput: false,
			MaxBodyBytes:       16 << 20,
		},
		Classifier: ClassifierConfig{
			Provider: provider,
		},
		AWS: AWSConfig{
			Region:          region,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Endpoint:        os.Getenv("AWS_ENDPOINT_URL_TEXTRACT"),
			MaxAttempts:     1,
			TimeoutSeconds:  0,
		},
		Anthropic: AnthropicConfig{
			APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
			Model:     "claude-haiku-4-5-20251001",
			MaxTokens: 4096,
			BaseURL:   os.Getenv("ANTHROPIC_BASE_URL"),
		},
		Redis: RedisConfig{
			Enabled:    false,
			Host:       redisHost,
			Port:       6379,
			Password:   "",
			DB:         0,
			TTLSeconds: 24 * 60 * 60,
		},
		MySQL: MySQLConfig{
			Enabled:  false,
			Host:     mysqlHost,
			Port:     3306,
			User:     "root",
			Password: os.Getenv("MYSQL_ROOT_PASSWORD"),
			Database: "ocr",
		},
	}
}

// Validate 設定値を検証
func (c *Config) Validate() error {
	switch c.Classifier.Provider {
	case ProviderTextract, ProviderClaude:
	default:
		return fmt.Errorf("unknown classifier provider: %q", c.Classifier.Provider)
	}

	if c.AWS.MaxAttempts < 1 {
		return errors.New("aws.max_attempts must be at least 1")
	}

	if c.AWS.TimeoutSeconds < 0 {
		return errors.New("aws.timeout_seconds must not be negative")
	}

	if c.Redis.TTLSeconds < 0 {
		return errors.New("redis.ttl_seconds must not be negative")
	}

	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}

	return nil
}
