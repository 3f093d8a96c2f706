package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// AI 提供方
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// 会话存储驱动
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Store  StoreConfig
	Log    LogConfig
}

// SetDefaults 注册所有配置项的默认值。
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("ai_provider", ProviderOpenAI)
	v.SetDefault("openai_model", "gpt-4")
	v.SetDefault("ai_temperature", "0.7")
	v.SetDefault("ai_timeout", "60s")
	v.SetDefault("ark_base_url", "https://ark.cn-beijing.volces.com/api/v3")
	v.SetDefault("ark_region", "cn-beijing")
	v.SetDefault("store_driver", StoreSQLite)
	v.SetDefault("sqlite_path", "data/sessions.db")
	v.SetDefault("mongodb_database", "persona_chat")
	v.SetDefault("mongodb_collection", "sessions")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// Load 从全局 viper 实例（环境变量、命令行参数）加载配置。
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom 从指定的 viper 实例加载配置。
func LoadFrom(v *viper.Viper) (*Config, error) {
	server, err := loadServerConfig(v)
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig(v)
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig(v)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Store:  store,
		Log: LogConfig{
			Level:  getString(v, "log_level"),
			Format: getString(v, "log_format"),
		},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr      string
	StaticDir string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig(v *viper.Viper) (ServerConfig, error) {
	port := getString(v, "port")
	if port == "" {
		port = "3000"
	}

	staticDir := getString(v, "static_dir")

	if strings.Contains(port, ":") {
		// 允许直接传入 ":3000" 或 "127.0.0.1:3000"。
		return ServerConfig{Addr: port, StaticDir: staticDir}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, StaticDir: staticDir}, nil
}

// AIConfig 描述补全引擎相关配置。
type AIConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float64
	MaxTokens   *int
	Timeout     time.Duration
	Ark         ArkConfig
}

// ArkConfig 描述火山引擎 Ark 模型配置。
type ArkConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
}

// Enabled 表示当前提供方是否具备必需的凭证。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.Ark.Model != "" && (c.Ark.APIKey != "" || (c.Ark.AccessKey != "" && c.Ark.SecretKey != ""))
	case ProviderOpenAI:
		return c.APIKey != "" && c.Model != ""
	default:
		return false
	}
}

// NewChatModel 使用 Ark 配置创建一个 eino 模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider != ProviderArk || !c.Enabled() {
		return nil, errors.New("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.Ark.BaseURL,
		Region:      c.Ark.Region,
		APIKey:      c.Ark.APIKey,
		AccessKey:   c.Ark.AccessKey,
		SecretKey:   c.Ark.SecretKey,
		Model:       c.Ark.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig(v *viper.Viper) (AIConfig, error) {
	provider := strings.ToLower(getString(v, "ai_provider"))
	if provider != ProviderOpenAI && provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	temperature, err := parseOptionalFloat(v, "ai_temperature")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalInt(v, "ai_max_tokens")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDuration(v, "ai_timeout")
	if err != nil {
		return AIConfig{}, err
	}
	if timeout <= 0 {
		return AIConfig{}, fmt.Errorf("AI_TIMEOUT must be positive, got %s", timeout)
	}

	return AIConfig{
		Provider:    provider,
		APIKey:      getString(v, "openai_api_key"),
		Model:       getString(v, "openai_model"),
		BaseURL:     getString(v, "openai_base_url"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Timeout:     timeout,
		Ark: ArkConfig{
			APIKey:    getString(v, "ark_api_key"),
			AccessKey: getString(v, "ark_access_key"),
			SecretKey: getString(v, "ark_secret_key"),
			Model:     getString(v, "ark_model"),
			BaseURL:   getString(v, "ark_base_url"),
			Region:    getString(v, "ark_region"),
		},
	}, nil
}

// StoreConfig 描述会话存储配置。
type StoreConfig struct {
	Driver          string
	SQLitePath      string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

func loadStoreConfig(v *viper.Viper) (StoreConfig, error) {
	cfg := StoreConfig{
		Driver:          strings.ToLower(getString(v, "store_driver")),
		SQLitePath:      getString(v, "sqlite_path"),
		MongoURI:        getString(v, "mongodb_uri"),
		MongoDatabase:   getString(v, "mongodb_database"),
		MongoCollection: getString(v, "mongodb_collection"),
	}

	switch cfg.Driver {
	case StoreMemory:
	case StoreSQLite:
		if cfg.SQLitePath == "" {
			return StoreConfig{}, errors.New("SQLITE_PATH is required for the sqlite store")
		}
	case StoreMongo:
		if cfg.MongoURI == "" {
			return StoreConfig{}, errors.New("MONGODB_URI is required for the mongo store")
		}
	default:
		return StoreConfig{}, fmt.Errorf("invalid STORE_DRIVER value %q", cfg.Driver)
	}

	return cfg, nil
}

// LogConfig 描述日志输出配置。
type LogConfig struct {
	Level  string
	Format string
}

func getString(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func parseOptionalFloat(v *viper.Viper, key string) (*float64, error) {
	value := getString(v, key)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s value %q", strings.ToUpper(key), value)
	}
	return &val, nil
}

func parseOptionalInt(v *viper.Viper, key string) (*int, error) {
	value := getString(v, key)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s value %q", strings.ToUpper(key), value)
	}
	return &val, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value := getString(v, key)
	if value == "" {
		return 0, nil
	}

	// 纯数字按秒处理
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s value %q", strings.ToUpper(key), value)
	}
	return d, nil
}
