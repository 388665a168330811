package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Chat      ChatConfig
	Providers ProvidersConfig
	Upstreams UpstreamsConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled     bool
	Host        string
	Port        int
	Password    string
	DB          int
	ReplyTTLMin int
}

type ChatConfig struct {
	MinResponseLength  int
	MaxTokens          int
	Temperature        float32
	CallTimeoutSec     int
	SessionIdleMin     int
	MaxMessageLength   int
	RateLimitPerMinute int
}

type ProviderConfig struct {
	ID         string
	Name       string
	Endpoint   string
	Models     []string
	DailyLimit int
}

type ProvidersConfig struct {
	Order    []string
	Registry []ProviderConfig
}

type UpstreamConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
}

type UpstreamsConfig struct {
	Groq        UpstreamConfig
	Together    UpstreamConfig
	OpenRouter  UpstreamConfig
	HuggingFace UpstreamConfig
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/wisdom-keeper")

	viper.SetEnvPrefix("WISDOM_KEEPER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Upstream keys keep their conventional env names.
	viper.BindEnv("upstreams.groq.apiKey", "GROQ_API_KEY")
	viper.BindEnv("upstreams.together.apiKey", "TOGETHER_API_KEY")
	viper.BindEnv("upstreams.openrouter.apiKey", "OPENROUTER_API_KEY")
	viper.BindEnv("upstreams.huggingface.apiKey", "HF_API_TOKEN")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("sqlite.path", "./data/wisdomkeeper.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.replyTTLMin", 60)

	viper.SetDefault("chat.minResponseLength", 10)
	viper.SetDefault("chat.maxTokens", 150)
	viper.SetDefault("chat.temperature", 0.7)
	viper.SetDefault("chat.callTimeoutSec", 12)
	viper.SetDefault("chat.sessionIdleMin", 30)
	viper.SetDefault("chat.maxMessageLength", 2000)
	viper.SetDefault("chat.rateLimitPerMinute", 60)

	viper.SetDefault("providers.order", []string{"groq", "together", "openrouter", "huggingface"})
	viper.SetDefault("providers.registry", []map[string]interface{}{
		{
			"id":         "groq",
			"name":       "Groq",
			"endpoint":   "http://localhost:8080/api/ai/groq",
			"models":     []string{"gemma2-9b-it"},
			"dailyLimit": 100,
		},
		{
			"id":         "together",
			"name":       "Together AI",
			"endpoint":   "http://localhost:8080/api/ai/together",
			"models":     []string{"togethercomputer/llama-2-7b-chat"},
			"dailyLimit": 200,
		},
		{
			"id":         "openrouter",
			"name":       "OpenRouter",
			"endpoint":   "http://localhost:8080/api/ai/openrouter",
			"models":     []string{"deepseek/deepseek-r1-0528-qwen3-8b:free", "nousresearch/nous-hermes-2-yi-34b:free"},
			"dailyLimit": 100,
		},
		{
			"id":         "huggingface",
			"name":       "Hugging Face",
			"endpoint":   "http://localhost:8080/api/ai/huggingface",
			"models":     []string{"microsoft/DialoGPT-medium"},
			"dailyLimit": 500,
		},
	})

	viper.SetDefault("upstreams.groq.baseURL", "https://api.groq.com/openai/v1")
	viper.SetDefault("upstreams.groq.defaultModel", "gemma2-9b-it")
	viper.SetDefault("upstreams.together.baseURL", "https://api.together.xyz/v1")
	viper.SetDefault("upstreams.together.defaultModel", "togethercomputer/llama-2-7b-chat")
	viper.SetDefault("upstreams.openrouter.baseURL", "https://openrouter.ai/api/v1")
	viper.SetDefault("upstreams.openrouter.defaultModel", "deepseek/deepseek-r1-0528-qwen3-8b:free")
	viper.SetDefault("upstreams.huggingface.baseURL", "https://api-inference.huggingface.co")
	viper.SetDefault("upstreams.huggingface.defaultModel", "microsoft/DialoGPT-medium")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
