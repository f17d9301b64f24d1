package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/moodchat/backend/internal/model/chat"
	"github.com/zhouzirui/moodchat/backend/internal/service/classifier"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Gemini     GeminiConfig
	Ark        ArkConfig
	Local      LocalConfig
	Generation GenerationConfig
	Classifier ClassifierConfig
	Turn       chat.Settings
}

// Load 从环境变量加载配置。CONFIG_FILE 指向的 YAML 文件只补充环境变量中未设置的项。
func Load() (*Config, error) {
	src, err := newSource(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
	if err != nil {
		return nil, err
	}

	server, err := src.loadServerConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := src.loadLogConfig()
	if err != nil {
		return nil, err
	}

	arkCfg, err := src.loadArkConfig()
	if err != nil {
		return nil, err
	}

	generation, err := src.loadGenerationConfig()
	if err != nil {
		return nil, err
	}

	classifierCfg, err := src.loadClassifierConfig()
	if err != nil {
		return nil, err
	}

	turn, err := src.loadTurnConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:     server,
		Log:        logCfg,
		Gemini:     src.loadGeminiConfig(),
		Ark:        arkCfg,
		Local:      src.loadLocalConfig(),
		Generation: generation,
		Classifier: classifierCfg,
		Turn:       turn,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

func (s source) loadServerConfig() (ServerConfig, error) {
	port := s.getEnvOrDefault("PORT", "8080")

	if strings.Contains(port, ":") {
		// 允许直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig 描述日志级别与输出格式。
type LogConfig struct {
	Level  logrus.Level
	Format string
}

// NewLogger 创建各组件共用的基础日志器。
func (c LogConfig) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.Level)
	if c.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func (s source) loadLogConfig() (LogConfig, error) {
	rawLevel := s.getEnvOrDefault("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(rawLevel)
	if err != nil {
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q: %w", rawLevel, err)
	}

	format := strings.ToLower(s.getEnvOrDefault("LOG_FORMAT", "text"))
	if format != "text" && format != "json" {
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT value %q", format)
	}

	return LogConfig{Level: level, Format: format}, nil
}

// GeminiConfig 描述首选的 Gemini 生成后端。
type GeminiConfig struct {
	APIKey  string
	BaseURL string
}

// Enabled 表示是否提供了 API Key。
func (c GeminiConfig) Enabled() bool {
	return c.APIKey != ""
}

func (s source) loadGeminiConfig() GeminiConfig {
	return GeminiConfig{
		APIKey:  s.getEnvOrDefault("GEMINI_API_KEY", ""),
		BaseURL: s.getEnvOrDefault("GEMINI_BASE_URL", ""),
	}
}

// ArkConfig 描述可选的 Ark 模型，作为第二生成后端，也供 llm 分类器使用。
type ArkConfig struct {
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string
	TopP      *float64
}

// Enabled 表示是否提供了模型与必需的密钥。
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。温度与最大 token 数由每次调用指定。
func (c ArkConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_MODEL with ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
		TopP:      topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func (s source) loadArkConfig() (ArkConfig, error) {
	topP, err := s.parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return ArkConfig{}, err
	}

	return ArkConfig{
		APIKey:    s.getEnvOrDefault("ARK_API_KEY", ""),
		AccessKey: s.getEnvOrDefault("ARK_ACCESS_KEY", ""),
		SecretKey: s.getEnvOrDefault("ARK_SECRET_KEY", ""),
		Model:     s.getEnvOrDefault("ARK_MODEL", ""),
		BaseURL:   s.getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:    s.getEnvOrDefault("ARK_REGION", "cn-beijing"),
		TopP:      topP,
	}, nil
}

// LocalConfig 描述兜底使用的 OpenAI 兼容本地补全服务。
type LocalConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// Enabled 表示是否配置了服务地址。
func (c LocalConfig) Enabled() bool {
	return c.BaseURL != ""
}

func (s source) loadLocalConfig() LocalConfig {
	return LocalConfig{
		BaseURL: s.getEnvOrDefault("LOCAL_LLM_BASE_URL", ""),
		Model:   s.getEnvOrDefault("LOCAL_LLM_MODEL", "distilgpt2"),
		APIKey:  s.getEnvOrDefault("LOCAL_LLM_API_KEY", ""),
	}
}

// GenerationConfig 描述所有生成后端共用的参数。
type GenerationConfig struct {
	// Timeout 限制单次后端调用时长，0 表示不限制。
	Timeout time.Duration
}

func (s source) loadGenerationConfig() (GenerationConfig, error) {
	timeout, err := s.parseDurationEnv("GENERATION_TIMEOUT", 60*time.Second)
	if err != nil {
		return GenerationConfig{}, err
	}
	if timeout < 0 {
		return GenerationConfig{}, fmt.Errorf("invalid GENERATION_TIMEOUT value %q: must not be negative", timeout)
	}
	return GenerationConfig{Timeout: timeout}, nil
}

// ClassifierConfig 描述情感与情绪分类后端。
type ClassifierConfig struct {
	Provider       string
	Token          string
	InferenceURL   string
	SentimentModel string
	EmotionModel   string
	Timeout        time.Duration
}

func (s source) loadClassifierConfig() (ClassifierConfig, error) {
	token := s.getEnvOrDefault("HF_API_TOKEN", "")

	defaultProvider := classifier.ProviderLexicon
	if token != "" {
		defaultProvider = classifier.ProviderHuggingFace
	}

	timeout, err := s.parseDurationEnv("CLASSIFIER_TIMEOUT", 30*time.Second)
	if err != nil {
		return ClassifierConfig{}, err
	}

	return ClassifierConfig{
		Provider:       strings.ToLower(s.getEnvOrDefault("CLASSIFIER_PROVIDER", defaultProvider)),
		Token:          token,
		InferenceURL:   s.getEnvOrDefault("HF_INFERENCE_URL", classifier.DefaultInferenceURL),
		SentimentModel: s.getEnvOrDefault("HF_SENTIMENT_MODEL", classifier.DefaultSentimentModel),
		EmotionModel:   s.getEnvOrDefault("HF_EMOTION_MODEL", classifier.DefaultEmotionModel),
		Timeout:        timeout,
	}, nil
}

func (s source) loadTurnConfig() (chat.Settings, error) {
	settings := chat.Settings{
		Model:           s.getEnvOrDefault("GEMINI_MODEL", chat.DefaultModel),
		MaxOutputTokens: chat.DefaultMaxOutputTokens,
		Temperature:     chat.DefaultTemperature,
	}

	maxTokens, err := s.parseOptionalIntEnv("TURN_MAX_OUTPUT_TOKENS")
	if err != nil {
		return chat.Settings{}, err
	}
	if maxTokens != nil {
		settings.MaxOutputTokens = *maxTokens
	}

	temperature, err := s.parseOptionalFloatEnv("TURN_TEMPERATURE")
	if err != nil {
		return chat.Settings{}, err
	}
	if temperature != nil {
		settings.Temperature = *temperature
	}

	if err := settings.Validate(); err != nil {
		return chat.Settings{}, fmt.Errorf("invalid turn defaults: %w", err)
	}
	return settings, nil
}

// source 先查环境变量，再查可选的配置文件。
type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	if path == "" {
		return source{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("read config file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return source{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	file := make(map[string]string, len(values))
	for key, value := range values {
		if value == nil {
			continue
		}
		file[strings.ToUpper(key)] = fmt.Sprint(value)
	}
	return source{file: file}, nil
}

func (s source) lookup(key string) (string, bool) {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), true
	}
	value, ok := s.file[key]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func (s source) getEnvOrDefault(key, defaultValue string) string {
	if value, _ := s.lookup(key); value != "" {
		return value
	}
	return defaultValue
}

func (s source) parseOptionalFloatEnv(key string) (*float64, error) {
	value, _ := s.lookup(key)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func (s source) parseOptionalIntEnv(key string) (*int, error) {
	value, _ := s.lookup(key)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func (s source) parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value, _ := s.lookup(key)
	if value == "" {
		return defaultValue, nil
	}

	// 纯数字按秒处理。
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	val, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return val, nil
}
