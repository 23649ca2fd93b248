// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Admin         AdminConfig         `mapstructure:"admin"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Tika          TikaConfig          `mapstructure:"tika"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	LLM           LLMConfig           `mapstructure:"llm"`
	RAG           RAGConfig           `mapstructure:"rag"`
	Conversation  ConversationConfig  `mapstructure:"conversation"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
}

// AdminConfig 存储管理员登录凭据（密码为 bcrypt 哈希）。
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// TikaConfig 存储 Tika 服务器相关的配置。
type TikaConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// ElasticsearchConfig 存储向量索引（Elasticsearch）相关的配置。
type ElasticsearchConfig struct {
	Addresses  string `mapstructure:"addresses"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	IndexName  string `mapstructure:"index_name"`
	VectorDims int    `mapstructure:"vector_dims"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置。
type EmbeddingConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	Dimensions     int    `mapstructure:"dimensions"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LLMConfig 存储大语言模型相关的配置。
type LLMConfig struct {
	APIKey         string              `mapstructure:"api_key"`
	BaseURL        string              `mapstructure:"base_url"`
	Model          string              `mapstructure:"model"`
	TimeoutSeconds int                 `mapstructure:"timeout_seconds"`
	Generation     LLMGenerationConfig `mapstructure:"generation"`
}

// LLMGenerationConfig 配置生成相关参数（可选）。
type LLMGenerationConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// RAGConfig 配置 RAG 流程的调优参数。
// 默认值：top_k=3，history_limit=5，阈值 0.7/0.4。
type RAGConfig struct {
	TopK             int     `mapstructure:"top_k"`
	HistoryLimit     int     `mapstructure:"history_limit"`
	HighConfidence   float64 `mapstructure:"high_confidence"`
	MediumConfidence float64 `mapstructure:"medium_confidence"`
	SystemPrompt     string  `mapstructure:"system_prompt"`
}

// ConversationConfig 配置会话存储的边界与过期策略。
type ConversationConfig struct {
	RecentLimit          int `mapstructure:"recent_limit"`
	InactivityMinutes    int `mapstructure:"inactivity_minutes"`
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes"`
}

// InactivityTTL 返回会话的不活跃过期时长。
func (c ConversationConfig) InactivityTTL() time.Duration {
	return time.Duration(c.InactivityMinutes) * time.Minute
}

// SweepInterval 返回后台清理任务的执行周期。
func (c ConversationConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// RateLimitConfig 配置基于 Redis 的请求限流。
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

// DefaultSystemPrompt 是 RAG 流程使用的固定系统指令。
const DefaultSystemPrompt = "You are a knowledge base assistant. Answer only from the provided context documents. " +
	"If the knowledge base does not contain the answer, say so explicitly. Never fabricate facts."

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}

// setDefaults 注册调优参数的参考默认值，配置文件缺省时生效。
func setDefaults() {
	viper.SetDefault("rag.top_k", 3)
	viper.SetDefault("rag.history_limit", 5)
	viper.SetDefault("rag.high_confidence", 0.7)
	viper.SetDefault("rag.medium_confidence", 0.4)
	viper.SetDefault("rag.system_prompt", DefaultSystemPrompt)

	viper.SetDefault("conversation.recent_limit", 10)
	viper.SetDefault("conversation.inactivity_minutes", 60)
	viper.SetDefault("conversation.sweep_interval_minutes", 15)

	viper.SetDefault("embedding.timeout_seconds", 30)
	viper.SetDefault("llm.timeout_seconds", 30)

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests_per_minute", 60)
}
