// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Webhook       WebhookConfig       `mapstructure:"webhook"`
	Stripe        StripeConfig        `mapstructure:"stripe"`
	Vapi          VapiConfig          `mapstructure:"vapi"`
	Discovery     DiscoveryConfig     `mapstructure:"discovery"`
	Usage         UsageConfig         `mapstructure:"usage"`
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
	RefreshTokenExpireDays int    `mapstructure:"refresh_token_expire_days"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
// SpendTopic 承载积分消费审计事件；AnalysisTopic 承载工作流引擎回写的人格分析结果。
type KafkaConfig struct {
	Brokers       string `mapstructure:"brokers"`
	SpendTopic    string `mapstructure:"spend_topic"`
	AnalysisTopic string `mapstructure:"analysis_topic"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// WebhookConfig 存储 n8n 工作流引擎相关的配置。
// APIKey 与 DiscoveryURL 仅作兜底，正式值优先从 system_settings 表读取。
type WebhookConfig struct {
	APIKey         string `mapstructure:"api_key"`
	DiscoveryURL   string `mapstructure:"discovery_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// StripeConfig 存储 Stripe 支付相关的配置。
type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	SuccessURL    string `mapstructure:"success_url"`
	CancelURL     string `mapstructure:"cancel_url"`
}

// VapiConfig 存储语音通话 SDK 相关的配置。
type VapiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// DiscoveryConfig 存储发现流程轮询相关的配置。
type DiscoveryConfig struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
	MaxAttempts         int `mapstructure:"max_attempts"`
	MaxElapsedSeconds   int `mapstructure:"max_elapsed_seconds"`
}

// UsageConfig 存储免费方案的初始额度配置。
type UsageConfig struct {
	FreeMessages     int     `mapstructure:"free_messages"`
	FreeVoiceMinutes float64 `mapstructure:"free_voice_minutes"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}
