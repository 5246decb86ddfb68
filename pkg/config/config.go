package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/turtacn/eventflow/pkg/common/constants"
	"github.com/turtacn/eventflow/pkg/logger"
	"github.com/turtacn/eventflow/pkg/observability/tracing"
)

// Config 应用配置结构体
// Config is the application configuration structure.
type Config struct {
	Server  ServerConfig   `mapstructure:"server" json:"server" yaml:"server"`
	Logger  logger.Config  `mapstructure:"logger" json:"logger" yaml:"logger"`
	Store   StoreConfig    `mapstructure:"store" json:"store" yaml:"store"`
	Queue   QueueConfig    `mapstructure:"queue" json:"queue" yaml:"queue"`
	Worker  WorkerConfig   `mapstructure:"worker" json:"worker" yaml:"worker"`
	Metrics MetricsConfig  `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
	Tracing tracing.Config `mapstructure:"tracing" json:"tracing" yaml:"tracing"`
}

// ServerConfig HTTP摄取服务相关配置
// ServerConfig holds ingestion HTTP server configurations.
type ServerConfig struct {
	Host            string `mapstructure:"host" json:"host" yaml:"host"`
	Port            int    `mapstructure:"port" json:"port" yaml:"port"`
	Mode            string `mapstructure:"mode" json:"mode" yaml:"mode"` // "debug", "release", "test"
	ReadTimeout     int    `mapstructure:"readTimeout" json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    int    `mapstructure:"writeTimeout" json:"writeTimeout" yaml:"writeTimeout"`
	MaxHeaderBytes  int    `mapstructure:"maxHeaderBytes" json:"maxHeaderBytes" yaml:"maxHeaderBytes"`
	ShutdownTimeout int    `mapstructure:"shutdownTimeout" json:"shutdownTimeout" yaml:"shutdownTimeout"` // 秒 seconds
}

// StoreConfig 持久化存储相关配置
// StoreConfig holds persistence store configurations.
type StoreConfig struct {
	Driver          string `mapstructure:"driver" json:"driver" yaml:"driver"` // 目前仅支持 "sqlite3" currently only "sqlite3"
	DSN             string `mapstructure:"dsn" json:"dsn" yaml:"dsn"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns" json:"maxOpenConns" yaml:"maxOpenConns"`
	ConnMaxIdleTime int    `mapstructure:"connMaxIdleTimeSec" json:"connMaxIdleTimeSec" yaml:"connMaxIdleTimeSec"`
}

// QueueConfig 队列层相关配置
// QueueConfig holds the Redis Streams queue configurations.
type QueueConfig struct {
	RedisURL       string `mapstructure:"redisUrl" json:"redisUrl" yaml:"redisUrl"`
	StreamName     string `mapstructure:"streamName" json:"streamName" yaml:"streamName"`
	ConsumerGroup  string `mapstructure:"consumerGroup" json:"consumerGroup" yaml:"consumerGroup"`
	IdleReclaimMs  int64  `mapstructure:"idleReclaimMs" json:"idleReclaimMs" yaml:"idleReclaimMs"`
	BlockTimeoutMs int64  `mapstructure:"blockTimeoutMs" json:"blockTimeoutMs" yaml:"blockTimeoutMs"`
}

// WorkerConfig worker池相关配置
// WorkerConfig holds worker pool configurations.
type WorkerConfig struct {
	Count              int     `mapstructure:"count" json:"count" yaml:"count"`
	IDPrefix           string  `mapstructure:"idPrefix" json:"idPrefix" yaml:"idPrefix"`
	MaxRetries         int     `mapstructure:"maxRetries" json:"maxRetries" yaml:"maxRetries"`
	RetryBaseSeconds   int     `mapstructure:"retryBaseSeconds" json:"retryBaseSeconds" yaml:"retryBaseSeconds"`
	RetryMaxSeconds    int     `mapstructure:"retryMaxSeconds" json:"retryMaxSeconds" yaml:"retryMaxSeconds"`
	HighValueThreshold float64 `mapstructure:"highValueThreshold" json:"highValueThreshold" yaml:"highValueThreshold"`
}

// MetricsConfig 指标服务相关配置
// MetricsConfig holds the standalone Prometheus metrics server configuration.
type MetricsConfig struct {
	Port                int   `mapstructure:"port" json:"port" yaml:"port"`
	SampleIntervalMs    int64 `mapstructure:"sampleIntervalMs" json:"sampleIntervalMs" yaml:"sampleIntervalMs"`
}

var (
	globalConfig *Config
	configOnce   sync.Once
)

// LoadConfig 加载配置信息
// LoadConfig loads configuration from file and environment variables.
// filePath: 配置文件路径 (可选，如果为空则尝试默认路径或只从环境变量加载)
// filePath: Path to the config file (optional, if empty, tries default path or loads only from env).
func LoadConfig(filePath ...string) (*Config, error) {
	var err error
	configOnce.Do(func() {
		v := viper.New()

		// 设置默认值
		// Set default values
		v.SetDefault("server.host", "0.0.0.0")
		v.SetDefault("server.port", constants.DefaultAPIPort)
		v.SetDefault("server.mode", "debug")
		v.SetDefault("server.readTimeout", 30)
		v.SetDefault("server.writeTimeout", 30)
		v.SetDefault("server.maxHeaderBytes", 1<<20)
		v.SetDefault("server.shutdownTimeout", constants.DefaultShutdownTimeoutSeconds)

		defaultLoggerCfg := logger.DefaultConfig()
		v.SetDefault("logger.level", defaultLoggerCfg.Level)
		v.SetDefault("logger.format", defaultLoggerCfg.Format)
		v.SetDefault("logger.outputPaths", defaultLoggerCfg.OutputPaths)
		v.SetDefault("logger.errorPaths", defaultLoggerCfg.ErrorPaths)
		v.SetDefault("logger.development", defaultLoggerCfg.Development)

		v.SetDefault("store.driver", "sqlite3")
		v.SetDefault("store.dsn", "file:eventflow.db?_journal=WAL&_fk=1")
		v.SetDefault("store.maxOpenConns", 2*constants.DefaultWorkerCount+4)
		v.SetDefault("store.connMaxIdleTimeSec", 300)

		v.SetDefault("queue.redisUrl", "redis://127.0.0.1:6379/0")
		v.SetDefault("queue.streamName", constants.DefaultStreamName)
		v.SetDefault("queue.consumerGroup", constants.DefaultConsumerGroup)
		v.SetDefault("queue.idleReclaimMs", constants.DefaultIdleReclaimMs)
		v.SetDefault("queue.blockTimeoutMs", constants.DefaultBlockTimeoutMs)

		v.SetDefault("worker.count", constants.DefaultWorkerCount)
		v.SetDefault("worker.idPrefix", constants.DefaultWorkerIDPrefix)
		v.SetDefault("worker.maxRetries", constants.DefaultMaxRetries)
		v.SetDefault("worker.retryBaseSeconds", constants.DefaultRetryBaseSeconds)
		v.SetDefault("worker.retryMaxSeconds", constants.DefaultRetryMaxSeconds)
		v.SetDefault("worker.highValueThreshold", constants.DefaultHighValueThreshold)

		v.SetDefault("metrics.port", constants.DefaultMetricsPort)
		v.SetDefault("metrics.sampleIntervalMs", constants.DefaultMetricsSampleIntervalMs)

		defaultTracingCfg := tracing.DefaultTracerConfig()
		v.SetDefault("tracing.enabled", defaultTracingCfg.Enabled)
		v.SetDefault("tracing.sampler", defaultTracingCfg.Sampler)
		v.SetDefault("tracing.sampleRatio", defaultTracingCfg.SampleRatio)
		v.SetDefault("tracing.serviceName", defaultTracingCfg.ServiceName)
		v.SetDefault("tracing.serviceVersion", defaultTracingCfg.ServiceVersion)

		// 设置配置文件路径和类型
		// Set config file path and type
		if len(filePath) > 0 && filePath[0] != "" {
			v.SetConfigFile(filePath[0])
		} else {
			v.SetConfigFile(constants.DefaultConfigPath)
		}
		v.SetConfigType("yaml")

		// 读取配置文件
		// Read config file
		if errRead := v.ReadInConfig(); errRead != nil {
			if _, ok := errRead.(viper.ConfigFileNotFoundError); ok {
				fmt.Printf("Config file not found or not specified, using defaults and environment variables. Path tried: %s\n", v.ConfigFileUsed())
			} else {
				err = fmt.Errorf("failed to read config file: %s, error: %w", v.ConfigFileUsed(), errRead)
				return
			}
		} else {
			fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
		}

		// 启用环境变量覆盖 (前缀 EVENTFLOW, 例如 EVENTFLOW_SERVER_PORT)
		// Enable environment variable overriding (prefix EVENTFLOW, e.g., EVENTFLOW_SERVER_PORT)
		v.SetEnvPrefix(strings.ToUpper(constants.ServiceName))
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		// 反序列化配置到结构体
		// Unmarshal config into struct
		var cfg Config
		if errUnmarshal := v.Unmarshal(&cfg); errUnmarshal != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", errUnmarshal)
			return
		}
		globalConfig = &cfg
	})

	if err != nil {
		return nil, err
	}
	if globalConfig == nil && err == nil {
		return nil, fmt.Errorf("configuration was not loaded but no error reported")
	}
	return globalConfig, nil
}

// GetConfig 返回已加载的全局配置实例
// GetConfig returns the loaded global configuration instance.
// 如果配置未加载，它会尝试使用默认路径加载。
// If config is not loaded, it will try to load with default path.
func GetConfig() *Config {
	if globalConfig == nil {
		_, _ = LoadConfig()
		if globalConfig == nil {
			return &Config{
				Server: ServerConfig{Port: constants.DefaultAPIPort, Mode: "debug"},
				Logger: *logger.DefaultConfig(),
				Store:  StoreConfig{Driver: "sqlite3", DSN: "file:eventflow.db"},
				Queue: QueueConfig{
					StreamName:    constants.DefaultStreamName,
					ConsumerGroup: constants.DefaultConsumerGroup,
				},
				Worker: WorkerConfig{
					Count:      constants.DefaultWorkerCount,
					MaxRetries: constants.DefaultMaxRetries,
				},
				Metrics: MetricsConfig{Port: constants.DefaultMetricsPort},
			}
		}
	}
	return globalConfig
}
