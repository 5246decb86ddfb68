package constants

// ServiceName 服务名称
// ServiceName is the name of the service.
const ServiceName = "eventflow"

// ServiceVersion 服务版本 (可以使用 ldflags 在构建时注入)
// ServiceVersion is the version of the service (can be injected at build time using ldflags).
var ServiceVersion = "0.1.0-dev"

// DefaultAPIPort 摄取HTTP服务的默认端口
// DefaultAPIPort is the default port for the ingestion HTTP service.
const DefaultAPIPort = 8080

// DefaultMetricsPort Prometheus指标服务的默认端口，独立于摄取端口
// DefaultMetricsPort is the default port for the Prometheus metrics server, kept separate from the ingestion port.
const DefaultMetricsPort = 9091

// DefaultConfigPath 默认配置文件路径
// DefaultConfigPath is the default path for the configuration file.
const DefaultConfigPath = "./config/config.yaml"

// ContextKey 自定义Context键类型，以避免冲突
// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// ContextKeyCorrelationID 用于在Context中存储事件指纹，贯穿请求/worker处理链路
	// ContextKeyCorrelationID stores the event fingerprint used to correlate logs and traces.
	ContextKeyCorrelationID ContextKey = "correlation_id"

	// ContextKeyWorkerID 用于在Context中存储处理当前条目的worker编号
	// ContextKeyWorkerID stores the id of the worker processing the current entry.
	ContextKeyWorkerID ContextKey = "worker_id"
)

// DefaultTimeFormat 默认时间格式
// DefaultTimeFormat is the default time format used in the application.
const DefaultTimeFormat = "2006-01-02 15:04:05"

// HeaderCorrelationID 关联ID请求头名称；摄取路由不读取它，关联ID恒为事件指纹
// HeaderCorrelationID names the X-Correlation-ID header. The ingestion router does not read it; the correlation id is always the event fingerprint.
const HeaderCorrelationID = "X-Correlation-ID"

// 队列层默认值 (spec.md §6 configuration table)
// Queue layer defaults.
const (
	DefaultStreamName     = "event_queue"
	DefaultConsumerGroup  = "event_processors"
	DefaultIdleReclaimMs  = 60000
	DefaultBlockTimeoutMs = 5000
)

// Worker池默认值
// Worker pool defaults.
const (
	DefaultWorkerCount        = 3
	DefaultWorkerIDPrefix     = "worker"
	DefaultMaxRetries         = 3
	DefaultRetryBaseSeconds   = 2
	DefaultRetryMaxSeconds    = 10
	DefaultHighValueThreshold = 1000.0
)

// DefaultShutdownTimeoutSeconds 优雅停机的最大等待时间（秒）
// DefaultShutdownTimeoutSeconds bounds graceful shutdown (spec.md §5).
const DefaultShutdownTimeoutSeconds = 30

// DefaultMetricsSampleIntervalMs 队列深度/积压量表的采样周期
// DefaultMetricsSampleIntervalMs is the gauge-sampling cadence for queue depth/pending metrics.
const DefaultMetricsSampleIntervalMs = 5000
