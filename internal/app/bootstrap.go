package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/eventflow/pkg/adapter/monitoring"
	"github.com/turtacn/eventflow/pkg/adapter/queue"
	"github.com/turtacn/eventflow/pkg/adapter/store"
	"github.com/turtacn/eventflow/pkg/common/constants"
	"github.com/turtacn/eventflow/pkg/config"
	"github.com/turtacn/eventflow/pkg/domain/ingestion"
	"github.com/turtacn/eventflow/pkg/domain/worker"
	"github.com/turtacn/eventflow/pkg/logger"
	"github.com/turtacn/eventflow/pkg/observability/metrics"
	"github.com/turtacn/eventflow/pkg/observability/tracing"
	transporthttp "github.com/turtacn/eventflow/pkg/transport/http"
)

// Application 持有完整流水线的全部组件：队列、存储、worker池、摄取服务、HTTP服务器
// Application holds every component of the full pipeline: queue, store,
// worker pool, ingestion service, and the two HTTP servers (ingestion and
// metrics).
type Application struct {
	Cfg *config.Config

	queueClient   queue.Client
	dataStore     store.Store
	workerPool    *worker.Pool
	httpServer    *transporthttp.Server
	metricsSrv    *transporthttp.MetricsServer
	appMetrics    *metrics.AppMetrics
	poolCancel    context.CancelFunc
	samplerCancel context.CancelFunc
	poolDone      chan struct{}

	shutdownFuncs []func(ctx context.Context) error
}

// NewApplication 按依赖顺序装配队列、存储、度量、worker池、摄取服务与两个HTTP服务器
// NewApplication wires the queue, store, metrics, worker pool, ingestion
// service, and both HTTP servers in dependency order.
func NewApplication(cfg *config.Config) (*Application, error) {
	app := &Application{Cfg: cfg}

	if err := logger.InitGlobalLogger(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	l := logger.L()
	l.Info("logger initialized")

	tracerShutdown, err := tracing.InitTracerProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer provider: %w", err)
	}
	app.AddShutdownFunc(tracerShutdown)
	l.Info("tracer provider initialized")

	dataStore, err := store.New(store.Config{
		DSN:             cfg.Store.DSN,
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		ConnMaxIdleTime: time.Duration(cfg.Store.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open persistence store: %w", err)
	}
	app.dataStore = dataStore
	app.AddShutdownFunc(func(ctx context.Context) error { return dataStore.Close() })
	l.Info("persistence store opened")

	queueClient, err := queue.New(queue.Config{
		URL:        cfg.Queue.RedisURL,
		StreamName: cfg.Queue.StreamName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create queue client: %w", err)
	}
	app.queueClient = queueClient
	app.AddShutdownFunc(func(ctx context.Context) error { return queueClient.Close() })
	l.Info("queue client created")

	exporter, err := monitoring.NewPrometheusExporter()
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}
	appMetrics, err := metrics.NewAppMetrics(exporter)
	if err != nil {
		return nil, fmt.Errorf("failed to register application metrics: %w", err)
	}
	app.appMetrics = appMetrics
	l.Info("application metrics registered")

	processor := worker.NewProcessor(dataStore, appMetrics, worker.ProcessorConfig{
		WorkerID:           cfg.Worker.IDPrefix,
		HighValueThreshold: cfg.Worker.HighValueThreshold,
		Retry: worker.RetryConfig{
			MaxAttempts: cfg.Worker.MaxRetries,
			BaseSeconds: cfg.Worker.RetryBaseSeconds,
			MaxSeconds:  cfg.Worker.RetryMaxSeconds,
		},
	})
	app.workerPool = worker.NewPool(queueClient, processor, appMetrics, worker.PoolConfig{
		Count:            cfg.Worker.Count,
		IDPrefix:         cfg.Worker.IDPrefix,
		ConsumerGroup:    cfg.Queue.ConsumerGroup,
		BlockTimeout:     time.Duration(cfg.Queue.BlockTimeoutMs) * time.Millisecond,
		IdleReclaim:      time.Duration(cfg.Queue.IdleReclaimMs) * time.Millisecond,
		ShutdownDeadline: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
	})
	l.Info("worker pool assembled")

	ingestionSvc := ingestion.NewService(queueClient, dataStore, cfg.Queue.ConsumerGroup, appMetrics)

	httpServer, err := transporthttp.NewServer(cfg.Server, ingestionSvc)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}
	app.httpServer = httpServer
	app.AddShutdownFunc(func(ctx context.Context) error { return httpServer.Shutdown(ctx) })

	metricsSrv := transporthttp.NewMetricsServer(cfg.Metrics.Port)
	app.metricsSrv = metricsSrv
	app.AddShutdownFunc(func(ctx context.Context) error { return metricsSrv.Shutdown(ctx) })

	l.Info("application bootstrapped successfully")
	return app, nil
}

// AddShutdownFunc 添加一个在程序关闭时需要调用的清理函数
// AddShutdownFunc adds a cleanup function to be called when the application
// shuts down.
func (app *Application) AddShutdownFunc(f func(ctx context.Context) error) {
	app.shutdownFuncs = append(app.shutdownFuncs, f)
}

// Start 启动HTTP服务器、指标服务器与worker池，阻塞直至收到中断信号
// Start launches the ingestion HTTP server, the metrics server, and the
// worker pool, then blocks until an interrupt signal arrives.
func (app *Application) Start() error {
	l := logger.L()

	poolCtx, poolCancel := context.WithCancel(context.Background())
	app.poolCancel = poolCancel
	app.poolDone = make(chan struct{})
	go func() {
		defer close(app.poolDone)
		app.workerPool.Run(poolCtx)
	}()
	l.Info("worker pool started")

	sampleCtx, sampleCancel := context.WithCancel(context.Background())
	app.samplerCancel = sampleCancel
	go app.appMetrics.RunQueueSampleLoop(sampleCtx, app.queueClient, app.Cfg.Queue.ConsumerGroup,
		time.Duration(app.Cfg.Metrics.SampleIntervalMs)*time.Millisecond)

	go func() {
		if err := app.metricsSrv.ListenAndServe(); err != nil {
			l.Errorw("metrics server failed", "error", err)
		}
	}()
	l.Infow("metrics server starting", "address", app.metricsSrv.Address())

	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil {
			l.Fatalw("HTTP server failed to listen and serve", "error", err)
		}
	}()
	l.Infow("HTTP server starting", "address", app.httpServer.Address())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutdown signal received")
	return app.Shutdown()
}

// Shutdown 优雅地关闭应用程序：先停止采样并排空worker池，再按注册的逆序执行关闭函数
// （指标服务器、HTTP服务器、队列、存储、追踪）
// Shutdown gracefully stops the gauge sampler and drains the worker pool,
// then runs the shutdown funcs in reverse registration order (metrics
// server, HTTP server, queue, store, tracer), all within the configured
// deadline. The ingestion HTTP server keeps accepting requests while the
// pool drains.
func (app *Application) Shutdown() error {
	l := logger.L()
	deadline := time.Duration(app.Cfg.Server.ShutdownTimeout) * time.Second
	if deadline <= 0 {
		deadline = constants.DefaultShutdownTimeoutSeconds * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	if app.samplerCancel != nil {
		app.samplerCancel()
	}
	if app.poolCancel != nil {
		app.poolCancel()
		select {
		case <-app.poolDone:
		case <-shutdownCtx.Done():
			l.Warn("worker pool did not drain before shutdown deadline")
		}
	}

	for i := len(app.shutdownFuncs) - 1; i >= 0; i-- {
		if err := app.shutdownFuncs[i](shutdownCtx); err != nil {
			l.Errorw("error during shutdown function", "error", err)
		}
	}

	if err := logger.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "error syncing logger: %v\n", err)
	}

	l.Info("application shutdown complete")
	return nil
}
