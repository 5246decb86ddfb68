package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/turtacn/eventflow/pkg/common/constants"
	"github.com/turtacn/eventflow/pkg/logger"
	"github.com/turtacn/eventflow/pkg/observability/metrics"
)

// MetricsServer 暴露独立于摄取端口的Prometheus /metrics端点 (spec.md §6)
// MetricsServer exposes the Prometheus /metrics endpoint on a port separate
// from the ingestion server.
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer 创建一个在给定端口上暴露/metrics的服务器
// NewMetricsServer creates a server exposing /metrics on the given port.
func NewMetricsServer(port int) *MetricsServer {
	if port == 0 {
		port = constants.DefaultMetricsPort
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.ExposeHandler())

	return &MetricsServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}
}

// ListenAndServe 启动指标服务器并阻塞直到它停止
// ListenAndServe starts the metrics server and blocks until it stops.
func (s *MetricsServer) ListenAndServe() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L().Errorw("metrics server failed to listen and serve", "error", err)
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// Shutdown 优雅地关闭指标服务器
// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Address 返回指标服务器正在监听的地址
// Address returns the address the metrics server is listening on.
func (s *MetricsServer) Address() string {
	return s.server.Addr
}
