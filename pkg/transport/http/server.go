package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/turtacn/eventflow/pkg/common/constants"
	"github.com/turtacn/eventflow/pkg/config"
	"github.com/turtacn/eventflow/pkg/domain/ingestion"
	"github.com/turtacn/eventflow/pkg/logger"
	"go.uber.org/zap"
)

// Server 保存摄取HTTP服务器实例 (Gin引擎) 及其配置
// Server holds the ingestion HTTP server instance (Gin engine) and its
// configuration.
type Server struct {
	engine *gin.Engine
	server *http.Server
	cfg    config.ServerConfig
}

// NewServer 使用Gin创建一个新的HTTP服务器实例，暴露spec.md §8的外部接口
// NewServer creates a new HTTP server instance using Gin, exposing the
// external interface: POST /events, GET /health, GET /metrics/summary,
// GET /.
func NewServer(cfg config.ServerConfig, ingestionSvc ingestion.Service) (*Server, error) {
	l := logger.L().With("component", "HTTPServer")

	if strings.ToLower(cfg.Mode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(GinLogger(l))
	engine.Use(gin.Recovery())

	SetupRouter(engine, ingestionSvc)
	l.Info("HTTP routes configured")

	address := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	if cfg.Port == 0 {
		address = fmt.Sprintf("%s:%d", cfg.Host, constants.DefaultAPIPort)
	}

	httpServer := &http.Server{
		Addr:           address,
		Handler:        engine,
		ReadTimeout:    time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.WriteTimeout) * time.Second,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	return &Server{engine: engine, server: httpServer, cfg: cfg}, nil
}

// ListenAndServe 启动HTTP服务器并阻塞直到服务器停止
// ListenAndServe starts the HTTP server and blocks until the server stops.
func (s *Server) ListenAndServe() error {
	l := logger.L().With("component", "HTTPServer", "address", s.server.Addr)
	l.Info("starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		l.Errorw("HTTP server failed to listen and serve", "error", err)
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown 优雅地关闭HTTP服务器
// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	l := logger.L().With("component", "HTTPServer")
	l.Info("attempting graceful shutdown of HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		l.Errorw("HTTP server graceful shutdown failed", "error", err)
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	l.Info("HTTP server shutdown gracefully")
	return nil
}

// Address 返回服务器正在监听的地址
// Address returns the address the server is listening on.
func (s *Server) Address() string {
	if s.server != nil {
		return s.server.Addr
	}
	return ""
}

// GinLogger 是一个使用zap进行日志记录的自定义Gin中间件
// GinLogger is a custom Gin middleware for logging using zap.
func GinLogger(l *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		rawQuery := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		fields := []interface{}{
			"status_code", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
		}
		if rawQuery != "" {
			fields = append(fields, "query", rawQuery)
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			fields = append(fields, "error", msg)
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			l.Errorw("HTTP request error", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			l.Warnw("HTTP request warning", fields...)
		default:
			l.Infow("HTTP request", fields...)
		}
	}
}
