// Package api exposes the log and analytics queries as a read-only JSON API.
// Package api 以只读 JSON 接口的形式暴露日志与分析查询。
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/livp123/proxylens/internal/analytics"
	"github.com/livp123/proxylens/internal/app"
	"github.com/livp123/proxylens/internal/config"
	"github.com/livp123/proxylens/internal/logsource"
	"github.com/livp123/proxylens/internal/query"
	"github.com/livp123/proxylens/internal/store"
	"github.com/livp123/proxylens/internal/utils/logger"
	"go.uber.org/zap"
)

// LogService is the query surface the handlers need; *app.Service implements it.
// LogService 是处理器所需的查询接口；*app.Service 实现了它。
type LogService interface {
	PageParsedLogs(ctx context.Context, opts app.QueryOptions) query.Page
	GetLogStats(ctx context.Context) analytics.LogStats
	GetAvailableDomains(ctx context.Context) []store.DomainInfo
	GetRequestTrend(ctx context.Context, intervalSeconds int) []analytics.TrendBucket
	GetSlowRequests(ctx context.Context, limit int) []store.SlowRequestEntry
	GetLatestAttacks(ctx context.Context, limit int) []analytics.AttackTypeStat
	GetLatestNews(ctx context.Context, limit int) []analytics.LatestAttackEntry
	GetRequestAnalytics(ctx context.Context, period string) analytics.RequestAnalytics
	GetAttackRatio(ctx context.Context) analytics.AttackRatioStats
	ListLogFiles(ctx context.Context) []logsource.DomainLogFileSet
}

var _ LogService = (*app.Service)(nil)

// Server serves the API on the configured listen address.
// Server 在配置的监听地址上提供接口服务。
type Server struct {
	svc     LogService
	web     config.WebConfig
	metrics bool
	log     *zap.SugaredLogger

	mu      sync.Mutex
	server  *http.Server
	running bool
}

// NewServer creates a server. metricsEnabled mounts /metrics.
// NewServer 创建服务器。metricsEnabled 为 true 时挂载 /metrics。
func NewServer(svc LogService, web config.WebConfig, metricsEnabled bool, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = logger.Get(nil)
	}
	if web.Listen == "" {
		web.Listen = config.DefaultListenAddr
	}
	return &Server{svc: svc, web: web, metrics: metricsEnabled, log: log}
}

// Handler builds the routed, instrumented handler.
// Handler 构建带路由与监控的处理器。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /api/logs/stats", s.handleLogStats)
	mux.HandleFunc("GET /api/logs/files", s.handleLogFiles)
	mux.HandleFunc("GET /api/logs/domains", s.handleDomains)

	mux.HandleFunc("GET /api/analytics/trend", s.handleTrend)
	mux.HandleFunc("GET /api/analytics/slow", s.handleSlowRequests)
	mux.HandleFunc("GET /api/analytics/attacks", s.handleAttacks)
	mux.HandleFunc("GET /api/analytics/news", s.handleNews)
	mux.HandleFunc("GET /api/analytics/ips", s.handleIPAnalytics)
	mux.HandleFunc("GET /api/analytics/ratio", s.handleAttackRatio)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /version", s.handleVersion)
	if s.metrics {
		mux.Handle("GET /metrics", metricsHandler())
	}

	return s.withRequestContext(instrument(mux))
}

// Start listens in the background. It returns once the listener goroutine is running.
// Start 在后台监听，监听协程启动后即返回。
func (s *Server) Start(ctx context.Context) error {
	if !s.web.Enabled {
		s.log.Infof("ℹ️  HTTP API is disabled via config.")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("server already running")
	}

	s.server = &http.Server{
		Addr:              s.web.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	s.running = true

	srv := s.server
	go func() {
		s.log.Infof("🚀 API starting on http://%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("❌ API server error: %v", err)
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
// Stop 优雅地关闭服务器。
func (s *Server) Stop() error {
	s.mu.Lock()
	srv := s.server
	s.running = false
	s.server = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
