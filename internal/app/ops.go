// Package app is the functional surface shared by the CLI and the HTTP API.
// Package app 是 CLI 与 HTTP 接口共享的功能入口。
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/livp123/proxylens/internal/analytics"
	"github.com/livp123/proxylens/internal/config"
	"github.com/livp123/proxylens/internal/logsource"
	"github.com/livp123/proxylens/internal/metrics"
	"github.com/livp123/proxylens/internal/parser"
	"github.com/livp123/proxylens/internal/query"
	"github.com/livp123/proxylens/internal/store"
	"github.com/livp123/proxylens/internal/utils/logger"
	"go.uber.org/zap"
)

// Limits on caller-supplied page and list sizes.
const (
	DefaultPageSize  = 100
	MaxPageSize      = 1000
	DefaultSlowLimit = 10
	MaxSlowLimit     = 100
)

// QueryOptions are the filters accepted by GetParsedLogs.
// QueryOptions 是 GetParsedLogs 接受的过滤条件。
type QueryOptions struct {
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
	Level    string `json:"level,omitempty"`
	Type     string `json:"type,omitempty"`
	Search   string `json:"search,omitempty"`
	Domain   string `json:"domain,omitempty"`
	RuleID   string `json:"ruleId,omitempty"`
	UniqueID string `json:"uniqueId,omitempty"`
}

// Deps overrides collaborators Service would otherwise build from config.
type Deps struct {
	Store  store.PerformanceStore
	Now    func() time.Time
	Logger *zap.SugaredLogger
}

// Service answers every log and analytics query from files read during the call.
// Every method fails closed: bad input, unreadable files and store errors all
// produce an empty result of the right shape.
// Service 基于调用期间读取的文件回答所有日志与分析查询。
// 所有方法均失败关闭：错误输入、不可读文件和存储错误都会返回形状正确的空结果。
type Service struct {
	loader     *analytics.Loader
	analyzer   *analytics.Analyzer
	store      store.PerformanceStore
	slowWindow time.Duration
	lines      int
	now        func() time.Time
	log        *zap.SugaredLogger
}

/**
 * NewService wires sandbox, discovery, reader, parsers and analytics from cfg.
 * An enabled store that cannot be reached is replaced by store.Disabled.
 * NewService 根据配置连接沙箱、发现、读取器、解析器和分析组件。
 * 无法连接的已启用存储会被 store.Disabled 替代。
 */
func NewService(ctx context.Context, cfg *config.GlobalConfig, deps Deps) (*Service, error) {
	if cfg == nil {
		def := config.DefaultGlobalConfig()
		cfg = &def
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := deps.Logger
	if log == nil {
		log = logger.Get(ctx)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	timeout, _ := cfg.Logs.Timeout()
	window, _ := cfg.Analytics.WindowDuration()
	slowWindow, _ := time.ParseDuration(cfg.Store.SlowRequestWindow)

	classifier, err := analytics.NewClassifier(cfg.Analytics.AttackRules)
	if err != nil {
		return nil, fmt.Errorf("failed to compile attack rules: %w", err)
	}

	sb := logsource.NewSandbox(cfg.Logs.Dir, log, cfg.Logs.GlobalAccessLog, cfg.Logs.GlobalErrorLog)
	reader := logsource.NewReader(sb, logsource.ReaderOptions{
		Timeout:        timeout,
		MaxBufferBytes: cfg.Logs.MaxBufferBytes(),
		MaxLines:       cfg.Logs.MaxLinesPerFile,
		BatchSize:      cfg.Logs.BatchSize,
	}, log)
	p := parser.New(parser.Options{
		WAFTimestampFallback: cfg.Analytics.WAFTimestampFallback,
		Now:                  now,
		Logger:               log,
	})
	loader := analytics.NewLoader(logsource.NewDiscovery(sb, log), reader, p, analytics.LoaderOptions{
		GlobalAccessLog: cfg.Logs.GlobalAccessLog,
		GlobalErrorLog:  cfg.Logs.GlobalErrorLog,
		Lines:           cfg.Logs.DefaultLines,
	}, log)
	analyzer := analytics.New(loader, classifier, analytics.Options{
		Window: window,
		TopK:   cfg.Analytics.TopK,
		Now:    now,
		Logger: log,
	})

	st := deps.Store
	if st == nil {
		st = openStore(ctx, cfg.Store, log)
	}

	return &Service{
		loader:     loader,
		analyzer:   analyzer,
		store:      st,
		slowWindow: slowWindow,
		lines:      cfg.Logs.DefaultLines,
		now:        now,
		log:        log,
	}, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.SugaredLogger) store.PerformanceStore {
	if !cfg.Enabled {
		return store.Disabled{}
	}
	pg, err := store.NewPG(ctx, store.Options{URL: cfg.DatabaseURL, MaxConns: cfg.MaxConns})
	if err != nil {
		log.Warnf("[WARN]  Performance store unavailable, slow requests and domains will be empty: %v", err)
		return store.Disabled{}
	}
	log.Infof("ℹ️  Connected to performance store")
	return pg
}

// Close releases the store connection.
func (s *Service) Close() {
	s.store.Close()
}

func (s *Service) guard(ctx context.Context, op string, reset func()) {
	if r := recover(); r != nil {
		metrics.OperationPanics.WithLabelValues(op).Inc()
		logger.Get(ctx).Errorw("[ERROR] Operation failed, returning empty result", "operation", op, "panic", r)
		reset()
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// buildFilter validates opts. ok is false when any filter value is invalid.
func buildFilter(opts QueryOptions) (query.Filter, bool) {
	f := query.Filter{Search: logsource.SanitizeSearch(opts.Search)}
	if opts.Level != "" {
		lvl := parser.Level(opts.Level)
		if !lvl.Valid() {
			return f, false
		}
		f.Level = lvl
	}
	if opts.Type != "" {
		typ := parser.EventType(opts.Type)
		if !typ.Valid() {
			return f, false
		}
		f.Type = typ
	}
	if opts.RuleID != "" {
		if logsource.ValidateRuleID(opts.RuleID) != nil {
			return f, false
		}
		f.RuleID = opts.RuleID
	}
	if opts.UniqueID != "" {
		if logsource.ValidateUniqueID(opts.UniqueID) != nil {
			return f, false
		}
		f.UniqueID = opts.UniqueID
	}
	if opts.Domain != "" && logsource.ValidateDomain(opts.Domain) != nil {
		return f, false
	}
	return f, true
}

// loadQuery picks the files and grep literal a filtered read needs.
func (s *Service) loadQuery(opts QueryOptions, f query.Filter, limit, offset int) analytics.LoadQuery {
	q := analytics.LoadQuery{
		Domain: opts.Domain,
		Access: f.Type == "" || f.Type == parser.TypeAccess,
		Errors: f.Type != parser.TypeAccess,
		Lines:  max(s.lines, offset+limit+1),
	}
	switch {
	case f.RuleID != "":
		q.Grep = fmt.Sprintf(`[id "%s"]`, f.RuleID)
	case f.UniqueID != "":
		q.Grep = fmt.Sprintf(`[unique_id "%s"]`, f.UniqueID)
	}
	return q
}

// PageParsedLogs returns one page of filtered events, newest first.
// PageParsedLogs 返回一页按时间倒序排列的过滤后事件。
func (s *Service) PageParsedLogs(ctx context.Context, opts QueryOptions) (page query.Page) {
	defer metrics.ObserveSince("logs", time.Now())
	empty := query.Page{Events: []parser.LogEvent{}}
	defer s.guard(ctx, "logs", func() { page = empty })

	limit, offset := clampPage(opts.Limit, opts.Offset)
	f, ok := buildFilter(opts)
	if !ok {
		logger.Get(ctx).Debugf("[DEBUG] Rejected log query filters: %+v", opts)
		return empty
	}
	events := s.loader.Load(ctx, s.loadQuery(opts, f, limit, offset))
	return query.PageOf(query.Apply(events, f), offset, limit)
}

// GetParsedLogs returns the events of one page.
// GetParsedLogs 返回一页事件。
func (s *Service) GetParsedLogs(ctx context.Context, opts QueryOptions) []parser.LogEvent {
	return s.PageParsedLogs(ctx, opts).Events
}

// GetLogStats counts the events currently readable from every log.
// GetLogStats 统计当前可从所有日志读取的事件。
func (s *Service) GetLogStats(ctx context.Context) (stats analytics.LogStats) {
	defer metrics.ObserveSince("stats", time.Now())
	defer s.guard(ctx, "stats", func() { stats = analytics.LogStats{} })
	return analytics.BuildStats(s.loader.Load(ctx, analytics.LoadQuery{Access: true, Errors: true}))
}

// GetAvailableDomains lists domains from the external registry.
// GetAvailableDomains 从外部注册表列出域名。
func (s *Service) GetAvailableDomains(ctx context.Context) (domains []store.DomainInfo) {
	defer metrics.ObserveSince("domains", time.Now())
	defer s.guard(ctx, "domains", func() { domains = []store.DomainInfo{} })
	out, err := s.store.Domains(ctx)
	if err != nil {
		logger.Get(ctx).Debugf("[DEBUG] Domain registry unavailable: %v", err)
		return []store.DomainInfo{}
	}
	return out
}

// GetSlowRequests returns the slowest domains over the configured window.
// GetSlowRequests 返回配置窗口内最慢的域名。
func (s *Service) GetSlowRequests(ctx context.Context, limit int) (entries []store.SlowRequestEntry) {
	defer metrics.ObserveSince("slow", time.Now())
	defer s.guard(ctx, "slow", func() { entries = []store.SlowRequestEntry{} })
	if limit <= 0 {
		limit = DefaultSlowLimit
	}
	limit = min(limit, MaxSlowLimit)
	out, err := s.store.SlowRequests(ctx, s.now().Add(-s.slowWindow), limit)
	if err != nil {
		logger.Get(ctx).Debugf("[DEBUG] Slow request metrics unavailable: %v", err)
		return []store.SlowRequestEntry{}
	}
	return out
}

// GetRequestTrend buckets access events by intervalSeconds.
func (s *Service) GetRequestTrend(ctx context.Context, intervalSeconds int) []analytics.TrendBucket {
	return s.analyzer.RequestTrend(ctx, intervalSeconds)
}

// GetLatestAttacks ranks attack types.
func (s *Service) GetLatestAttacks(ctx context.Context, limit int) []analytics.AttackTypeStat {
	return s.analyzer.LatestAttacks(ctx, limit)
}

// GetLatestNews lists the newest security events.
func (s *Service) GetLatestNews(ctx context.Context, limit int) []analytics.LatestAttackEntry {
	return s.analyzer.LatestNews(ctx, limit)
}

// GetRequestAnalytics returns the per-IP view for day, week or month.
func (s *Service) GetRequestAnalytics(ctx context.Context, period string) analytics.RequestAnalytics {
	return s.analyzer.RequestAnalytics(ctx, period)
}

// GetAttackRatio compares attack and normal traffic.
func (s *Service) GetAttackRatio(ctx context.Context) analytics.AttackRatioStats {
	return s.analyzer.AttackRatio(ctx)
}

// ListLogFiles lists the discovered per-domain log files.
// ListLogFiles 列出发现的按域名划分的日志文件。
func (s *Service) ListLogFiles(ctx context.Context) []logsource.DomainLogFileSet {
	return s.loader.Files(ctx)
}
