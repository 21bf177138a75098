// Package analytics computes time-windowed traffic and security views from
// freshly read log events.
// Package analytics 基于新读取的日志事件计算按时间窗口划分的流量与安全视图。
package analytics

import (
	"context"
	"time"

	"github.com/livp123/proxylens/internal/metrics"
	"github.com/livp123/proxylens/internal/utils/logger"
	"go.uber.org/zap"
)

// Defaults for Options.
const (
	DefaultWindow = 24 * time.Hour
	DefaultTopK   = 10
	MaxLimit      = 1000
)

// Options configures an Analyzer.
type Options struct {
	Window time.Duration
	TopK   int
	Now    func() time.Time
	Logger *zap.SugaredLogger
}

// Analyzer runs the analytics over events supplied by a Source. It holds no
// per-call state, so one Analyzer serves concurrent callers.
// Analyzer 对 Source 提供的事件执行分析。它不保存每次调用的状态，可被并发调用。
type Analyzer struct {
	src        Source
	classifier *Classifier
	window     time.Duration
	topK       int
	now        func() time.Time
	log        *zap.SugaredLogger
}

// New creates an Analyzer. A nil classifier uses the built-in keywords only.
func New(src Source, classifier *Classifier, opts Options) *Analyzer {
	a := &Analyzer{
		src:        src,
		classifier: classifier,
		window:     opts.Window,
		topK:       opts.TopK,
		now:        opts.Now,
		log:        opts.Logger,
	}
	if a.classifier == nil {
		a.classifier = &Classifier{}
	}
	if a.window <= 0 {
		a.window = DefaultWindow
	}
	if a.topK <= 0 {
		a.topK = DefaultTopK
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.log == nil {
		a.log = logger.Get(nil)
	}
	return a
}

func (a *Analyzer) cutoff(window time.Duration) time.Time {
	return a.now().Add(-window)
}

// protect turns a panic into a logged, zero-valued result.
func (a *Analyzer) protect(ctx context.Context, op string, reset func()) {
	if r := recover(); r != nil {
		metrics.OperationPanics.WithLabelValues(op).Inc()
		log := a.log
		if ctx != nil {
			if l, ok := ctx.Value(logger.LoggerKey).(*zap.SugaredLogger); ok {
				log = l
			}
		}
		log.Errorw("[ERROR] Analytics operation failed, returning empty result", "operation", op, "panic", r)
		reset()
	}
}

func (a *Analyzer) clampLimit(limit int) int {
	if limit <= 0 {
		return a.topK
	}
	return min(limit, MaxLimit)
}

// RequestTrend buckets in-window access events by intervalSeconds (clamped
// to [5,60]). No data yields an empty slice.
// RequestTrend 按 intervalSeconds（限制在 [5,60]）对窗口内访问事件分桶。无数据时返回空切片。
func (a *Analyzer) RequestTrend(ctx context.Context, intervalSeconds int) (out []TrendBucket) {
	defer metrics.ObserveSince("trend", time.Now())
	defer a.protect(ctx, "trend", func() { out = []TrendBucket{} })
	events := InWindow(a.src.AccessEvents(ctx), a.cutoff(a.window))
	return BuildTrend(events, intervalSeconds)
}

// LatestAttacks ranks in-window attack types.
// LatestAttacks 对窗口内的攻击类型排名。
func (a *Analyzer) LatestAttacks(ctx context.Context, limit int) (out []AttackTypeStat) {
	defer metrics.ObserveSince("attacks", time.Now())
	defer a.protect(ctx, "attacks", func() { out = []AttackTypeStat{} })
	events := InWindow(a.src.WAFEvents(ctx), a.cutoff(a.window))
	return RankAttacks(events, a.classifier, a.clampLimit(limit))
}

// LatestNews lists the newest in-window WAF events.
// LatestNews 列出窗口内最新的 WAF 事件。
func (a *Analyzer) LatestNews(ctx context.Context, limit int) (out []LatestAttackEntry) {
	defer metrics.ObserveSince("news", time.Now())
	defer a.protect(ctx, "news", func() { out = []LatestAttackEntry{} })
	events := InWindow(a.src.WAFEvents(ctx), a.cutoff(a.window))
	return LatestEntries(events, a.classifier, a.clampLimit(limit))
}

// RequestAnalytics returns the per-IP view for day|week|month. An unknown
// period yields an empty result.
// RequestAnalytics 返回 day|week|month 的按 IP 视图。未知周期返回空结果。
func (a *Analyzer) RequestAnalytics(ctx context.Context, period string) (out RequestAnalytics) {
	defer metrics.ObserveSince("ips", time.Now())
	empty := RequestAnalytics{TopIPs: []IPAnalyticsEntry{}, Period: period}
	defer a.protect(ctx, "ips", func() { out = empty })

	d, err := PeriodDuration(period)
	if err != nil {
		a.log.Debugf("[DEBUG] %v", err)
		return empty
	}
	cutoff := a.cutoff(d)
	out = BuildIPAnalytics(
		InWindow(a.src.AccessEvents(ctx), cutoff),
		InWindow(a.src.WAFEvents(ctx), cutoff),
		a.topK,
	)
	out.Period = period
	return out
}

// AttackRatio compares in-window WAF events with in-window access events.
// AttackRatio 比较窗口内的 WAF 事件与访问事件。
func (a *Analyzer) AttackRatio(ctx context.Context) (out AttackRatioStats) {
	defer metrics.ObserveSince("ratio", time.Now())
	defer a.protect(ctx, "ratio", func() { out = AttackRatioStats{} })
	cutoff := a.cutoff(a.window)
	access := InWindow(a.src.AccessEvents(ctx), cutoff)
	waf := InWindow(a.src.WAFEvents(ctx), cutoff)
	return BuildAttackRatio(len(access), len(waf))
}
