package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/livp123/proxylens/internal/parser"
	pxerrors "github.com/livp123/proxylens/pkg/errors"
)

// Trend interval bounds in seconds.
const (
	MinTrendInterval = 5
	MaxTrendInterval = 60
)

// ClampInterval bounds a trend interval to [MinTrendInterval, MaxTrendInterval].
func ClampInterval(seconds int) int {
	return max(MinTrendInterval, min(seconds, MaxTrendInterval))
}

// InWindow keeps events at or after cutoff.
func InWindow(events []parser.LogEvent, cutoff time.Time) []parser.LogEvent {
	out := make([]parser.LogEvent, 0, len(events))
	for _, ev := range events {
		if !ev.Timestamp.Before(cutoff) {
			out = append(out, ev)
		}
	}
	return out
}

// BuildTrend buckets access events by interval. Buckets are ascending; only
// non-empty buckets are returned.
// BuildTrend 按时间间隔对访问事件分桶。桶按升序排列，仅返回非空桶。
func BuildTrend(events []parser.LogEvent, intervalSeconds int) []TrendBucket {
	interval := time.Duration(ClampInterval(intervalSeconds)) * time.Second
	buckets := make(map[int64]*TrendBucket)
	for i := range events {
		ev := &events[i]
		if ev.Kind != parser.KindAccess {
			continue
		}
		slot := ev.Timestamp.UTC().Truncate(interval)
		b, ok := buckets[slot.Unix()]
		if !ok {
			b = &TrendBucket{Timestamp: slot}
			buckets[slot.Unix()] = b
		}
		b.Total++
		switch ev.Status() {
		case 200:
			b.Status200++
		case 301:
			b.Status301++
		case 302:
			b.Status302++
		case 400:
			b.Status400++
		case 403:
			b.Status403++
		case 404:
			b.Status404++
		case 500:
			b.Status500++
		case 502:
			b.Status502++
		case 503:
			b.Status503++
		default:
			b.StatusOther++
		}
	}

	out := make([]TrendBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// RankAttacks groups WAF events by attack type and returns the top k by
// count, most recent first on ties.
// RankAttacks 按攻击类型分组 WAF 事件，返回按数量排序的前 k 个，数量相同时最近的优先。
func RankAttacks(events []parser.LogEvent, c *Classifier, k int) []AttackTypeStat {
	type acc struct {
		stat  AttackTypeStat
		rules map[string]struct{}
	}
	groups := make(map[string]*acc)
	for i := range events {
		ev := &events[i]
		if !ev.IsWAF() {
			continue
		}
		label := c.Classify(ev)
		g, ok := groups[label]
		if !ok {
			g = &acc{stat: AttackTypeStat{AttackType: label}, rules: make(map[string]struct{})}
			groups[label] = g
		}
		g.stat.Count++
		if parser.SeverityRank(ev.Severity) > parser.SeverityRank(g.stat.Severity) {
			g.stat.Severity = ev.Severity
		}
		if ev.Timestamp.After(g.stat.LastOccurred) {
			g.stat.LastOccurred = ev.Timestamp
		}
		if ev.RuleID != "" {
			g.rules[ev.RuleID] = struct{}{}
		}
	}

	out := make([]AttackTypeStat, 0, len(groups))
	for _, g := range groups {
		g.stat.RuleIDs = make([]string, 0, len(g.rules))
		for id := range g.rules {
			g.stat.RuleIDs = append(g.stat.RuleIDs, id)
		}
		sort.Strings(g.stat.RuleIDs)
		out = append(out, g.stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if !out[i].LastOccurred.Equal(out[j].LastOccurred) {
			return out[i].LastOccurred.After(out[j].LastOccurred)
		}
		return out[i].AttackType < out[j].AttackType
	})
	return topN(out, k)
}

// LatestEntries flattens WAF events newest first, capped to limit.
// LatestEntries 将 WAF 事件按最新优先展开，并限制为 limit 条。
func LatestEntries(events []parser.LogEvent, c *Classifier, limit int) []LatestAttackEntry {
	out := make([]LatestAttackEntry, 0, len(events))
	for i := range events {
		ev := &events[i]
		if !ev.IsWAF() {
			continue
		}
		domain := ev.Domain
		if domain == "" {
			domain = ev.Hostname
		}
		action := ActionLogged
		if ev.Blocked {
			action = ActionBlocked
		}
		out = append(out, LatestAttackEntry{
			ID:         ev.ID,
			Timestamp:  ev.Timestamp,
			AttackerIP: ev.IP,
			Domain:     domain,
			URLPath:    ev.Path,
			AttackType: c.Classify(ev),
			RuleID:     ev.RuleID,
			UniqueID:   ev.UniqueID,
			Severity:   ev.Severity,
			Action:     action,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return topN(out, limit)
}

// Periods accepted by per-IP analytics.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// PeriodDuration maps day|week|month to 24h/7d/30d.
func PeriodDuration(period string) (time.Duration, error) {
	switch period {
	case PeriodDay:
		return 24 * time.Hour, nil
	case PeriodWeek:
		return 7 * 24 * time.Hour, nil
	case PeriodMonth:
		return 30 * 24 * time.Hour, nil
	default:
		return 0, pxerrors.NewPeriodError(period)
	}
}

// BuildIPAnalytics counts requests, 4xx/5xx errors and attacks per client IP.
// A WAF event counts as both a request and an attack of its client IP.
// BuildIPAnalytics 按客户端 IP 统计请求、4xx/5xx 错误和攻击。WAF 事件同时计为该 IP 的请求和攻击。
func BuildIPAnalytics(access, waf []parser.LogEvent, k int) RequestAnalytics {
	entries := make(map[string]*IPAnalyticsEntry)
	get := func(ip string) *IPAnalyticsEntry {
		e, ok := entries[ip]
		if !ok {
			e = &IPAnalyticsEntry{IP: ip}
			entries[ip] = e
		}
		return e
	}
	seen := func(e *IPAnalyticsEntry, ts time.Time) {
		if ts.After(e.LastSeen) {
			e.LastSeen = ts
		}
	}

	for i := range access {
		ev := &access[i]
		if ev.IP == "" || ev.Kind != parser.KindAccess {
			continue
		}
		e := get(ev.IP)
		e.RequestCount++
		if ev.Status() >= 400 {
			e.ErrorCount++
		}
		seen(e, ev.Timestamp)
	}
	for i := range waf {
		ev := &waf[i]
		if ev.IP == "" || !ev.IsWAF() {
			continue
		}
		e := get(ev.IP)
		e.RequestCount++
		e.AttackCount++
		seen(e, ev.Timestamp)
	}

	result := RequestAnalytics{UniqueIPs: len(entries)}
	list := make([]IPAnalyticsEntry, 0, len(entries))
	for _, e := range entries {
		result.TotalRequests += e.RequestCount
		list = append(list, *e)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].RequestCount != list[j].RequestCount {
			return list[i].RequestCount > list[j].RequestCount
		}
		return list[i].IP < list[j].IP
	})
	result.TopIPs = topN(list, k)
	return result
}

// BuildAttackRatio compares the WAF line count with the access line count.
// The total is the larger of the two so attack+normal always equals total.
// BuildAttackRatio 比较 WAF 行数与访问行数。总数取二者较大值，使攻击数加正常数始终等于总数。
func BuildAttackRatio(accessCount, attackCount int) AttackRatioStats {
	accessCount = max(accessCount, 0)
	attackCount = max(attackCount, 0)
	total := max(accessCount, attackCount)
	stats := AttackRatioStats{
		TotalRequests:  total,
		AttackRequests: attackCount,
		NormalRequests: total - attackCount,
	}
	if total > 0 {
		stats.AttackPercentage = math.Round(float64(attackCount)/float64(total)*10000) / 100
	}
	return stats
}

// BuildStats counts events by level and type.
func BuildStats(events []parser.LogEvent) LogStats {
	var s LogStats
	for i := range events {
		s.Total++
		switch events[i].Level {
		case parser.LevelInfo:
			s.ByLevel.Info++
		case parser.LevelWarning:
			s.ByLevel.Warning++
		case parser.LevelError:
			s.ByLevel.Error++
		}
		switch events[i].Type {
		case parser.TypeAccess:
			s.ByType.Access++
		case parser.TypeError:
			s.ByType.Error++
		case parser.TypeSystem:
			s.ByType.System++
		}
	}
	return s
}

func topN[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}
