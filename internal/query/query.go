// Package query filters, orders and pages parsed log events.
// Package query 对解析后的日志事件进行过滤、排序和分页。
package query

import (
	"sort"
	"strings"

	"github.com/livp123/proxylens/internal/parser"
)

// Filter is conjunctive: every non-empty field must match.
// Filter 为合取条件：每个非空字段都必须匹配。
type Filter struct {
	Level    parser.Level
	Type     parser.EventType
	Search   string
	RuleID   string
	UniqueID string
	Domain   string
}

// Apply returns the matching events newest first. The input is not modified.
// Apply 返回按时间倒序排列的匹配事件。输入不会被修改。
func Apply(events []parser.LogEvent, f Filter) []parser.LogEvent {
	search := strings.ToLower(f.Search)
	domain := strings.ToLower(f.Domain)

	out := make([]parser.LogEvent, 0, len(events))
	for i := range events {
		ev := &events[i]
		if f.Level != "" && ev.Level != f.Level {
			continue
		}
		if f.Type != "" && ev.Type != f.Type {
			continue
		}
		if domain != "" && ev.Domain != domain {
			continue
		}
		if f.RuleID != "" && (ev.WAFFields == nil || ev.RuleID != f.RuleID) {
			continue
		}
		if f.UniqueID != "" && (ev.WAFFields == nil || ev.UniqueID != f.UniqueID) {
			continue
		}
		if search != "" && !matchesSearch(ev, search) {
			continue
		}
		out = append(out, *ev)
	}
	SortNewestFirst(out)
	return out
}

// matchesSearch compares case-insensitively against message, source, ip and path.
func matchesSearch(ev *parser.LogEvent, lowered string) bool {
	return strings.Contains(strings.ToLower(ev.Message), lowered) ||
		strings.Contains(strings.ToLower(ev.Source), lowered) ||
		strings.Contains(strings.ToLower(ev.IP), lowered) ||
		strings.Contains(strings.ToLower(ev.Path), lowered)
}

// SortNewestFirst orders by timestamp descending, id ascending on ties.
func SortNewestFirst(events []parser.LogEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.After(events[j].Timestamp)
		}
		return events[i].ID < events[j].ID
	})
}

// Paginate returns events[offset:offset+limit], clamped to the slice. Callers
// detect a further page by asking for limit+1.
// Paginate 返回 events[offset:offset+limit]，并限制在切片范围内。调用方通过请求 limit+1 判断是否还有下一页。
func Paginate(events []parser.LogEvent, offset, limit int) []parser.LogEvent {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(events) {
		return []parser.LogEvent{}
	}
	end := offset + limit
	if end > len(events) || end < offset {
		end = len(events)
	}
	return events[offset:end]
}

// Page is one page of results plus whether another page exists.
type Page struct {
	Events  []parser.LogEvent `json:"logs"`
	HasMore bool              `json:"hasMore"`
}

// PageOf applies the limit+1 convention to an already filtered slice.
// PageOf 对已过滤的切片应用 limit+1 约定。
func PageOf(events []parser.LogEvent, offset, limit int) Page {
	probe := Paginate(events, offset, limit+1)
	if len(probe) > limit {
		return Page{Events: probe[:limit], HasMore: true}
	}
	return Page{Events: probe}
}
