package api

import (
	"net/http"

	"github.com/livp123/proxylens/internal/app"
)

// handleLogs returns one page of parsed events: {"logs": [...], "hasMore": bool}.
// handleLogs 返回一页解析后的事件。
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := app.QueryOptions{
		Limit:    intParam(r, "limit", app.DefaultPageSize),
		Offset:   intParam(r, "offset", 0),
		Level:    q.Get("level"),
		Type:     q.Get("type"),
		Search:   q.Get("search"),
		Domain:   q.Get("domain"),
		RuleID:   q.Get("ruleId"),
		UniqueID: q.Get("uniqueId"),
	}
	writeJSON(w, s.svc.PageParsedLogs(r.Context(), opts))
}

// handleLogStats returns counts by level and type.
func (s *Server) handleLogStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.GetLogStats(r.Context()))
}

// handleLogFiles lists the discovered per-domain log files.
func (s *Server) handleLogFiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.ListLogFiles(r.Context()))
}

// handleDomains lists domains from the registry.
func (s *Server) handleDomains(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.GetAvailableDomains(r.Context()))
}

// handleTrend buckets requests; ?interval= is in seconds.
// handleTrend 对请求分桶；?interval= 单位为秒。
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.GetRequestTrend(r.Context(), intParam(r, "interval", 60)))
}

func (s *Server) handleSlowRequests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.GetSlowRequests(r.Context(), intParam(r, "limit", app.DefaultSlowLimit)))
}

func (s *Server) handleAttacks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.GetLatestAttacks(r.Context(), intParam(r, "limit", 0)))
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.GetLatestNews(r.Context(), intParam(r, "limit", 0)))
}

// handleIPAnalytics returns the per-IP view; ?period= is day, week or month.
// handleIPAnalytics 返回按 IP 视图；?period= 为 day、week 或 month。
func (s *Server) handleIPAnalytics(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "day"
	}
	writeJSON(w, s.svc.GetRequestAnalytics(r.Context(), period))
}

func (s *Server) handleAttackRatio(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.GetAttackRatio(r.Context()))
}
