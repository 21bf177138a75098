// Package store reads request performance metrics and the domain registry
// kept by the admin panel in PostgreSQL.
// Package store 读取管理面板保存在 PostgreSQL 中的请求性能指标和域名注册表。
package store

import (
	"context"
	"time"

	pxerrors "github.com/livp123/proxylens/pkg/errors"
)

// SlowRequestEntry aggregates response times of one domain.
// SlowRequestEntry 汇总单个域名的响应时间。
type SlowRequestEntry struct {
	Domain          string  `json:"domain"`
	AvgResponseTime float64 `json:"avgResponseTime"`
	MaxResponseTime float64 `json:"maxResponseTime"`
	RequestCount    int64   `json:"requestCount"`
}

// DomainInfo is one registered domain.
type DomainInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// PerformanceStore is the external source of slow-request metrics and domains.
// PerformanceStore 是慢请求指标和域名的外部来源。
type PerformanceStore interface {
	SlowRequests(ctx context.Context, since time.Time, limit int) ([]SlowRequestEntry, error)
	Domains(ctx context.Context) ([]DomainInfo, error)
	Close()
}

// Disabled is used when no database is configured; every call fails with
// ErrStoreUnavailable.
type Disabled struct{}

// SlowRequests implements PerformanceStore.
func (Disabled) SlowRequests(context.Context, time.Time, int) ([]SlowRequestEntry, error) {
	return nil, pxerrors.NewStoreError("slow_requests", pxerrors.ErrStoreUnavailable)
}

// Domains implements PerformanceStore.
func (Disabled) Domains(context.Context) ([]DomainInfo, error) {
	return nil, pxerrors.NewStoreError("domains", pxerrors.ErrStoreUnavailable)
}

// Close implements PerformanceStore.
func (Disabled) Close() {}
