package store

import (
	"context"
	"fmt"
	"time"

	pxerrors "github.com/livp123/proxylens/pkg/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of *pgxpool.Pool the store uses.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGStore reads the panel's performance_metrics and domains tables.
// PGStore 读取面板的 performance_metrics 和 domains 表。
type PGStore struct {
	pool *pgxpool.Pool
	q    querier
}

// Options configures the connection pool.
type Options struct {
	URL      string
	MaxConns int32
}

// NewPG opens a pool and verifies the connection.
// NewPG 打开连接池并验证连接。
func NewPG(ctx context.Context, opts Options) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, pxerrors.NewStoreError("ping", err)
	}

	return &PGStore{pool: pool, q: pool}, nil
}

// Close releases the pool.
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const slowRequestsQuery = `
	SELECT
		domain,
		AVG(response_time)::float8 AS avg_response_time,
		MAX(response_time)::float8 AS max_response_time,
		COUNT(*) AS request_count
	FROM performance_metrics
	WHERE timestamp >= $1
	GROUP BY domain
	ORDER BY avg_response_time DESC, domain
	LIMIT $2`

// SlowRequests returns domains ordered by average response time since the given instant.
// SlowRequests 返回自给定时刻起按平均响应时间排序的域名。
func (s *PGStore) SlowRequests(ctx context.Context, since time.Time, limit int) ([]SlowRequestEntry, error) {
	rows, err := s.q.Query(ctx, slowRequestsQuery, since, limit)
	if err != nil {
		return nil, pxerrors.NewStoreError("query slow requests", err)
	}
	defer rows.Close()

	entries := make([]SlowRequestEntry, 0, limit)
	for rows.Next() {
		var e SlowRequestEntry
		if err := rows.Scan(&e.Domain, &e.AvgResponseTime, &e.MaxResponseTime, &e.RequestCount); err != nil {
			return nil, pxerrors.NewStoreError("scan slow request row", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, pxerrors.NewStoreError("iterate slow requests", err)
	}
	return entries, nil
}

const domainsQuery = `
	SELECT name, status
	FROM domains
	ORDER BY name`

// Domains returns the registered domains.
// Domains 返回已注册的域名。
func (s *PGStore) Domains(ctx context.Context) ([]DomainInfo, error) {
	rows, err := s.q.Query(ctx, domainsQuery)
	if err != nil {
		return nil, pxerrors.NewStoreError("query domains", err)
	}
	defer rows.Close()

	domains := []DomainInfo{}
	for rows.Next() {
		var d DomainInfo
		if err := rows.Scan(&d.Name, &d.Status); err != nil {
			return nil, pxerrors.NewStoreError("scan domain row", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, pxerrors.NewStoreError("iterate domains", err)
	}
	return domains, nil
}
