package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	pxerrors "github.com/livp123/proxylens/pkg/errors"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRows replays fixed rows; unused pgx.Rows methods panic through the nil embed.
type fakeRows struct {
	pgx.Rows
	rows   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: want %d columns, got %d", len(row), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *float64:
			*p = row[i].(float64)
		case *int64:
			*p = row[i].(int64)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     { r.closed = true }

type fakeQuerier struct {
	rows *fakeRows
	err  error
	sql  string
	args []any
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql = sql
	q.args = args
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

// TestSlowRequests tests scanning aggregated rows in query order
// TestSlowRequests 测试按查询顺序扫描聚合行
func TestSlowRequests(t *testing.T) {
	rows := &fakeRows{rows: [][]any{
		{"api.example.com", 812.5, 2400.0, int64(120)},
		{"shop.example.com", 95.0, 300.0, int64(4)},
	}}
	q := &fakeQuerier{rows: rows}
	s := &PGStore{q: q}

	since := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	got, err := s.SlowRequests(context.Background(), since, 10)
	require.NoError(t, err)
	assert.Equal(t, []SlowRequestEntry{
		{Domain: "api.example.com", AvgResponseTime: 812.5, MaxResponseTime: 2400, RequestCount: 120},
		{Domain: "shop.example.com", AvgResponseTime: 95, MaxResponseTime: 300, RequestCount: 4},
	}, got)
	assert.Equal(t, []any{since, 10}, q.args)
	assert.Contains(t, q.sql, "FROM performance_metrics")
	assert.True(t, rows.closed)
}

// TestSlowRequests_Errors tests query, scan and iteration failures are wrapped
// TestSlowRequests_Errors 测试查询、扫描与迭代错误均被包装
func TestSlowRequests_Errors(t *testing.T) {
	ctx := context.Background()

	s := &PGStore{q: &fakeQuerier{err: errors.New("connection refused")}}
	_, err := s.SlowRequests(ctx, time.Now(), 5)
	assert.ErrorIs(t, err, pxerrors.ErrStoreUnavailable)

	s = &PGStore{q: &fakeQuerier{rows: &fakeRows{rows: [][]any{{"only-domain"}}}}}
	_, err = s.SlowRequests(ctx, time.Now(), 5)
	assert.ErrorIs(t, err, pxerrors.ErrStoreUnavailable)

	s = &PGStore{q: &fakeQuerier{rows: &fakeRows{err: errors.New("conn reset")}}}
	_, err = s.SlowRequests(ctx, time.Now(), 5)
	assert.ErrorIs(t, err, pxerrors.ErrStoreUnavailable)
}

// TestDomains tests the domain registry read
// TestDomains 测试域名注册表读取
func TestDomains(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{rows: [][]any{
		{"a.example.com", "active"},
		{"b.example.com", "disabled"},
	}}}
	s := &PGStore{q: q}

	got, err := s.Domains(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []DomainInfo{
		{Name: "a.example.com", Status: "active"},
		{Name: "b.example.com", Status: "disabled"},
	}, got)
	assert.Empty(t, q.args)

	empty, err := (&PGStore{q: &fakeQuerier{rows: &fakeRows{}}}).Domains(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestDisabled(t *testing.T) {
	var s PerformanceStore = Disabled{}
	_, err := s.SlowRequests(context.Background(), time.Now(), 1)
	assert.ErrorIs(t, err, pxerrors.ErrStoreUnavailable)
	_, err = s.Domains(context.Background())
	assert.ErrorIs(t, err, pxerrors.ErrStoreUnavailable)
	s.Close()
}

func TestNewPG_BadURL(t *testing.T) {
	_, err := NewPG(context.Background(), Options{URL: "://not a url"})
	assert.Error(t, err)
}
