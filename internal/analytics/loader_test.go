package analytics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/livp123/proxylens/internal/logsource"
	"github.com/livp123/proxylens/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeLog(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0600))
	return p
}

func newTestLoader(t *testing.T) (*Loader, string) {
	t.Helper()
	log := zap.NewNop().Sugar()
	root := t.TempDir()
	global := t.TempDir()
	globalAccess := writeLog(t, global, "access.log",
		`192.0.2.1 - - [10/Jan/2025:11:00:00 +0000] "GET / HTTP/1.1" 200 1 "-" "-"`,
		`not an access line`,
	)
	globalError := writeLog(t, global, "error.log",
		`2025/01/10 11:00:00 [error] 1#1: *1 ModSecurity: Access denied [id "942100"] [msg "SQL Injection Attack"] [client 198.51.100.9]`,
	)

	writeLog(t, root, "shop.example.com-access.log",
		`10.0.0.1 - - [10/Jan/2025:11:30:00 +0000] "GET /a HTTP/1.1" 404 1 "-" "-"`,
		`10.0.0.2 - - [10/Jan/2025:11:31:00 +0000] "GET /b HTTP/1.1" 200 1 "-" "-"`,
	)
	writeLog(t, root, "shop.example.com_ssl-access.log",
		`10.0.0.3 - - [10/Jan/2025:11:32:00 +0000] "POST /c HTTP/2.0" 500 1 "-" "-"`,
	)
	writeLog(t, root, "shop.example.com-error.log",
		`2025/01/10 11:33:00 [warn] 2#2: client: 10.0.0.1, upstream timed out`,
		`2025/01/10 11:34:00 [error] 2#2: ModSecurity: Warning. [id "941100"] [msg "XSS Attack"] [unique_id "U1"] [client 10.0.0.7]`,
	)

	sb := logsource.NewSandbox(root, log, globalAccess, globalError)
	d := logsource.NewDiscovery(sb, log)
	r := logsource.NewReader(sb, logsource.ReaderOptions{}, log)
	p := parser.New(parser.Options{Location: time.UTC, Logger: log})
	return NewLoader(d, r, p, LoaderOptions{GlobalAccessLog: globalAccess, GlobalErrorLog: globalError, Lines: 100}, log), root
}

// TestLoader_AccessEvents tests global and per-domain access logs are merged
// TestLoader_AccessEvents 测试全局与按域名的访问日志被合并
func TestLoader_AccessEvents(t *testing.T) {
	l, _ := newTestLoader(t)
	events := l.AccessEvents(context.Background())
	require.Len(t, events, 4)

	ids := map[string]bool{}
	domains := map[string]int{}
	for _, ev := range events {
		assert.Equal(t, parser.KindAccess, ev.Kind)
		assert.False(t, ids[ev.ID], "duplicate id %s", ev.ID)
		ids[ev.ID] = true
		domains[ev.Domain]++
	}
	assert.Equal(t, 3, domains["shop.example.com"])
	assert.Equal(t, 1, domains[""])
}

func TestLoader_WAFEvents(t *testing.T) {
	l, _ := newTestLoader(t)
	events := l.WAFEvents(context.Background())
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.True(t, ev.IsWAF())
	}
}

func TestLoader_DomainAndGrep(t *testing.T) {
	l, _ := newTestLoader(t)
	ctx := context.Background()

	events := l.Load(ctx, LoadQuery{Domain: "SHOP.example.com", Access: true, Errors: true})
	assert.Len(t, events, 5)

	events = l.Load(ctx, LoadQuery{Errors: true, Grep: `[unique_id "U1"]`})
	require.Len(t, events, 1)
	assert.Equal(t, "U1", events[0].UniqueID)
	assert.Equal(t, "shop.example.com", events[0].Domain)

	assert.Empty(t, l.Load(ctx, LoadQuery{Domain: "missing.com", Access: true}))
	assert.Empty(t, l.Load(ctx, LoadQuery{Domain: "../etc", Access: true}))
	assert.Len(t, l.Files(ctx), 1)
}

// TestLoader_FeedsAnalyzer tests the loader as an analytics source end to end
// TestLoader_FeedsAnalyzer 端到端测试加载器作为分析数据源
func TestLoader_FeedsAnalyzer(t *testing.T) {
	l, _ := newTestLoader(t)
	a := New(l, nil, Options{
		Window: 24 * time.Hour,
		Now:    func() time.Time { return time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC) },
		Logger: zap.NewNop().Sugar(),
	})
	ctx := context.Background()

	ratio := a.AttackRatio(ctx)
	assert.Equal(t, AttackRatioStats{TotalRequests: 4, AttackRequests: 2, NormalRequests: 2, AttackPercentage: 50}, ratio)

	attacks := a.LatestAttacks(ctx, 10)
	require.Len(t, attacks, 2)

	trend := a.RequestTrend(ctx, 60)
	total := 0
	for _, b := range trend {
		total += b.Total
	}
	assert.Equal(t, 4, total)
}
