package parser

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, 1, 10, 13, 0, 0, 0, time.UTC)

func newTestParser(fallback string) *Parser {
	return New(Options{
		Location:             time.UTC,
		WAFTimestampFallback: fallback,
		Now:                  func() time.Time { return fixedNow },
		Logger:               zap.NewNop().Sugar(),
	})
}

// TestAccess_Scenario tests the canonical combined-format line
// TestAccess_Scenario 测试标准 combined 格式行
func TestAccess_Scenario(t *testing.T) {
	p := newTestParser(FallbackNow)
	line := `203.0.113.5 - - [10/Jan/2025:12:00:00 +0000] "GET /health HTTP/1.1" 200 512 "-" "curl/8.0"`

	ev := p.Access(line, 0)
	require.NotNil(t, ev)
	assert.Equal(t, "203.0.113.5", ev.IP)
	assert.Equal(t, "GET", ev.Method)
	assert.Equal(t, "/health", ev.Path)
	assert.Equal(t, 200, ev.Status())
	assert.Equal(t, LevelInfo, ev.Level)
	assert.Equal(t, TypeAccess, ev.Type)
	assert.Equal(t, KindAccess, ev.Kind)
	assert.Equal(t, SourceNginx, ev.Source)
	assert.Equal(t, int64(512), ev.Bytes)
	assert.Equal(t, "curl/8.0", ev.UserAgent)
	assert.Empty(t, ev.Referer)
	assert.Equal(t, time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC), ev.Timestamp)
	assert.Equal(t, "access-0", ev.ID)
}

// TestAccess_Levels tests level derivation from the status code
// TestAccess_Levels 测试由状态码推导级别
func TestAccess_Levels(t *testing.T) {
	p := newTestParser(FallbackNow)
	tests := []struct {
		status string
		level  Level
	}{
		{"200", LevelInfo}, {"301", LevelInfo}, {"399", LevelInfo},
		{"400", LevelWarning}, {"404", LevelWarning}, {"499", LevelWarning},
		{"500", LevelError}, {"503", LevelError},
	}
	for _, tt := range tests {
		line := `10.0.0.1 - bob [10/Jan/2025:12:00:00 +0100] "POST /api?a=1 HTTP/2.0" ` + tt.status + ` - "https://ref/" "Mozilla/5.0 (X11)"`
		ev := p.Access(line, 1)
		require.NotNil(t, ev, tt.status)
		assert.Equal(t, tt.level, ev.Level, tt.status)
		assert.Equal(t, tt.status, strings.TrimSpace(ev.Message[len(ev.Message)-3:]))
		assert.Equal(t, int64(0), ev.Bytes)
		assert.Equal(t, time.Date(2025, 1, 10, 11, 0, 0, 0, time.UTC), ev.Timestamp)
	}
}

func TestAccess_RequestTime(t *testing.T) {
	p := newTestParser(FallbackNow)
	ev := p.Access(`1.2.3.4 - - [10/Jan/2025:12:00:00 +0000] "GET / HTTP/1.1" 502 10 "-" "ua" 1.250`, 0)
	require.NotNil(t, ev)
	assert.InDelta(t, 1250.0, ev.ResponseTime, 0.001)

	ev = p.Access(`1.2.3.4 - - [10/Jan/2025:12:00:00 +0000] "GET / HTTP/1.1" 200 10 "-" "ua" rt=0.004 uct="0.001"`, 0)
	require.NotNil(t, ev)
	assert.InDelta(t, 4.0, ev.ResponseTime, 0.001)

	ev = p.Access(`1.2.3.4 - - [10/Jan/2025:12:00:00 +0000] "GET / HTTP/1.1" 200 10`, 0)
	require.NotNil(t, ev)
	assert.Zero(t, ev.ResponseTime)
}

func TestAccess_MalformedRequest(t *testing.T) {
	p := newTestParser(FallbackNow)
	ev := p.Access(`1.2.3.4 - - [10/Jan/2025:12:00:00 +0000] "-" 400 0 "-" "-"`, 0)
	require.NotNil(t, ev)
	assert.Empty(t, ev.Method)
	assert.Equal(t, LevelWarning, ev.Level)
}

// TestAccess_Garbage tests that non-matching lines return nil
// TestAccess_Garbage 测试不匹配的行返回 nil
func TestAccess_Garbage(t *testing.T) {
	p := newTestParser(FallbackNow)
	for _, line := range []string{
		"",
		"hello world",
		`1.2.3.4 - - [not a date] "GET / HTTP/1.1" 200 1 "-" "-"`,
		`1.2.3.4 - - [10/Jan/2025:12:00:00 +0000] "GET / HTTP/1.1" abc 1`,
		`2025/01/10 12:00:01 [warn] 123#123: something`,
	} {
		assert.Nil(t, p.Access(line, 0), line)
	}
}

// TestError_Scenario tests the canonical error-log line
// TestError_Scenario 测试标准错误日志行
func TestError_Scenario(t *testing.T) {
	p := newTestParser(FallbackNow)
	ev := p.Error(`2025/01/10 12:00:01 [warn] 123#123: client: 203.0.113.5, upstream timed out`, 3)
	require.NotNil(t, ev)
	assert.Equal(t, LevelWarning, ev.Level)
	assert.Equal(t, "203.0.113.5", ev.IP)
	assert.Equal(t, TypeError, ev.Type)
	assert.Equal(t, KindError, ev.Kind)
	assert.Equal(t, "warn", ev.NginxLevel)
	assert.Equal(t, 123, ev.PID)
	assert.Equal(t, time.Date(2025, 1, 10, 12, 0, 1, 0, time.UTC), ev.Timestamp)
	assert.Equal(t, "error-3", ev.ID)
}

func TestError_Levels(t *testing.T) {
	p := newTestParser(FallbackNow)
	want := map[string]Level{
		"debug": LevelInfo, "info": LevelInfo, "notice": LevelInfo,
		"warn": LevelWarning,
		"error": LevelError, "crit": LevelError, "alert": LevelError, "emerg": LevelError,
	}
	for token, level := range want {
		ev := p.Error("2025/01/10 12:00:01 ["+token+"] 1#0: msg", 0)
		require.NotNil(t, ev, token)
		assert.Equal(t, level, ev.Level, token)
	}
}

func TestError_RequestContext(t *testing.T) {
	p := newTestParser(FallbackNow)
	line := `2025/01/10 12:00:01 [error] 7#7: *42 open() "/usr/share/nginx/html/x" failed (2: No such file or directory), client: 198.51.100.7, server: Example.COM, request: "GET /x?y=1 HTTP/1.1", host: "example.com"`
	ev := p.Error(line, 0)
	require.NotNil(t, ev)
	assert.Equal(t, "198.51.100.7", ev.IP)
	assert.Equal(t, "example.com", ev.Domain)
	assert.Equal(t, "GET", ev.Method)
	assert.Equal(t, "/x?y=1", ev.Path)
	assert.True(t, strings.HasPrefix(ev.Message, "open()"))
}

func TestError_SystemAndFallback(t *testing.T) {
	p := newTestParser(FallbackNow)
	ev := p.Error(`2025/01/10 12:00:01 [notice] 1#1: signal process started`, 0)
	require.NotNil(t, ev)
	assert.Equal(t, TypeSystem, ev.Type)

	ev = p.Error(`2025/13/45 99:00:01 [error] 1#1: bad date`, 0)
	require.NotNil(t, ev)
	assert.Equal(t, fixedNow, ev.Timestamp)

	ev = p.Error(`2025/01/10 12:00:01 [error] 1#1: client: not-an-ip, oops`, 0)
	require.NotNil(t, ev)
	assert.Empty(t, ev.IP)

	assert.Nil(t, p.Error(`203.0.113.5 - - [10/Jan/2025:12:00:00 +0000] "GET / HTTP/1.1" 200 1`, 0))
}

func TestError_MessageTruncated(t *testing.T) {
	p := newTestParser(FallbackNow)
	ev := p.Error(`2025/01/10 12:00:01 [error] 1#1: `+strings.Repeat("ж", 500), 0)
	require.NotNil(t, ev)
	assert.Len(t, []rune(ev.Message), MaxMessageLength)
}

const wafLine = `2025/01/10 12:00:02 [error] 123#123: *9 ModSecurity: Access denied with code 403 (phase 2). ` +
	`Matched "Operator ` + "`Ge'" + `" [file "/etc/modsec/REQUEST-942-APPLICATION-ATTACK-SQLI.conf"] [line "45"] ` +
	`[id "942100"] [msg "SQL Injection Attack Detected via libinjection"] [severity "2"] ` +
	`[tag "application-multi"] [tag "attack-sqli"] [hostname "10.0.0.2"] [uri "/search"] ` +
	`[unique_id "169A-bc_1"] [client 198.51.100.9], client: 198.51.100.9, server: shop.example.com, ` +
	`request: "GET /search?q=1%27 HTTP/1.1", host: "shop.example.com"`

// TestWAF_Scenario tests field extraction from a ModSecurity line
// TestWAF_Scenario 测试从 ModSecurity 行提取字段
func TestWAF_Scenario(t *testing.T) {
	p := newTestParser(FallbackNow)
	ev := p.WAF(wafLine, 5)
	require.NotNil(t, ev)
	require.True(t, ev.IsWAF())
	assert.Equal(t, "SQL Injection Attack Detected via libinjection", ev.Message)
	assert.Equal(t, "198.51.100.9", ev.IP)
	assert.Equal(t, "942100", ev.RuleID)
	assert.Equal(t, "169A-bc_1", ev.UniqueID)
	assert.Equal(t, SeverityCritical, ev.Severity)
	assert.Equal(t, []string{"application-multi", "attack-sqli"}, ev.Tags)
	assert.Equal(t, "10.0.0.2", ev.Hostname)
	assert.Equal(t, "shop.example.com", ev.Domain)
	assert.Equal(t, "GET", ev.Method)
	assert.Equal(t, "/search?q=1%27", ev.Path)
	assert.Equal(t, LevelError, ev.Level)
	assert.Equal(t, TypeError, ev.Type)
	assert.Equal(t, SourceModSecurity, ev.Source)
	assert.True(t, ev.Blocked)
	assert.False(t, ev.TimestampEstimated)
	assert.Equal(t, time.Date(2025, 1, 10, 12, 0, 2, 0, time.UTC), ev.Timestamp)
}

func TestWAF_WarningAndFallbacks(t *testing.T) {
	line := `ModSecurity: Warning. Pattern match [msg "XSS Attack"] [severity "WARNING"] [client 2001:db8::7] [uri "/a"]`

	p := newTestParser(FallbackNow)
	ev := p.WAF(line, 0)
	require.NotNil(t, ev)
	assert.Equal(t, LevelWarning, ev.Level)
	assert.Equal(t, "2001:db8::7", ev.IP)
	assert.Equal(t, "/a", ev.Path)
	assert.Equal(t, SeverityWarning, ev.Severity)
	assert.True(t, ev.TimestampEstimated)
	assert.Equal(t, fixedNow, ev.Timestamp)

	assert.Nil(t, newTestParser(FallbackDrop).WAF(line, 0))
}

func TestWAF_MessageFallback(t *testing.T) {
	p := newTestParser(FallbackNow)
	ev := p.WAF(`2025/01/10 12:00:02 [warn] 1#1: ModSecurity: Request body too large [id "200002"]`, 0)
	require.NotNil(t, ev)
	assert.Equal(t, "Request body too large", ev.Message)
	assert.Equal(t, "200002", ev.RuleID)
}

func TestWAF_NoMarker(t *testing.T) {
	p := newTestParser(FallbackNow)
	assert.Nil(t, p.WAF(`2025/01/10 12:00:01 [warn] 123#123: upstream timed out`, 0))
}

// TestErrorLogLine tests routing between the WAF and error parsers
// TestErrorLogLine 测试 WAF 与错误解析器之间的路由
func TestErrorLogLine(t *testing.T) {
	p := newTestParser(FallbackNow)
	assert.Equal(t, KindWAF, p.ErrorLogLine(wafLine, 0).Kind)
	assert.Equal(t, KindError, p.ErrorLogLine(`2025/01/10 12:00:01 [warn] 1#1: x`, 0).Kind)
	assert.Nil(t, p.ErrorLogLine("garbage", 0))
}

func TestNormalizeSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, normalizeSeverity("0"))
	assert.Equal(t, SeverityCritical, normalizeSeverity("critical"))
	assert.Equal(t, SeverityError, normalizeSeverity("3"))
	assert.Equal(t, SeverityNotice, normalizeSeverity("NOTICE"))
	assert.Equal(t, SeverityInfo, normalizeSeverity("7"))
	assert.Empty(t, normalizeSeverity("x"))
	assert.Greater(t, SeverityRank(SeverityCritical), SeverityRank(SeverityWarning))
}

// TestLogEvent_JSON tests the flat JSON shape of tagged payloads
// TestLogEvent_JSON 测试带标签负载的扁平 JSON 形状
func TestLogEvent_JSON(t *testing.T) {
	p := newTestParser(FallbackNow)
	ev := p.Access(`203.0.113.5 - - [10/Jan/2025:12:00:00 +0000] "GET /health HTTP/1.1" 200 512 "-" "curl/8.0"`, 0)
	require.NotNil(t, ev)

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, float64(200), out["statusCode"])
	assert.Equal(t, "2025-01-10T12:00:00Z", out["timestamp"])
	assert.NotContains(t, out, "ruleId")
	assert.NotContains(t, out, "Kind")
}

func TestPackageLevelParsers(t *testing.T) {
	assert.NotNil(t, ParseAccess(`203.0.113.5 - - [10/Jan/2025:12:00:00 +0000] "GET / HTTP/1.1" 200 1 "-" "-"`, 0))
	assert.NotNil(t, ParseError(`2025/01/10 12:00:01 [warn] 1#1: x`, 0))
	assert.NotNil(t, ParseWAF(wafLine, 0))
	assert.NotNil(t, ParseErrorLogLine(wafLine, 0))
}

func TestEnumValid(t *testing.T) {
	assert.True(t, LevelWarning.Valid())
	assert.False(t, Level("WARN").Valid())
	assert.True(t, TypeSystem.Valid())
	assert.False(t, EventType("waf").Valid())
}
