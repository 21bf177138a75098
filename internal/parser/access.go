package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/livp123/proxylens/internal/utils/iputil"
)

// ip ident user [time] "request" status bytes ["referer" "ua"] [... [rt=]request_time ...]
var accessRe = regexp.MustCompile(
	`^(\S+) \S+ \S+ \[([^\]]+)\] "(?:([A-Z]+) (\S+)(?: [^"]*)?|[^"]*)" (\d{3}) (\d+|-)` +
		`(?: "((?:[^"\\]|\\.)*)" "((?:[^"\\]|\\.)*)")?` +
		`(?:.*?\s(?:rt=)?(\d+\.\d+)(?:\s|$))?.*$`)

// Access parses one Apache/nginx combined-format line. It returns nil when
// the line does not match the grammar or carries an unparsable timestamp.
// Access 解析一行 combined 格式日志。不匹配语法或时间戳无法解析时返回 nil。
func (p *Parser) Access(line string, index int) *LogEvent {
	return p.guard("access", line, func() *LogEvent {
		m := accessRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			return nil
		}
		ts, err := time.Parse(accessDateLayout, m[2])
		if err != nil {
			return nil
		}
		status, err := strconv.Atoi(m[5])
		if err != nil {
			return nil
		}

		fields := &AccessFields{
			StatusCode: status,
			Referer:    dash(m[7]),
			UserAgent:  dash(m[8]),
		}
		if m[6] != "-" {
			fields.Bytes, _ = strconv.ParseInt(m[6], 10, 64)
		}
		if m[9] != "" {
			if secs, err := strconv.ParseFloat(m[9], 64); err == nil {
				fields.ResponseTime = secs * 1000
			}
		}

		ip := m[1]
		if clean, ok := iputil.ClientIP(ip); ok {
			ip = clean
		}

		method, path := m[3], m[4]
		msg := fmt.Sprintf("%s %s %d", method, path, status)
		if method == "" {
			msg = fmt.Sprintf("invalid request %d", status)
		}

		return &LogEvent{
			ID:           eventID("access", index),
			Timestamp:    ts.UTC(),
			Level:        levelFromStatus(status),
			Type:         TypeAccess,
			Source:       SourceNginx,
			Message:      truncate(msg),
			IP:           ip,
			Method:       method,
			Path:         path,
			Kind:         KindAccess,
			AccessFields: fields,
		}
	})
}

// levelFromStatus: >=500 error, 4xx warning, otherwise info.
func levelFromStatus(status int) Level {
	switch {
	case status >= 500:
		return LevelError
	case status >= 400:
		return LevelWarning
	default:
		return LevelInfo
	}
}

func dash(s string) string {
	if s == "-" {
		return ""
	}
	return s
}
