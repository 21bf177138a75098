package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/livp123/proxylens/internal/utils/iputil"
)

var (
	// YYYY/MM/DD HH:MM:SS [level] pid#tid: [*cid ]message
	errorRe   = regexp.MustCompile(`^(\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}) \[([a-z]+)\] (\d+)#(\d+): (?:\*\d+ )?(.*)$`)
	clientRe  = regexp.MustCompile(`client: ([^,\s]+)`)
	serverRe  = regexp.MustCompile(`server: ([^,\s]+)`)
	hostRe    = regexp.MustCompile(`host: "([^"]+)"`)
	requestRe = regexp.MustCompile(`request: "([A-Z]+) ([^\s"]+)[^"]*"`)
	datePfxRe = regexp.MustCompile(`^(\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2})`)
)

// nginxLevel maps nginx severity tokens onto the three-value level enum.
func nginxLevel(token string) Level {
	switch token {
	case "debug", "info", "notice":
		return LevelInfo
	case "warn":
		return LevelWarning
	default:
		return LevelError
	}
}

// Error parses an nginx error-log line. An unparsable date falls back to now.
// Error 解析一行 nginx 错误日志。无法解析的日期回退为当前时间。
func (p *Parser) Error(line string, index int) *LogEvent {
	return p.guard("error", line, func() *LogEvent {
		m := errorRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			return nil
		}
		ts, err := time.ParseInLocation(errorDateLayout, m[1], p.loc)
		if err != nil {
			ts = p.now()
		}
		pid, _ := strconv.Atoi(m[3])
		tid, _ := strconv.Atoi(m[4])
		body := m[5]

		ev := &LogEvent{
			ID:        eventID("error", index),
			Timestamp: ts.UTC(),
			Level:     nginxLevel(m[2]),
			Type:      TypeError,
			Source:    SourceNginx,
			Message:   truncate(body),
			Kind:      KindError,
			ErrorFields: &ErrorFields{
				NginxLevel: m[2],
				PID:        pid,
				TID:        tid,
			},
		}
		fillRequestContext(ev, body)
		if ev.Level == LevelInfo && ev.IP == "" {
			ev.Type = TypeSystem
		}
		return ev
	})
}

// fillRequestContext copies the ", client: ..., server: ..., request: ..."
// trailer nginx appends to request-scoped messages.
func fillRequestContext(ev *LogEvent, body string) {
	if ev.IP == "" {
		if m := clientRe.FindStringSubmatch(body); m != nil {
			if ip, ok := iputil.ClientIP(m[1]); ok {
				ev.IP = ip
			}
		}
	}
	if ev.Domain == "" {
		if m := serverRe.FindStringSubmatch(body); m != nil && m[1] != "_" {
			ev.Domain = strings.ToLower(m[1])
		} else if m := hostRe.FindStringSubmatch(body); m != nil {
			ev.Domain = strings.ToLower(stripPort(m[1]))
		}
	}
	if ev.Path == "" {
		if m := requestRe.FindStringSubmatch(body); m != nil {
			ev.Method, ev.Path = m[1], m[2]
		}
	}
}

func stripPort(host string) string {
	if strings.HasPrefix(host, "[") {
		return host
	}
	if i := strings.LastIndexByte(host, ':'); i > 0 && strings.Count(host, ":") == 1 {
		return host[:i]
	}
	return host
}
