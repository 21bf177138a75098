package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/livp123/proxylens/internal/utils/iputil"
)

var (
	wafMsgRe      = regexp.MustCompile(`\[msg "((?:[^"\\]|\\.)*)"\]`)
	wafClientRe   = regexp.MustCompile(`\[client ([^\]\s]+)\]`)
	wafIDRe       = regexp.MustCompile(`\[id "([^"]*)"\]`)
	wafUniqueRe   = regexp.MustCompile(`\[unique_id "([^"]*)"\]`)
	wafSeverityRe = regexp.MustCompile(`\[severity "([^"]*)"\]`)
	wafTagRe      = regexp.MustCompile(`\[tag "([^"]*)"\]`)
	wafHostRe     = regexp.MustCompile(`\[hostname "([^"]*)"\]`)
	wafURIRe      = regexp.MustCompile(`\[uri "([^"]*)"\]`)
)

// IsWAFLine reports whether line carries the ModSecurity marker.
func IsWAFLine(line string) bool {
	return strings.Contains(line, wafMarker)
}

// Severity names, most severe first.
const (
	SeverityCritical = "CRITICAL"
	SeverityError    = "ERROR"
	SeverityWarning  = "WARNING"
	SeverityNotice   = "NOTICE"
	SeverityInfo     = "INFO"
)

// SeverityRank orders severities; higher is more severe, unknown is 0.
func SeverityRank(s string) int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityError:
		return 4
	case SeverityWarning:
		return 3
	case SeverityNotice:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// normalizeSeverity accepts both syslog numbers ("2") and names ("CRITICAL").
func normalizeSeverity(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "0", "1", "2", "EMERGENCY", "ALERT", "CRITICAL":
		return SeverityCritical
	case "3", "ERROR":
		return SeverityError
	case "4", "WARNING":
		return SeverityWarning
	case "5", "NOTICE":
		return SeverityNotice
	case "6", "7", "INFO", "DEBUG":
		return SeverityInfo
	default:
		return ""
	}
}

// WAF parses a line carrying an embedded ModSecurity event. Lines without
// the marker return nil. A missing date follows the configured fallback.
// WAF 解析携带 ModSecurity 事件的行。不含标记的行返回 nil。缺失日期时遵循配置的回退策略。
func (p *Parser) WAF(line string, index int) *LogEvent {
	if !IsWAFLine(line) {
		return nil
	}
	return p.guard("waf", line, func() *LogEvent {
		estimated := false
		var ts time.Time
		if m := datePfxRe.FindStringSubmatch(line); m != nil {
			if t, err := time.ParseInLocation(errorDateLayout, m[1], p.loc); err == nil {
				ts = t
			}
		}
		if ts.IsZero() {
			if p.fallback == FallbackDrop {
				p.log.Debugf("[DEBUG] Dropping ModSecurity line without timestamp (index %d)", index)
				return nil
			}
			ts = p.now()
			estimated = true
		}

		fields := &WAFFields{
			RuleID:             firstGroup(wafIDRe, line),
			UniqueID:           firstGroup(wafUniqueRe, line),
			Severity:           normalizeSeverity(firstGroup(wafSeverityRe, line)),
			Hostname:           firstGroup(wafHostRe, line),
			Blocked:            isBlocked(line),
			TimestampEstimated: estimated,
		}
		for _, m := range wafTagRe.FindAllStringSubmatch(line, -1) {
			fields.Tags = append(fields.Tags, m[1])
		}

		msg := firstGroup(wafMsgRe, line)
		if msg == "" {
			rest := line[strings.Index(line, wafMarker)+len(wafMarker):]
			if i := strings.Index(rest, " ["); i >= 0 {
				rest = rest[:i]
			}
			msg = strings.TrimSpace(rest)
		}

		level := LevelWarning
		if fields.Blocked {
			level = LevelError
		}

		ev := &LogEvent{
			ID:        eventID("waf", index),
			Timestamp: ts.UTC(),
			Level:     level,
			Type:      TypeError,
			Source:    SourceModSecurity,
			Message:   truncate(msg),
			Kind:      KindWAF,
			WAFFields: fields,
		}
		if m := wafClientRe.FindStringSubmatch(line); m != nil {
			if ip, ok := iputil.ClientIP(m[1]); ok {
				ev.IP = ip
			}
		}
		fillRequestContext(ev, line)
		if ev.Path == "" {
			ev.Path = firstGroup(wafURIRe, line)
		}
		return ev
	})
}

func isBlocked(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "access denied") || strings.Contains(lower, "blocked")
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}
