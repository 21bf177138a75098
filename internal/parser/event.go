// Package parser turns raw proxy and WAF log lines into LogEvents.
// Package parser 将原始代理和 WAF 日志行转换为 LogEvent。
package parser

import (
	"time"
	"unicode/utf8"
)

// Level is the normalized severity of an event.
type Level string

// Levels.
const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l == LevelInfo || l == LevelWarning || l == LevelError
}

// EventType is the coarse category of an event.
type EventType string

// Event types.
const (
	TypeAccess EventType = "access"
	TypeError  EventType = "error"
	TypeSystem EventType = "system"
)

// Valid reports whether t is one of the defined event types.
func (t EventType) Valid() bool {
	return t == TypeAccess || t == TypeError || t == TypeSystem
}

// Kind selects which payload a LogEvent carries.
// Kind 决定 LogEvent 携带哪种负载。
type Kind int

// Kinds.
const (
	KindAccess Kind = iota + 1
	KindError
	KindWAF
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindError:
		return "error"
	case KindWAF:
		return "waf"
	default:
		return "unknown"
	}
}

// Sources.
const (
	SourceNginx       = "nginx"
	SourceModSecurity = "modsecurity"
)

// MaxMessageLength caps LogEvent.Message in runes.
const MaxMessageLength = 200

const (
	wafMarker        = "ModSecurity:"
	errorDateLayout  = "2006/01/02 15:04:05"
	accessDateLayout = "02/Jan/2006:15:04:05 -0700"
)

// LogEvent is the normalized form of one log line. Exactly one of the
// embedded payloads is set, matching Kind.
// LogEvent 是单行日志的规范化形式。嵌入负载中恰好有一个被设置，与 Kind 对应。
type LogEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	Domain    string    `json:"domain,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Method    string    `json:"method,omitempty"`
	Path      string    `json:"path,omitempty"`

	Kind Kind `json:"-"`

	*AccessFields
	*ErrorFields
	*WAFFields
}

// AccessFields carries access-log specific data.
type AccessFields struct {
	StatusCode   int     `json:"statusCode"`
	Bytes        int64   `json:"bytes"`
	ResponseTime float64 `json:"responseTime,omitempty"` // milliseconds
	Referer      string  `json:"referer,omitempty"`
	UserAgent    string  `json:"userAgent,omitempty"`
}

// ErrorFields carries error-log specific data.
type ErrorFields struct {
	NginxLevel string `json:"nginxLevel"`
	PID        int    `json:"pid,omitempty"`
	TID        int    `json:"tid,omitempty"`
}

// WAFFields carries ModSecurity specific data.
type WAFFields struct {
	RuleID             string   `json:"ruleId,omitempty"`
	UniqueID           string   `json:"uniqueId,omitempty"`
	Severity           string   `json:"severity,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	Hostname           string   `json:"hostname,omitempty"`
	Blocked            bool     `json:"blocked"`
	TimestampEstimated bool     `json:"timestampEstimated,omitempty"`
}

// Status returns the HTTP status of an access event, 0 otherwise.
func (e *LogEvent) Status() int {
	if e.AccessFields == nil {
		return 0
	}
	return e.AccessFields.StatusCode
}

// IsWAF reports whether the event came from a ModSecurity line.
func (e *LogEvent) IsWAF() bool {
	return e.Kind == KindWAF && e.WAFFields != nil
}

// truncate caps s to MaxMessageLength runes.
func truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxMessageLength {
		return s
	}
	r := []rune(s)
	return string(r[:MaxMessageLength])
}
