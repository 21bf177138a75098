package parser

import (
	"fmt"
	"time"

	"github.com/livp123/proxylens/internal/metrics"
	"github.com/livp123/proxylens/internal/utils/logger"
	"go.uber.org/zap"
)

// Timestamp policies for WAF lines whose date cannot be parsed.
const (
	FallbackNow  = "now"
	FallbackDrop = "drop"
)

// Options configures a Parser. Zero values take the defaults.
// Options 配置解析器。零值使用默认值。
type Options struct {
	// Location of the dates written by the error log (nginx writes local time).
	Location *time.Location
	// WAFTimestampFallback is FallbackNow (default) or FallbackDrop.
	WAFTimestampFallback string
	Now                  func() time.Time
	Logger               *zap.SugaredLogger
}

// Parser holds the few settings the otherwise pure parse functions need.
// Parser 保存纯解析函数所需的少量设置。
type Parser struct {
	loc      *time.Location
	fallback string
	now      func() time.Time
	log      *zap.SugaredLogger
}

// New creates a Parser.
func New(opts Options) *Parser {
	p := &Parser{
		loc:      opts.Location,
		fallback: opts.WAFTimestampFallback,
		now:      opts.Now,
		log:      opts.Logger,
	}
	if p.loc == nil {
		p.loc = time.Local
	}
	if p.fallback != FallbackDrop {
		p.fallback = FallbackNow
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.log == nil {
		p.log = logger.Get(nil)
	}
	return p
}

var defaultParser = New(Options{})

// ParseAccess parses a combined-format access line with the default parser.
func ParseAccess(line string, index int) *LogEvent { return defaultParser.Access(line, index) }

// ParseError parses an nginx error line with the default parser.
func ParseError(line string, index int) *LogEvent { return defaultParser.Error(line, index) }

// ParseWAF parses a ModSecurity line with the default parser.
func ParseWAF(line string, index int) *LogEvent { return defaultParser.WAF(line, index) }

// ParseErrorLogLine routes an error-log line to the WAF or error parser.
func ParseErrorLogLine(line string, index int) *LogEvent {
	return defaultParser.ErrorLogLine(line, index)
}

// ErrorLogLine routes a line read from an error log: ModSecurity lines go to
// the WAF parser, everything else to the error parser.
// ErrorLogLine 路由错误日志行：ModSecurity 行交给 WAF 解析器，其余交给错误解析器。
func (p *Parser) ErrorLogLine(line string, index int) *LogEvent {
	if IsWAFLine(line) {
		return p.WAF(line, index)
	}
	return p.Error(line, index)
}

// guard converts a panic inside fn into a skipped line.
func (p *Parser) guard(name, line string, fn func() *LogEvent) (ev *LogEvent) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Debugf("[DEBUG] %s parser skipped line after panic: %v (line: %.120q)", name, r, line)
			metrics.LinesDropped.WithLabelValues(name).Inc()
			ev = nil
		}
	}()
	ev = fn()
	if ev == nil {
		metrics.LinesDropped.WithLabelValues(name).Inc()
	}
	return ev
}

func eventID(tag string, index int) string {
	return fmt.Sprintf("%s-%d", tag, index)
}
