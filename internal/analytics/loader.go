package analytics

import (
	"context"
	"strings"

	"github.com/livp123/proxylens/internal/logsource"
	"github.com/livp123/proxylens/internal/parser"
	"github.com/livp123/proxylens/internal/utils/logger"
	"go.uber.org/zap"
)

// Source supplies freshly read events for one analytics call.
// Source 为一次分析调用提供新读取的事件。
type Source interface {
	AccessEvents(ctx context.Context) []parser.LogEvent
	WAFEvents(ctx context.Context) []parser.LogEvent
}

// LoadQuery selects which files a Load call reads.
type LoadQuery struct {
	// Domain restricts the read to one domain's files; empty means global
	// logs plus every discovered domain.
	Domain string
	Access bool
	Errors bool
	// Grep, when set, reads only error-log lines containing this literal.
	Grep string
	// Lines per file; zero uses the loader default.
	Lines int
}

// LoaderOptions configures the files and depth a Loader reads.
type LoaderOptions struct {
	GlobalAccessLog string
	GlobalErrorLog  string
	Lines           int
}

// Loader wires discovery, the bounded reader and the parsers together.
// Loader 将发现、有界读取器和解析器连接在一起。
type Loader struct {
	discovery *logsource.Discovery
	reader    *logsource.Reader
	parser    *parser.Parser
	opts      LoaderOptions
	log       *zap.SugaredLogger
}

// NewLoader creates a Loader.
func NewLoader(d *logsource.Discovery, r *logsource.Reader, p *parser.Parser, opts LoaderOptions, log *zap.SugaredLogger) *Loader {
	if opts.Lines <= 0 {
		opts.Lines = 1000
	}
	if log == nil {
		log = logger.Get(nil)
	}
	return &Loader{discovery: d, reader: r, parser: p, opts: opts, log: log}
}

// Files lists the per-domain log files.
func (l *Loader) Files(ctx context.Context) []logsource.DomainLogFileSet {
	return l.discovery.ListDomainLogFiles(ctx)
}

// AccessEvents reads every access log.
func (l *Loader) AccessEvents(ctx context.Context) []parser.LogEvent {
	return l.Load(ctx, LoadQuery{Access: true})
}

// WAFEvents reads the ModSecurity lines of every error log.
func (l *Loader) WAFEvents(ctx context.Context) []parser.LogEvent {
	events := l.Load(ctx, LoadQuery{Errors: true, Grep: "ModSecurity:"})
	out := events[:0]
	for _, ev := range events {
		if ev.IsWAF() {
			out = append(out, ev)
		}
	}
	return out
}

type fileRef struct {
	path   string
	domain string
	access bool
}

// Load reads and parses the selected files. Unreadable files contribute
// nothing. Event ids are unique within the returned slice only.
// Load 读取并解析所选文件。无法读取的文件不贡献任何事件。事件 ID 仅在返回的切片内唯一。
func (l *Loader) Load(ctx context.Context, q LoadQuery) []parser.LogEvent {
	files := l.selectFiles(ctx, q)
	if len(files) == 0 {
		return []parser.LogEvent{}
	}
	lines := q.Lines
	if lines <= 0 {
		lines = l.opts.Lines
	}

	reqs := make([]logsource.ReadRequest, len(files))
	for i, f := range files {
		reqs[i] = logsource.ReadRequest{Path: f.path, Lines: lines}
		if !f.access && q.Grep != "" {
			reqs[i].Pattern = q.Grep
		}
	}
	results := l.reader.ReadMany(ctx, reqs)

	var events []parser.LogEvent
	index := 0
	for i, f := range files {
		for _, line := range results[i] {
			var ev *parser.LogEvent
			if f.access {
				ev = l.parser.Access(line, index)
			} else {
				ev = l.parser.ErrorLogLine(line, index)
			}
			index++
			if ev == nil {
				continue
			}
			if ev.Domain == "" {
				ev.Domain = f.domain
			}
			events = append(events, *ev)
		}
	}
	if events == nil {
		return []parser.LogEvent{}
	}
	return events
}

func (l *Loader) selectFiles(ctx context.Context, q LoadQuery) []fileRef {
	var files []fileRef
	add := func(paths []string, domain string, access bool) {
		for _, p := range paths {
			files = append(files, fileRef{path: p, domain: domain, access: access})
		}
	}

	if q.Domain != "" {
		set, ok := l.discovery.FindDomain(ctx, q.Domain)
		if !ok {
			l.log.Debugf("[DEBUG] No log files for domain %q", q.Domain)
			return nil
		}
		if q.Access && q.Grep == "" {
			add(set.AccessLogs(), set.Domain, true)
		}
		if q.Errors {
			add(set.ErrorLogs(), set.Domain, false)
		}
		return files
	}

	if q.Access && q.Grep == "" && l.opts.GlobalAccessLog != "" {
		add([]string{l.opts.GlobalAccessLog}, "", true)
	}
	if q.Errors && l.opts.GlobalErrorLog != "" {
		add([]string{l.opts.GlobalErrorLog}, "", false)
	}
	for _, set := range l.discovery.ListDomainLogFiles(ctx) {
		if q.Access && q.Grep == "" {
			add(set.AccessLogs(), set.Domain, true)
		}
		if q.Errors {
			add(set.ErrorLogs(), set.Domain, false)
		}
	}
	return dedupe(files)
}

// dedupe drops repeated paths, e.g. a global log that also matches a domain pattern.
func dedupe(files []fileRef) []fileRef {
	seen := make(map[string]struct{}, len(files))
	out := files[:0]
	for _, f := range files {
		key := strings.TrimSpace(f.path)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}
