package logsource

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/livp123/proxylens/internal/utils/logger"
	"go.uber.org/zap"
)

// DomainLogFileSet groups the log files of one domain. Empty means not present.
// DomainLogFileSet 将一个域名的日志文件分组。空字符串表示不存在。
type DomainLogFileSet struct {
	Domain       string `json:"domain"`
	AccessLog    string `json:"accessLog"`
	ErrorLog     string `json:"errorLog"`
	SSLAccessLog string `json:"sslAccessLog"`
	SSLErrorLog  string `json:"sslErrorLog"`
}

// AccessLogs returns the non-empty access log paths.
func (s DomainLogFileSet) AccessLogs() []string {
	return nonEmpty(s.AccessLog, s.SSLAccessLog)
}

// ErrorLogs returns the non-empty error log paths.
func (s DomainLogFileSet) ErrorLogs() []string {
	return nonEmpty(s.ErrorLog, s.SSLErrorLog)
}

func nonEmpty(paths ...string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

type fileKind int

const (
	kindSSLAccess fileKind = iota
	kindSSLError
	kindAccess
	kindError
)

// SSL variants come first: "<d>-ssl-access.log" also matches the plain access pattern.
var filePatterns = []struct {
	re   *regexp.Regexp
	kind fileKind
}{
	{regexp.MustCompile(`^(.+?)[-_]ssl[-_]access\.log$`), kindSSLAccess},
	{regexp.MustCompile(`^(.+?)[-_]ssl[-_]error\.log$`), kindSSLError},
	{regexp.MustCompile(`^(.+?)[-_]access\.log$`), kindAccess},
	{regexp.MustCompile(`^(.+?)[-_]error\.log$`), kindError},
}

// classify maps a file name to its domain and kind.
func classify(name string) (string, fileKind, bool) {
	for _, p := range filePatterns {
		m := p.re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		domain := strings.ToLower(m[1])
		if ValidateDomain(domain) != nil {
			return "", 0, false
		}
		return domain, p.kind, true
	}
	return "", 0, false
}

// Discovery lists per-domain log files in the sandbox root.
// Discovery 列出沙箱根目录中按域名划分的日志文件。
type Discovery struct {
	sandbox *Sandbox
	log     *zap.SugaredLogger
}

// NewDiscovery creates a discovery bound to the sandbox root.
func NewDiscovery(sandbox *Sandbox, log *zap.SugaredLogger) *Discovery {
	if log == nil {
		log = logger.Get(nil)
	}
	return &Discovery{sandbox: sandbox, log: log}
}

// ListDomainLogFiles reads the directory once and groups files by domain.
// The result is sorted by domain and never cached.
// ListDomainLogFiles 读取一次目录并按域名分组文件。结果按域名排序且从不缓存。
func (d *Discovery) ListDomainLogFiles(ctx context.Context) []DomainLogFileSet {
	root := d.sandbox.Root()
	entries, err := os.ReadDir(root)
	if err != nil {
		d.log.Debugf("[DEBUG] Cannot list log directory %s: %v", root, err)
		return []DomainLogFileSet{}
	}

	byDomain := make(map[string]*DomainLogFileSet)
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.Contains(name, "..") {
			continue
		}
		domain, kind, ok := classify(name)
		if !ok {
			continue
		}
		full := filepath.Join(root, name)
		if !d.sandbox.IsPathSafe(full) {
			continue
		}
		set, exists := byDomain[domain]
		if !exists {
			set = &DomainLogFileSet{Domain: domain}
			byDomain[domain] = set
		}
		switch kind {
		case kindSSLAccess:
			set.SSLAccessLog = full
		case kindSSLError:
			set.SSLErrorLog = full
		case kindAccess:
			set.AccessLog = full
		case kindError:
			set.ErrorLog = full
		}
	}

	out := make([]DomainLogFileSet, 0, len(byDomain))
	for _, set := range byDomain {
		out = append(out, *set)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

// FindDomain returns the file set of one domain. Invalid names never match.
// FindDomain 返回单个域名的文件集。无效名称永远不会匹配。
func (d *Discovery) FindDomain(ctx context.Context, domain string) (DomainLogFileSet, bool) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if err := ValidateDomain(domain); err != nil {
		d.log.Debugf("[DEBUG] %v", err)
		return DomainLogFileSet{}, false
	}
	for _, set := range d.ListDomainLogFiles(ctx) {
		if set.Domain == domain {
			return set, true
		}
	}
	return DomainLogFileSet{}, false
}
