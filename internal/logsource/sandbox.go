// Package logsource discovers and reads reverse-proxy log files under a
// single allowed directory.
// Package logsource 在单一允许目录下发现并读取反向代理日志文件。
package logsource

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/livp123/proxylens/internal/metrics"
	"github.com/livp123/proxylens/internal/utils/logger"
	pxerrors "github.com/livp123/proxylens/pkg/errors"
	"go.uber.org/zap"
)

// Sandbox confines file access to one root directory plus an explicit
// allow-list of exact file paths (the global access/error logs).
// Sandbox 将文件访问限制在一个根目录以及显式允许的精确文件路径内。
type Sandbox struct {
	root    string
	allowed map[string]struct{}
	log     *zap.SugaredLogger
}

// NewSandbox canonicalizes root and the extra allowed files once.
// NewSandbox 一次性规范化根目录和额外允许的文件。
func NewSandbox(root string, log *zap.SugaredLogger, allowedFiles ...string) *Sandbox {
	if log == nil {
		log = logger.Get(nil)
	}
	s := &Sandbox{
		root:    canonical(root),
		allowed: make(map[string]struct{}, len(allowedFiles)),
		log:     log,
	}
	for _, f := range allowedFiles {
		if f == "" {
			continue
		}
		s.allowed[canonical(f)] = struct{}{}
	}
	return s
}

// Root returns the canonical root directory.
func (s *Sandbox) Root() string {
	return s.root
}

// IsPathSafe reports whether path resolves inside the root or to an allowed file.
// IsPathSafe 报告路径是否解析到根目录内或允许的文件。
func (s *Sandbox) IsPathSafe(path string) bool {
	_, ok := s.Resolve(path)
	return ok
}

// Resolve returns the canonical form of path if it is safe to read.
// Relative paths are taken relative to the root.
// Resolve 如果路径可安全读取，则返回其规范形式。相对路径相对于根目录。
func (s *Sandbox) Resolve(path string) (string, bool) {
	if strings.TrimSpace(path) == "" || strings.ContainsRune(path, 0) {
		s.reject(path)
		return "", false
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	resolved := canonical(path)

	if _, ok := s.allowed[resolved]; ok {
		return resolved, true
	}
	if within(s.root, resolved) {
		return resolved, true
	}
	s.reject(path)
	return "", false
}

func (s *Sandbox) reject(path string) {
	metrics.SandboxRejections.Inc()
	s.log.Warnf("[WARN]  Rejected log path (root %s): %v", s.root, pxerrors.NewUnsafePathError(path))
}

// within reports whether target equals root or is a descendant of it.
func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// canonical returns the absolute, cleaned, symlink-resolved path. For a path
// that does not exist yet the parent directory is resolved instead.
func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	} else if !errors.Is(err, fs.ErrNotExist) {
		return abs
	}
	dir, base := filepath.Split(abs)
	if dir == "" || dir == abs {
		return abs
	}
	parent := filepath.Clean(dir)
	if parent == abs {
		return abs
	}
	return filepath.Join(canonical(parent), base)
}
