package logsource

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/livp123/proxylens/internal/metrics"
	"github.com/livp123/proxylens/internal/utils/logger"
	pxerrors "github.com/livp123/proxylens/pkg/errors"
	"github.com/nxadm/tail"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	scanChunkSize = 64 << 10
	maxLineSize   = 64 << 10

	DefaultReadTimeout = 5 * time.Second
	MaxReadTimeout     = 10 * time.Second
	DefaultMaxBuffer   = 100 << 20
	DefaultMaxLines    = 10000
	DefaultBatchSize   = 5
)

// ReaderOptions bounds every read.
// ReaderOptions 约束每一次读取。
type ReaderOptions struct {
	Timeout        time.Duration
	MaxBufferBytes int64
	MaxLines       int
	BatchSize      int
}

// Reader returns the tail of log files without shelling out.
// Reader 在不调用外部进程的情况下返回日志文件的末尾。
type Reader struct {
	sandbox *Sandbox
	opts    ReaderOptions
	log     *zap.SugaredLogger
}

// ReadRequest describes one file read in a ReadMany batch. A non-empty
// Pattern turns the read into a literal grep limited to Lines matches.
type ReadRequest struct {
	Path    string
	Lines   int
	Pattern string
}

// NewReader creates a reader; zero options take the defaults and values
// above the ceilings are clamped to them.
// NewReader 创建读取器；零值选项使用默认值，超过上限的值被截断到上限。
func NewReader(sandbox *Sandbox, opts ReaderOptions, log *zap.SugaredLogger) *Reader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultReadTimeout
	}
	if opts.Timeout > MaxReadTimeout {
		opts.Timeout = MaxReadTimeout
	}
	if opts.MaxBufferBytes <= 0 || opts.MaxBufferBytes > DefaultMaxBuffer {
		opts.MaxBufferBytes = DefaultMaxBuffer
	}
	if opts.MaxLines <= 0 || opts.MaxLines > DefaultMaxLines {
		opts.MaxLines = DefaultMaxLines
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if log == nil {
		log = logger.Get(nil)
	}
	return &Reader{sandbox: sandbox, opts: opts, log: log}
}

// ClampLines bounds a requested line count to [1, MaxLines].
func (r *Reader) ClampLines(n int) int {
	if n < 1 {
		return 1
	}
	if n > r.opts.MaxLines {
		return r.opts.MaxLines
	}
	return n
}

// ReadLastLines returns up to n trailing non-empty lines of path in file order.
// Unsafe paths, missing files and timeouts all yield an empty slice.
// ReadLastLines 按文件顺序返回路径末尾最多 n 个非空行。
// 不安全路径、缺失文件和超时都返回空切片。
func (r *Reader) ReadLastLines(ctx context.Context, path string, n int) []string {
	resolved, ok := r.sandbox.Resolve(path)
	if !ok {
		return []string{}
	}
	n = r.ClampLines(n)

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	offset, partial, err := r.tailOffset(ctx, resolved, n)
	if err != nil {
		r.fail(resolved, err)
		return []string{}
	}
	lines, err := r.stream(ctx, resolved, offset, partial, "", n)
	if err != nil {
		r.fail(resolved, err)
		return []string{}
	}
	metrics.LinesRead.WithLabelValues("tail").Add(float64(len(lines)))
	return lines
}

// Grep returns the last limit lines containing literal, scanning at most
// MaxBufferBytes from the end of the file. literal is never compiled.
// Grep 返回包含字面量的最后 limit 行，最多从文件末尾扫描 MaxBufferBytes。字面量从不编译为正则。
func (r *Reader) Grep(ctx context.Context, path, literal string, limit int) []string {
	if literal == "" {
		return []string{}
	}
	resolved, ok := r.sandbox.Resolve(path)
	if !ok {
		return []string{}
	}
	limit = r.ClampLines(limit)

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	offset, partial, err := r.grepOffset(resolved)
	if err != nil {
		r.fail(resolved, err)
		return []string{}
	}
	lines, err := r.stream(ctx, resolved, offset, partial, literal, limit)
	if err != nil {
		r.fail(resolved, err)
		return []string{}
	}
	metrics.LinesRead.WithLabelValues("grep").Add(float64(len(lines)))
	return lines
}

// ReadMany serves requests in fixed-size concurrent batches. results[i]
// belongs to reqs[i]; a failed read leaves an empty slice in its slot.
// ReadMany 以固定大小的并发批次处理请求。
func (r *Reader) ReadMany(ctx context.Context, reqs []ReadRequest) [][]string {
	results := make([][]string, len(reqs))
	for start := 0; start < len(reqs); start += r.opts.BatchSize {
		end := min(start+r.opts.BatchSize, len(reqs))
		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				req := reqs[i]
				if req.Pattern != "" {
					results[i] = r.Grep(ctx, req.Path, req.Pattern, req.Lines)
				} else {
					results[i] = r.ReadLastLines(ctx, req.Path, req.Lines)
				}
				return nil
			})
		}
		_ = g.Wait()
	}
	return results
}

func (r *Reader) fail(path string, err error) {
	if errors.Is(err, pxerrors.ErrReadTimeout) {
		metrics.ReadTimeouts.Inc()
	}
	r.log.Debugf("[DEBUG] Read of %s returned no lines: %v", path, err)
}

// grepOffset returns where a grep starts so that at most MaxBufferBytes are scanned.
func (r *Reader) grepOffset(path string) (int64, bool, error) {
	f, err := os.Open(path) // #nosec G304 // path resolved by the sandbox
	if err != nil {
		return 0, false, pxerrors.NewFileError(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, false, pxerrors.NewFileError(path, err)
	}
	offset := max(info.Size()-r.opts.MaxBufferBytes, 0)
	partial, err := startsMidLine(f, offset)
	if err != nil {
		return 0, false, pxerrors.NewFileError(path, err)
	}
	return offset, partial, nil
}

// startsMidLine reports whether offset falls inside a line rather than on its first byte.
func startsMidLine(ra io.ReaderAt, offset int64) (bool, error) {
	if offset <= 0 {
		return false, nil
	}
	var b [1]byte
	if _, err := ra.ReadAt(b[:], offset-1); err != nil {
		return false, err
	}
	return b[0] != '\n', nil
}

// tailOffset scans backwards in fixed chunks for the start of the last n
// lines. partial is true when the scan stopped at the buffer limit in the
// middle of a line. A line longer than maxLineSize counts once and comes
// back truncated to its first maxLineSize bytes.
func (r *Reader) tailOffset(ctx context.Context, path string, n int) (int64, bool, error) {
	f, err := os.Open(path) // #nosec G304 // path resolved by the sandbox
	if err != nil {
		return 0, false, pxerrors.NewFileError(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, false, pxerrors.NewFileError(path, err)
	}
	if !info.Mode().IsRegular() {
		return 0, false, pxerrors.NewFileError(path, os.ErrInvalid)
	}
	size := info.Size()

	buf := make([]byte, scanChunkSize)
	pos := size
	var scanned int64
	newlines := 0
	for pos > 0 {
		if err := ctx.Err(); err != nil {
			return 0, false, pxerrors.NewReadTimeoutError(path, err)
		}
		chunk := min(int64(scanChunkSize), pos)
		if remaining := r.opts.MaxBufferBytes - scanned; chunk > remaining {
			chunk = remaining
		}
		if chunk <= 0 {
			partial, err := startsMidLine(f, pos)
			if err != nil {
				return 0, false, pxerrors.NewFileError(path, err)
			}
			return pos, partial, nil
		}
		pos -= chunk
		if _, err := f.ReadAt(buf[:chunk], pos); err != nil && err != io.EOF {
			return 0, false, pxerrors.NewFileError(path, err)
		}
		for i := chunk - 1; i >= 0; i-- {
			if buf[i] != '\n' || pos+i == size-1 {
				continue
			}
			newlines++
			if newlines == n {
				return pos + i + 1, false, nil
			}
		}
		scanned += chunk
	}
	return 0, false, nil
}

// stream reads from offset to EOF with nxadm/tail and keeps the last keep
// lines that contain literal (all lines when literal is empty).
func (r *Reader) stream(ctx context.Context, path string, offset int64, partial bool, literal string, keep int) ([]string, error) {
	t, err := tail.TailFile(path, tail.Config{
		Location:    &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		Follow:      false,
		ReOpen:      false,
		MustExist:   true,
		Poll:        true,
		MaxLineSize: maxLineSize,
		Logger:      tail.DiscardingLogger,
	})
	if err != nil {
		return nil, pxerrors.NewFileError(path, err)
	}

	ring := newLineRing(keep)
	first := true
	var prevOffset int64
	prevLen := -1
	for {
		select {
		case <-ctx.Done():
			// The tailer blocks on an unbuffered send; drain it so it can observe Kill.
			t.Kill(ctx.Err())
			go func() {
				for range t.Lines {
				}
			}()
			return nil, pxerrors.NewReadTimeoutError(path, ctx.Err())
		case line, ok := <-t.Lines:
			if !ok {
				return ring.lines(), nil
			}
			if line.Err != nil {
				continue
			}
			// The tailer splits lines longer than maxLineSize into pieces that
			// share one offset; only the first piece is kept.
			continued := prevLen == maxLineSize && line.SeekInfo.Offset == prevOffset
			prevOffset, prevLen = line.SeekInfo.Offset, len(line.Text)
			if continued {
				continue
			}
			if first {
				first = false
				if partial {
					continue
				}
			}
			text := strings.TrimRight(line.Text, "\r")
			if text == "" || (literal != "" && !strings.Contains(text, literal)) {
				continue
			}
			ring.push(text)
		}
	}
}

// lineRing keeps the most recent lines up to a fixed capacity.
type lineRing struct {
	buf   []string
	next  int
	count int
}

func newLineRing(capacity int) *lineRing {
	return &lineRing{buf: make([]string, 0, min(capacity, 1024)), count: capacity}
}

func (l *lineRing) push(s string) {
	if len(l.buf) < l.count {
		l.buf = append(l.buf, s)
		return
	}
	l.buf[l.next] = s
	l.next = (l.next + 1) % l.count
}

// lines returns the kept lines oldest first.
func (l *lineRing) lines() []string {
	out := make([]string, 0, len(l.buf))
	out = append(out, l.buf[l.next:]...)
	return append(out, l.buf[:l.next]...)
}
