package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/livp123/proxylens/internal/utils/logger"
)

// RequestIDHeader carries the correlation id of a request.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 64

// writeJSON encodes v with a 200 status.
// writeJSON 以 200 状态码编码 v。
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// intParam reads an integer query parameter. Missing or malformed values
// yield def, so bad input degrades to the default view instead of an error.
// intParam 读取整数查询参数。缺失或格式错误时返回 def。
func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// requestID keeps a sane client-supplied id, otherwise mints a UUID.
func requestID(r *http.Request) string {
	id := r.Header.Get(RequestIDHeader)
	if id == "" || len(id) > maxRequestIDLength {
		return uuid.NewString()
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c < 0x21 || c > 0x7e {
			return uuid.NewString()
		}
	}
	return id
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withRequestContext attaches a request-scoped logger and recovers handler panics.
// withRequestContext 附加请求级日志记录器并恢复处理器崩溃。
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestID(r)
		w.Header().Set(RequestIDHeader, id)

		log := s.log.With("request_id", id)
		ctx := logger.WithContext(r.Context(), log)
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				log.Errorw("[ERROR] Handler panic", "path", r.URL.Path, "panic", rec)
				http.Error(sw, "Internal Server Error", http.StatusInternalServerError)
			}
			log.Debugw("[DEBUG] Request served", "method", r.Method, "path", r.URL.Path,
				"status", sw.status, "duration", time.Since(start))
		}()

		next.ServeHTTP(sw, r.WithContext(ctx))
	})
}
