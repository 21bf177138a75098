package api

import (
	"net/http"

	"github.com/livp123/proxylens/internal/version"
)

// handleHealthz reports liveness. The pipeline keeps no state, so being able
// to answer is the whole check.
// handleHealthz 报告存活状态。
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleVersion returns the build version.
// handleVersion 返回构建版本。
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"version": version.Version})
}
