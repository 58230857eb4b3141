package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yndnr/redikv/internal/core/role"
	"github.com/yndnr/redikv/internal/infra/buildinfo"
	"github.com/yndnr/redikv/internal/telemetry/metric"
)

// RouterConfig holds configuration for the admin router.
type RouterConfig struct {
	State   *role.State
	Metrics *metric.Registry
	Logger  *slog.Logger
}

// Health is the /healthz response body.
type Health struct {
	Status            string `json:"status"`
	Role              string `json:"role"`
	ReplicationID     string `json:"master_replid,omitempty"`
	ReplicationOffset int64  `json:"master_repl_offset"`
	PrimaryAddr       string `json:"master_addr,omitempty"`
	KnownReplID       string `json:"known_replid,omitempty"`
	Synced            bool   `json:"synced"`
}

// NewRouter creates the admin handler with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthOf(cfg.State))
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, buildinfo.Get())
	})
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	return Chain(mux, RequestID(), Recover(logger), AccessLog(logger))
}

func healthOf(state *role.State) Health {
	h := Health{Status: "ok", Synced: true}
	switch r := state.Role().(type) {
	case role.Primary:
		h.Role = r.Name()
		h.ReplicationID = r.ReplicationID
		h.ReplicationOffset = r.ReplicationOffset
	case role.Replica:
		h.Role = r.Name()
		h.PrimaryAddr = r.PrimaryAddr()
		h.KnownReplID, h.Synced = state.KnownReplicationID()
	}
	return h
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
