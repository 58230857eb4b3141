package replication

import (
	"log/slog"

	"github.com/yndnr/redikv/internal/core/role"
	"github.com/yndnr/redikv/internal/protocol/resp"
	"github.com/yndnr/redikv/internal/storage/snapshot"
	"github.com/yndnr/redikv/internal/telemetry/metric"
)

// Responder answers the primary side of the handshake.
type Responder struct {
	state   *role.State
	builder *snapshot.Builder
	metrics *metric.Registry
}

// NewResponder creates a responder that serves snapshots from builder.
func NewResponder(state *role.State, builder *snapshot.Builder, metrics *metric.Registry) *Responder {
	return &Responder{state: state, builder: builder, metrics: metrics}
}

// ReplConf acknowledges any REPLCONF option set.
func (r *Responder) ReplConf(cmd resp.ReplConf, logger *slog.Logger) resp.Response {
	if port, ok := cmd.Option("listening-port"); ok {
		logger.Info("replica announced listening port", "listening_port", port)
	}
	if capa, ok := cmd.Option("capa"); ok {
		logger.Debug("replica announced capability", "capa", capa)
	}
	return resp.OK{}
}

// Psync answers a resync request with FULLRESYNC followed by the snapshot
// transfer. Both responses must be written in order before anything else
// on the connection. The requested id and offset are ignored; every PSYNC
// is a full resync.
func (r *Responder) Psync(cmd resp.Psync, logger *slog.Logger) []resp.Response {
	primary, ok := r.state.Role().(role.Primary)
	if !ok {
		logger.Warn("rejected PSYNC on replica", "requested_replid", cmd.ReplID)
		return []resp.Response{resp.Error{Message: ErrNotPrimary.Error()}}
	}

	payload, err := r.builder.Build()
	if err != nil {
		logger.Error("snapshot build failed", "error", err)
		return []resp.Response{resp.Error{Message: "snapshot unavailable"}}
	}

	r.metrics.SnapshotSent(len(payload))
	logger.Info("serving full resync",
		"requested_replid", cmd.ReplID,
		"requested_offset", cmd.Offset,
		"format", string(r.builder.Format()),
		"snapshot_bytes", len(payload),
		"snapshot_fingerprint", snapshot.Fingerprint(payload),
	)
	return []resp.Response{
		resp.FullResync{ReplID: primary.ReplicationID, Offset: primary.ReplicationOffset},
		resp.Snapshot{Payload: payload},
	}
}
