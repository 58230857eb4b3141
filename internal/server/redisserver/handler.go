package redisserver

import (
	"context"
	"time"

	"github.com/yndnr/redikv/internal/core/role"
	"github.com/yndnr/redikv/internal/protocol/resp"
	"github.com/yndnr/redikv/internal/replication"
	"github.com/yndnr/redikv/internal/storage/memory"
	"github.com/yndnr/redikv/internal/telemetry/logger"
	"github.com/yndnr/redikv/internal/telemetry/metric"
)

// Handler executes decoded commands against the store and role state.
type Handler struct {
	store     *memory.Store
	state     *role.State
	responder *replication.Responder
	metrics   *metric.Registry
}

// NewHandler creates a Handler. responder answers REPLCONF and PSYNC.
func NewHandler(store *memory.Store, state *role.State, responder *replication.Responder, metrics *metric.Registry) *Handler {
	return &Handler{
		store:     store,
		state:     state,
		responder: responder,
		metrics:   metrics,
	}
}

// Handle executes cmd and returns the responses to write, in order. Every
// command yields exactly one response except PSYNC on a primary, which
// also yields the snapshot transfer.
func (h *Handler) Handle(ctx context.Context, cmd resp.Command) []resp.Response {
	h.metrics.Command(cmd.Name())

	switch c := cmd.(type) {
	case resp.Ping:
		return one(resp.Pong{})
	case resp.Echo:
		return one(resp.BulkString{Value: c.Payload})
	case resp.Get:
		v, ok := h.store.Get(c.Key)
		if !ok {
			return one(resp.NullBulkString{})
		}
		return one(resp.BulkString{Value: v})
	case resp.Set:
		var ttl time.Duration
		if c.HasTTL() {
			ttl = time.Duration(c.TTLMillis) * time.Millisecond
		}
		h.store.Set(c.Key, c.Value, ttl)
		return one(resp.OK{})
	case resp.Info:
		return one(h.state.Info())
	case resp.ReplConf:
		return one(h.responder.ReplConf(c, logger.L(ctx)))
	case resp.Psync:
		return h.responder.Psync(c, logger.L(ctx))
	case resp.Unknown:
		logger.L(ctx).Debug("unknown command", "command", c.Command)
		return one(resp.Error{Message: resp.ErrUnknownCommand})
	default:
		return one(resp.Error{Message: resp.ErrUnknownCommand})
	}
}

func one(r resp.Response) []resp.Response {
	return []resp.Response{r}
}
