package replication

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/redikv/internal/core/role"
	"github.com/yndnr/redikv/internal/protocol/resp"
	"github.com/yndnr/redikv/internal/storage/snapshot"
	"github.com/yndnr/redikv/internal/telemetry/metric"
)

// DefaultMaxSnapshotSize bounds the snapshot a replica will accept.
const DefaultMaxSnapshotSize = 512 * 1024 * 1024

// ClientConfig configures the replica-side handshake.
type ClientConfig struct {
	// Replica identifies the primary to dial and the port to advertise.
	Replica role.Replica
	// HandshakeTimeout bounds the whole handshake including the snapshot
	// transfer. Zero waits indefinitely.
	HandshakeTimeout time.Duration
	// MaxSnapshotSize rejects larger snapshot transfers (default 512MB).
	MaxSnapshotSize int
}

// Client drives the replica side of a full resync.
type Client struct {
	cfg     ClientConfig
	state   *role.State
	store   snapshot.Importer
	metrics *metric.Registry
	logger  *slog.Logger
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewClient creates a handshake client. store receives the snapshot
// entries when the primary sends a format redikv can load; it may be nil.
func NewClient(cfg ClientConfig, state *role.State, store snapshot.Importer, metrics *metric.Registry, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxSnapshotSize <= 0 {
		cfg.MaxSnapshotSize = DefaultMaxSnapshotSize
	}
	var d net.Dialer
	return &Client{
		cfg:     cfg,
		state:   state,
		store:   store,
		metrics: metrics,
		logger:  logger.With("component", "replication", "primary", cfg.Replica.PrimaryAddr()),
		dial:    d.DialContext,
	}
}

// Link is an established replication connection after full resync.
type Link struct {
	conn net.Conn
	br   *bufio.Reader

	// ReplID and Offset are the values from the FULLRESYNC reply.
	ReplID string
	Offset int64
	// Snapshot is the raw payload received after FULLRESYNC.
	Snapshot []byte
}

// Close closes the link.
func (l *Link) Close() error {
	return l.conn.Close()
}

// Run performs the handshake, applies the snapshot and then holds the link
// open, discarding anything the primary sends, until the primary closes it
// or ctx is cancelled. A handshake failure is returned; the caller decides
// how to surface it.
func (c *Client) Run(ctx context.Context) error {
	link, err := c.Sync(ctx)
	if err != nil {
		c.metrics.Handshake("failed")
		return err
	}
	c.metrics.Handshake("ok")
	defer link.Close()

	c.loadSnapshot(link.Snapshot)
	return c.drain(ctx, link)
}

// Sync dials the primary and performs steps 1 to 5. On success the
// primary's replication id is recorded in the role state.
func (c *Client) Sync(ctx context.Context) (*Link, error) {
	addr := c.cfg.Replica.PrimaryAddr()
	c.logger.Info("connecting to primary")

	conn, err := c.dial(ctx, "tcp", addr)
	if err != nil {
		return nil, &StepError{Step: 0, Name: "dial", Err: err}
	}

	// Unblock reads and writes when ctx ends mid-handshake.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if c.cfg.HandshakeTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.cfg.HandshakeTimeout))
	}

	link, err := c.handshake(conn)
	if err != nil {
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})

	c.state.SetKnownReplicationID(link.ReplID)
	c.logger.Info("full resync completed",
		"replid", link.ReplID,
		"offset", link.Offset,
		"snapshot_bytes", len(link.Snapshot),
		"snapshot_fingerprint", snapshot.Fingerprint(link.Snapshot),
	)
	return link, nil
}

type handshakeStep struct {
	name    string
	request resp.Array
	expect  string
}

func (c *Client) handshake(conn net.Conn) (*Link, error) {
	br := bufio.NewReader(conn)
	port := strconv.Itoa(c.cfg.Replica.ListeningPort)

	steps := []handshakeStep{
		{name: "ping", request: resp.Request("PING"), expect: "+PONG"},
		{name: "replconf listening-port", request: resp.Request("REPLCONF", "listening-port", port), expect: "+OK"},
		{name: "replconf capa", request: resp.Request("REPLCONF", "capa", "psync2"), expect: "+OK"},
	}
	for i, st := range steps {
		line, err := exchange(conn, br, st.request)
		if err != nil {
			return nil, &StepError{Step: i + 1, Name: st.name, Err: err}
		}
		if line != st.expect {
			return nil, &StepError{Step: i + 1, Name: st.name, Err: fmt.Errorf("%w: got %q, want %q", ErrUnexpectedReply, line, st.expect)}
		}
		c.logger.Debug("handshake step acknowledged", "step", i+1, "name", st.name)
	}

	line, err := exchange(conn, br, resp.Request("PSYNC", "?", "-1"))
	if err != nil {
		return nil, &StepError{Step: 4, Name: "psync", Err: err}
	}
	replID, offset, err := ParseFullResync(line)
	if err != nil {
		return nil, &StepError{Step: 4, Name: "psync", Err: err}
	}

	payload, err := resp.ReadSnapshot(br, c.cfg.MaxSnapshotSize)
	if err != nil {
		return nil, &StepError{Step: 5, Name: "snapshot", Err: err}
	}

	return &Link{conn: conn, br: br, ReplID: replID, Offset: offset, Snapshot: payload}, nil
}

func exchange(conn net.Conn, br *bufio.Reader, req resp.Array) (string, error) {
	if _, err := conn.Write(resp.Encode(req)); err != nil {
		return "", err
	}
	return resp.ReadLine(br)
}

// ParseFullResync extracts the replication id and offset from a
// "+FULLRESYNC <replid> <offset>" status line.
func ParseFullResync(line string) (string, int64, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "+FULLRESYNC") {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedFullResync, line)
	}
	fields := strings.Fields(line[1:])
	if len(fields) != 3 || fields[0] != "FULLRESYNC" || fields[1] == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedFullResync, line)
	}
	offset, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: offset %q", ErrMalformedFullResync, fields[2])
	}
	return fields[1], offset, nil
}

func (c *Client) loadSnapshot(payload []byte) {
	res, err := snapshot.Load(payload, c.store)
	if err != nil {
		c.logger.Error("snapshot not applied", "error", err, "snapshot_bytes", len(payload))
		return
	}
	c.logger.Info("snapshot applied", "format", string(res.Format), "imported", res.Imported)
}

// drain keeps the link open until the primary closes it or ctx ends.
func (c *Client) drain(ctx context.Context, link *Link) error {
	stop := context.AfterFunc(ctx, func() { _ = link.Close() })
	defer stop()

	n, err := io.Copy(io.Discard, link.br)
	if ctx.Err() != nil {
		return nil
	}
	if err != nil && !errors.Is(err, net.ErrClosed) {
		c.logger.Warn("replication link failed", "error", err, "discarded_bytes", n)
		return err
	}
	c.logger.Info("primary closed replication link", "discarded_bytes", n)
	return nil
}
