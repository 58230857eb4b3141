package redisserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/redikv/internal/protocol/resp"
	"github.com/yndnr/redikv/internal/telemetry/logger"
	"github.com/yndnr/redikv/internal/telemetry/metric"
)

// Reply texts for conditions detected by the server itself.
const (
	errRateLimited   = "rate limit exceeded"
	errFrameTooLarge = "protocol error: frame exceeds max_frame_size"
)

// maxRetainedOut caps the write buffer kept between replies; snapshot
// transfers can be much larger.
const maxRetainedOut = 64 * 1024

// Config holds the RESP server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// ReadBufferSize is the size of each socket read (default 4096).
	ReadBufferSize int
	// MaxFrameSize bounds the unparsed bytes kept for one connection
	// (default 512KiB).
	MaxFrameSize int
	// RateLimit is the maximum number of commands per second per client
	// IP. Zero disables rate limiting.
	RateLimit int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           "0.0.0.0:6379",
		ReadBufferSize: 4096,
		MaxFrameSize:   512 * 1024,
	}
}

// Server accepts RESP connections and dispatches their commands.
type Server struct {
	cfg     Config
	handler *Handler
	limiter *rateLimiter
	metrics *metric.Registry
	logger  *slog.Logger

	mu    sync.Mutex
	ln    net.Listener
	conns map[net.Conn]struct{}

	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a RESP server.
func New(cfg Config, handler *Handler, metrics *metric.Registry, log *slog.Logger) *Server {
	def := DefaultConfig()
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = def.ReadBufferSize
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = def.MaxFrameSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:     cfg,
		handler: handler,
		limiter: newRateLimiter(cfg.RateLimit),
		metrics: metrics,
		logger:  log.With("component", "redisserver"),
		conns:   make(map[net.Conn]struct{}),
	}
}

// ListenAndServe listens on cfg.Addr and serves until Shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until Shutdown or ctx is cancelled. It
// returns nil on a clean stop.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.running.Store(true)

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	s.logger.Info("listening", "addr", ln.Addr().String(), "rate_limit", s.cfg.RateLimit)

	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		if !s.track(c) {
			_ = c.Close()
			return nil
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.serveConn(ctx, c)
		}()
	}
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting, closes every open connection and waits for
// their goroutines to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	s.mu.Lock()
	var err error
	if s.ln != nil {
		if cerr := s.ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// conn is the per-connection state.
type conn struct {
	nc      net.Conn
	limiter *rate.Limiter
	// frame holds bytes read but not yet decoded.
	frame []byte
	out   []byte
}

func (s *Server) serveConn(ctx context.Context, nc net.Conn) {
	id := ulid.Make().String()
	ip := remoteIP(nc.RemoteAddr())
	ctx = logger.WithConnID(logger.WithLogger(ctx, s.logger.With("remote", nc.RemoteAddr().String())), id)
	log := logger.L(ctx)

	s.metrics.ConnOpened()
	defer s.metrics.ConnClosed()

	c := &conn{nc: nc, limiter: s.limiter.acquire(ip)}
	defer s.limiter.release(ip)
	defer nc.Close()

	log.Debug("connection accepted")

	buf := make([]byte, s.cfg.ReadBufferSize)
	for {
		n, err := nc.Read(buf)
		if n > 0 {
			c.frame = append(c.frame, buf[:n]...)
			if !s.process(ctx, c) {
				return
			}
			if len(c.frame) > s.cfg.MaxFrameSize {
				log.Warn("pending frame too large", "pending_bytes", len(c.frame), "max_frame_size", s.cfg.MaxFrameSize)
				s.metrics.ProtocolError("frame_too_large")
				_ = s.write(c, resp.Error{Message: errFrameTooLarge})
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				log.Debug("connection closed")
			} else {
				log.Debug("connection read error", "error", err)
			}
			return
		}
	}
}

// process decodes and executes every complete frame in c.frame, keeping
// any trailing partial frame. It returns false when the connection must
// be closed.
func (s *Server) process(ctx context.Context, c *conn) bool {
	pos := 0
	defer func() {
		c.frame = c.frame[:copy(c.frame, c.frame[pos:])]
	}()

	for pos < len(c.frame) {
		cmd, n, err := resp.Next(c.frame[pos:])
		if errors.Is(err, resp.ErrIncomplete) {
			return true
		}
		if err != nil {
			s.metrics.ProtocolError(resp.Kind(err))
			if werr := s.write(c, resp.Error{Message: err.Error()}); werr != nil {
				return false
			}
			var fe *resp.FrameError
			if errors.As(err, &fe) && fe.Recoverable() {
				logger.L(ctx).Debug("rejected frame", "error", err)
				pos += fe.Size
				continue
			}
			logger.L(ctx).Warn("closing connection after framing error", "error", err)
			return false
		}
		pos += n

		if c.limiter != nil && !c.limiter.Allow() {
			s.metrics.RateLimited()
			if err := s.write(c, resp.Error{Message: errRateLimited}); err != nil {
				return false
			}
			continue
		}

		if err := s.write(c, s.handler.Handle(ctx, cmd)...); err != nil {
			logger.L(ctx).Debug("write failed", "error", err)
			return false
		}
	}
	return true
}

// write encodes rs and writes them in a single call so a reply and a
// following snapshot transfer are never interleaved with anything else.
func (s *Server) write(c *conn, rs ...resp.Response) error {
	c.out = resp.Append(c.out[:0], rs...)
	_, err := c.nc.Write(c.out)
	if cap(c.out) > maxRetainedOut {
		c.out = nil
	}
	return err
}

func remoteIP(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
