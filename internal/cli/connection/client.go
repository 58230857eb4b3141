package connection

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"time"

	"github.com/yndnr/redikv/internal/protocol/resp"
)

// Client is a single RESP connection. It is not safe for concurrent use.
type Client struct {
	addr    string
	timeout time.Duration
	conn    net.Conn
	br      *bufio.Reader
}

// NewClient creates a client for host:port. timeout bounds each round trip;
// zero disables it.
func NewClient(host string, port int, timeout time.Duration) *Client {
	return &Client{
		addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		timeout: timeout,
	}
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Connect dials the server if not already connected.
func (c *Client) Connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return err
	}
	c.conn = conn
	c.br = bufio.NewReader(conn)
	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.br = nil
	return err
}

// Do sends one command as an array of bulk strings and reads one reply.
// On a transport error the connection is dropped so the next Do
// reconnects.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Reply, error) {
	if err := c.Connect(ctx); err != nil {
		return resp.Reply{}, err
	}
	if c.timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	}
	if _, err := c.conn.Write(resp.Encode(resp.Request(args...))); err != nil {
		_ = c.Close()
		return resp.Reply{}, err
	}
	reply, err := resp.ReadReply(c.br)
	if err != nil {
		_ = c.Close()
		return resp.Reply{}, err
	}
	return reply, nil
}
