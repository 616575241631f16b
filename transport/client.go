package transport

import (
	"context"
	stderrors "errors"
	"net"
	"os"
	"sync"
	"time"

	"github.com/wippyai/fsproxy/errors"
	"github.com/wippyai/fsproxy/ipc"
)

// RootObject is the handle of the root service on every new connection.
const RootObject uint32 = 1

// Client issues requests over one connection, one at a time.
type Client struct {
	conn     net.Conn
	maxFrame uint32
	mu       sync.Mutex
}

// Dial connects to a Server.
func Dial(ctx context.Context, network, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseTransport, errors.KindIO, err, "dial "+addr)
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, maxFrame: DefaultMaxFrameSize}
}

// Call sends req and waits for its response. The context deadline, if
// any, bounds the whole exchange.
func (c *Client) Call(ctx context.Context, req *ipc.Request) (*ipc.Response, error) {
	payload, err := ipc.MarshalRequest(req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, _ := ctx.Deadline()
	c.conn.SetDeadline(deadline)

	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := WriteFrame(c.conn, payload); err != nil {
		return nil, c.ctxErr(ctx, err)
	}
	frame, err := ReadFrame(c.conn, c.maxFrame)
	if err != nil {
		return nil, c.ctxErr(ctx, err)
	}
	return ipc.UnmarshalResponse(frame)
}

// CloseObject releases a published object on the server.
func (c *Client) CloseObject(ctx context.Context, handle uint32) error {
	resp, err := c.Call(ctx, &ipc.Request{Object: handle, Command: ipc.CloseCommand})
	if err != nil {
		return err
	}
	if resp.Status.IsFailure() {
		return resp.Status
	}
	return nil
}

// Close closes the connection; the server disposes the session.
func (c *Client) Close() error {
	return c.conn.Close()
}

// ctxErr attributes a failed exchange to ctx when ctx ended it. The
// connection shares the context deadline and may time out a moment before
// ctx reports it.
func (c *Client) ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return errors.Wrap(errors.PhaseTransport, errors.KindIO, cerr, "call interrupted")
	}
	if deadline, ok := ctx.Deadline(); ok && stderrors.Is(err, os.ErrDeadlineExceeded) && !time.Now().Before(deadline) {
		return errors.Wrap(errors.PhaseTransport, errors.KindIO, context.DeadlineExceeded, "call interrupted")
	}
	return err
}
