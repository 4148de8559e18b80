package unixsock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"pkt.systems/pslog"

	"github.com/wfkpk/authgate/internal/adapters/ipc/wire"
	"github.com/wfkpk/authgate/internal/ports"
)

var errChannelClosed = errors.New("channel closed")

// channel is a live binding over one unix socket connection. A single read
// loop decodes response frames and routes them to pending invocations by
// request ID, so any number of operations may be in flight concurrently.
type channel struct {
	conn   net.Conn
	logger pslog.Base

	writeMu sync.Mutex
	enc     *json.Encoder

	dec *json.Decoder

	mu      sync.Mutex
	pending map[string]chan wire.Response
	closed  bool
}

func newChannel(conn net.Conn, enc *json.Encoder, dec *json.Decoder, logger pslog.Base) *channel {
	return &channel{
		conn:    conn,
		logger:  logger,
		enc:     enc,
		dec:     dec,
		pending: map[string]chan wire.Response{},
	}
}

// Invoke sends the request and blocks until the matching response arrives,
// the channel drops, or ctx is cancelled. No per-operation timeout is
// imposed here; a service that never replies holds the caller until its ctx
// says otherwise.
func (c *channel) Invoke(ctx context.Context, req ports.Request) (ports.Response, error) {
	frame := wire.RequestFrom(req)
	if frame.ID == "" {
		return ports.Response{}, errors.New("request id is empty")
	}

	reply := make(chan wire.Response, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ports.Response{}, errChannelClosed
	}
	c.pending[frame.ID] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, frame.ID)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.enc.Encode(frame)
	c.writeMu.Unlock()
	if err != nil {
		return ports.Response{}, fmt.Errorf("send %s request: %w", frame.Op, err)
	}

	select {
	case resp, ok := <-reply:
		if !ok {
			return ports.Response{}, errChannelClosed
		}
		return resp.ToPort(), nil
	case <-ctx.Done():
		return ports.Response{}, ctx.Err()
	}
}

// Close tears the connection down. The read loop observes the closed
// connection and fails any invocations still pending.
func (c *channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

// readLoop routes response frames to pending invocations until the
// connection drops, then fails every pending invocation and reports the
// disconnect exactly once.
func (c *channel) readLoop(onDisconnected func()) {
	for {
		var resp wire.Response
		if err := c.dec.Decode(&resp); err != nil {
			c.mu.Lock()
			alreadyClosed := c.closed
			c.closed = true
			for id, reply := range c.pending {
				close(reply)
				delete(c.pending, id)
			}
			c.mu.Unlock()
			_ = c.conn.Close()

			// A locally initiated Close is not a remote disconnect.
			if !alreadyClosed && onDisconnected != nil {
				c.logger.Debug("service connection dropped", "error", err)
				onDisconnected()
			}
			return
		}

		c.mu.Lock()
		reply, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()

		if !ok {
			c.logger.Debug("dropping uncorrelated response", "id", resp.ID)
			continue
		}
		reply <- resp
	}
}
