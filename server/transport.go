package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ErrConnClosed is returned by Conn.ReadMessage once the peer has closed the
// stream, matching a websocket.Conn's end-of-stream behavior so Processor's
// run loop can treat it the same way regardless of transport.
var ErrConnClosed = errors.New("connection closed")

// Conn abstracts one client's duplex frame stream so Processor never
// touches *websocket.Conn directly, grounded on the teacher's websocket.go
// hub/connection split (there, a *Client wraps *websocket.Conn behind
// readPump/writePump; here the same separation lets tests drive Processor
// with an in-memory fake instead of a real socket).
type Conn struct {
	io connIO
}

// connIO is the part of Conn that differs between transports.
type connIO interface {
	ReadMessage() (Request, error)
	WriteMessage(Response) error
	Close() error
}

func (c *Conn) ReadMessage() (Request, error) { return c.io.ReadMessage() }
func (c *Conn) WriteMessage(r Response) error { return c.io.WriteMessage(r) }
func (c *Conn) Close() error                  { return c.io.Close() }

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsConn is the real transport: a gorilla/websocket connection carrying one
// JSON Request/Response per text frame, per spec.md §6's "length-delimited
// textual frames (JSON)".
type wsConn struct {
	conn *websocket.Conn
}

// Upgrade promotes an HTTP request to a websocket connection, the same
// upgrader configuration the teacher's websocket.go uses (origin checks
// disabled, since this is an internal tool server rather than a public
// site).
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	c.SetReadDeadline(time.Time{})
	return &Conn{io: &wsConn{conn: c}}, nil
}

func (w *wsConn) ReadMessage() (Request, error) {
	var req Request
	_, data, err := w.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return Request{}, ErrConnClosed
		}
		return Request{}, err
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (w *wsConn) WriteMessage(resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

// fakeConn is an in-memory Conn for tests: Request frames are pulled off an
// inbound channel, Response frames pushed onto an outbound channel. Reading
// after Close, or once the inbound channel is drained and closed, reports
// ErrConnClosed.
type fakeConn struct {
	inbound  chan Request
	outbound chan Response
	closed   chan struct{}
}

// NewFakeConn returns a Conn plus the channels a test uses to feed it
// requests and observe responses, grounded on the teacher's harness_test.go
// style of exercising hub logic without a real socket.
func NewFakeConn() (*Conn, chan<- Request, <-chan Response) {
	f := &fakeConn{
		inbound:  make(chan Request, 16),
		outbound: make(chan Response, 16),
		closed:   make(chan struct{}),
	}
	return &Conn{io: f}, f.inbound, f.outbound
}

func (f *fakeConn) ReadMessage() (Request, error) {
	select {
	case req, ok := <-f.inbound:
		if !ok {
			return Request{}, ErrConnClosed
		}
		return req, nil
	case <-f.closed:
		return Request{}, ErrConnClosed
	}
}

func (f *fakeConn) WriteMessage(resp Response) error {
	select {
	case f.outbound <- resp:
		return nil
	case <-f.closed:
		return ErrConnClosed
	}
}

func (f *fakeConn) Close() error {
	select {
	case <-f.closed:
	default:
		close(f.closed)
	}
	return nil
}
