// Websocket persistent transport using the gobwas/ws library.
package ws

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"sync"

	"github.com/duplexrpc/duplexrpc/jsonrpc2"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

var _ jsonrpc2.Socket = &Socket{}

// Dial starts connecting to url in the background and returns the socket
// immediately in the connecting state. Sends issued before the handshake
// completes should be deferred through OnOpen.
func Dial(ctx context.Context, url string) *Socket {
	sock := &Socket{state: jsonrpc2.StateConnecting}
	go sock.connect(ctx, url)
	return sock
}

// DialOpen connects to url and blocks until the socket is open, returning
// the handshake error directly. Useful for short-lived callers that want
// deterministic connection failures instead of a deferred open.
func DialOpen(ctx context.Context, url string) (*Socket, error) {
	conn, _, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	sock := newSocket(conn)
	go sock.readLoop()
	return sock, nil
}

// Socket is a client-side websocket transport. Payloads map to single text
// frames.
type Socket struct {
	mu      sync.Mutex
	conn    net.Conn
	r       *wsutil.Reader
	w       *wsutil.Writer
	state   jsonrpc2.SocketState
	inbound func([]byte)
	opened  []func()
}

// newSocket wraps an established client-side connection as an open socket.
// The caller starts the read loop.
func newSocket(conn net.Conn) *Socket {
	return &Socket{
		conn:  conn,
		r:     wsutil.NewReader(conn, ws.StateClientSide),
		w:     wsutil.NewWriter(conn, ws.StateClientSide, ws.OpText),
		state: jsonrpc2.StateOpen,
	}
}

func (s *Socket) connect(ctx context.Context, url string) {
	conn, _, _, err := ws.Dial(ctx, url)
	if err != nil {
		s.mu.Lock()
		s.state = jsonrpc2.StateClosed
		opened := s.opened
		s.opened = nil
		s.mu.Unlock()
		logger.Printf("Dial %s failed: %s", url, err)
		// Queued callbacks still run against the closed socket, so a
		// deferred send fails instead of waiting forever.
		for _, fn := range opened {
			fn()
		}
		return
	}
	s.mu.Lock()
	s.conn = conn
	s.r = wsutil.NewReader(conn, ws.StateClientSide)
	s.w = wsutil.NewWriter(conn, ws.StateClientSide, ws.OpText)
	s.state = jsonrpc2.StateOpen
	opened := s.opened
	s.opened = nil
	s.mu.Unlock()
	for _, fn := range opened {
		fn()
	}
	s.readLoop()
}

func (s *Socket) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != jsonrpc2.StateOpen {
		return fmt.Errorf("cannot send on %s socket", s.state)
	}
	if _, err := s.w.Write(payload); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *Socket) OnInbound(fn func([]byte)) {
	s.mu.Lock()
	s.inbound = fn
	s.mu.Unlock()
}

func (s *Socket) OnOpen(fn func()) {
	s.mu.Lock()
	state := s.state
	if state == jsonrpc2.StateConnecting {
		s.opened = append(s.opened, fn)
	}
	s.mu.Unlock()
	// Any settled state invokes the callback right away, dead sockets
	// included.
	if state != jsonrpc2.StateConnecting {
		fn()
	}
}

func (s *Socket) State() jsonrpc2.SocketState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Socket) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.state = jsonrpc2.StateClosed
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (s *Socket) readLoop() {
	for {
		hdr, err := s.r.NextFrame()
		if err != nil {
			s.shutdown(err)
			return
		}
		if hdr.OpCode == ws.OpClose {
			s.shutdown(nil)
			return
		}
		payload, err := ioutil.ReadAll(s.r)
		if err != nil {
			s.shutdown(err)
			return
		}
		s.mu.Lock()
		fn := s.inbound
		s.mu.Unlock()
		if fn == nil {
			logger.Printf("Dropping inbound payload with no sink: %s", payload)
			continue
		}
		fn(payload)
	}
}

func (s *Socket) shutdown(err error) {
	s.mu.Lock()
	conn := s.conn
	closed := s.state == jsonrpc2.StateClosed
	s.state = jsonrpc2.StateClosed
	s.mu.Unlock()
	if !closed && conn != nil {
		conn.Close()
	}
	if err != nil && err != io.EOF && !closed {
		logger.Printf("Socket read failed: %s", err)
	}
}
