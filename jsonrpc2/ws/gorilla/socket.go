// Websocket persistent transport using Gorilla's Websocket library.
package gorilla

import (
	"context"
	"sync"

	"github.com/duplexrpc/duplexrpc/jsonrpc2"
	"github.com/gorilla/websocket"
)

var _ jsonrpc2.Socket = &Socket{}

// Dial connects to url and returns the socket already open. Unlike the
// gobwas implementation, the handshake happens before Dial returns.
func Dial(ctx context.Context, url string) (*Socket, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &Socket{
		conn:  conn,
		state: jsonrpc2.StateOpen,
	}, nil
}

// Socket is a client-side websocket transport over a gorilla connection.
type Socket struct {
	muWrite sync.Mutex
	conn    *websocket.Conn

	mu      sync.Mutex
	state   jsonrpc2.SocketState
	inbound func([]byte)
	reading bool
}

func (s *Socket) Send(payload []byte) error {
	s.muWrite.Lock()
	defer s.muWrite.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// OnInbound registers the sink and starts the read loop on first
// registration.
func (s *Socket) OnInbound(fn func([]byte)) {
	s.mu.Lock()
	s.inbound = fn
	start := !s.reading && s.state == jsonrpc2.StateOpen
	s.reading = start || s.reading
	s.mu.Unlock()
	if start {
		go s.readLoop()
	}
}

func (s *Socket) OnOpen(fn func()) {
	// Dialed sockets are born open, so the attempt has always settled.
	fn()
}

func (s *Socket) State() jsonrpc2.SocketState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Socket) Close() error {
	s.mu.Lock()
	s.state = jsonrpc2.StateClosed
	s.mu.Unlock()
	return s.conn.Close()
}

func (s *Socket) readLoop() {
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closed := s.state == jsonrpc2.StateClosed
			s.state = jsonrpc2.StateClosed
			s.mu.Unlock()
			if !closed && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Printf("Socket read failed: %s", err)
			}
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
