package jsonrpc2

import (
	"bufio"
	"io"
	"sync"
)

// maxStreamPayload bounds a single line-framed payload.
const maxStreamPayload = 1 << 20

var _ Socket = &StreamSocket{}

// IOSocket wraps a raw stream as an always-open Socket, framing one payload
// per line. Useful for pipes and stdio transports, and for testing the
// dispatcher against an in-process peer.
func IOSocket(rwc io.ReadWriteCloser) *StreamSocket {
	return &StreamSocket{
		rwc:   rwc,
		state: StateOpen,
	}
}

// StreamSocket is a Socket over an io.ReadWriteCloser. The read loop starts
// when the inbound sink is registered.
type StreamSocket struct {
	mu      sync.Mutex
	rwc     io.ReadWriteCloser
	state   SocketState
	inbound func([]byte)
	reading bool
}

func (s *StreamSocket) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen {
		return io.ErrClosedPipe
	}
	if _, err := s.rwc.Write(payload); err != nil {
		return err
	}
	if _, err := s.rwc.Write([]byte{'\n'}); err != nil {
		return err
	}
	return nil
}

func (s *StreamSocket) OnInbound(fn func([]byte)) {
	s.mu.Lock()
	s.inbound = fn
	start := !s.reading && s.state == StateOpen
	s.reading = start || s.reading
	s.mu.Unlock()
	if start {
		go s.readLoop()
	}
}

func (s *StreamSocket) OnOpen(fn func()) {
	// A stream socket never connects asynchronously, so the callback can
	// always run right away.
	fn()
}

func (s *StreamSocket) State() SocketState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *StreamSocket) Close() error {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	return s.rwc.Close()
}

func (s *StreamSocket) readLoop() {
	scanner := bufio.NewScanner(s.rwc)
	scanner.Buffer(nil, maxStreamPayload)
	for scanner.Scan() {
		payload := make([]byte, len(scanner.Bytes()))
		copy(payload, scanner.Bytes())
		s.mu.Lock()
		fn := s.inbound
		s.mu.Unlock()
		if fn == nil {
			logger.Printf("Dropping stream payload with no inbound sink: %s", payload)
			continue
		}
		fn(payload)
	}
	s.mu.Lock()
	if s.state == StateOpen {
		s.state = StateClosed
	}
	s.mu.Unlock()
	if err := scanner.Err(); err != nil && err != io.ErrClosedPipe {
		logger.Printf("Stream read failed: %s", err)
	}
}
