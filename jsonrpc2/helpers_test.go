package jsonrpc2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeSocket is a scriptable persistent transport for dispatcher tests.
type fakeSocket struct {
	mu      sync.Mutex
	state   SocketState
	sent    []Message
	inbound func([]byte)
	opened  []func()
	sinks   int
	sendErr error
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{state: StateOpen}
}

func (s *fakeSocket) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	if s.state != StateOpen {
		return fmt.Errorf("cannot send on %s socket", s.state)
	}
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSocket) OnInbound(fn func([]byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbound = fn
	s.sinks++
}

func (s *fakeSocket) OnOpen(fn func()) {
	s.mu.Lock()
	state := s.state
	if state == StateConnecting {
		s.opened = append(s.opened, fn)
	}
	s.mu.Unlock()
	if state != StateConnecting {
		fn()
	}
}

func (s *fakeSocket) State() SocketState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
	return nil
}

// open transitions a connecting socket to open, firing deferred callbacks.
func (s *fakeSocket) open() {
	s.mu.Lock()
	s.state = StateOpen
	opened := s.opened
	s.opened = nil
	s.mu.Unlock()
	for _, fn := range opened {
		fn()
	}
}

// fail transitions a connecting socket to closed, firing deferred callbacks
// against the dead handle.
func (s *fakeSocket) fail() {
	s.mu.Lock()
	s.state = StateClosed
	opened := s.opened
	s.opened = nil
	s.mu.Unlock()
	for _, fn := range opened {
		fn()
	}
}

// push delivers an inbound payload to the registered sink.
func (s *fakeSocket) push(t *testing.T, payload string) {
	t.Helper()
	s.mu.Lock()
	fn := s.inbound
	s.mu.Unlock()
	if fn == nil {
		t.Fatal("no inbound sink registered")
	}
	fn([]byte(payload))
}

func (s *fakeSocket) sentMessages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message{}, s.sent...)
}

// fakePoster records posted bodies and replies from a scripted function.
type fakePoster struct {
	mu      sync.Mutex
	posted  [][]byte
	respond func(body []byte) ([]byte, error)
}

func (p *fakePoster) Post(ctx context.Context, body []byte) ([]byte, error) {
	p.mu.Lock()
	p.posted = append(p.posted, body)
	respond := p.respond
	p.mu.Unlock()
	if respond == nil {
		return nil, errors.New("no response scripted")
	}
	return respond(body)
}

func (p *fakePoster) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.posted)
}

func waitResult(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result continuation")
		return ""
	}
}

func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error continuation")
		return nil
	}
}

// collectResult adapts a continuation pair into channels.
func collectResult() (ResultFunc, ErrorFunc, chan string, chan error) {
	resultCh := make(chan string, 1)
	errCh := make(chan error, 1)
	onResult := func(result json.RawMessage) { resultCh <- string(result) }
	onError := func(err error) { errCh <- err }
	return onResult, onError, resultCh, errCh
}

func noResult(t *testing.T) ResultFunc {
	return func(result json.RawMessage) {
		t.Errorf("unexpected result continuation: %s", result)
	}
}

func noError(t *testing.T) ErrorFunc {
	return func(err error) {
		t.Errorf("unexpected error continuation: %s", err)
	}
}
