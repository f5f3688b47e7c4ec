package jsonrpc2

import "sync"

// pendingCall holds the continuations for one outstanding call.
type pendingCall struct {
	onResult ResultFunc
	onError  ErrorFunc
}

// pendingCalls maps request id keys to outstanding calls. Entries are removed
// before either continuation runs, so a response resolves at most once and
// re-entrant dispatch from within a continuation never observes a stale entry.
type pendingCalls struct {
	mu    sync.Mutex
	calls map[string]pendingCall
}

func (p *pendingCalls) register(key string, onResult ResultFunc, onError ErrorFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = map[string]pendingCall{}
	}
	p.calls[key] = pendingCall{onResult: onResult, onError: onError}
}

// take removes and returns the entry for key, if any.
func (p *pendingCalls) take(key string) (pendingCall, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	call, ok := p.calls[key]
	if ok {
		delete(p.calls, key)
	}
	return call, ok
}

func (p *pendingCalls) has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.calls[key]
	return ok
}

// resolve consumes the entry for key and invokes its success continuation.
// Returns false without invoking anything if no entry exists.
func (p *pendingCalls) resolve(key string, result []byte) bool {
	call, ok := p.take(key)
	if !ok {
		return false
	}
	if call.onResult != nil {
		call.onResult(result)
	}
	return true
}

// reject consumes the entry for key and invokes its error continuation.
// Returns false without invoking anything if no entry exists.
func (p *pendingCalls) reject(key string, err error) bool {
	call, ok := p.take(key)
	if !ok {
		return false
	}
	if call.onError != nil {
		call.onError(err)
	}
	return true
}
