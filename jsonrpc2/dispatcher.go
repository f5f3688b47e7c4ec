package jsonrpc2

import (
	"context"
	"encoding/json"
	"sync"
)

// ResultFunc receives the raw result of a completed call.
type ResultFunc func(result json.RawMessage)

// ErrorFunc receives the failure of a call. The error is *ErrResponse when
// the server returned a JSONRPC error object, otherwise a transport error
// such as *HTTPRequestError.
type ErrorFunc func(err error)

// Dispatcher issues JSONRPC 2.0 calls over a persistent socket when one can
// be obtained, falling back to a request/response transport. All correlation
// state is owned per instance; the zero value is usable once a transport
// collaborator is set.
type Dispatcher struct {
	// Dial obtains a new persistent transport handle. Optional.
	Dial Dialer

	// HTTP is the request/response transport. Optional, but calls fail with
	// ErrNoTransport when neither collaborator is configured.
	HTTP Poster

	// OnMessage receives raw socket payloads that are not JSONRPC 2.0
	// responses. Optional; unhandled payloads are logged.
	OnMessage func(payload []byte)

	client  Client
	pending pendingCalls

	mu     sync.Mutex
	socket Socket
	batch  *batch
}

// socketHandle returns a live persistent transport handle, dialing a new one
// if the cached handle is closing or gone. Returns nil when the persistent
// path is unavailable and the caller should fall back.
func (d *Dispatcher) socketHandle() Socket {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.socket != nil && d.socket.State() <= StateOpen {
		return d.socket
	}
	d.socket = nil
	if d.Dial == nil {
		return nil
	}
	sock, err := d.Dial()
	if err != nil {
		logger.Printf("Socket dial failed, falling back to request/response transport: %s", err)
		return nil
	}
	// The inbound sink is registered once per handle, here and nowhere else.
	sock.OnInbound(d.routeInbound)
	d.socket = sock
	return sock
}

// sendSocket delivers payload over the handle, deferring through OnOpen while
// the socket is still connecting. The pending entry under key is rejected if
// a deferred send fails.
func (d *Dispatcher) sendSocket(sock Socket, payload []byte, key string) error {
	if sock.State() == StateConnecting {
		sock.OnOpen(func() {
			if err := sock.Send(payload); err != nil {
				logger.Printf("Deferred socket send failed: %s", err)
				if key != "" {
					d.pending.reject(key, err)
				}
			}
		})
		return nil
	}
	return sock.Send(payload)
}

// Call invokes method and routes the eventual outcome to exactly one of the
// two continuations. The socket path registers the call as pending and sends
// immediately, bypassing any open batch. The request/response path stages the
// call while a batch is open, otherwise it exchanges on its own goroutine.
// Only configuration and encoding errors are returned synchronously.
func (d *Dispatcher) Call(ctx context.Context, onResult ResultFunc, onError ErrorFunc, method string, params ...interface{}) error {
	msg, err := d.client.Request(method, params...)
	if err != nil {
		return err
	}
	key := idKey(msg.ID)

	if sock := d.socketHandle(); sock != nil {
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		// Register before sending: a response can arrive before Send returns.
		d.pending.register(key, onResult, onError)
		if err := d.sendSocket(sock, payload, key); err != nil {
			d.pending.take(key)
			return err
		}
		return nil
	}

	if d.HTTP == nil {
		return ErrNoTransport
	}

	d.mu.Lock()
	if d.batch != nil {
		d.batch.add(batchEntry{msg: msg, onResult: onResult, onError: onError})
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	go d.exchange(ctx, msg, onResult, onError)
	return nil
}

// Notify invokes method without expecting a response. No pending entry is
// registered, so even an echoed response resolves nothing. On the
// request/response path without an open batch, the post happens inline and
// transport failures are returned.
func (d *Dispatcher) Notify(ctx context.Context, method string, params ...interface{}) error {
	msg, err := d.client.Notification(method, params...)
	if err != nil {
		return err
	}

	if sock := d.socketHandle(); sock != nil {
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		return d.sendSocket(sock, payload, "")
	}

	if d.HTTP == nil {
		return ErrNoTransport
	}

	d.mu.Lock()
	if d.batch != nil {
		d.batch.add(batchEntry{msg: msg})
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, err := d.HTTP.Post(ctx, body); err != nil {
		return err
	}
	return nil
}

// StartBatch begins staging request/response calls into a single batched
// exchange. Starting while a batch is already open is a no-op; the open batch
// keeps accumulating. Socket calls are never batched.
func (d *Dispatcher) StartBatch() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.batch == nil {
		d.batch = &batch{}
	}
}

// EndBatch sends the staged batch as one array-valued exchange. The batch is
// swapped out before any I/O, so calls issued from within a completion
// continuation land outside it. With no open batch, or an empty one, EndBatch
// does nothing and neither callback fires. onDone receives the full raw
// response array once every element has been routed, even if some elements
// failed to correlate.
func (d *Dispatcher) EndBatch(ctx context.Context, onDone ResultFunc, onError ErrorFunc) {
	d.mu.Lock()
	b := d.batch
	d.batch = nil
	d.mu.Unlock()
	if b == nil || len(b.entries) == 0 {
		return
	}
	go d.exchangeBatch(ctx, b, onDone, onError)
}

// exchange performs one single-call request/response round trip and routes
// the outcome. A transport-layer failure still gets a best-effort extraction
// of an embedded JSONRPC error object before surfacing the raw failure.
func (d *Dispatcher) exchange(ctx context.Context, msg *Message, onResult ResultFunc, onError ErrorFunc) {
	fail := func(err error) {
		if onError != nil {
			onError(err)
		} else {
			logger.Printf("Call %q failed with no error continuation: %s", msg.Request.Method, err)
		}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		fail(err)
		return
	}
	respBody, err := d.HTTP.Post(ctx, body)
	if err != nil {
		fail(extractError(err))
		return
	}
	var resp Message
	if err := json.Unmarshal(respBody, &resp); err != nil || resp.Response == nil {
		fail(&ReplyError{Body: respBody, Reason: "missing response in reply body"})
		return
	}
	if resp.Error != nil {
		fail(resp.Error)
		return
	}
	if onResult != nil {
		onResult(resp.Result)
	}
}

// exchangeBatch sends the staged entries as one array body and routes the
// response array back through the batch's handler map.
func (d *Dispatcher) exchangeBatch(ctx context.Context, b *batch, onDone ResultFunc, onError ErrorFunc) {
	fail := func(err error) {
		if onError != nil {
			onError(err)
		} else {
			logger.Printf("Batch of %d failed with no error continuation: %s", len(b.entries), err)
		}
	}

	body, err := json.Marshal(b.messages())
	if err != nil {
		fail(err)
		return
	}
	respBody, err := d.HTTP.Post(ctx, body)
	if err != nil {
		fail(extractError(err))
		return
	}
	var resps []Message
	if err := json.Unmarshal(respBody, &resps); err != nil {
		fail(&ReplyError{Body: respBody, Reason: "malformed batch reply body"})
		return
	}
	routeBatchResponse(b.handlers(), resps)
	if onDone != nil {
		onDone(respBody)
	}
}

// extractError recovers an embedded JSONRPC error object from a failed
// exchange's body, falling back to the transport error itself.
func extractError(err error) error {
	httpErr, ok := err.(*HTTPRequestError)
	if !ok || len(httpErr.Body) == 0 {
		return err
	}
	var msg Message
	if jsonErr := json.Unmarshal(httpErr.Body, &msg); jsonErr != nil {
		return err
	}
	if msg.Response != nil && msg.Response.Error != nil {
		return msg.Response.Error
	}
	return err
}

// Close discards the cached socket handle, if any.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	sock := d.socket
	d.socket = nil
	d.mu.Unlock()
	if sock == nil {
		return nil
	}
	return sock.Close()
}
