package jsonrpc2

import (
	"errors"
	"fmt"
)

// ErrNoTransport is returned synchronously when a dispatcher has neither a
// socket dialer nor a request/response endpoint configured. This is a
// configuration mistake, not a runtime failure.
var ErrNoTransport = errors.New("no transport configured: need a Dial or HTTP collaborator")

// HTTPRequestError is used when a request/response exchange fails at the
// transport layer. Body carries the raw failure body, which may still contain
// an embedded JSONRPC error object.
type HTTPRequestError struct {
	Status int
	Body   []byte
	Reason string
}

func (err *HTTPRequestError) Error() string {
	return fmt.Sprintf("http rpc request error: %s", err.Reason)
}

// ReplyError is used when an exchange succeeds at the transport layer but the
// reply body cannot be interpreted as JSONRPC. Body carries the raw reply.
type ReplyError struct {
	Body   []byte
	Reason string
}

func (err *ReplyError) Error() string {
	return fmt.Sprintf("bad rpc reply: %s", err.Reason)
}
