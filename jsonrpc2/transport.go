package jsonrpc2

import "context"

// SocketState is the liveness of a persistent transport handle.
type SocketState int

const (
	StateConnecting SocketState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s SocketState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Socket is a persistent bidirectional transport. A socket can push payloads
// to the client without a preceding request.
type Socket interface {
	// Send delivers one payload. The socket must be open.
	Send(payload []byte) error
	// OnInbound registers the sink for pushed payloads. Each socket has
	// exactly one sink; registering again replaces it.
	OnInbound(fn func(payload []byte))
	// OnOpen registers a callback for when the connection attempt settles.
	// A socket that is already open invokes the callback immediately. A
	// socket whose connection failed or died also invokes it, so a deferred
	// Send observes the dead state and fails instead of waiting forever.
	OnOpen(fn func())
	// State reports the socket's liveness. A closing or closed socket must be
	// discarded.
	State() SocketState
	Close() error
}

// Dialer obtains a new persistent transport handle. The returned socket may
// still be connecting; it is guaranteed to honor OnOpen.
type Dialer func() (Socket, error)

// Poster is a request/response transport: every inbound body is the direct
// reply to a single posted body. Failures at the transport layer return
// *HTTPRequestError so the raw failure body stays available to the caller.
type Poster interface {
	Post(ctx context.Context, body []byte) ([]byte, error)
}
