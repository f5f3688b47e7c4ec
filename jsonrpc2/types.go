package jsonrpc2

import (
	"encoding/json"
	"fmt"
)

const Version = "2.0"

const (
	ErrCodeParse          = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
	ErrCodeServer         = -32000
)

// Request is the method-carrying half of a Message. A request with an id
// expects a response; one without an id is a notification.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the result-carrying half of a Message. Exactly one of Result or
// Error is set.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrResponse    `json:"error,omitempty"`
}

// ErrResponse is a JSONRPC 2.0 error object, surfaced verbatim from the
// server.
type ErrResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (err *ErrResponse) Error() string {
	return fmt.Sprintf("%d: %s", err.Code, err.Message)
}

func (err *ErrResponse) ErrorCode() int {
	return err.Code
}

// Message is the flattened JSONRPC 2.0 wire envelope. Unmarshaling classifies
// the payload: Request is set when a method member is present, Response when a
// result or error member is present, and neither for anything else.
type Message struct {
	ID      json.RawMessage
	Version string
	*Request
	*Response
}

// wireMessage is the flat encoding of a Message. Field order matches the wire
// layout emitted by MarshalJSON.
type wireMessage struct {
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrResponse    `json:"error,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Version string          `json:"jsonrpc,omitempty"`
}

func (m *Message) MarshalJSON() ([]byte, error) {
	wire := wireMessage{
		ID:      m.ID,
		Version: m.Version,
	}
	if m.Request != nil {
		wire.Method = m.Request.Method
		wire.Params = m.Request.Params
	}
	if m.Response != nil {
		wire.Result = m.Response.Result
		wire.Error = m.Response.Error
	}
	return json.Marshal(wire)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.ID = wire.ID
	m.Version = wire.Version
	m.Request, m.Response = nil, nil
	if wire.Method != "" {
		m.Request = &Request{Method: wire.Method, Params: wire.Params}
	}
	if wire.Result != nil || wire.Error != nil {
		m.Response = &Response{Result: wire.Result, Error: wire.Error}
	}
	return nil
}

func (m *Message) String() string {
	out, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("failed to render message: %s", err)
	}
	return string(out)
}

// UnmarshalResult loads the response's result into the given value, or
// returns the response error if there is one. A nil target discards the
// result.
func (r *Response) UnmarshalResult(result interface{}) error {
	if r.Error != nil {
		return r.Error
	}
	if result == nil || len(r.Result) == 0 || string(r.Result) == "null" {
		return nil
	}
	return json.Unmarshal(r.Result, result)
}
