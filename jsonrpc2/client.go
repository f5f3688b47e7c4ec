package jsonrpc2

import (
	"encoding/json"
	"sync/atomic"
)

// Client constructs JSONRPC request envelopes and owns the call id sequence.
// Ids start at 1 and are strictly increasing for the lifetime of the client,
// so concurrent outstanding calls always correlate unambiguously.
type Client struct {
	id int64
}

func (c *Client) NextID() int64 {
	return atomic.AddInt64(&c.id, 1)
}

// Request builds a call envelope with the next id. Params are positional.
func (c *Client) Request(method string, params ...interface{}) (*Message, error) {
	msg := &Message{
		Request: &Request{
			Method: method,
		},
		Version: Version,
	}
	var err error
	if msg.ID, err = json.Marshal(c.NextID()); err != nil {
		return nil, err
	}
	if len(params) > 0 {
		if msg.Request.Params, err = json.Marshal(params); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

// Notification builds an envelope without an id. No response is expected, and
// the id sequence is not advanced.
func (c *Client) Notification(method string, params ...interface{}) (*Message, error) {
	msg := &Message{
		Request: &Request{
			Method: method,
		},
		Version: Version,
	}
	if len(params) > 0 {
		var err error
		if msg.Request.Params, err = json.Marshal(params); err != nil {
			return nil, err
		}
	}
	return msg, nil
}
