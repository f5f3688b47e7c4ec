package jsonrpc2

import (
	"bytes"
	"encoding/json"
)

// idKey normalizes a raw id for use as a correlation key. An empty key means
// the id is absent or null: a response carrying one cannot be attributed to
// any call and is only ever logged.
func idKey(raw json.RawMessage) string {
	id := string(bytes.TrimSpace(raw))
	if id == "" || id == "null" {
		return ""
	}
	return id
}

// routeInbound handles one payload pushed from the persistent transport.
// Anything that does not decode as a JSONRPC 2.0 response falls through to
// the external message handler verbatim.
func (d *Dispatcher) routeInbound(payload []byte) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil || msg.Version != Version || msg.Response == nil {
		d.forward(payload)
		return
	}
	d.routeResponse(&msg)
}

func (d *Dispatcher) forward(payload []byte) {
	if d.OnMessage != nil {
		d.OnMessage(payload)
		return
	}
	logger.Printf("Dropping non-response message: %s", payload)
}

// routeResponse resolves a response against the pending call registry. A
// response whose id is null or unknown is dropped permanently: there is no
// continuation left to invoke and no retry.
func (d *Dispatcher) routeResponse(msg *Message) {
	key := idKey(msg.ID)
	if key == "" {
		logger.Printf("Dropping unattributable response: %s", msg)
		return
	}
	if msg.Error != nil {
		if !d.pending.reject(key, msg.Error) {
			logger.Printf("Dropping error response with unknown id %s: %s", key, msg)
		}
		return
	}
	if !d.pending.resolve(key, msg.Result) {
		logger.Printf("Dropping response with unknown id %s: %s", key, msg)
	}
}

// routeBatchResponse routes each element of a batch response array to the
// handler staged for its id. Elements with a null or unknown id are logged
// and skipped; they never abort the rest of the batch.
func routeBatchResponse(handlers map[string]batchEntry, msgs []Message) {
	for i := range msgs {
		msg := &msgs[i]
		if msg.Response == nil || msg.Version != Version {
			logger.Printf("Skipping non-response element in batch reply: %s", msg)
			continue
		}
		key := idKey(msg.ID)
		entry, ok := handlers[key]
		if key == "" || !ok {
			logger.Printf("Skipping unmatched batch response: %s", msg)
			continue
		}
		delete(handlers, key)
		if msg.Error != nil {
			if entry.onError != nil {
				entry.onError(msg.Error)
			}
			continue
		}
		if entry.onResult != nil {
			entry.onResult(msg.Result)
		}
	}
}
