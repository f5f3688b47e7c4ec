package jsonrpc2

// batchEntry is one staged call or notification. Notifications carry no id
// and no continuations.
type batchEntry struct {
	msg      *Message
	onResult ResultFunc
	onError  ErrorFunc
}

// batch accumulates calls made over the request/response path between
// StartBatch and EndBatch. The dispatcher holds at most one; a nil pointer
// means no batch is open.
type batch struct {
	entries []batchEntry
}

func (b *batch) add(entry batchEntry) {
	b.entries = append(b.entries, entry)
}

// messages returns the staged envelopes in arrival order, for encoding as one
// array-valued request body.
func (b *batch) messages() []*Message {
	msgs := make([]*Message, 0, len(b.entries))
	for _, entry := range b.entries {
		msgs = append(msgs, entry.msg)
	}
	return msgs
}

// handlers derives the id-keyed routing map for the batch's response array.
// Notifications are skipped: they have no id and expect no response element.
func (b *batch) handlers() map[string]batchEntry {
	m := make(map[string]batchEntry, len(b.entries))
	for _, entry := range b.entries {
		key := idKey(entry.msg.ID)
		if key == "" {
			continue
		}
		m[key] = entry
	}
	return m
}
