package jsonrpc2

import (
	"context"
	"encoding/json"
)

// Service represents a remote endpoint that can be called synchronously.
type Service interface {
	Call(ctx context.Context, result interface{}, method string, params ...interface{}) error
}

var _ Service = SyncService{}

// SyncService adapts a Dispatcher to the synchronous Service interface by
// bridging the continuations over a channel. Abandoning the wait on context
// cancellation leaves the underlying call pending; there is no way to
// withdraw it.
type SyncService struct {
	*Dispatcher
}

func (s SyncService) Call(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	type outcome struct {
		result json.RawMessage
		err    error
	}
	outCh := make(chan outcome, 1)
	err := s.Dispatcher.Call(ctx,
		func(result json.RawMessage) { outCh <- outcome{result: result} },
		func(err error) { outCh <- outcome{err: err} },
		method, params...)
	if err != nil {
		return err
	}

	select {
	case out := <-outCh:
		if out.err != nil {
			return out.err
		}
		if result == nil || len(out.result) == 0 || string(out.result) == "null" {
			return nil
		}
		return json.Unmarshal(out.result, result)
	case <-ctx.Done():
		return ctx.Err()
	}
}
