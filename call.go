package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/duplexrpc/duplexrpc/jsonrpc2"
	"github.com/duplexrpc/duplexrpc/jsonrpc2/ws"
	"github.com/duplexrpc/duplexrpc/jsonrpc2/ws/gorilla"
)

// newDispatcher wires a dispatcher to the endpoint: websocket schemes get a
// persistent-transport dialer, HTTP schemes get the request/response service.
func newDispatcher(endpoint string, wsLib string) (*jsonrpc2.Dispatcher, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	d := &jsonrpc2.Dispatcher{
		OnMessage: func(payload []byte) {
			logger.Debugf("Ignoring non-response message: %s", payload)
		},
	}
	switch u.Scheme {
	case "ws", "wss":
		switch wsLib {
		case "gorilla":
			d.Dial = func() (jsonrpc2.Socket, error) {
				ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
				defer cancel()
				return gorilla.Dial(ctx, endpoint)
			}
		case "gobwas", "":
			d.Dial = func() (jsonrpc2.Socket, error) {
				ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
				defer cancel()
				return ws.DialOpen(ctx, endpoint)
			}
		default:
			return nil, fmt.Errorf("unknown websocket implementation: %q", wsLib)
		}
	case "http", "https":
		d.HTTP = &jsonrpc2.HTTPService{Endpoint: endpoint}
	default:
		return nil, fmt.Errorf("unsupported endpoint scheme: %q", u.Scheme)
	}
	return d, nil
}

// parseParams decodes each argument as JSON, falling back to a plain string.
func parseParams(args []string) []interface{} {
	params := make([]interface{}, 0, len(args))
	for _, arg := range args {
		var v interface{}
		if err := json.Unmarshal([]byte(arg), &v); err != nil {
			v = arg
		}
		params = append(params, v)
	}
	return params
}

func runCall(options Options) error {
	d, err := newDispatcher(options.Call.URL, options.Call.WSLib)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	logger.Infof("Calling %q on %s", options.Call.Args.Method, options.Call.URL)
	rpc := jsonrpc2.SyncService{Dispatcher: d}
	var result json.RawMessage
	if err := rpc.Call(ctx, &result, options.Call.Args.Method, parseParams(options.Call.Args.Params)...); err != nil {
		return err
	}
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	fmt.Println(string(result))
	return nil
}

func runNotify(options Options) error {
	d, err := newDispatcher(options.Notify.URL, options.Notify.WSLib)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	logger.Infof("Notifying %q on %s", options.Notify.Args.Method, options.Notify.URL)
	return d.Notify(ctx, options.Notify.Args.Method, parseParams(options.Notify.Args.Params)...)
}

func runBatch(options Options) error {
	d, err := newDispatcher(options.Batch.URL, "")
	if err != nil {
		return err
	}
	if d.HTTP == nil {
		return fmt.Errorf("batching requires a request/response endpoint, got: %s", options.Batch.URL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	d.StartBatch()
	staged := 0
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		method := fields[0]
		err := d.Call(ctx, func(result json.RawMessage) {
			fmt.Printf("%s: %s\n", method, result)
		}, func(err error) {
			fmt.Printf("%s: error: %s\n", method, err)
		}, method, parseParams(fields[1:])...)
		if err != nil {
			return err
		}
		staged++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if staged == 0 {
		logger.Warning("Empty batch, nothing to send.")
		return nil
	}

	logger.Infof("Sending batch of %d to %s", staged, options.Batch.URL)
	errChan := make(chan error, 1)
	d.EndBatch(ctx,
		func(result json.RawMessage) { errChan <- nil },
		func(err error) { errChan <- err })
	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
