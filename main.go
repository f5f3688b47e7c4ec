package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/alexcesaro/log"
	"github.com/alexcesaro/log/golog"
	flags "github.com/jessevdk/go-flags"

	"github.com/duplexrpc/duplexrpc/jsonrpc2"
	"github.com/duplexrpc/duplexrpc/jsonrpc2/ws"
	"github.com/duplexrpc/duplexrpc/jsonrpc2/ws/gorilla"
)

// Version of the binary, assigned during build.
var Version string = "dev"

var rpcTimeout = time.Second * 10

// Options contains the flag options
type Options struct {
	Verbose []bool `short:"v" long:"verbose" description:"Show verbose logging."`
	Version bool   `long:"version" description:"Print version and exit."`

	Call struct {
		Args struct {
			Method string   `positional-arg-name:"method" description:"Method name to invoke."`
			Params []string `positional-arg-name:"params" description:"Positional params, each parsed as JSON with a plain-string fallback."`
		} `positional-args:"yes" required:"yes"`
		URL   string `long:"url" description:"RPC endpoint. (ws://|wss://|http://|https://)" required:"yes"`
		WSLib string `long:"ws-lib" description:"Websocket implementation. (gobwas|gorilla)" default:"gobwas"`
	} `command:"call" description:"Invoke a method and print its result."`

	Notify struct {
		Args struct {
			Method string   `positional-arg-name:"method" description:"Method name to notify."`
			Params []string `positional-arg-name:"params" description:"Positional params, each parsed as JSON with a plain-string fallback."`
		} `positional-args:"yes" required:"yes"`
		URL   string `long:"url" description:"RPC endpoint. (ws://|wss://|http://|https://)" required:"yes"`
		WSLib string `long:"ws-lib" description:"Websocket implementation. (gobwas|gorilla)" default:"gobwas"`
	} `command:"notify" description:"Send a notification; no response is expected."`

	Batch struct {
		URL string `long:"url" description:"RPC endpoint for the batched exchange. (http://|https://)" required:"yes"`
	} `command:"batch" description:"Read one call per line from stdin and send them as a single batch."`
}

const batchUsage = `Example:
  $ echo 'eth_blockNumber
  net_version' | duplexrpc batch --url "https://rpc.example.org/"

Each line is a method name followed by optional params.
`

var logLevels = []log.Level{
	log.Warning,
	log.Info,
	log.Debug,
}

func subcommand(cmd string, options Options) error {
	switch cmd {
	case "call":
		return runCall(options)
	case "notify":
		return runNotify(options)
	case "batch":
		return runBatch(options)
	}
	return fmt.Errorf("unknown command: %s", cmd)
}

func main() {
	options := Options{}
	parser := flags.NewParser(&options, flags.Default)
	p, err := parser.Parse()
	if err != nil {
		if p == nil {
			fmt.Println(err)
		}
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp && parser.Active != nil {
			// Print additional usage help when run with --help
			switch parser.Active.Name {
			case "batch":
				exit(0, batchUsage)
			}
		}
		return
	}

	if options.Version {
		fmt.Println(Version)
		os.Exit(0)
	}

	// Figure out the log level
	numVerbose := len(options.Verbose)
	if numVerbose >= len(logLevels) {
		numVerbose = len(logLevels) - 1
	}

	logLevel := logLevels[numVerbose]
	logWriter := os.Stderr

	SetLogger(golog.New(logWriter, logLevel))
	if logLevel == log.Debug {
		// Enable logging from subpackages
		jsonrpc2.SetLogger(logWriter)
		ws.SetLogger(logWriter)
		gorilla.SetLogger(logWriter)
	}

	if parser.Active == nil {
		exit(1, "missing command: call, notify or batch\n")
	}
	cmd := parser.Active.Name
	err = subcommand(cmd, options)
	if err == nil {
		return
	}

	switch typedErr := err.(type) {
	case net.Error:
		err = ErrExplain{err, `Could not reach the endpoint. Could be a connectivity issue or the server is down. Try again?`}
	case interface{ ErrorCode() int }:
		switch typedErr.ErrorCode() {
		case jsonrpc2.ErrCodeMethodNotFound:
			err = ErrExplain{err, `The server does not implement this method. Check the method name spelling.`}
		default:
			err = ErrExplain{err, fmt.Sprintf(`The server rejected the call with code %d.`, typedErr.ErrorCode())}
		}
	case ErrExplain:
		// All good.
	default:
	}

	exit(2, "%s failed: %s\n", cmd, err)
}

func exit(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}

// ErrExplain annotates an error with an explanation.
type ErrExplain struct {
	Cause       error
	Explanation string
}

func (err ErrExplain) Error() string {
	return fmt.Sprintf("%s\n -> %s", err.Cause, err.Explanation)
}
