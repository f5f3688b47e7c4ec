/*
	Package jsonrpc2 implements a client-side JSONRPC 2.0 dispatcher over two
	kinds of transports: a persistent bidirectional socket (preferred whenever
	one can be obtained) and a plain request/response POST exchange.

	Dispatcher is the calling surface: Call and Notify select a transport per
	invocation, and StartBatch/EndBatch defer request/response calls into a
	single array-valued exchange.

	Socket is the persistent transport abstraction. It pushes inbound payloads
	to a registered sink; payloads that are not JSONRPC 2.0 responses fall
	through to the Dispatcher's OnMessage handler.

	Poster is the request/response transport abstraction. HTTPService is the
	bundled implementation over HTTP POST.

	Correlation is by request id. Ids are issued per Dispatcher, starting at 1
	and strictly increasing, so responses may arrive in any order relative to
	their requests and still resolve the right caller.
*/
package jsonrpc2
