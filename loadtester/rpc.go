package loadtester

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RPCMethod is the only JSON-RPC method a loadtest invokes
const RPCMethod = "header.SyncState"

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcResponse is only decoded to prove the body is well formed;
// a JSON-RPC level error object does not fail the call.
type rpcResponse struct {
	JSONRPC string              `json:"jsonrpc"`
	ID      any                 `json:"id"`
	Result  jsoniter.RawMessage `json:"result,omitempty"`
	Error   *rpcError           `json:"error,omitempty"`
}

func newSyncStateRequestBody() ([]byte, error) {
	return json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  RPCMethod,
		Params:  []any{},
		ID:      1,
	})
}
