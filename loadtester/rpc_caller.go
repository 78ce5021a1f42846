package loadtester

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// RPCCaller is the Caller used against a real endpoint
//
// It times the whole send as observed by the client and subtracts the
// server-reported portion to produce the client latency.
type RPCCaller struct {
	sender Sender
	clock  Clock
}

func NewRPCCaller(sender Sender) *RPCCaller {
	return &RPCCaller{
		sender: sender,
		clock:  wallClock{},
	}
}

func (c *RPCCaller) Call(ctx context.Context) (CallTiming, *CallError) {
	start := c.clock.Now()
	res, err := c.sender.Send(ctx)
	observed := c.clock.Now().Sub(start)
	if err != nil {
		return CallTiming{}, classifySendError(ctx, err)
	}

	if res.StatusCode >= 400 {
		return CallTiming{}, newStatusError(res.StatusCode, res.Status)
	}

	var resp rpcResponse
	if err := json.Unmarshal(res.Body, &resp); err != nil {
		return CallTiming{}, newCallError(ErrorKindTransport, fmt.Errorf("invalid json-rpc response body: %w", err))
	}

	return CallTiming{
		ServerTime:    res.ServerElapsed,
		ClientLatency: observed - res.ServerElapsed,
	}, nil
}

func classifySendError(ctx context.Context, err error) *CallError {
	// the run itself is going away, not the endpoint
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return newCallError(ErrorKindCancelled, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newCallError(ErrorKindTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newCallError(ErrorKindTimeout, err)
	}

	return newCallError(ErrorKindTransport, err)
}
