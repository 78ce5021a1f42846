package loadtester

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"
)

func TestRPCCallerClientLatencyExcludesServerTime(t *testing.T) {
	timing, cerr := syncStateCaller(50, 70).Call(context.Background())
	if cerr != nil {
		t.Fatal(cerr)
	}

	if timing.ServerTime != 50*time.Millisecond {
		t.Fatalf("expected server time 50ms, got %s", timing.ServerTime)
	}

	if timing.ClientLatency != 20*time.Millisecond {
		t.Fatalf("expected client latency 20ms, got %s", timing.ClientLatency)
	}
}

func TestRPCCallerStatusErrors(t *testing.T) {
	for _, code := range []int{400, 401, 404, 500, 503} {
		c := &RPCCaller{
			sender: fakeSender{result: SendResult{StatusCode: code, Status: fmt.Sprintf("%d x", code)}},
			clock:  wallClock{},
		}

		_, cerr := c.Call(context.Background())
		if cerr == nil || cerr.Kind != ErrorKindHTTPStatus || cerr.StatusCode != code {
			t.Fatalf("expected http status %d error, got %v", code, cerr)
		}

		if cerr.Unauthorized() != (code == 401) {
			t.Fatalf("unexpected Unauthorized() for %d", code)
		}
	}
}

func TestRPCCallerInvalidBodyIsRetryable(t *testing.T) {
	c := &RPCCaller{
		sender: fakeSender{result: SendResult{StatusCode: 200, Body: []byte("<html>")}},
		clock:  wallClock{},
	}

	_, cerr := c.Call(context.Background())
	if cerr == nil || cerr.Kind != ErrorKindTransport {
		t.Fatalf("expected transport error, got %v", cerr)
	}

	if !cerr.Kind.retryable() {
		t.Fatal("expected invalid body to be retryable")
	}
}

func TestClassifySendError(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name string
		ctx  context.Context
		err  error
		exp  ErrorKind
	}{
		{"net timeout", context.Background(), &url.Error{Op: "Post", URL: "http://x", Err: timeoutError{}}, ErrorKindTimeout},
		{"deadline", context.Background(), fmt.Errorf("wrapped: %w", context.DeadlineExceeded), ErrorKindTimeout},
		{"reset", context.Background(), errors.New("connection reset by peer"), ErrorKindTransport},
		{"run cancelled", cancelled, &url.Error{Op: "Post", URL: "http://x", Err: context.Canceled}, ErrorKindCancelled},
	}

	for _, tc := range cases {
		if v := classifySendError(tc.ctx, tc.err); v.Kind != tc.exp {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.exp, v.Kind)
		}
	}
}

func TestCallErrorUnwraps(t *testing.T) {
	cerr := newCallError(ErrorKindTimeout, context.DeadlineExceeded)

	if !errors.Is(cerr, context.DeadlineExceeded) {
		t.Fatal("expected CallError to unwrap to its cause")
	}

	if cerr.Error() != "timeout: context deadline exceeded" {
		t.Fatalf("unexpected message %q", cerr.Error())
	}

	if s := newStatusError(401, "401 Unauthorized").Error(); s != "http-status 401: 401 Unauthorized" {
		t.Fatalf("unexpected message %q", s)
	}
}
