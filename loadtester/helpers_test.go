package loadtester

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var testLogger = zap.NewNop().Sugar()

// seqClock returns its times in order, repeating the last one
type seqClock struct {
	mu    sync.Mutex
	times []time.Time
}

func newSeqClock(offsets ...time.Duration) *seqClock {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	times := make([]time.Time, 0, len(offsets))
	for _, d := range offsets {
		times = append(times, base.Add(d))
	}

	return &seqClock{times: times}
}

func (c *seqClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := c.times[0]
	if len(c.times) > 1 {
		c.times = c.times[1:]
	}
	return v
}

type countingSleeper struct {
	n atomic.Int64
}

func (s *countingSleeper) Sleep(context.Context, time.Duration) {
	s.n.Inc()
}

type fakeSender struct {
	result SendResult
	err    error
}

func (s fakeSender) Send(context.Context) (SendResult, error) {
	return s.result, s.err
}

// syncStateCaller is an RPCCaller whose sender reports serverMs and whose
// clock observes observedMs around the send
func syncStateCaller(serverMs, observedMs int) Caller {
	return CallerFunc(func(ctx context.Context) (CallTiming, *CallError) {
		c := &RPCCaller{
			sender: fakeSender{result: SendResult{
				StatusCode:    200,
				Status:        "200 OK",
				ServerElapsed: time.Duration(serverMs) * time.Millisecond,
				Body:          []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`),
			}},
			clock: newSeqClock(0, time.Duration(observedMs)*time.Millisecond),
		}
		return c.Call(ctx)
	})
}

type recordingProgress struct {
	values []float64
}

func (p *recordingProgress) Report(v float64) {
	p.values = append(p.values, v)
}

func (p *recordingProgress) count(v float64) int {
	var n int
	for _, x := range p.values {
		if x == v {
			n++
		}
	}
	return n
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
