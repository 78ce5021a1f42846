package loadtester

import (
	"sync"
	"testing"

	"go.uber.org/atomic"
)

func TestStopSignalSetOnceConcurrently(t *testing.T) {
	var s StopSignal
	var winners atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Set() {
				winners.Inc()
			}
		}()
	}
	wg.Wait()

	if n := winners.Load(); n != 1 {
		t.Fatalf("expected exactly one Set to change the signal, got %d", n)
	}

	if !s.IsSet() {
		t.Fatal("expected signal to be set")
	}

	if s.Set() {
		t.Fatal("setting an already set signal must report no change")
	}

	if !s.IsSet() {
		t.Fatal("signal must never revert")
	}
}

func TestStopSignalZeroValueUnset(t *testing.T) {
	var s StopSignal

	if s.IsSet() {
		t.Fatal("zero value signal must be unset")
	}
}
