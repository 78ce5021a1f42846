package loadtester

import (
	"go.uber.org/atomic"
)

// StopSignal is a run wide, set-once flag.
//
// Producers check it before starting a task and before every attempt; nothing waits on it.
// Once set it never reverts.
type StopSignal struct {
	set atomic.Bool
}

// Set raises the signal. It returns true only for the call that changed it.
func (s *StopSignal) Set() bool {
	return s.set.CompareAndSwap(false, true)
}

func (s *StopSignal) IsSet() bool {
	return s.set.Load()
}
