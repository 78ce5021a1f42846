package loadtester

import (
	"strconv"
	"time"
)

// ErrorKind classifies why a call did not succeed.
type ErrorKind uint8

const (
	ErrorKindInvalid ErrorKind = iota
	// ErrorKindHTTPStatus is an application level rejection (status >= 400), never retried
	ErrorKindHTTPStatus
	// ErrorKindTimeout is a transport timeout, retryable
	ErrorKindTimeout
	// ErrorKindTransport is any other connection level failure, retryable
	ErrorKindTransport
	// ErrorKindCancelled means no further attempt was made because the run was stopping
	ErrorKindCancelled
)

func (k ErrorKind) String() string {
	return []string{
		"",
		"http-status",
		"timeout",
		"transport",
		"cancelled",
	}[k]
}

func (k ErrorKind) retryable() bool {
	return k == ErrorKindTimeout || k == ErrorKindTransport
}

// CallError is the terminal or retryable failure of a call attempt.
//
// StatusCode is only meaningful when Kind is ErrorKindHTTPStatus.
type CallError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	err        error
}

func (e *CallError) Error() string {
	if e.Kind == ErrorKindHTTPStatus {
		return e.Kind.String() + " " + strconv.Itoa(e.StatusCode) + ": " + e.Message
	}

	return e.Kind.String() + ": " + e.Message
}

func (e *CallError) Unwrap() error {
	return e.err
}

// Unauthorized reports whether the error is the fleet wide fatal 401 rejection.
func (e *CallError) Unauthorized() bool {
	return e != nil && e.Kind == ErrorKindHTTPStatus && e.StatusCode == 401
}

func newCallError(kind ErrorKind, err error) *CallError {
	return &CallError{
		Kind:    kind,
		Message: err.Error(),
		err:     err,
	}
}

func newStatusError(statusCode int, status string) *CallError {
	return &CallError{
		Kind:       ErrorKindHTTPStatus,
		StatusCode: statusCode,
		Message:    status,
	}
}

// CallTiming holds the measurements of a successful attempt.
//
// ClientLatency is the client observed elapsed time minus ServerTime.
type CallTiming struct {
	ServerTime    time.Duration
	ClientLatency time.Duration
}

// CallOutcome is the final result of one logical call.
//
// On normal completion exactly one of Timing and Err is non-nil.
// A task skipped before it made any attempt carries a cancelled Err and zero Attempts.
type CallOutcome struct {
	TaskIndex int
	Attempts  int
	Panicked  bool
	Timing    *CallTiming
	Err       *CallError
}

// Skipped reports whether the call never reached the Caller.
func (o CallOutcome) Skipped() bool {
	return o.Attempts == 0 && o.Err != nil && o.Err.Kind == ErrorKindCancelled
}
