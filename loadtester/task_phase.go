package loadtester

// callState is the position of one logical call in its retry state machine
type callState uint8

const (
	callStateInvalid callState = iota
	callStateAttempting
	callStateRetrying
	callStateSucceeded
	callStateFailedTerminal
	callStateCancelled
)

func (s callState) String() string {
	return []string{
		"",
		"attempting",
		"retrying",
		"succeeded",
		"failed-terminal",
		"cancelled",
	}[s]
}

func (s callState) terminal() bool {
	return s >= callStateSucceeded
}
