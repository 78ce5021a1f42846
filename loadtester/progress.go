package loadtester

import (
	"fmt"
	"io"
)

// ConsoleProgress redraws a single "Progress: NN.N%" line
type ConsoleProgress struct {
	w io.Writer
}

func NewConsoleProgress(w io.Writer) *ConsoleProgress {
	return &ConsoleProgress{w}
}

func (cp *ConsoleProgress) Report(percentComplete float64) {
	// display only, a failed write is not worth stopping for
	_, _ = fmt.Fprintf(cp.w, "\rProgress: %.1f%%", percentComplete)
}
