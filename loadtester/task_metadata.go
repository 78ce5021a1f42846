package loadtester

import (
	"context"
	"sync"
	"time"
)

type callMetadataState struct {
	runID     string
	taskIndex int
	attempt   int

	enqueueTime, dequeueTime time.Time
}

type callMetadata struct {
	callMetadataState
}

func (cm *callMetadata) RunID() string {
	return cm.runID
}

func (cm *callMetadata) TaskIndex() int {
	return cm.taskIndex
}

// Attempt is zero for the first try and increments with each retry
func (cm *callMetadata) Attempt() int {
	return cm.attempt
}

func (cm *callMetadata) EnqueueTime() time.Time {
	return cm.enqueueTime
}

func (cm *callMetadata) DequeueTime() time.Time {
	return cm.dequeueTime
}

var callMetadataPool = sync.Pool{
	New: func() any {
		return &callMetadata{}
	},
}

func newCallMetadata() *callMetadata {
	return callMetadataPool.Get().(*callMetadata)
}

func releaseCallMetadata(cm *callMetadata) {
	cm.callMetadataState = callMetadataState{}
	callMetadataPool.Put(cm)
}

type callMetadataCtxKey struct{}

func injectCallMetadataProvider(ctx context.Context, cm *callMetadata) context.Context {
	return context.WithValue(ctx, callMetadataCtxKey{}, cm)
}

type callMetadataProvider interface {
	RunID() string
	TaskIndex() int
	Attempt() int
	EnqueueTime() time.Time
	DequeueTime() time.Time
}

var _ callMetadataProvider = (*callMetadata)(nil)

// GetCallMetadata returns a possibly nil value that implements:
//
// - `RunID() string`
//
// - `TaskIndex() int`
//
// - `Attempt() int`
//
// - `EnqueueTime() time.Time`
//
// - `DequeueTime() time.Time`
//
// The value is only valid for the duration of the Call it was passed to.
func GetCallMetadata(ctx context.Context) *callMetadata {
	v, _ := ctx.Value(callMetadataCtxKey{}).(*callMetadata)
	return v
}
