package callback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowforge/flowrun/pkg/logging"
)

func TestInvokeBeforeNodeDefaultsToContinue(t *testing.T) {
	var h *Hooks
	assert.Equal(t, SignalContinue, h.InvokeBeforeNode(context.Background(), NodeEvent{}))

	h = &Hooks{}
	assert.Equal(t, SignalContinue, h.InvokeBeforeNode(context.Background(), NodeEvent{}))
}

func TestInvokeOnErrorDefaultsToStop(t *testing.T) {
	h := &Hooks{}
	assert.Equal(t, SignalStop, h.InvokeOnError(context.Background(), NodeEvent{}))
}

func TestInvokeOnErrorHonorsHookOverride(t *testing.T) {
	h := &Hooks{OnError: func(ctx context.Context, ev NodeEvent) Signal { return SignalContinue }}
	assert.Equal(t, SignalContinue, h.InvokeOnError(context.Background(), NodeEvent{}))
}

func TestInvokeAfterNodePassesEventThrough(t *testing.T) {
	var seen NodeEvent
	h := &Hooks{AfterNode: func(ctx context.Context, ev NodeEvent) Signal {
		seen = ev
		return SignalStop
	}}
	sig := h.InvokeAfterNode(context.Background(), NodeEvent{NodeID: "n1", Output: "out"})
	assert.Equal(t, SignalStop, sig)
	assert.Equal(t, "n1", seen.NodeID)
	assert.Equal(t, "out", seen.Output)
}

func TestHookPanicIsRecoveredAndDefaultsToContinue(t *testing.T) {
	h := &Hooks{
		Logger:     logging.NoOpLogger{},
		AfterNode:  func(ctx context.Context, ev NodeEvent) Signal { panic("boom") },
		BeforeNode: func(ctx context.Context, ev NodeEvent) Signal { panic("boom") },
	}
	assert.Equal(t, SignalContinue, h.InvokeAfterNode(context.Background(), NodeEvent{}))
	assert.Equal(t, SignalContinue, h.InvokeBeforeNode(context.Background(), NodeEvent{}))
}

func TestInvokeOnErrorPanicIsRecovered(t *testing.T) {
	h := &Hooks{
		Logger:  logging.NoOpLogger{},
		OnError: func(ctx context.Context, ev NodeEvent) Signal { panic("boom") },
	}
	assert.NotPanics(t, func() {
		h.InvokeOnError(context.Background(), NodeEvent{})
	})
}

func TestInvokeOnCompleteCalledOnceWithOutputsAndError(t *testing.T) {
	var gotFlowID string
	var gotOutputs map[string]interface{}
	var gotErr error
	h := &Hooks{OnComplete: func(ctx context.Context, flowID string, outputs map[string]interface{}, err error) {
		gotFlowID = flowID
		gotOutputs = outputs
		gotErr = err
	}}

	h.InvokeOnComplete(context.Background(), "flow1", map[string]interface{}{"x": 1}, assert.AnError)
	assert.Equal(t, "flow1", gotFlowID)
	assert.Equal(t, map[string]interface{}{"x": 1}, gotOutputs)
	assert.Equal(t, assert.AnError, gotErr)
}

func TestInvokeOnCompletePanicIsRecovered(t *testing.T) {
	h := &Hooks{
		Logger:     logging.NoOpLogger{},
		OnComplete: func(ctx context.Context, flowID string, outputs map[string]interface{}, err error) { panic("boom") },
	}
	assert.NotPanics(t, func() {
		h.InvokeOnComplete(context.Background(), "flow1", nil, nil)
	})
}
