// Package callback implements the Flow Executor's lifecycle-hook protocol
// (§4.9): beforeNode, afterNode, onError and onComplete, each returning a
// Signal the executor uses to decide whether to keep running.
//
// Grounded on the teacher's CallbackHandler (pkg/callback/callback.go):
// the retry-free, structured-logging-around-every-call shape carries over,
// repurposed from NATS result publishing to in-process hook invocation, per
// the shift from an out-of-process result subject to a caller-supplied
// Go closure. Hook panics and errors are captured and logged, never fatal,
// per §7's "Hook errors are captured and logged, never fatal."
package callback

import (
	"context"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/logging"
)

// Signal is a hook's verdict on whether the flow should keep running.
type Signal string

const (
	SignalContinue Signal = "continue"
	SignalStop     Signal = "stop"
)

// NodeEvent carries the context a lifecycle hook needs about the node
// being entered, exited, or that failed.
type NodeEvent struct {
	FlowID   string
	NodeID   string
	NodeType flow.NodeKind
	Output   interface{}
	Err      error
}

// BeforeNodeFunc runs immediately before a node executes.
type BeforeNodeFunc func(ctx context.Context, ev NodeEvent) Signal

// AfterNodeFunc runs immediately after a node executes successfully.
type AfterNodeFunc func(ctx context.Context, ev NodeEvent) Signal

// OnErrorFunc runs when a node's handler returns an error. Continue
// proceeds as if the node produced no output; Stop fails the flow with
// the error as cause.
type OnErrorFunc func(ctx context.Context, ev NodeEvent) Signal

// OnCompleteFunc runs once, after the flow finishes (successfully or not).
type OnCompleteFunc func(ctx context.Context, flowID string, outputs map[string]interface{}, err error)

// Hooks bundles the four lifecycle hook slots. Any slot may be nil.
type Hooks struct {
	BeforeNode BeforeNodeFunc
	AfterNode  AfterNodeFunc
	OnError    OnErrorFunc
	OnComplete OnCompleteFunc
	Logger     logging.Logger
}

func (h *Hooks) logger() logging.Logger {
	if h == nil || h.Logger == nil {
		return logging.NoOpLogger{}
	}
	return h.Logger
}

// invoke calls fn, recovering from a panic and logging any failure,
// defaulting to Continue whenever the hook itself misbehaves.
func invoke(logger logging.Logger, hookName string, ev NodeEvent, fn func() Signal) (signal Signal) {
	signal = SignalContinue
	defer func() {
		if r := recover(); r != nil {
			logger.Error("lifecycle hook panicked",
				logging.F("hook", hookName), logging.F("nodeId", ev.NodeID), logging.F("panic", r))
			signal = SignalContinue
		}
	}()
	return fn()
}

// InvokeBeforeNode calls h.BeforeNode if set, defaulting to Continue.
func (h *Hooks) InvokeBeforeNode(ctx context.Context, ev NodeEvent) Signal {
	if h == nil || h.BeforeNode == nil {
		return SignalContinue
	}
	return invoke(h.logger(), "beforeNode", ev, func() Signal { return h.BeforeNode(ctx, ev) })
}

// InvokeAfterNode calls h.AfterNode if set, defaulting to Continue.
func (h *Hooks) InvokeAfterNode(ctx context.Context, ev NodeEvent) Signal {
	if h == nil || h.AfterNode == nil {
		return SignalContinue
	}
	return invoke(h.logger(), "afterNode", ev, func() Signal { return h.AfterNode(ctx, ev) })
}

// InvokeOnError calls h.OnError if set, defaulting to Stop — an
// unhandled node error is fatal unless a hook explicitly says otherwise.
func (h *Hooks) InvokeOnError(ctx context.Context, ev NodeEvent) Signal {
	if h == nil || h.OnError == nil {
		return SignalStop
	}
	signal := invoke(h.logger(), "onError", ev, func() Signal { return h.OnError(ctx, ev) })
	return signal
}

// InvokeOnComplete calls h.OnComplete if set. Panics are recovered and
// logged; OnComplete has no signal to return.
func (h *Hooks) InvokeOnComplete(ctx context.Context, flowID string, outputs map[string]interface{}, err error) {
	if h == nil || h.OnComplete == nil {
		return
	}
	logger := h.logger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("lifecycle hook panicked", logging.F("hook", "onComplete"), logging.F("panic", r))
		}
	}()
	h.OnComplete(ctx, flowID, outputs, err)
}
