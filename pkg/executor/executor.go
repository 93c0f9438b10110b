// Package executor implements the Flow Executor (§4.9): admission,
// bounded between-flow concurrency, sequential in-flow node execution
// against the validator's topological order, and the lifecycle hook
// protocol.
//
// Grounded on the teacher's pkg/runner.Runner for the worker/dispatch
// shape (a bounded number of slots, tracing spans per unit of work,
// structured logging around success/failure) and pkg/concurrency.Limiter
// for the admission bound, re-keyed from "batch items pulled off NATS" to
// "flows admitted for execution."
package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowforge/flowrun/pkg/callback"
	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/logging"
	"github.com/flowforge/flowrun/pkg/nodes"
	"github.com/flowforge/flowrun/pkg/registry"
	"github.com/flowforge/flowrun/pkg/validator"
)

// Result is the Execution result shape returned by Submit (§6).
type Result struct {
	Success       bool                   `json:"success"`
	FlowID        string                 `json:"flowId"`
	ExecutionTime int64                  `json:"executionTime"`
	Outputs       map[string]interface{} `json:"outputs"`
	Error         string                 `json:"error,omitempty"`
}

// Request bundles everything a single Submit call needs: the flow, the
// caller's input overlay, the set of configured providers (used during
// validation pass 4), and optional lifecycle hooks.
type Request struct {
	Flow      *flow.Flow
	Input     map[string]interface{}
	Providers validator.AvailableProviders
	Hooks     *callback.Hooks
}

// Executor is the process-wide admission and execution coordinator: one
// Executor serves every flow submission, bounded by a single configured
// concurrency.AdmissionLimiter.
type Executor struct {
	limiter      Limiter
	newFactory   FactoryBuilder
	logger       logging.Logger
	tracer       trace.Tracer
	counter      uint64
	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownCtx  context.Context
	shutdownStop context.CancelFunc
}

// Limiter is the subset of pkg/concurrency.AdmissionLimiter's surface the executor
// depends on, kept local so tests can substitute a trivial fake.
type Limiter interface {
	Acquire(ctx context.Context) error
	Release()
}

// FactoryBuilder constructs the node-handler Factory for one flow run,
// bound to that flow's id and file collaborator.
type FactoryBuilder func(flowID string) *nodes.Factory

// New builds an Executor. limiter bounds the number of simultaneously
// executing flows; newFactory is called once per admitted flow to build
// its node-dispatch Factory.
func New(limiter Limiter, newFactory FactoryBuilder, logger logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Executor{
		limiter:      limiter,
		newFactory:   newFactory,
		logger:       logger,
		tracer:       otel.Tracer("flowrun/executor"),
		shutdownCtx:  ctx,
		shutdownStop: cancel,
	}
}

// nextJobID mints a monotonic-counter + wall-clock identifier, per §4.9's
// admission contract.
func (e *Executor) nextJobID() string {
	n := atomic.AddUint64(&e.counter, 1)
	return fmt.Sprintf("%d-%d", n, time.Now().UnixNano())
}

// Submit validates req.Flow, admits it once a concurrency slot is free,
// and runs it to completion. A validation failure returns before the job
// is ever queued, per §4.9. Cancelling ctx before a slot frees rejects
// the queued job; cancelling it after execution has started has no
// effect — node execution runs to completion or to the first stop signal.
func (e *Executor) Submit(ctx context.Context, req *Request) (*Result, error) {
	result := validator.Validate(req.Flow, req.Providers)
	if !result.Valid {
		return nil, firstValidationError(result)
	}

	jobID := e.nextJobID()

	admitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-e.shutdownCtx.Done():
			cancel()
		case <-admitCtx.Done():
		}
	}()

	if err := e.limiter.Acquire(admitCtx); err != nil {
		return nil, fmt.Errorf("flow %s rejected before admission: %w", jobID, err)
	}
	defer e.limiter.Release()

	e.wg.Add(1)
	defer e.wg.Done()

	return e.run(ctx, jobID, req, result.Order)
}

func firstValidationError(r *validator.Result) error {
	if len(r.Errors) == 0 {
		return fmt.Errorf("flow failed validation")
	}
	return r.Errors[0]
}

// run executes an admitted flow's nodes sequentially in validator-
// determined topological order, driving the lifecycle hooks and
// collecting declared outputs from the registry.
func (e *Executor) run(ctx context.Context, jobID string, req *Request, order []string) (*Result, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "executor.run", trace.WithAttributes(
		attribute.String("flow.job_id", jobID),
		attribute.String("flow.name", req.Flow.Name),
	))
	defer span.End()

	fac := e.newFactory(jobID)
	view, err := seedRegistry(req.Flow, req.Input, fac.Env.Files)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &Result{Success: false, FlowID: jobID, ExecutionTime: sinceMs(start), Error: err.Error()}, nil
	}

	byID := make(map[string]*flow.Node, len(req.Flow.Nodes))
	for i := range req.Flow.Nodes {
		byID[req.Flow.Nodes[i].ID] = &req.Flow.Nodes[i]
	}

	var stopErr error
	for _, id := range order {
		n := byID[id]
		if n == nil {
			continue
		}
		if !e.runNode(ctx, fac, n, view, req.Hooks, jobID) {
			stopErr = fmt.Errorf("flow stopped at node %s", id)
			break
		}
	}

	outputs := collectOutputs(req.Flow, view)
	req.Hooks.InvokeOnComplete(ctx, jobID, outputs, stopErr)

	elapsed := sinceMs(start)
	if stopErr != nil {
		span.RecordError(stopErr)
		span.SetStatus(codes.Error, stopErr.Error())
		return &Result{Success: false, FlowID: jobID, ExecutionTime: elapsed, Outputs: outputs, Error: stopErr.Error()}, nil
	}
	span.SetStatus(codes.Ok, "")
	return &Result{Success: true, FlowID: jobID, ExecutionTime: elapsed, Outputs: outputs}, nil
}

// runNode executes a single top-level node through the full hook
// protocol. It returns false when the flow should stop.
func (e *Executor) runNode(ctx context.Context, fac *nodes.Factory, n *flow.Node, view registry.View, hooks *callback.Hooks, jobID string) bool {
	ctx, span := e.tracer.Start(ctx, "executor.node", trace.WithAttributes(
		attribute.String("node.id", n.ID), attribute.String("node.type", string(n.Type)),
	))
	defer span.End()

	ev := callback.NodeEvent{FlowID: jobID, NodeID: n.ID, NodeType: n.Type}
	hooks.InvokeBeforeNode(ctx, ev)

	out, err := fac.Execute(ctx, n, view)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Warn("node execution failed", logging.F("nodeId", n.ID), logging.F("error", err.Error()))

		errEv := ev
		errEv.Err = err
		signal := hooks.InvokeOnError(ctx, errEv)
		return signal != callback.SignalStop
	}

	view.SetNodeOutput(n.ID, out)
	span.SetStatus(codes.Ok, "")

	okEv := ev
	okEv.Output = out
	signal := hooks.InvokeAfterNode(ctx, okEv)
	return signal != callback.SignalStop
}

func sinceMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// seedRegistry builds a fresh State Registry from the flow's declared
// variables, overlaid with the caller-supplied inputs (§4.3). File-typed
// inputs auto-register through the File collaborator via Registry.SetVariable.
func seedRegistry(f *flow.Flow, input map[string]interface{}, files registry.FileRegistrar) (*registry.Registry, error) {
	r := registry.New(f.Variables, files)
	for _, id := range f.Input {
		v, ok := input[id]
		if !ok {
			continue
		}
		if err := r.SetVariable(id, v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// collectOutputs reads each declared output id from the registry's
// variables, not node outputs, per §4.9.
func collectOutputs(f *flow.Flow, view registry.View) map[string]interface{} {
	outputs := make(map[string]interface{}, len(f.Output))
	for _, id := range f.Output {
		v, _ := view.GetVariable(id)
		outputs[id] = v
	}
	return outputs
}

// Shutdown rejects any job still waiting for an admission slot and waits
// up to the given duration for already-running flows to finish. Exceeding
// the bound logs a warning but returns, per §4.9.
func (e *Executor) Shutdown(wait time.Duration) {
	e.shutdownOnce.Do(func() {
		e.shutdownStop()
	})

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(wait):
		e.logger.Warn("shutdown wait exceeded bound, returning with flows still running", logging.F("waitMs", wait.Milliseconds()))
	}
}
