package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowrun/pkg/callback"
	"github.com/flowforge/flowrun/pkg/filestore"
	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/logging"
	"github.com/flowforge/flowrun/pkg/nodes"
	"github.com/flowforge/flowrun/pkg/provider"
	"github.com/flowforge/flowrun/pkg/validator"
)

// fakeLimiter is an unbounded stand-in for concurrency.AdmissionLimiter so executor
// tests don't depend on that package's real semantics.
type fakeLimiter struct {
	mu       sync.Mutex
	acquired int
	rejectFn func() bool
}

func (f *fakeLimiter) Acquire(ctx context.Context) error {
	if f.rejectFn != nil && f.rejectFn() {
		return errors.New("rejected")
	}
	f.mu.Lock()
	f.acquired++
	f.mu.Unlock()
	return nil
}

func (f *fakeLimiter) Release() {
	f.mu.Lock()
	f.acquired--
	f.mu.Unlock()
}

func newTestFactoryBuilder(t *testing.T) FactoryBuilder {
	t.Helper()
	store := filestore.New(nil, logging.NoOpLogger{})
	return func(flowID string) *nodes.Factory {
		return nodes.NewFactory(&nodes.Env{
			FlowID:    flowID,
			Logger:    logging.NoOpLogger{},
			Providers: provider.NewSet(),
			Files:     store,
		})
	}
}

func parseFlow(t *testing.T, doc string) *flow.Flow {
	t.Helper()
	f, err := flow.ParseFlow([]byte(doc))
	require.NoError(t, err)
	return f
}

const successFlowDoc = `{
  "name": "success-flow",
  "version": "1.0.0",
  "variables": [{"id": "x", "type": "number"}, {"id": "y", "type": "number"}],
  "input": ["x"],
  "output": ["y"],
  "nodes": [
    {"id": "n1", "type": "UPDATE_VARIABLE", "name": "set y",
     "config": {"variable_id": "y", "type": "update"}, "value": "{{x}}"}
  ]
}`

const failingFlowDoc = `{
  "name": "failing-flow",
  "version": "1.0.0",
  "variables": [{"id": "y", "type": "number"}, {"id": "z", "type": "number"}],
  "input": [],
  "output": ["y"],
  "nodes": [
    {"id": "n1", "type": "UPDATE_VARIABLE", "name": "bad op",
     "config": {"variable_id": "y", "type": "concat"}, "value": "1"},
    {"id": "n2", "type": "UPDATE_VARIABLE", "name": "never runs",
     "config": {"variable_id": "z", "type": "update"}, "value": "2"}
  ]
}`

func TestSubmitRunsAFlowToCompletionAndCollectsOutputs(t *testing.T) {
	e := New(&fakeLimiter{}, newTestFactoryBuilder(t), logging.NoOpLogger{})

	result, err := e.Submit(context.Background(), &Request{
		Flow:  parseFlow(t, successFlowDoc),
		Input: map[string]interface{}{"x": float64(42)},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, float64(42), result.Outputs["y"])
	assert.Empty(t, result.Error)
}

func TestSubmitRejectsAnInvalidFlowBeforeAdmission(t *testing.T) {
	limiter := &fakeLimiter{}
	e := New(limiter, newTestFactoryBuilder(t), logging.NoOpLogger{})

	invalid := parseFlow(t, `{"name": "bad", "version": "1.0", "variables": [], "input": [], "output": [], "nodes": []}`)
	_, err := e.Submit(context.Background(), &Request{Flow: invalid})
	require.Error(t, err)
	assert.Zero(t, limiter.acquired, "an invalid flow must never reach the limiter")
}

func TestSubmitStopsOnNodeErrorAndReportsItInResult(t *testing.T) {
	e := New(&fakeLimiter{}, newTestFactoryBuilder(t), logging.NoOpLogger{})

	var sawError bool
	result, err := e.Submit(context.Background(), &Request{
		Flow: parseFlow(t, failingFlowDoc),
		Hooks: &callback.Hooks{
			OnError: func(ctx context.Context, ev callback.NodeEvent) callback.Signal {
				sawError = true
				return callback.SignalStop
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, sawError)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestSubmitOnErrorOverrideContinuesPastAFailedNode(t *testing.T) {
	e := New(&fakeLimiter{}, newTestFactoryBuilder(t), logging.NoOpLogger{})

	result, err := e.Submit(context.Background(), &Request{
		Flow: parseFlow(t, failingFlowDoc),
		Hooks: &callback.Hooks{
			OnError: func(ctx context.Context, ev callback.NodeEvent) callback.Signal {
				return callback.SignalContinue
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Success, "overriding onError to continue should let the remaining nodes run")
	assert.Nil(t, result.Outputs["y"], "n1's write never happened and n2 targets z, so the declared output y stays unset")
}

func TestSubmitInvokesOnCompleteExactlyOnce(t *testing.T) {
	e := New(&fakeLimiter{}, newTestFactoryBuilder(t), logging.NoOpLogger{})

	var calls int
	var gotErr error
	_, err := e.Submit(context.Background(), &Request{
		Flow: parseFlow(t, successFlowDoc),
		Input: map[string]interface{}{"x": float64(1)},
		Hooks: &callback.Hooks{
			OnComplete: func(ctx context.Context, flowID string, outputs map[string]interface{}, runErr error) {
				calls++
				gotErr = runErr
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, gotErr)
}

func TestSubmitBeforeNodeAndAfterNodeFireForEachNode(t *testing.T) {
	e := New(&fakeLimiter{}, newTestFactoryBuilder(t), logging.NoOpLogger{})

	var before, after int
	_, err := e.Submit(context.Background(), &Request{
		Flow:  parseFlow(t, successFlowDoc),
		Input: map[string]interface{}{"x": float64(1)},
		Hooks: &callback.Hooks{
			BeforeNode: func(ctx context.Context, ev callback.NodeEvent) callback.Signal {
				before++
				return callback.SignalContinue
			},
			AfterNode: func(ctx context.Context, ev callback.NodeEvent) callback.Signal {
				after++
				return callback.SignalContinue
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, before)
	assert.Equal(t, 1, after)
}

func TestSubmitAdmissionRejectionReturnsBeforeRunning(t *testing.T) {
	limiter := &fakeLimiter{rejectFn: func() bool { return true }}
	e := New(limiter, newTestFactoryBuilder(t), logging.NoOpLogger{})

	_, err := e.Submit(context.Background(), &Request{Flow: parseFlow(t, successFlowDoc), Input: map[string]interface{}{"x": float64(1)}})
	assert.Error(t, err)
}

func TestShutdownWaitsForRunningFlowsThenReturns(t *testing.T) {
	e := New(&fakeLimiter{}, newTestFactoryBuilder(t), logging.NoOpLogger{})

	_, err := e.Submit(context.Background(), &Request{Flow: parseFlow(t, successFlowDoc), Input: map[string]interface{}{"x": float64(1)}})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		e.Shutdown(time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown should return once the already-completed submit's waitgroup entry clears")
	}
}

func TestFirstValidationErrorFallsBackWhenResultHasNoErrors(t *testing.T) {
	err := firstValidationError(&validator.Result{Valid: false})
	assert.Error(t, err)
}
