package nodes

import (
	"context"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/registry"
)

const defaultScriptTimeout = 5 * time.Second

// execScript implements the Script Node (§4.14): a fresh goja.Runtime
// per invocation, no pooling, grounded on the teacher's jsrunner
// processor's one-runtime-per-call construction. A timer goroutine
// interrupts the runtime on timeout; the script's explicit return
// value becomes the node output.
func execScript(ctx context.Context, fac *Factory, n *flow.Node, view registry.View) (interface{}, error) {
	input, err := resolveRaw(n.Input, view)
	if err != nil {
		return nil, flow.NewError(flow.CodeInvalidFormat, n.ID, "input is not valid JSON", err)
	}

	timeout := defaultScriptTimeout
	if ms, ok := n.Config["timeout_ms"].(float64); ok && ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	vm := goja.New()
	if err := vm.Set("input", input); err != nil {
		return nil, flow.RuntimeError(n.ID, "failed to bind script input", err)
	}

	done := make(chan struct{})
	var interrupted bool
	var mu sync.Mutex

	timer := time.AfterFunc(timeout, func() {
		mu.Lock()
		interrupted = true
		mu.Unlock()
		vm.Interrupt("execution timeout")
	})
	defer func() {
		timer.Stop()
		close(done)
	}()

	value, runErr := vm.RunString("(function(){" + n.Script + "})()")
	if runErr != nil {
		mu.Lock()
		wasInterrupted := interrupted
		mu.Unlock()
		if wasInterrupted {
			return nil, flow.RuntimeError(n.ID, "script execution timed out", runErr)
		}
		if exc, ok := runErr.(*goja.Exception); ok {
			return nil, flow.RuntimeError(n.ID, "script threw an exception", exc)
		}
		return nil, flow.RuntimeError(n.ID, "script execution failed", runErr)
	}

	return value.Export(), nil
}
