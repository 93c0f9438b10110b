package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowforge/flowrun/pkg/callback"
)

func TestComposeRunsPrimaryBeforeSecondaryAndKeepsPrimarysSignal(t *testing.T) {
	var order []string
	primary := &callback.Hooks{
		BeforeNode: func(ctx context.Context, ev callback.NodeEvent) callback.Signal {
			order = append(order, "primary")
			return callback.SignalStop
		},
	}
	secondary := &callback.Hooks{
		BeforeNode: func(ctx context.Context, ev callback.NodeEvent) callback.Signal {
			order = append(order, "secondary")
			return callback.SignalContinue
		},
	}

	composed := Compose(primary, secondary)
	signal := composed.InvokeBeforeNode(context.Background(), callback.NodeEvent{})
	assert.Equal(t, callback.SignalStop, signal, "the merged signal must reflect the caller's own hooks, not the telemetry mirror")
	assert.Equal(t, []string{"primary", "secondary"}, order)
}

func TestComposeOnErrorIgnoresSecondarysSignal(t *testing.T) {
	primary := &callback.Hooks{
		OnError: func(ctx context.Context, ev callback.NodeEvent) callback.Signal { return callback.SignalContinue },
	}
	secondary := &callback.Hooks{
		OnError: func(ctx context.Context, ev callback.NodeEvent) callback.Signal { return callback.SignalStop },
	}

	signal := Compose(primary, secondary).InvokeOnError(context.Background(), callback.NodeEvent{})
	assert.Equal(t, callback.SignalContinue, signal)
}

func TestComposeOnCompleteCallsBothWithTheSameArguments(t *testing.T) {
	var gotPrimary, gotSecondary map[string]interface{}
	primary := &callback.Hooks{
		OnComplete: func(ctx context.Context, flowID string, outputs map[string]interface{}, err error) {
			gotPrimary = outputs
		},
	}
	secondary := &callback.Hooks{
		OnComplete: func(ctx context.Context, flowID string, outputs map[string]interface{}, err error) {
			gotSecondary = outputs
		},
	}

	outputs := map[string]interface{}{"x": 1}
	Compose(primary, secondary).InvokeOnComplete(context.Background(), "flow1", outputs, nil)
	assert.Equal(t, outputs, gotPrimary)
	assert.Equal(t, outputs, gotSecondary)
}

func TestPublisherSubjectNaming(t *testing.T) {
	p := &Publisher{}
	assert.Equal(t, "flow.f1.node.beforeNode", p.subject("f1", "beforeNode"))
}

func TestPublisherCloseIsNilSafe(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.Close())
}
