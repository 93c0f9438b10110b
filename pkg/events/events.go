// Package events implements the optional Lifecycle Event Bus (§4.12): a
// core NATS publisher that mirrors beforeNode/afterNode/onError/
// onComplete firings onto a subject for external observers. Publication
// is a read-only telemetry mirror — it never feeds back into flow
// execution and failures here are logged, never propagated.
//
// Grounded on the teacher's pkg/runner publish-on-completion idiom and
// internal/nats connection handling, repurposed from publishing
// ResultMessage-shaped unit-execution reports to publishing lifecycle
// NodeEvents for whoever is watching the subject.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	natsconn "github.com/flowforge/flowrun/internal/nats"
	"github.com/flowforge/flowrun/pkg/callback"
	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/logging"
)

// Event is the JSON payload published for every lifecycle hook firing.
type Event struct {
	FlowID    string        `json:"flowId"`
	NodeID    string        `json:"nodeId,omitempty"`
	NodeType  flow.NodeKind `json:"nodeType,omitempty"`
	Hook      string        `json:"event"`
	Output    interface{}   `json:"output,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Publisher holds a live NATS connection; lifecycle events are published
// under the subject flow.<flowId>.node.<event>.
type Publisher struct {
	conn   *nats.Conn
	logger logging.Logger
}

// Connect dials NATS using the teacher's connection-config shape and
// returns a Publisher. Callers should defer Publisher.Close.
func Connect(ctx context.Context, cfg *natsconn.ConnectionConfig, logger logging.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	conn, err := natsconn.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("lifecycle event bus: %w", err)
	}
	return &Publisher{conn: conn, logger: logger}, nil
}

// Close drains the underlying NATS connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return natsconn.Close(p.conn)
}

func (p *Publisher) publish(subject string, ev Event) {
	ev.Timestamp = time.Now()
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("lifecycle event marshal failed", logging.F("subject", subject), logging.F("error", err.Error()))
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("lifecycle event publish failed", logging.F("subject", subject), logging.F("error", err.Error()))
	}
}

func (p *Publisher) subject(flowID, hook string) string {
	return fmt.Sprintf("flow.%s.node.%s", flowID, hook)
}

// Hooks builds a callback.Hooks whose four slots mirror firings onto
// NATS. BeforeNode and AfterNode signal Continue and OnError signals
// Stop — the same signals the executor applies when no hook is set, so
// attaching the bus leaves flow control unchanged.
func (p *Publisher) Hooks() *callback.Hooks {
	return &callback.Hooks{
		BeforeNode: func(ctx context.Context, ev callback.NodeEvent) callback.Signal {
			p.publish(p.subject(ev.FlowID, "beforeNode"), Event{
				FlowID: ev.FlowID, NodeID: ev.NodeID, NodeType: ev.NodeType, Hook: "beforeNode",
			})
			return callback.SignalContinue
		},
		AfterNode: func(ctx context.Context, ev callback.NodeEvent) callback.Signal {
			p.publish(p.subject(ev.FlowID, "afterNode"), Event{
				FlowID: ev.FlowID, NodeID: ev.NodeID, NodeType: ev.NodeType, Hook: "afterNode", Output: ev.Output,
			})
			return callback.SignalContinue
		},
		OnError: func(ctx context.Context, ev callback.NodeEvent) callback.Signal {
			errMsg := ""
			if ev.Err != nil {
				errMsg = ev.Err.Error()
			}
			p.publish(p.subject(ev.FlowID, "onError"), Event{
				FlowID: ev.FlowID, NodeID: ev.NodeID, NodeType: ev.NodeType, Hook: "onError", Error: errMsg,
			})
			return callback.SignalStop
		},
		OnComplete: func(ctx context.Context, flowID string, outputs map[string]interface{}, err error) {
			errMsg := ""
			if err != nil {
				errMsg = err.Error()
			}
			p.publish(p.subject(flowID, "onComplete"), Event{
				FlowID: flowID, Hook: "onComplete", Output: outputs, Error: errMsg,
			})
		},
		Logger: p.logger,
	}
}

// Compose merges a primary Hooks (the caller's own application logic)
// with a secondary Hooks (typically the event bus's mirror), running
// primary first. The flow stops only when primary says so — the
// secondary's signals, including the event bus's Stop from OnError, are
// discarded, since it is telemetry-only.
func Compose(primary, secondary *callback.Hooks) *callback.Hooks {
	return &callback.Hooks{
		BeforeNode: func(ctx context.Context, ev callback.NodeEvent) callback.Signal {
			signal := primary.InvokeBeforeNode(ctx, ev)
			secondary.InvokeBeforeNode(ctx, ev)
			return signal
		},
		AfterNode: func(ctx context.Context, ev callback.NodeEvent) callback.Signal {
			signal := primary.InvokeAfterNode(ctx, ev)
			secondary.InvokeAfterNode(ctx, ev)
			return signal
		},
		OnError: func(ctx context.Context, ev callback.NodeEvent) callback.Signal {
			signal := primary.InvokeOnError(ctx, ev)
			secondary.InvokeOnError(ctx, ev)
			return signal
		},
		OnComplete: func(ctx context.Context, flowID string, outputs map[string]interface{}, err error) {
			primary.InvokeOnComplete(ctx, flowID, outputs, err)
			secondary.InvokeOnComplete(ctx, flowID, outputs, err)
		},
		Logger: primary.Logger,
	}
}
