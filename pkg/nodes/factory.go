// Package nodes implements the polymorphic node-executor family (C5,
// §4.5–§4.8, §4.14): one handler per closed node kind, dispatched by a
// Factory the Flow Executor and the FOR_EACH/CONDITION handlers share.
//
// The dispatch shape (a factory holding shared collaborators and handing
// out per-kind handlers) is grounded on the teacher's deleted
// pkg/embedded/runtime EmbeddedNodeFactory pattern, rebuilt fresh here
// against this spec's simpler per-flow registry.View rather than the
// teacher's flattened NATS field-mapping model.
package nodes

import (
	"context"
	"fmt"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/logging"
	"github.com/flowforge/flowrun/pkg/provider"
	"github.com/flowforge/flowrun/pkg/registry"
)

// FileRegistrar is the File collaborator surface node handlers need
// beyond what registry.FileRegistrar already covers (image detection,
// data-url rendering for LLM image messages).
type FileRegistrar interface {
	registry.FileRegistrar
	GetFileDataUrl(id string) (string, error)
	IsImage(id string) bool
	PathOf(id string) (string, bool)
}

// Env bundles the collaborators every handler may need: the running
// flow's id for logging/tracing context, structured logging, resolved
// provider clients, and the file store.
type Env struct {
	FlowID    string
	Logger    logging.Logger
	Providers *provider.Set
	Files     FileRegistrar
}

// HandlerFunc executes one node against a resolved view, returning the
// value recorded as that node's output.
type HandlerFunc func(ctx context.Context, fac *Factory, n *flow.Node, view registry.View) (interface{}, error)

// Factory dispatches a node to its kind's handler. FOR_EACH and CONDITION
// handlers call back into the same Factory to run their nested bodies.
type Factory struct {
	Env      *Env
	handlers map[flow.NodeKind]HandlerFunc
}

// NewFactory builds a Factory wired with every closed node kind's
// handler.
func NewFactory(env *Env) *Factory {
	if env.Logger == nil {
		env.Logger = logging.NoOpLogger{}
	}
	fac := &Factory{Env: env}
	fac.handlers = map[flow.NodeKind]HandlerFunc{
		flow.KindLLM:              execLLM,
		flow.KindDocumentSplitter: execSplitter,
		flow.KindTextEmbedding:    execEmbedding,
		flow.KindVectorInsert:     execVectorInsert,
		flow.KindVectorSearch:     execVectorSearch,
		flow.KindVectorUpdate:     execVectorUpdate,
		flow.KindVectorDelete:     execVectorDelete,
		flow.KindUpdateVariable:   execUpdateVariable,
		flow.KindCondition:        execCondition,
		flow.KindForEach:          execForEach,
		flow.KindScript:           execScript,
	}
	return fac
}

// Execute runs n against view, dispatching to the handler registered for
// n.Type.
func (f *Factory) Execute(ctx context.Context, n *flow.Node, view registry.View) (interface{}, error) {
	h, ok := f.handlers[n.Type]
	if !ok {
		return nil, flow.RuntimeError(n.ID, fmt.Sprintf("no handler registered for node type %s", n.Type), nil)
	}
	return h(ctx, f, n, view)
}
