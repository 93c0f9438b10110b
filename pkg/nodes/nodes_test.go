package nodes

import (
	"encoding/json"
	"testing"

	"github.com/flowforge/flowrun/pkg/filestore"
	"github.com/flowforge/flowrun/pkg/logging"
	"github.com/flowforge/flowrun/pkg/provider"
)

// testFactory builds a Factory with no optional collaborators wired, for
// node kinds that don't need a provider/file store.
func testFactory(t *testing.T) *Factory {
	t.Helper()
	return NewFactory(&Env{
		FlowID:    "test-flow",
		Logger:    logging.NoOpLogger{},
		Providers: provider.NewSet(),
		Files:     filestore.New(nil, logging.NoOpLogger{}),
	})
}

func raw(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return json.RawMessage(b)
}
