package nodes

import (
	"context"
	"encoding/json"

	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/registry"
	"github.com/flowforge/flowrun/pkg/resolver"
)

// execSplitter resolves the node's document reference and invokes the
// out-of-scope PDF rasterizer collaborator (§1, §6), registering each
// resulting page image with the file store so downstream LLM nodes can
// reference it by id.
func execSplitter(ctx context.Context, fac *Factory, n *flow.Node, view registry.View) (interface{}, error) {
	documentID, err := resolveDocumentRef(n.Document, view)
	if err != nil {
		return nil, flow.NewError(flow.CodeInvalidFormat, n.ID, "document is not valid JSON", err)
	}

	dpi := 150
	if v, ok := n.Config["dpi"].(float64); ok {
		dpi = int(v)
	}
	format, _ := n.Config["image_format"].(string)
	quality, _ := n.Config["image_quality"].(string)

	pages, err := fac.Env.Providers.Rasterizer.Rasterize(ctx, documentPathFor(fac, documentID), dpi, format, quality)
	if err != nil {
		return nil, flow.RuntimeError(n.ID, "document rasterization failed", err)
	}

	out := make([]interface{}, 0, len(pages))
	for _, p := range pages {
		fileID, err := fac.Env.Files.RegisterFile(p.ImagePath)
		if err != nil {
			return nil, flow.RuntimeError(n.ID, "failed to register rasterized page", err)
		}
		out = append(out, map[string]interface{}{
			"file_id": fileID,
			"width":   p.Width,
			"height":  p.Height,
		})
	}
	return map[string]interface{}{"pages": out}, nil
}

func resolveDocumentRef(raw json.RawMessage, view registry.View) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	s, _ := resolver.Resolve(v, view).(string)
	return s, nil
}

// documentPathFor resolves a document reference to a filesystem path:
// when the reference names a registered file it is that file's path,
// otherwise the reference itself is assumed to already be a path.
func documentPathFor(fac *Factory, documentID string) string {
	if documentID == "" || fac.Env.Files == nil {
		return documentID
	}
	if path, ok := fac.Env.Files.PathOf(documentID); ok {
		return path
	}
	return documentID
}
