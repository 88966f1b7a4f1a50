package exec

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/search"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jv92admin/fpltools/runtime/scriptengine"
)

// FunctionSummary is the search result for one sandbox function.
type FunctionSummary = index.Summary

// Catalog indexes the sandbox functions for search and documentation.
// It is immutable after NewCatalog and safe for concurrent use.
type Catalog struct {
	index     index.Index
	docs      tooldoc.Store
	functions map[string]scriptengine.Function
	ids       []string
}

// NewCatalog registers every function as a tool in a BM25 index, with
// documentation built from its summary, notes and example.
func NewCatalog(fns []scriptengine.Function) (*Catalog, error) {
	idx := index.NewInMemoryIndex(index.IndexOptions{
		Searcher: search.NewBM25Searcher(search.BM25Config{}),
	})
	docs := tooldoc.NewInMemoryStore(tooldoc.StoreOptions{Index: idx})

	c := &Catalog{
		index:     idx,
		docs:      docs,
		functions: make(map[string]scriptengine.Function, len(fns)),
	}
	for _, fn := range fns {
		id := fn.ID()
		if _, dup := c.functions[id]; dup {
			return nil, fmt.Errorf("duplicate function %s", id)
		}
		if err := idx.RegisterTool(FunctionTool(fn), model.NewLocalBackend(fn.ScriptName())); err != nil {
			return nil, fmt.Errorf("register %s: %w", id, err)
		}
		if err := docs.RegisterDoc(id, functionDoc(fn)); err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		c.functions[id] = fn
		c.ids = append(c.ids, id)
	}
	sort.Strings(c.ids)
	return c, nil
}

// SearchFunctions finds functions matching query, best match first.
func (c *Catalog) SearchFunctions(ctx context.Context, query string, limit int) ([]FunctionSummary, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return c.index.Search(query, limit)
}

// DescribeFunction returns the documentation of a function by ID
// ("fpl:rank_by") at the given detail level.
func (c *Catalog) DescribeFunction(ctx context.Context, id string, level tooldoc.DetailLevel) (tooldoc.ToolDoc, error) {
	if ctx.Err() != nil {
		return tooldoc.ToolDoc{}, ctx.Err()
	}
	return c.docs.DescribeTool(id, level)
}

// Examples returns up to max usage examples of a function.
func (c *Catalog) Examples(ctx context.Context, id string, max int) ([]tooldoc.ToolExample, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return c.docs.ListExamples(id, max)
}

// ListNamespaces returns the script modules that hold functions.
func (c *Catalog) ListNamespaces(ctx context.Context) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return c.index.ListNamespaces()
}

// Function returns a function by ID.
func (c *Catalog) Function(id string) (scriptengine.Function, bool) {
	fn, ok := c.functions[id]
	return fn, ok
}

// Functions returns every function sorted by ID.
func (c *Catalog) Functions() []scriptengine.Function {
	out := make([]scriptengine.Function, len(c.ids))
	for i, id := range c.ids {
		out[i] = c.functions[id]
	}
	return out
}

// FunctionTool describes fn as a tool in its module's namespace, with a
// JSON Schema of its parameters.
func FunctionTool(fn scriptengine.Function) model.Tool {
	return model.Tool{
		Tool: mcp.Tool{
			Name:        fn.Name,
			Title:       fn.ScriptName(),
			Description: fn.Summary,
			InputSchema: inputSchema(fn),
		},
		Namespace: string(fn.Module),
		Tags:      model.NormalizeTags(append([]string{string(fn.Module)}, fn.Tags...)),
	}
}

func inputSchema(fn scriptengine.Function) map[string]any {
	props := make(map[string]any, len(fn.Params))
	required := make([]any, 0)
	for _, p := range fn.Params {
		prop := map[string]any{}
		switch p.Type {
		case "table":
			prop["type"] = "object"
			prop["format"] = "table"
		case "any", "":
		default:
			prop["type"] = p.Type
		}
		if p.Doc != "" {
			prop["description"] = p.Doc
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func functionDoc(fn scriptengine.Function) tooldoc.DocEntry {
	entry := tooldoc.DocEntry{
		Summary: fn.Summary,
		Notes:   strings.TrimSpace(fn.Notes + "\n\n" + Signature(fn)),
	}
	if fn.Example != "" {
		entry.Examples = []tooldoc.ToolExample{{
			ID:          fn.Name + "-1",
			Title:       "Call " + fn.ScriptName(),
			Description: fn.Example,
			ResultHint:  fn.Returns,
		}}
	}
	return entry
}

// Signature renders fn as a call line, "rank_by(df, metric, n=10, ...)".
func Signature(fn scriptengine.Function) string {
	parts := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		switch {
		case p.Required:
			parts[i] = p.Name
		case p.Default != nil:
			parts[i] = fmt.Sprintf("%s=%v", p.Name, p.Default)
		default:
			parts[i] = p.Name + "?"
		}
	}
	sig := fmt.Sprintf("%s(%s)", fn.ScriptName(), strings.Join(parts, ", "))
	if fn.Returns != "" {
		sig += " -> " + fn.Returns
	}
	return sig
}
