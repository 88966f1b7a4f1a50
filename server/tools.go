package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jv92admin/fpltools/backend"
	"github.com/jv92admin/fpltools/exec"
	"github.com/jv92admin/fpltools/observability"
)

// Tool names.
const (
	ToolAnalyze          = "fpl_analyze"
	ToolPlot             = "fpl_plot"
	ToolSearchFunctions  = "fpl_search_functions"
	ToolDescribeFunction = "fpl_describe_function"
	ToolListTables       = "fpl_list_tables"
)

// DefaultSearchLimit caps fpl_search_functions when no limit is given.
const DefaultSearchLimit = 10

// AnalyzeInput is the argument of fpl_analyze and fpl_plot.
type AnalyzeInput struct {
	Code           string                   `json:"code" jsonschema:"script to run; tables are bound as df_<table>"`
	Tables         []string                 `json:"tables,omitempty" jsonschema:"table IDs to load, as source:table or a bare name"`
	Queries        map[string]backend.Query `json:"queries,omitempty" jsonschema:"per-table filters, column selection, order and limit keyed by table ID"`
	Context        map[string]any           `json:"context,omitempty" jsonschema:"extra values bound by name"`
	TimeoutSeconds int                      `json:"timeout_seconds,omitempty" jsonschema:"run timeout in seconds"`
	Title          string                   `json:"title,omitempty" jsonschema:"chart title, fpl_plot only"`
}

func (in AnalyzeInput) request() exec.Request {
	return exec.Request{
		Code:    in.Code,
		Tables:  in.Tables,
		Queries: in.Queries,
		Context: in.Context,
		Timeout: time.Duration(in.TimeoutSeconds) * time.Second,
		Title:   in.Title,
	}
}

// SearchInput is the argument of fpl_search_functions.
type SearchInput struct {
	Query string `json:"query" jsonschema:"what the function should do, e.g. rolling average"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results"`
}

// DescribeInput is the argument of fpl_describe_function.
type DescribeInput struct {
	ID string `json:"id" jsonschema:"function ID from fpl_search_functions, e.g. fpl:rank_by"`
}

// FunctionMatch is one fpl_search_functions result.
type FunctionMatch struct {
	ID        string `json:"id"`
	Signature string `json:"signature"`
	Summary   string `json:"summary"`
}

// FunctionDescription is the fpl_describe_function result.
type FunctionDescription struct {
	ID        string   `json:"id"`
	Call      string   `json:"call"`
	Signature string   `json:"signature"`
	Summary   string   `json:"summary"`
	Notes     string   `json:"notes,omitempty"`
	Example   string   `json:"example,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// ErrUnknownFunction is returned by fpl_describe_function for an unknown ID.
var ErrUnknownFunction = errors.New("unknown function")

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolAnalyze,
		Description: "Run a script against FPL tables and return printed output, created tables and the trailing value.",
	}, s.analyze)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolPlot,
		Description: "Run a script that renders charts with render_line, render_bar, render_heatmap or render_comparison and return the chart files.",
	}, s.plot)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolSearchFunctions,
		Description: "Search the analysis functions available inside scripts.",
	}, s.searchFunctions)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolDescribeFunction,
		Description: "Show the signature, notes and an example for one analysis function.",
	}, s.describeFunction)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolListTables,
		Description: "List the tables scripts can load, with their columns and row counts.",
	}, s.listTables)
}

func (s *Server) analyze(ctx context.Context, _ *mcp.CallToolRequest, in AnalyzeInput) (*mcp.CallToolResult, struct{}, error) {
	start := time.Now()
	ctx, span := observability.Tracer().Start(ctx, "server."+ToolAnalyze)
	defer span.End()

	env, err := s.x.Analyze(ctx, in.request())
	if err != nil {
		s.logCall(ctx, ToolAnalyze, start, err)
		return nil, struct{}{}, err
	}
	if err := s.x.Cleanup(env); err != nil {
		s.logger.Warn("scratch cleanup failed", "dir", env.ScratchDir, "error", err)
	}
	span.SetAttributes(attribute.Bool("fpl.ok", env.OK()))
	s.logCall(ctx, ToolAnalyze, start, env.Err)
	return envelopeResult(env)
}

// plot keeps the scratch directory so the caller can read the chart files.
func (s *Server) plot(ctx context.Context, _ *mcp.CallToolRequest, in AnalyzeInput) (*mcp.CallToolResult, struct{}, error) {
	start := time.Now()
	ctx, span := observability.Tracer().Start(ctx, "server."+ToolPlot)
	defer span.End()

	s.SweepPlots()
	env, err := s.x.Plot(ctx, in.request())
	if err != nil {
		s.logCall(ctx, ToolPlot, start, err)
		return nil, struct{}{}, err
	}
	s.keepPlot(env)
	span.SetAttributes(attribute.Int("fpl.charts", len(env.Charts)))
	s.logCall(ctx, ToolPlot, start, env.Err)
	return envelopeResult(env)
}

func (s *Server) searchFunctions(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, struct{}, error) {
	start := time.Now()
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	catalog := s.x.Catalog()
	summaries, err := catalog.SearchFunctions(ctx, in.Query, limit)
	s.logCall(ctx, ToolSearchFunctions, start, err)
	if err != nil {
		return nil, struct{}{}, err
	}

	matches := make([]FunctionMatch, 0, len(summaries))
	for _, sum := range summaries {
		m := FunctionMatch{ID: sum.ID, Summary: sum.ShortDescription}
		if fn, ok := catalog.Function(sum.ID); ok {
			m.Signature = exec.Signature(fn)
		}
		matches = append(matches, m)
	}
	return jsonResult(matches, false)
}

func (s *Server) describeFunction(ctx context.Context, _ *mcp.CallToolRequest, in DescribeInput) (*mcp.CallToolResult, struct{}, error) {
	start := time.Now()
	fn, ok := s.x.Catalog().Function(in.ID)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownFunction, in.ID)
		s.logCall(ctx, ToolDescribeFunction, start, err)
		return nil, struct{}{}, err
	}
	s.logCall(ctx, ToolDescribeFunction, start, nil)
	return jsonResult(FunctionDescription{
		ID:        fn.ID(),
		Call:      fn.ScriptName(),
		Signature: exec.Signature(fn),
		Summary:   fn.Summary,
		Notes:     fn.Notes,
		Example:   fn.Example,
		Tags:      fn.Tags,
	}, false)
}

func (s *Server) listTables(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, struct{}, error) {
	start := time.Now()
	tables, err := s.x.ListTables(ctx)
	s.logCall(ctx, ToolListTables, start, err)
	if err != nil {
		return nil, struct{}{}, err
	}
	return jsonResult(tables, false)
}

// envelopeResult marks a failed run as a tool error.
func envelopeResult(env exec.Envelope) (*mcp.CallToolResult, struct{}, error) {
	return jsonResult(env, !env.OK())
}

func jsonResult(v any, isError bool) (*mcp.CallToolResult, struct{}, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, struct{}{}, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: isError,
	}, struct{}{}, nil
}
