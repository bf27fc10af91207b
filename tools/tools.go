// Package tools holds the functions the assistant may call against the
// sales database. The catalogue is described once as MCP tools and
// converted for each consumer: the Ollama responder and the MCP server.
package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"salesassist/api"
	"salesassist/storage"
)

const (
	GetDatabaseSchema = "get_database_schema"
	ExecuteSQLQuery   = "execute_sql_query"
	GetSampleData     = "get_sample_data"
	CreateDiagram     = "create_diagram"
)

// DefaultSampleLimit is used when get_sample_data is called without a limit.
const DefaultSampleLimit = 5

// DiagramTypes are the chart types create_diagram accepts.
var DiagramTypes = []string{
	api.ChartBar, api.ChartLine, api.ChartPie, api.ChartDoughnut,
	api.ChartPolarArea, api.ChartRadar, api.ChartScatter, api.ChartBubble,
}

func enumOf(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// DataTools are the tools that read the database.
func DataTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        GetDatabaseSchema,
			Description: "Get the complete database schema: every table with its columns and types.",
			InputSchema: mcptypes.ToolInputSchema{
				Type:       "object",
				Properties: map[string]any{},
			},
		},
		{
			Name:        ExecuteSQLQuery,
			Description: "Execute a read-only SQL SELECT query against the sales database. INSERT, UPDATE, DELETE and DDL are rejected.",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "A SELECT SQL query to execute",
					},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        GetSampleData,
			Description: "Get sample rows from a table to understand the data structure.",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"table_name": map[string]any{
						"type":        "string",
						"description": "Name of the table to sample",
						"enum":        enumOf(storage.SampleTables),
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": fmt.Sprintf("Number of sample rows to return (default: %d)", DefaultSampleLimit),
					},
				},
				Required: []string{"table_name"},
			},
		},
	}
}

// Catalogue is every tool the chat assistant is offered.
func Catalogue() []mcptypes.Tool {
	return append(DataTools(), mcptypes.Tool{
		Name:        CreateDiagram,
		Description: "Draw a chart from a SELECT query. The first column gives the labels and every further numeric column becomes a dataset.",
		InputSchema: mcptypes.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"chart_type": map[string]any{
					"type":        "string",
					"description": "Kind of chart to draw",
					"enum":        enumOf(DiagramTypes),
				},
				"title": map[string]any{
					"type":        "string",
					"description": "Chart title",
				},
				"query": map[string]any{
					"type":        "string",
					"description": "A SELECT SQL query returning a label column followed by numeric columns",
				},
			},
			Required: []string{"chart_type", "query"},
		},
	})
}

// Executor runs tool calls and reports their outcome as the structured
// results attached to assistant messages.
type Executor struct {
	Sales *storage.SalesDB

	// HideQueries leaves SQL out of table and error results.
	HideQueries bool
}

func (e *Executor) shownQuery(query string) string {
	if e.HideQueries {
		return ""
	}
	return query
}

// Call runs the named tool. Failures are reported as error results, never
// as Go errors, so the model can read them and try again.
func (e *Executor) Call(ctx context.Context, name string, args map[string]any) api.Result {
	switch name {
	case GetDatabaseSchema:
		schema, err := e.Sales.Schema(ctx)
		if err != nil {
			return api.Result{Type: api.ResultError, Error: err.Error()}
		}
		return api.Result{Type: api.ResultText, Content: schema}

	case ExecuteSQLQuery:
		query := stringArg(args, "query")
		res, err := e.Sales.Query(ctx, query)
		if err != nil {
			return api.Result{Type: api.ResultError, Error: err.Error(), Query: e.shownQuery(query)}
		}
		return api.Result{
			Type:     api.ResultTable,
			Query:    e.shownQuery(query),
			Columns:  res.Columns,
			Rows:     res.Rows,
			RowCount: len(res.Rows),
		}

	case GetSampleData:
		table := strings.ToLower(stringArg(args, "table_name"))
		limit, err := intArg(args, "limit", DefaultSampleLimit)
		if err != nil {
			return api.Result{Type: api.ResultError, Error: err.Error()}
		}
		res, err := e.Sales.Sample(ctx, table, limit)
		if err != nil {
			return api.Result{Type: api.ResultError, Error: err.Error()}
		}
		return api.Result{
			Type:      api.ResultTable,
			TableName: table,
			Columns:   res.Columns,
			Rows:      res.Rows,
			RowCount:  len(res.Rows),
		}

	case CreateDiagram:
		return e.diagram(ctx, args)
	}
	return api.Result{Type: api.ResultError, Error: "Unknown function: " + name}
}

func (e *Executor) diagram(ctx context.Context, args map[string]any) api.Result {
	query := stringArg(args, "query")
	chartType := stringArg(args, "chart_type")
	if chartType == "" {
		chartType = api.ChartBar
	}
	if !slices.Contains(DiagramTypes, chartType) {
		return api.Result{
			Type:  api.ResultError,
			Error: fmt.Sprintf("Chart type must be one of %v", DiagramTypes),
			Query: e.shownQuery(query),
		}
	}

	res, err := e.Sales.Query(ctx, query)
	if err != nil {
		return api.Result{Type: api.ResultError, Error: err.Error(), Query: e.shownQuery(query)}
	}
	if len(res.Columns) < 2 {
		return api.Result{
			Type:  api.ResultError,
			Error: "Diagram query must return a label column and at least one value column",
			Query: e.shownQuery(query),
		}
	}

	labels := make([]any, 0, len(res.Rows))
	datasets := make([]api.Dataset, len(res.Columns)-1)
	for i := range datasets {
		datasets[i] = api.Dataset{Label: res.Columns[i+1], Data: make([]float64, 0, len(res.Rows))}
	}
	for _, row := range res.Rows {
		labels = append(labels, row[0])
		for i := range datasets {
			datasets[i].Data = append(datasets[i].Data, cast.ToFloat64(row[i+1]))
		}
	}

	return api.Result{
		Type:      api.ResultDiagram,
		ChartType: chartType,
		Title:     stringArg(args, "title"),
		Labels:    labels,
		Datasets:  datasets,
	}
}

func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

// intArg reads an integer argument. Models send numbers as JSON numbers or
// as strings, so both are accepted.
func intArg(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil || v == "" {
		return def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}
