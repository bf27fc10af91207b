package tools

import (
	"context"
	"fmt"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"salesassist/api"
	"salesassist/storage"
)

// ServerTools binds the data tools to sales for an MCP server. Results are
// plain text tables, which is what MCP hosts show to their models.
func ServerTools(sales *storage.SalesDB) []server.ServerTool {
	handlers := map[string]server.ToolHandlerFunc{
		GetDatabaseSchema: func(ctx context.Context, _ mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
			schema, err := sales.Schema(ctx)
			if err != nil {
				return mcptypes.NewToolResultError(errorText(err)), nil
			}
			return mcptypes.NewToolResultText(schema), nil
		},
		ExecuteSQLQuery: func(ctx context.Context, request mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
			res, err := sales.Query(ctx, stringArg(request.GetArguments(), "query"))
			if err != nil {
				return mcptypes.NewToolResultError(errorText(err)), nil
			}
			return mcptypes.NewToolResultText(FormatRows(res, "Query executed successfully but returned no results.")), nil
		},
		GetSampleData: func(ctx context.Context, request mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
			args := request.GetArguments()
			table := strings.ToLower(stringArg(args, "table_name"))
			limit, err := intArg(args, "limit", DefaultSampleLimit)
			if err != nil {
				return mcptypes.NewToolResultError(errorText(err)), nil
			}
			res, err := sales.Sample(ctx, table, limit)
			if err != nil {
				return mcptypes.NewToolResultError(errorText(err)), nil
			}
			return mcptypes.NewToolResultText(FormatRows(res, fmt.Sprintf("Table %s is empty.", table))), nil
		},
	}

	tools := DataTools()
	out := make([]server.ServerTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, server.ServerTool{Tool: t, Handler: handlers[t.Name]})
	}
	return out
}

// FormatRows renders a result as a header line, a dash rule and one
// " | "-separated line per row. NULL cells print as NULL.
func FormatRows(res *storage.QueryResult, emptyText string) string {
	if len(res.Rows) == 0 {
		return emptyText
	}

	header := strings.Join(res.Columns, " | ")
	lines := make([]string, 0, len(res.Rows)+2)
	lines = append(lines, header, strings.Repeat("-", len(header)))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = api.CellText(v)
			}
		}
		lines = append(lines, strings.Join(cells, " | "))
	}
	return strings.Join(lines, "\n")
}

func errorText(err error) string {
	msg := err.Error()
	if strings.HasPrefix(msg, "SQL Error:") {
		return msg
	}
	return "Error: " + msg
}
