package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	ollamaapi "github.com/ollama/ollama/api"

	"salesassist/api"
	"salesassist/tools"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama3.2"

	// maxToolRounds caps how many times one reply may go back to the model
	// with tool output.
	maxToolRounds = 5
)

const systemPrompt = `You are a sales data analyst with direct access to a SQLite sales database.

Turn questions about sales into SQL, run it, and explain what the numbers mean.

- Call get_database_schema first if you are unsure which tables or columns exist.
- Call get_sample_data to look at example rows.
- Run read-only SELECT statements with execute_sql_query. Add LIMIT 10 to open-ended lists unless asked otherwise.
- Call create_diagram when a chart would answer the question better than a table.
- Always finish with a short summary in prose after the tool output. If a query returns nothing, say why and suggest a broader one.

Be concise and put key figures in **bold**. Answer the question in the first sentence.`

// OllamaResponder answers with a model served by Ollama, letting it call
// the sales database tools.
type OllamaResponder struct {
	client *ollamaapi.Client
	model  string
	exec   *tools.Executor
	tools  []ollamaapi.Tool
	logger *slog.Logger
}

func NewOllamaResponder(baseURL, model string, exec *tools.Executor, logger *slog.Logger) (*OllamaResponder, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama URL: %w", err)
	}

	return &OllamaResponder{
		client: ollamaapi.NewClient(parsedURL, http.DefaultClient),
		model:  model,
		exec:   exec,
		tools:  tools.ToOllama(tools.Catalogue()),
		logger: logger,
	}, nil
}

func (o *OllamaResponder) Respond(ctx context.Context, history []api.Message, message string) (Reply, error) {
	messages := make([]ollamaapi.Message, 0, len(history)+2)
	messages = append(messages, ollamaapi.Message{Role: "system", Content: systemPrompt})
	for _, m := range history {
		// Error entries are for the user, not the model.
		if m.Role == api.RoleUser || m.Role == api.RoleAssistant {
			messages = append(messages, ollamaapi.Message{Role: m.Role, Content: m.Content})
		}
	}
	messages = append(messages, ollamaapi.Message{Role: api.RoleUser, Content: message})

	var reply Reply
	for round := 1; round <= maxToolRounds; round++ {
		content, calls, err := o.chat(ctx, messages)
		if err != nil {
			return Reply{}, err
		}
		reply.Message += content
		if len(calls) == 0 {
			break
		}

		messages = append(messages, ollamaapi.Message{Role: api.RoleAssistant, Content: content, ToolCalls: calls})
		for _, call := range calls {
			name := call.Function.Name
			result := o.exec.Call(ctx, name, map[string]any(call.Function.Arguments))
			o.logger.Debug("tool call", "round", round, "tool", name, "result", result.Type)
			reply.Results = append(reply.Results, result)

			data, err := json.Marshal(result)
			if err != nil {
				return Reply{}, fmt.Errorf("failed to encode %s result: %w", name, err)
			}
			messages = append(messages, ollamaapi.Message{Role: "tool", Content: string(data)})
		}
	}
	return reply, nil
}

func (o *OllamaResponder) chat(ctx context.Context, messages []ollamaapi.Message) (string, []ollamaapi.ToolCall, error) {
	req := &ollamaapi.ChatRequest{
		Model:    o.model,
		Messages: messages,
		Tools:    o.tools,
		Stream:   func(b bool) *bool { return &b }(false),
	}

	var content string
	var calls []ollamaapi.ToolCall
	err := o.client.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
		content += resp.Message.Content
		calls = append(calls, resp.Message.ToolCalls...)
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("ollama chat failed: %w", err)
	}
	return content, calls, nil
}
