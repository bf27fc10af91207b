package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"salesassist/api"
)

// ChartJob is the deferred half of a diagram render: the chart may only be
// built once the element with ID is mounted.
type ChartJob struct {
	ID     string      `json:"id"`
	Config ChartConfig `json:"config"`
}

// Fragment is rendered markup plus any charts waiting for their placeholder.
type Fragment struct {
	HTML   string
	Charts []ChartJob
}

// Renderer renders HTML fragments. The zero value is not usable; call New.
type Renderer struct {
	newID func(prefix string) string
}

func New() *Renderer {
	return &Renderer{newID: uuidID}
}

// NewWithIDs uses gen for element ids (tests want stable output).
func NewWithIDs(gen func(prefix string) string) *Renderer {
	return &Renderer{newID: gen}
}

func uuidID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func jsonMarshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func pluralRows(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}

func (r *Renderer) queryBlock(label, query string) string {
	id := r.newID("query")
	return `<div class="sql-query-collapsible">` +
		`<button class="sql-query-toggle" data-target="` + escapeAttr(id) + `">` +
		`<span class="toggle-icon">▶</span>` +
		`<span class="toggle-label">` + label + `</span>` +
		`</button>` +
		`<div class="sql-query-content" id="` + escapeAttr(id) + `">` +
		`<code>` + EscapeHTML(query) + `</code>` +
		`</div></div>`
}

// Table renders a table result.
func (r *Renderer) Table(result api.Result) string {
	var b strings.Builder
	b.WriteString(`<div class="result-table">`)

	if result.Query != "" {
		b.WriteString(r.queryBlock("SQL Query", result.Query))
	}

	if result.TableName != "" {
		b.WriteString(`<div class="table-title">Sample data from <strong>` + EscapeHTML(result.TableName) + `</strong></div>`)
	}

	b.WriteString(`<div class="table-wrapper"><table><thead><tr>`)
	for _, col := range result.Columns {
		b.WriteString("<th>" + EscapeHTML(col) + "</th>")
	}
	b.WriteString(`</tr></thead><tbody>`)
	for _, row := range result.Rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>" + EscapeHTML(api.CellText(cell)) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString(`</tbody></table></div>`)

	b.WriteString(`<div class="table-footer">` + pluralRows(result.RowCount) + `</div>`)
	b.WriteString(`</div>`)

	return b.String()
}

// Diagram renders the placeholder for a diagram result. The returned job
// must only run after the placeholder is attached.
func (r *Renderer) Diagram(result api.Result) (string, ChartJob) {
	id := r.newID("chart")

	var b strings.Builder
	b.WriteString(`<div class="result-diagram">`)
	if result.Title != "" {
		b.WriteString(`<div class="diagram-title">` + EscapeHTML(result.Title) + `</div>`)
	}
	b.WriteString(`<div class="chart-container"><canvas id="` + escapeAttr(id) + `"></canvas></div>`)
	b.WriteString(`</div>`)

	return b.String(), ChartJob{ID: id, Config: BuildChartConfig(result)}
}

// ErrorResult renders an error result from a tool call.
func (r *Renderer) ErrorResult(result api.Result) string {
	var b strings.Builder
	b.WriteString(`<div class="error-message">`)
	b.WriteString(`<strong>Error:</strong> ` + EscapeHTML(result.Error))
	if result.Query != "" {
		b.WriteString(r.queryBlock("Query", result.Query))
	}
	b.WriteString(`</div>`)
	return b.String()
}

// Results renders function results in order. Unknown types are skipped.
func (r *Renderer) Results(results []api.Result) Fragment {
	var f Fragment
	var b strings.Builder
	for _, res := range results {
		switch res.Type {
		case api.ResultTable:
			b.WriteString(r.Table(res))
		case api.ResultDiagram:
			html, job := r.Diagram(res)
			b.WriteString(html)
			f.Charts = append(f.Charts, job)
		case api.ResultError:
			b.WriteString(r.ErrorResult(res))
		}
	}
	f.HTML = b.String()
	return f
}

// UserMessage renders a user turn. index < 0 omits the message index.
func (r *Renderer) UserMessage(content string, index int) string {
	attr := ""
	if index >= 0 {
		attr = fmt.Sprintf(` data-message-index="%d"`, index)
	}
	return `<div class="message user-message"` + attr + `><div class="message-content">` +
		`<div class="message-text">` + EscapeHTML(content) + `</div>` +
		`</div></div>`
}

// AssistantMessage renders results first, then the text.
func (r *Renderer) AssistantMessage(content string, results []api.Result) Fragment {
	f := r.Results(results)

	var b strings.Builder
	b.WriteString(`<div class="message assistant-message"><div class="message-content">`)
	b.WriteString(f.HTML)
	if content != "" {
		b.WriteString(`<div class="message-text">` + MarkdownLite(content) + `</div>`)
	}
	b.WriteString(`</div></div>`)

	f.HTML = b.String()
	return f
}

// ErrorMessage renders an inline error turn.
func (r *Renderer) ErrorMessage(message string, critical bool) string {
	class, label := "error-message", "Error"
	if critical {
		class, label = "error-message critical-error", "Critical Error"
	}
	return `<div class="message assistant-message"><div class="message-content">` +
		`<div class="` + class + `"><strong>` + label + `:</strong> ` + EscapeHTML(message) + `</div>` +
		`</div></div>`
}

// Loading renders the in-flight placeholder.
func (r *Renderer) Loading() string {
	return `<div class="message assistant-message loading"><div class="message-content">` +
		`<div class="loading-dots"><span></span><span></span><span></span></div>` +
		`</div></div>`
}

// Message renders a stored message by role. Unknown roles render nothing.
func (r *Renderer) Message(msg api.Message, index int) Fragment {
	switch msg.Role {
	case api.RoleUser:
		return Fragment{HTML: r.UserMessage(msg.Content, index)}
	case api.RoleAssistant:
		return r.AssistantMessage(msg.Content, msg.FunctionResults)
	case api.RoleError:
		return Fragment{HTML: r.ErrorMessage(msg.Content, msg.IsCritical)}
	}
	return Fragment{}
}

// CriticalPage replaces the whole application after a critical error.
func (r *Renderer) CriticalPage(message string) string {
	return `<div class="critical-error-page"><div class="critical-error-content">` +
		`<div class="critical-error-icon">⚠</div>` +
		`<h1>Critical Error</h1>` +
		`<p class="critical-error-message">` + EscapeHTML(message) + `</p>` +
		`<p class="critical-error-help">The application encountered a critical error and can't continue. Please refresh the page to try again.</p>` +
		`<button class="btn-reload">Reload Application</button>` +
		`</div></div>`
}

// SampleQuestions are offered on the welcome view.
var SampleQuestions = []string{
	"What are the top 5 customers by order value?",
	"Show me all products in the Electronics category",
	"What were the sales sum last month?",
	"Which products have low stock?",
}

// Welcome renders the empty-conversation view.
func (r *Renderer) Welcome() string {
	var b strings.Builder
	b.WriteString(`<div class="welcome-message"><h2>Welcome to Sales Assistant</h2>`)
	b.WriteString(`<p>Ask me anything about your sales data. For example:</p><ul>`)
	for _, q := range SampleQuestions {
		b.WriteString("<li>" + EscapeHTML(q) + "</li>")
	}
	b.WriteString(`</ul></div>`)
	return b.String()
}
