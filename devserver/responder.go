package devserver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"salesassist/api"
	"salesassist/storage"
	"salesassist/tools"
)

// Reply is what the assistant says back: text plus structured results.
type Reply struct {
	Message string
	Results []api.Result
}

// Responder produces the assistant's reply to a message. history holds the
// conversation before message.
type Responder interface {
	Respond(ctx context.Context, history []api.Message, message string) (Reply, error)
}

// CannedReply answers any message containing Match, case-insensitively.
type CannedReply struct {
	Match string `yaml:"match"`
	Reply string `yaml:"reply"`
}

type repliesFile struct {
	Replies []CannedReply `yaml:"replies"`
}

// LoadReplies reads canned replies from a YAML file of the form
//
//	replies:
//	  - match: hello
//	    reply: Hi! Ask me about **sales**.
func LoadReplies(path string) ([]CannedReply, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read replies file: %w", err)
	}
	var f repliesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse replies file: %w", err)
	}
	for i, r := range f.Replies {
		if strings.TrimSpace(r.Match) == "" {
			return nil, fmt.Errorf("reply %d has no match", i+1)
		}
	}
	return f.Replies, nil
}

// intent is a question the scripted assistant knows how to answer with SQL.
type intent struct {
	keywords []string
	query    string
	message  string
}

var intents = []intent{
	{
		keywords: []string{"top", "customer"},
		query: `SELECT c.name, c.country, ROUND(SUM(o.amount_sum), 2) AS total_value
FROM customers c JOIN orders o ON o.customer_id = c.id
GROUP BY c.id ORDER BY total_value DESC LIMIT 5`,
		message: "These are the **top 5 customers** by total order value.",
	},
	{
		keywords: []string{"electronics"},
		query:    `SELECT name, price, stock_quantity FROM products WHERE category = 'Electronics' ORDER BY name`,
		message:  "Here are all products in the *Electronics* category.",
	},
	{
		keywords: []string{"last month"},
		query: `SELECT COUNT(*) AS orders, ROUND(SUM(amount_sum), 2) AS sales_sum
FROM orders
WHERE order_date >= date('now', 'start of month', '-1 month') AND order_date < date('now', 'start of month')`,
		message: "This is the **sales sum** for last month.",
	},
	{
		keywords: []string{"low stock"},
		query:    `SELECT name, category, stock_quantity FROM products WHERE stock_quantity < 50 ORDER BY stock_quantity`,
		message:  "These products have fewer than 50 units in stock.",
	},
}

func (in intent) matches(lower string) bool {
	for _, k := range in.keywords {
		if !strings.Contains(lower, k) {
			return false
		}
	}
	return true
}

const helpReply = "I'm the scripted development assistant. Try one of:\n" +
	"- `sql: SELECT name, price FROM products`\n" +
	"- `sample orders`\n" +
	"- `chart`, `chart pie` or `chart line`\n" +
	"- `schema`"

// ScriptedResponder answers deterministically from the sales database, so
// the client can be exercised without a language model. Messages mentioning
// "crash" or "rate limit" fail on purpose.
type ScriptedResponder struct {
	Sales       *storage.SalesDB
	Replies     []CannedReply
	HideQueries bool
}

func (sr *ScriptedResponder) Respond(ctx context.Context, _ []api.Message, message string) (Reply, error) {
	text := strings.TrimSpace(message)
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "crash"):
		return Reply{}, errors.New("model backend crashed unexpectedly")
	case strings.Contains(lower, "rate limit"):
		return Reply{}, errors.New("429 Too Many Requests: rate limit exceeded")
	}

	for _, r := range sr.Replies {
		if strings.Contains(lower, strings.ToLower(r.Match)) {
			return Reply{Message: r.Reply}, nil
		}
	}

	switch {
	case strings.HasPrefix(lower, "sql:"):
		return sr.runQuery(ctx, strings.TrimSpace(text[len("sql:"):]), "")
	case strings.HasPrefix(lower, "sample "):
		return sr.sample(ctx, strings.TrimSpace(lower[len("sample "):]))
	case lower == "schema":
		return sr.schema(ctx)
	case lower == "chart" || strings.HasPrefix(lower, "chart "):
		return sr.chart(ctx, strings.Fields(lower)[1:])
	}

	for _, in := range intents {
		if in.matches(lower) {
			return sr.runQuery(ctx, in.query, in.message)
		}
	}
	return Reply{Message: helpReply}, nil
}

func (sr *ScriptedResponder) exec() *tools.Executor {
	return &tools.Executor{Sales: sr.Sales, HideQueries: sr.HideQueries}
}

func (sr *ScriptedResponder) runQuery(ctx context.Context, query, message string) (Reply, error) {
	res := sr.exec().Call(ctx, tools.ExecuteSQLQuery, map[string]any{"query": query})
	if res.IsError() {
		return Reply{Message: "The query could not be run.", Results: []api.Result{res}}, nil
	}
	if message == "" {
		message = fmt.Sprintf("The query returned %s.", pluralRows(res.RowCount))
	}
	return Reply{Message: message, Results: []api.Result{res}}, nil
}

func (sr *ScriptedResponder) sample(ctx context.Context, table string) (Reply, error) {
	res := sr.exec().Call(ctx, tools.GetSampleData, map[string]any{"table_name": table})
	if res.IsError() {
		return Reply{Message: "I couldn't read that table.", Results: []api.Result{res}}, nil
	}
	return Reply{
		Message: fmt.Sprintf("Here are the first rows of **%s**.", table),
		Results: []api.Result{res},
	}, nil
}

func (sr *ScriptedResponder) schema(ctx context.Context) (Reply, error) {
	res := sr.exec().Call(ctx, tools.GetDatabaseSchema, nil)
	if res.IsError() {
		return Reply{}, fmt.Errorf("failed to read schema: %s", res.Error)
	}
	return Reply{
		Message: "The database has the tables " + strings.Join(storage.SampleTables, ", ") + ".",
		Results: []api.Result{res},
	}, nil
}

// chartTypes maps the word after "chart" to the chart type it requests.
var chartTypes = map[string]string{
	"bar":       api.ChartBar,
	"line":      api.ChartLine,
	"pie":       api.ChartPie,
	"doughnut":  api.ChartDoughnut,
	"polararea": api.ChartPolarArea,
	"radar":     api.ChartRadar,
}

const (
	revenueByCategory = `SELECT p.category, ROUND(SUM(oi.subsum), 2) AS "Revenue"
FROM order_items oi JOIN products p ON p.id = oi.product_id
GROUP BY p.category ORDER BY 2 DESC`
	revenueByMonth = `SELECT substr(order_date, 1, 7) AS month, ROUND(SUM(amount_sum), 2) AS "Revenue"
FROM orders GROUP BY month ORDER BY month`
)

func (sr *ScriptedResponder) chart(ctx context.Context, args []string) (Reply, error) {
	chartType := api.ChartBar
	if len(args) > 0 {
		if t, ok := chartTypes[args[0]]; ok {
			chartType = t
		}
	}

	query, title := revenueByCategory, "Revenue by category"
	if chartType == api.ChartLine {
		query, title = revenueByMonth, "Monthly revenue"
	}

	res := sr.exec().Call(ctx, tools.CreateDiagram, map[string]any{
		"chart_type": chartType,
		"title":      title,
		"query":      query,
	})
	if res.IsError() {
		return Reply{}, fmt.Errorf("failed to build chart data: %s", res.Error)
	}
	return Reply{
		Message: fmt.Sprintf("Here is the %s.", strings.ToLower(title)),
		Results: []api.Result{res},
	}, nil
}

func pluralRows(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}
