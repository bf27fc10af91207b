package render

import (
	"fmt"
	"strings"
	"testing"

	"salesassist/api"
)

func seqRenderer() *Renderer {
	n := 0
	return NewWithIDs(func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	})
}

func TestTableEscapesEverything(t *testing.T) {
	r := seqRenderer()
	html := r.Table(api.Result{
		Type:      api.ResultTable,
		Columns:   []string{"<th>name"},
		Rows:      [][]any{{"<script>alert(1)</script>", float64(3)}},
		RowCount:  1,
		Query:     "SELECT '<b>'",
		TableName: "<i>customers",
	})

	if strings.Contains(html, "<script>") || strings.Contains(html, "<b>") || strings.Contains(html, "<i>") {
		t.Fatalf("unescaped markup in %s", html)
	}
	for _, want := range []string{
		"<th>&lt;th&gt;name</th>",
		"<td>&lt;script&gt;alert(1)&lt;/script&gt;</td>",
		"<td>3</td>",
		"<code>SELECT '&lt;b&gt;'</code>",
		"Sample data from <strong>&lt;i&gt;customers</strong>",
		`<div class="table-footer">1 row</div>`,
		`data-target="query-1"`,
		`id="query-1"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q in %s", want, html)
		}
	}
}

func TestTableFooterPluralises(t *testing.T) {
	r := seqRenderer()
	tests := []struct {
		count int
		want  string
	}{
		{0, "0 rows"},
		{1, "1 row"},
		{2, "2 rows"},
	}
	for _, tt := range tests {
		html := r.Table(api.Result{Type: api.ResultTable, RowCount: tt.count})
		if !strings.Contains(html, `<div class="table-footer">`+tt.want+`</div>`) {
			t.Errorf("row_count %d: footer missing %q", tt.count, tt.want)
		}
	}
}

func TestTableWithoutQueryHasNoToggle(t *testing.T) {
	html := seqRenderer().Table(api.Result{Type: api.ResultTable, Columns: []string{"a"}})
	if strings.Contains(html, "sql-query") {
		t.Errorf("unexpected query block: %s", html)
	}
}

func TestDiagramIsTwoPhase(t *testing.T) {
	html, job := seqRenderer().Diagram(api.Result{
		Type:      api.ResultDiagram,
		ChartType: api.ChartBar,
		Title:     "<Sales>",
		Labels:    []any{"Jan"},
		Datasets:  []api.Dataset{{Label: "Revenue", Data: []float64{10}}},
	})

	if !strings.Contains(html, `<canvas id="chart-1"></canvas>`) {
		t.Errorf("placeholder missing: %s", html)
	}
	if !strings.Contains(html, `<div class="diagram-title">&lt;Sales&gt;</div>`) {
		t.Errorf("title not escaped: %s", html)
	}
	if job.ID != "chart-1" || job.Config.Type != api.ChartBar {
		t.Errorf("job = %+v", job)
	}
}

func TestErrorResult(t *testing.T) {
	r := seqRenderer()
	html := r.ErrorResult(api.Result{Type: api.ResultError, Error: "no such table: <x>"})
	if html != `<div class="error-message"><strong>Error:</strong> no such table: &lt;x&gt;</div>` {
		t.Errorf("got %s", html)
	}

	html = r.ErrorResult(api.Result{Type: api.ResultError, Error: "bad", Query: "SELECT x"})
	if !strings.Contains(html, `<span class="toggle-label">Query</span>`) || !strings.Contains(html, "<code>SELECT x</code>") {
		t.Errorf("query block missing: %s", html)
	}
}

func TestAssistantMessageResultsBeforeText(t *testing.T) {
	f := seqRenderer().AssistantMessage("**Acme** leads", []api.Result{
		{Type: api.ResultTable, Columns: []string{"c"}, RowCount: 0},
		{Type: api.ResultDiagram, ChartType: api.ChartPie},
		{Type: api.ResultText, Content: "schema"},
	})

	tableAt := strings.Index(f.HTML, "result-table")
	chartAt := strings.Index(f.HTML, "result-diagram")
	textAt := strings.Index(f.HTML, "<strong>Acme</strong>")
	if tableAt < 0 || chartAt < tableAt || textAt < chartAt {
		t.Errorf("wrong order (table %d, chart %d, text %d): %s", tableAt, chartAt, textAt, f.HTML)
	}
	if strings.Contains(f.HTML, "schema") {
		t.Error("text results must not render")
	}
	if len(f.Charts) != 1 {
		t.Errorf("got %d chart jobs", len(f.Charts))
	}
}

func TestAssistantMessageEmptyContent(t *testing.T) {
	f := seqRenderer().AssistantMessage("", nil)
	if strings.Contains(f.HTML, "message-text") {
		t.Errorf("empty content should not emit a text block: %s", f.HTML)
	}
}

func TestErrorMessage(t *testing.T) {
	r := seqRenderer()
	if got := r.ErrorMessage("<oops>", false); !strings.Contains(got, `<div class="error-message"><strong>Error:</strong> &lt;oops&gt;</div>`) {
		t.Errorf("got %s", got)
	}
	if got := r.ErrorMessage("down", true); !strings.Contains(got, `<div class="error-message critical-error"><strong>Critical Error:</strong> down</div>`) {
		t.Errorf("got %s", got)
	}
}

func TestUserMessage(t *testing.T) {
	r := seqRenderer()
	if got := r.UserMessage("<hi>", 2); !strings.Contains(got, `data-message-index="2"`) || !strings.Contains(got, "&lt;hi&gt;") {
		t.Errorf("got %s", got)
	}
	if got := r.UserMessage("hi", -1); strings.Contains(got, "data-message-index") {
		t.Errorf("optimistic message should carry no index: %s", got)
	}
}

func TestMessageByRole(t *testing.T) {
	r := seqRenderer()
	if f := r.Message(api.Message{Role: "system", Content: "x"}, 0); f.HTML != "" {
		t.Errorf("unknown role rendered: %s", f.HTML)
	}
	if f := r.Message(api.Message{Role: api.RoleError, Content: "x", IsCritical: true}, 0); !strings.Contains(f.HTML, "critical-error") {
		t.Errorf("got %s", f.HTML)
	}
}

func TestCriticalPageEscapes(t *testing.T) {
	got := seqRenderer().CriticalPage("<script>x</script>")
	if strings.Contains(got, "<script>") {
		t.Errorf("unescaped: %s", got)
	}
	if !strings.Contains(got, "Reload Application") {
		t.Error("reload action missing")
	}
}

func TestWelcome(t *testing.T) {
	got := seqRenderer().Welcome()
	for _, q := range SampleQuestions {
		if !strings.Contains(got, "<li>"+EscapeHTML(q)+"</li>") {
			t.Errorf("missing sample %q", q)
		}
	}
}

func TestDocument(t *testing.T) {
	r := seqRenderer()
	f := r.AssistantMessage("done", []api.Result{{
		Type:      api.ResultDiagram,
		ChartType: api.ChartBar,
		Labels:    []any{"</script><script>alert(1)</script>"},
		Datasets:  []api.Dataset{{Label: "x", Data: []float64{1}}},
	}})

	doc, err := r.Document("Top <customers>", []Fragment{{HTML: r.UserMessage("q", 0)}, f})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(doc, "<!DOCTYPE html>") {
		t.Error("missing doctype")
	}
	if !strings.Contains(doc, "<title>Top &lt;customers&gt;</title>") {
		t.Error("title not escaped")
	}
	if strings.Count(doc, "<script>alert(1)") != 0 {
		t.Error("chart label escaped out of the JSON payload")
	}
	if !strings.Contains(doc, `"id":"chart-1"`) {
		t.Errorf("chart job missing from payload")
	}
	if !strings.Contains(doc, "DOMContentLoaded") {
		t.Error("charts must be bound after the document is attached")
	}
}
