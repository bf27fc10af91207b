package render

import (
	"fmt"
	"strings"
)

const chartJSURL = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"

const documentStyle = `body{font-family:system-ui,sans-serif;max-width:960px;margin:2rem auto;padding:0 1rem;color:#1f2937}
.message{margin:1rem 0}.user-message .message-text{background:#dbeafe;padding:.6rem .9rem;border-radius:.5rem;display:inline-block}
table{border-collapse:collapse;width:100%}th,td{border:1px solid #e5e7eb;padding:.3rem .5rem;text-align:left}
.table-footer,.diagram-title,.table-title{color:#6b7280;font-size:.85rem;margin:.3rem 0}
.error-message{color:#b91c1c}.sql-query-content{display:none}.sql-query-content.expanded{display:block}
.sql-query-toggle{border:none;background:none;cursor:pointer;color:#6b7280}`

// The JSON job list is parsed and charts are bound only after the document
// (and therefore every canvas) is attached.
const documentScript = `document.addEventListener('DOMContentLoaded', function () {
  var jobs = JSON.parse(document.getElementById('chart-jobs').textContent);
  jobs.forEach(function (job) {
    var canvas = document.getElementById(job.id);
    if (canvas && window.Chart) { new Chart(canvas.getContext('2d'), job.config); }
  });
  document.querySelectorAll('.sql-query-toggle').forEach(function (btn) {
    btn.addEventListener('click', function () {
      var content = document.getElementById(btn.dataset.target);
      var icon = btn.querySelector('.toggle-icon');
      var open = content.classList.toggle('expanded');
      icon.textContent = open ? '▼' : '▶';
    });
  });
});`

// Document wraps fragments into a standalone HTML page.
func (r *Renderer) Document(title string, fragments []Fragment) (string, error) {
	var jobs []ChartJob
	var body strings.Builder
	for _, f := range fragments {
		body.WriteString(f.HTML)
		body.WriteString("\n")
		jobs = append(jobs, f.Charts...)
	}
	if jobs == nil {
		jobs = []ChartJob{}
	}

	// json.Marshal escapes <, > and & so the payload cannot close the script tag
	jobsJSON, err := jsonMarshal(jobs)
	if err != nil {
		return "", fmt.Errorf("failed to encode chart jobs: %w", err)
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<title>" + EscapeHTML(title) + "</title>\n")
	b.WriteString("<style>" + documentStyle + "</style>\n")
	b.WriteString("<script src=\"" + chartJSURL + "\"></script>\n")
	b.WriteString("</head>\n<body>\n<h1>" + EscapeHTML(title) + "</h1>\n")
	b.WriteString("<div id=\"chat-messages\">\n")
	b.WriteString(body.String())
	b.WriteString("</div>\n")
	b.WriteString("<script type=\"application/json\" id=\"chart-jobs\">" + string(jobsJSON) + "</script>\n")
	b.WriteString("<script>" + documentScript + "</script>\n")
	b.WriteString("</body>\n</html>\n")

	return b.String(), nil
}
