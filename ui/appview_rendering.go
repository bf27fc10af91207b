package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"salesassist/api"
	"salesassist/config"
	appmodel "salesassist/model"
)

// Pre-compiled regex patterns for better performance
var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s]+)`)
	ansiRegex       = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

const codeBlockBar = "┃"

func (a *AppView) updateViewportContent(gotoBottom bool) {
	width := a.viewport.Width

	if a.dataModel.Welcome() {
		a.layout = nil
		a.viewport.SetContent(renderWelcome(width, a.keys))
		a.viewport.GotoTop()
		return
	}

	entries := a.dataModel.Transcript.Entries()
	if len(entries) == 0 {
		a.layout = nil
		a.viewport.SetContent(DimStyle.Render("No messages yet."))
		return
	}

	var lines []string
	layout := make([]entrySpan, 0, len(entries))
	for _, e := range entries {
		start := len(lines)
		lines = append(lines, strings.Split(a.renderEntry(e, width), "\n")...)
		layout = append(layout, entrySpan{key: e.Key, start: start, end: len(lines)})
		lines = append(lines, "")
	}
	a.layout = layout

	a.viewport.SetContent(strings.Join(lines, "\n"))
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

// visibleKeys returns the entries that intersect the viewport.
func (a AppView) visibleKeys() []int {
	top := a.viewport.YOffset
	bottom := top + a.viewport.Height
	var keys []int
	for _, span := range a.layout {
		if span.start < bottom && span.end > top {
			keys = append(keys, span.key)
		}
	}
	return keys
}

// mountCharts starts building charts for entries that are on screen.
func (a *AppView) mountCharts() []tea.Cmd {
	jobs := a.dataModel.Transcript.Mounted(a.visibleKeys())
	cmds := make([]tea.Cmd, 0, len(jobs))
	for _, job := range jobs {
		cmds = append(cmds, buildChart(job, max(20, a.viewport.Width-2)))
	}
	return cmds
}

func buildChart(job appmodel.ChartJob, width int) tea.Cmd {
	return func() tea.Msg {
		return appmodel.ChartBuiltMsg{
			EntryKey: job.EntryKey,
			Pos:      job.Pos,
			Rendered: renderChart(job.Config, width),
		}
	}
}

func (a *AppView) renderEntry(e *appmodel.Entry, width int) string {
	prefix := ""
	if a.focus == focusMessages && e.Key == a.selectedKey {
		prefix = HighlightStyle.Render(">>> ")
	}

	switch e.Kind {
	case appmodel.EntryUser:
		if e.Key == a.editingKey {
			return a.renderEditor(prefix)
		}
		role := UserStyle.Render("You")
		if prefix != "" && e.Editable() {
			role += DimStyle.Render(fmt.Sprintf("  (%s to edit)", a.keys.DisplayActionKey("message_edit")))
		}
		return formatUserMessage(prefix, role, wordwrap.String(e.Content, max(10, width-4)))

	case appmodel.EntryAssistant:
		var parts []string
		parts = append(parts, prefix+AssistantStyle.Render("Assistant"))
		if results := a.renderResults(e, width); results != "" {
			parts = append(parts, results)
		}
		if e.Content != "" {
			parts = append(parts, a.renderMarkdown(e.Key, e.Content, width))
		}
		return strings.Join(parts, "\n")

	case appmodel.EntryError:
		label := "Error:"
		if e.Critical {
			label = "Critical Error:"
		}
		return prefix + ErrorStyle.Render(label) + "\n" + wordwrap.String(e.Content, max(10, width-2))

	case appmodel.EntryLoading:
		return a.loadingSpinner.View() + " " + DimStyle.Render("Thinking...")
	}
	return ""
}

func (a *AppView) renderEditor(prefix string) string {
	header := prefix + UserStyle.Render("You") + DimStyle.Render(" (editing)")
	footer := FormatFooter(
		a.keys.DisplayActionKey("edit_save"), "Save",
		a.keys.DisplayActionKey("edit_cancel"), "Cancel",
	)
	return header + "\n" + a.editArea.View() + "\n" + footer
}

// renderResults draws an entry's structured results, in order, above its text.
func (a *AppView) renderResults(e *appmodel.Entry, width int) string {
	expanded := e.QueriesExpanded != a.dataModel.ShowQueries()

	var blocks []string
	for pos, r := range e.Results {
		switch {
		case r.IsTable():
			block := renderTable(r, width)
			if r.Query != "" {
				block = renderQueryBlock("SQL Query", r.Query, expanded, width) + "\n" + block
			}
			blocks = append(blocks, block)
		case r.IsDiagram():
			if chart, ok := a.dataModel.Transcript.Chart(e.Key, pos); ok {
				blocks = append(blocks, chart)
			} else {
				blocks = append(blocks, chartPlaceholder(r))
			}
		case r.IsError():
			block := ErrorStyle.Render("Error:") + " " + wordwrap.String(r.Error, max(10, width-8))
			if r.Query != "" {
				block += "\n" + renderQueryBlock("Query", r.Query, expanded, width)
			}
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func chartPlaceholder(r api.Result) string {
	var b strings.Builder
	if r.Title != "" {
		b.WriteString(TitleStyle.Render(r.Title) + "\n")
	}
	b.WriteString(DimStyle.Render("Rendering chart..."))
	return b.String()
}

func renderQueryBlock(label, query string, expanded bool, width int) string {
	if !expanded {
		return DimStyle.Render("▸ " + label)
	}
	body := indent.String(wordwrap.String(query, max(10, width-4)), 2)
	return DimStyle.Render("▾ "+label) + "\n" + QueryStyle.Render(body)
}

func formatUserMessage(highlightPrefix, role, content string) string {
	bar := UserStyle.Render("┃")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s%s %s", highlightPrefix, bar, role))

	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("\n%s %s", bar, line))
	}

	return result.String()
}

// renderMarkdown renders assistant text for the terminal. Results are cached
// per entry until the width changes.
func (a *AppView) renderMarkdown(key int, content string, width int) string {
	if cached, ok := a.markdownCache[key]; ok {
		return cached
	}

	startTime := time.Now()

	// Preprocess: strip markdown link syntax [text](url) → url
	content = preprocessLinks(content)

	// Disable autolink extension to keep plain URLs as plain text
	customExt := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(customExt)
	r := markdown.NewRenderer(max(10, width-4), 0)
	doc := p.Parse([]byte(content))
	rendered := gomarkdown.Render(doc, r)

	processed := strings.TrimRight(postProcessMarkdown(string(rendered), width), "\n")
	a.markdownCache[key] = processed

	if config.DebugLog != nil {
		config.DebugLog.Printf("[UI] markdown for entry %d rendered in %v", key, time.Since(startTime))
	}
	return processed
}

func postProcessMarkdown(rendered string, width int) string {
	// 1. Inline code: blue background → red text
	rendered = fixInlineCode(rendered)

	// 2. Color plain URLs red (autolink disabled keeps URLs plain)
	rendered = fixMarkdownLinks(rendered)

	// 3. Frame code blocks with horizontal lines
	return frameCodeBlocks(rendered, width)
}

func preprocessLinks(content string) string {
	return mdLinkRegex.ReplaceAllString(content, "$2")
}

func fixInlineCode(s string) string {
	return inlineCodeRegex.ReplaceAllString(s, "\x1b[31m$1\x1b[0m")
}

func fixMarkdownLinks(s string) string {
	redColor := "\x1b[31m"
	reset := "\x1b[0m"

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		// Code block lines keep their own highlighting
		if !strings.Contains(line, codeBlockBar) {
			lines[i] = urlRegex.ReplaceAllString(line, redColor+"$1"+reset)
		}
	}
	return strings.Join(lines, "\n")
}

func frameCodeBlocks(s string, width int) string {
	lines := strings.Split(s, "\n")
	var result []string
	inCodeBlock := false

	darkGray := "\x1b[90m"
	reset := "\x1b[0m"
	ruleWidth := max(10, width-4)

	closeBlock := func() {
		result = append(result, "", darkGray+strings.Repeat("━", ruleWidth)+reset, "")
	}

	for _, line := range lines {
		if strings.Contains(line, codeBlockBar) {
			if !inCodeBlock {
				inCodeBlock = true
				label := "[code]"
				leftLen := (ruleWidth - len(label)) / 2
				rightLen := ruleWidth - len(label) - leftLen
				border := darkGray + strings.Repeat("━", leftLen) + reset + label + darkGray + strings.Repeat("━", rightLen) + reset
				result = append(result, "", border, "")
			}
			result = append(result, stripCodeBlockPrefix(line))
			continue
		}
		if inCodeBlock {
			closeBlock()
			inCodeBlock = false
		}
		result = append(result, line)
	}
	if inCodeBlock {
		closeBlock()
	}

	return strings.Join(result, "\n")
}

func stripCodeBlockPrefix(line string) string {
	idx := strings.Index(line, codeBlockBar)
	if idx < 0 {
		return line
	}
	after := idx + len(codeBlockBar)
	if after < len(line) && line[after] == ' ' {
		after++
	}
	return line[after:]
}

// stripANSI removes ANSI escape codes for accurate length calculation
func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
