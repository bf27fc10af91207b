// Package render turns conversation payloads into HTML fragments and
// declarative chart configurations. All text is treated as untrusted.
package render

import (
	"regexp"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\u00a0", "&nbsp;",
)

// EscapeHTML escapes text for use as element content, matching what a DOM
// produces when serialising a text node.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// escapeAttr additionally escapes quotes for attribute values.
func escapeAttr(s string) string {
	return strings.ReplaceAll(EscapeHTML(s), `"`, "&quot;")
}

var (
	boldRegex       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicStarRegex = regexp.MustCompile(`\*(.+?)\*`)
	italicUndRegex  = regexp.MustCompile(`_(.+?)_`)
	inlineCodeRegex = regexp.MustCompile("`(.+?)`")
)

// MarkdownLite renders bold, italic, inline code and line breaks. The input
// is escaped before any substitution so embedded markup never survives.
func MarkdownLite(text string) string {
	if text == "" {
		return ""
	}

	html := EscapeHTML(text)
	html = boldRegex.ReplaceAllString(html, "<strong>$1</strong>")
	html = italicStarRegex.ReplaceAllString(html, "<em>$1</em>")
	html = italicUndRegex.ReplaceAllString(html, "<em>$1</em>")
	html = inlineCodeRegex.ReplaceAllString(html, "<code>$1</code>")
	html = strings.ReplaceAll(html, "\n", "<br>")

	return html
}
