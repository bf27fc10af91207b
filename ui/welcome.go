package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"salesassist/config"
	"salesassist/render"
)

var (
	welcomeTitleStyle = lipgloss.NewStyle().
				Foreground(successColor).
				Bold(true)

	sampleKeyStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)
)

// renderWelcome is shown in place of the transcript while there is no
// conversation. Each sample question has a shortcut that submits it.
func renderWelcome(width int, kb *config.KeyBindingsConfig) string {
	var b strings.Builder
	b.WriteString(welcomeTitleStyle.Render("Welcome to Sales Assistant") + "\n\n")
	b.WriteString(wordwrap.String("Ask me anything about your sales data. For example:", max(20, width-2)) + "\n\n")

	for i, q := range render.SampleQuestions {
		shortcut := kb.DisplayActionKey(fmt.Sprintf("sample_%d", i+1))
		b.WriteString(fmt.Sprintf("  %s  %s\n", sampleKeyStyle.Render(fmt.Sprintf("%-6s", shortcut)), q))
	}

	b.WriteString("\n" + DimStyle.Render("Type a question below and press Enter."))
	return b.String()
}
