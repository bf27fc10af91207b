package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type ConfirmationState struct {
	Active  bool
	Title   string
	Message string
}

func RenderConfirmationModal(state ConfirmationState, width, height int) string {
	modalWidth := modalWidthFor(60, width)

	messageStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Align(lipgloss.Center)

	var messageLines []string
	for _, line := range strings.Split(state.Message, "\n") {
		messageLines = append(messageLines, messageStyle.Render(line))
	}

	footer := FormatFooter("y", "Yes", "n", "No")
	return RenderThreeSectionModal(state.Title, messageLines, footer, ModalTypeWarning, modalWidth, width, height)
}

// renderDeleteConfirmation asks before deleting a listed conversation.
func renderDeleteConfirmation(title, message, conversationTitle string, width, height int) string {
	quoted := lipgloss.NewStyle().Bold(true).Render("\"" + conversationTitle + "\"")
	warning := lipgloss.NewStyle().Foreground(dangerColor).Render(message)
	return RenderConfirmationModal(ConfirmationState{
		Active:  true,
		Title:   "⚠ " + title,
		Message: quoted + "\n\n" + warning,
	}, width, height)
}
