package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (a AppView) renderHelpModal(width, height int) string {
	kb := a.keys

	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)

	title := green.Render("Sales Assistant - Keyboard Shortcuts")

	blue := lipgloss.NewStyle().Foreground(accentColor)

	globalActions := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Global Actions"),
		fmt.Sprintf("• %-13s New chat", kb.DisplayActionKey("new_chat")),
		fmt.Sprintf("• %-13s Focus conversations", kb.DisplayActionKey("focus_sidebar")),
		fmt.Sprintf("• %-13s Show/hide sidebar", kb.DisplayActionKey("toggle_sidebar")),
		fmt.Sprintf("• %-13s Select messages", kb.DisplayActionKey("select_messages")),
		fmt.Sprintf("• %-13s Export as HTML", kb.DisplayActionKey("export_html")),
		fmt.Sprintf("• %-13s Copy last answer", kb.DisplayActionKey("copy_last")),
		fmt.Sprintf("• %-13s Clear input", kb.DisplayActionKey("clear_input")),
		fmt.Sprintf("• %-13s Toggle this help", kb.DisplayActionKey("help")),
		fmt.Sprintf("• %-13s Quit", kb.DisplayActionKey("quit")),
	)

	conversations := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Conversations"),
		fmt.Sprintf("• %-13s Move down/up", kb.DisplayActionKey("sidebar_down")+"/"+kb.DisplayActionKey("sidebar_up")),
		fmt.Sprintf("• %-13s Open", kb.DisplayActionKey("sidebar_open")),
		fmt.Sprintf("• %-13s Delete", kb.DisplayActionKey("sidebar_delete")),
		fmt.Sprintf("• %-13s Filter", kb.DisplayActionKey("sidebar_filter")),
	)

	chatNavigation := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Chat Navigation"),
		fmt.Sprintf("• %-13s Scroll down 1 line", kb.DisplayActionKey("scroll_down")),
		fmt.Sprintf("• %-13s Scroll up 1 line", kb.DisplayActionKey("scroll_up")),
		fmt.Sprintf("• %-13s Half page down", kb.DisplayActionKey("half_page_down")),
		fmt.Sprintf("• %-13s Half page up", kb.DisplayActionKey("half_page_up")),
		fmt.Sprintf("• %-13s Full page down", kb.DisplayActionKey("page_down")),
		fmt.Sprintf("• %-13s Full page up", kb.DisplayActionKey("page_up")),
		fmt.Sprintf("• %-13s Jump to top", kb.DisplayActionKey("scroll_to_top")),
		fmt.Sprintf("• %-13s Jump to bottom", kb.DisplayActionKey("scroll_to_bottom")),
	)

	messageActions := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Selected Message"),
		"• Enter         Send message",
		fmt.Sprintf("• %-13s Edit and re-run", kb.DisplayActionKey("message_edit")),
		fmt.Sprintf("• %-13s Show/hide SQL", kb.DisplayActionKey("message_toggle_query")),
		fmt.Sprintf("• %-13s Copy message", kb.DisplayActionKey("message_copy")),
		fmt.Sprintf("• %-13s Copy SQL", kb.DisplayActionKey("message_copy_query")),
		fmt.Sprintf("• %-13s Save edit", kb.DisplayActionKey("edit_save")),
		fmt.Sprintf("• %-13s Cancel edit", kb.DisplayActionKey("edit_cancel")),
	)

	column1 := lipgloss.JoinVertical(
		lipgloss.Left,
		globalActions,
		"",
		conversations,
	)

	column2 := lipgloss.JoinVertical(
		lipgloss.Left,
		chatNavigation,
		"",
		messageActions,
	)

	columnStyle := lipgloss.NewStyle().Width(42).PaddingLeft(4)

	twoColumns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Render(column1),
		"    ",
		columnStyle.Render(column2),
	)

	footer := lipgloss.NewStyle().
		Foreground(dimColor).
		Render(fmt.Sprintf("Press %s or Esc to close this help", kb.DisplayActionKey("help")))

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		twoColumns,
		"",
		footer,
	)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(1, 2).
		Width(min(100, max(40, width-2)))

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox.Render(content),
	)
}
