package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"salesassist/model"
)

// sidebarView is everything the conversation list needs to draw itself.
type sidebarView struct {
	sidebar     *model.Sidebar
	filterInput textinput.Model
	filtering   bool
	focused     bool
	hint        string
	width       int
	height      int
	now         time.Time
}

// linesPerItem is a title line, a meta line and a blank line.
const linesPerItem = 3

func renderSidebar(v sidebarView) string {
	inner := v.width - 2 // right border plus padding

	titleStyle := TitleStyle
	if v.focused {
		titleStyle = titleStyle.Foreground(successColor)
	}
	title := titleStyle.Render("Conversations")

	var header string
	switch {
	case v.filtering:
		header = v.filterInput.View()
	case v.sidebar.Filter() != "":
		header = DimStyle.Render(fmt.Sprintf("%d of %d · /%s", len(v.sidebar.Items()), len(v.sidebar.All()), v.sidebar.Filter()))
	default:
		header = DimStyle.Render(fmt.Sprintf("%d conversations", len(v.sidebar.All())))
	}

	lines := []string{title, header, ""}
	lines = append(lines, sidebarItems(v, inner, v.height-len(lines)-1)...)

	for len(lines) < v.height-1 {
		lines = append(lines, "")
	}
	lines = lines[:max(0, v.height-1)]

	if v.focused {
		lines = append(lines, HelpStyle.Render(runewidth.Truncate(v.hint, inner, "…")))
	} else {
		lines = append(lines, "")
	}

	return lipgloss.NewStyle().
		Width(v.width - 1).
		Height(v.height).
		MaxHeight(v.height).
		PaddingRight(1).
		BorderRight(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Render(strings.Join(lines, "\n"))
}

func sidebarItems(v sidebarView, width, height int) []string {
	items := v.sidebar.Items()
	if !v.sidebar.Loaded() {
		return []string{DimStyle.Render("Loading...")}
	}
	if len(items) == 0 {
		msg := model.EmptySidebarText
		if v.sidebar.Filter() != "" {
			msg = "No matches found"
		}
		return []string{lipgloss.NewStyle().Foreground(dimColor).Italic(true).Render(msg)}
	}

	visible := max(1, height/linesPerItem)
	cursor := v.sidebar.Cursor()
	start := 0
	if len(items) > visible {
		start = min(max(0, cursor-visible/2), len(items)-visible)
	}
	end := min(len(items), start+visible)

	var lines []string
	for i := start; i < end; i++ {
		c := items[i]

		indicator := "  "
		if i == cursor && v.focused {
			indicator = "▶ "
		}
		marker := ""
		if v.sidebar.IsActive(c.ID) {
			marker = " ●"
		}

		name := singleLine(c.Title)
		if name == "" {
			name = "Untitled"
		}
		nameWidth := width - runewidth.StringWidth(indicator) - runewidth.StringWidth(marker)
		if runewidth.StringWidth(name) > nameWidth {
			name = runewidth.Truncate(name, max(1, nameWidth), "…")
		}

		switch {
		case i == cursor && v.focused:
			name = lipgloss.NewStyle().Foreground(successColor).Bold(true).Render(name)
		case v.sidebar.IsActive(c.ID):
			name = lipgloss.NewStyle().Foreground(accentColor).Bold(true).Render(name)
		}
		if marker != "" {
			marker = lipgloss.NewStyle().Foreground(accentColor).Render(marker)
		}

		lines = append(lines,
			indicator+name+marker,
			"  "+DimStyle.Render(runewidth.Truncate(model.Meta(c, v.now), max(1, width-2), "…")),
			"",
		)
	}
	return lines
}
