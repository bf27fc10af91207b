package model

import (
	"fmt"
	"time"

	"github.com/sahilm/fuzzy"

	"salesassist/api"
)

const EmptySidebarText = "No conversations yet"

// Sidebar is the conversation list state. The active item is derived from
// the shared Store rather than tracked separately.
type Sidebar struct {
	store *Store

	items    []api.ConversationSummary
	filtered []api.ConversationSummary
	filter   string
	cursor   int
	loaded   bool
}

func NewSidebar(store *Store) *Sidebar {
	return &Sidebar{store: store}
}

// SetItems replaces the list with a fresh fetch, keeping the filter.
func (s *Sidebar) SetItems(items []api.ConversationSummary) {
	s.items = items
	s.loaded = true
	s.applyFilter()
}

func (s *Sidebar) Loaded() bool { return s.loaded }

// Items returns the list as displayed, filtered if a filter is set.
func (s *Sidebar) Items() []api.ConversationSummary {
	if s.filter == "" {
		return s.items
	}
	return s.filtered
}

func (s *Sidebar) All() []api.ConversationSummary { return s.items }

func (s *Sidebar) Empty() bool { return len(s.items) == 0 }

func (s *Sidebar) IsActive(id api.ID) bool { return s.store.IsCurrent(id) }

func (s *Sidebar) Filter() string { return s.filter }

func (s *Sidebar) SetFilter(filter string) {
	s.filter = filter
	s.applyFilter()
}

func (s *Sidebar) applyFilter() {
	if s.filter == "" {
		s.filtered = nil
	} else {
		targets := make([]string, len(s.items))
		for i, c := range s.items {
			targets[i] = c.Title
		}
		matches := fuzzy.Find(s.filter, targets)
		s.filtered = make([]api.ConversationSummary, len(matches))
		for i, match := range matches {
			s.filtered[i] = s.items[match.Index]
		}
	}
	s.clampCursor()
}

func (s *Sidebar) Cursor() int { return s.cursor }

func (s *Sidebar) MoveCursor(delta int) {
	s.cursor += delta
	s.clampCursor()
}

func (s *Sidebar) clampCursor() {
	n := len(s.Items())
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// FocusActive moves the cursor onto the active conversation if it is listed.
func (s *Sidebar) FocusActive() {
	for i, c := range s.Items() {
		if s.store.IsCurrent(c.ID) {
			s.cursor = i
			return
		}
	}
}

func (s *Sidebar) Selected() (api.ConversationSummary, bool) {
	items := s.Items()
	if s.cursor < 0 || s.cursor >= len(items) {
		return api.ConversationSummary{}, false
	}
	return items[s.cursor], true
}

// Title returns the title of a listed conversation.
func (s *Sidebar) Title(id api.ID) (string, bool) {
	for _, c := range s.items {
		if c.ID == id {
			return c.Title, true
		}
	}
	return "", false
}

func (s *Sidebar) Reset() {
	s.items = nil
	s.filtered = nil
	s.filter = ""
	s.cursor = 0
	s.loaded = false
}

// Meta is the secondary line of a list item, e.g. "3h ago · 4 messages".
func Meta(c api.ConversationSummary, now time.Time) string {
	return fmt.Sprintf("%s · %d messages", FormatCreated(c.CreatedAt, now), c.MessageCount)
}

// FormatCreated renders a creation timestamp relative to now. Timestamps
// older than a week fall back to a date.
func FormatCreated(createdAt string, now time.Time) string {
	t, ok := api.ParseTimestamp(createdAt)
	if !ok {
		return createdAt
	}
	d := now.Sub(t)

	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
	return t.Local().Format("Jan 2, 2006")
}
