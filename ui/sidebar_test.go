package ui

import (
	"strings"
	"testing"
	"time"

	"salesassist/api"
	"salesassist/model"
)

func testSidebar(items ...api.ConversationSummary) (*model.Store, *model.Sidebar) {
	store := model.NewStore()
	sb := model.NewSidebar(store)
	if items != nil {
		sb.SetItems(items)
	}
	return store, sb
}

func sidebarText(sb *model.Sidebar, focused bool) string {
	return stripANSI(renderSidebar(sidebarView{
		sidebar:     sb,
		filterInput: newFilterInput(),
		focused:     focused,
		hint:        "enter open",
		width:       30,
		height:      20,
		now:         time.Date(2025, 3, 1, 12, 0, 0, 0, time.Local),
	}))
}

func TestSidebarListsConversations(t *testing.T) {
	store, sb := testSidebar(
		api.ConversationSummary{ID: "c1", Title: "Top customers", CreatedAt: "2025-03-01T09:00:00", MessageCount: 4},
		api.ConversationSummary{ID: "c2", Title: "Monthly revenue", CreatedAt: "2025-02-28T12:00:00", MessageCount: 2},
	)
	store.Set("c2")

	out := sidebarText(sb, true)
	for _, want := range []string{
		"Conversations",
		"2 conversations",
		"▶ Top customers",
		"3h ago · 4 messages",
		"Monthly revenue ●",
		"1d ago · 2 messages",
		"enter open",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("sidebar missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Top customers ●") {
		t.Errorf("only the active conversation is marked:\n%s", out)
	}
}

func TestSidebarUnfocusedHasNoCursor(t *testing.T) {
	_, sb := testSidebar(api.ConversationSummary{ID: "c1", Title: "Top customers", CreatedAt: "2025-03-01T09:00:00"})

	out := sidebarText(sb, false)
	if strings.Contains(out, "▶") {
		t.Errorf("cursor drawn without focus:\n%s", out)
	}
	if strings.Contains(out, "enter open") {
		t.Errorf("hint drawn without focus:\n%s", out)
	}
}

func TestSidebarEmptyStates(t *testing.T) {
	_, loading := testSidebar()
	if out := sidebarText(loading, false); !strings.Contains(out, "Loading...") {
		t.Errorf("unloaded sidebar:\n%s", out)
	}

	_, empty := testSidebar()
	empty.SetItems([]api.ConversationSummary{})
	if out := sidebarText(empty, false); !strings.Contains(out, model.EmptySidebarText) {
		t.Errorf("empty sidebar:\n%s", out)
	}

	_, filtered := testSidebar(api.ConversationSummary{ID: "c1", Title: "Top customers"})
	filtered.SetFilter("zzz")
	out := sidebarText(filtered, false)
	if !strings.Contains(out, "No matches found") || !strings.Contains(out, "0 of 1 · /zzz") {
		t.Errorf("filtered sidebar:\n%s", out)
	}
}

func TestSidebarTruncatesLongTitles(t *testing.T) {
	_, sb := testSidebar(api.ConversationSummary{ID: "c1", Title: strings.Repeat("revenue ", 10)})

	out := sidebarText(sb, false)
	if !strings.Contains(out, "…") {
		t.Errorf("long title not truncated:\n%s", out)
	}
}

func TestSidebarFlattensMultilineTitles(t *testing.T) {
	_, sb := testSidebar(api.ConversationSummary{ID: "c1", Title: "top\ncustomers"})

	out := sidebarText(sb, false)
	if !strings.Contains(out, "top customers") {
		t.Errorf("multi-line title not flattened:\n%s", out)
	}
}
