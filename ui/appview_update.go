package ui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"salesassist/config"
	appmodel "salesassist/model"
	"salesassist/render"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)

	case spinner.TickMsg:
		if a.dataModel.Busy() {
			var cmd tea.Cmd
			a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
			cmds = append(cmds, cmd)
		} else {
			a.spinning = false
		}

	case appmodel.NoticeExpiredMsg:
		if a.dataModel.Notice == msg.Notice {
			a.dataModel.Notice = ""
			a.noticeShown = ""
		}

	case tea.KeyMsg:
		cmds = append(cmds, a.handleKey(msg))

	default:
		if cmd, ok := a.dataModel.Handle(msg); ok {
			cmds = append(cmds, cmd)
		} else {
			// Cursor blink and other component messages
			var cmd tea.Cmd
			a.textarea, cmd = a.textarea.Update(msg)
			cmds = append(cmds, cmd)
			if a.editingKey != 0 {
				a.editArea, cmd = a.editArea.Update(msg)
				cmds = append(cmds, cmd)
			}
		}
	}

	cmds = append(cmds, a.sync()...)
	return a, tea.Batch(cmds...)
}

// sync brings the view in line with the session state after every message.
func (a *AppView) sync() []tea.Cmd {
	var cmds []tea.Cmd
	m := a.dataModel

	// Input is disabled while a request is in flight and refocused after.
	if m.Busy() || m.Fatal != "" || a.focus != focusInput || a.editingKey != 0 {
		a.textarea.Blur()
	} else if !a.textarea.Focused() {
		cmds = append(cmds, a.textarea.Focus())
	}

	switch {
	case m.Edit != nil && a.editingKey != m.Edit.EntryKey:
		a.editingKey = m.Edit.EntryKey
		a.selectedKey = m.Edit.EntryKey
		a.editArea.SetValue(m.Edit.Original)
		a.editArea.SetHeight(appmodel.EditRows(m.Edit.Original))
		cmds = append(cmds, a.editArea.Focus())
	case m.Edit == nil && a.editingKey != 0:
		a.editingKey = 0
		a.editArea.Blur()
	}

	if a.focus == focusMessages {
		if _, ok := m.Transcript.Get(a.selectedKey); !ok {
			a.selectLast()
		}
		if a.selectedKey == 0 {
			a.focus = focusInput
		}
	}
	if a.focus == focusSidebar && !a.sidebarVisible() {
		a.focus = focusInput
	}

	if !a.ready {
		return cmds
	}

	epochChanged := m.Transcript.Epoch() != a.lastEpoch
	if epochChanged {
		// Keys from the previous transcript never come back.
		a.markdownCache = map[int]string{}
	}
	changed := m.Transcript.Len() != a.lastLen || epochChanged
	a.lastLen = m.Transcript.Len()
	a.lastEpoch = m.Transcript.Epoch()
	a.updateViewportContent(changed || a.viewport.AtBottom())

	cmds = append(cmds, a.mountCharts()...)

	if m.Notice != "" && m.Notice != a.noticeShown {
		a.noticeShown = m.Notice
		notice := m.Notice
		cmds = append(cmds, tea.Tick(noticeTimeout, func(time.Time) tea.Msg {
			return appmodel.NoticeExpiredMsg{Notice: notice}
		}))
	}

	if m.Busy() && !a.spinning {
		a.spinning = true
		cmds = append(cmds, a.loadingSpinner.Tick)
	}

	return cmds
}

func (a *AppView) handleKey(msg tea.KeyMsg) tea.Cmd {
	k := msg.String()
	kb := a.keys

	// PRIORITY 0: Always-global shortcuts
	if k == "ctrl+c" || k == kb.GetActionKey("quit") {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] %s pressed - quitting", k)
		}
		return tea.Quit
	}

	// A critical error leaves reload as the only action.
	if a.dataModel.Fatal != "" {
		if k == kb.GetActionKey("reload") {
			a.resetView()
			return a.dataModel.Reload()
		}
		return nil
	}

	if a.showHelp {
		if k == "esc" || k == kb.GetActionKey("help") {
			a.showHelp = false
		}
		return nil
	}
	if k == kb.GetActionKey("help") {
		a.showHelp = true
		return nil
	}

	if a.dataModel.PendingDelete != nil {
		switch k {
		case "y", "Y", "enter":
			return a.dataModel.ConfirmDelete()
		case "n", "N", "esc":
			a.dataModel.CancelDelete()
		}
		return nil
	}

	if a.editingKey != 0 {
		switch k {
		case kb.GetActionKey("edit_save"):
			return a.dataModel.SaveEdit(a.editArea.Value())
		case kb.GetActionKey("edit_cancel"):
			a.dataModel.CancelEdit()
			return nil
		}
		var cmd tea.Cmd
		a.editArea, cmd = a.editArea.Update(msg)
		return cmd
	}

	if a.filtering {
		return a.handleFilterKey(msg)
	}

	if cmd, ok := a.handleGlobalKey(k); ok {
		return cmd
	}

	switch a.focus {
	case focusSidebar:
		return a.handleSidebarKey(k)
	case focusMessages:
		return a.handleMessageKey(k)
	}
	return a.handleInputKey(msg)
}

// handleGlobalKey handles modifier shortcuts that work from every pane.
func (a *AppView) handleGlobalKey(k string) (tea.Cmd, bool) {
	kb := a.keys
	m := a.dataModel

	switch k {
	case kb.GetActionKey("new_chat"):
		m.NewChat()
		a.focus = focusInput
	case kb.GetActionKey("focus_sidebar"):
		if !a.sidebarVisible() {
			a.showSidebar = true
			a.relayout()
		}
		if a.focus == focusSidebar {
			a.focus = focusInput
		} else if a.sidebarVisible() {
			a.focus = focusSidebar
			m.Sidebar.FocusActive()
		}
	case kb.GetActionKey("toggle_sidebar"):
		a.showSidebar = !a.showSidebar
		a.relayout()
	case kb.GetActionKey("select_messages"):
		if a.focus == focusMessages {
			a.focus = focusInput
		} else if a.selectLast() {
			a.focus = focusMessages
		}
	case kb.GetActionKey("export_html"):
		cmd := m.ExportHTML(m.ExportPath(a.now()))
		if cmd == nil {
			m.Notice = "Nothing to export"
		}
		return cmd, true
	case kb.GetActionKey("copy_last"):
		entries := m.Transcript.Entries()
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].Kind == appmodel.EntryAssistant {
				a.copyText(entries[i].Content)
				break
			}
		}
	case kb.GetActionKey("clear_input"):
		a.textarea.Reset()
	case kb.GetActionKey("scroll_down"):
		a.viewport.SetYOffset(a.viewport.YOffset + 1)
	case kb.GetActionKey("scroll_up"):
		a.viewport.SetYOffset(a.viewport.YOffset - 1)
	case kb.GetActionKey("half_page_down"):
		a.viewport.HalfPageDown()
	case kb.GetActionKey("half_page_up"):
		a.viewport.HalfPageUp()
	case kb.GetActionKey("page_down"):
		a.viewport.PageDown()
	case kb.GetActionKey("page_up"):
		a.viewport.PageUp()
	case kb.GetActionKey("scroll_to_top"):
		a.viewport.GotoTop()
	case kb.GetActionKey("scroll_to_bottom"):
		a.viewport.GotoBottom()
	case kb.GetActionKey("sample_1"), kb.GetActionKey("sample_2"), kb.GetActionKey("sample_3"), kb.GetActionKey("sample_4"):
		if !m.Welcome() {
			return nil, false
		}
		for i := range render.SampleQuestions {
			if k == kb.GetActionKey(fmt.Sprintf("sample_%d", i+1)) {
				a.focus = focusInput
				return m.Submit(render.SampleQuestions[i]), true
			}
		}
	default:
		return nil, false
	}
	return nil, true
}

func (a *AppView) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "enter" {
		cmd := a.dataModel.Submit(a.textarea.Value())
		if cmd != nil {
			a.textarea.Reset()
		}
		return cmd
	}
	if a.dataModel.Busy() {
		return nil
	}
	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return cmd
}

func (a *AppView) handleSidebarKey(k string) tea.Cmd {
	kb := a.keys
	sb := a.dataModel.Sidebar

	switch k {
	case kb.GetActionKey("sidebar_down"), "down":
		sb.MoveCursor(1)
	case kb.GetActionKey("sidebar_up"), "up":
		sb.MoveCursor(-1)
	case kb.GetActionKey("sidebar_open"):
		if conv, ok := sb.Selected(); ok {
			a.focus = focusInput
			return a.dataModel.LoadConversation(conv.ID)
		}
	case kb.GetActionKey("sidebar_delete"):
		if conv, ok := sb.Selected(); ok {
			a.dataModel.RequestDelete(conv)
		}
	case kb.GetActionKey("sidebar_filter"):
		a.filtering = true
		a.filterInput.SetValue(sb.Filter())
		a.filterInput.CursorEnd()
		return a.filterInput.Focus()
	case "esc":
		if sb.Filter() != "" {
			sb.SetFilter("")
		} else {
			a.focus = focusInput
		}
	}
	return nil
}

func (a *AppView) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	sb := a.dataModel.Sidebar
	switch msg.String() {
	case "enter":
		a.filtering = false
		a.filterInput.Blur()
		return nil
	case "esc":
		a.filtering = false
		a.filterInput.Blur()
		a.filterInput.SetValue("")
		sb.SetFilter("")
		return nil
	}

	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	sb.SetFilter(a.filterInput.Value())
	return cmd
}

func (a *AppView) handleMessageKey(k string) tea.Cmd {
	kb := a.keys
	m := a.dataModel

	switch k {
	case kb.GetActionKey("message_down"), "down":
		a.moveSelection(1)
	case kb.GetActionKey("message_up"), "up":
		a.moveSelection(-1)
	case kb.GetActionKey("message_edit"):
		entry, ok := m.Transcript.Get(a.selectedKey)
		if !ok || !entry.Editable() {
			return nil
		}
		return m.BeginEdit(a.selectedKey)
	case kb.GetActionKey("message_toggle_query"):
		m.Transcript.ToggleQueries(a.selectedKey)
	case kb.GetActionKey("message_copy"):
		if entry, ok := m.Transcript.Get(a.selectedKey); ok {
			a.copyText(entry.Content)
		}
	case kb.GetActionKey("message_copy_query"):
		if entry, ok := m.Transcript.Get(a.selectedKey); ok {
			for _, r := range entry.Results {
				if r.Query != "" {
					a.copyText(r.Query)
					break
				}
			}
		}
	case "esc":
		a.focus = focusInput
	}
	return nil
}

// selectLast selects the newest selectable entry. It reports false when the
// transcript has none.
func (a *AppView) selectLast() bool {
	entries := a.dataModel.Transcript.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Kind != appmodel.EntryLoading {
			a.selectedKey = entries[i].Key
			a.scrollToEntry(a.selectedKey)
			return true
		}
	}
	a.selectedKey = 0
	return false
}

func (a *AppView) moveSelection(delta int) {
	entries := a.dataModel.Transcript.Entries()
	pos := a.dataModel.Transcript.Position(a.selectedKey)
	for i := pos + delta; i >= 0 && i < len(entries); i += delta {
		if entries[i].Kind != appmodel.EntryLoading {
			a.selectedKey = entries[i].Key
			a.scrollToEntry(a.selectedKey)
			return
		}
	}
}

// scrollToEntry brings an entry into view using the last rendered layout.
func (a *AppView) scrollToEntry(key int) {
	for _, span := range a.layout {
		if span.key != key {
			continue
		}
		if span.start < a.viewport.YOffset {
			a.viewport.SetYOffset(span.start)
		} else if span.end > a.viewport.YOffset+a.viewport.Height {
			a.viewport.SetYOffset(max(span.start, span.end-a.viewport.Height))
		}
		return
	}
}

func (a *AppView) copyText(text string) {
	if err := writeClipboard(text); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] clipboard write failed: %v", err)
		}
		a.dataModel.Notice = "Copy failed"
		return
	}
	a.dataModel.Notice = "Copied to clipboard"
}
