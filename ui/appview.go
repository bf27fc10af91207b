package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"salesassist/config"
	appmodel "salesassist/model"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
	focusMessages
)

const (
	inputHeight   = 3
	minMainWidth  = 40
	noticeTimeout = 4 * time.Second
)

// entrySpan is the line range an entry occupies in the viewport content.
type entrySpan struct {
	key        int
	start, end int
}

type AppView struct {
	// Reference to core data model
	dataModel *appmodel.Model
	keys      *config.KeyBindingsConfig

	// UI Components
	viewport       viewport.Model
	textarea       textarea.Model
	editArea       textarea.Model
	filterInput    textinput.Model
	loadingSpinner spinner.Model

	// Window state
	width  int
	height int
	ready  bool

	focus       focusArea
	showHelp    bool
	showSidebar bool
	filtering   bool

	// selectedKey is the entry highlighted in message selection mode.
	// editingKey is the entry whose edit field is open, 0 if none.
	selectedKey int
	editingKey  int

	layout        []entrySpan
	markdownCache map[int]string
	cacheWidth    int

	spinning    bool
	noticeShown string
	lastLen     int
	lastEpoch   int

	now func() time.Time
}

func newTextarea() textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your sales data..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(inputHeight)
	ta.SetWidth(80)

	// Custom KeyMap: Alt+Enter for newline, Enter alone submits (handled separately)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	// Set dynamic prompt: "> " for first line, "| " for subsequent lines
	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})
	return ta
}

func newEditArea() textarea.Model {
	ta := textarea.New()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("enter", "alt+enter"))
	ta.Prompt = "┃ "
	return ta
}

func newFilterInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = "Filter: "
	ti.CharLimit = 64
	return ti
}

func NewAppView(cfg *config.Config, backend appmodel.Backend) AppView {
	keys := cfg.Keys
	if keys == nil {
		keys = config.DefaultKeybindings()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = AssistantStyle

	return AppView{
		dataModel:      appmodel.NewModel(cfg, backend),
		keys:           keys,
		viewport:       viewport.New(0, 0),
		textarea:       newTextarea(),
		editArea:       newEditArea(),
		filterInput:    newFilterInput(),
		loadingSpinner: s,
		showSidebar:    true,
		markdownCache:  map[int]string{},
		lastLen:        -1,
		lastEpoch:      -1,
		now:            time.Now,
	}
}

func (a AppView) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		a.dataModel.Init(),
	)
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading Sales Assistant..."
	}

	// The fatal screen replaces everything, including help.
	if a.dataModel.Fatal != "" {
		return renderFatalScreen(a.dataModel.Fatal, a.keys.GetActionKey("reload"), a.width, a.height)
	}

	if a.showHelp {
		return a.renderHelpModal(a.width, a.height)
	}

	if pending := a.dataModel.PendingDelete; pending != nil {
		title, message := appmodel.DeleteDialog()
		return renderDeleteConfirmation(title, message, pending.Title, a.width, a.height)
	}

	main := a.renderMain()
	if !a.sidebarVisible() {
		return main
	}

	sidebar := renderSidebar(sidebarView{
		sidebar:     a.dataModel.Sidebar,
		filterInput: a.filterInput,
		filtering:   a.filtering,
		focused:     a.focus == focusSidebar,
		hint:        a.sidebarHint(),
		width:       a.sidebarWidth(),
		height:      a.height,
		now:         a.now(),
	})
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

func (a AppView) renderMain() string {
	title := AssistantStyle.Render("Sales Assistant")
	if a.dataModel.Store.Has() {
		title += UserStyle.Render(" - " + singleLine(a.dataModel.CurrentTitle()))
	}

	// Separator with bottom margin for header (empty line forces spacing)
	separator := ""

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		separator,
		a.viewport.View(),
		a.textarea.View(),
		a.statusBar(),
	)
}

func (a AppView) statusBar() string {
	if a.dataModel.Notice != "" {
		return NoticeStyle.Render(a.dataModel.Notice)
	}
	kb := a.keys
	switch {
	case a.editingKey != 0:
		return formatStatusBar(
			kb.DisplayActionKey("edit_save"), "Save",
			kb.DisplayActionKey("edit_cancel"), "Cancel",
		)
	case a.focus == focusMessages:
		return formatStatusBar(
			"j/k", "Select",
			kb.DisplayActionKey("message_edit"), "Edit",
			kb.DisplayActionKey("message_toggle_query"), "SQL",
			kb.DisplayActionKey("message_copy"), "Copy",
			"Esc", "Back",
		)
	case a.dataModel.Busy():
		return StatusStyle.Render(a.loadingSpinner.View() + " Waiting for response...")
	}
	return formatStatusBar(
		kb.DisplayActionKey("quit"), "Quit",
		kb.DisplayActionKey("new_chat"), "New",
		kb.DisplayActionKey("focus_sidebar"), "Chats",
		kb.DisplayActionKey("select_messages"), "Messages",
		"Alt+Enter", "New Line",
		"Enter", "Send",
		kb.DisplayActionKey("help"), "Help",
	)
}

func (a AppView) sidebarHint() string {
	kb := a.keys
	return kb.GetActionKey("sidebar_open") + " open · " +
		kb.GetActionKey("sidebar_delete") + " delete · " +
		kb.GetActionKey("sidebar_filter") + " filter"
}

// sidebarVisible hides the sidebar on terminals too narrow for both panes.
func (a AppView) sidebarVisible() bool {
	return a.showSidebar && a.width >= a.sidebarWidth()+minMainWidth
}

func (a AppView) sidebarWidth() int {
	if a.dataModel.Config != nil && a.dataModel.Config.SidebarWidth > 0 {
		return a.dataModel.Config.SidebarWidth
	}
	return 32
}

func (a AppView) mainWidth() int {
	if a.sidebarVisible() {
		return a.width - a.sidebarWidth()
	}
	return a.width
}

// resize lays out the panes for the current window size.
func (a *AppView) resize(width, height int) {
	a.width = width
	a.height = height

	// Reserve space for title (1 line), separator (1 line), textarea and status bar (1 line)
	mainWidth := a.mainWidth()
	a.viewport.Width = mainWidth
	a.viewport.Height = max(1, a.height-inputHeight-3)
	a.textarea.SetWidth(mainWidth)
	a.editArea.SetWidth(max(10, mainWidth-4))

	if mainWidth != a.cacheWidth {
		a.cacheWidth = mainWidth
		a.markdownCache = map[int]string{}
		a.dataModel.Transcript.InvalidateCharts()
	}

	if a.focus == focusSidebar && !a.sidebarVisible() {
		a.focus = focusInput
	}
	a.ready = true
}

func (a *AppView) relayout() {
	if a.ready {
		a.resize(a.width, a.height)
	}
}

// resetView drops view state tied to the previous session, for Reload.
func (a *AppView) resetView() {
	a.focus = focusInput
	a.showHelp = false
	a.filtering = false
	a.filterInput = newFilterInput()
	a.selectedKey = 0
	a.editingKey = 0
	a.editArea.Blur()
	a.textarea.Reset()
	a.layout = nil
	a.markdownCache = map[int]string{}
	a.noticeShown = ""
	a.lastLen = -1
	a.lastEpoch = -1
}
